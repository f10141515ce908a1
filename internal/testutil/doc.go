// SPDX-License-Identifier: MPL-2.0

// Package testutil holds the clock abstraction shared by production code and
// tests, plus helpers for laying out resource trees in tests.
package testutil
