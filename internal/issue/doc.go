// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved, and
// remediation hints. Well-known failure classes of the build and update
// pipelines also have a Markdown guide in the issue catalog, rendered for the
// terminal with glamour.
package issue
