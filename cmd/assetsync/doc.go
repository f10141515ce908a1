// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for assetsync.
//
// The App type is the composition root: every Cobra handler receives it and
// reaches configuration and output streams through it, so tests can run the
// full command tree against buffers and temporary directories.
package cmd
