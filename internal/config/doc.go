// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from the file given with --config, otherwise from
// ~/.config/assetsync/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/assetsync/config.cue on macOS,
// %APPDATA%\assetsync\config.cue on Windows), otherwise from ./assetsync.cue.
// ASSETSYNC_* environment variables override file values; nested keys use an
// underscore, e.g. ASSETSYNC_BUILD_RESOURCE_ROOT.
//
// Files are validated against the embedded CUE schema (config_schema.cue)
// before they reach Viper. Values that can also arrive through the
// environment are checked again in Go by Config.IsValid.
package config
