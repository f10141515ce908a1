// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetsync/assetsync/internal/config"
)

// newConfigCommand creates the `assetsync config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage assetsync configuration",
		Long: `Manage assetsync configuration.

Configuration is read from, in order:
  - the file passed with --config
  - Linux: ~/.config/assetsync/config.cue
    macOS: ~/Library/Application Support/assetsync/config.cue
    Windows: %APPDATA%\assetsync\config.cue
  - ./assetsync.cue

ASSETSYNC_* environment variables override file values, e.g.
ASSETSYNC_ORIGIN or ASSETSYNC_BUILD_OUTPUT_DIR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var asCUE bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := app.loadConfigWithSource(cmd.Context(), rootFlags)
			if err != nil {
				reportError(app.stderr, err, rootFlags.verbose)
				return &ExitError{Code: 1, Err: err}
			}
			if asCUE {
				fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
				return nil
			}
			showConfig(app, cfg, source)
			return nil
		},
	}
	show.Flags().BoolVar(&asCUE, "cue", false, "print the configuration as CUE")

	cfgCmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "init",
			Short: "Create the default configuration file",
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.CreateDefaultConfig()
				if err != nil {
					return fmt.Errorf("failed to create config: %w", err)
				}
				fmt.Fprintf(app.stdout, "%s Configuration file: %s\n", SuccessStyle.Render("✓"), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the user configuration file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
				return nil
			},
		},
	)

	return cfgCmd
}

func showConfig(app *App, cfg *config.Config, source string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	none := SubtitleStyle.Render("(not set)")

	val := func(s string) string {
		if s == "" {
			return none
		}
		return valueStyle.Render(s)
	}
	line := func(indent, key, value string) {
		fmt.Fprintf(app.stdout, "%s%s: %s\n", indent, keyStyle.Render(key), value)
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)
	if source == "" {
		line("", "Config file", SubtitleStyle.Render("(using defaults)"))
	} else {
		line("", "Config file", source)
	}
	fmt.Fprintln(app.stdout)

	line("", "writable_root", val(cfg.WritableRoot))
	line("", "ship_root", val(cfg.ShipRoot))
	line("", "origin", val(cfg.Origin))
	line("", "channel", val(cfg.Channel))
	line("", "client_version", val(cfg.ClientVersion))
	line("", "download_concurrency", valueStyle.Render(fmt.Sprint(cfg.DownloadConcurrency)))
	line("", "http_timeout", val(string(cfg.HTTPTimeout)))
	line("", "log_level", val(string(cfg.LogLevel)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("build"))
	b := cfg.Build
	line("  ", "resource_root", val(b.ResourceRoot))
	line("  ", "output_dir", val(b.OutputDir))
	line("  ", "manifest_archive_dir", val(b.ManifestArchiveDir))
	line("  ", "combine_config", val(b.CombineConfig))
	line("  ", "ship_dir", val(b.ShipDir))
	line("  ", "exclude", val(strings.Join(b.Exclude, ", ")))
}
