// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "assetsync",
		Short: "Build, publish and incrementally update asset bundles",
		Long: TitleStyle.Render("assetsync") + SubtitleStyle.Render(" - asset bundle build and update pipeline") + `

assetsync packages a resource tree into versioned asset bundles with a
digest manifest, and keeps a device's installed content in sync with the
latest release on a CDN, downloading only what changed.

` + SubtitleStyle.Render("Examples:") + `
  assetsync build 1.4.0               Package Resources/ into build/1.4.0/Bundles
  assetsync build 1.4.0 --watch       Rebuild whenever resources change
  assetsync update                    Bring installed content up to date
  assetsync update --repair           Re-download every artifact
  assetsync verify                    Check installed content against its manifest
  assetsync resolve UI/Atlas/Icons    Show which artifacts hold an asset
  assetsync config show               Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.interactive, "interactive", "i", false, "ask before retrying a failed update")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/assetsync/config.cue)")

	rootCmd.AddCommand(
		newBuildCommand(app, flags),
		newUpdateCommand(app, flags),
		newVerifyCommand(app, flags),
		newResolveCommand(app, flags),
		newManifestCommand(app),
		newConfigCommand(app, flags),
	)
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// fang overrides rootCmd.Version, so the version goes through fang.WithVersion.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
