// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/assetsync/assetsync/pkg/manifest"
)

func newManifestCommand(app *App) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect release manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show <file|dir>",
		Short: "Print a manifest",
		Long: `Print a manifest. A directory argument reads its version.json, so both
a release directory and an installed Bundles directory work.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showManifest(app, args[0], asJSON)
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the manifest in its wire format")
	manifestCmd.AddCommand(show)

	return manifestCmd
}

func showManifest(app *App, target string, asJSON bool) error {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, manifest.FileName)
	}
	f, err := os.Open(target)
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := manifest.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}

	if asJSON {
		return manifest.Encode(app.stdout, m)
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Release "+m.Version.String()))
	fmt.Fprintf(app.stdout, "%s%s\n", labelStyle.Render("Generated"), m.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(app.stdout, "%s%d (%s)\n", labelStyle.Render("Artifacts"), len(m.Artifacts), humanSize(m.TotalSize()))
	fmt.Fprintln(app.stdout)
	for _, a := range m.Artifacts {
		fmt.Fprintf(app.stdout, "  %s  %10s  %s\n", VerboseStyle.Render(a.Digest), humanSize(a.Size), a.Name)
	}
	return nil
}
