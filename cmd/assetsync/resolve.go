// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetsync/assetsync/internal/issue"
	"github.com/assetsync/assetsync/internal/store"
	"github.com/assetsync/assetsync/pkg/addrindex"
	"github.com/assetsync/assetsync/pkg/bundlefile"
)

func newResolveCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var (
		dir    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show which artifacts hold an addressable asset",
		Long: `Show which artifacts hold an addressable asset.

The name is the asset's path under the resource root without its extension,
e.g. UI/Atlas/Icons. The artifact holding it is printed after the artifacts it
depends on, in load order. With --output the asset itself is extracted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := app.loadConfig(cmd.Context(), rootFlags)
				if err != nil {
					reportError(app.stderr, err, rootFlags.verbose)
					return &ExitError{Code: 1, Err: err}
				}
				dir = store.New(cfg.WritableRoot, nil).Dir()
			}

			if err := runResolve(app, dir, args[0], output); err != nil {
				reportError(app.stderr, err, rootFlags.verbose)
				return &ExitError{Code: 1, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "release directory to read (default <writable_root>/Bundles)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the asset's bytes to this file")
	return cmd
}

func runResolve(app *App, dir, name, output string) error {
	resolver, _, err := bundlefile.LoadResolver(dir)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("load address index").
			WithResource(dir).
			WithSuggestion("Run 'assetsync update' to install content").
			WithIssue(issue.LocalStorageFailedId).
			Wrap(err).
			BuildError()
	}

	res, err := resolver.Resolve(name)
	if errors.Is(err, addrindex.ErrUnknownAsset) {
		return issue.NewErrorContext().
			WithOperation("resolve asset").
			WithResource(name).
			WithIssue(issue.AddressableNotFoundId).
			Wrap(err).
			BuildError()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "%s%s\n", labelStyle.Render("Artifact"), res.Artifact)
	if len(res.Dependencies) > 0 {
		fmt.Fprintf(app.stdout, "%s%s\n", labelStyle.Render("Depends on"), strings.Join(res.Dependencies, ", "))
	}
	if output == "" {
		return nil
	}

	contents, err := bundlefile.Open(filepath.Join(dir, res.Artifact))
	if err != nil {
		return err
	}
	data, err := contents.Read(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(app.stdout, "%s Wrote %s (%s)\n", SuccessStyle.Render("✓"), output, humanSize(int64(len(data))))
	return nil
}
