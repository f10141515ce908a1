// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assetsync/assetsync/internal/issue"
	"github.com/assetsync/assetsync/internal/store"
)

// errNothingInstalled is returned when the writable root has no adopted manifest.
var errNothingInstalled = errors.New("no installed release")

func newVerifyCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check installed content against its manifest",
		Long: `Check installed content against its manifest.

Every artifact listed in the adopted manifest is hashed and compared with its
recorded digest. Mismatched or missing artifacts are listed and the command
exits with status 1; run 'assetsync update --repair' to fix them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				reportError(app.stderr, err, rootFlags.verbose)
				return &ExitError{Code: 1, Err: err}
			}
			if root != "" {
				cfg.WritableRoot = root
			}

			s := store.New(cfg.WritableRoot, app.logger(cfg, rootFlags))
			m, err := s.LoadAdopted()
			if err == nil && m == nil {
				err = errNothingInstalled
			}
			if err != nil {
				err = issue.NewErrorContext().
					WithOperation("verify content").
					WithResource(s.Dir()).
					WithSuggestion("Run 'assetsync update' to install content").
					Wrap(err).
					BuildError()
				reportError(app.stderr, err, rootFlags.verbose)
				return &ExitError{Code: 1, Err: err}
			}

			report := s.Verify(m)
			if !report.OK() {
				for _, mm := range report.Mismatches {
					fmt.Fprintln(app.stdout, ErrorStyle.Render("✗ ")+mm.Error())
				}
				fmt.Fprintf(app.stdout, "%d of %d artifacts failed verification\n", len(report.Mismatches), report.Checked)
				fmt.Fprintln(app.stdout, "Run "+CmdStyle.Render("assetsync update --repair")+" to fix them")
				return &ExitError{Code: 1, Err: report.Err()}
			}
			fmt.Fprintf(app.stdout, "%s %d artifacts of release %s verified\n",
				SuccessStyle.Render("✓"), report.Checked, m.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "writable root holding installed content (overrides writable_root)")
	return cmd
}
