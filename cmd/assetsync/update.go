// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/assetsync/assetsync/internal/config"
	"github.com/assetsync/assetsync/internal/events"
	"github.com/assetsync/assetsync/internal/issue"
	"github.com/assetsync/assetsync/internal/remote"
	"github.com/assetsync/assetsync/internal/store"
	"github.com/assetsync/assetsync/internal/update"
)

// updateFlagValues overrides the update-related configuration.
type updateFlagValues struct {
	origin      string
	channel     string
	root        string
	shipRoot    string
	concurrency int
	repair      bool
	retries     int
}

func newUpdateCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &updateFlagValues{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Bring installed content up to date with the origin",
		Long: `Bring installed content up to date with the origin.

The latest manifest of the configured channel is compared with the installed
one and only artifacts that changed are downloaded. Installed content is
replaced only once every artifact of the new release has arrived.

Exit codes:
  0  content is current and verified
  1  the update failed; installed content is unchanged
  3  the release needs a new client package
  4  content is still corrupt after a full repair`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), app, rootFlags, flags)
		},
	}

	cmd.Flags().StringVar(&flags.origin, "origin", "", "CDN base URL (overrides origin)")
	cmd.Flags().StringVar(&flags.channel, "channel", "", "release channel (overrides channel)")
	cmd.Flags().StringVar(&flags.root, "root", "", "writable root holding installed content (overrides writable_root)")
	cmd.Flags().StringVar(&flags.shipRoot, "ship-root", "", "read-only content bundled with the client (overrides ship_root)")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "j", 0, "parallel downloads (overrides download_concurrency)")
	cmd.Flags().BoolVar(&flags.repair, "repair", false, "wipe installed content and download everything")
	cmd.Flags().IntVar(&flags.retries, "retries", 0, "retry a failed attempt this many times without asking")

	return cmd
}

func runUpdate(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *updateFlagValues) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		reportError(app.stderr, err, rootFlags.verbose)
		return &ExitError{Code: 1, Err: err}
	}
	applyUpdateFlags(cfg, flags)
	logger := app.logger(cfg, rootFlags)

	orch, err := newOrchestrator(cfg, logger, app.stdout)
	if err != nil {
		reportError(app.stderr, err, rootFlags.verbose)
		return &ExitError{Code: 1, Err: err}
	}

	var st update.State
	if flags.repair {
		st, err = orch.Respond(ctx, events.ActionRepair)
	} else {
		st, err = orch.Start(ctx)
	}

	answers := bufio.NewScanner(app.stdin)
	for retries := flags.retries; st == update.StateFailed && ctx.Err() == nil; {
		retry := orch.Pending()
		switch {
		case retries > 0:
			retries--
			logger.Info("retrying", "action", retry, "left", retries)
		case rootFlags.interactive && confirm(app.stdout, answers, "Retry? [y/N] "):
		default:
			return app.updateOutcome(st, err, rootFlags)
		}
		st, err = orch.Respond(ctx, retry)
	}
	return app.updateOutcome(st, err, rootFlags)
}

// applyUpdateFlags layers command flags over cfg.
func applyUpdateFlags(cfg *config.Config, flags *updateFlagValues) {
	if flags.origin != "" {
		cfg.Origin = flags.origin
	}
	if flags.channel != "" {
		cfg.Channel = flags.channel
	}
	if flags.root != "" {
		cfg.WritableRoot = flags.root
	}
	if flags.shipRoot != "" {
		cfg.ShipRoot = flags.shipRoot
	}
	if flags.concurrency > 0 {
		cfg.DownloadConcurrency = min(flags.concurrency, config.MaxDownloadConcurrency)
	}
}

// newOrchestrator wires an orchestrator for cfg whose events print to out.
func newOrchestrator(cfg *config.Config, logger *log.Logger, out io.Writer) (*update.Orchestrator, error) {
	timeout, err := cfg.HTTPTimeout.Parse()
	if err != nil {
		return nil, err
	}
	client, err := remote.New(cfg.Origin,
		remote.WithChannel(cfg.Channel),
		remote.WithTimeout(timeout),
		remote.WithUserAgent(config.AppName+"/"+Version),
	)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("configure origin").
			WithResource(cfg.Origin).
			WithSuggestion("Pass --origin or set origin to an http(s) URL").
			WithIssue(issue.ManifestFetchFailedId).
			Wrap(err).
			BuildError()
	}
	clientVersion, err := cfg.Version()
	if err != nil {
		return nil, err
	}

	var ship fs.FS
	if cfg.ShipRoot != "" {
		ship = os.DirFS(cfg.ShipRoot)
	}

	bus := events.NewBus()
	watchUpdate(bus, out)

	return update.New(update.Config{
		Store:         store.New(cfg.WritableRoot, logger),
		Remote:        client,
		Ship:          ship,
		Bus:           bus,
		ClientVersion: clientVersion,
		Concurrency:   cfg.DownloadConcurrency,
		Logger:        logger,
	}), nil
}

// watchUpdate prints state changes, download progress and completion.
func watchUpdate(bus *events.Bus, out io.Writer) {
	events.Subscribe(bus, events.StateChanged, func(sc events.StateChange) {
		if sc.Message != "" {
			fmt.Fprintln(out, SubtitleStyle.Render("• ")+sc.Message)
		}
	})
	events.Subscribe(bus, events.DownloadProgress, func(p events.Progress) {
		pct := 100
		if p.Total > 0 {
			pct = int(p.Downloaded * 100 / p.Total)
		}
		fmt.Fprintln(out, VerboseStyle.Render(fmt.Sprintf("  %s / %s (%d%%)", humanSize(p.Downloaded), humanSize(p.Total), pct)))
	})
	events.Subscribe(bus, events.UserPrompt, func(p events.Prompt) {
		fmt.Fprintln(out, WarningStyle.Render(p.Message))
	})
	events.Subscribe(bus, events.UpdateComplete, func(c events.Complete) {
		fmt.Fprintln(out, SuccessStyle.Render("✓")+" Content "+c.Version+" is ready")
	})
}

// confirm asks a yes/no question on out and reads the answer.
func confirm(out io.Writer, answers *bufio.Scanner, question string) bool {
	fmt.Fprint(out, question)
	if !answers.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answers.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// updateOutcome maps the settled state to an exit code and guide.
func (a *App) updateOutcome(st update.State, err error, rootFlags *rootFlagValues) error {
	switch st {
	case update.StateReady:
		return nil
	case update.StateMajorUpgradeRequired:
		renderIssue(a.stderr, issue.MajorUpgradeRequiredId)
		return &ExitError{Code: ExitMajorUpgradeRequired, Err: err}
	case update.StateReinstallRequired:
		renderIssue(a.stderr, issue.ReinstallRequiredId)
		return &ExitError{Code: ExitReinstallRequired, Err: err}
	}

	if err == nil {
		err = fmt.Errorf("update stopped in state %s", st)
	}
	if id, ok := updateIssue(err); ok {
		renderIssue(a.stderr, id)
	}
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, rootFlags.verbose))
	return &ExitError{Code: 1, Err: err}
}

// updateIssue picks the guide for a failed attempt.
func updateIssue(err error) (issue.Id, bool) {
	if errors.Is(err, update.ErrInProgress) {
		return issue.UpdateInProgressId, true
	}
	var ue *update.Error
	if !errors.As(err, &ue) {
		return 0, false
	}
	switch {
	case ue.Kind == update.KindIO:
		return issue.LocalStorageFailedId, true
	case ue.Retry() == events.ActionRetryDownload:
		return issue.DownloadFailedId, true
	case ue.Kind == update.KindNetwork, ue.Kind == update.KindParse:
		return issue.ManifestFetchFailedId, true
	default:
		return 0, false
	}
}
