// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/assetsync/assetsync/internal/builder"
	"github.com/assetsync/assetsync/internal/config"
	"github.com/assetsync/assetsync/internal/issue"
	"github.com/assetsync/assetsync/pkg/addrindex"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// buildFlagValues overrides the build section of the configuration.
type buildFlagValues struct {
	resources string
	out       string
	archive   string
	combine   string
	ship      string
	exclude   []string
	watch     bool
	debounce  time.Duration
}

func newBuildCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &buildFlagValues{}

	cmd := &cobra.Command{
		Use:   "build <version>",
		Short: "Package the resource tree into a release",
		Long: `Package the resource tree into a release.

Every directory holding eligible files becomes one artifact, except that
directories listed in BundleCombineConfig.json are packaged whole. The release
is written to <out>/<version>/Bundles together with its version.json manifest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, app, rootFlags, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.resources, "resources", "", "resource root (overrides build.resource_root)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output directory (overrides build.output_dir)")
	cmd.Flags().StringVar(&flags.archive, "archive", "", "directory for packager side files (overrides build.manifest_archive_dir)")
	cmd.Flags().StringVar(&flags.combine, "combine", "", "combine config file (overrides build.combine_config)")
	cmd.Flags().StringVar(&flags.ship, "ship", "", "also copy the release into this ship directory (overrides build.ship_dir)")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "doublestar pattern to leave out (repeatable)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rebuild whenever resources change")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", 500*time.Millisecond, "quiet period before a watch rebuild")

	return cmd
}

func runBuild(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *buildFlagValues, rawVersion string) error {
	ctx := cmd.Context()

	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		reportError(app.stderr, err, rootFlags.verbose)
		return &ExitError{Code: 1, Err: err}
	}
	logger := app.logger(cfg, rootFlags)

	version, err := manifest.ParseVersion(rawVersion)
	if err == nil && version.IsZero() {
		err = builder.ErrVersionRequired
	}
	if err != nil {
		return app.buildFailure(rootFlags, buildError(err, rawVersion))
	}

	b := builder.New(buildOptions(cfg.Build, flags, version, logger))

	if flags.watch {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Watching "+b.Options().ResourceRoot+" (Ctrl+C to stop)"))
		if err := b.Watch(ctx, flags.debounce); err != nil && !errors.Is(err, ctx.Err()) {
			return app.buildFailure(rootFlags, err)
		}
		return nil
	}

	res, err := b.Build(ctx)
	if err != nil {
		return app.buildFailure(rootFlags, buildError(err, b.Options().ResourceRoot))
	}
	printBuildSummary(app.stdout, res)
	return nil
}

// buildOptions layers command flags over the build configuration.
func buildOptions(bc config.BuildConfig, flags *buildFlagValues, v manifest.Version, logger *log.Logger) builder.Options {
	pick := func(flag, cfg string) string {
		if flag != "" {
			return flag
		}
		return cfg
	}
	exclude := bc.Exclude
	if len(flags.exclude) > 0 {
		exclude = append(append([]string(nil), bc.Exclude...), flags.exclude...)
	}
	return builder.Options{
		ResourceRoot:       pick(flags.resources, bc.ResourceRoot),
		OutputDir:          pick(flags.out, bc.OutputDir),
		ManifestArchiveDir: pick(flags.archive, bc.ManifestArchiveDir),
		CombineConfigPath:  pick(flags.combine, bc.CombineConfig),
		ShipDir:            pick(flags.ship, bc.ShipDir),
		Version:            v,
		Exclude:            exclude,
		Logger:             logger,
	}
}

// buildError attaches the matching remediation guide to a build failure.
func buildError(err error, resource string) error {
	ec := issue.NewErrorContext().WithOperation("build release").WithResource(resource).Wrap(err)
	switch {
	case errors.Is(err, builder.ErrVersionRequired), errors.Is(err, manifest.ErrInvalidVersion):
		ec.WithIssue(issue.VersionRequiredId).
			WithSuggestion("Pass a major.minor.patch version other than 0.0.0")
	case errors.Is(err, builder.ErrNoResourceRoot):
		ec.WithIssue(issue.ResourceRootNotFoundId).
			WithSuggestion("Pass --resources or set build.resource_root")
	case errors.Is(err, addrindex.ErrDuplicateName):
		ec.WithIssue(issue.DuplicateAddressableNameId)
	case errors.Is(err, builder.ErrInvalidCombineConfig):
		ec.WithIssue(issue.CombineConfigInvalidId)
	default:
		return err
	}
	return ec.BuildError()
}

func (a *App) buildFailure(rootFlags *rootFlagValues, err error) error {
	reportError(a.stderr, err, rootFlags.verbose)
	return &ExitError{Code: 1, Err: err}
}

func printBuildSummary(w io.Writer, res *builder.Result) {
	fmt.Fprintln(w, SuccessStyle.Render("✓")+" "+TitleStyle.Render("Built release "+res.Manifest.Version.String()))
	fmt.Fprintf(w, "%s%s\n", labelStyle.Render("Directory"), res.ReleaseDir)
	fmt.Fprintf(w, "%s%d\n", labelStyle.Render("Artifacts"), len(res.Manifest.Artifacts))
	fmt.Fprintf(w, "%s%d\n", labelStyle.Render("Assets"), res.Index.Len())
	fmt.Fprintf(w, "%s%s\n", labelStyle.Render("Size"), humanSize(res.Manifest.TotalSize()))
}
