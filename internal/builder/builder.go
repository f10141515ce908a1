// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/assetsync/assetsync/internal/testutil"
	"github.com/assetsync/assetsync/pkg/addrindex"
	"github.com/assetsync/assetsync/pkg/bundlefile"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// StagingDir is the directory under the output root where a release is
// assembled before it moves into its version directory.
const StagingDir = "Bundles"

var (
	// ErrVersionRequired is returned when no release version was given.
	ErrVersionRequired = errors.New("release version is required (0.0.0 is not a release)")

	// ErrNoResourceRoot is returned when the resource root is missing.
	ErrNoResourceRoot = errors.New("resource root is not a directory")
)

type (
	// Packager writes units into outDir: one file per unit, optional
	// *.manifest side files, and a dependency graph artifact.
	Packager interface {
		Package(ctx context.Context, outDir string, units []bundlefile.Unit) error
	}

	// Options configures a Builder.
	Options struct {
		// ResourceRoot is the tree to package.
		ResourceRoot string
		// OutputDir receives <version>/Bundles.
		OutputDir string
		// ManifestArchiveDir receives packager side files. Defaults to
		// <OutputDir>/BundleManifest.
		ManifestArchiveDir string
		// CombineConfigPath defaults to <ResourceRoot>/BundleCombineConfig.json.
		CombineConfigPath string
		// ShipDir, when set, receives a copy of the release under Bundles/.
		ShipDir string
		// Version is the release version; the zero version is rejected.
		Version manifest.Version
		// Exclude lists doublestar patterns, relative to ResourceRoot, for
		// files and directories that are never packaged.
		Exclude []string

		Clock    testutil.Clock
		Logger   *log.Logger
		Packager Packager
	}

	// Builder produces releases from a resource tree.
	Builder struct {
		opts   Options
		logger *log.Logger
	}

	// Result describes a finished build.
	Result struct {
		Manifest   *manifest.Manifest
		Index      *addrindex.Index
		ReleaseDir string // <OutputDir>/<version>/Bundles
		Groups     int
	}
)

// New fills in defaults. It does not touch the filesystem.
func New(opts Options) *Builder {
	if opts.Clock == nil {
		opts.Clock = testutil.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Packager == nil {
		opts.Packager = bundlefile.NewPackager()
	}
	if opts.ManifestArchiveDir == "" && opts.OutputDir != "" {
		opts.ManifestArchiveDir = filepath.Join(opts.OutputDir, "BundleManifest")
	}
	if opts.CombineConfigPath == "" && opts.ResourceRoot != "" {
		opts.CombineConfigPath = filepath.Join(opts.ResourceRoot, CombineConfigName)
	}
	return &Builder{opts: opts, logger: opts.Logger}
}

// Options returns the effective options.
func (b *Builder) Options() Options { return b.opts }

// Build runs one full build. A duplicate addressable name fails the build
// before anything is packaged, so no manifest is written.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	o := b.opts
	if o.Version.IsZero() {
		return nil, ErrVersionRequired
	}
	if o.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if info, err := os.Stat(o.ResourceRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoResourceRoot, o.ResourceRoot)
	}

	combine, err := LoadCombineConfig(o.CombineConfigPath)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("combine config loaded", "path", o.CombineConfigPath, "dirs", len(combine.Dirs))

	dirs, err := scan(o.ResourceRoot, combine.set(), o.Exclude)
	if err != nil {
		return nil, err
	}

	idx := addrindex.New()
	groups, err := groupFiles(o.ResourceRoot, dirs, o.Exclude, idx)
	if err != nil {
		return nil, err
	}
	if err := link(groups, idx); err != nil {
		return nil, err
	}
	for _, g := range groups {
		b.logger.Debug("group", "path", g.path, "artifact", g.artifact, "files", len(g.assets), "deps", len(g.deps))
	}

	tmp, err := os.MkdirTemp("", "assetsync-index-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	units, err := b.units(groups, idx, tmp)
	if err != nil {
		return nil, err
	}

	staging := filepath.Join(o.OutputDir, StagingDir)
	if err := recreate(staging); err != nil {
		return nil, err
	}
	if err := recreate(o.ManifestArchiveDir); err != nil {
		return nil, err
	}

	if err := o.Packager.Package(ctx, staging, units); err != nil {
		return nil, fmt.Errorf("packaging: %w", err)
	}

	m, err := b.assemble(staging)
	if err != nil {
		return nil, err
	}

	if o.ShipDir != "" {
		if err := copyRelease(staging, filepath.Join(o.ShipDir, StagingDir)); err != nil {
			return nil, fmt.Errorf("copying release to ship storage: %w", err)
		}
		b.logger.Info("copied release to ship storage", "dir", o.ShipDir)
	}

	release, err := relocate(staging, filepath.Join(o.OutputDir, o.Version.String()))
	if err != nil {
		return nil, err
	}

	b.logger.Info("build complete",
		"version", m.Version, "artifacts", len(m.Artifacts), "assets", idx.Len(), "dir", release)
	return &Result{Manifest: m, Index: idx, ReleaseDir: release, Groups: len(groups)}, nil
}

// units orders the groups by artifact name and appends the index artifact,
// whose content is written to dir.
func (b *Builder) units(groups []*group, idx *addrindex.Index, dir string) ([]bundlefile.Unit, error) {
	units := make([]bundlefile.Unit, 0, len(groups)+1)
	for _, g := range groups {
		units = append(units, bundlefile.Unit{Name: g.artifact, Assets: g.assets, Dependencies: g.deps})
	}
	slices.SortFunc(units, func(a, b bundlefile.Unit) int { return strings.Compare(a.Name, b.Name) })

	var buf bytes.Buffer
	if _, err := idx.WriteTo(&buf); err != nil {
		return nil, err
	}
	indexPath := filepath.Join(dir, IndexArtifact+".txt")
	if err := os.WriteFile(indexPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}
	return append(units, bundlefile.Unit{
		Name:   IndexArtifact,
		Assets: []bundlefile.Asset{{Source: indexPath, Address: IndexArtifact}},
	}), nil
}

func recreate(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
