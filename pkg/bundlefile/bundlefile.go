// SPDX-License-Identifier: MPL-2.0

package bundlefile

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/assetsync/assetsync/pkg/addrindex"
)

// SideFileExt is the extension of the per-artifact build record.
const SideFileExt = ".manifest"

// maxEntryBytes bounds a single decompressed entry (1 GB).
const maxEntryBytes = 1 << 30

var (
	// ErrEntryNotFound indicates an artifact does not contain the requested asset.
	ErrEntryNotFound = errors.New("asset not found in artifact")

	// epoch is the fixed modification time written for every entry.
	epoch = time.Unix(0, 0).UTC()
)

type (
	// Asset is one source file packaged under an addressable name.
	Asset struct {
		Source  string // path on disk
		Address string // addressable name, the entry key inside the artifact
	}

	// Unit is one artifact to produce.
	Unit struct {
		Name         string
		Assets       []Asset
		Dependencies []string
	}

	// Packager writes units into an output directory.
	Packager struct {
		level zstd.EncoderLevel
	}

	// Option configures a Packager.
	Option func(*Packager)
)

// WithLevel overrides the zstd level (default zstd.SpeedDefault).
func WithLevel(level zstd.EncoderLevel) Option {
	return func(p *Packager) {
		p.level = level
	}
}

// NewPackager returns the default packager.
func NewPackager(opts ...Option) *Packager {
	p := &Packager{level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Package writes one artifact plus side file per unit into outDir, followed by
// a dependency manifest artifact named after outDir's base name.
func (p *Packager) Package(ctx context.Context, outDir string, units []Unit) error {
	deps := make(addrindex.Dependencies, len(units))
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("packaging canceled: %w", err)
		}
		if err := p.writeUnit(outDir, u); err != nil {
			return fmt.Errorf("packaging %s: %w", u.Name, err)
		}
		deps.Set(u.Name, u.Dependencies)
	}

	var graph bytes.Buffer
	if _, err := deps.WriteTo(&graph); err != nil {
		return err
	}
	graphName := filepath.Base(outDir)
	if err := p.writeArtifact(outDir, graphName, []entry{{address: graphName, data: graph.Bytes()}}); err != nil {
		return fmt.Errorf("writing dependency manifest: %w", err)
	}
	return writeSideFile(outDir, graphName, []string{graphName}, nil)
}

type entry struct {
	address string
	data    []byte
}

func (p *Packager) writeUnit(outDir string, u Unit) error {
	entries := make([]entry, 0, len(u.Assets))
	for _, a := range u.Assets {
		data, err := os.ReadFile(a.Source)
		if err != nil {
			return err
		}
		entries = append(entries, entry{address: a.Address, data: data})
	}
	if err := p.writeArtifact(outDir, u.Name, entries); err != nil {
		return err
	}

	addresses := make([]string, 0, len(entries))
	for _, e := range entries {
		addresses = append(addresses, e.address)
	}
	return writeSideFile(outDir, u.Name, addresses, u.Dependencies)
}

func (p *Packager) writeArtifact(outDir, name string, entries []entry) (err error) {
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.address, b.address) })

	f, err := os.Create(filepath.Join(outDir, name))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(p.level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.address,
			Mode:     0o644,
			Size:     int64(len(e.data)),
			ModTime:  epoch,
			Typeflag: tar.TypeReg,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(e.data); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

func writeSideFile(outDir, name string, addresses, deps []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "artifact: %s\nassets:\n", name)
	for _, a := range addresses {
		fmt.Fprintf(&b, "  - %s\n", a)
	}
	b.WriteString("dependencies:\n")
	for _, d := range deps {
		fmt.Fprintf(&b, "  - %s\n", d)
	}
	return os.WriteFile(filepath.Join(outDir, name+SideFileExt), []byte(b.String()), 0o644)
}

// IsSideFile reports whether name is a build record rather than an artifact.
func IsSideFile(name string) bool {
	return filepath.Ext(name) == SideFileExt
}

// Contents is the decoded content of one artifact.
type Contents map[string][]byte

// Names returns the addressable names in the artifact, sorted.
func (c Contents) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Read returns the bytes stored under address.
func (c Contents) Read(address string) ([]byte, error) {
	data, ok := c[address]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, address)
	}
	return data, nil
}

// Decode reads every entry of an artifact stream.
func Decode(r io.Reader) (Contents, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	defer zr.Close()

	out := make(Contents)
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading artifact entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tr, maxEntryBytes))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", hdr.Name, err)
		}
		out[hdr.Name] = data
	}
}

// Open decodes the artifact file at path.
func Open(path string) (Contents, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() // read-only handle
	return Decode(f)
}
