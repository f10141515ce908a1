// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

const (
	// FileName is the manifest file name inside a bundle directory.
	FileName = "version.json"

	// DateLayout is the asset_date layout (yyyyMMddHHmm).
	DateLayout = "200601021504"

	// maxManifestBytes bounds manifest reads from disk or the network (16 MB).
	maxManifestBytes = 16 << 20
)

var (
	// ErrEmpty indicates the manifest input contained no data.
	ErrEmpty = errors.New("empty manifest")

	// ErrInvalid is wrapped by every structural validation failure.
	ErrInvalid = errors.New("invalid manifest")
)

type (
	// Artifact is one packaged content unit of a release.
	Artifact struct {
		// Name is the artifact path relative to the install root, e.g. "Bundles/index".
		Name string
		// Digest is the hex content digest.
		Digest string
		// Size is the artifact size in bytes.
		Size int64
	}

	// Manifest describes one release.
	Manifest struct {
		Version     Version
		GeneratedAt time.Time
		Artifacts   []Artifact
	}

	wireManifest struct {
		Version   string         `json:"version"`
		AssetDate string         `json:"asset_date"`
		Bundles   []wireArtifact `json:"bundles"`
	}

	wireArtifact struct {
		BundleName string `json:"bundle_name"`
		MD5        string `json:"md5"`
		Size       int64  `json:"size"`
	}
)

// Lookup returns the artifact with the given name.
func (m *Manifest) Lookup(name string) (Artifact, bool) {
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// TotalSize sums the sizes of all artifacts.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, a := range m.Artifacts {
		total += a.Size
	}
	return total
}

// Validate checks the structural invariants: unique names, local relative
// paths, and non-negative sizes.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Artifacts))
	for i, a := range m.Artifacts {
		if a.Name == "" {
			return fmt.Errorf("%w: bundles[%d]: empty bundle_name", ErrInvalid, i)
		}
		if path.IsAbs(a.Name) {
			return fmt.Errorf("%w: bundles[%d]: bundle_name %q must be relative", ErrInvalid, i, a.Name)
		}
		if !ValidName(a.Name) {
			return fmt.Errorf("%w: bundles[%d]: bundle_name %q escapes the install root", ErrInvalid, i, a.Name)
		}
		if a.Size < 0 {
			return fmt.Errorf("%w: bundles[%d]: negative size %d", ErrInvalid, i, a.Size)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: duplicate bundle_name %q", ErrInvalid, a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// ValidName reports whether name is a clean, slash-separated relative path
// that stays inside the install root.
func ValidName(name string) bool {
	if name == "" || path.IsAbs(name) || path.Clean(name) != name {
		return false
	}
	return name != ".." && !strings.HasPrefix(name, "../")
}

// Encode writes m as JSON.
func Encode(w io.Writer, m *Manifest) error {
	b, err := Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Marshal returns the JSON encoding of m.
func Marshal(m *Manifest) ([]byte, error) {
	wire := wireManifest{
		Version:   m.Version.String(),
		AssetDate: formatDate(m.GeneratedAt),
		Bundles:   make([]wireArtifact, 0, len(m.Artifacts)),
	}
	for _, a := range m.Artifacts {
		wire.Bundles = append(wire.Bundles, wireArtifact{BundleName: a.Name, MD5: a.Digest, Size: a.Size})
	}

	b, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return b, nil
}

// Decode reads a manifest from r.
func Decode(r io.Reader) (*Manifest, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Unmarshal(b)
}

// Unmarshal parses and validates a JSON manifest.
func Unmarshal(b []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, ErrEmpty
	}

	var wire wireManifest
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	v, err := ParseVersion(wire.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	generated, err := parseDate(wire.AssetDate)
	if err != nil {
		return nil, fmt.Errorf("%w: asset_date %q: %w", ErrInvalid, wire.AssetDate, err)
	}

	m := &Manifest{
		Version:     v,
		GeneratedAt: generated,
		Artifacts:   make([]Artifact, 0, len(wire.Bundles)),
	}
	for _, wb := range wire.Bundles {
		m.Artifacts = append(m.Artifacts, Artifact{Name: wb.BundleName, Digest: wb.MD5, Size: wb.Size})
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}
