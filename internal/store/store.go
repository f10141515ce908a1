// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/assetsync/assetsync/internal/digest"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// BundleDir is the directory holding installed artifacts, relative to the root.
const BundleDir = "Bundles"

// ErrInvalidName indicates an artifact name would resolve outside the root.
var ErrInvalidName = errors.New("invalid artifact name")

type (
	// Store is the writable install directory.
	Store struct {
		root   string
		logger *log.Logger
	}

	// Report is the outcome of verifying a manifest against the installed files.
	Report struct {
		Checked    int
		Mismatches []*digest.MismatchError
	}
)

// OK reports whether every artifact matched.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Err returns nil when every artifact matched, else the mismatches joined.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Mismatches))
	for _, m := range r.Mismatches {
		errs = append(errs, m)
	}
	return errors.Join(errs...)
}

// New returns a Store rooted at root. A nil logger discards output.
func New(root string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{root: root, logger: logger}
}

// Root returns the writable root.
func (s *Store) Root() string { return s.root }

// Dir returns the artifact directory.
func (s *Store) Dir() string { return filepath.Join(s.root, BundleDir) }

// ManifestPath returns the adopted manifest path.
func (s *Store) ManifestPath() string { return filepath.Join(s.Dir(), manifest.FileName) }

// ManifestName is the adopted manifest's name relative to the root.
func ManifestName() string { return path.Join(BundleDir, manifest.FileName) }

// EnsureDirectory creates the artifact directory if it is absent.
func (s *Store) EnsureDirectory() error {
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", s.Dir(), err)
	}
	return nil
}

// WipeDirectory removes the artifact directory and everything in it.
func (s *Store) WipeDirectory() error {
	if err := os.RemoveAll(s.Dir()); err != nil {
		return fmt.Errorf("removing %s: %w", s.Dir(), err)
	}
	s.logger.Debug("wiped bundle directory", "dir", s.Dir())
	return nil
}

// Path resolves an artifact name to its location under the root.
func (s *Store) Path(name string) (string, error) {
	if !manifest.ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}

// LoadManifest reads the manifest at p. A missing, empty or unparseable file
// yields nil without an error; only unexpected I/O failures are returned.
func (s *Store) LoadManifest(p string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("manifest not found", "path", p)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", p, err)
	}

	m, err := manifest.Unmarshal(data)
	if err != nil {
		s.logger.Warn("ignoring unreadable manifest", "path", p, "error", err)
		return nil, nil
	}
	s.logger.Debug("loaded manifest", "path", p, "version", m.Version)
	return m, nil
}

// LoadAdopted reads the adopted manifest.
func (s *Store) LoadAdopted() (*manifest.Manifest, error) {
	return s.LoadManifest(s.ManifestPath())
}

// LocalDigest hashes the installed artifact. ok is false when the file is absent.
func (s *Store) LocalDigest(name string) (sum string, ok bool, err error) {
	p, err := s.Path(name)
	if err != nil {
		return "", false, err
	}
	sum, err = digest.File(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sum, true, nil
}

// Matches reports whether the installed artifact has exactly the declared digest.
func (s *Store) Matches(a manifest.Artifact) (bool, error) {
	sum, ok, err := s.LocalDigest(a.Name)
	if err != nil || !ok {
		return false, err
	}
	return digest.Equal(sum, a.Digest), nil
}

// Verify checks every artifact of m and logs each mismatch. It does not stop
// at the first failure. Read errors other than absence count as mismatches.
func (s *Store) Verify(m *manifest.Manifest) Report {
	var r Report
	for _, a := range m.Artifacts {
		r.Checked++
		sum, ok, err := s.LocalDigest(a.Name)
		if err != nil {
			s.logger.Error("cannot hash artifact", "artifact", a.Name, "error", err)
		}
		if ok && digest.Equal(sum, a.Digest) {
			continue
		}
		mm := &digest.MismatchError{Name: a.Name, Expected: a.Digest, Got: sum}
		s.logger.Error("artifact digest mismatch", "artifact", a.Name, "expected", a.Digest, "got", sum)
		r.Mismatches = append(r.Mismatches, mm)
	}
	if r.OK() {
		s.logger.Info("all artifacts verified", "count", r.Checked)
	}
	return r
}

// WriteArtifact stores the content of r under name.
func (s *Store) WriteArtifact(name string, r io.Reader) (int64, error) {
	p, err := s.Path(name)
	if err != nil {
		return 0, err
	}
	return writeAtomic(p, r)
}

// AdoptManifest persists m as the adopted manifest.
func (s *Store) AdoptManifest(m *manifest.Manifest) error {
	b, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	if err := s.EnsureDirectory(); err != nil {
		return err
	}
	if _, err := writeAtomicBytes(s.ManifestPath(), b); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	s.logger.Info("adopted manifest", "version", m.Version, "artifacts", len(m.Artifacts))
	return nil
}
