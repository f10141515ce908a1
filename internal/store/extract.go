// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/assetsync/assetsync/pkg/manifest"
)

// ErrNoShippedManifest indicates the ship storage has no readable manifest.
var ErrNoShippedManifest = errors.New("ship storage has no manifest")

// LoadShipped reads the manifest bundled with the client package. ship is
// rooted like the writable root, so the manifest lives at Bundles/version.json.
// A missing or unreadable manifest yields nil without an error.
func (s *Store) LoadShipped(ship fs.FS) (*manifest.Manifest, error) {
	data, err := fs.ReadFile(ship, ManifestName())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading shipped manifest: %w", err)
	}
	m, err := manifest.Unmarshal(data)
	if err != nil {
		s.logger.Warn("ignoring unreadable shipped manifest", "error", err)
		return nil, nil
	}
	return m, nil
}

// ExtractFrom replaces the installed set with the artifacts bundled in ship:
// the directory is wiped and recreated, every artifact named by the shipped
// manifest is copied, and the manifest is adopted last. Any failure aborts
// before adoption, so a partial copy is never described by an adopted manifest.
func (s *Store) ExtractFrom(ship fs.FS) (*manifest.Manifest, error) {
	shipped, err := s.LoadShipped(ship)
	if err != nil {
		return nil, err
	}
	if shipped == nil {
		return nil, ErrNoShippedManifest
	}

	if err := s.WipeDirectory(); err != nil {
		return nil, err
	}
	if err := s.EnsureDirectory(); err != nil {
		return nil, err
	}

	for _, a := range shipped.Artifacts {
		if err := s.copyFromFS(ship, a.Name); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", a.Name, err)
		}
		s.logger.Debug("extracted artifact", "artifact", a.Name)
	}

	if err := s.AdoptManifest(shipped); err != nil {
		return nil, err
	}
	return shipped, nil
}

func (s *Store) copyFromFS(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() // read-only handle

	_, err = s.WriteArtifact(name, f)
	return err
}
