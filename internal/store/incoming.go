// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/assetsync/assetsync/internal/digest"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// IncomingDir holds downloads that are not yet committed, relative to the root.
// It sits outside BundleDir so wiping installed content keeps finished
// downloads of an interrupted attempt.
const IncomingDir = ".incoming"

func (s *Store) incomingPath(name string) (string, error) {
	if !manifest.ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, IncomingDir, filepath.FromSlash(name)), nil
}

// StageArtifact stores r as the pending replacement for name. Installed
// content is untouched until CommitStaged.
func (s *Store) StageArtifact(name string, r io.Reader) (int64, error) {
	p, err := s.incomingPath(name)
	if err != nil {
		return 0, err
	}
	return writeAtomic(p, r)
}

// StagedMatches reports whether a staged copy of a exists with its digest.
func (s *Store) StagedMatches(a manifest.Artifact) (bool, error) {
	p, err := s.incomingPath(a.Name)
	if err != nil {
		return false, err
	}
	sum, err := digest.File(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return digest.Equal(sum, a.Digest), nil
}

// CommitStaged moves the staged copies of names into place and clears the
// staging area.
func (s *Store) CommitStaged(names []string) error {
	for _, name := range names {
		src, err := s.incomingPath(name)
		if err != nil {
			return err
		}
		dst, err := s.Path(name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("committing %s: %w", name, err)
		}
	}
	s.logger.Debug("committed staged artifacts", "count", len(names))
	return s.DiscardStaged()
}

// DiscardStaged removes every staged download.
func (s *Store) DiscardStaged() error {
	if err := os.RemoveAll(filepath.Join(s.root, IncomingDir)); err != nil {
		return fmt.Errorf("clearing staged downloads: %w", err)
	}
	return nil
}
