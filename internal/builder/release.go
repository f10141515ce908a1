// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/assetsync/assetsync/internal/digest"
	"github.com/assetsync/assetsync/pkg/bundlefile"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// assemble hashes every packaged file in staging, moves side files to the
// manifest archive, and writes version.json.
func (b *Builder) assemble(staging string) (*manifest.Manifest, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return nil, fmt.Errorf("listing packaged files: %w", err)
	}

	m := &manifest.Manifest{
		Version:     b.opts.Version,
		GeneratedAt: b.opts.Clock.Now().UTC().Truncate(time.Minute),
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(staging, e.Name())
		if bundlefile.IsSideFile(e.Name()) {
			if err := os.Rename(src, filepath.Join(b.opts.ManifestArchiveDir, e.Name())); err != nil {
				return nil, fmt.Errorf("archiving %s: %w", e.Name(), err)
			}
			continue
		}

		sum, err := digest.File(src)
		if err != nil {
			return nil, err
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		m.Artifacts = append(m.Artifacts, manifest.Artifact{
			Name:   path.Join(StagingDir, e.Name()),
			Digest: sum,
			Size:   info.Size(),
		})
		b.logger.Debug("artifact", "name", e.Name(), "md5", sum, "size", info.Size())
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := manifest.Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(staging, manifest.FileName), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", manifest.FileName, err)
	}
	return m, nil
}

// copyRelease replaces dst with a copy of src.
func copyRelease(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.CopyFS(dst, os.DirFS(src))
}

// relocate moves staging to <versionDir>/Bundles, replacing an earlier build
// of the same version.
func relocate(staging, versionDir string) (string, error) {
	dst := filepath.Join(versionDir, StagingDir)
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("removing previous release %s: %w", dst, err)
	}
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", versionDir, err)
	}
	if err := os.Rename(staging, dst); err != nil {
		return "", fmt.Errorf("moving release into %s: %w", versionDir, err)
	}
	return dst, nil
}
