// SPDX-License-Identifier: MPL-2.0

package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeAtomic copies r into a temp file next to dst and renames it over dst.
// The temp file lives in the same directory so the rename stays on one
// filesystem.
func writeAtomic(dst string, r io.Reader) (_ int64, err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return n, fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return n, fmt.Errorf("syncing %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("closing %s: %w", dst, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return n, fmt.Errorf("setting permissions on %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return n, fmt.Errorf("replacing %s: %w", dst, err)
	}
	renamed = true
	return n, nil
}

func writeAtomicBytes(dst string, b []byte) (int64, error) {
	return writeAtomic(dst, bytes.NewReader(b))
}
