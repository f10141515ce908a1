// SPDX-License-Identifier: MPL-2.0

package digest

import (
	"crypto/md5" //nolint:gosec // integrity check only; the manifest format fixes MD5
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Size is the length of a hex-encoded digest.
const Size = md5.Size * 2

// ErrMismatch indicates that content does not hash to the expected digest.
var ErrMismatch = errors.New("digest mismatch")

// MismatchError describes a digest verification failure for one artifact.
// It wraps ErrMismatch so callers can classify it with errors.Is.
type MismatchError struct {
	Name     string
	Expected string
	Got      string // empty when the artifact is missing
}

// Error reports both digests; a missing artifact is reported as such.
func (e *MismatchError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("%s: missing (expected %s)", e.Name, e.Expected)
	}
	return fmt.Sprintf("%s: digest %s does not match expected %s", e.Name, e.Got, e.Expected)
}

// Unwrap returns ErrMismatch.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Bytes returns the digest of b.
func Bytes(b []byte) string {
	sum := md5.Sum(b) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// String returns the digest of the bytes of s. Builders use it to derive a
// stable artifact name from a grouping path.
func String(s string) string {
	return Bytes([]byte(s))
}

// Reader streams r through the hash and returns the digest.
func Reader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec // see import
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the digest of the file at path without loading it into memory.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only handle

	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return sum, nil
}

// FS returns the digest of name inside fsys.
func FS(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only handle

	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", name, err)
	}
	return sum, nil
}

// Equal reports whether two hex digests are identical. The comparison is
// byte-for-byte; digests are always produced in lowercase.
func Equal(a, b string) bool {
	return a == b
}

// Valid reports whether s is a well-formed lowercase hex digest.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
