// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion indicates a version string is not of the form major.minor.patch.
var ErrInvalidVersion = errors.New("invalid release version")

// Version is a three-component release version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "major.minor.patch". A leading "v" is accepted; pre-release
// and build suffixes are not, since releases are ordered by the three numbers alone.
// Components are plain integers, so "1.02.0" is 1.2.0.
func ParseVersion(s string) (Version, error) {
	invalid := fmt.Errorf("%w: %q", ErrInvalidVersion, s)

	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if len(parts) != 3 {
		return Version{}, invalid
	}
	for i, p := range parts {
		if p == "" || strings.ContainsFunc(p, func(r rune) bool { return r < '0' || r > '9' }) {
			return Version{}, invalid
		}
		// semver rejects leading zeros.
		if parts[i] = strings.TrimLeft(p, "0"); parts[i] == "" {
			parts[i] = "0"
		}
	}
	if !semver.IsValid("v" + strings.Join(parts, ".")) {
		return Version{}, invalid
	}

	var v Version
	for i, dst := range []*int{&v.Major, &v.Minor, &v.Patch} {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Version{}, invalid
		}
		*dst = n
	}
	return v, nil
}

// MustParseVersion is ParseVersion for constants in tests and defaults.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsZero reports whether v is 0.0.0.
func (v Version) IsZero() bool {
	return v == Version{}
}

// Compare orders versions component-wise from left to right. A larger value in
// an earlier component wins regardless of the later components.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, o.Patch)
}

// Newer reports whether v is strictly newer than o.
func (v Version) Newer(o Version) bool {
	return v.Compare(o) > 0
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
