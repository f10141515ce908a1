// SPDX-License-Identifier: MPL-2.0

package builder

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/assetsync/assetsync/pkg/cueutil"
)

// CombineConfigName is the combine config looked up in the resource root
// when no explicit path is configured.
const CombineConfigName = "BundleCombineConfig.json"

// ErrInvalidCombineConfig is wrapped by every combine config validation failure.
var ErrInvalidCombineConfig = errors.New("invalid combine config")

//go:embed combine_schema.cue
var combineSchema []byte

// CombineConfig lists directories packaged as one artifact each.
type CombineConfig struct {
	Dirs []string `json:"combieDirs"`
}

// LoadCombineConfig reads and validates a combine config. A missing or empty
// file is an empty config.
func LoadCombineConfig(p string) (*CombineConfig, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return &CombineConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading combine config: %w", err)
	}
	return ParseCombineConfig(data, filepath.Base(p))
}

// ParseCombineConfig validates data against the combine config schema.
func ParseCombineConfig(data []byte, filename string) (*CombineConfig, error) {
	if strings.TrimSpace(string(data)) == "" {
		return &CombineConfig{}, nil
	}
	res, err := cueutil.ParseAndDecode[CombineConfig](combineSchema, data, "#CombineConfig",
		cueutil.WithFilename(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCombineConfig, err)
	}
	cfg := res.Value
	for i, d := range cfg.Dirs {
		clean := path.Clean(d)
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return nil, fmt.Errorf("%w: %s: combieDirs[%d]: %q leaves the resource root", ErrInvalidCombineConfig, filename, i, d)
		}
		cfg.Dirs[i] = clean
	}
	return cfg, nil
}

// set returns the configured directories as a lookup set.
func (c *CombineConfig) set() map[string]struct{} {
	s := make(map[string]struct{}, len(c.Dirs))
	for _, d := range c.Dirs {
		s[d] = struct{}{}
	}
	return s
}
