// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       LoadOptions
		wantFields int
		wantMsg    string
	}{
		{"all empty", LoadOptions{}, 0, ""},
		{"all set", LoadOptions{ConfigFilePath: "/etc/assetsync.cue", ConfigDirPath: "/etc/assetsync", BaseDir: "/srv/game"}, 0, ""},
		{"blank file path", LoadOptions{ConfigFilePath: "   "}, 1, "config file path must not be whitespace-only"},
		{"blank dir path", LoadOptions{ConfigDirPath: "\t"}, 1, "config dir path"},
		{"blank base dir", LoadOptions{BaseDir: " \t "}, 1, "base dir"},
		{"everything blank", LoadOptions{ConfigFilePath: " ", ConfigDirPath: "\t", BaseDir: "\n"}, 3, "3 field errors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if tt.wantFields == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var loadErr *InvalidLoadOptionsError
			if !errors.As(err, &loadErr) || !errors.Is(err, ErrInvalidLoadOptions) {
				t.Fatalf("Validate() = %v, want *InvalidLoadOptionsError", err)
			}
			if len(loadErr.FieldErrors) != tt.wantFields {
				t.Errorf("field errors = %d, want %d", len(loadErr.FieldErrors), tt.wantFields)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestProvider_LoadWithSource(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	p := NewProvider()

	sr, ok := p.(interface {
		LoadWithSource(context.Context, LoadOptions) (*Config, string, error)
	})
	if !ok {
		t.Fatal("default provider should report its source")
	}

	_, source, err := sr.LoadWithSource(context.Background(), opts)
	if err != nil || source != "" {
		t.Fatalf("defaults only: source %q, err %v", source, err)
	}

	local := filepath.Join(opts.BaseDir, LocalConfigName)
	writeFile(t, local, `origin: "https://cdn.example.com"`)
	cfg, source, err := sr.LoadWithSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("LoadWithSource: %v", err)
	}
	if source != local || cfg.Origin != "https://cdn.example.com" {
		t.Errorf("source %q origin %q", source, cfg.Origin)
	}

	viaLoad, err := p.Load(context.Background(), opts)
	if err != nil || viaLoad.Origin != cfg.Origin {
		t.Errorf("Load = %+v, %v", viaLoad, err)
	}
}
