// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/assetsync/assetsync/internal/issue"
)

// isolated returns LoadOptions that see no config file unless the test
// writes one.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), BaseDir: t.TempDir()}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Channel != "live" {
		t.Errorf("default channel = %q, want live", cfg.Channel)
	}
	if cfg.DownloadConcurrency != 1 {
		t.Errorf("default concurrency = %d, want 1 (sequential)", cfg.DownloadConcurrency)
	}
	if d, err := cfg.HTTPTimeout.Parse(); err != nil || d != 30*time.Second {
		t.Errorf("default timeout = %v, %v; want 30s", d, err)
	}
	if ok, errs := cfg.IsValid(); !ok {
		t.Errorf("default config is invalid: %v", errs)
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Parallel()

	cfg, src, err := LoadWithSource(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src != "" {
		t.Errorf("source = %q, want none", src)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoad_LookupOrder(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	userFile := filepath.Join(opts.ConfigDirPath, "config.cue")
	localFile := filepath.Join(opts.BaseDir, LocalConfigName)
	explicit := filepath.Join(t.TempDir(), "custom.cue")
	writeFile(t, userFile, `channel: "user"`)
	writeFile(t, localFile, `channel: "local"`)
	writeFile(t, explicit, `channel: "explicit"`)

	tests := []struct {
		name    string
		opts    LoadOptions
		channel string
		source  string
	}{
		{"explicit file wins", LoadOptions{ConfigFilePath: explicit, ConfigDirPath: opts.ConfigDirPath, BaseDir: opts.BaseDir}, "explicit", explicit},
		{"user config dir", opts, "user", userFile},
		{"local file", LoadOptions{ConfigDirPath: t.TempDir(), BaseDir: opts.BaseDir}, "local", localFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, src, err := LoadWithSource(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Channel != tt.channel || src != tt.source {
				t.Errorf("channel %q from %q, want %q from %q", cfg.Channel, src, tt.channel, tt.source)
			}
		})
	}
}

func TestLoad_FullFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	writeFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), `
writable_root:        "/var/lib/game"
ship_root:            "/opt/game/ship"
origin:               "https://cdn.example.com/assets"
channel:              "beta"
client_version:       "2.1.0"
download_concurrency: 4
http_timeout:         "1m30s"
log_level:            "debug"
build: {
	resource_root: "Assets/Resources"
	output_dir:    "out"
	ship_dir:      "Assets/StreamingAssets"
	exclude: ["**/*.psd", "Editor/**"]
}
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &Config{
		WritableRoot:        "/var/lib/game",
		ShipRoot:            "/opt/game/ship",
		Origin:              "https://cdn.example.com/assets",
		Channel:             "beta",
		ClientVersion:       "2.1.0",
		DownloadConcurrency: 4,
		HTTPTimeout:         "1m30s",
		LogLevel:            LogLevelDebug,
		Build: BuildConfig{
			ResourceRoot: "Assets/Resources",
			OutputDir:    "out",
			ShipDir:      "Assets/StreamingAssets",
			Exclude:      []string{"**/*.psd", "Editor/**"},
		},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	v, err := cfg.Version()
	if err != nil || v.String() != "2.1.0" {
		t.Errorf("Version() = %v, %v", v, err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"concurrency too low", `download_concurrency: 0`},
		{"concurrency too high", `download_concurrency: 17`},
		{"unknown log level", `log_level: "verbose"`},
		{"non-http origin", `origin: "ftp://cdn.example.com"`},
		{"short client version", `client_version: "1.2"`},
		{"bad timeout", `http_timeout: "soon"`},
		{"empty exclude pattern", `build: exclude: [""]`},
		{"unknown key", `container_engine: "podman"`},
		{"syntax error", `channel: "live`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := isolated(t)
			writeFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T: %v", err, err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), opts)

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T: %v", err, err)
	}
	if ae.Resource != opts.ConfigFilePath || !ae.HasSuggestions() {
		t.Errorf("unexpected error context: %+v", ae)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoad_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{BaseDir: "  "})
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Errorf("err = %v, want ErrInvalidLoadOptions", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	opts := isolated(t)
	writeFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), `
origin: "https://file.example.com"
build: resource_root: "FromFile"
`)
	t.Setenv("ASSETSYNC_ORIGIN", "https://env.example.com")
	t.Setenv("ASSETSYNC_DOWNLOAD_CONCURRENCY", "8")
	t.Setenv("ASSETSYNC_BUILD_RESOURCE_ROOT", "FromEnv")

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Origin != "https://env.example.com" {
		t.Errorf("origin = %q", cfg.Origin)
	}
	if cfg.DownloadConcurrency != 8 {
		t.Errorf("download_concurrency = %d", cfg.DownloadConcurrency)
	}
	if cfg.Build.ResourceRoot != "FromEnv" {
		t.Errorf("build.resource_root = %q", cfg.Build.ResourceRoot)
	}
}

func TestLoad_EnvValuesAreValidated(t *testing.T) {
	t.Setenv("ASSETSYNC_DOWNLOAD_CONCURRENCY", "99")
	t.Setenv("ASSETSYNC_LOG_LEVEL", "loud")

	_, err := NewProvider().Load(context.Background(), isolated(t))
	if !errors.Is(err, ErrInvalidConcurrency) {
		t.Errorf("err = %v, want ErrInvalidConcurrency", err)
	}
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("err = %v, want ErrInvalidLogLevel", err)
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Origin = "https://cdn.example.com"
	cfg.ClientVersion = "1.0.0"
	cfg.DownloadConcurrency = 3
	cfg.Build.ShipDir = "ship"
	cfg.Build.Exclude = []string{"**/*.tmp"}

	out := GenerateCUE(cfg)
	if strings.Contains(out, "ship_root") {
		t.Errorf("empty ship_root should be omitted:\n%s", out)
	}

	opts := isolated(t)
	writeFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), out)
	got, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load generated config: %v\n%s", err, out)
	}
	if diff := cmp.Diff(cfg, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(func() { SetConfigDirOverride("") })

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	writeFile(t, path, `channel: "kept"`)
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `channel: "kept"` {
		t.Error("CreateDefaultConfig overwrote an existing file")
	}
}

func TestConfig_IsValidCollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := Config{ClientVersion: "one", HTTPTimeout: "-5s", LogLevel: "loud"}
	ok, errs := cfg.IsValid()
	if ok {
		t.Fatal("expected invalid config")
	}
	var ice *InvalidConfigError
	if len(errs) != 1 || !errors.As(errs[0], &ice) {
		t.Fatalf("errs = %v", errs)
	}
	// writable_root, client_version, download_concurrency, http_timeout, log_level
	if len(ice.FieldErrors) != 5 {
		t.Errorf("got %d field errors, want 5: %v", len(ice.FieldErrors), ice.FieldErrors)
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Error("should wrap ErrInvalidConfig")
	}
}

func TestDuration_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      Duration
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"30s", 30 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"0s", 0, true},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := tt.in.Parse()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Duration(%q).Parse() = %v, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Duration(%q) error should wrap ErrInvalidDuration", tt.in)
		}
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if ok, errs := l.IsValid(); !ok {
			t.Errorf("%s should be valid: %v", l, errs)
		}
	}
	if ok, errs := LogLevel("trace").IsValid(); ok || !errors.Is(errs[0], ErrInvalidLogLevel) {
		t.Errorf("trace should be invalid, got %v", errs)
	}
	if LogLevelWarn.Level() != log.WarnLevel {
		t.Errorf("warn level = %v", LogLevelWarn.Level())
	}
	if LogLevel("bogus").Level() != log.InfoLevel {
		t.Error("unknown level should map to info")
	}
}
