// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/assetsync/assetsync/internal/issue"
	"github.com/assetsync/assetsync/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "assetsync"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigName is the project-local config file looked up last.
	LocalConfigName = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "ASSETSYNC"
)

//go:embed config_schema.cue
var configSchema string

// configDirOverride replaces the platform lookup in ConfigDir. Tests need it
// because os.UserHomeDir ignores HOME on some platforms.
var configDirOverride string

// SetConfigDirOverride makes ConfigDir return dir. An empty dir restores the
// platform default.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the assetsync configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions reads defaults, then the first config file found, then
// environment overrides. It returns the config and the file it came from
// ("" when only defaults and environment applied).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'assetsync config show' for the effective configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables as well as the config file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(flatten(errs)...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// resolveConfigFile picks the file to load: the explicit path (which must
// exist), else the user config dir file, else the local file, else none.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'assetsync config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(opts.BaseDir, LocalConfigName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("writable_root", d.WritableRoot)
	v.SetDefault("ship_root", d.ShipRoot)
	v.SetDefault("origin", d.Origin)
	v.SetDefault("channel", d.Channel)
	v.SetDefault("client_version", d.ClientVersion)
	v.SetDefault("download_concurrency", d.DownloadConcurrency)
	v.SetDefault("http_timeout", string(d.HTTPTimeout))
	v.SetDefault("log_level", string(d.LogLevel))
	v.SetDefault("build.resource_root", d.Build.ResourceRoot)
	v.SetDefault("build.output_dir", d.Build.OutputDir)
	v.SetDefault("build.manifest_archive_dir", d.Build.ManifestArchiveDir)
	v.SetDefault("build.combine_config", d.Build.CombineConfig)
	v.SetDefault("build.ship_dir", d.Build.ShipDir)
	v.SetDefault("build.exclude", d.Build.Exclude)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: This uses manual CUE parsing instead of cueutil.ParseAndDecode because:
// 1. Config decodes to map[string]any (not a struct) for Viper integration
// 2. Uses Concrete(false) because config fields are optional
// 3. Needs to merge into Viper's config map, not return a struct
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func flatten(errs []error) []error {
	var out []error
	for _, err := range errs {
		var ice *InvalidConfigError
		if errors.As(err, &ice) {
			out = append(out, ice.FieldErrors...)
			continue
		}
		out = append(out, err)
	}
	return out
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file into the config directory
// unless one already exists. It returns the file path.
func CreateDefaultConfig() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration. Empty
// optional values are left out.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// assetsync configuration file\n\n")

	writeString(&sb, "", "writable_root", cfg.WritableRoot)
	writeString(&sb, "", "ship_root", cfg.ShipRoot)
	writeString(&sb, "", "origin", cfg.Origin)
	writeString(&sb, "", "channel", cfg.Channel)
	writeString(&sb, "", "client_version", cfg.ClientVersion)
	fmt.Fprintf(&sb, "download_concurrency: %d\n", cfg.DownloadConcurrency)
	writeString(&sb, "", "http_timeout", string(cfg.HTTPTimeout))
	writeString(&sb, "", "log_level", string(cfg.LogLevel))

	b := cfg.Build
	sb.WriteString("\nbuild: {\n")
	writeString(&sb, "\t", "resource_root", b.ResourceRoot)
	writeString(&sb, "\t", "output_dir", b.OutputDir)
	writeString(&sb, "\t", "manifest_archive_dir", b.ManifestArchiveDir)
	writeString(&sb, "\t", "combine_config", b.CombineConfig)
	writeString(&sb, "\t", "ship_dir", b.ShipDir)
	if len(b.Exclude) > 0 {
		sb.WriteString("\texclude: [\n")
		for _, pattern := range b.Exclude {
			fmt.Fprintf(&sb, "\t\t%q,\n", pattern)
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	return sb.String()
}

func writeString(sb *strings.Builder, indent, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s%s: %q\n", indent, key, value)
}
