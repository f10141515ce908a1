// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/assetsync/assetsync/internal/remote"
	"github.com/assetsync/assetsync/pkg/manifest"
)

const (
	// LogLevelDebug logs every state transition and artifact.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs attempt milestones.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable problems only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"

	// MaxDownloadConcurrency bounds download_concurrency.
	MaxDownloadConcurrency = 16
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidDuration is returned when http_timeout does not parse.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidConcurrency is returned when download_concurrency is out of range.
	ErrInvalidConcurrency = errors.New("invalid download concurrency")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel names a charmbracelet/log level.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// Duration is a time.ParseDuration string such as "30s".
	Duration string

	// InvalidDurationError is returned when a Duration does not parse or is
	// not positive.
	InvalidDurationError struct {
		Value Duration
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// WritableRoot is the device directory holding installed content.
		WritableRoot string `json:"writable_root" mapstructure:"writable_root"`
		// ShipRoot is the read-only content bundled with the client. Empty
		// when the client ships no content.
		ShipRoot string `json:"ship_root" mapstructure:"ship_root"`
		// Origin is the CDN base URL.
		Origin string `json:"origin" mapstructure:"origin"`
		// Channel is the release channel path segment under Origin.
		Channel string `json:"channel" mapstructure:"channel"`
		// ClientVersion is the installed client package version. When empty,
		// the adopted manifest's version is used for major-upgrade checks.
		ClientVersion string `json:"client_version" mapstructure:"client_version"`
		// DownloadConcurrency is 1 for strictly sequential downloads.
		DownloadConcurrency int `json:"download_concurrency" mapstructure:"download_concurrency"`
		// HTTPTimeout bounds remote manifest requests.
		HTTPTimeout Duration `json:"http_timeout" mapstructure:"http_timeout"`
		LogLevel    LogLevel `json:"log_level" mapstructure:"log_level"`
		// Build configures the bundle builder.
		Build BuildConfig `json:"build" mapstructure:"build"`
	}

	// BuildConfig configures the bundle builder.
	BuildConfig struct {
		ResourceRoot       string   `json:"resource_root" mapstructure:"resource_root"`
		OutputDir          string   `json:"output_dir" mapstructure:"output_dir"`
		ManifestArchiveDir string   `json:"manifest_archive_dir" mapstructure:"manifest_archive_dir"`
		CombineConfig      string   `json:"combine_config" mapstructure:"combine_config"`
		ShipDir            string   `json:"ship_dir" mapstructure:"ship_dir"`
		Exclude            []string `json:"exclude" mapstructure:"exclude"`
	}
)

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts l for log.SetLevel. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration %q (want a positive value such as \"30s\")", e.Value)
}

// Unwrap returns ErrInvalidDuration for errors.Is() compatibility.
func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

func (d Duration) String() string { return string(d) }

// Parse returns the duration. The empty value parses as zero.
func (d Duration) Parse() (time.Duration, error) {
	if d == "" {
		return 0, nil
	}
	v, err := time.ParseDuration(string(d))
	if err != nil || v <= 0 {
		return 0, &InvalidDurationError{Value: d}
	}
	return v, nil
}

// IsValid returns whether d is empty or a positive duration.
func (d Duration) IsValid() (bool, []error) {
	if _, err := d.Parse(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid checks every field, collecting all failures.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.WritableRoot) == "" {
		errs = append(errs, errors.New("writable_root must not be empty"))
	}
	if c.ClientVersion != "" {
		if _, err := manifest.ParseVersion(c.ClientVersion); err != nil {
			errs = append(errs, fmt.Errorf("client_version: %w", err))
		}
	}
	if c.DownloadConcurrency < 1 || c.DownloadConcurrency > MaxDownloadConcurrency {
		errs = append(errs, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidConcurrency, c.DownloadConcurrency, MaxDownloadConcurrency))
	}
	if ok, fieldErrs := c.HTTPTimeout.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Version returns ClientVersion parsed, or the zero version when unset.
func (c Config) Version() (manifest.Version, error) {
	if c.ClientVersion == "" {
		return manifest.Version{}, nil
	}
	return manifest.ParseVersion(c.ClientVersion)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		WritableRoot:        "data",
		Channel:             remote.DefaultChannel,
		DownloadConcurrency: 1,
		HTTPTimeout:         Duration(remote.DefaultTimeout.String()),
		LogLevel:            LogLevelInfo,
		Build: BuildConfig{
			ResourceRoot: "Resources",
			OutputDir:    "build",
			Exclude:      []string{},
		},
	}
}
