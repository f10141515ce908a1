// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/assetsync/assetsync/internal/config"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference.
	App struct {
		Config ConfigProvider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider = config.Provider

	// sourceReporter is implemented by providers that know which file the
	// configuration came from.
	sourceReporter interface {
		LoadWithSource(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		verbose     bool
		interactive bool
		configPath  string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads configuration honoring --config.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
}

// loadConfigWithSource is loadConfig plus the source file when the provider
// can report it.
func (a *App) loadConfigWithSource(ctx context.Context, flags *rootFlagValues) (*config.Config, string, error) {
	opts := config.LoadOptions{ConfigFilePath: flags.configPath}
	if sr, ok := a.Config.(sourceReporter); ok {
		return sr.LoadWithSource(ctx, opts)
	}
	cfg, err := a.Config.Load(ctx, opts)
	return cfg, "", err
}

// logger builds the structured logger for one command run. --verbose forces
// debug level; otherwise the configured level applies.
func (a *App) logger(cfg *config.Config, flags *rootFlagValues) *log.Logger {
	level := cfg.LogLevel.Level()
	if flags.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          config.AppName,
	})
}
