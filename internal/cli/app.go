// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/commands"
	"github.com/jeranaias/ollachat/internal/config"
	"github.com/jeranaias/ollachat/internal/export"
	"github.com/jeranaias/ollachat/internal/gemini"
	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/ingest"
	"github.com/jeranaias/ollachat/internal/logging"
	"github.com/jeranaias/ollachat/internal/ollama"
	"github.com/jeranaias/ollachat/internal/session"
	"github.com/jeranaias/ollachat/internal/storage"
	"github.com/jeranaias/ollachat/internal/turn"
	"github.com/jeranaias/ollachat/internal/ui/styles"
	"github.com/jeranaias/ollachat/internal/util"
)

// =============================================================================
// OPTIONS
// =============================================================================

// BackendFactory builds the inference backend the configuration selects.
type BackendFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (inference.Backend, error)

// Options wires the command tree to its surroundings. Zero values select
// the process streams, the real backends and a file logger from the config.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	NewBackend BackendFactory

	// Logger replaces the configured logger
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.NewBackend == nil {
		o.NewBackend = DefaultBackend
	}
	return o
}

// modelLister is implemented by backends that can enumerate their models.
type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// DefaultBackend builds an Ollama or Gemini backend from cfg.
func DefaultBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (inference.Backend, error) {
	switch cfg.Backend {
	case config.BackendGemini:
		return gemini.New(ctx, cfg.Gemini.APIKey, logger)
	default:
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:       cfg.Ollama.URL,
			Timeout:       cfg.Ollama.Timeout(),
			StreamTimeout: cfg.Ollama.StreamTimeout(),
		})
		return ollama.NewBackend(client, logger), nil
	}
}

// =============================================================================
// APPLICATION
// =============================================================================

// App is the assembled application shared by every subcommand.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Sessions *session.Manager
	Runner   *turn.Runner
	Backend  inference.Backend
	Env      *commands.Env
	Registry *commands.Registry
	Theme    *styles.Theme

	ownsLog bool
}

// newApp loads the configuration, applies the global flags and builds the
// session, backend and command environment.
func newApp(ctx context.Context, opts Options, flags *globalFlags) (*App, error) {
	cfg, err := config.Load(flags.configPath)
	if cfg == nil {
		return nil, &CommandError{Command: "config", Code: ExitConfigError, Err: err}
	}
	loadErr := err

	if err := flags.apply(cfg); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Log: opts.Logger}
	if app.Log == nil {
		logger, err := logging.New(logging.Options{
			Path:    cfg.Log.Path,
			Level:   cfg.Log.Level,
			Verbose: flags.verbose,
		})
		if err != nil {
			return nil, &CommandError{Command: "config", Code: ExitConfigError, Err: err}
		}
		app.Log = logger
		app.ownsLog = true
	}
	if loadErr != nil {
		app.Log.Warn("config file ignored, using defaults", zap.Error(loadErr))
	}

	storePath, err := util.ExpandHome(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	app.Sessions = session.NewManager(storage.NewChatStore(storePath), cfg.Params(), app.Log)

	backend, err := opts.NewBackend(ctx, cfg, app.Log)
	if err != nil {
		return nil, &CommandError{Command: cfg.Backend, Code: ExitConfigError, Err: err}
	}

	app.Backend = backend
	app.Theme = styles.NewThemeWithRenderer(cfg.UI.Theme, lipgloss.NewRenderer(opts.Stdout))
	app.Runner = turn.NewRunner(app.Sessions, backend, ingest.Extractor{MaxBytes: cfg.Ingest.MaxUploadBytes}, app.Log)
	app.Registry = commands.NewRegistry()
	app.Env = &commands.Env{
		Runner: app.Runner,
		Models: cfg.Models,
		Export: export.Options{Dir: cfg.Export.Dir, Format: cfg.Export.Format},
		Log:    app.Log,
	}
	if lister, ok := backend.(modelLister); ok {
		app.Env.ListModels = lister.ListModels
	}

	app.Log.Debug("application ready",
		zap.String("backend", cfg.Backend),
		zap.String("store", storePath),
		zap.String("model", app.Sessions.Params().Model))
	return app, nil
}

// Close flushes the logger.
func (a *App) Close() {
	if a.ownsLog {
		_ = a.Log.Sync()
	}
}

// selectConversation makes name active when it is set.
func (a *App) selectConversation(name string) error {
	if name == "" {
		return nil
	}
	if err := a.Sessions.Select(name); err != nil {
		return &CommandError{Command: "conversation", Code: ExitNotFoundError, Err: err}
	}
	return nil
}

// describeConfig is used by error paths that need the file location.
func describeConfig(path string) string {
	if path != "" {
		return path
	}
	p, err := config.DefaultPath()
	if err != nil {
		return fmt.Sprintf("(unknown: %v)", err)
	}
	return p
}
