// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollachat/internal/config"
	"github.com/jeranaias/ollachat/internal/ui/chat"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// globalFlags are the persistent flags every subcommand accepts.
type globalFlags struct {
	configPath  string
	backend     string
	model       string
	temperature float64
	maxTokens   int
	store       string
	verbose     bool

	// changed reports whether the user set a flag; bound before RunE
	changed func(name string) bool
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file (default ~/.ollachat/config.toml)")
	pf.StringVar(&f.backend, "backend", "", "inference backend: ollama or gemini")
	pf.StringVarP(&f.model, "model", "m", "", "model to chat with")
	pf.Float64VarP(&f.temperature, "temperature", "t", 0, "sampling temperature (0 to 1.5)")
	pf.IntVar(&f.maxTokens, "max-tokens", 0, "reply length limit in tokens (64 to 4000)")
	pf.StringVar(&f.store, "store", "", "chat store file")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
}

// apply overrides cfg with the flags the user set and revalidates it.
func (f *globalFlags) apply(cfg *config.Config) error {
	set := f.changed
	if set == nil {
		set = func(string) bool { return false }
	}

	if set("backend") {
		cfg.Backend = f.backend
	}
	if set("model") {
		cfg.DefaultModel = f.model
	}
	if set("temperature") {
		cfg.Temperature = f.temperature
	}
	if set("max-tokens") {
		cfg.MaxTokens = f.maxTokens
	}
	if set("store") {
		cfg.Storage.Path = f.store
	}

	if err := cfg.Validate(); err != nil {
		return &CommandError{Command: "flags", Code: ExitUsageError, Err: err}
	}
	return nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// cliContext carries what every subcommand needs to build the App.
type cliContext struct {
	opts  Options
	flags *globalFlags
}

// withApp builds the App for cmd, runs fn and closes the App.
func (c *cliContext) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	app, err := newApp(cmd.Context(), c.opts, c.flags)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(cmd.Context(), app)
}

// NewRootCmd builds the ollachat command tree.
func NewRootCmd(opts Options) *cobra.Command {
	c := &cliContext{opts: opts.withDefaults(), flags: &globalFlags{}}

	root := &cobra.Command{
		Use:   "ollachat",
		Short: "Chat with local and hosted language models",
		Long: `ollachat keeps named conversations with a language model served by
Ollama or Gemini. Without a subcommand it opens the chat screen on a
terminal, or a line-by-line prompt when input is piped.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.flags.changed = cmd.Flags().Changed
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runInteractive(cmd, false)
		},
	}
	root.SetIn(c.opts.Stdin)
	root.SetOut(c.opts.Stdout)
	root.SetErr(c.opts.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newUsageError("%v", err)
	})

	c.flags.register(root)

	root.AddCommand(
		c.newChatCmd(),
		c.newReplCmd(),
		c.newAskCmd(),
		c.newListCmd(),
		c.newExportCmd(),
		c.newUploadCmd(),
		c.newModelsCmd(),
		c.newStatusCmd(),
		c.newConfigCmd(),
	)
	return root
}

func (c *cliContext) newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the full-screen chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runInteractive(cmd, true)
		},
	}
}

// runInteractive opens the chat screen when both ends are terminals, or
// when forced, and falls back to the line prompt otherwise.
func (c *cliContext) runInteractive(cmd *cobra.Command, forceScreen bool) error {
	return c.withApp(cmd, func(ctx context.Context, app *App) error {
		if forceScreen || (isTerminal(c.opts.Stdin) && isTerminal(c.opts.Stdout)) {
			return chat.Run(chat.Options{
				Env:      app.Env,
				Registry: app.Registry,
				Theme:    app.Theme,
				Logger:   app.Log,
			})
		}
		return newREPL(app, c.opts, replOptions{}).run(ctx)
	})
}

// =============================================================================
// EXECUTE
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCmd(Options{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return ExitCode(err)
	}
	return ExitSuccess
}
