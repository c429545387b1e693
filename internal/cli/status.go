// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/inference"
)

// statusTimeout bounds the reachability check.
const statusTimeout = 3 * time.Second

// pinger is implemented by backends that can check their server is up.
type pinger interface {
	Ping(ctx context.Context) error
}

// endpointer is implemented by backends with a fixed server address.
type endpointer interface {
	Endpoint() string
}

func (c *cliContext) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend, model and store in use",
		Long: `Show the active backend, model and chat store, and check that the
backend server answers. Exits with a network error code when it does not.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				return c.runStatus(ctx, app)
			})
		},
	}
}

func (c *cliContext) runStatus(ctx context.Context, app *App) error {
	params := app.Sessions.Params()

	w := tabwriter.NewWriter(c.opts.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s\n", app.Config.Backend)
	if ep, ok := app.Backend.(endpointer); ok {
		fmt.Fprintf(w, "Endpoint:\t%s\n", ep.Endpoint())
	}

	var pingErr error
	if p, ok := app.Backend.(pinger); ok {
		ctx, cancel := context.WithTimeout(ctx, statusTimeout)
		pingErr = p.Ping(ctx)
		cancel()
		if pingErr != nil {
			fmt.Fprintf(w, "Server:\tnot reachable\n")
		} else {
			fmt.Fprintf(w, "Server:\trunning\n")
		}
	}

	fmt.Fprintf(w, "Model:\t%s\n", params.Model)
	fmt.Fprintf(w, "Temperature:\t%g\n", params.Temperature)
	fmt.Fprintf(w, "Max tokens:\t%d\n", params.MaxTokens)
	fmt.Fprintf(w, "Store:\t%s\n", app.Config.Storage.Path)
	fmt.Fprintf(w, "Conversations:\t%d\n", len(app.Sessions.Names()))
	if err := w.Flush(); err != nil {
		return err
	}

	if pingErr != nil {
		app.Log.Debug("backend ping failed", zap.Error(pingErr))
		fmt.Fprintln(c.opts.Stderr, inference.Describe(pingErr))
		fmt.Fprintln(c.opts.Stderr, pingErr)
		return &CommandError{Command: "status", Code: ExitNetworkError, Err: pingErr, Reported: true}
	}
	return nil
}
