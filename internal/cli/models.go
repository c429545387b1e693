// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cliContext) newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the backend offers",
		Long: `List the models the backend reports, with the current one marked.
The configured list is shown when the backend cannot enumerate its
models or cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				res, err := app.Registry.Execute(app.Env, "/models")
				if err != nil {
					return err
				}
				out := res.Output
				if res.Deferred != nil {
					timeout := app.Config.Ollama.Timeout()
					if timeout <= 0 {
						timeout = replCommandTimeout
					}
					ctx, cancel := context.WithTimeout(ctx, timeout)
					defer cancel()
					if out, err = res.Deferred(ctx); err != nil {
						return err
					}
				}
				fmt.Fprintln(c.opts.Stdout, out)
				return nil
			})
		},
	}
}
