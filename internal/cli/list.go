// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollachat/internal/commands"
	"github.com/jeranaias/ollachat/internal/export"
)

func (c *cliContext) newListCmd() *cobra.Command {
	var show string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(_ context.Context, app *App) error {
				if show == "" {
					fmt.Fprintln(c.opts.Stdout, commands.FormatConversationList(app.Sessions))
					return nil
				}
				msgs, err := app.Sessions.Messages(show)
				if err != nil {
					return &CommandError{Command: "list", Code: ExitNotFoundError, Err: err}
				}
				fmt.Fprintln(c.opts.Stdout, export.Transcript(msgs))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "print the transcript of one conversation")
	return cmd
}
