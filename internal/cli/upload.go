// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollachat/internal/commands"
	"github.com/jeranaias/ollachat/internal/turn"
	"github.com/jeranaias/ollachat/internal/util"
)

func (c *cliContext) newUploadCmd() *cobra.Command {
	var conversation string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Add a file's text to a conversation",
		Long: `Extract the text of a file (plain text, csv, json, yaml, markdown or
pdf) and add it to a conversation as context for the next message.
Nothing is sent to the model.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(_ context.Context, app *App) error {
				if err := app.selectConversation(conversation); err != nil {
					return err
				}
				file, err := readUpload("upload", args[0])
				if err != nil {
					return err
				}

				res, err := app.Runner.Upload(*file)
				fmt.Fprintln(c.opts.Stdout, commands.DescribeUpload(res))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&conversation, "conversation", "", "conversation to add to (default: the first)")
	return cmd
}

// readUpload loads the file at path for a file turn. A missing or unreadable
// file is reported under command with the not-found exit code.
func readUpload(command, path string) (*turn.File, error) {
	expanded, err := util.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, &CommandError{Command: command, Code: ExitNotFoundError, Err: err}
	}
	return &turn.File{Name: expanded, Data: data}, nil
}
