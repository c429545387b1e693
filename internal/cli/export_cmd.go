// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/export"
)

// exportFlags holds the flags of the export subcommand.
type exportFlags struct {
	all          bool
	conversation string
	dir          string
	format       string
}

func (c *cliContext) newExportCmd() *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write conversations to a file",
		Long: `Write one conversation, or all of them, to
chat_history_<name>_<timestamp>.<ext> in the export directory.
Formats are txt, md and json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(_ context.Context, app *App) error {
				return c.runExport(app, flags)
			})
		},
	}
	cmd.Flags().BoolVarP(&flags.all, "all", "a", false, "export every conversation")
	cmd.Flags().StringVar(&flags.conversation, "conversation", "", "conversation to export (default: the first)")
	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "output directory (default from config)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "txt, md or json (default from config)")
	return cmd
}

func (c *cliContext) runExport(app *App, flags exportFlags) error {
	if flags.all && flags.conversation != "" {
		return newUsageError("--all and --conversation cannot be combined")
	}

	opts := app.Env.Export
	if flags.dir != "" {
		opts.Dir = flags.dir
	}
	if flags.format != "" {
		opts.Format = strings.ToLower(flags.format)
	}
	if _, err := export.ExporterFor(opts.Format); err != nil {
		return newUsageError("%v", err)
	}

	lib := app.Sessions.Library()
	var doc export.Document
	if flags.all {
		doc = export.ForAll(lib)
	} else {
		name := flags.conversation
		if name == "" {
			name = app.Sessions.Active()
		}
		d, err := export.ForConversation(lib, name)
		if err != nil {
			return &CommandError{Command: "export", Code: ExitNotFoundError, Err: err}
		}
		doc = d
	}

	path, err := export.WriteFile(doc, opts)
	if err != nil {
		return &CommandError{Command: "export", Code: ExitGeneralError, Err: err}
	}
	app.Log.Info("conversation exported", zap.String("path", path), zap.Bool("all", flags.all))
	fmt.Fprintln(c.opts.Stdout, "Exported to "+path)
	return nil
}
