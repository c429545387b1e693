// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollachat/internal/commands"
	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/turn"
)

// askFlags holds the flags of the ask subcommand.
type askFlags struct {
	conversation string
	newChat      bool
	markdown     bool
	file         string
}

func (c *cliContext) newAskCmd() *cobra.Command {
	var flags askFlags
	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send one message and print the reply",
		Long: `Send one message to a conversation and stream the reply to stdout.
The prompt is read from stdin when no arguments are given. The exchange
is saved like any other turn.

With --file the file's text is added to the conversation after the reply,
as context for the next message. The prompt may then be left out.`,
		Example: `  ollachat ask "What is a goroutine?"
  git diff | ollachat ask --new
  ollachat ask --file notes.md "Summarise the notes I am about to share"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var file *turn.File
			if flags.file != "" {
				f, err := readUpload("ask", flags.file)
				if err != nil {
					return err
				}
				file = f
			}
			prompt, err := c.readPrompt(args, file != nil)
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				return c.runAsk(ctx, app, flags, turn.Event{Text: prompt, File: file})
			})
		},
	}
	cmd.Flags().StringVar(&flags.conversation, "conversation", "", "conversation to send to (default: the first)")
	cmd.Flags().BoolVar(&flags.newChat, "new", false, "start a new conversation")
	cmd.Flags().BoolVar(&flags.markdown, "markdown", false, "render the reply as markdown")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "file whose text is added after the reply")
	return cmd
}

// readPrompt joins args, or reads stdin when there are none. An empty
// prompt is accepted only when optional is set.
func (c *cliContext) readPrompt(args []string, optional bool) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if isTerminal(c.opts.Stdin) {
		if optional {
			return "", nil
		}
		return "", newUsageError("ask needs a prompt argument or piped input")
	}
	data, err := io.ReadAll(c.opts.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" && !optional {
		return "", newUsageError("prompt is empty")
	}
	return prompt, nil
}

func (c *cliContext) runAsk(ctx context.Context, app *App, flags askFlags, ev turn.Event) error {
	if flags.newChat && flags.conversation != "" {
		return newUsageError("--new and --conversation cannot be combined")
	}
	if flags.newChat {
		if _, err := app.Sessions.CreateConversation(); err != nil {
			return err
		}
	} else if err := app.selectConversation(flags.conversation); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	out := c.opts.Stdout
	outcome, err := app.Runner.Handle(ctx, ev, func(fragment, _ string) {
		if !flags.markdown {
			fmt.Fprint(out, fragment)
		}
	})

	var res turn.Result
	if outcome.Text != nil {
		res = *outcome.Text
	}
	switch {
	case flags.markdown && res.Reply != "":
		r := &repl{app: app, width: terminalWidth(out)}
		fmt.Fprint(out, r.renderMarkdown(res.Reply))
	case res.Reply != "":
		fmt.Fprintln(out)
	}
	if outcome.Upload != nil {
		fmt.Fprintln(out, commands.DescribeUpload(*outcome.Upload))
	}

	if err != nil {
		return err
	}
	if res.Err != nil {
		fmt.Fprintln(c.opts.Stderr, inference.Describe(res.Err))
		return &CommandError{Command: "ask", Code: ExitCode(res.Err), Err: res.Err, Reported: true}
	}
	return nil
}
