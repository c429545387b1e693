// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/commands"
	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/util"
)

// replCommandTimeout bounds deferred commands such as /models.
const replCommandTimeout = 10 * time.Second

// =============================================================================
// REPL
// =============================================================================

type replOptions struct {
	// markdown buffers each reply and renders it when complete
	markdown bool
}

// repl is the line-by-line front-end. It reads with liner on a terminal
// and line by line from anything else.
type repl struct {
	app    *App
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	opts   replOptions

	parser    *commands.Parser
	completer *commands.Completer
	width     int
}

func newREPL(app *App, o Options, opts replOptions) *repl {
	completer := commands.NewCompleter(app.Registry)
	completer.ModelsFn = func() []string { return app.Env.Models }
	completer.ConversationsFn = app.Sessions.Names

	return &repl{
		app:       app,
		in:        o.Stdin,
		out:       o.Stdout,
		errOut:    o.Stderr,
		opts:      opts,
		parser:    commands.NewParser(app.Registry),
		completer: completer,
		width:     terminalWidth(o.Stdout),
	}
}

func (c *cliContext) newReplCmd() *cobra.Command {
	var opts replOptions
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat line by line without the full-screen interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				return newREPL(app, c.opts, opts).run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "render each reply as markdown once it completes")
	return cmd
}

// run reads lines until EOF or /quit.
func (r *repl) run(ctx context.Context) error {
	if isTerminal(r.in) && r.in == os.Stdin {
		return r.runLiner(ctx)
	}

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if r.handleLine(ctx, scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// runLiner is the terminal loop with history and tab completion.
func (r *repl) runLiner(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.completer.Lines)

	historyPath, err := util.ExpandHome(r.app.Config.UI.HistoryFile)
	if err != nil {
		historyPath = ""
	}
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	defer r.saveHistory(line, historyPath)

	fmt.Fprintf(r.out, "ollachat %s - type /help for commands, /quit to leave\n\n", r.app.Sessions.Active())

	for {
		prompt := r.app.Sessions.Active() + "> "
		input, err := line.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return err
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if r.handleLine(ctx, input) {
			return nil
		}
	}
}

func (r *repl) saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	// SECURITY: history can hold private prompts
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		r.app.Log.Debug("history not saved", zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		r.app.Log.Debug("history not saved", zap.Error(err))
	}
}

// handleLine runs one line of input and reports whether to quit.
func (r *repl) handleLine(ctx context.Context, input string) (quit bool) {
	if strings.TrimSpace(input) == "" {
		return false
	}

	parsed := r.parser.Parse(input)
	if !parsed.IsCommand {
		r.sendText(ctx, parsed.Text)
		return false
	}

	res, err := r.app.Registry.Execute(r.app.Env, input)
	if err != nil {
		fmt.Fprintln(r.errOut, r.app.Theme.RenderError(err.Error()))
		return false
	}
	if res.Output != "" && res.Deferred == nil {
		fmt.Fprintln(r.out, res.Output)
	}
	if res.Deferred != nil {
		dctx, cancel := context.WithTimeout(ctx, replCommandTimeout)
		out, err := res.Deferred(dctx)
		cancel()
		if err != nil {
			fmt.Fprintln(r.errOut, r.app.Theme.RenderError(inference.Describe(err)))
		} else if out != "" {
			fmt.Fprintln(r.out, out)
		}
	}
	return res.Quit
}

// sendText runs a text turn. Ctrl+C during the reply cancels it and keeps
// what arrived.
func (r *repl) sendText(ctx context.Context, text string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	onFragment := func(fragment, _ string) {
		if !r.opts.markdown {
			fmt.Fprint(r.out, fragment)
		}
	}

	res, err := r.app.Runner.SendText(turnCtx, text, onFragment)
	switch {
	case r.opts.markdown && res.Reply != "":
		fmt.Fprint(r.out, r.renderMarkdown(res.Reply))
	case res.Reply != "":
		fmt.Fprintln(r.out)
	}

	if res.Err != nil {
		fmt.Fprintln(r.errOut, r.app.Theme.RenderError(inference.Describe(res.Err)))
	}
	if res.Reply != "" && !res.Committed {
		fmt.Fprintln(r.errOut, r.app.Theme.RenderError("Reply dropped: conversation "+res.Conversation+" no longer exists"))
	}
	if err != nil {
		fmt.Fprintln(r.errOut, r.app.Theme.RenderError(err.Error()))
	}
}

// renderMarkdown renders a reply with glamour, falling back to plain text.
func (r *repl) renderMarkdown(content string) string {
	md, err := r.app.Theme.MarkdownRenderer(r.width)
	if err != nil {
		return content + "\n"
	}
	out, err := md.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}
