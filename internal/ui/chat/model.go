// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/commands"
	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/turn"
	"github.com/jeranaias/ollachat/internal/ui/components"
	"github.com/jeranaias/ollachat/internal/ui/styles"
)

// DefaultCommandTimeout bounds deferred slash commands such as /models.
const DefaultCommandTimeout = 10 * time.Second

// =============================================================================
// OPTIONS
// =============================================================================

// Options wires the chat screen to the application.
type Options struct {
	// Env is what slash commands act on; Env.Runner drives text turns
	Env *commands.Env

	// Registry defaults to commands.NewRegistry()
	Registry *commands.Registry

	// Theme defaults to styles.NewTheme(styles.ModeAuto)
	Theme *styles.Theme

	Logger *zap.Logger

	// CommandTimeout defaults to DefaultCommandTimeout
	CommandTimeout time.Duration
}

// =============================================================================
// MODEL
// =============================================================================

// note is a transient line shown below the transcript.
type note struct {
	text  string
	isErr bool
}

// Model is the bubbletea model of the chat screen.
//
// The session is only ever touched from Update. While a reply streams, new
// turns and conversation changes are refused, so the stream's target cannot
// move underneath it.
type Model struct {
	runner         *turn.Runner
	env            *commands.Env
	registry       *commands.Registry
	parser         *commands.Parser
	completer      *commands.Completer
	theme          *styles.Theme
	keys           KeyMap
	log            *zap.Logger
	commandTimeout time.Duration

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	header   *components.Header
	sidebar  *components.Sidebar

	width        int
	height       int
	sidebarWidth int

	// Streaming
	turn      *activeTurn
	cancelMgr *cancelManager // Pointer to avoid copying mutex during Bubble Tea updates

	// Deferred slash commands still running
	pendingCommands int

	notes []note

	// Tab completion cycle for the current input
	completions   []string
	completionIdx int

	render   *renderCache
	quitting bool
}

// New creates the chat model.
func New(opts Options) Model {
	registry := opts.Registry
	if registry == nil {
		registry = commands.NewRegistry()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	runner := opts.Env.Runner

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message or /help..."
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII-compatible animation
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = theme.Spinner

	hp := help.New()
	hp.Styles.ShortKey = theme.ShortcutKey
	hp.Styles.ShortDesc = theme.ShortcutDesc
	hp.Styles.ShortSeparator = theme.ShortcutDesc

	completer := commands.NewCompleter(registry)
	completer.ConversationsFn = runner.Sessions().Names
	completer.ModelsFn = func() []string { return opts.Env.Models }

	return Model{
		runner:         runner,
		env:            opts.Env,
		registry:       registry,
		parser:         commands.NewParser(registry),
		completer:      completer,
		theme:          theme,
		keys:           DefaultKeyMap(),
		log:            logger,
		commandTimeout: timeout,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		help:           hp,
		header:         components.NewHeader(theme),
		sidebar:        components.NewSidebar(theme),
		sidebarWidth:   components.DefaultSidebarWidth,
		cancelMgr:      newCancelManager(),
		render:         &renderCache{},
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Streaming reports whether a reply is in flight.
func (m Model) Streaming() bool {
	return m.turn != nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case streamOpenedMsg:
		return m.handleStreamOpened(msg)

	case fragmentMsg:
		return m.handleFragment(msg)

	case streamEndMsg:
		return m.handleStreamEnd(msg)

	case commandDoneMsg:
		return m.handleCommandDone(msg)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// busy reports whether the spinner should run.
func (m Model) busy() bool {
	return m.turn != nil || m.pendingCommands > 0
}

// =============================================================================
// LAYOUT
// =============================================================================

// Rows taken by everything but the transcript: header, input border and
// line, status bar.
const (
	headerHeight    = 1
	inputAreaHeight = 2
	statusBarHeight = 1

	// minWidthForSidebar hides the sidebar on narrow terminals
	minWidthForSidebar = 60
)

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.sidebarWidth = components.DefaultSidebarWidth
	if m.width < minWidthForSidebar {
		m.sidebarWidth = 0
	}

	vpHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := m.width - m.sidebarWidth
	if vpWidth < 1 {
		vpWidth = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight

	// Container padding takes two columns, the prompt two more
	inputWidth := m.width - 4 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.render.setWidth(m.theme, vpWidth)
	m.refresh()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Cancel):
		if m.turn != nil {
			m.cancelTurn()
			return m.finishTurn(inference.Interrupted(context.Canceled))
		}
		m.completions = nil
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.NewConversation):
		if m.refuseWhileStreaming() {
			return m, nil
		}
		m.notes = nil
		return m.runCommand("/new")

	case key.Matches(msg, m.keys.PrevConversation):
		return m.moveSelection(-1)

	case key.Matches(msg, m.keys.NextConversation):
		return m.moveSelection(1)

	case key.Matches(msg, m.keys.Complete):
		m.complete()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	m.completions = nil
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// quit commits any reply in flight before exiting, so a partial answer
// survives.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.turn != nil {
		m.cancelTurn()
		next, _ := m.finishTurn(inference.Interrupted(context.Canceled))
		m = next.(Model)
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) refuseWhileStreaming() bool {
	if m.turn == nil {
		return false
	}
	m.addNote("A reply is still streaming. Press Esc to cancel it first.", true)
	m.refresh()
	return true
}

func (m Model) moveSelection(delta int) (tea.Model, tea.Cmd) {
	if m.refuseWhileStreaming() {
		return m, nil
	}
	m.runner.Sessions().SelectOffset(delta)
	m.notes = nil
	m.refresh()
	return m, nil
}

// complete cycles the input through the completions for what was typed
// before the first Tab.
func (m *Model) complete() {
	if m.completions == nil {
		m.completions = m.completer.Lines(m.input.Value())
		m.completionIdx = 0
	}
	if len(m.completions) == 0 {
		return
	}
	m.input.SetValue(m.completions[m.completionIdx%len(m.completions)])
	m.input.CursorEnd()
	m.completionIdx++
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if strings.TrimSpace(value) == "" {
		return m, nil
	}
	if m.refuseWhileStreaming() {
		return m, nil
	}

	m.input.Reset()
	m.completions = nil
	m.notes = nil

	parsed := m.parser.Parse(value)
	if parsed.IsCommand {
		return m.runCommand(value)
	}
	return m.startTurn(parsed.Text)
}

// startTurn appends the user message and opens the reply stream.
func (m Model) startTurn(text string) (tea.Model, tea.Cmd) {
	pending, err := m.runner.Begin(text)
	if errors.Is(err, turn.ErrEmptyInput) {
		return m, nil
	}
	if err != nil {
		m.addNote(err.Error(), true)
		m.refresh()
		return m, nil
	}

	id := uuid.NewString()
	ctx := m.newTurnContext()
	m.turn = &activeTurn{id: id, pending: pending, started: time.Now()}

	m.log.Debug("turn started",
		zap.String("turn", id),
		zap.String("conversation", pending.Conversation),
		zap.String("model", pending.Request.Model),
		zap.Int("history", len(pending.Request.Messages)))

	m.refresh()
	return m, tea.Batch(openStreamCmd(ctx, id, pending), m.spinner.Tick)
}

// runCommand executes a slash command. Deferred work is handed to bubbletea
// so the network call never blocks Update.
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	name := commands.ExtractCommandName(input)
	res, err := m.registry.Execute(m.env, input)
	if err != nil {
		m.log.Debug("command failed", zap.String("command", name), zap.Error(err))
		m.addNote(err.Error(), true)
		m.refresh()
		return m, nil
	}

	if res.Output != "" {
		m.addNote(res.Output, false)
	}
	if res.Quit {
		return m.quit()
	}

	var cmd tea.Cmd
	if res.Deferred != nil {
		m.pendingCommands++
		cmd = tea.Batch(deferredCmd(name, res.Deferred, m.commandTimeout), m.spinner.Tick)
	}
	m.refresh()
	return m, cmd
}

func (m Model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	if m.pendingCommands > 0 {
		m.pendingCommands--
	}
	switch {
	case msg.err != nil:
		m.addNote(inference.Describe(msg.err), true)
	case msg.output != "":
		m.addNote(msg.output, false)
	}
	m.refresh()
	return m, nil
}

func (m *Model) addNote(text string, isErr bool) {
	m.notes = append(m.notes, note{text: text, isErr: isErr})
}

// =============================================================================
// PROGRAM
// =============================================================================

// Run runs the chat screen on the alternate screen until the user quits.
func Run(opts Options, progOpts ...tea.ProgramOption) error {
	progOpts = append([]tea.ProgramOption{tea.WithAltScreen()}, progOpts...)
	final, err := tea.NewProgram(New(opts), progOpts...).Run()
	if m, ok := final.(Model); ok {
		m.cancelTurn()
	}
	return err
}
