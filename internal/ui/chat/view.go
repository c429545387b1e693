// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/ui/styles"
)

// =============================================================================
// RENDER CACHE
// =============================================================================

// historyKey identifies a rendered transcript. A conversation only grows
// between renames, so name, length and the size of its last message are
// enough.
type historyKey struct {
	conversation string
	count        int
	lastLen      int
	width        int
}

// renderCache keeps the glamour renderer for the current width and the
// last rendered history, so a streaming fragment only re-renders the reply.
type renderCache struct {
	width    int
	markdown *glamour.TermRenderer

	key     historyKey
	history string
}

// setWidth rebuilds the markdown renderer when width changes.
func (c *renderCache) setWidth(theme *styles.Theme, width int) {
	if c.markdown != nil && c.width == width {
		return
	}
	c.width = width
	// Leave a column for the scrollbar-free right edge
	md, err := theme.MarkdownRenderer(width - 1)
	if err != nil {
		md = nil
	}
	c.markdown = md
	c.history = ""
	c.key = historyKey{}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refresh re-renders the transcript into the viewport and scrolls to the
// newest line.
func (m *Model) refresh() {
	m.updateViewport()
}

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders the active conversation, the reply in flight and
// any notes.
func (m *Model) renderTranscript() string {
	sess := m.runner.Sessions()
	active := sess.Active()
	msgs := sess.ActiveMessages()

	var b strings.Builder
	b.WriteString(m.renderHistory(active, msgs))

	if m.turn != nil && m.turn.pending.Conversation == active {
		reply := m.turn.reply.String()
		if reply == "" {
			b.WriteString(m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName()))
			b.WriteString("\n")
			b.WriteString(m.theme.ThinkingText.Render("  " + m.spinner.View() + " thinking..."))
			b.WriteString("\n\n")
		} else {
			b.WriteString(m.renderMessage(model.RoleAssistant, reply))
		}
	}

	for _, n := range m.notes {
		if n.isErr {
			b.WriteString(m.theme.RenderError(n.text))
		} else {
			b.WriteString(m.theme.RenderNotice(n.text))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderHistory(conversation string, msgs []model.Message) string {
	key := historyKey{conversation: conversation, count: len(msgs), width: m.render.width}
	if len(msgs) > 0 {
		key.lastLen = len(msgs[len(msgs)-1].Content)
	}
	if key == m.render.key && m.render.history != "" {
		return m.render.history
	}

	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg.Role, msg.Content))
	}
	m.render.key = key
	m.render.history = b.String()
	return m.render.history
}

// renderMessage renders one message as a role label over its body.
// Assistant replies are markdown.
func (m *Model) renderMessage(role model.Role, content string) string {
	t := m.theme
	label := t.UserLabel
	if role == model.RoleAssistant {
		label = t.AssistantLabel
	}

	body := ""
	if role == model.RoleAssistant && m.render.markdown != nil {
		if out, err := m.render.markdown.Render(content); err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	if body == "" {
		width := m.viewport.Width - 1
		if width < 1 {
			width = 1
		}
		body = t.MessageBody.Width(width).Render(content)
	}

	return label.Render(role.DisplayName()) + "\n" + body + "\n\n"
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	sess := m.runner.Sessions()

	m.header.SetWidth(m.width)
	m.header.SetParams(sess.Params())
	m.header.SetStatus(sess.Active())

	body := m.viewport.View()
	if m.sidebarWidth > 0 {
		m.sidebar.SetSize(m.sidebarWidth, m.viewport.Height)
		m.sidebar.SetConversations(sess.Names(), sess.Active())
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), body)
	}

	// Border takes the container's top row
	input := m.theme.InputContainer.Width(m.width).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		input,
		m.renderStatusBar(),
	)
}

func (m Model) renderStatusBar() string {
	t := m.theme
	var line string
	switch {
	case m.turn != nil:
		line = t.Spinner.Render(m.spinner.View()) + " " +
			t.ThinkingText.Render("streaming reply") + "  " +
			m.help.ShortHelpView(m.keys.streamingHelp())
	case m.pendingCommands > 0:
		line = t.Spinner.Render(m.spinner.View()) + " " +
			t.ThinkingText.Render("working") + "  " +
			m.help.ShortHelpView(m.keys.ShortHelp())
	default:
		line = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return t.StatusBar.MaxWidth(m.width).Render(line)
}
