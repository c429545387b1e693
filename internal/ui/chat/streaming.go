// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/turn"
)

// =============================================================================
// TURN STATE
// =============================================================================

// activeTurn is the text turn in flight. Only the Update loop touches it.
type activeTurn struct {
	id      string
	pending *turn.Pending
	stream  inference.Stream
	started time.Time

	// PERFORMANCE: strings.Builder avoids quadratic allocations
	reply     strings.Builder
	fragments int
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// openStreamCmd opens the backend stream for pending.
func openStreamCmd(ctx context.Context, turnID string, pending *turn.Pending) tea.Cmd {
	return func() tea.Msg {
		stream, err := pending.Open(ctx)
		return streamOpenedMsg{turnID: turnID, stream: stream, err: err}
	}
}

// nextFragmentCmd pulls one fragment. The next pull is only scheduled once
// Update has handled this one, so a stream is never read concurrently.
func nextFragmentCmd(turnID string, stream inference.Stream) tea.Cmd {
	return func() tea.Msg {
		fragment, err := stream.Next()
		switch {
		case errors.Is(err, io.EOF):
			return streamEndMsg{turnID: turnID, stream: stream}
		case err != nil:
			return streamEndMsg{turnID: turnID, stream: stream, err: inference.Interrupted(err)}
		default:
			return fragmentMsg{turnID: turnID, stream: stream, fragment: fragment}
		}
	}
}

// deferredCmd runs a slash command's deferred work off the Update loop.
func deferredCmd(command string, work func(context.Context) (string, error), timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		out, err := work(ctx)
		return commandDoneMsg{command: command, output: out, err: err}
	}
}

// =============================================================================
// STREAM HANDLERS
// =============================================================================

// isCurrent reports whether turnID is the turn in flight.
func (m Model) isCurrent(turnID string) bool {
	return m.turn != nil && m.turn.id == turnID
}

func (m Model) handleStreamOpened(msg streamOpenedMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.turnID) {
		closeStream(msg.stream)
		return m, nil
	}
	if msg.err != nil {
		return m.finishTurn(msg.err)
	}

	m.turn.stream = msg.stream
	return m, nextFragmentCmd(msg.turnID, msg.stream)
}

func (m Model) handleFragment(msg fragmentMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.turnID) {
		closeStream(msg.stream)
		return m, nil
	}

	if msg.fragment != "" {
		m.turn.reply.WriteString(msg.fragment)
		m.turn.fragments++
		m.updateViewport()
	}
	return m, nextFragmentCmd(msg.turnID, msg.stream)
}

func (m Model) handleStreamEnd(msg streamEndMsg) (tea.Model, tea.Cmd) {
	closeStream(msg.stream)
	if !m.isCurrent(msg.turnID) {
		return m, nil
	}
	return m.finishTurn(msg.err)
}

// finishTurn commits whatever reply arrived, partial or not, and returns the
// screen to the ready state.
func (m Model) finishTurn(streamErr error) (tea.Model, tea.Cmd) {
	t := m.turn
	m.turn = nil
	m.cancelTurn()

	res, err := t.pending.Commit(t.reply.String(), streamErr)
	m.log.Debug("turn finished",
		zap.String("turn", t.id),
		zap.String("conversation", res.Conversation),
		zap.Int("fragments", t.fragments),
		zap.Duration("elapsed", time.Since(t.started)),
		zap.Bool("committed", res.Committed))

	if res.Err != nil {
		m.addNote(inference.Describe(res.Err), true)
	}
	if res.Reply != "" && !res.Committed {
		m.addNote("Reply dropped: conversation "+res.Conversation+" no longer exists", true)
	}
	if err != nil {
		m.addNote(err.Error(), true)
	}

	m.refresh()
	return m, nil
}

// closeStream closes s once its last pull has returned. No pull is ever
// outstanding here, since each pull is only issued after the previous
// message was handled.
func closeStream(s inference.Stream) {
	if s != nil {
		s.Close()
	}
}
