// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/ollachat/internal/inference"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// Every streaming message carries the turn ID it belongs to. Messages for a
// turn that is no longer in flight (cancelled, or replaced) are dropped and
// their stream closed.

// streamOpenedMsg reports the outcome of opening the backend stream.
type streamOpenedMsg struct {
	turnID string
	stream inference.Stream
	err    error
}

// fragmentMsg carries one reply fragment.
type fragmentMsg struct {
	turnID   string
	stream   inference.Stream
	fragment string
}

// streamEndMsg reports that the stream finished. err is nil for a complete
// reply.
type streamEndMsg struct {
	turnID string
	stream inference.Stream
	err    error
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// commandDoneMsg carries the output of a deferred slash command.
type commandDoneMsg struct {
	command string
	output  string
	err     error
}
