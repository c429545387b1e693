// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package inference

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/jeranaias/ollachat/internal/model"
)

// =============================================================================
// BACKEND TYPES
// =============================================================================

// Request is everything a backend needs for one reply.
type Request struct {
	Model       string
	Messages    []model.Message
	Temperature float64
	MaxTokens   int
}

// Backend opens reply streams.
type Backend interface {
	// StreamReply starts generating a reply. It fails with ErrBackendUnavailable
	// or ErrModelNotFound when the call cannot be established. Cancelling ctx
	// ends the stream.
	StreamReply(ctx context.Context, req Request) (Stream, error)
}

// Stream yields reply fragments in order.
type Stream interface {
	// Next blocks until the next fragment is available. It returns io.EOF
	// once the reply is complete and an error wrapping ErrStreamInterrupted
	// if the reply broke off.
	Next() (string, error)

	// Close releases the underlying connection. It is safe to call more
	// than once.
	Close() error
}

// FragmentFunc observes a stream as it is drained. reply is the
// concatenation of every fragment so far, fragment included.
type FragmentFunc func(fragment, reply string)

// Drain pulls fragments from s until it ends, calling onFragment after each
// one, then closes s. The returned text is everything received, which is
// the partial reply when err is non-nil.
func Drain(s Stream, onFragment FragmentFunc) (string, error) {
	defer s.Close()

	// PERFORMANCE: strings.Builder avoids quadratic allocations
	var reply strings.Builder
	for {
		fragment, err := s.Next()
		if errors.Is(err, io.EOF) {
			return reply.String(), nil
		}
		if err != nil {
			return reply.String(), Interrupted(err)
		}
		if fragment == "" {
			continue
		}
		reply.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment, reply.String())
		}
	}
}
