// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package inferencetest provides a scripted inference.Backend for tests.
package inferencetest

import (
	"context"
	"io"
	"slices"

	"github.com/jeranaias/ollachat/internal/inference"
)

// Backend replays Fragments for every request and records what it was
// asked.
type Backend struct {
	// Fragments are yielded in order by every stream
	Fragments []string

	// OpenErr, when set, is returned by StreamReply instead of a stream
	OpenErr error

	// FailAfter, when positive, makes the stream fail with FailErr after
	// that many fragments
	FailAfter int
	FailErr   error

	// Requests records every call
	Requests []inference.Request
}

// StreamReply implements inference.Backend.
func (b *Backend) StreamReply(ctx context.Context, req inference.Request) (inference.Stream, error) {
	req.Messages = slices.Clone(req.Messages)
	b.Requests = append(b.Requests, req)
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	return &Stream{ctx: ctx, fragments: slices.Clone(b.Fragments), failAfter: b.FailAfter, failErr: b.FailErr}, nil
}

// Calls returns how many streams were requested.
func (b *Backend) Calls() int {
	return len(b.Requests)
}

// Stream is the scripted stream handed out by Backend.
type Stream struct {
	ctx       context.Context
	fragments []string
	sent      int
	failAfter int
	failErr   error
	Closed    bool
}

// Next implements inference.Stream.
func (s *Stream) Next() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.failAfter > 0 && s.sent == s.failAfter {
		return "", s.failErr
	}
	if s.sent >= len(s.fragments) {
		return "", io.EOF
	}
	s.sent++
	return s.fragments[s.sent-1], nil
}

// Close implements inference.Stream.
func (s *Stream) Close() error {
	s.Closed = true
	return nil
}
