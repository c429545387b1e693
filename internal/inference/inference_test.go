// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package inference_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/inference/inferencetest"
)

func TestDrain_ConcatenatesFragments(t *testing.T) {
	backend := &inferencetest.Backend{Fragments: []string{"Hi", " there", "!"}}
	stream, err := backend.StreamReply(context.Background(), inference.Request{Model: "m"})
	require.NoError(t, err)

	var seen []string
	reply, err := inference.Drain(stream, func(fragment, reply string) {
		seen = append(seen, reply)
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)
	assert.Equal(t, []string{"Hi", "Hi there", "Hi there!"}, seen)
	assert.True(t, stream.(*inferencetest.Stream).Closed)
}

func TestDrain_KeepsPartialOnFailure(t *testing.T) {
	backend := &inferencetest.Backend{
		Fragments: []string{"Hi", " there", "!"},
		FailAfter: 2,
		FailErr:   errors.New("connection reset"),
	}
	stream, err := backend.StreamReply(context.Background(), inference.Request{})
	require.NoError(t, err)

	reply, err := inference.Drain(stream, nil)
	assert.Equal(t, "Hi there", reply)
	assert.True(t, errors.Is(err, inference.ErrStreamInterrupted))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &inferencetest.Backend{Fragments: []string{"a", "b"}}
	stream, err := backend.StreamReply(ctx, inference.Request{})
	require.NoError(t, err)

	reply, err := inference.Drain(stream, func(string, string) { cancel() })
	assert.Equal(t, "a", reply)
	assert.True(t, errors.Is(err, inference.ErrStreamInterrupted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "Reply cancelled.", inference.Describe(err))
}

func TestErrorKinds(t *testing.T) {
	unavailable := fmt.Errorf("open: %w", inference.Unavailable("ollama", errors.New("dial tcp: refused")))
	notFound := inference.ModelNotFound("llama9", nil)

	assert.True(t, errors.Is(unavailable, inference.ErrBackendUnavailable))
	assert.False(t, errors.Is(unavailable, inference.ErrModelNotFound))
	assert.True(t, errors.Is(notFound, inference.ErrModelNotFound))
	assert.Equal(t, `model not found: "llama9"`, notFound.Error())

	// Already-interrupted errors are not wrapped twice
	interrupted := inference.Interrupted(errors.New("eof"))
	assert.Same(t, interrupted, inference.Interrupted(interrupted))

	var typed *inference.Error
	require.True(t, errors.As(unavailable, &typed))
	assert.Equal(t, inference.KindBackendUnavailable, typed.Kind)
}
