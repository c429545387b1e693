// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/inference"
)

// =============================================================================
// INFERENCE BACKEND
// =============================================================================

// Backend exposes a Client as an inference.Backend.
type Backend struct {
	client *Client
	log    *zap.Logger
}

// NewBackend wraps client. A nil logger disables logging.
func NewBackend(client *Client, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{client: client, log: logger}
}

// Endpoint returns the Ollama address requests go to.
func (b *Backend) Endpoint() string {
	return b.client.BaseURL()
}

// Ping checks that the Ollama server answers at its base URL.
func (b *Backend) Ping(ctx context.Context) error {
	err := b.client.CheckRunning(ctx)
	switch {
	case err == nil:
		return nil
	case IsNotRunning(err):
		return inference.Unavailable("ollama", fmt.Errorf("nothing is listening at %s: %w", b.client.BaseURL(), err))
	default:
		return inference.Unavailable("ollama", err)
	}
}

// StreamReply implements inference.Backend. Messages are sent as plain
// role/content pairs, the whole history on every call.
func (b *Backend) StreamReply(ctx context.Context, req inference.Request) (inference.Stream, error) {
	messages := make([]Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, Message{Role: string(msg.Role), Content: msg.Content})
	}

	stream, err := b.client.ChatStream(ctx, ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Options: &Options{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return nil, classify(req.Model, err)
	}

	b.log.Debug("ollama stream opened",
		zap.String("url", b.client.BaseURL()),
		zap.String("model", req.Model),
		zap.Int("messages", len(messages)))
	return &replyStream{stream: stream, log: b.log}, nil
}

// ListModels returns the names of the installed models.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	models, err := b.client.ListModels(ctx)
	if err != nil {
		return nil, inference.Unavailable("ollama", err)
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names, nil
}

// classify maps client failures onto the inference error kinds.
func classify(model string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return inference.Interrupted(err)
	case IsModelNotFound(err):
		return inference.ModelNotFound(model, err)
	default:
		return inference.Unavailable("ollama", err)
	}
}

// replyStream adapts ChatStream to inference.Stream.
type replyStream struct {
	stream *ChatStream
	log    *zap.Logger
}

// Next returns the next non-empty fragment.
func (r *replyStream) Next() (string, error) {
	for {
		chunk, err := r.stream.NextChunk()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", inference.Interrupted(err)
		}
		if chunk.Content != "" {
			return chunk.Content, nil
		}
		if chunk.Done {
			return "", io.EOF
		}
	}
}

// Close implements inference.Stream and logs the closing statistics when
// the reply ran to completion.
func (r *replyStream) Close() error {
	if final, ok := r.stream.Final(); ok {
		r.log.Debug("ollama stream complete",
			zap.String("model", final.Model),
			zap.String("done_reason", final.DoneReason),
			zap.Int("completion_tokens", final.CompletionTokens),
			zap.Float64("tokens_per_sec", final.TokensPerSecond()),
			zap.Duration("ttft", r.stream.TTFT()))
	}
	return r.stream.Close()
}
