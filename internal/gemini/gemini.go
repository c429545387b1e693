// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements an inference.Backend on the Google GenAI SDK.
//
// The SDK exposes streaming as a push iterator; the backend converts it to
// the pull-style inference.Stream with iter.Pull2. The first response is
// pulled before StreamReply returns, so failures to establish the call
// surface as ErrBackendUnavailable or ErrModelNotFound rather than as a
// broken stream.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/model"
)

// =============================================================================
// BACKEND
// =============================================================================

// generateStream matches genai's Models.GenerateContentStream.
type generateStream func(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

// Backend streams replies from the Gemini API.
type Backend struct {
	generate generateStream
	log      *zap.Logger
}

// New creates a Gemini backend authenticated with apiKey.
func New(ctx context.Context, apiKey string, logger *zap.Logger) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newBackend(client.Models.GenerateContentStream, logger), nil
}

func newBackend(generate generateStream, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{generate: generate, log: logger}
}

// StreamReply implements inference.Backend.
func (b *Backend) StreamReply(ctx context.Context, req inference.Request) (inference.Stream, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	next, stop := iter.Pull2(b.generate(ctx, req.Model, contents, config))
	s := &replyStream{next: next, stop: stop}

	// Pull once so connection and model errors are reported here
	first, err := s.pull()
	if err != nil && !errors.Is(err, io.EOF) {
		stop()
		return nil, classify(req.Model, err)
	}
	s.pending, s.pendingErr = first, err

	b.log.Debug("gemini stream opened",
		zap.String("model", req.Model),
		zap.Int("messages", len(contents)))
	return s, nil
}

// classify maps SDK failures onto the inference error kinds.
func classify(modelID string, err error) error {
	if errors.Is(err, context.Canceled) {
		return inference.Interrupted(err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	if code == http.StatusNotFound {
		return inference.ModelNotFound(modelID, err)
	}
	return inference.Unavailable("gemini", err)
}

// =============================================================================
// STREAM
// =============================================================================

// replyStream is a pull iterator over the SDK's response sequence.
type replyStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	pending    string
	pendingErr error
	primed     bool
}

// pull returns the text of the next response that carries any.
func (s *replyStream) pull() (string, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
}

// Next implements inference.Stream.
func (s *replyStream) Next() (string, error) {
	if !s.primed {
		s.primed = true
		if s.pendingErr != nil {
			return "", s.pendingErr
		}
		return s.pending, nil
	}

	text, err := s.pull()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", inference.Interrupted(err)
	}
	return text, err
}

// Close implements inference.Stream. stop is idempotent.
func (s *replyStream) Close() error {
	s.stop()
	return nil
}
