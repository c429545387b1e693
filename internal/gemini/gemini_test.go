// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/model"
)

// scripted yields one response per text, then err if set.
type scripted struct {
	texts []string
	err   error

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
}

func (s *scripted) generate(ctx context.Context, modelID string, contents []*genai.Content,
	config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	s.gotModel, s.gotContents, s.gotConfig = modelID, contents, config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, text := range s.texts {
			resp := &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
			}
			if !yield(resp, nil) {
				return
			}
		}
		if s.err != nil {
			yield(nil, s.err)
		}
	}
}

// genai starts the opencensus view worker from init.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var request = inference.Request{
	Model:       "gemini-2.0-flash",
	Messages:    []model.Message{model.SeedMessage(), model.NewUserMessage("hello")},
	Temperature: 0.5,
	MaxTokens:   512,
}

func TestBackend_StreamReply(t *testing.T) {
	fake := &scripted{texts: []string{"Hi", "", " there", "!"}}
	backend := newBackend(fake.generate, nil)

	stream, err := backend.StreamReply(context.Background(), request)
	require.NoError(t, err)

	reply, err := inference.Drain(stream, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)

	assert.Equal(t, "gemini-2.0-flash", fake.gotModel)
	require.Len(t, fake.gotContents, 2)
	assert.Equal(t, "model", string(fake.gotContents[0].Role))
	assert.Equal(t, "user", string(fake.gotContents[1].Role))
	assert.Equal(t, "hello", fake.gotContents[1].Parts[0].Text)
	require.NotNil(t, fake.gotConfig.Temperature)
	assert.InDelta(t, 0.5, *fake.gotConfig.Temperature, 0.0001)
	assert.EqualValues(t, 512, fake.gotConfig.MaxOutputTokens)
}

func TestBackend_StreamReplyMapsRoles(t *testing.T) {
	history := []model.Message{
		model.SeedMessage(),
		model.NewUserMessage("first"),
		model.NewAssistantMessage("answer"),
		model.NewUserMessage("second"),
	}
	fake := &scripted{texts: []string{"ok"}}
	stream, err := newBackend(fake.generate, nil).StreamReply(context.Background(),
		inference.Request{Model: "gemini-2.0-flash", Messages: history})
	require.NoError(t, err)
	defer stream.Close()

	var roles []genai.Role
	for _, c := range fake.gotContents {
		roles = append(roles, genai.Role(c.Role))
	}
	assert.Equal(t, []genai.Role{genai.RoleModel, genai.RoleUser, genai.RoleModel, genai.RoleUser}, roles)
	assert.Equal(t, "answer", fake.gotContents[2].Parts[0].Text)
}

func TestBackend_EstablishmentErrors(t *testing.T) {
	notFound := &scripted{err: genai.APIError{Code: 404, Message: "models/nope is not found"}}
	_, err := newBackend(notFound.generate, nil).StreamReply(context.Background(), request)
	assert.True(t, errors.Is(err, inference.ErrModelNotFound), "got %v", err)

	denied := &scripted{err: genai.APIError{Code: 403, Message: "API key not valid"}}
	_, err = newBackend(denied.generate, nil).StreamReply(context.Background(), request)
	assert.True(t, errors.Is(err, inference.ErrBackendUnavailable), "got %v", err)

	offline := &scripted{err: errors.New("dial tcp: no route to host")}
	_, err = newBackend(offline.generate, nil).StreamReply(context.Background(), request)
	assert.True(t, errors.Is(err, inference.ErrBackendUnavailable), "got %v", err)
}

func TestBackend_MidStreamFailureKeepsPartial(t *testing.T) {
	fake := &scripted{texts: []string{"Hi", " there"}, err: errors.New("stream reset")}
	stream, err := newBackend(fake.generate, nil).StreamReply(context.Background(), request)
	require.NoError(t, err)

	reply, err := inference.Drain(stream, nil)
	assert.Equal(t, "Hi there", reply)
	assert.True(t, errors.Is(err, inference.ErrStreamInterrupted))
}

func TestBackend_EmptyReply(t *testing.T) {
	fake := &scripted{}
	stream, err := newBackend(fake.generate, nil).StreamReply(context.Background(), request)
	require.NoError(t, err)

	reply, err := inference.Drain(stream, nil)
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), "", nil)
	require.Error(t, err)
}
