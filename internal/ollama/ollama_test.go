// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestBackend starts an Ollama stand-in served by handler.
func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	t.Cleanup(func() {
		client.CloseIdleConnections()
		srv.Close()
	})
	return NewBackend(client, zaptest.NewLogger(t))
}

// writeLines writes NDJSON lines, flushing after each.
func writeLines(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	for _, line := range lines {
		io.WriteString(w, line+"\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

var helloRequest = inference.Request{
	Model: "gemma3:1b",
	Messages: []model.Message{
		model.SeedMessage(),
		model.NewUserMessage("hello"),
	},
	Temperature: 0.7,
	MaxTokens:   256,
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestBackend_StreamReply(t *testing.T) {
	var got ChatRequest
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeLines(w,
			`{"model":"gemma3:1b","message":{"role":"assistant","content":"Hi"},"done":false}`,
			`{"model":"gemma3:1b","message":{"role":"assistant","content":" there"},"done":false}`,
			`{"model":"gemma3:1b","message":{"role":"assistant","content":"!"},"done":false}`,
			`{"model":"gemma3:1b","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","eval_count":3,"eval_duration":1500000000}`,
		)
	})

	stream, err := backend.StreamReply(context.Background(), helloRequest)
	require.NoError(t, err)

	var fragments []string
	reply, err := inference.Drain(stream, func(fragment, _ string) {
		fragments = append(fragments, fragment)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)
	assert.Equal(t, []string{"Hi", " there", "!"}, fragments)

	final, ok := stream.(*replyStream).stream.Final()
	require.True(t, ok, "closing chunk should be kept")
	assert.Equal(t, "stop", final.DoneReason)
	assert.Equal(t, 3, final.CompletionTokens)

	// Full history, role/content only, with generation options
	assert.True(t, got.Stream)
	assert.Equal(t, "gemma3:1b", got.Model)
	assert.Equal(t, []Message{
		{Role: "assistant", Content: model.SeedGreeting},
		{Role: "user", Content: "hello"},
	}, got.Messages)
	require.NotNil(t, got.Options)
	assert.Equal(t, 0.7, got.Options.Temperature)
	assert.Equal(t, 256, got.Options.NumPredict)
}

func TestBackend_ModelNotFound(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"model 'llama9' not found, try pulling it first"}`)
	})

	_, err := backend.StreamReply(context.Background(), inference.Request{Model: "llama9"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, inference.ErrModelNotFound))
	assert.True(t, IsModelNotFound(err))
	assert.Contains(t, err.Error(), "try pulling it first")
}

func TestBackend_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	defer client.CloseIdleConnections()
	backend := NewBackend(client, nil)

	_, err := backend.StreamReply(context.Background(), helloRequest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, inference.ErrBackendUnavailable))
	assert.True(t, IsNotRunning(err))

	err = backend.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, inference.ErrBackendUnavailable))
	assert.Contains(t, err.Error(), "nothing is listening at "+url)
}

func TestBackend_ServerError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"out of memory"}`)
	})

	_, err := backend.StreamReply(context.Background(), helloRequest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, inference.ErrBackendUnavailable))
	assert.Contains(t, err.Error(), "out of memory")
}

func TestBackend_StreamEndsEarly(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeLines(w, `{"message":{"role":"assistant","content":"Hi"},"done":false}`)
	})

	stream, err := backend.StreamReply(context.Background(), helloRequest)
	require.NoError(t, err)

	reply, err := inference.Drain(stream, nil)
	assert.Equal(t, "Hi", reply)
	assert.True(t, errors.Is(err, inference.ErrStreamInterrupted))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestBackend_InBandError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeLines(w,
			`{"message":{"role":"assistant","content":"Hi"},"done":false}`,
			`{"error":"llama runner process has terminated"}`,
		)
	})

	stream, err := backend.StreamReply(context.Background(), helloRequest)
	require.NoError(t, err)

	reply, err := inference.Drain(stream, nil)
	assert.Equal(t, "Hi", reply)
	assert.True(t, errors.Is(err, inference.ErrStreamInterrupted))
	assert.Contains(t, err.Error(), "llama runner process has terminated")
}

func TestOptions_ZeroTemperatureIsSent(t *testing.T) {
	data, err := json.Marshal(Options{Temperature: 0, NumPredict: 64})
	require.NoError(t, err)
	assert.JSONEq(t, `{"temperature":0,"num_predict":64}`, string(data))
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReader_SkipsBlankAndMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		``,
		`{"message":{"content":"a"}}`,
		`not json`,
		`{"message":{"content":"b"},"done":true,"eval_count":2}`,
	}, "\n")
	r := NewStreamReader(strings.NewReader(input))

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", first.Content)

	last, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", last.Content)
	assert.True(t, last.Done)
	assert.Equal(t, 2, last.CompletionTokens)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, r.TokenCount())
}

func TestStreamChunk_TokensPerSecond(t *testing.T) {
	chunk := StreamChunk{CompletionTokens: 100, EvalDuration: 2e9}
	assert.InDelta(t, 50.0, chunk.TokensPerSecond(), 0.001)
	assert.Zero(t, StreamChunk{}.TokensPerSecond())
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestClient_ListModelsAndCheckRunning(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			io.WriteString(w, "Ollama is running")
		case "/api/tags":
			io.WriteString(w, `{"models":[{"name":"gemma3:1b","size":815319791},{"name":"phi3:mini","size":2176178913}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	client := backend.client

	require.NoError(t, client.CheckRunning(context.Background()))
	require.NoError(t, backend.Ping(context.Background()))
	assert.Equal(t, client.BaseURL(), backend.Endpoint())

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gemma3:1b", models[0].Name)
	assert.Equal(t, "777.5 MB", models[0].FormatSize())
	assert.Equal(t, "2.0 GB", models[1].FormatSize())

	names, err := backend.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gemma3:1b", "phi3:mini"}, names)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://example.test:11434/"})
	defer client.CloseIdleConnections()

	assert.Equal(t, "http://example.test:11434", client.BaseURL())
	assert.Equal(t, DefaultConfig().Timeout, client.config.Timeout)

	def := NewClient()
	assert.Equal(t, DefaultBaseURL, def.BaseURL())
}
