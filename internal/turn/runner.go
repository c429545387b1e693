// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/ingest"
	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/session"
)

// ErrEmptyInput is returned when a text turn has nothing to send.
var ErrEmptyInput = errors.New("nothing to send")

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes turns. It holds no state of its own beyond its
// collaborators, so one Runner serves a whole run.
type Runner struct {
	sessions  *session.Manager
	backend   inference.Backend
	extractor ingest.Extractor
	log       *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(sessions *session.Manager, backend inference.Backend, extractor ingest.Extractor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		sessions:  sessions,
		backend:   backend,
		extractor: extractor,
		log:       logger,
	}
}

// Sessions returns the session the runner works on.
func (r *Runner) Sessions() *session.Manager {
	return r.sessions
}

// =============================================================================
// TEXT TURNS
// =============================================================================

// Pending is a text turn between sending and committing.
type Pending struct {
	runner *Runner

	// Conversation receives the reply even if the active selection moves
	Conversation string

	// Request is what was (or will be) sent to the backend
	Request inference.Request

	committed bool
}

// Result describes a finished text turn.
type Result struct {
	Conversation string
	Reply        string

	// Committed is true when an assistant message was appended
	Committed bool

	// Err is the inference failure, if any; Reply holds the partial text
	Err error
}

// Begin appends text as a user message to the active conversation and
// prepares the backend request carrying the full history. Blank input is
// rejected with ErrEmptyInput.
func (r *Runner) Begin(text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	conv := r.sessions.Active()
	if err := r.sessions.AppendMessage(conv, model.RoleUser, text); err != nil {
		return nil, err
	}

	msgs, err := r.sessions.Messages(conv)
	if err != nil {
		return nil, err
	}
	params := r.sessions.Params()

	return &Pending{
		runner:       r,
		Conversation: conv,
		Request: inference.Request{
			Model:       params.Model,
			Messages:    msgs,
			Temperature: params.Temperature,
			MaxTokens:   params.MaxTokens,
		},
	}, nil
}

// Open starts the backend stream for the pending turn.
func (p *Pending) Open(ctx context.Context) (inference.Stream, error) {
	return p.runner.backend.StreamReply(ctx, p.Request)
}

// Commit finishes the turn. Non-empty reply text, partial or not, is
// appended as an assistant message; then the conversation is persisted
// either way, so the user message is never lost. streamErr is recorded in
// the result and logged, not returned. The returned error reports a failed
// save. Commit is a no-op after the first call.
func (p *Pending) Commit(reply string, streamErr error) (Result, error) {
	res := Result{Conversation: p.Conversation, Reply: reply, Err: streamErr}
	if p.committed {
		return res, nil
	}
	p.committed = true

	log := p.runner.log.With(
		zap.String("conversation", p.Conversation),
		zap.String("model", p.Request.Model))

	if streamErr != nil {
		log.Warn("reply incomplete", zap.Error(streamErr), zap.Int("partial_bytes", len(reply)))
	}

	if reply != "" {
		if err := p.runner.sessions.AppendMessage(p.Conversation, model.RoleAssistant, reply); err != nil {
			// The conversation was deleted mid-turn; nothing to attach to
			log.Warn("dropping reply", zap.Error(err))
		} else {
			res.Committed = true
		}
	}

	if err := p.runner.sessions.Persist(); err != nil {
		return res, fmt.Errorf("failed to persist turn: %w", err)
	}
	log.Debug("turn committed", zap.Bool("reply_committed", res.Committed), zap.Int("reply_bytes", len(reply)))
	return res, nil
}

// SendText runs a complete text turn: append, stream with onFragment after
// every fragment, commit, persist. Inference failures are reported in
// Result.Err; the returned error is for input and persistence failures.
func (r *Runner) SendText(ctx context.Context, text string, onFragment inference.FragmentFunc) (Result, error) {
	pending, err := r.Begin(text)
	if err != nil {
		return Result{}, err
	}

	stream, err := pending.Open(ctx)
	if err != nil {
		return pending.Commit("", err)
	}

	reply, streamErr := inference.Drain(stream, onFragment)
	return pending.Commit(reply, streamErr)
}

// =============================================================================
// FILE TURNS
// =============================================================================

// File is an uploaded file.
type File struct {
	Name string
	Data []byte
}

// UploadResult describes a finished file turn.
type UploadResult struct {
	// Ack is shown to the user whether or not extraction worked
	Ack string

	// Appended is true when file text was added to the conversation
	Appended bool

	// Err is the extraction failure, if any
	Err error
}

// Upload extracts text from f and, when any text results, appends it as a
// context block to the active conversation and persists. It never calls the
// backend. Extraction failures are reported in UploadResult.Err.
func (r *Runner) Upload(f File) (UploadResult, error) {
	name := filepath.Base(f.Name)
	res := UploadResult{Ack: "Received file " + name}

	conv := r.sessions.Active()
	log := r.log.With(zap.String("conversation", conv), zap.String("file", name))

	text, err := r.extractor.Extract(name, f.Data)
	if err != nil {
		log.Info("upload not ingested", zap.Error(err))
		res.Err = err
		return res, nil
	}
	if strings.TrimSpace(text) == "" {
		log.Info("upload produced no text")
		return res, nil
	}

	if err := r.sessions.AppendMessage(conv, model.RoleUser, ingest.ContextMessage(name, text)); err != nil {
		return res, err
	}
	res.Appended = true

	if err := r.sessions.Persist(); err != nil {
		return res, fmt.Errorf("failed to persist upload: %w", err)
	}
	log.Debug("upload ingested", zap.Int("text_bytes", len(text)), zap.Stringer("kind", ingest.KindFor(name)))
	return res, nil
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is one input event. Text may be typed or transcribed speech; the
// two are indistinguishable here.
type Event struct {
	Text string
	File *File
}

// Outcome is the result of handling an Event.
type Outcome struct {
	Text   *Result
	Upload *UploadResult
}

// Handle runs the text part of ev, then the file part. Either may be
// absent. A persistence failure in the text part does not prevent the
// file part.
func (r *Runner) Handle(ctx context.Context, ev Event, onFragment inference.FragmentFunc) (Outcome, error) {
	var out Outcome
	var errs []error

	if strings.TrimSpace(ev.Text) != "" {
		res, err := r.SendText(ctx, ev.Text, onFragment)
		out.Text = &res
		if err != nil {
			errs = append(errs, err)
		}
	}

	if ev.File != nil {
		res, err := r.Upload(*ev.File)
		out.Upload = &res
		if err != nil {
			errs = append(errs, err)
		}
	}

	return out, errors.Join(errs...)
}
