// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package inference defines the boundary between ollachat and a model
// backend.
//
// A Backend takes the full ordered message history plus generation
// parameters and returns a Stream of reply fragments. Backends are
// stateless: the caller resends the whole conversation every turn.
//
// # Key Types
//
//   - Request: Model, messages, temperature and max tokens for one turn
//   - Backend: Anything that can open a reply Stream (Ollama, Gemini)
//   - Stream: Finite, non-restartable pull iterator of text fragments
//   - Error: Typed failure comparable with the Err* sentinels
//
// # Usage
//
//	stream, err := backend.StreamReply(ctx, req)
//	if errors.Is(err, inference.ErrModelNotFound) {
//	    // tell the user to pull the model
//	}
//	reply, err := inference.Drain(stream, func(fragment, reply string) {
//	    render(reply)
//	})
//	// reply holds whatever arrived, even when err is ErrStreamInterrupted
package inference
