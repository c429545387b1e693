// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn coordinates one user action against the session and the
// inference backend, independent of any front-end.
//
// A text turn appends the user message, streams the reply while reporting
// each fragment, appends whatever reply text arrived and persists. A file
// turn extracts text from the upload, appends it wrapped in a context block
// and persists, with no inference call: the model sees the file on the next
// text turn, when the full history is resent.
//
// # Key Types
//
//   - Runner: Executes turns against a session.Manager and inference.Backend
//   - Pending: A text turn whose user message is appended but whose reply
//     is not yet committed; asynchronous UIs drive the stream themselves
//   - Event: One input event, holding text, a file, or both
//
// # Usage
//
//	runner := turn.NewRunner(mgr, backend, ingest.Extractor{}, logger)
//	res, err := runner.SendText(ctx, "hello", func(fragment, reply string) {
//	    render(reply)
//	})
package turn
