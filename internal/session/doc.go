// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the in-memory conversation state of one ollachat run.
//
// A Manager holds the conversation library, the name of the active
// conversation and the generation parameters. Every front-end gets the same
// Manager passed to it explicitly; there is no package-level state.
//
// # Invariants
//
// After every exported method returns:
//   - the library holds at least one conversation
//   - every conversation holds at least one message
//   - the active name is a key of the library
//
// # Persistence
//
// CreateConversation, DeleteConversation and RenameConversation write the
// store before returning. AppendMessage does not; callers persist once a
// full turn is complete.
//
// # Usage
//
//	mgr := session.NewManager(store, session.DefaultParams(), logger)
//	name, err := mgr.CreateConversation()
//	_ = mgr.AppendMessage(name, model.RoleUser, "hello")
//	err = mgr.Persist()
package session
