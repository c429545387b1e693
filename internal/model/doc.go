// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types shared by the store, the
// session manager, the inference backends and the front-ends.
//
// # Key Types
//
//   - Role: Message role enumeration (user, assistant)
//   - Message: Single role-tagged message; immutable once appended
//   - Library: Insertion-ordered mapping of conversation name to messages
//   - ModelInfo: Entry in the selectable model catalog
//
// # Usage
//
// Build a library holding the default conversation:
//
//	lib := model.DefaultLibrary()
//	lib.Append(model.DefaultConversationName, model.NewUserMessage("hello"))
//
// Persist it with ordering intact:
//
//	data, err := json.MarshalIndent(lib, "", "  ")
package model
