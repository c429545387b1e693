// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for ollachat.
//
// All conversations live in a single human-readable JSON document mapping
// conversation name to its ordered list of {role, content} records. The
// document is rewritten wholesale on every save.
//
// # Key Types
//
//   - ChatStore: Loads and saves a model.Library at a fixed path
//   - StoreError: Error type comparable with errors.Is against ErrStoreCorrupt
//
// # Recovery
//
// Load never leaves the caller without state. A missing file yields the
// default library and a nil error. An unreadable or malformed file yields
// the default library together with an error wrapping ErrStoreCorrupt, which
// callers log and otherwise ignore.
//
// # Usage
//
//	store := storage.NewChatStore(path)
//	lib, err := store.Load()
//	if errors.Is(err, storage.ErrStoreCorrupt) {
//	    logger.Warn("starting fresh", zap.Error(err))
//	}
//	lib.Append(model.DefaultConversationName, model.NewUserMessage("hi"))
//	err = store.Save(lib)
//
// Only one process may hold a store at a time; nothing guards concurrent
// writers.
package storage
