// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/util"
)

// =============================================================================
// CHAT STORE
// =============================================================================

// DefaultFileName is the store file name inside the data directory.
const DefaultFileName = "chats.json"

// ChatStore persists the conversation library to a single file.
type ChatStore struct {
	// Path is the backing file
	// Default: ~/.ollachat/chats.json
	Path string
}

// NewChatStore creates a store backed by path.
func NewChatStore(path string) *ChatStore {
	return &ChatStore{Path: path}
}

// DefaultPath returns ~/.ollachat/chats.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ollachat", DefaultFileName), nil
}

// Load reads the library from disk. The returned library is always usable;
// see the package documentation for the recovery rules.
func (s *ChatStore) Load() (*model.Library, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.DefaultLibrary(), nil
		}
		return model.DefaultLibrary(), corrupt(s.Path, "read failed", err)
	}

	lib := model.NewLibrary()
	if err := json.Unmarshal(data, lib); err != nil {
		return model.DefaultLibrary(), corrupt(s.Path, "decode failed", err)
	}
	if lib.Len() == 0 {
		return model.DefaultLibrary(), corrupt(s.Path, "no conversations", nil)
	}

	for _, name := range lib.Names() {
		msgs, _ := lib.Messages(name)
		for i, msg := range msgs {
			if !msg.Role.Valid() {
				return model.DefaultLibrary(), corrupt(s.Path,
					fmt.Sprintf("conversation %q message %d has role %q", name, i, msg.Role), nil)
			}
		}
		// RELIABILITY: every conversation holds at least the seed message
		if len(msgs) == 0 {
			lib.Set(name, []model.Message{model.SeedMessage()})
		}
	}

	return lib, nil
}

// Save replaces the backing file with lib.
func (s *ChatStore) Save(lib *model.Library) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lib); err != nil {
		return fmt.Errorf("failed to encode chat store: %w", err)
	}

	// SECURITY: chats may hold uploaded documents, keep them owner-only
	if err := util.AtomicWriteFile(s.Path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to save chat store: %w", err)
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrStoreCorrupt is matched by every error Load returns.
// Use errors.Is(err, ErrStoreCorrupt) to check for this error.
var ErrStoreCorrupt = &StoreError{Message: "chat store corrupt"}

// StoreError describes why a store file could not be used.
type StoreError struct {
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support; all store errors match ErrStoreCorrupt.
func (e *StoreError) Is(target error) bool {
	_, ok := target.(*StoreError)
	return ok
}

func corrupt(path, msg string, cause error) error {
	return &StoreError{Path: path, Message: "chat store corrupt: " + msg, Cause: cause}
}
