// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the roles a conversation may hold.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns the capitalised role ("User", "Assistant") used in
// transcripts and message headers.
func (r Role) DisplayName() string {
	// Casers carry state, so each call gets its own
	return cases.Title(language.English).String(string(r))
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// SeedGreeting is the assistant message every new conversation starts with.
const SeedGreeting = "How can I help you?"

// Message is one role-tagged entry of a conversation. Only role and content
// are persisted and sent to backends.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SeedMessage returns the greeting a fresh conversation is seeded with.
func SeedMessage() Message {
	return NewAssistantMessage(SeedGreeting)
}
