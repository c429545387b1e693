// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// =============================================================================
// LIBRARY TYPE
// =============================================================================

// DefaultConversationName is the name of the conversation that exists when
// nothing else does.
const DefaultConversationName = "Chat 1"

// Library is the full set of named conversations. Names are unique and keep
// the order they were inserted in; renaming keeps a conversation's position.
//
// A Library is not safe for concurrent use.
type Library struct {
	order []string
	convs map[string][]Message
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{convs: make(map[string][]Message)}
}

// DefaultLibrary creates a library holding only the seeded default
// conversation.
func DefaultLibrary() *Library {
	lib := NewLibrary()
	lib.Set(DefaultConversationName, []Message{SeedMessage()})
	return lib
}

// Len returns the number of conversations.
func (l *Library) Len() int {
	return len(l.order)
}

// Names returns the conversation names in order.
func (l *Library) Names() []string {
	return slices.Clone(l.order)
}

// Has reports whether a conversation called name exists.
func (l *Library) Has(name string) bool {
	_, ok := l.convs[name]
	return ok
}

// Index returns the position of name, or -1.
func (l *Library) Index(name string) int {
	return slices.Index(l.order, name)
}

// Messages returns a copy of the named conversation's messages.
func (l *Library) Messages(name string) ([]Message, bool) {
	msgs, ok := l.convs[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(msgs), true
}

// Set stores msgs under name. A new name is added at the end; an existing
// name keeps its position.
func (l *Library) Set(name string, msgs []Message) {
	if _, ok := l.convs[name]; !ok {
		l.order = append(l.order, name)
	}
	l.convs[name] = slices.Clone(msgs)
}

// Append adds msg to the end of the named conversation. It returns false if
// the conversation does not exist.
func (l *Library) Append(name string, msg Message) bool {
	msgs, ok := l.convs[name]
	if !ok {
		return false
	}
	l.convs[name] = append(msgs, msg)
	return true
}

// Delete removes the named conversation and returns the position it held,
// or -1 if it did not exist.
func (l *Library) Delete(name string) int {
	idx := l.Index(name)
	if idx < 0 {
		return -1
	}
	l.order = slices.Delete(l.order, idx, idx+1)
	delete(l.convs, name)
	return idx
}

// Rename re-keys a conversation in place. It returns false when oldName is
// missing or newName is already used by another conversation.
func (l *Library) Rename(oldName, newName string) bool {
	idx := l.Index(oldName)
	if idx < 0 {
		return false
	}
	if oldName == newName {
		return true
	}
	if l.Has(newName) {
		return false
	}
	l.order[idx] = newName
	l.convs[newName] = l.convs[oldName]
	delete(l.convs, oldName)
	return true
}

// Clone returns a deep copy of the library.
func (l *Library) Clone() *Library {
	out := NewLibrary()
	for _, name := range l.order {
		out.Set(name, l.convs[name])
	}
	return out
}

// Equal reports whether both libraries hold the same conversations, in the
// same order, with the same messages.
func (l *Library) Equal(other *Library) bool {
	if l == nil || other == nil {
		return l == other
	}
	if !slices.Equal(l.order, other.order) {
		return false
	}
	for _, name := range l.order {
		if !slices.Equal(l.convs[name], other.convs[name]) {
			return false
		}
	}
	return true
}

// =============================================================================
// JSON ENCODING
// =============================================================================

// MarshalJSON encodes the library as a JSON object whose keys appear in
// conversation order.
func (l *Library) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range l.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeRaw(name)
		if err != nil {
			return nil, err
		}
		msgs := l.convs[name]
		if msgs == nil {
			msgs = []Message{}
		}
		val, err := encodeRaw(msgs)
		if err != nil {
			return nil, fmt.Errorf("conversation %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of name to message list, keeping the
// key order of the document.
func (l *Library) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("library: expected object, got %v", tok)
	}

	decoded := NewLibrary()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("library: unexpected key %v", tok)
		}
		if decoded.Has(name) {
			return fmt.Errorf("library: duplicate conversation %q", name)
		}

		var msgs []Message
		if err := dec.Decode(&msgs); err != nil {
			return fmt.Errorf("library: conversation %q: %w", name, err)
		}
		decoded.Set(name, msgs)
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = *decoded
	return nil
}

// encodeRaw marshals v without escaping <, > and &, so uploaded file
// wrappers stay readable in the store.
func encodeRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
