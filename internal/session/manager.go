// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned for names the library does not hold.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNameTaken is returned when a rename would collide with another
	// conversation.
	ErrNameTaken = errors.New("conversation name already in use")

	// ErrInvalidRole is returned when appending a message with an unknown role.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrOutOfRange is returned for generation parameters outside their bounds.
	ErrOutOfRange = errors.New("parameter out of range")
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Store is the persistence the Manager writes through.
type Store interface {
	Load() (*model.Library, error)
	Save(lib *model.Library) error
}

// Manager holds the conversation library, the active selector and the
// generation parameters.
//
// It is not safe for concurrent use; front-ends drive it from a single loop.
type Manager struct {
	store  Store
	lib    *model.Library
	active string
	params Params
	log    *zap.Logger
}

// NewManager loads the library from store and makes its first conversation
// active. A load error is logged and recovered from, since the store always
// hands back usable state.
func NewManager(store Store, params Params, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	lib, err := store.Load()
	if err != nil {
		logger.Warn("chat store unusable, starting from default conversation", zap.Error(err))
	}
	if lib == nil || lib.Len() == 0 {
		lib = model.DefaultLibrary()
	}

	if params.Validate() != nil {
		logger.Warn("invalid generation parameters, using defaults", zap.Any("params", params))
		params = DefaultParams()
	}

	return &Manager{
		store:  store,
		lib:    lib,
		active: lib.Names()[0],
		params: params,
		log:    logger,
	}
}

// Active returns the name of the active conversation.
func (m *Manager) Active() string {
	return m.active
}

// Select makes name the active conversation.
func (m *Manager) Select(name string) error {
	if !m.lib.Has(name) {
		return fmt.Errorf("%w: %q", ErrConversationNotFound, name)
	}
	m.active = name
	return nil
}

// SelectOffset moves the active selector delta positions through the
// conversation order, wrapping at both ends.
func (m *Manager) SelectOffset(delta int) string {
	names := m.lib.Names()
	idx := m.lib.Index(m.active)
	n := len(names)
	m.active = names[((idx+delta)%n+n)%n]
	return m.active
}

// Names returns the conversation names in display order.
func (m *Manager) Names() []string {
	return m.lib.Names()
}

// Messages returns a copy of the named conversation.
func (m *Manager) Messages(name string) ([]model.Message, error) {
	msgs, ok := m.lib.Messages(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConversationNotFound, name)
	}
	return msgs, nil
}

// ActiveMessages returns a copy of the active conversation.
func (m *Manager) ActiveMessages() []model.Message {
	msgs, _ := m.lib.Messages(m.active)
	return msgs
}

// Library returns a deep copy of all conversations.
func (m *Manager) Library() *model.Library {
	return m.lib.Clone()
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// CreateConversation adds a seeded conversation named "Chat N", with N the
// smallest positive number not in use, makes it active and persists.
// The conversation exists even when the returned error reports a failed save.
func (m *Manager) CreateConversation() (string, error) {
	name := m.nextName()
	m.lib.Set(name, []model.Message{model.SeedMessage()})
	m.active = name

	m.log.Debug("conversation created", zap.String("conversation", name))
	return name, m.Persist()
}

// DeleteConversation removes name. When it was active, the conversation that
// took its place (or the one before it) becomes active. Deleting the last
// conversation recreates the default one. Persists.
func (m *Manager) DeleteConversation(name string) error {
	idx := m.lib.Delete(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrConversationNotFound, name)
	}

	if m.lib.Len() == 0 {
		m.lib = model.DefaultLibrary()
		m.active = model.DefaultConversationName
	} else if m.active == name {
		names := m.lib.Names()
		if idx >= len(names) {
			idx = len(names) - 1
		}
		m.active = names[idx]
	}

	m.log.Debug("conversation deleted",
		zap.String("conversation", name),
		zap.String("active", m.active))
	return m.Persist()
}

// RenameConversation re-keys oldName to the trimmed newName, keeping its
// messages and its position. An empty newName, or one equal to oldName, is
// a no-op. A newName already used by another conversation is rejected with
// ErrNameTaken and nothing changes. Persists on success.
func (m *Manager) RenameConversation(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == oldName {
		return nil
	}
	if !m.lib.Has(oldName) {
		return fmt.Errorf("%w: %q", ErrConversationNotFound, oldName)
	}
	if m.lib.Has(newName) {
		return fmt.Errorf("%w: %q", ErrNameTaken, newName)
	}

	m.lib.Rename(oldName, newName)
	if m.active == oldName {
		m.active = newName
	}

	m.log.Debug("conversation renamed",
		zap.String("from", oldName),
		zap.String("to", newName))
	return m.Persist()
}

// AppendMessage adds a message to the end of the named conversation. It does
// not persist.
func (m *Manager) AppendMessage(conversation string, role model.Role, content string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if !m.lib.Append(conversation, model.Message{Role: role, Content: content}) {
		return fmt.Errorf("%w: %q", ErrConversationNotFound, conversation)
	}
	return nil
}

// Persist writes the whole library to the store. A failed save leaves the
// in-memory state untouched.
func (m *Manager) Persist() error {
	if err := m.store.Save(m.lib); err != nil {
		m.log.Error("failed to persist conversations", zap.Error(err))
		return err
	}
	return nil
}

// nextName returns "Chat N" for the smallest unused N.
func (m *Manager) nextName() string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("Chat %d", n)
		if !m.lib.Has(name) {
			return name
		}
	}
}

// =============================================================================
// GENERATION PARAMETERS
// =============================================================================

// Params returns the current generation parameters.
func (m *Manager) Params() Params {
	return m.params
}

// SetModel selects the backend model. Any non-empty identifier is accepted;
// the catalog is a suggestion, not a constraint.
func (m *Manager) SetModel(id string) error {
	id = strings.TrimSpace(id)
	if err := validateModel(id); err != nil {
		return err
	}
	m.params.Model = id
	return nil
}

// SetTemperature sets the sampling temperature, which must lie in [0, 1.5].
func (m *Manager) SetTemperature(t float64) error {
	if err := validateTemperature(t); err != nil {
		return err
	}
	m.params.Temperature = t
	return nil
}

// SetMaxTokens sets the reply length limit, which must lie in [64, 4000].
func (m *Manager) SetMaxTokens(n int) error {
	if err := validateMaxTokens(n); err != nil {
		return err
	}
	m.params.MaxTokens = n
	return nil
}
