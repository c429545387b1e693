// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/storage"
)

// memStore keeps saves in memory and counts them.
type memStore struct {
	lib     *model.Library
	saves   int
	saveErr error
}

func (s *memStore) Load() (*model.Library, error) {
	if s.lib == nil {
		return model.DefaultLibrary(), nil
	}
	return s.lib.Clone(), nil
}

func (s *memStore) Save(lib *model.Library) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.lib = lib.Clone()
	return nil
}

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	return NewManager(store, DefaultParams(), zaptest.NewLogger(t))
}

// checkInvariants asserts the state every operation must leave behind.
func checkInvariants(t *testing.T, m *Manager) {
	t.Helper()
	names := m.Names()
	require.NotEmpty(t, names, "library must never be empty")
	require.Contains(t, names, m.Active(), "active must be a library key")
	for _, name := range names {
		msgs, err := m.Messages(name)
		require.NoError(t, err)
		require.NotEmpty(t, msgs, "conversation %q has no messages", name)
	}
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestCreateConversation_SeededActivePersisted(t *testing.T) {
	store := storage.NewChatStore(filepath.Join(t.TempDir(), "chats.json"))
	m := newTestManager(t, store)

	name, err := m.CreateConversation()
	require.NoError(t, err)
	assert.Equal(t, "Chat 2", name)
	assert.Equal(t, name, m.Active())
	checkInvariants(t, m)

	lib, err := store.Load()
	require.NoError(t, err)
	msgs, ok := lib.Messages(name)
	require.True(t, ok)
	assert.Equal(t, []model.Message{model.SeedMessage()}, msgs)
}

func TestCreateConversation_FillsGaps(t *testing.T) {
	lib := model.NewLibrary()
	lib.Set("Chat 1", []model.Message{model.SeedMessage()})
	lib.Set("Chat 3", []model.Message{model.SeedMessage()})
	m := newTestManager(t, &memStore{lib: lib})

	name, err := m.CreateConversation()
	require.NoError(t, err)
	assert.Equal(t, "Chat 2", name)
	assert.Equal(t, []string{"Chat 1", "Chat 3", "Chat 2"}, m.Names())
}

func TestCreateConversation_SaveFailureKeepsState(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	m := newTestManager(t, store)

	name, err := m.CreateConversation()
	require.Error(t, err)
	assert.Equal(t, name, m.Active())
	checkInvariants(t, m)
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestDeleteConversation_LastRecreatesDefault(t *testing.T) {
	store := &memStore{}
	m := newTestManager(t, store)
	require.NoError(t, m.AppendMessage("Chat 1", model.RoleUser, "hello"))

	require.NoError(t, m.DeleteConversation("Chat 1"))

	assert.Equal(t, []string{model.DefaultConversationName}, m.Names())
	assert.Equal(t, []model.Message{model.SeedMessage()}, m.ActiveMessages())
	assert.Equal(t, 1, store.saves)
	checkInvariants(t, m)
}

func TestDeleteConversation_ActivePicksNeighbour(t *testing.T) {
	m := newTestManager(t, &memStore{})
	_, _ = m.CreateConversation() // Chat 2
	_, _ = m.CreateConversation() // Chat 3

	require.NoError(t, m.Select("Chat 2"))
	require.NoError(t, m.DeleteConversation("Chat 2"))
	assert.Equal(t, "Chat 3", m.Active(), "next conversation takes over")

	require.NoError(t, m.DeleteConversation("Chat 3"))
	assert.Equal(t, "Chat 1", m.Active(), "previous conversation takes over at the end")
	checkInvariants(t, m)
}

func TestDeleteConversation_InactiveKeepsActive(t *testing.T) {
	m := newTestManager(t, &memStore{})
	_, _ = m.CreateConversation()

	require.NoError(t, m.DeleteConversation("Chat 1"))
	assert.Equal(t, "Chat 2", m.Active())
}

func TestDeleteConversation_Unknown(t *testing.T) {
	store := &memStore{}
	m := newTestManager(t, store)

	err := m.DeleteConversation("nope")
	assert.True(t, errors.Is(err, ErrConversationNotFound))
	assert.Zero(t, store.saves)
}

// =============================================================================
// RENAME TESTS
// =============================================================================

func TestRenameConversation_PreservesMessages(t *testing.T) {
	store := &memStore{}
	m := newTestManager(t, store)
	_, _ = m.CreateConversation()
	require.NoError(t, m.Select("Chat 1"))
	require.NoError(t, m.AppendMessage("Chat 1", model.RoleUser, "one"))
	require.NoError(t, m.AppendMessage("Chat 1", model.RoleAssistant, "two"))
	before := m.ActiveMessages()

	require.NoError(t, m.RenameConversation("Chat 1", "  Planning  "))

	assert.Equal(t, "Planning", m.Active())
	assert.Equal(t, []string{"Planning", "Chat 2"}, m.Names())
	after, err := m.Messages("Planning")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	checkInvariants(t, m)
}

func TestRenameConversation_NoOps(t *testing.T) {
	store := &memStore{}
	m := newTestManager(t, store)

	require.NoError(t, m.RenameConversation("Chat 1", ""))
	require.NoError(t, m.RenameConversation("Chat 1", "   "))
	require.NoError(t, m.RenameConversation("Chat 1", m.Active()))

	assert.Equal(t, []string{"Chat 1"}, m.Names())
	assert.Zero(t, store.saves, "no-op renames must not write")
}

func TestRenameConversation_CollisionRejected(t *testing.T) {
	store := &memStore{}
	m := newTestManager(t, store)
	_, _ = m.CreateConversation()
	require.NoError(t, m.AppendMessage("Chat 2", model.RoleUser, "keep me"))
	saves := store.saves

	err := m.RenameConversation("Chat 1", "Chat 2")
	require.True(t, errors.Is(err, ErrNameTaken))

	msgs, _ := m.Messages("Chat 2")
	assert.Len(t, msgs, 2, "target conversation must survive")
	assert.Equal(t, []string{"Chat 1", "Chat 2"}, m.Names())
	assert.Equal(t, saves, store.saves)
}

// =============================================================================
// APPEND AND PARAMS TESTS
// =============================================================================

func TestAppendMessage_DoesNotPersist(t *testing.T) {
	store := &memStore{}
	m := newTestManager(t, store)

	require.NoError(t, m.AppendMessage("Chat 1", model.RoleUser, "hello"))
	assert.Zero(t, store.saves)
	assert.Len(t, m.ActiveMessages(), 2)

	assert.True(t, errors.Is(m.AppendMessage("missing", model.RoleUser, "x"), ErrConversationNotFound))
	assert.True(t, errors.Is(m.AppendMessage("Chat 1", model.Role("tool"), "x"), ErrInvalidRole))
}

func TestSelectOffsetWraps(t *testing.T) {
	m := newTestManager(t, &memStore{})
	_, _ = m.CreateConversation()
	_, _ = m.CreateConversation()

	assert.Equal(t, "Chat 1", m.SelectOffset(1))
	assert.Equal(t, "Chat 3", m.SelectOffset(-1))
}

func TestParamSetters(t *testing.T) {
	m := newTestManager(t, &memStore{})

	assert.Equal(t, DefaultParams(), m.Params())

	require.NoError(t, m.SetTemperature(0))
	require.NoError(t, m.SetTemperature(1.5))
	assert.True(t, errors.Is(m.SetTemperature(1.6), ErrOutOfRange))
	assert.True(t, errors.Is(m.SetTemperature(-0.1), ErrOutOfRange))

	require.NoError(t, m.SetMaxTokens(64))
	require.NoError(t, m.SetMaxTokens(4000))
	assert.True(t, errors.Is(m.SetMaxTokens(63), ErrOutOfRange))
	assert.True(t, errors.Is(m.SetMaxTokens(4001), ErrOutOfRange))

	require.NoError(t, m.SetModel("phi3:mini"))
	assert.True(t, errors.Is(m.SetModel(" "), ErrOutOfRange))

	assert.Equal(t, Params{Model: "phi3:mini", Temperature: 1.5, MaxTokens: 4000}, m.Params())
}

func TestNewManager_InvalidParamsFallBack(t *testing.T) {
	m := NewManager(&memStore{}, Params{Model: "x", Temperature: 9, MaxTokens: 1}, nil)
	assert.Equal(t, DefaultParams(), m.Params())
}
