// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRoleDisplayName(t *testing.T) {
	if got := RoleUser.DisplayName(); got != "User" {
		t.Errorf("RoleUser.DisplayName() = %q, want %q", got, "User")
	}
	if got := RoleAssistant.DisplayName(); got != "Assistant" {
		t.Errorf("RoleAssistant.DisplayName() = %q, want %q", got, "Assistant")
	}
	if Role("system").Valid() {
		t.Error("system role should not be valid in a conversation")
	}
}

func TestDefaultLibrary(t *testing.T) {
	lib := DefaultLibrary()

	require.Equal(t, []string{DefaultConversationName}, lib.Names())
	msgs, ok := lib.Messages(DefaultConversationName)
	require.True(t, ok)
	require.Equal(t, []Message{SeedMessage()}, msgs)
}

func TestLibrary_RenameKeepsPosition(t *testing.T) {
	lib := NewLibrary()
	lib.Set("a", []Message{SeedMessage()})
	lib.Set("b", []Message{SeedMessage(), NewUserMessage("hi")})
	lib.Set("c", []Message{SeedMessage()})

	require.True(t, lib.Rename("b", "renamed"))
	require.Equal(t, []string{"a", "renamed", "c"}, lib.Names())

	msgs, ok := lib.Messages("renamed")
	require.True(t, ok)
	require.Len(t, msgs, 2)
	require.False(t, lib.Has("b"))

	// Collisions are refused
	require.False(t, lib.Rename("a", "c"))
	require.Equal(t, []string{"a", "renamed", "c"}, lib.Names())
}

func TestLibrary_DeleteReturnsIndex(t *testing.T) {
	lib := NewLibrary()
	lib.Set("a", nil)
	lib.Set("b", nil)

	require.Equal(t, 1, lib.Delete("b"))
	require.Equal(t, -1, lib.Delete("b"))
	require.Equal(t, 1, lib.Len())
}

func TestLibrary_MessagesReturnsCopy(t *testing.T) {
	lib := DefaultLibrary()
	msgs, _ := lib.Messages(DefaultConversationName)
	msgs[0].Content = "mutated"

	again, _ := lib.Messages(DefaultConversationName)
	require.Equal(t, SeedGreeting, again[0].Content)
}

func TestLibrary_JSONKeepsOrder(t *testing.T) {
	lib := NewLibrary()
	lib.Set("zeta", []Message{SeedMessage()})
	lib.Set("alpha", []Message{SeedMessage(), NewUserMessage("<file> & stuff")})
	lib.Set("Chat 1", []Message{SeedMessage()})

	data, err := lib.MarshalJSON()
	require.NoError(t, err)
	require.True(t, strings.Index(string(data), "zeta") < strings.Index(string(data), "alpha"))
	require.Contains(t, string(data), "<file> & stuff")

	decoded := NewLibrary()
	require.NoError(t, json.Unmarshal(data, decoded))
	if diff := cmp.Diff(lib, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLibrary_UnmarshalRejectsBadShapes(t *testing.T) {
	tests := map[string]string{
		"array":     `[{"role":"user","content":"x"}]`,
		"duplicate": `{"a":[],"a":[]}`,
		"bad value": `{"a":"not a list"}`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			lib := NewLibrary()
			require.Error(t, json.Unmarshal([]byte(input), lib))
		})
	}
}

func TestCatalog(t *testing.T) {
	cat := Catalog(DefaultModelIDs)
	require.Len(t, cat, len(DefaultModelIDs))
	require.False(t, cat[0].Cloud)
	require.Equal(t, "minimax-m2:cloud (cloud)", cat[4].Label())
	require.True(t, cat[6].Cloud)
}
