// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"slices"
	"testing"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/help", true},
		{"/model phi3:mini", true},
		{"  /help", true},
		{"hello", false},
		{"hello /help", false},
		{"", false},
		{"/", true},
		{"//not a command", false},
	}

	for _, tc := range tests {
		got := IsCommand(tc.input)
		if got != tc.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/help", "/help"},
		{"/model phi3", "/model"},
		{"/rename my-chat", "/rename"},
		{"  /help  ", "/help"},
		{"hello", ""},
		{"/", "/"},
	}

	for _, tc := range tests {
		got := ExtractCommandName(tc.input)
		if got != tc.want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/help", []string{"/help"}},
		{"/model phi3", []string{"/model", "phi3"}},
		{`/rename "my chat"`, []string{"/rename", "my chat"}},
		{`/rename 'my chat'`, []string{"/rename", "my chat"}},
		{`/upload "file with spaces.md"`, []string{"/upload", "file with spaces.md"}},
		{`/rename "say \"hi\""`, []string{"/rename", `say "hi"`}},
		{`/rename ""`, []string{"/rename", ""}},
		{"/rename café über", []string{"/rename", "café", "über"}},
		{"  /list   ", []string{"/list"}},
	}

	for _, tc := range tests {
		got := ParseArgs(tc.input)
		if !slices.Equal(got, tc.want) {
			t.Errorf("ParseArgs(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse("/Model phi3:mini")
	if !res.IsCommand || res.CommandName != "/model" || res.Command == nil {
		t.Fatalf("Parse(/Model) = %+v", res)
	}
	if !slices.Equal(res.Args, []string{"phi3:mini"}) {
		t.Errorf("Args = %q", res.Args)
	}

	res = p.Parse("/m")
	if res.Command == nil || res.Command.Name != "/model" {
		t.Errorf("alias /m did not resolve to /model")
	}

	res = p.Parse("/nope")
	if !res.IsCommand || res.Command != nil {
		t.Errorf("Parse(/nope) = %+v, want unknown command", res)
	}

	res = p.Parse("hello there")
	if res.IsCommand || res.Text != "hello there" {
		t.Errorf("Parse(message) = %+v", res)
	}

	res = p.Parse("//etc/hosts is a file")
	if res.IsCommand || res.Text != "/etc/hosts is a file" {
		t.Errorf("Parse(escaped) = %+v", res)
	}
}

func TestValidateArgs(t *testing.T) {
	r := NewRegistry()

	if err := ValidateArgs(r.Get("/rename"), nil); err == nil {
		t.Error("missing required argument should fail")
	}
	if err := ValidateArgs(r.Get("/rename"), []string{"x"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateArgs(r.Get("/export"), []string{"html"}); err == nil {
		t.Error("invalid enum value should fail")
	}
	if err := ValidateArgs(r.Get("/export"), []string{"ALL", "md"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateArgs(nil, nil); err != nil {
		t.Errorf("nil command: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Command:  "/export",
		Arg:      "format",
		Message:  "invalid value",
		Got:      "html",
		Expected: "txt, md, json",
	}
	want := "/export: invalid value for argument 'format' (got: html) - expected: txt, md, json"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{
		"/new", "/rename", "/delete", "/switch", "/list", "/upload", "/export",
		"/model", "/models", "/temp", "/tokens", "/help", "/quit",
	} {
		if r.Get(name) == nil {
			t.Errorf("%s is not registered", name)
		}
	}
	for alias, name := range map[string]string{"/h": "/help", "/?": "/help", "/q": "/quit", "/exit": "/quit"} {
		if cmd := r.Get(alias); cmd == nil || cmd.Name != name {
			t.Errorf("alias %s should resolve to %s", alias, name)
		}
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	before := len(r.All())

	r.Register(&Command{Name: "/list", Description: "replaced"})
	if len(r.All()) != before {
		t.Errorf("re-registering changed the count: %d -> %d", before, len(r.All()))
	}
	if r.Get("/list").Description != "replaced" {
		t.Error("command was not replaced")
	}

	r.Register(&Command{Name: "/extra", Aliases: []string{"/x"}})
	if r.Get("/x") == nil || len(r.All()) != before+1 {
		t.Error("new command not registered")
	}
}

func TestRegistry_ByCategory(t *testing.T) {
	groups := NewRegistry().ByCategory()
	for _, category := range categoryOrder {
		if len(groups[category]) == 0 {
			t.Errorf("category %s is empty", category)
		}
	}
}
