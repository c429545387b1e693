// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/ollachat/internal/session"
	"github.com/jeranaias/ollachat/internal/ui/styles"
)

func plainTheme() *styles.Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return styles.NewThemeWithRenderer(styles.ModeDark, r)
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeaderView(t *testing.T) {
	h := NewHeader(plainTheme())
	h.SetWidth(100)
	h.SetParams(session.Params{Model: "gemma3:1b", Temperature: 0.7, MaxTokens: 256})

	view := h.View()
	for _, want := range []string{"ollachat", "gemma3:1b", "0.70", "256"} {
		if !strings.Contains(view, want) {
			t.Errorf("header %q missing %q", view, want)
		}
	}
	if w := lipgloss.Width(view); w != 100 {
		t.Errorf("header width = %d, want 100", w)
	}
}

func TestHeaderView_NarrowDropsParams(t *testing.T) {
	h := NewHeader(plainTheme())
	h.SetWidth(30)
	h.SetParams(session.Params{Model: "deepseek-v3.1:671b-cloud", Temperature: 1.2, MaxTokens: 4000})

	view := h.View()
	if !strings.Contains(view, "ollachat") {
		t.Errorf("narrow header %q lost its title", view)
	}
	if strings.Contains(view, "4000") {
		t.Errorf("narrow header %q should drop trailing params", view)
	}
}

func TestHeaderView_Status(t *testing.T) {
	h := NewHeader(plainTheme())
	h.SetWidth(100)
	h.SetStatus("streaming")

	if !strings.Contains(h.View(), "streaming") {
		t.Error("header should show its status")
	}
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func TestSidebarView_MarksActive(t *testing.T) {
	s := NewSidebar(plainTheme())
	s.SetSize(DefaultSidebarWidth, 10)
	s.SetConversations([]string{"Chat 1", "Work"}, "Work")

	view := s.View()
	if !strings.Contains(view, "  1. Chat 1") {
		t.Errorf("sidebar %q missing inactive entry", view)
	}
	if !strings.Contains(view, "* 2. Work") {
		t.Errorf("sidebar %q missing active marker", view)
	}
}

func TestSidebarView_ScrollsToActive(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	s := NewSidebar(plainTheme())
	// Two rows for the title leaves three for entries
	s.SetSize(DefaultSidebarWidth, 5)
	s.SetConversations(names, "f")

	view := s.View()
	if strings.Contains(view, "1. a") {
		t.Errorf("sidebar %q should have scrolled past the first entry", view)
	}
	if !strings.Contains(view, "6. f") {
		t.Errorf("sidebar %q should show the active entry", view)
	}
}

func TestSidebarView_TruncatesLongNames(t *testing.T) {
	s := NewSidebar(plainTheme())
	s.SetConversations([]string{strings.Repeat("x", 80)}, "")

	for _, line := range strings.Split(s.View(), "\n") {
		if w := lipgloss.Width(line); w > DefaultSidebarWidth {
			t.Errorf("line %q is %d columns, want at most %d", line, w, DefaultSidebarWidth)
		}
	}
}
