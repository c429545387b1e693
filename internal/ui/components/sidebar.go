// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/ollachat/internal/ui/styles"
	"github.com/jeranaias/ollachat/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// DefaultSidebarWidth is the sidebar width including its border.
const DefaultSidebarWidth = 24

// Sidebar lists the conversations, numbered the way /switch accepts them.
type Sidebar struct {
	Names  []string
	Active string
	Width  int
	Height int

	theme *styles.Theme
}

// NewSidebar creates a Sidebar of the default width.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{Width: DefaultSidebarWidth, theme: theme}
}

// SetConversations updates the list and the active marker.
func (s *Sidebar) SetConversations(names []string, active string) {
	s.Names = names
	s.Active = active
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// View renders the list. When there are more conversations than rows, the
// window scrolls so the active one stays visible.
func (s *Sidebar) View() string {
	t := s.theme
	// Border and padding take two columns
	inner := s.Width - 2
	if inner < 4 {
		inner = 4
	}

	lines := make([]string, 0, len(s.Names))
	activeIdx := 0
	for i, name := range s.Names {
		marker := "  "
		style := t.SidebarItem
		if name == s.Active {
			marker = styles.StatusIndicators.Active + " "
			style = t.SidebarActive
			activeIdx = i
		}
		label := util.TruncateWidth(fmt.Sprintf("%s%d. %s", marker, i+1, name), inner)
		lines = append(lines, style.Render(util.PadRight(label, inner)))
	}

	// Title plus its margin take two rows
	rows := s.Height - 2
	if rows > 0 && len(lines) > rows {
		start := activeIdx - rows + 1
		if start < 0 {
			start = 0
		}
		lines = lines[start : start+rows]
	}

	body := t.SidebarTitle.Render("Conversations") + "\n" + strings.Join(lines, "\n")
	box := t.Sidebar.Width(s.Width - 1)
	if s.Height > 0 {
		box = box.Height(s.Height)
	}
	return box.Render(body)
}
