// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ollachat/internal/session"
	"github.com/jeranaias/ollachat/internal/ui/styles"
	"github.com/jeranaias/ollachat/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the one-line title bar.
type Header struct {
	Title  string
	Params session.Params
	Width  int

	// Status is shown on the right, e.g. "streaming"
	Status string

	theme *styles.Theme
}

// NewHeader creates a Header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "ollachat",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetParams updates the generation parameters shown.
func (h *Header) SetParams(p session.Params) {
	h.Params = p
}

// SetStatus updates the right-hand status text.
func (h *Header) SetStatus(status string) {
	h.Status = status
}

// View renders the header. Parameters are dropped from the right when the
// terminal is too narrow to hold them all.
func (h *Header) View() string {
	t := h.theme
	width := h.Width
	if width < 20 {
		width = 20
	}
	// Header padding takes two columns
	inner := width - 2

	right := ""
	if h.Status != "" {
		right = t.HeaderParam.Render(h.Status)
	}

	labels := []string{"model", "temp", "tokens"}
	values := []string{
		h.Params.Model,
		fmt.Sprintf("%.2f", h.Params.Temperature),
		fmt.Sprintf("%d", h.Params.MaxTokens),
	}

	title := util.TruncateWidth(h.Title, inner-lipgloss.Width(right)-1)
	line := t.HeaderTitle.Render(title)
	for i := range labels {
		part := "  " + t.HeaderParam.Render(labels[i]+" ") + t.HeaderValue.Render(values[i])
		if lipgloss.Width(line)+lipgloss.Width(part)+lipgloss.Width(right)+1 > inner {
			break
		}
		line += part
	}

	gap := inner - lipgloss.Width(line) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return t.Header.Width(width).Render(line + strings.Repeat(" ", gap) + right)
}
