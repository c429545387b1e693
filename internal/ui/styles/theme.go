// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by the ui.theme setting.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// ValidMode reports whether mode is a recognised theme mode.
func ValidMode(mode string) bool {
	switch strings.ToLower(mode) {
	case ModeAuto, ModeDark, ModeLight:
		return true
	}
	return false
}

// =============================================================================
// THEME
// =============================================================================

// Theme holds every style used by the chat screen and the REPL.
type Theme struct {
	// IsDark is the resolved background, after detection for ModeAuto
	IsDark bool

	// ColorProfile is what the output terminal supports
	ColorProfile termenv.Profile

	renderer *lipgloss.Renderer

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderParam lipgloss.Style
	HeaderValue lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar       lipgloss.Style
	SidebarTitle  lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	MessageBody    lipgloss.Style
	Notice         lipgloss.Style
	Error          lipgloss.Style

	// ==========================================================================
	// INPUT & STATUS
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	Spinner          lipgloss.Style
	ThinkingText     lipgloss.Style
	StatusBar        lipgloss.Style
	ShortcutKey      lipgloss.Style
	ShortcutDesc     lipgloss.Style
}

// NewTheme creates a theme for stdout. mode is one of the Mode constants;
// ModeAuto (or anything unrecognised) asks the terminal for its background.
func NewTheme(mode string) *Theme {
	return NewThemeWithRenderer(mode, lipgloss.NewRenderer(os.Stdout))
}

// NewThemeWithRenderer creates a theme bound to r. Explicit dark and light
// modes override the renderer's background detection.
func NewThemeWithRenderer(mode string, r *lipgloss.Renderer) *Theme {
	switch strings.ToLower(mode) {
	case ModeDark:
		r.SetHasDarkBackground(true)
	case ModeLight:
		r.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       r.HasDarkBackground(),
		ColorProfile: r.ColorProfile(),
		renderer:     r,
	}
	t.initStyles()
	return t
}

// Renderer returns the lipgloss renderer the styles are bound to.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.renderer
}

func (t *Theme) initStyles() {
	s := t.renderer.NewStyle

	// Header
	t.Header = s().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.HeaderTitle = s().Bold(true).Foreground(Cyan)
	t.HeaderParam = s().Foreground(TextMuted)
	t.HeaderValue = s().Foreground(TextPrimary).Bold(true)

	// Sidebar
	t.Sidebar = s().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)
	t.SidebarTitle = s().Bold(true).Foreground(TextSecondary).MarginBottom(1)
	t.SidebarItem = s().Foreground(TextPrimary)
	t.SidebarActive = s().Foreground(Purple).Bold(true)

	// Messages
	t.UserLabel = s().Foreground(Cyan).Bold(true)
	t.AssistantLabel = s().Foreground(Purple).Bold(true)
	t.MessageBody = s().Foreground(TextPrimary).PaddingLeft(2)
	t.Notice = s().Foreground(Amber).Italic(true)
	t.Error = s().Foreground(Rose).Bold(true)

	// Input area
	t.InputContainer = s().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = s().Foreground(Cyan).Bold(true)
	t.InputPlaceholder = s().Foreground(TextMuted).Italic(true)

	// Spinner and status
	t.Spinner = s().Foreground(Purple)
	t.ThinkingText = s().Foreground(TextSecondary)
	t.StatusBar = s().Foreground(TextMuted).Padding(0, 1)
	t.ShortcutKey = s().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = s().Foreground(TextMuted)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// GlamourStyle names the glamour standard style matching the theme. Terminals
// without color get the plain "notty" style.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return ModeDark
	}
	return ModeLight
}

// MarkdownRenderer builds a glamour renderer that wraps at width columns.
// A width below one disables wrapping.
func (t *Theme) MarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	if width < 1 {
		width = 0
	}
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(t.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
}

// =============================================================================
// STATUS HELPERS
// =============================================================================

// RenderNotice renders an informational line with its shape indicator.
func (t *Theme) RenderNotice(message string) string {
	return t.Notice.Render(StatusIndicators.Info + " " + message)
}

// RenderError renders an error line with its shape indicator.
func (t *Theme) RenderError(message string) string {
	return t.Error.Render(StatusIndicators.Error + " " + message)
}
