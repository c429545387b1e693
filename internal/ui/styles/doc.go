// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the colors and lipgloss styles shared by the chat
// TUI and the REPL.
//
// Colors are lipgloss AdaptiveColors, resolved against the background of
// the renderer a Theme is bound to. The ui.theme setting can force a dark or
// light background instead of asking the terminal.
//
// # Key Types
//
//   - Theme: All styles, plus the glamour style matching the background
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	fmt.Println(theme.UserLabel.Render("You"))
//
//	md, err := theme.MarkdownRenderer(80)
//	out, err := md.Render(reply)
package styles
