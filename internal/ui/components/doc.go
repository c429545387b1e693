// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the static pieces of the chat screen.

Components are plain structs with a View method. They hold no bubbletea
state; the chat model fills them in from the session before every render.

# Key Types

  - Header: Title bar with the model, temperature and max tokens
  - Sidebar: Conversation list with the active one marked

# Usage

	header := components.NewHeader(theme)
	header.SetParams(sess.Params())
	header.SetWidth(width)
	top := header.View()

	sidebar := components.NewSidebar(theme)
	sidebar.SetConversations(sess.Names(), sess.Active())
	left := sidebar.View()
*/
package components
