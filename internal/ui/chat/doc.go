// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the bubbletea chat screen of ollachat.

The screen shows a conversation sidebar, a header with the generation
parameters, the active transcript and an input line. Typed text starts a
turn through turn.Runner; lines starting with a slash run commands from the
commands package.

# Key Components

## Model (model.go)

The Model is the single writer of the session. It refuses new turns and
conversation changes while a reply streams.

## Streaming (streaming.go)

Replies are pulled one fragment per command. Each message carries the
turn's ID, so fragments from a cancelled turn are dropped and their stream
closed once the outstanding pull returns. Esc cancels the turn's context
and commits the partial reply straight away.

## View Rendering (view.go)

Assistant messages are rendered as markdown with glamour. The rendered
history is cached, so a fragment only re-renders the reply in flight.

# Usage

	err := chat.Run(chat.Options{
		Env:    env,
		Theme:  styles.NewTheme(cfg.UI.Theme),
		Logger: logger,
	})
*/
package chat
