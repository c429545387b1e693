// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the REPL.
//
// Commands act on the session through a turn.Runner and return text for the
// front-end to show. Work that needs the network is returned as a deferred
// function so the TUI can run it off its update loop.
//
// # Key Types
//
//   - Registry: Command registry with all built-in commands
//   - Command: One slash command with its argument definitions
//   - Env: What handlers act on (runner, model list, export options)
//   - Result: Output text, quit request and deferred work
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /new, /rename, /delete, /switch, /list: manage conversations
//   - /model, /models, /temp, /tokens: generation parameters
//   - /upload, /export: files
//   - /help, /quit
//
// # Usage
//
// Parse and execute a command:
//
//	registry := commands.NewRegistry()
//	res, err := registry.Execute(env, "/rename Work notes")
//	fmt.Println(res.Output)
//
// Get completions:
//
//	lines := commands.NewCompleter(registry).Lines("/mo")
//	// Returns ["/model", "/models"]
package commands
