// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the ollachat command line, built with cobra.
//
// Without a subcommand ollachat opens the chat screen when stdin and stdout
// are terminals and a line-by-line prompt otherwise, so piped input works.
//
// # Key Types
//
//   - App: Config, logger, session, turn runner and command environment,
//     built once per invocation
//   - Options: Streams and backend factory, replaced in tests
//   - CommandError: Failure carrying its exit code
//
// # Subcommands
//
//	chat     full-screen chat
//	repl     line prompt (liner history and tab completion on a terminal)
//	ask      one message, reply streamed to stdout
//	list     conversations, or one transcript with --show
//	export   write conversations as txt, md or json
//	upload   add a file's text to a conversation
//	models   models the backend offers
//	config   show, keys, get, set, path
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
package cli
