// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to files.
//
// The default text format renders each message as "<Role>: <content>",
// with messages separated by blank lines. Exporting every conversation
// puts a "=== <name> ===" heading above each one. Markdown and JSON
// exporters are provided for the same documents.
//
// # Key Types
//
//   - Document: One or more named conversations to export
//   - Exporter: Renders a Document in one format
//   - Options: Output directory, format and clock
//
// # Usage
//
//	doc, err := export.ForConversation(lib, "Chat 1")
//	path, err := export.WriteFile(doc, export.Options{Dir: "."})
package export
