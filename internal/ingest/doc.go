// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest turns uploaded files into plain text for the conversation.
//
// Every supported format is a Kind with exactly one decode function. The
// Kind is chosen from the file extension, case-insensitively; extensions
// outside the table are rejected with ErrUnsupportedFormat rather than
// guessed at.
//
// # Supported Kinds
//
//   - KindText: .txt .py .md, UTF-8 verbatim (BOM stripped, UTF-16 with BOM decoded)
//   - KindJSON: .json, validated and re-indented with two spaces
//   - KindYAML: .yaml .yml, parsed and re-emitted
//   - KindCSV:  .csv, rendered as a column-aligned table
//   - KindPDF:  .pdf, text of every non-empty page
//
// # Usage
//
//	text, err := ingest.ExtractText("notes.txt", data)
//	switch {
//	case errors.Is(err, ingest.ErrUnsupportedFormat):
//	case errors.Is(err, ingest.ErrDecode):
//	}
//	msg := ingest.ContextMessage("notes.txt", text)
package ingest
