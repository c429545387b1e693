// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnsupportedFormat is returned for extensions outside the Kind table.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDecode is returned when a supported file cannot be decoded.
	ErrDecode = errors.New("failed to decode file")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// DefaultMaxBytes is the upload limit used when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// =============================================================================
// EXTRACTION
// =============================================================================

// Extractor applies a size limit before dispatching to a decoder.
type Extractor struct {
	// MaxBytes caps the upload size; zero or less means DefaultMaxBytes
	MaxBytes int64
}

// Extract returns the plain text of data, decoded according to filename's
// extension.
func (e Extractor) Extract(filename string, data []byte) (string, error) {
	limit := e.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, filename, len(data), limit)
	}
	return ExtractText(filename, data)
}

// ExtractText returns the plain text of data, decoded according to
// filename's extension. No size limit is applied.
func ExtractText(filename string, data []byte) (string, error) {
	kind := KindFor(filename)
	entry, ok := kinds[kind]
	if !ok {
		ext := filepath.Ext(filename)
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: %s has extension %s (supported: %s)",
			ErrUnsupportedFormat, filename, ext, strings.Join(SupportedExtensions(), ", "))
	}

	text, err := entry.decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s as %s: %w", ErrDecode, filename, kind, err)
	}
	return text, nil
}

// ContextMessage wraps extracted text in the block that is appended to the
// conversation as a user message. The backend sees it as literal context on
// the next turn.
func ContextMessage(filename, text string) string {
	name := filepath.Base(filename)
	var b strings.Builder
	b.WriteString("Content of uploaded file \"")
	b.WriteString(name)
	b.WriteString("\":\n\n<file name=\"")
	b.WriteString(name)
	b.WriteString("\">\n")
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n</file>")
	return b.String()
}
