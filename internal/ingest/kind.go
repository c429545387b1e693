// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"path/filepath"
	"sort"
	"strings"
)

// =============================================================================
// FILE KINDS
// =============================================================================

// Kind identifies a supported upload format.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindJSON
	KindYAML
	KindCSV
	KindPDF
)

// decodeFunc converts raw file bytes into plain text.
type decodeFunc func(data []byte) (string, error)

// kindEntry ties a Kind to its extensions and its decoder.
type kindEntry struct {
	name       string
	extensions []string
	decode     decodeFunc
}

// kinds is the closed set of supported formats. Adding a format means adding
// one row here.
var kinds = map[Kind]kindEntry{
	KindText: {name: "text", extensions: []string{"txt", "py", "md"}, decode: decodeText},
	KindJSON: {name: "json", extensions: []string{"json"}, decode: decodeJSON},
	KindYAML: {name: "yaml", extensions: []string{"yaml", "yml"}, decode: decodeYAML},
	KindCSV:  {name: "csv", extensions: []string{"csv"}, decode: decodeCSV},
	KindPDF:  {name: "pdf", extensions: []string{"pdf"}, decode: decodePDF},
}

// byExtension is built from kinds once.
var byExtension = func() map[string]Kind {
	m := make(map[string]Kind)
	for kind, entry := range kinds {
		for _, ext := range entry.extensions {
			m[ext] = kind
		}
	}
	return m
}()

// String returns the format name.
func (k Kind) String() string {
	if entry, ok := kinds[k]; ok {
		return entry.name
	}
	return "unknown"
}

// KindFor returns the Kind for filename's extension, or KindUnknown.
func KindFor(filename string) Kind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return byExtension[ext]
}

// SupportedExtensions returns every accepted extension, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
