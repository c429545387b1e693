// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/util"
)

// ErrUnknownFormat is returned by ExporterFor for an unrecognised format name.
var ErrUnknownFormat = errors.New("unsupported export format")

// AllName is the name part of the file name when every conversation is
// exported.
const AllName = "all"

// =============================================================================
// DOCUMENTS
// =============================================================================

// Section is one conversation in a Document.
type Section struct {
	Name     string
	Messages []model.Message
}

// Document is what gets exported.
type Document struct {
	// Name feeds the file name
	Name string

	Sections []Section

	// All marks a whole-library export; sections get headings
	All bool
}

// ForConversation returns a document holding the named conversation.
func ForConversation(lib *model.Library, name string) (Document, error) {
	msgs, ok := lib.Messages(name)
	if !ok {
		return Document{}, fmt.Errorf("conversation %q not found", name)
	}
	return Document{
		Name:     name,
		Sections: []Section{{Name: name, Messages: msgs}},
	}, nil
}

// ForAll returns a document holding every conversation in library order.
func ForAll(lib *model.Library) Document {
	doc := Document{Name: AllName, All: true}
	for _, name := range lib.Names() {
		msgs, _ := lib.Messages(name)
		doc.Sections = append(doc.Sections, Section{Name: name, Messages: msgs})
	}
	return doc
}

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter renders documents in one format.
type Exporter interface {
	// Export renders doc.
	Export(doc Document) ([]byte, error)

	// FileExtension returns the extension for written files, dot included.
	FileExtension() string
}

// ExporterFor returns the exporter registered under format. An empty
// format selects plain text.
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "txt", "text":
		return TextExporter{}, nil
	case "md", "markdown":
		return MarkdownExporter{}, nil
	case "json":
		return JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (use txt, md or json)", ErrUnknownFormat, format)
	}
}

// =============================================================================
// WRITING
// =============================================================================

// Options configures WriteFile.
type Options struct {
	// Dir is where files are written (default: current directory)
	Dir string

	// Format names the exporter (default: txt)
	Format string

	// Now stamps the file name (default: time.Now)
	Now func() time.Time
}

// TimestampLayout formats the time part of export file names.
const TimestampLayout = "2006-01-02_15-04-05"

// FileName returns chat_history_<name>_<timestamp><ext>, with name made
// safe for any filesystem.
func FileName(name string, at time.Time, ext string) string {
	return "chat_history_" + util.SanitizeFilename(name) + "_" + at.Format(TimestampLayout) + ext
}

// WriteFile renders doc and writes it atomically into opts.Dir, returning
// the path written.
func WriteFile(doc Document, opts Options) (string, error) {
	exporter, err := ExporterFor(opts.Format)
	if err != nil {
		return "", err
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	dir, err = util.ExpandHome(dir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(doc.Name, now(), exporter.FileExtension()))
	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}
