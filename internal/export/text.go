// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/jeranaias/ollachat/internal/model"
)

// TextExporter writes the plain "<Role>: <content>" transcript.
type TextExporter struct{}

// Export implements Exporter.
func (TextExporter) Export(doc Document) ([]byte, error) {
	if !doc.All && len(doc.Sections) == 1 {
		return []byte(Transcript(doc.Sections[0].Messages)), nil
	}

	parts := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		parts = append(parts, "=== "+s.Name+" ===\n\n"+Transcript(s.Messages))
	}
	return []byte(strings.Join(parts, "\n\n")), nil
}

// FileExtension implements Exporter.
func (TextExporter) FileExtension() string {
	return ".txt"
}

// Transcript renders msgs as "<Role>: <content>" blocks joined by blank
// lines.
func Transcript(msgs []model.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Role.DisplayName() + ": " + m.Content
	}
	return strings.Join(lines, "\n\n")
}
