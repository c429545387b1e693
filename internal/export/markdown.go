// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes one "##" heading per conversation and one bold
// role label per message. Message content is left as-is, since replies are
// usually markdown already.
type MarkdownExporter struct{}

// Export implements Exporter.
func (MarkdownExporter) Export(doc Document) ([]byte, error) {
	var sb strings.Builder

	title := doc.Name
	if doc.All {
		title = "All conversations"
	}
	sb.WriteString("# " + escapeMarkdown(title) + "\n")

	for _, s := range doc.Sections {
		if doc.All || len(doc.Sections) > 1 {
			sb.WriteString("\n## " + escapeMarkdown(s.Name) + "\n")
		}
		for _, m := range s.Messages {
			sb.WriteString("\n**" + m.Role.DisplayName() + ":**\n\n")
			sb.WriteString(strings.TrimRight(m.Content, "\n"))
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (MarkdownExporter) FileExtension() string {
	return ".md"
}

// escapeMarkdown escapes characters that would change heading rendering.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"#", `\#`,
		"[", `\[`,
		"]", `\]`,
	)
	return replacer.Replace(s)
}
