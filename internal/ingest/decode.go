// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/ollachat/internal/util"
)

// =============================================================================
// TEXT
// =============================================================================

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns UTF-8 content verbatim.
func decodeText(data []byte) (string, error) {
	return decodeUTF8(data)
}

// decodeUTF8 validates data as UTF-8 and drops a leading BOM. Files that
// start with a UTF-16 BOM are transcoded.
func decodeUTF8(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xFE, 0xFF}) || bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
		return decodeUTF16(data)
	}
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

// decodeUTF16 transcodes BOM-prefixed UTF-16. The decoder replaces broken
// code units with U+FFFD instead of failing, so a truncated unit, an
// unpaired surrogate or a NUL character rejects the file.
func decodeUTF16(data []byte) (string, error) {
	if len(data)%2 != 0 {
		return "", errors.New("UTF-16 content has an odd number of bytes")
	}
	out, _, err := transform.Bytes(xunicode.BOMOverride(xunicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(out, utf8.RuneError) || bytes.IndexByte(out, 0) >= 0 {
		return "", errors.New("content is not valid UTF-16")
	}
	return string(out), nil
}

// =============================================================================
// JSON
// =============================================================================

// decodeJSON validates the document and re-indents it. Key order and number
// literals are kept as written.
func decodeJSON(data []byte) (string, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return "", err
	}
	raw := bytes.TrimSpace([]byte(text))
	if !json.Valid(raw) {
		// Unmarshal reports where the document breaks
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", err
		}
		return "", errors.New("invalid JSON")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// YAML
// =============================================================================

// decodeYAML parses every document in the stream and re-emits it with two
// space indentation. Comments survive because nodes are round-tripped.
func decodeYAML(data []byte) (string, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return "", err
	}

	dec := yaml.NewDecoder(strings.NewReader(text))
	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)

	docs := 0
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		if err := enc.Encode(&doc); err != nil {
			return "", err
		}
		docs++
	}
	if docs == 0 {
		return "", nil
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

// =============================================================================
// CSV
// =============================================================================

// decodeCSV renders the records as a table whose columns line up in a
// terminal. The first record is the header. Short rows end early.
func decodeCSV(data []byte) (string, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return "", err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	return renderTable(records), nil
}

// renderTable lays records out in columns separated by " | ", with a rule
// under the first row.
func renderTable(records [][]string) string {
	cols := 0
	for _, rec := range records {
		cols = max(cols, len(rec))
	}

	widths := make([]int, cols)
	for _, rec := range records {
		for i, cell := range rec {
			rec[i] = flattenCell(cell)
			widths[i] = max(widths[i], util.StringWidth(rec[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		var line strings.Builder
		for i, cell := range cells {
			if i > 0 {
				line.WriteString(" | ")
			}
			line.WriteString(util.PadRight(cell, widths[i]))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}

	writeRow(records[0])
	rule := make([]string, cols)
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	b.WriteString(strings.Join(rule, "-+-"))
	b.WriteByte('\n')
	for _, rec := range records[1:] {
		writeRow(rec)
	}
	return strings.TrimRight(b.String(), "\n")
}

func flattenCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// =============================================================================
// PDF
// =============================================================================

// decodePDF extracts the plain text of each page. Pages without text, such
// as scanned images, are skipped; the rest are joined by blank lines.
func decodePDF(data []byte) (text string, err error) {
	// RELIABILITY: the PDF parser panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
