// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/ollachat/internal/model"
)

// JSONExporter writes the same layout as the chat store: an object of
// conversation name to message array, in order. The output can be loaded
// back as a store file.
type JSONExporter struct{}

// Export implements Exporter.
func (JSONExporter) Export(doc Document) ([]byte, error) {
	lib := model.NewLibrary()
	for _, s := range doc.Sections {
		lib.Set(s.Name, s.Messages)
	}

	raw, err := lib.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal conversations: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent conversations: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// FileExtension implements Exporter.
func (JSONExporter) FileExtension() string {
	return ".json"
}
