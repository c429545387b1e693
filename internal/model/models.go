// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// MODEL CATALOG
// =============================================================================

// ModelInfo describes one entry of the selectable model list.
type ModelInfo struct {
	// ID is the identifier sent to the backend (e.g., "gemma3:1b")
	ID string

	// Cloud is true for models the backend proxies to a hosted service
	Cloud bool
}

// DefaultModelIDs is the model enumeration offered when the config does not
// provide one. The first entry is the default selection.
var DefaultModelIDs = []string{
	"gemma3:1b",
	"llama3.2:1b",
	"deepseek-r1:1.5b",
	"phi3:mini",
	"minimax-m2:cloud",
	"deepseek-v3.1:671b-cloud",
	"gpt-oss:20b-cloud",
}

// NewModelInfo builds the catalog entry for id.
func NewModelInfo(id string) ModelInfo {
	return ModelInfo{
		ID:    id,
		Cloud: strings.HasSuffix(id, ":cloud") || strings.HasSuffix(id, "-cloud"),
	}
}

// Catalog converts a list of identifiers into catalog entries.
func Catalog(ids []string) []ModelInfo {
	out := make([]ModelInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, NewModelInfo(id))
	}
	return out
}

// Label returns the ID with a cloud marker for hosted models.
func (m ModelInfo) Label() string {
	if m.Cloud {
		return m.ID + " (cloud)"
	}
	return m.ID
}
