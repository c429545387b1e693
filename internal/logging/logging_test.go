// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ollachat.log")

	logger, err := New(Options{Path: path, Level: "info"})
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("turn committed", zap.String("conversation", "Chat 1"))
	_ = logger.Sync()

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "turn committed", lines[0]["msg"])
	assert.Equal(t, "Chat 1", lines[0]["conversation"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Contains(t, lines[0], "ts")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	logger, err := New(Options{Path: path, Level: "warn", Verbose: true})
	require.NoError(t, err)
	logger.Debug("shown")
	_ = logger.Sync()

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0]["level"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Path: Stderr, Level: "chatty"})
	assert.Error(t, err)
}

func TestNew_Stderr(t *testing.T) {
	logger, err := New(Options{Path: Stderr})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
