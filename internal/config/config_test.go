// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollachat/internal/model"
)

// isolate points HOME at a temp dir and clears every variable Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{
		"OLLACHAT_BACKEND", "OLLACHAT_MODEL", "OLLACHAT_OLLAMA_URL", "OLLAMA_HOST",
		"OLLACHAT_STORE", "OLLACHAT_EXPORT_DIR", "OLLACHAT_LOG_LEVEL",
		"GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// =============================================================================
// DEFAULT TESTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendOllama, cfg.Backend)
	assert.Equal(t, model.DefaultModelIDs, cfg.Models)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 256, cfg.MaxTokens)
}

func TestDefault_ModelsNotShared(t *testing.T) {
	cfg := Default()
	cfg.Models[0] = "changed"
	assert.NotEqual(t, "changed", model.DefaultModelIDs[0])
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOMLFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".ollachat", "config.toml"), `
default_model = "phi3:mini"
temperature = 0.0
max_tokens = 1024
models = ["phi3:mini", "gemma3:1b"]

[ollama]
url = "http://gpu-box:11434"

[export]
format = "md"
`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "phi3:mini", cfg.DefaultModel)
	assert.Equal(t, 0.0, cfg.Temperature, "explicit zero temperature is kept")
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, []string{"phi3:mini", "gemma3:1b"}, cfg.Models)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.URL)
	assert.Equal(t, 30, cfg.Ollama.TimeoutSecs, "unset keys keep defaults")
	assert.Equal(t, "md", cfg.Export.Format)
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, `backend = "ollama"`+"\n"+`max_tokens = 64`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxTokens)
}

func TestLoad_BadFileFallsBackWithError(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "broken.toml")
	writeFile(t, path, "max_tokens = [not toml")

	cfg, err := Load(path)
	require.Error(t, err)
	require.NotNil(t, cfg, "defaults are still returned")
	assert.Equal(t, 256, cfg.MaxTokens)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "typo.toml")
	writeFile(t, path, "max_tokns = 100")

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokns")
	require.NotNil(t, cfg)
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, "temperature = 3.0\nmax_tokens = 10")

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.ElementsMatch(t, []string{"temperature", "max_tokens"}, fields)
}

// =============================================================================
// ENVIRONMENT TESTS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("OLLACHAT_MODEL", "llama3.2:1b")
	t.Setenv("OLLACHAT_STORE", "/tmp/chats.json")
	t.Setenv("OLLACHAT_EXPORT_DIR", "/tmp/out")
	t.Setenv("OLLACHAT_LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "llama3.2:1b", cfg.DefaultModel)
	assert.Equal(t, "/tmp/chats.json", cfg.Storage.Path)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
}

func TestApplyEnvOverrides_OllamaURLPrecedence(t *testing.T) {
	isolate(t)
	t.Setenv("OLLAMA_HOST", "gpu-box")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.URL)

	t.Setenv("OLLACHAT_OLLAMA_URL", "https://ollama.example.com")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "https://ollama.example.com", cfg.Ollama.URL)
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"myhost", "http://myhost:11434"},
		{"0.0.0.0:8080", "http://0.0.0.0:8080"},
		{"https://remote", "https://remote:11434"},
		{"http://127.0.0.1:11434/", "http://127.0.0.1:11434"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeHost(tt.in))
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".ollachat", ".env"), "OLLACHAT_BACKEND=gemini\nGEMINI_API_KEY=from-dotenv\n")
	t.Cleanup(func() {
		os.Unsetenv("OLLACHAT_BACKEND")
		os.Unsetenv("GEMINI_API_KEY")
	})
	// gotenv only fills variables that are unset, not merely empty
	os.Unsetenv("OLLACHAT_BACKEND")
	os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendGemini, cfg.Backend)
	assert.Equal(t, "from-dotenv", cfg.Gemini.APIKey)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad backend", func(c *Config) { c.Backend = "openai" }, "backend"},
		{"gemini without key", func(c *Config) { c.Backend = BackendGemini }, "gemini.api_key"},
		{"empty model", func(c *Config) { c.DefaultModel = " " }, "default_model"},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, "temperature"},
		{"too many tokens", func(c *Config) { c.MaxTokens = 4001 }, "max_tokens"},
		{"bad url", func(c *Config) { c.Ollama.URL = "ftp://x" }, "ollama.url"},
		{"bad format", func(c *Config) { c.Export.Format = "html" }, "export.format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidate_BoundsInclusive(t *testing.T) {
	cfg := Default()
	cfg.Temperature = 1.5
	cfg.MaxTokens = 4000
	assert.NoError(t, cfg.Validate())

	cfg.Temperature = 0
	cfg.MaxTokens = 64
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// GET/SET TESTS
// =============================================================================

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "backend")
	assert.Contains(t, keys, "ollama.url")
	assert.Contains(t, keys, "gemini.api_key")
	assert.Contains(t, keys, "ui.history_file")
	assert.NotContains(t, keys, "ollama")
	assert.Equal(t, "backend", keys[0])
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("temperature", "0.3"))
	require.NoError(t, cfg.Set("max_tokens", "512"))
	require.NoError(t, cfg.Set("ollama.url", "http://other:11434"))
	require.NoError(t, cfg.Set("models", "a, b,,c"))
	require.NoError(t, cfg.Set("ingest.max_upload_bytes", "2048"))

	v, err := cfg.Get("temperature")
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)

	v, err = cfg.Get("ollama.url")
	require.NoError(t, err)
	assert.Equal(t, "http://other:11434", v)

	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Models)
	assert.Equal(t, int64(2048), cfg.Ingest.MaxUploadBytes)
}

func TestGetSet_Errors(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = cfg.Get("ollama")
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = cfg.Get("backend.x")
	assert.ErrorIs(t, err, ErrUnknownKey)

	assert.Error(t, cfg.Set("max_tokens", "lots"))
	assert.Error(t, cfg.Set("temperature", "warm"))
}

// =============================================================================
// SAVE AND STRING TESTS
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = "phi3:mini"
	cfg.Temperature = 0
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if filepath.Separator == '/' {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestString_RedactsAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Gemini.APIKey = "super-secret"

	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.True(t, strings.Contains(s, "[REDACTED]"))
	assert.Equal(t, "super-secret", cfg.Gemini.APIKey, "original untouched")
}
