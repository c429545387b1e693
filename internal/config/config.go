// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/subosito/gotenv"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/ollachat/internal/export"
	"github.com/jeranaias/ollachat/internal/ingest"
	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/session"
	"github.com/jeranaias/ollachat/internal/util"
)

// Backend names.
const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ollachat configuration.
type Config struct {
	// Backend selects the inference service: "ollama" or "gemini"
	Backend string `toml:"backend"`

	// DefaultModel is the model selected at startup
	DefaultModel string `toml:"default_model"`

	// Models is the enumeration offered by /models and the model picker
	Models []string `toml:"models"`

	// Generation parameters
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`

	Ollama  OllamaConfig  `toml:"ollama"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Storage StorageConfig `toml:"storage"`
	Export  ExportConfig  `toml:"export"`
	Log     LogConfig     `toml:"log"`
	Ingest  IngestConfig  `toml:"ingest"`
	UI      UIConfig      `toml:"ui"`
}

// OllamaConfig contains the local Ollama server settings.
type OllamaConfig struct {
	URL string `toml:"url"`

	// TimeoutSecs bounds non-streaming requests such as model listing
	TimeoutSecs int `toml:"timeout_secs"`

	// StreamTimeoutSecs bounds the wait for a reply to start
	StreamTimeoutSecs int `toml:"stream_timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (o OllamaConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

// StreamTimeout returns StreamTimeoutSecs as a duration.
func (o OllamaConfig) StreamTimeout() time.Duration {
	return time.Duration(o.StreamTimeoutSecs) * time.Second
}

// GeminiConfig contains the Gemini API settings.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
}

// StorageConfig locates the chat store.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ExportConfig controls transcript exports.
type ExportConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Path is the log file; "-" means stderr
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// IngestConfig controls file uploads.
type IngestConfig struct {
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

// UIConfig contains front-end settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme"`

	// HistoryFile keeps REPL input history
	HistoryFile string `toml:"history_file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend:      BackendOllama,
		DefaultModel: model.DefaultModelIDs[0],
		Models:       slices.Clone(model.DefaultModelIDs),
		Temperature:  session.DefaultTemperature,
		MaxTokens:    session.DefaultMaxTokens,

		Ollama: OllamaConfig{
			URL:               "http://127.0.0.1:11434",
			TimeoutSecs:       30,
			StreamTimeoutSecs: 60, // model loading can be slow
		},

		Storage: StorageConfig{Path: "~/.ollachat/chats.json"},
		Export:  ExportConfig{Dir: ".", Format: "txt"},
		Log:     LogConfig{Path: "~/.ollachat/ollachat.log", Level: "info"},
		Ingest:  IngestConfig{MaxUploadBytes: ingest.DefaultMaxBytes},
		UI:      UIConfig{Theme: "auto", HistoryFile: "~/.ollachat/history"},
	}
}

// SetDefaults fills fields left empty by a config file that set them to
// zero values. Temperature is left alone: zero is a valid setting.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	c.Backend = strings.ToLower(c.Backend)
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if len(c.Models) == 0 {
		c.Models = defaults.Models
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}

	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Ollama.TimeoutSecs == 0 {
		c.Ollama.TimeoutSecs = defaults.Ollama.TimeoutSecs
	}
	if c.Ollama.StreamTimeoutSecs == 0 {
		c.Ollama.StreamTimeoutSecs = defaults.Ollama.StreamTimeoutSecs
	}

	if c.Storage.Path == "" {
		c.Storage.Path = defaults.Storage.Path
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaults.Export.Dir
	}
	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}
	if c.Log.Path == "" {
		c.Log.Path = defaults.Log.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Ingest.MaxUploadBytes == 0 {
		c.Ingest.MaxUploadBytes = defaults.Ingest.MaxUploadBytes
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.HistoryFile == "" {
		c.UI.HistoryFile = defaults.UI.HistoryFile
	}
}

// Params returns the generation parameters the config selects.
func (c *Config) Params() session.Params {
	return session.Params{
		Model:       c.DefaultModel,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the ollachat configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ollachat"), nil
}

// DefaultPath returns the path to the TOML config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load builds the configuration from defaults, the TOML file at path (the
// default location when empty), .env files and the environment.
//
// A missing file is not an error. A file that cannot be decoded is skipped:
// Load returns the remaining configuration together with an informational
// error. A configuration that fails validation is returned as nil with the
// validation errors.
func Load(path string) (*Config, error) {
	cfg := Default()
	var loadErr error

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			loadErr = err
		}
		path = p
	}

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
				cfg = Default()
			}
		}
	}

	if err := LoadDotEnv(); err != nil && loadErr == nil {
		loadErr = err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML decodes the TOML file at path over cfg. Keys the file does not
// mention keep their current values. Unknown keys are rejected so typos do
// not pass silently.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv exports variables from .env files in the working directory and
// the config directory. Variables already set in the environment win.
func LoadDotEnv() error {
	candidates := []string{".env"}
	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	var found []string
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	if err := gotenv.Load(found...); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// SaveTOML writes cfg to path.
// SECURITY: Written with 0600 permissions, the file may hold an API key.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# ollachat configuration file\n")
	buf.WriteString("# Generated by ollachat - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - OLLACHAT_BACKEND: overrides backend
//   - OLLACHAT_MODEL: overrides default_model
//   - OLLAMA_HOST, then OLLACHAT_OLLAMA_URL: override ollama.url
//   - GOOGLE_API_KEY, then GEMINI_API_KEY: override gemini.api_key
//   - OLLACHAT_STORE: overrides storage.path
//   - OLLACHAT_EXPORT_DIR: overrides export.dir
//   - OLLACHAT_LOG_LEVEL: overrides log.level
//
// Where two variables feed one key the later one wins.
func (c *Config) ApplyEnvOverrides() {
	if backend := os.Getenv("OLLACHAT_BACKEND"); backend != "" {
		c.Backend = backend
	}
	if m := os.Getenv("OLLACHAT_MODEL"); m != "" {
		c.DefaultModel = m
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Ollama.URL = normalizeHost(host)
	}
	if u := os.Getenv("OLLACHAT_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}

	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}

	if p := os.Getenv("OLLACHAT_STORE"); p != "" {
		c.Storage.Path = p
	}
	if d := os.Getenv("OLLACHAT_EXPORT_DIR"); d != "" {
		c.Export.Dir = d
	}
	if lvl := os.Getenv("OLLACHAT_LOG_LEVEL"); lvl != "" {
		c.Log.Level = lvl
	}
}

// normalizeHost turns OLLAMA_HOST values such as "0.0.0.0:11434" or
// "myhost" into URLs.
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return host
	}
	if u.Port() == "" {
		u.Host += ":11434"
	}
	return strings.TrimRight(u.String(), "/")
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Backend) {
	case BackendOllama:
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			add("gemini.api_key", "required when backend is gemini (or set GEMINI_API_KEY)")
		}
	default:
		add("backend", "invalid backend '%s', must be one of: ollama, gemini", c.Backend)
	}

	if strings.TrimSpace(c.DefaultModel) == "" {
		add("default_model", "must not be empty")
	}
	for i, m := range c.Models {
		if strings.TrimSpace(m) == "" {
			add(fmt.Sprintf("models[%d]", i), "must not be empty")
		}
	}

	if math.IsNaN(c.Temperature) || c.Temperature < session.MinTemperature || c.Temperature > session.MaxTemperature {
		add("temperature", "%.2f not in [%.1f, %.1f]", c.Temperature, session.MinTemperature, session.MaxTemperature)
	}
	if c.MaxTokens < session.MinMaxTokens || c.MaxTokens > session.MaxMaxTokens {
		add("max_tokens", "%d not in [%d, %d]", c.MaxTokens, session.MinMaxTokens, session.MaxMaxTokens)
	}

	if u, err := url.Parse(c.Ollama.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("ollama.url", "invalid URL '%s', must be http(s)://host[:port]", c.Ollama.URL)
	}
	if c.Ollama.TimeoutSecs < 0 {
		add("ollama.timeout_secs", "must not be negative")
	}
	if c.Ollama.StreamTimeoutSecs < 0 {
		add("ollama.stream_timeout_secs", "must not be negative")
	}

	if _, err := export.ExporterFor(c.Export.Format); err != nil {
		add("export.format", "invalid format '%s', must be one of: txt, md, json", c.Export.Format)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}
	if c.Ingest.MaxUploadBytes < 0 {
		add("ingest.max_upload_bytes", "must not be negative")
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// ErrUnknownKey is returned by Get and Set for keys not in Keys().
var ErrUnknownKey = errors.New("unknown config key")

// Keys returns all configuration keys in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := prefix + tomlName(f)
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name+".", keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

func tomlName(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if tag == "" {
		return strings.ToLower(f.Name)
	}
	return tag
}

// field resolves a dot-notation key such as "ollama.url" to its field.
func (c *Config) field(key string) (reflect.Value, error) {
	v := reflect.ValueOf(c).Elem()
	parts := strings.Split(key, ".")
	for i, part := range parts {
		found := false
		for j := 0; j < v.NumField(); j++ {
			if tomlName(v.Type().Field(j)) == part {
				v = v.Field(j)
				found = true
				break
			}
		}
		if !found {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
		if i < len(parts)-1 && v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: '%s' is not a section", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: '%s' is a section", ErrUnknownKey, key)
	}
	return v, nil
}

// Get retrieves a configuration value using dot notation (e.g., "ollama.url").
func (c *Config) Get(key string) (any, error) {
	v, err := c.field(key)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Set parses value into the setting named by key. Lists are comma
// separated. Set does not validate; call Validate afterwards.
func (c *Config) Set(key, value string) error {
	v, err := c.field(key)
	if err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid integer value: %w", key, err)
		}
		v.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%s: invalid float value: %w", key, err)
		}
		v.SetFloat(f)
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		v.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("%s: cannot set %s values", key, v.Kind())
	}
	return nil
}

// =============================================================================
// CLONE AND STRING
// =============================================================================

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Models = slices.Clone(c.Models)
	return &clone
}

// Redacted returns a copy safe to print or log.
// SECURITY: The Gemini API key is replaced, never shown.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	return safe
}

// String returns the redacted config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
