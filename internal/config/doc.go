// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ollachat.
//
// Configuration is TOML, with sensible defaults, .env loading, environment
// variable overrides and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - OllamaConfig: Local Ollama server address and timeouts
//   - GeminiConfig: Gemini API credentials
//   - ValidationError: One invalid setting, collected into ValidateErrors
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the caller)
//   - Environment variables (OLLACHAT_*, OLLAMA_HOST, GEMINI_API_KEY)
//   - .env files in the working directory and ~/.ollachat
//   - ~/.ollachat/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("")
//	if err != nil && cfg == nil {
//	    return err
//	}
//
// Read and change settings by key:
//
//	v, err := cfg.Get("ollama.url")
//	err = cfg.Set("temperature", "0.3")
package config
