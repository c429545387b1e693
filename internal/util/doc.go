// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and string helpers shared by ollachat.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe replace of a file (temp file, fsync, rename)
//   - ExpandHome: resolve a leading "~" against the user's home directory
//
// String Utilities:
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - PadRight: pad a string to a display width
//   - SanitizeFilename: turn a conversation name into a safe file name part
//
// # Usage
//
//	// Replace the chat store without ever leaving a half-written file
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Fit a conversation name into the sidebar
//	label := util.TruncateWidth(name, 20)
package util
