// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// The client speaks the streaming /api/chat endpoint, where every response
// line is one JSON object carrying the next piece of the reply, and the
// /api/tags endpoint used to list installed models.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - ChatStream: Open streaming reply; pull chunks with Next
//   - StreamReader: Line-by-line NDJSON decoder behind ChatStream
//   - Backend: Adapter that makes a Client an inference.Backend
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	stream, err := client.ChatStream(ctx, ollama.ChatRequest{
//	    Model:    "gemma3:1b",
//	    Messages: []ollama.Message{{Role: "user", Content: "Hello"}},
//	    Options:  &ollama.Options{Temperature: 0.7, NumPredict: 256},
//	})
//	defer stream.Close()
//	for {
//	    chunk, err := stream.NextChunk()
//	    if err == io.EOF {
//	        break
//	    }
//	    fmt.Print(chunk.Content)
//	}
package ollama
