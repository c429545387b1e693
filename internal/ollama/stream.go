// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// maxLineBytes bounds a single NDJSON line.
const maxLineBytes = 1 << 20

// StreamReader handles line-by-line JSON parsing of streaming responses.
type StreamReader struct {
	reader     *bufio.Reader
	model      string
	tokenCount int
	done       bool
	startTime  time.Time
	firstToken time.Time
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader:    bufio.NewReader(r),
		startTime: time.Now(),
	}
}

// Next returns the next chunk of the reply. After the final chunk (Done set)
// it returns io.EOF. A body that ends before the final chunk yields
// io.ErrUnexpectedEOF; an in-band {"error": ...} line yields a ClientError.
func (s *StreamReader) Next() (StreamChunk, error) {
	for {
		if s.done {
			return StreamChunk{}, io.EOF
		}

		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return StreamChunk{}, io.ErrUnexpectedEOF
			}
			return StreamChunk{}, err
		}

		// Skip empty lines
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var response ChatResponse
		if err := json.Unmarshal(line, &response); err != nil {
			// Skip malformed lines
			continue
		}

		if response.Error != "" {
			return StreamChunk{}, &ClientError{Type: ErrTypeStream, Message: "ollama reported an error", Cause: errors.New(response.Error)}
		}

		return s.chunkFrom(response), nil
	}
}

// readLine reads one newline-terminated line, tolerating a final line with
// no terminator.
func (s *StreamReader) readLine() ([]byte, error) {
	var line []byte
	for {
		part, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			if len(line) > 0 && errors.Is(err, io.EOF) {
				return line, nil
			}
			return nil, err
		}
		line = append(line, part...)
		if len(line) > maxLineBytes {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "stream line too long"}
		}
		if !isPrefix {
			return line, nil
		}
	}
}

// chunkFrom converts a decoded line into a chunk and tracks stream state.
func (s *StreamReader) chunkFrom(response ChatResponse) StreamChunk {
	if response.Model != "" {
		s.model = response.Model
	}

	content := response.Message.Content
	if content != "" {
		s.tokenCount++
		if s.firstToken.IsZero() {
			s.firstToken = time.Now()
		}
	}

	chunk := StreamChunk{
		Content:    content,
		Done:       response.Done,
		DoneReason: response.DoneReason,
		Model:      s.model,
	}

	// On completion, extract statistics
	if response.Done {
		s.done = true
		chunk.TotalDuration = time.Duration(response.TotalDuration)
		chunk.LoadDuration = time.Duration(response.LoadDuration)
		chunk.PromptEvalDuration = time.Duration(response.PromptEvalDuration)
		chunk.EvalDuration = time.Duration(response.EvalDuration)
		chunk.PromptTokens = response.PromptEvalCount
		chunk.CompletionTokens = response.EvalCount
	}

	return chunk
}

// TokenCount returns the number of content chunks received.
func (s *StreamReader) TokenCount() int {
	return s.tokenCount
}

// TTFT returns the time to first token, or zero before any content arrived.
func (s *StreamReader) TTFT() time.Duration {
	if s.firstToken.IsZero() {
		return 0
	}
	return s.firstToken.Sub(s.startTime)
}

// =============================================================================
// CHAT STREAM
// =============================================================================

// ChatStream is an open streaming reply. It is not safe for concurrent use,
// except for Close which may be called from any goroutine.
type ChatStream struct {
	body      io.ReadCloser
	reader    *StreamReader
	final     *StreamChunk
	closeOnce sync.Once
}

// NextChunk returns the next chunk, io.EOF after the final one.
func (s *ChatStream) NextChunk() (StreamChunk, error) {
	chunk, err := s.reader.Next()
	if err == nil && chunk.Done {
		c := chunk
		s.final = &c
	}
	return chunk, err
}

// Final returns the closing chunk with timing statistics, once received.
func (s *ChatStream) Final() (StreamChunk, bool) {
	if s.final == nil {
		return StreamChunk{}, false
	}
	return *s.final, true
}

// TTFT returns the time from opening the stream to the first content.
func (s *ChatStream) TTFT() time.Duration {
	return s.reader.TTFT()
}

// Close releases the HTTP connection.
func (s *ChatStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
