package sdk

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const doneSentinel = "[DONE]"

// AskRequest holds answer generation parameters.
type AskRequest struct {
	Question          string `json:"question"`
	TopK              int    `json:"top_k,omitempty"`
	Mode              string `json:"mode,omitempty"`
	UseExternalAnswer *bool  `json:"use_external_answer,omitempty"`
}

// EventType discriminates answer stream events.
type EventType string

// Answer stream event types.
const (
	EventRetrieval EventType = "retrieval"
	EventToken     EventType = "token"
	EventStats     EventType = "stats"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Stats summarizes a completed answer.
type Stats struct {
	ChunksRetrieved int     `json:"chunks_retrieved"`
	TokensUsed      int     `json:"tokens_used"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// Event is one element of the ordered answer stream.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Chunks  int       `json:"chunks,omitempty"`
	Stats   *Stats    `json:"stats,omitempty"`
	Error   string    `json:"error,omitempty"`
	Code    string    `json:"code,omitempty"`
}

// Stream is an open answer stream. Callers must Close it.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// Recv returns the next event. It returns io.EOF after the server's
// done sentinel or when the connection closes.
func (s *Stream) Recv() (Event, error) {
	if s.done {
		return Event{}, io.EOF
	}
	for s.scanner.Scan() {
		line := s.scanner.Text()
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if payload == doneSentinel {
			s.done = true
			return Event{}, io.EOF
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// Servers occasionally flush partial or non-JSON
			// payloads; surface them as raw token text instead
			// of breaking the stream.
			return Event{Type: EventToken, Content: payload}, nil
		}
		return ev, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("askdex: read stream: %w", err)
	}
	return Event{}, io.EOF
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.body.Close()
}

// Ask opens a streaming answer for the given question. The returned
// stream stays open until the context is cancelled, the stream is
// closed, or the server terminates it.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("askdex: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ask", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("askdex: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("askdex: request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	return &Stream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

// CollectAnswer drains an answer stream into the concatenated token
// text and the final stats. It returns the server's error event as an
// *APIError when the stream terminates abnormally.
func CollectAnswer(s *Stream) (string, *Stats, error) {
	defer s.Close()

	var sb strings.Builder
	var stats *Stats
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			return sb.String(), stats, nil
		}
		if err != nil {
			return sb.String(), stats, err
		}
		switch ev.Type {
		case EventToken:
			sb.WriteString(ev.Content)
		case EventStats:
			stats = ev.Stats
		case EventError:
			return sb.String(), stats, &APIError{Code: ev.Code, Message: ev.Error}
		}
	}
}
