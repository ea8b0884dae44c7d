package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// streamChunk writes one SSE chunk in the chat completion stream format.
func streamChunk(w http.ResponseWriter, content string) {
	fmt.Fprintf(w,
		`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":%q}}]}`+"\n\n",
		content)
}

func newStreamServer(t *testing.T, tokens []string, usage int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")

		for _, tok := range tokens {
			streamChunk(w, tok)
		}
		if usage > 0 {
			fmt.Fprintf(w,
				`data: {"id":"1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":1,"completion_tokens":%d,"total_tokens":%d}}`+"\n\n",
				usage-1, usage)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newTestCompleter(url string) *Completer {
	return NewCompleter(&CompleterConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestCompleter_StreamsDeltasInOrder(t *testing.T) {
	server := newStreamServer(t, []string{"Go ", "is ", "great."}, 12)
	defer server.Close()

	c := newTestCompleter(server.URL)

	var got []string
	tokens, err := c.Complete(context.Background(), "question", "evidence", func(tok string) {
		got = append(got, tok)
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if strings.Join(got, "") != "Go is great." {
		t.Errorf("unexpected answer: %q", strings.Join(got, ""))
	}
	if tokens != 12 {
		t.Errorf("expected tokens=12 from usage, got %d", tokens)
	}
}

func TestCompleter_FallsBackToDeltaCountWithoutUsage(t *testing.T) {
	server := newStreamServer(t, []string{"a", "b", "c"}, 0)
	defer server.Close()

	c := newTestCompleter(server.URL)

	tokens, err := c.Complete(context.Background(), "q", "e", func(string) {})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if tokens != 3 {
		t.Errorf("expected tokens=3 (delta count), got %d", tokens)
	}
}

func TestCompleter_SendsContextInSystemPrompt(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)

		w.Header().Set("Content-Type", "text/event-stream")
		streamChunk(w, "ok")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c := newTestCompleter(server.URL)
	_, err := c.Complete(context.Background(), "what did you build?", "**Role**\nbuilt services", func(string) {})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if !strings.Contains(gotBody, "CONTEXT FROM RESUME") {
		t.Error("system prompt missing context block")
	}
	if !strings.Contains(gotBody, "built services") {
		t.Error("system prompt missing evidence")
	}
	if !strings.Contains(gotBody, "what did you build?") {
		t.Error("request missing user question")
	}
}

func TestCompleter_AuthErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"auth_error"}}`)
	}))
	defer server.Close()

	c := newTestCompleter(server.URL)
	_, err := c.Complete(context.Background(), "q", "e", func(string) {})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestCompleter_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestCompleter(server.URL)
	_, err := c.Complete(context.Background(), "q", "e", func(string) {})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable before first delta, got %v", err)
	}
}

func TestCompleter_CancelledContext(t *testing.T) {
	server := newStreamServer(t, []string{"a", "b"}, 0)
	defer server.Close()

	c := newTestCompleter(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, "q", "e", func(string) {})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestCompleter_CompleteOnce(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"golang backend services"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	}))
	defer server.Close()

	c := newTestCompleter(server.URL)
	text, tokens, err := c.CompleteOnce(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "golang backend services" {
		t.Errorf("text = %q", text)
	}
	if tokens != 15 {
		t.Errorf("tokens = %d, want 15", tokens)
	}
	if !strings.Contains(gotBody, "system prompt") || !strings.Contains(gotBody, "user prompt") {
		t.Errorf("request body missing prompts: %s", gotBody)
	}
}

func TestCompleter_CompleteOnceAuthErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"auth_error"}}`)
	}))
	defer server.Close()

	c := newTestCompleter(server.URL)
	_, _, err := c.CompleteOnce(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
