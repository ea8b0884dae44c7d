package ask

import (
	"context"
	"testing"

	"go.uber.org/zap"

	domainask "github.com/kailas-cloud/askdex/internal/domain/ask"
	"github.com/kailas-cloud/askdex/internal/domain/search/mode"
	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
	"github.com/kailas-cloud/askdex/internal/usecase/search"
)

const testQuestion = "what did you build?"

type mockSearcher struct {
	resp search.Response
	err  error

	gotQuery string
}

func (m *mockSearcher) Search(_ context.Context, req *request.Request) (search.Response, error) {
	m.gotQuery = req.Query()
	return m.resp, m.err
}

type mockCompleter struct {
	tokens     []string
	tokensUsed int
	err        error
	// errAfter emits this many tokens before returning err.
	errAfter int

	gotQuestion string
}

func (m *mockCompleter) Complete(ctx context.Context, question, _ string, onDelta func(string)) (int, error) {
	m.gotQuestion = question
	for i, tok := range m.tokens {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if m.err != nil && i == m.errAfter {
			return 0, m.err
		}
		onDelta(tok)
	}
	if m.err != nil && m.errAfter >= len(m.tokens) {
		return 0, m.err
	}
	return m.tokensUsed, nil
}

type mockGuard struct {
	blockInput   bool
	refusal      string
	filterOutput bool
	replacement  string
}

func (m *mockGuard) CheckInput(_ string) (bool, string) {
	if m.blockInput {
		return false, m.refusal
	}
	return true, ""
}

func (m *mockGuard) FilterOutput(answer string) (string, bool) {
	if m.filterOutput {
		return m.replacement, true
	}
	return answer, false
}

// collector records every event the streamer lets through.
type collector struct {
	events []domainask.Event
	err    error
	// failAt returns err from the sink starting at this event index.
	failAt int
}

func newCollector() *collector { return &collector{failAt: -1} }

func (c *collector) emit(e domainask.Event) error {
	if c.failAt >= 0 && len(c.events) >= c.failAt {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func (c *collector) types() []domainask.EventType {
	out := make([]domainask.EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func (c *collector) answer() string {
	var b []byte
	for _, e := range c.events {
		if e.Type == domainask.EventToken {
			b = append(b, e.Content...)
		}
	}
	return string(b)
}

func testHits(n int) []result.Hit {
	hits := make([]result.Hit, n)
	for i := range hits {
		hits[i] = result.Hit{
			ChunkID: string(rune('a' + i)),
			Title:   "Role",
			Snippet: "built backend services",
			Text:    "built backend services in Go",
		}
	}
	return hits
}

func testRequest(t *testing.T, external bool) domainask.Request {
	t.Helper()
	req, err := domainask.New(testQuestion, mode.Hybrid, 0, 0, 0, 0, external)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return req
}

func assertTypes(t *testing.T, got, want []domainask.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count mismatch:\ngot:  %v\nwant: %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d mismatch:\ngot:  %v\nwant: %v", i, got, want)
		}
	}
}

func newTestService(searcher *mockSearcher, completer *mockCompleter, g Guard) *Service {
	var c Completer
	if completer != nil {
		c = completer
	}
	return New(searcher, c, g, zap.NewNop())
}
