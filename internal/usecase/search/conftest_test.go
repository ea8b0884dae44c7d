package search

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/search/mode"
	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
)

type mockLexical struct {
	candidates []result.Candidate
	err        error
	calls      int
	lastQuery  string
}

func (m *mockLexical) Rank(_ context.Context, query string, _, _ int64) ([]result.Candidate, error) {
	m.calls++
	m.lastQuery = query
	return m.candidates, m.err
}

type mockVector struct {
	candidates []result.Candidate
	err        error
	calls      int
	lastVec    []float32
}

func (m *mockVector) Rank(_ context.Context, queryVec []float32, _, _ int64) ([]result.Candidate, error) {
	m.calls++
	m.lastVec = queryVec
	return m.candidates, m.err
}

type mockChunks struct {
	chunks map[string]domain.Chunk
}

func (m *mockChunks) Chunk(id string) (domain.Chunk, bool) {
	c, ok := m.chunks[id]
	return c, ok
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockReranker struct {
	out   []RerankedDoc
	err   error
	calls int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, docs []string) ([]RerankedDoc, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.out != nil {
		return m.out, nil
	}
	// Identity ordering by default.
	out := make([]RerankedDoc, len(docs))
	for i := range docs {
		out[i] = RerankedDoc{Index: i, Score: float64(len(docs) - i)}
	}
	return out, nil
}

func testChunks(ids ...string) *mockChunks {
	m := &mockChunks{chunks: make(map[string]domain.Chunk)}
	for _, id := range ids {
		m.chunks[id] = domain.Chunk{
			ID:    id,
			Title: "Title " + id,
			Text:  "Body text for chunk " + id,
		}
	}
	return m
}

func mustRequest(t *testing.T, query string, m mode.Mode, topK int) *request.Request {
	t.Helper()
	req, err := request.New(query, m, topK, 0, 0, 0)
	if err != nil {
		t.Fatalf("request.New() error = %v", err)
	}
	return &req
}

func candidates(ids ...string) []result.Candidate {
	out := make([]result.Candidate, len(ids))
	for i, id := range ids {
		out[i] = result.New(id, 1.0/float64(i+1), i+1)
	}
	return out
}

func hitIDs(hits []result.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ChunkID
	}
	return out
}

func newTestService(lex *mockLexical, vec *mockVector, chunks *mockChunks, emb Embedder) *Service {
	return New(lex, vec, chunks, emb, zap.NewNop())
}
