package search

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
)

// LexicalRanker scores chunks by BM25 over the lexical segment.
type LexicalRanker interface {
	Rank(ctx context.Context, query string, asOfFrame, asOfTS int64) ([]result.Candidate, error)
}

// VectorRanker scores chunks by cosine similarity over the vector segment.
type VectorRanker interface {
	Rank(ctx context.Context, queryVec []float32, asOfFrame, asOfTS int64) ([]result.Candidate, error)
}

// ChunkReader resolves candidate ids to chunk records.
type ChunkReader interface {
	Chunk(id string) (domain.Chunk, bool)
}

// Embedder vectorizes the query text before vector ranking.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// RerankedDoc is one reranker output: the input index and its joint
// relevance score.
type RerankedDoc struct {
	Index int
	Score float64
}

// Reranker recomputes a joint (query, passage) relevance score for each
// document. It must return exactly one entry per input document.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]RerankedDoc, error)
}
