// Package vector ranks chunks by cosine similarity against the stored
// embedding table.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
	"github.com/kailas-cloud/askdex/internal/index"
)

// Repo scores candidates from the vector segment of the index.
type Repo struct {
	idx *index.Handle
}

// New creates a vector ranker over an opened index.
func New(idx *index.Handle) *Repo {
	return &Repo{idx: idx}
}

// Rank scores every chunk in the vector table by cosine similarity to
// the query embedding, sorted descending with ties broken by ascending
// chunk id. Chunks past the time-travel cutoff are excluded.
func (r *Repo) Rank(ctx context.Context, queryVec []float32, asOfFrame, asOfTS int64) ([]result.Candidate, error) {
	if !r.idx.VectorEnabled() {
		return nil, domain.ErrVecIndexDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dim := r.idx.VectorDim(); len(queryVec) != dim {
		return nil, fmt.Errorf("query embedding has dim %d, index has %d: %w",
			len(queryVec), dim, domain.ErrValidation)
	}

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, r.idx.FrameCount())

	for _, id := range r.idx.VectorIDs() {
		chunk, ok := r.idx.Chunk(id)
		if !ok || !chunk.VisibleAt(asOfFrame, asOfTS) {
			continue
		}
		vec, _ := r.idx.Embedding(id)
		candidates = append(candidates, scored{id: id, score: Cosine(queryVec, vec)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	out := make([]result.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = result.New(c.id, c.score, i+1)
	}
	return out, nil
}

// Cosine computes cosine similarity between two equal-length vectors.
// Returns 0 when either vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
