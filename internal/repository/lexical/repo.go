// Package lexical ranks chunks with BM25 over the index posting lists.
package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
	"github.com/kailas-cloud/askdex/internal/index"
)

// BM25 constants. Standard values; the ingest pipeline computes term
// frequencies and chunk lengths these depend on.
const (
	k1 = 1.2
	b  = 0.75
)

// Repo scores candidates from the lexical segment of the index.
type Repo struct {
	idx *index.Handle
}

// New creates a lexical ranker over an opened index.
func New(idx *index.Handle) *Repo {
	return &Repo{idx: idx}
}

// Rank scores every chunk containing at least one query term, sorted by
// descending BM25 score with ties broken by ascending chunk id. Chunks
// past the time-travel cutoff are excluded before scoring.
func (r *Repo) Rank(ctx context.Context, query string, asOfFrame, asOfTS int64) ([]result.Candidate, error) {
	if !r.idx.LexicalEnabled() {
		return nil, domain.ErrLexIndexDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	stats := r.idx.Stats()
	n := float64(stats.ChunkCount)
	avgLen := stats.AvgChunkLen
	if avgLen <= 0 {
		avgLen = 1
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		postings := r.idx.Postings(term)
		if len(postings) == 0 {
			continue
		}

		df := float64(len(postings))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)

		for _, p := range postings {
			chunk, ok := r.idx.Chunk(p.ChunkID)
			if !ok || !chunk.VisibleAt(asOfFrame, asOfTS) {
				continue
			}
			dl := float64(r.idx.Length(p.ChunkID))
			tf := float64(p.TF)
			scores[p.ChunkID] += idf * (tf * (k1 + 1)) / (tf + k1*(1-b+b*dl/avgLen))
		}
	}

	return sortCandidates(scores), nil
}

// sortCandidates orders by descending score, ascending chunk id on ties,
// and assigns 1-based ranks.
func sortCandidates(scores map[string]float64) []result.Candidate {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	out := make([]result.Candidate, len(ids))
	for i, id := range ids {
		out[i] = result.New(id, scores[id], i+1)
	}
	return out
}

// Tokenize lowercases and splits on non-alphanumeric runes, dropping
// single-rune tokens. Must stay in sync with the ingest tokenizer.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}
