package search

import (
	"context"
	"sort"
	"strings"
)

// OverlapReranker scores (query, passage) pairs by frequency-weighted
// query-term overlap. A cheap stand-in for a cross-encoder that still
// rewards passages mentioning more of the query vocabulary.
type OverlapReranker struct{}

// NewOverlapReranker creates the term-overlap reranker.
func NewOverlapReranker() *OverlapReranker {
	return &OverlapReranker{}
}

// Rerank implements Reranker. Returns one entry per document, sorted by
// descending score with ties broken by ascending input index.
func (r *OverlapReranker) Rerank(ctx context.Context, query string, docs []string) ([]RerankedDoc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := tokenizeTerms(query)
	out := make([]RerankedDoc, len(docs))
	for i, doc := range docs {
		out[i] = RerankedDoc{Index: i, Score: overlapScore(terms, doc)}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

// overlapScore returns the fraction of query terms present in doc,
// weighted by how often each appears.
func overlapScore(terms map[string]struct{}, doc string) float64 {
	if len(terms) == 0 {
		return 0
	}
	docTerms := tokenizeCounts(doc)
	var score float64
	for term := range terms {
		if n := docTerms[term]; n > 0 {
			// Diminishing returns on repeated mentions.
			score += 1 + 0.1*float64(n-1)
		}
	}
	return score / float64(len(terms))
}

func tokenizeTerms(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for term := range tokenizeCounts(text) {
		out[term] = struct{}{}
	}
	return out
}

func tokenizeCounts(text string) map[string]int {
	out := make(map[string]int)
	for _, f := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(f) >= 2 {
			out[f]++
		}
	}
	return out
}
