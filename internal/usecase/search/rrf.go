package search

import (
	"sort"

	"github.com/kailas-cloud/askdex/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges lexical and vector rankings via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) over the rankings where d appears;
// a chunk present in only one list contributes only that term. Output is
// sorted by fused score descending, ties broken by ascending chunk id,
// truncated to topK, with ranks reassigned 1..n.
func fuseRRF(lex, vec []result.Candidate, topK int) []result.Candidate {
	scores := make(map[string]float64)

	for _, c := range lex {
		scores[c.ChunkID()] += 1.0 / float64(rrfK+c.Rank())
	}
	for _, c := range vec {
		scores[c.ChunkID()] += 1.0 / float64(rrfK+c.Rank())
	}

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

	if len(ids) > topK {
		ids = ids[:topK]
	}

	fused := make([]result.Candidate, len(ids))
	for i, id := range ids {
		fused[i] = result.New(id, scores[id], i+1)
	}
	return fused
}

// truncate caps a single-ranker passthrough at topK, preserving order.
func truncate(candidates []result.Candidate, topK int) []result.Candidate {
	if len(candidates) > topK {
		return candidates[:topK]
	}
	return candidates
}
