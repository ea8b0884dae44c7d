package index

import "github.com/kailas-cloud/askdex/internal/domain"

// Reconstruct assembles a Handle from already-loaded segments, bypassing
// the artifact file. Used by tests and by tooling that builds indexes
// in memory.
func Reconstruct(
	chunks []domain.Chunk,
	lengths map[string]int,
	postings map[string][]Posting,
	vectors map[string][]float32,
	entities map[string]map[string]string,
	lexicalEnabled, vectorEnabled bool,
) *Handle {
	h := &Handle{
		chunks:         make(map[string]domain.Chunk, len(chunks)),
		lengths:        make(map[string]int, len(lengths)),
		postings:       make(map[string][]Posting, len(postings)),
		vectors:        make(map[string][]float32, len(vectors)),
		entities:       make(map[string]map[string]string, len(entities)),
		lexicalEnabled: lexicalEnabled,
		vectorEnabled:  vectorEnabled,
	}
	total := 0
	for _, c := range chunks {
		h.chunks[c.ID] = c
		l := lengths[c.ID]
		h.lengths[c.ID] = l
		total += l
	}
	for term, list := range postings {
		h.postings[term] = list
	}
	for id, vec := range vectors {
		h.vectors[id] = vec
		if h.vectorDim == 0 {
			h.vectorDim = len(vec)
		}
	}
	for name, slots := range entities {
		h.entities[name] = slots
	}
	h.stats = Stats{ChunkCount: len(chunks)}
	if len(chunks) > 0 {
		h.stats.AvgChunkLen = float64(total) / float64(len(chunks))
	}
	return h
}
