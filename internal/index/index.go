// Package index opens the read-only resume index artifact and exposes
// lexical postings, chunk embeddings, and the entity-state map.
//
// The artifact is a single bbolt file produced by the ingest pipeline.
// It is loaded fully into memory at open time and frozen; concurrent
// readers share the handle without locking.
package index

import (
	"sort"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// Posting is one lexical index entry: a chunk containing a term and the
// term frequency within that chunk.
type Posting struct {
	ChunkID string `json:"chunk_id"`
	TF      int    `json:"tf"`
}

// Stats holds corpus-level statistics required by BM25.
type Stats struct {
	ChunkCount  int     `json:"chunk_count"`
	AvgChunkLen float64 `json:"avg_chunk_len"`
}

// Handle is the opened, frozen index artifact. All maps are populated
// once by Open and never mutated afterwards; every accessor is a pure
// read and safe for concurrent use.
type Handle struct {
	path string

	chunks   map[string]domain.Chunk
	lengths  map[string]int
	postings map[string][]Posting
	vectors  map[string][]float32
	entities map[string]map[string]string

	stats     Stats
	vectorDim int

	lexicalEnabled bool
	vectorEnabled  bool
}

// Path returns the artifact file path.
func (h *Handle) Path() string { return h.path }

// Stats returns corpus statistics.
func (h *Handle) Stats() Stats { return h.stats }

// FrameCount returns the number of chunks in the index.
func (h *Handle) FrameCount() int { return len(h.chunks) }

// VectorDim returns the embedding dimensionality (0 when the vector
// segment is disabled).
func (h *Handle) VectorDim() int { return h.vectorDim }

// LexicalEnabled reports whether the lexical segment deserialized.
func (h *Handle) LexicalEnabled() bool { return h.lexicalEnabled }

// VectorEnabled reports whether the vector segment deserialized.
func (h *Handle) VectorEnabled() bool { return h.vectorEnabled }

// Chunk returns the chunk record for an id.
func (h *Handle) Chunk(id string) (domain.Chunk, bool) {
	c, ok := h.chunks[id]
	return c, ok
}

// Length returns the token length of a chunk (0 when unknown).
func (h *Handle) Length(id string) int { return h.lengths[id] }

// Postings returns the lexical posting list for a term. Callers must
// not mutate the returned slice.
func (h *Handle) Postings(term string) []Posting { return h.postings[term] }

// Embedding returns the stored embedding for a chunk id. Callers must
// not mutate the returned slice.
func (h *Handle) Embedding(id string) ([]float32, bool) {
	v, ok := h.vectors[id]
	return v, ok
}

// VectorIDs returns all chunk ids present in the vector table, sorted
// ascending for deterministic iteration.
func (h *Handle) VectorIDs() []string {
	ids := make([]string, 0, len(h.vectors))
	for id := range h.vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entity returns the slot map for a named entity. The lookup is a
// single map access regardless of index size.
func (h *Handle) Entity(name string) (map[string]string, bool) {
	slots, ok := h.entities[name]
	return slots, ok
}

// Close releases the in-memory index. The artifact file itself is
// closed at the end of Open.
func (h *Handle) Close() {
	h.chunks = nil
	h.lengths = nil
	h.postings = nil
	h.vectors = nil
	h.entities = nil
}
