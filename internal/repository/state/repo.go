// Package state resolves named entities to their slot maps via the
// index entity table.
package state

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/index"
)

// Repo reads entity state from an opened index.
type Repo struct {
	idx *index.Handle
}

// New creates an entity state reader.
func New(idx *index.Handle) *Repo {
	return &Repo{idx: idx}
}

// Get returns the slot map of a named entity. The lookup is a single
// map access independent of index size. The returned map is a copy;
// callers may mutate it freely.
func (r *Repo) Get(ctx context.Context, entity string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slots, ok := r.idx.Entity(entity)
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", entity, domain.ErrEntityNotFound)
	}
	out := make(map[string]string, len(slots))
	for k, v := range slots {
		out[k] = v
	}
	return out, nil
}
