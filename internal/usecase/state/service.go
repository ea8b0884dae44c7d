// Package state serves entity slot lookups from the index entity table.
package state

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Reader is the consumer interface for entity state (ISP).
type Reader interface {
	Get(ctx context.Context, entity string) (map[string]string, error)
}

// Entity is one resolved entity with its slot map.
type Entity struct {
	Name  string            `json:"name"`
	Slots map[string]string `json:"slots"`
}

// Service answers entity state queries.
type Service struct {
	reader Reader
	logger *zap.Logger
}

// New creates a state service.
func New(reader Reader, logger *zap.Logger) *Service {
	return &Service{reader: reader, logger: logger}
}

// Get resolves a named entity to its current slot values. The lookup
// cost does not depend on index size.
func (s *Service) Get(ctx context.Context, name string) (Entity, error) {
	slots, err := s.reader.Get(ctx, name)
	if err != nil {
		return Entity{}, fmt.Errorf("get entity state: %w", err)
	}
	return Entity{Name: name, Slots: slots}, nil
}
