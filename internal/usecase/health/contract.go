package health

import "context"

// IndexReader exposes index segment state for readiness reporting.
type IndexReader interface {
	LexicalEnabled() bool
	VectorEnabled() bool
	FrameCount() int
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
