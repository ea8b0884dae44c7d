package request

import (
	"fmt"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 2000
	DefaultTopK    = 5
	MaxTopK        = 20
	// DefaultSnippetChars bounds snippet length when the caller does not set one.
	DefaultSnippetChars = 200
	MaxSnippetChars     = 1000
)

// Request is a validated retrieval query.
type Request struct {
	query        string
	searchMode   mode.Mode
	topK         int
	snippetChars int
	asOfFrame    int64
	asOfTS       int64
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, topK=5, snippetChars=200. Values above the
// hard maximums are rejected, not clamped, so callers learn about the
// limit instead of silently getting fewer results.
func New(query string, m mode.Mode, topK, snippetChars int, asOfFrame, asOfTS int64) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrValidation, m)
	}
	if topK < 0 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrValidation, MaxTopK)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if snippetChars < 0 || snippetChars > MaxSnippetChars {
		return Request{}, fmt.Errorf("%w: snippet_chars must be between 1 and %d", domain.ErrValidation, MaxSnippetChars)
	}
	if snippetChars == 0 {
		snippetChars = DefaultSnippetChars
	}
	if asOfFrame < 0 || asOfTS < 0 {
		return Request{}, fmt.Errorf("%w: as_of cutoff must be non-negative", domain.ErrValidation)
	}

	return Request{
		query:        query,
		searchMode:   m,
		topK:         topK,
		snippetChars: snippetChars,
		asOfFrame:    asOfFrame,
		asOfTS:       asOfTS,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// WithQuery returns a copy of the request targeting a rewritten query.
// An empty or oversized rewrite keeps the original query, so callers
// can apply rewrites without re-validating.
func (r Request) WithQuery(query string) Request {
	if query == "" || len(query) > MaxQueryLength {
		return r
	}
	r.query = query
	return r
}

// Mode returns the retrieval strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// TopK returns the maximum number of fused results.
func (r *Request) TopK() int { return r.topK }

// SnippetChars returns the snippet length bound.
func (r *Request) SnippetChars() int { return r.snippetChars }

// AsOfFrame returns the time-travel frame cutoff (0 = none).
func (r *Request) AsOfFrame() int64 { return r.asOfFrame }

// AsOfTS returns the time-travel timestamp cutoff (0 = none).
func (r *Request) AsOfTS() int64 { return r.asOfTS }
