package domain

import "errors"

var (
	// ErrIndexUnreadable signals an index artifact that cannot be opened at all.
	ErrIndexUnreadable = errors.New("index unreadable")
	// ErrLexIndexDisabled signals that the lexical segment failed to load.
	ErrLexIndexDisabled = errors.New("lexical index disabled")
	// ErrVecIndexDisabled signals that the vector segment failed to load.
	ErrVecIndexDisabled = errors.New("vector index disabled")
	// ErrEntityNotFound signals a state lookup miss.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrValidation signals request parameters out of bounds.
	ErrValidation = errors.New("validation failed")
	// ErrUpstreamUnavailable signals an unreachable or unconfigured completion provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamError signals a completion provider failure mid-generation.
	ErrUpstreamError = errors.New("upstream error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// Code returns the stable wire code for a domain error, or "internal_error"
// for anything outside the taxonomy. Codes are part of the API contract.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrIndexUnreadable):
		return "index_unreadable"
	case errors.Is(err, ErrLexIndexDisabled):
		return "lex_index_disabled"
	case errors.Is(err, ErrVecIndexDisabled):
		return "vec_index_disabled"
	case errors.Is(err, ErrEntityNotFound):
		return "entity_not_found"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrUpstreamError):
		return "upstream_error"
	case errors.Is(err, ErrEmbeddingProviderError):
		return "embedding_provider_error"
	default:
		return "internal_error"
	}
}
