package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	FrameCount int
	Checks     map[string]CheckResult
}

// Service coordinates health checks. The process only starts with a
// readable index, so a degraded report means a disabled segment or an
// unreachable dependency, never a missing index.
type Service struct {
	index     IndexReader
	embedding EmbeddingChecker
	cache     CachePinger
}

// New creates a Service. embedding and cache can be nil.
func New(index IndexReader, embedding EmbeddingChecker, cache CachePinger) *Service {
	return &Service{index: index, embedding: embedding, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["index_lexical"] = boolCheck(s.index.LexicalEnabled())
	checks["index_vector"] = boolCheck(s.index.VectorEnabled())

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:     status,
		FrameCount: s.index.FrameCount(),
		Checks:     checks,
	}
}

func boolCheck(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
