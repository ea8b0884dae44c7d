// Package fit assesses candidate fit for a job description: classify
// the role, retrieve matching resume evidence, and ask the completion
// provider for a structured verdict.
package fit

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	"github.com/kailas-cloud/askdex/internal/usecase/search"
)

// Searcher retrieves resume evidence for the assessment.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (search.Response, error)
}

// Completer produces the buffered assessment completion. Returns the
// full text and total tokens used.
type Completer interface {
	CompleteOnce(ctx context.Context, system, user string) (string, int, error)
}

// Assessment is the structured fit verdict for one job description.
type Assessment struct {
	Verdict         string
	KeyMatches      []string
	Gaps            []string
	Recommendation  string
	Role            string
	ChunksRetrieved int
	TokensUsed      int
}
