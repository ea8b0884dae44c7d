package ask

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	"github.com/kailas-cloud/askdex/internal/usecase/search"
)

// Searcher runs retrieval for the question.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (search.Response, error)
}

// Completer streams a grounded answer from the completion provider.
// Deltas arrive in generation order; onDelta is called once per delta.
// The returned count is total tokens consumed by the call.
type Completer interface {
	Complete(ctx context.Context, question, evidence string, onDelta func(token string)) (int, error)
}

// Transformer rewrites a conversational question into a
// retrieval-friendly query. Implementations must fall back to the
// original question on any failure, so Transform never errors.
type Transformer interface {
	Transform(ctx context.Context, question string) string
}

// OneShot produces a single buffered completion. Returns the full
// text and total tokens used.
type OneShot interface {
	CompleteOnce(ctx context.Context, system, user string) (string, int, error)
}

// Guard screens questions and finished answers.
type Guard interface {
	CheckInput(text string) (ok bool, refusal string)
	FilterOutput(answer string) (safe string, filtered bool)
}
