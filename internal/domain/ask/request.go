package ask

import (
	"github.com/kailas-cloud/askdex/internal/domain/search/mode"
	"github.com/kailas-cloud/askdex/internal/domain/search/request"
)

// Request is a validated question-answering request. Retrieval
// parameters share the search request validation rules.
type Request struct {
	retrieval         request.Request
	useExternalAnswer bool
}

// New validates and normalizes ask parameters. When useExternalAnswer
// is false the answer is synthesized from the evidence snippets without
// calling the completion provider.
func New(question string, m mode.Mode, topK, snippetChars int, asOfFrame, asOfTS int64, useExternalAnswer bool) (Request, error) {
	retrieval, err := request.New(question, m, topK, snippetChars, asOfFrame, asOfTS)
	if err != nil {
		return Request{}, err
	}
	return Request{retrieval: retrieval, useExternalAnswer: useExternalAnswer}, nil
}

// Question returns the question text.
func (r *Request) Question() string { return r.retrieval.Query() }

// Retrieval returns the validated retrieval parameters.
func (r *Request) Retrieval() request.Request { return r.retrieval }

// UseExternalAnswer reports whether the completion provider should
// synthesize the answer.
func (r *Request) UseExternalAnswer() bool { return r.useExternalAnswer }
