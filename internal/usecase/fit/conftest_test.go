package fit

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
	"github.com/kailas-cloud/askdex/internal/usecase/search"
)

type mockSearcher struct {
	resp search.Response
	err  error

	gotReq *request.Request
}

func (m *mockSearcher) Search(_ context.Context, req *request.Request) (search.Response, error) {
	m.gotReq = req
	return m.resp, m.err
}

type mockCompleter struct {
	text   string
	tokens int
	err    error

	gotSystem string
	gotUser   string
}

func (m *mockCompleter) CompleteOnce(_ context.Context, system, user string) (string, int, error) {
	m.gotSystem = system
	m.gotUser = user
	return m.text, m.tokens, m.err
}

func testHits(n int) []result.Hit {
	hits := make([]result.Hit, n)
	for i := range hits {
		hits[i] = result.Hit{
			ChunkID: string(rune('a' + i)),
			Title:   "Platform Engineering",
			Snippet: "led migration of payment services to Kubernetes",
		}
	}
	return hits
}

// testJD is long enough to pass validation and classifies as a
// technology ic-senior role.
const testJD = `Staff Engineer, Infrastructure

We are looking for a Staff Engineer to own our cloud platform.
You will design distributed systems, drive architecture decisions,
and improve deployment tooling across backend teams.`

const testAssessmentOutput = `VERDICT: 4/5 Strong fit - deep platform background

KEY MATCHES:
- Led Kubernetes migration for payment services
- Designed distributed systems at scale

GAPS:
- No direct experience with the team's observability stack

RECOMMENDATION: Worth interviewing. The platform depth covers the
core of the role; dig into observability experience on-site.`
