package fit

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/search/mode"
	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
)

const (
	// MinJobDescriptionChars is the minimum accepted job description
	// length. Shorter texts don't carry enough signal to assess.
	MinJobDescriptionChars = 50

	// Retrieval parameters for assessment evidence. Wider and longer
	// than the chat defaults because the verdict spans the whole resume.
	assessTopK         = 10
	assessSnippetChars = 500

	// jdQueryChars bounds how much of the job description seeds the
	// retrieval query.
	jdQueryChars = 200
)

const assessmentQueryPrefix = "relevant experience and skills for role fit assessment: "

const assessmentPromptTemplate = `Analyze the candidate's fit for this job description and provide an honest, structured assessment.

JOB DESCRIPTION:
%s

CANDIDATE CONTEXT:
%s

Evaluate against these criteria:
%s

Provide a structured assessment with:

1. **VERDICT**: Rate the fit with stars (1 to 5) and brief summary (e.g., "4/5 Strong fit - Excellent match for AI infrastructure role")

2. **KEY MATCHES**: List 3-5 specific qualifications from the candidate's background that match the role requirements. Be specific with examples and metrics.

3. **GAPS**: List 2-4 honest gaps or limitations where the candidate may not be a perfect match. Be direct and factual.

4. **RECOMMENDATION**: Provide a balanced final recommendation (2-3 sentences) addressing whether the candidate should be considered and any important caveats.

Be honest and direct. Do not oversell. Hiring managers value credibility over enthusiasm.

Format your response exactly as:

VERDICT: [rating and summary]

KEY MATCHES:
- [match 1]
- [match 2]
- [match 3]

GAPS:
- [gap 1]
- [gap 2]

RECOMMENDATION: [recommendation text]
`

// Service runs one job description through classification, retrieval,
// and the structured assessment completion.
type Service struct {
	search    Searcher
	completer Completer
	logger    *zap.Logger
}

// New creates a fit assessment service. completer may be nil, in which
// case Assess reports the provider as unavailable.
func New(search Searcher, completer Completer, logger *zap.Logger) *Service {
	return &Service{search: search, completer: completer, logger: logger}
}

// Assess produces a structured fit verdict for the job description.
// Retrieval finding nothing is not an error; the assessment proceeds
// with empty context and says so.
func (s *Service) Assess(ctx context.Context, jobDescription string) (Assessment, error) {
	jd := strings.TrimSpace(jobDescription)
	if len(jd) < MinJobDescriptionChars {
		return Assessment{}, fmt.Errorf("%w: job_description must be at least %d characters",
			domain.ErrValidation, MinJobDescriptionChars)
	}
	if s.completer == nil {
		return Assessment{}, fmt.Errorf("%w: no completion provider configured",
			domain.ErrUpstreamUnavailable)
	}

	cls := Classify(jd)
	s.logger.Info("job description classified",
		zap.String("domain", cls.Domain),
		zap.String("level", cls.Level),
		zap.String("title", cls.Title),
	)

	req, err := request.New(assessmentQueryPrefix+truncateRunes(jd, jdQueryChars),
		mode.Hybrid, assessTopK, assessSnippetChars, 0, 0)
	if err != nil {
		return Assessment{}, fmt.Errorf("build assessment query: %w", err)
	}
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		return Assessment{}, fmt.Errorf("assessment retrieval: %w", err)
	}
	if len(resp.Hits) == 0 {
		s.logger.Warn("assessment retrieval returned no results",
			zap.String("title", cls.Title))
	}

	prompt := fmt.Sprintf(assessmentPromptTemplate, jd, evidence(resp.Hits), criteriaList(cls.Criteria))
	content, tokensUsed, err := s.completer.CompleteOnce(ctx, cls.Persona, prompt)
	if err != nil {
		return Assessment{}, fmt.Errorf("assessment completion: %w", err)
	}

	a := parseAssessment(content)
	a.Role = cls.Title
	a.ChunksRetrieved = len(resp.Hits)
	a.TokensUsed = tokensUsed

	s.logger.Info("fit assessment completed",
		zap.String("title", cls.Title),
		zap.Int("chunks_retrieved", a.ChunksRetrieved),
		zap.Int("tokens_used", a.TokensUsed),
		zap.String("verdict", a.Verdict),
	)
	return a, nil
}

func evidence(hits []result.Hit) string {
	if len(hits) == 0 {
		return "(no resume content retrieved)"
	}
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("**%s**\n%s", h.Title, h.Snippet)
	}
	return strings.Join(parts, "\n\n")
}

func criteriaList(criteria []string) string {
	var b strings.Builder
	for _, c := range criteria {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
