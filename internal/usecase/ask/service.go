// Package ask orchestrates the answer pipeline: input guard, retrieval,
// evidence assembly, and the streamed completion.
package ask

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	domainask "github.com/kailas-cloud/askdex/internal/domain/ask"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// noResultsAnswer is served when retrieval finds nothing. The model is
// never asked to answer without grounding.
const noResultsAnswer = "I couldn't find relevant information to answer that question. " +
	"This could mean:\n" +
	"- The information isn't in the resume\n" +
	"- The question uses different terminology than the resume\n" +
	"- Try rephrasing with more specific terms or asking about a different topic"

// Service runs one question through guard, retrieval, and answering.
type Service struct {
	search    Searcher
	completer Completer
	guard     Guard
	transform Transformer
	logger    *zap.Logger
}

// New creates an ask service. guard may be nil to disable screening;
// completer may be nil, in which case answers synthesize evidence
// directly.
func New(search Searcher, completer Completer, guard Guard, logger *zap.Logger) *Service {
	return &Service{search: search, completer: completer, guard: guard, logger: logger}
}

// WithTransformer rewrites questions before retrieval. The original
// question still reaches the completion provider; only the retrieval
// query is rewritten.
func (s *Service) WithTransformer(t Transformer) *Service {
	s.transform = t
	return s
}

// Ask answers a question as an ordered event stream delivered through
// emit. Pipeline failures become a terminal error event; the returned
// error is non-nil only when the client is gone and the stream could
// not be finished.
func (s *Service) Ask(ctx context.Context, req domainask.Request, emit EmitFunc) error {
	start := time.Now()
	st := NewStreamer(ctx, emit, s.logger)

	if s.guard != nil {
		if ok, refusal := s.guard.CheckInput(req.Question()); !ok {
			s.logger.Warn("question blocked by input guard",
				zap.String("question_preview", preview(req.Question(), 50)))
			return s.streamCanned(st, refusal, 0, start)
		}
	}

	retrieval := req.Retrieval()
	if s.transform != nil {
		retrieval = retrieval.WithQuery(s.transform.Transform(ctx, req.Question()))
	}
	resp, err := s.search.Search(ctx, &retrieval)
	if err != nil {
		return s.fail(st, ctx, err)
	}

	if len(resp.Hits) == 0 {
		s.logger.Info("retrieval returned no results",
			zap.String("question_preview", preview(req.Question(), 50)))
		return s.streamCanned(st, noResultsAnswer, 0, start)
	}

	if err := st.Emit(domainask.Retrieval(len(resp.Hits))); err != nil {
		return s.cancelled(err)
	}

	if !req.UseExternalAnswer() || s.completer == nil {
		answer := buildEvidence(resp.Hits)
		if s.guard != nil {
			answer, _ = s.guard.FilterOutput(answer)
		}
		return s.streamWords(st, answer, len(resp.Hits), start)
	}

	return s.streamCompletion(ctx, st, req.Question(), resp.Hits, start)
}

// streamCompletion forwards provider deltas as token events and closes
// the stream with stats and done.
func (s *Service) streamCompletion(
	ctx context.Context,
	st *Streamer,
	question string,
	hits []result.Hit,
	start time.Time,
) error {
	// A sink failure cancels the upstream stream at the next delta.
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sinkErr error
	tokensUsed, err := s.completer.Complete(cctx, question, buildEvidence(hits), func(token string) {
		if sinkErr != nil {
			return
		}
		if emitErr := st.Emit(domainask.Token(token)); emitErr != nil {
			sinkErr = emitErr
			cancel()
		}
	})
	if sinkErr != nil {
		return s.cancelled(sinkErr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return s.cancelled(ctx.Err())
		}
		return s.fail(st, ctx, fmt.Errorf("complete answer: %w", err))
	}

	return s.finish(st, domainask.Stats{
		ChunksRetrieved: len(hits),
		TokensUsed:      tokensUsed,
		ElapsedSeconds:  elapsedSince(start),
	})
}

// streamCanned emits a pre-computed answer word by word so clients see
// the same event shape as a real completion.
func (s *Service) streamCanned(st *Streamer, answer string, chunks int, start time.Time) error {
	if err := st.Emit(domainask.Retrieval(chunks)); err != nil {
		return s.cancelled(err)
	}
	return s.streamWords(st, answer, chunks, start)
}

func (s *Service) streamWords(st *Streamer, answer string, chunks int, start time.Time) error {
	words := strings.Fields(answer)
	for i, w := range words {
		token := w
		if i < len(words)-1 {
			token += " "
		}
		if err := st.Emit(domainask.Token(token)); err != nil {
			return s.cancelled(err)
		}
	}
	return s.finish(st, domainask.Stats{
		ChunksRetrieved: chunks,
		TokensUsed:      len(words),
		ElapsedSeconds:  elapsedSince(start),
	})
}

func (s *Service) finish(st *Streamer, stats domainask.Stats) error {
	if err := st.Emit(domainask.StatsEvent(stats)); err != nil {
		return s.cancelled(err)
	}
	if err := st.Emit(domainask.Done()); err != nil {
		return s.cancelled(err)
	}
	metrics.AskTotal.WithLabelValues("done").Inc()
	return nil
}

// fail converts a pipeline error into the terminal error event.
func (s *Service) fail(st *Streamer, ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return s.cancelled(ctx.Err())
	}
	code := domain.Code(err)
	s.logger.Error("ask pipeline failed", zap.String("code", code), zap.Error(err))
	metrics.AskTotal.WithLabelValues("error").Inc()
	if emitErr := st.Emit(domainask.Error(code, err.Error())); emitErr != nil {
		return s.cancelled(emitErr)
	}
	return nil
}

func (s *Service) cancelled(err error) error {
	metrics.AskTotal.WithLabelValues("cancelled").Inc()
	return err
}

// buildEvidence concatenates hits in fused order for the prompt, each
// with its originating tags.
func buildEvidence(hits []result.Hit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("**%s**\n%s", h.Title, h.Snippet)
		if len(h.Tags) > 0 {
			parts[i] += "\nTags: " + strings.Join(h.Tags, ", ")
		}
	}
	return strings.Join(parts, "\n\n")
}

func elapsedSince(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*100) / 100
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
