// Package search runs retrieval for one query: mode dispatch, rank
// fusion, and the optional rerank refinement stage.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/search/mode"
	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	"github.com/kailas-cloud/askdex/internal/domain/search/result"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// rerankFanout is how many fused candidates the reranker sees per
// requested result. Wider than top-k so reranking can promote from
// below the cut line.
const rerankFanout = 3

// Response is the outcome of one retrieval.
type Response struct {
	Hits      []result.Hit
	TotalHits int
	TookMs    int64
	// Degraded is set when the rerank stage failed and the pre-rerank
	// ordering was served instead.
	Degraded bool
}

// Service coordinates lexical and vector ranking, RRF fusion, and the
// optional rerank stage.
type Service struct {
	lex    LexicalRanker
	vec    VectorRanker
	chunks ChunkReader
	embed  Embedder
	rerank Reranker
	logger *zap.Logger
}

// New creates a search service. rerank may be nil to disable the
// refinement stage.
func New(lex LexicalRanker, vec VectorRanker, chunks ChunkReader, embed Embedder, logger *zap.Logger) *Service {
	return &Service{lex: lex, vec: vec, chunks: chunks, embed: embed, logger: logger}
}

// WithReranker enables the rerank refinement stage.
func (s *Service) WithReranker(r Reranker) *Service {
	s.rerank = r
	return s
}

// Search executes retrieval for a validated request. An empty result
// set is a valid outcome, not an error. A disabled index segment fails
// the mode that needs it; there is no silent fallback to the other
// segment.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()

	fanout := req.TopK()
	if s.rerank != nil {
		fanout = req.TopK() * rerankFanout
	}

	fused, err := s.retrieve(ctx, req, fanout)
	if err != nil {
		metrics.SearchTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return Response{}, err
	}

	hits := s.resolve(fused, req.SnippetChars())

	degraded := false
	if s.rerank != nil && len(hits) > 0 {
		hits, degraded = s.rerankHits(ctx, req.Query(), hits)
	}
	if len(hits) > req.TopK() {
		hits = hits[:req.TopK()]
	}

	took := time.Since(start)
	metrics.SearchTotal.WithLabelValues(string(req.Mode()), "success").Inc()
	metrics.SearchDuration.WithLabelValues(string(req.Mode())).Observe(took.Seconds())

	return Response{
		Hits:      hits,
		TotalHits: len(hits),
		TookMs:    took.Milliseconds(),
		Degraded:  degraded,
	}, nil
}

// retrieve runs the rankers for the requested mode and fuses rankings.
func (s *Service) retrieve(ctx context.Context, req *request.Request, fanout int) ([]result.Candidate, error) {
	switch req.Mode() {
	case mode.Lexical:
		candidates, err := s.lex.Rank(ctx, req.Query(), req.AsOfFrame(), req.AsOfTS())
		if err != nil {
			return nil, fmt.Errorf("lexical rank: %w", err)
		}
		return truncate(candidates, fanout), nil

	case mode.Semantic:
		queryVec, err := s.embedQuery(ctx, req.Query())
		if err != nil {
			return nil, err
		}
		candidates, err := s.vec.Rank(ctx, queryVec, req.AsOfFrame(), req.AsOfTS())
		if err != nil {
			return nil, fmt.Errorf("vector rank: %w", err)
		}
		return truncate(candidates, fanout), nil

	case mode.Hybrid:
		return s.retrieveHybrid(ctx, req, fanout)

	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}
}

// retrieveHybrid runs both rankers concurrently and fuses via RRF. A
// disabled segment error from either ranker fails the whole call.
func (s *Service) retrieveHybrid(ctx context.Context, req *request.Request, fanout int) ([]result.Candidate, error) {
	queryVec, err := s.embedQuery(ctx, req.Query())
	if err != nil {
		return nil, err
	}

	var lexCandidates, vecCandidates []result.Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexCandidates, err = s.lex.Rank(gctx, req.Query(), req.AsOfFrame(), req.AsOfTS())
		if err != nil {
			return fmt.Errorf("lexical rank: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		vecCandidates, err = s.vec.Rank(gctx, queryVec, req.AsOfFrame(), req.AsOfTS())
		if err != nil {
			return fmt.Errorf("vector rank: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fuseRRF(lexCandidates, vecCandidates, fanout), nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embed == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrUpstreamUnavailable)
	}
	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return res.Embedding, nil
}

// resolve maps fused candidates to presentable hits in fused order.
// Candidates whose chunk record vanished are dropped.
func (s *Service) resolve(candidates []result.Candidate, snippetChars int) []result.Hit {
	hits := make([]result.Hit, 0, len(candidates))
	for _, c := range candidates {
		chunk, ok := s.chunks.Chunk(c.ChunkID())
		if !ok {
			continue
		}
		hits = append(hits, result.Hit{
			ChunkID: chunk.ID,
			Title:   chunk.Title,
			Score:   c.Score(),
			Snippet: Snippet(chunk.Text, snippetChars),
			Text:    chunk.Text,
			Tags:    chunk.Tags,
		})
	}
	return hits
}

// rerankHits re-scores hits with the joint scorer. The stage only
// reorders: it never adds or removes candidates. On failure the
// pre-rerank ordering is kept and the degradation is reported to the
// caller, not swallowed.
func (s *Service) rerankHits(ctx context.Context, query string, hits []result.Hit) ([]result.Hit, bool) {
	docs := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = h.Text
	}

	reranked, err := s.rerank.Rerank(ctx, query, docs)
	if err != nil || len(reranked) != len(hits) {
		s.logger.Warn("rerank failed, serving pre-rerank order", zap.Error(err))
		metrics.RerankDegradedTotal.Inc()
		return hits, true
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	out := make([]result.Hit, 0, len(hits))
	for _, rd := range reranked {
		if rd.Index < 0 || rd.Index >= len(hits) {
			s.logger.Warn("rerank returned out-of-range index, serving pre-rerank order",
				zap.Int("index", rd.Index))
			metrics.RerankDegradedTotal.Inc()
			return hits, true
		}
		h := hits[rd.Index]
		h.Score = rd.Score
		out = append(out, h)
	}
	return out, false
}
