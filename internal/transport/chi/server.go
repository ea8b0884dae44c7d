// Package chi exposes the HTTP API: search, streamed ask, entity state,
// profile, and operational endpoints.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	domainask "github.com/kailas-cloud/askdex/internal/domain/ask"
	"github.com/kailas-cloud/askdex/internal/domain/search/mode"
	"github.com/kailas-cloud/askdex/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/askdex/internal/logger"
	askuc "github.com/kailas-cloud/askdex/internal/usecase/ask"
	fituc "github.com/kailas-cloud/askdex/internal/usecase/fit"
	healthuc "github.com/kailas-cloud/askdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/askdex/internal/usecase/search"
	stateuc "github.com/kailas-cloud/askdex/internal/usecase/state"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Profile is the static candidate profile served by the chat surface.
type Profile struct {
	Name                  string       `json:"name"`
	Title                 string       `json:"title"`
	Location              string       `json:"location,omitempty"`
	Contact               string       `json:"contact,omitempty"`
	SuggestedQuestions    []string     `json:"suggested_questions"`
	FitAssessmentExamples []FitExample `json:"fit_assessment_examples,omitempty"`
}

// FitExample is a pre-analyzed fit assessment shown on the profile.
type FitExample struct {
	Title          string `json:"title"`
	FitLevel       string `json:"fit_level"`
	Role           string `json:"role"`
	JobDescription string `json:"job_description"`
	Verdict        string `json:"verdict"`
	KeyMatches     string `json:"key_matches"`
	Gaps           string `json:"gaps"`
	Recommendation string `json:"recommendation"`
}

// Server wires the usecase services into HTTP handlers.
type Server struct {
	search        *searchuc.Service
	ask           *askuc.Service
	fit           *fituc.Service
	state         *stateuc.Service
	health        *healthuc.Service
	profile       Profile
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	ask *askuc.Service,
	fit *fituc.Service,
	state *stateuc.Service,
	health *healthuc.Service,
	profile Profile,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		ask:     ask,
		fit:     fit,
		state:   state,
		health:  health,
		profile: profile,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest),
		sentinelHandler(domain.ErrEntityNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrLexIndexDisabled, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrVecIndexDisabled, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrUpstreamError, http.StatusBadGateway),
	}
	return s
}

// Routes mounts all handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.SearchHandler)
	r.Post("/v1/ask", s.AskHandler)
	r.Post("/v1/assess-fit", s.AssessFitHandler)
	r.Get("/v1/state/{entity}", s.StateHandler)
	r.Get("/v1/profile", s.ProfileHandler)
	r.Get("/v1/suggested-questions", s.SuggestedQuestionsHandler)
	r.Get("/health", s.HealthHandler)
	r.Get("/metrics", s.MetricsHandler)
}

// searchRequest is the POST /v1/search body.
type searchRequest struct {
	Query        string `json:"query"`
	Mode         string `json:"mode,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
	SnippetChars int    `json:"snippet_chars,omitempty"`
	AsOfFrame    int64  `json:"as_of_frame,omitempty"`
	AsOfTS       int64  `json:"as_of_ts,omitempty"`
}

// searchHit is one result item on the wire.
type searchHit struct {
	ChunkID string   `json:"chunk_id"`
	Title   string   `json:"title"`
	Score   float64  `json:"score"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags,omitempty"`
}

type searchResponse struct {
	Hits      []searchHit `json:"hits"`
	TotalHits int         `json:"total_hits"`
	TookMs    int64       `json:"took_ms"`
	Degraded  bool        `json:"degraded,omitempty"`
}

// SearchHandler handles POST /v1/search.
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	domReq, err := request.New(req.Query, mode.Mode(req.Mode), req.TopK, req.SnippetChars, req.AsOfFrame, req.AsOfTS)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &domReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	hits := make([]searchHit, len(resp.Hits))
	for i, h := range resp.Hits {
		hits[i] = searchHit{
			ChunkID: h.ChunkID,
			Title:   h.Title,
			Score:   h.Score,
			Snippet: h.Snippet,
			Tags:    h.Tags,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Hits:      hits,
		TotalHits: resp.TotalHits,
		TookMs:    resp.TookMs,
		Degraded:  resp.Degraded,
	})
}

// askRequest is the POST /v1/ask body.
type askRequest struct {
	Question          string `json:"question"`
	Mode              string `json:"mode,omitempty"`
	TopK              int    `json:"top_k,omitempty"`
	SnippetChars      int    `json:"snippet_chars,omitempty"`
	AsOfFrame         int64  `json:"as_of_frame,omitempty"`
	AsOfTS            int64  `json:"as_of_ts,omitempty"`
	UseExternalAnswer *bool  `json:"use_external_answer,omitempty"`
	Stream            *bool  `json:"stream,omitempty"`
}

// askResponse is the non-streaming POST /v1/ask body.
type askResponse struct {
	Answer          string  `json:"answer"`
	ChunksRetrieved int     `json:"chunks_retrieved"`
	TokensUsed      int     `json:"tokens_used"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// AskHandler handles POST /v1/ask. Streams SSE by default; with
// stream=false the full answer is collected and returned as one JSON
// response.
func (s *Server) AskHandler(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	useExternal := true
	if req.UseExternalAnswer != nil {
		useExternal = *req.UseExternalAnswer
	}

	domReq, err := domainask.New(
		req.Question, mode.Mode(req.Mode), req.TopK, req.SnippetChars,
		req.AsOfFrame, req.AsOfTS, useExternal,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if req.Stream != nil && !*req.Stream {
		s.askBuffered(w, r, domReq)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}

	if err := s.ask.Ask(r.Context(), domReq, sse.WriteEvent); err != nil {
		// The client disconnected mid-stream; nothing more to write.
		logpkg.FromContext(r.Context()).Debug("ask stream ended early", zap.Error(err))
		return
	}
	sse.WriteDone()
}

// streamErrorStatus maps stream error codes back to HTTP statuses for
// the buffered ask path.
var streamErrorStatus = map[string]int{
	domain.Code(domain.ErrValidation):             http.StatusBadRequest,
	domain.Code(domain.ErrEntityNotFound):         http.StatusNotFound,
	domain.Code(domain.ErrLexIndexDisabled):       http.StatusServiceUnavailable,
	domain.Code(domain.ErrVecIndexDisabled):       http.StatusServiceUnavailable,
	domain.Code(domain.ErrEmbeddingProviderError): http.StatusBadGateway,
	domain.Code(domain.ErrUpstreamUnavailable):    http.StatusServiceUnavailable,
	domain.Code(domain.ErrUpstreamError):          http.StatusBadGateway,
}

// askBuffered drains the event stream into a single JSON response. An
// error event surfaces with its stream status code; tokens delivered
// before it are discarded.
func (s *Server) askBuffered(w http.ResponseWriter, r *http.Request, req domainask.Request) {
	var (
		answer strings.Builder
		resp   askResponse
		evErr  *domainask.Event
	)
	err := s.ask.Ask(r.Context(), req, func(e domainask.Event) error {
		switch e.Type {
		case domainask.EventToken:
			answer.WriteString(e.Content)
		case domainask.EventStats:
			resp.ChunksRetrieved = e.Stats.ChunksRetrieved
			resp.TokensUsed = e.Stats.TokensUsed
			resp.ElapsedSeconds = e.Stats.ElapsedSeconds
		case domainask.EventError:
			ev := e
			evErr = &ev
		}
		return nil
	})
	if err != nil {
		logpkg.FromContext(r.Context()).Debug("buffered ask ended early", zap.Error(err))
		return
	}
	if evErr != nil {
		status := http.StatusInternalServerError
		if st, ok := streamErrorStatus[evErr.Code]; ok {
			status = st
		}
		writeError(w, status, evErr.Code, evErr.Error)
		return
	}
	resp.Answer = answer.String()
	writeJSON(w, http.StatusOK, resp)
}

// assessFitRequest is the POST /v1/assess-fit body.
type assessFitRequest struct {
	JobDescription string `json:"job_description"`
}

type assessFitResponse struct {
	Verdict         string   `json:"verdict"`
	KeyMatches      []string `json:"key_matches"`
	Gaps            []string `json:"gaps"`
	Recommendation  string   `json:"recommendation"`
	Role            string   `json:"role"`
	ChunksRetrieved int      `json:"chunks_retrieved"`
	TokensUsed      int      `json:"tokens_used"`
}

// AssessFitHandler handles POST /v1/assess-fit.
func (s *Server) AssessFitHandler(w http.ResponseWriter, r *http.Request) {
	var req assessFitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	a, err := s.fit.Assess(r.Context(), req.JobDescription)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assessFitResponse{
		Verdict:         a.Verdict,
		KeyMatches:      a.KeyMatches,
		Gaps:            a.Gaps,
		Recommendation:  a.Recommendation,
		Role:            a.Role,
		ChunksRetrieved: a.ChunksRetrieved,
		TokensUsed:      a.TokensUsed,
	})
}

type stateResponse struct {
	Name  string            `json:"name"`
	Slots map[string]string `json:"slots"`
}

// StateHandler handles GET /v1/state/{entity}.
func (s *Server) StateHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "entity")
	entity, err := s.state.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Name: entity.Name, Slots: entity.Slots})
}

// ProfileHandler handles GET /v1/profile.
func (s *Server) ProfileHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.profile)
}

// SuggestedQuestionsHandler handles GET /v1/suggested-questions.
func (s *Server) SuggestedQuestionsHandler(w http.ResponseWriter, _ *http.Request) {
	questions := s.profile.SuggestedQuestions
	if questions == nil {
		questions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"questions": questions})
}

type healthResponse struct {
	Status     string            `json:"status"`
	FrameCount int               `json:"frame_count"`
	Checks     map[string]string `json:"checks"`
}

// HealthHandler handles GET /health.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:     string(report.Status),
		FrameCount: report.FrameCount,
		Checks:     checks,
	})
}

// MetricsHandler handles GET /metrics.
func (s *Server) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrEntityNotFound,
		domain.ErrLexIndexDisabled,
		domain.ErrVecIndexDisabled,
		domain.ErrEmbeddingProviderError,
		domain.ErrUpstreamUnavailable,
		domain.ErrUpstreamError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, domain.Code(sentinel), msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
