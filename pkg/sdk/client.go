// Package sdk is a typed HTTP client for the askdex API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to an askdex server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Required when
// callers need custom transports or timeouts; streaming requests
// should use a client without an overall timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("askdex: %s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
}

// SearchRequest holds retrieval parameters.
type SearchRequest struct {
	Query        string `json:"query"`
	Mode         string `json:"mode,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
	SnippetChars int    `json:"snippet_chars,omitempty"`
	AsOfFrame    int64  `json:"as_of_frame,omitempty"`
	AsOfTS       int64  `json:"as_of_ts,omitempty"`
}

// SearchHit is one retrieval result.
type SearchHit struct {
	ChunkID string   `json:"chunk_id"`
	Title   string   `json:"title"`
	Score   float64  `json:"score"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags,omitempty"`
}

// SearchResponse is the result of one retrieval.
type SearchResponse struct {
	Hits      []SearchHit `json:"hits"`
	TotalHits int         `json:"total_hits"`
	TookMs    int64       `json:"took_ms"`
	Degraded  bool        `json:"degraded,omitempty"`
}

// Search runs retrieval without answer generation.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var out SearchResponse
	if err := c.postJSON(ctx, "/v1/search", req, &out); err != nil {
		return SearchResponse{}, err
	}
	return out, nil
}

// StateResponse is an entity with its slot values.
type StateResponse struct {
	Name  string            `json:"name"`
	Slots map[string]string `json:"slots"`
}

// State resolves a named entity to its current slot values.
func (c *Client) State(ctx context.Context, entity string) (StateResponse, error) {
	var out StateResponse
	if err := c.getJSON(ctx, "/v1/state/"+url.PathEscape(entity), &out); err != nil {
		return StateResponse{}, err
	}
	return out, nil
}

// Profile is the candidate profile served by the API.
type Profile struct {
	Name                  string       `json:"name"`
	Title                 string       `json:"title"`
	Location              string       `json:"location,omitempty"`
	Contact               string       `json:"contact,omitempty"`
	SuggestedQuestions    []string     `json:"suggested_questions"`
	FitAssessmentExamples []FitExample `json:"fit_assessment_examples,omitempty"`
}

// FitExample is a pre-analyzed fit assessment on the profile.
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

// GetProfile fetches the candidate profile.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var out Profile
	if err := c.getJSON(ctx, "/v1/profile", &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// AssessFitRequest is the body for AssessFit. JobDescription must be
// at least 50 characters.
type AssessFitRequest struct {
	JobDescription string `json:"job_description"`
}

// FitAssessment is the structured verdict returned by AssessFit.
type FitAssessment struct {
	Verdict         string   `json:"verdict"`
	KeyMatches      []string `json:"key_matches"`
	Gaps            []string `json:"gaps"`
	Recommendation  string   `json:"recommendation"`
	Role            string   `json:"role"`
	ChunksRetrieved int      `json:"chunks_retrieved"`
	TokensUsed      int      `json:"tokens_used"`
}

// AssessFit runs a fit assessment for a job description.
func (c *Client) AssessFit(ctx context.Context, req AssessFitRequest) (FitAssessment, error) {
	var out FitAssessment
	if err := c.postJSON(ctx, "/v1/assess-fit", req, &out); err != nil {
		return FitAssessment{}, err
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("askdex: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("askdex: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("askdex: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("askdex: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("askdex: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: "internal_error", Message: resp.Status}
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Code != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	}
	return apiErr
}
