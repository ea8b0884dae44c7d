package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// answerSystemPrompt grounds the model in retrieved resume content only.
const answerSystemPrompt = `You are an AI assistant representing a job candidate. Your role is to answer questions about their professional background, skills, and experience based on the context provided.

Guidelines:
- Only answer based on the provided context from the resume
- Be honest and accurate - don't make up information
- If you don't have information to answer a question, say so
- Be professional but personable
- Highlight relevant achievements and skills when appropriate
- Keep responses concise but informative`

// Completer streams chat completions from the OpenAI-compatible API.
type Completer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible streaming completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Completer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

// Complete streams answer deltas for one question grounded in evidence.
// Deltas are delivered to onDelta in arrival order. Returns total token
// usage when the provider reports it, otherwise the delta count.
func (c *Completer) Complete(ctx context.Context, question, evidence string, onDelta func(string)) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	system := fmt.Sprintf("%s\n\n---\nCONTEXT FROM RESUME:\n%s\n---\n\n"+
		"Use the context above to answer the user's question. "+
		"If the context doesn't contain relevant information, say so honestly.",
		answerSystemPrompt, evidence)

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		return 0, parseCompletionError(err, true)
	}
	defer stream.Close()

	deltas := 0
	tokensUsed := 0
	for {
		resp, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			if ctx.Err() != nil {
				return tokensUsed, ctx.Err()
			}
			return tokensUsed, parseCompletionError(recvErr, false)
		}

		if resp.Usage != nil {
			tokensUsed = resp.Usage.TotalTokens
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			deltas++
			onDelta(content)
		}
	}

	if tokensUsed == 0 {
		tokensUsed = deltas
	}
	metrics.CompletionTokensTotal.WithLabelValues(c.model).Add(float64(tokensUsed))
	return tokensUsed, nil
}

// CompleteOnce runs a single non-streaming completion and returns the
// full text plus token usage. Used for auxiliary calls (query keyword
// extraction, fit assessment) where streaming buys nothing.
func (c *Completer) CompleteOnce(ctx context.Context, system, user string) (string, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", 0, parseCompletionError(err, true)
	}
	if len(resp.Choices) == 0 {
		return "", resp.Usage.TotalTokens, fmt.Errorf("completion returned no choices: %w", domain.ErrUpstreamError)
	}

	metrics.CompletionTokensTotal.WithLabelValues(c.model).Add(float64(resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, resp.Usage.TotalTokens, nil
}

// parseCompletionError maps provider failures onto the domain taxonomy.
// Failures before any delta are "unavailable"; failures mid-stream are
// "upstream error".
func parseCompletionError(err error, beforeStream bool) error {
	wrap := domain.ErrUpstreamError
	if beforeStream {
		wrap = domain.ErrUpstreamUnavailable
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403 {
			return fmt.Errorf("completion API auth error %d: %s: %w",
				apiErr.HTTPStatusCode, apiErr.Message, domain.ErrUpstreamUnavailable)
		}
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	return fmt.Errorf("completion request failed: %v: %w", err, wrap)
}
