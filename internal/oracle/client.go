package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config customizes the chat-completion client. Zero values fall back to the
// defaults below.
type Config struct {
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint; empty means api.openai.com
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPTimeout time.Duration

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

// Client implements Oracle over an OpenAI-compatible chat-completion API.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// NewClient builds a client from config, applying defaults for anything unset.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("oracle api key is missing")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 120 * time.Second
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 4 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}

	return &Client{
		api:              openai.NewClientWithConfig(apiCfg),
		model:            cfg.Model,
		maxTokens:        cfg.MaxTokens,
		temperature:      float32(cfg.Temperature),
		retryMaxAttempts: cfg.RetryMaxAttempts,
		retryBaseDelay:   cfg.RetryBaseDelay,
		retryMaxDelay:    cfg.RetryMaxDelay,
	}, nil
}

func (c *Client) ClassifyFormat(ctx context.Context, samples []string) (*FormatClassification, error) {
	const capability = "classify-format"
	content, err := c.complete(ctx, capability, classifySystem, classifyUser(samples))
	if err != nil {
		return nil, err
	}
	var out FormatClassification
	if err := decodeInto(capability, content, &out); err != nil {
		return nil, err
	}
	if err := validateClassification(&out); err != nil {
		return nil, &TransportError{Capability: capability, Err: err}
	}
	return &out, nil
}

func (c *Client) ExtractHeaders(ctx context.Context, grid string) (*HeaderExtraction, error) {
	const capability = "extract-headers"
	content, err := c.complete(ctx, capability, extractSystem, extractUser(grid))
	if err != nil {
		return nil, err
	}
	var out HeaderExtraction
	if err := decodeInto(capability, content, &out); err != nil {
		return nil, err
	}
	if err := validateHeaders(&out); err != nil {
		return nil, &TransportError{Capability: capability, Err: err}
	}
	return &out, nil
}

func (c *Client) AnalyzeBatch(ctx context.Context, req BatchRequest) (*BatchAnalysis, error) {
	const capability = "analyze-batch"
	content, err := c.complete(ctx, capability, analyzeSystem, analyzeUser(req))
	if err != nil {
		return nil, err
	}
	var out BatchAnalysis
	if err := decodeInto(capability, content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SynthesizePlan(ctx context.Context, req PlanRequest) (*ExecutionPlan, error) {
	const capability = "synthesize-plan"
	content, err := c.complete(ctx, capability, synthesizeSystem, synthesizeUser(req))
	if err != nil {
		return nil, err
	}
	var out ExecutionPlan
	if err := decodeInto(capability, content, &out); err != nil {
		return nil, err
	}
	if err := validatePlan(&out); err != nil {
		return nil, &TransportError{Capability: capability, Err: err}
	}
	return &out, nil
}

// complete issues one chat completion with JSON response format, retrying
// transient failures (429/5xx, network) with capped exponential backoff.
func (c *Client) complete(ctx context.Context, capability, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", &TransportError{Capability: capability, Err: err}
		}
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", &TransportError{Capability: capability, Err: errors.New("response has no choices")}
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.retryMaxAttempts {
			break
		}
		sleep := withJitter(backoff)
		if sleep > c.retryMaxDelay {
			sleep = c.retryMaxDelay
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return "", &TransportError{Capability: capability, Err: ctx.Err()}
		}
		backoff *= 2
	}
	return "", &TransportError{Capability: capability, Err: fmt.Errorf("chat completion: %w", lastErr)}
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			(apiErr.HTTPStatusCode >= 500 && apiErr.HTTPStatusCode <= 599)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	// up to 25% random jitter to avoid thundering retries
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}
