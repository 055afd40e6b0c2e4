package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/skydocs/skydocs/internal/log"
)

const (
	// defaultCallTimeout bounds a single completion round trip.
	defaultCallTimeout = 120 * time.Second

	// Retry settings for transient provider failures (429, 5xx).
	// The orchestrator never retries; this client is the only place
	// backoff happens.
	defaultMaxRetries   = 3
	defaultRetryBackoff = 500 * time.Millisecond
)

// ClientConfig configures a ChatClient.
type ClientConfig struct {
	BaseURL string // e.g. https://api.openai.com/v1
	APIKey  string
	Model   string // deployment/model name this client is pinned to

	// RateLimit caps sustained requests per second. Zero disables
	// proactive limiting.
	RateLimit float64
	RateBurst int

	Logger log.Logger
}

// ChatClient is an OpenAI-compatible chat-completions client pinned to
// a single model. It is stateless apart from its rate limiter and safe
// for concurrent use across requests.
type ChatClient struct {
	http    *resty.Client
	model   string
	limiter *rate.Limiter
	logger  log.Logger
}

// NewChatClient creates a client for the given endpoint and model.
func NewChatClient(cfg ClientConfig) (*ChatClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("llm: base URL is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm: model name is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultCallTimeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &ChatClient{
		http:    httpClient,
		model:   cfg.Model,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Model returns the model name this client is pinned to.
func (c *ChatClient) Model() string {
	return c.model
}

// completionRequest is the chat-completions wire request.
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// completionResponse is the subset of the wire response we consume.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// apiError is the provider's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the message history and returns the single completion
// string. Transient provider failures (429, 5xx) are retried with
// fibonacci backoff; other failures surface immediately as *CallError.
// Context cancellation aborts the in-flight call and propagates.
func (c *ChatClient) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	if len(messages) == 0 {
		return "", &CallError{Model: c.model, Err: errors.New("empty message history")}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &CallError{Model: c.model, Err: err}
		}
	}

	body := completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	var out completionResponse
	backoff := retry.WithMaxRetries(defaultMaxRetries, retry.NewFibonacci(defaultRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var apiErr apiError
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&out).
			SetError(&apiErr).
			Post("/chat/completions")
		if err != nil {
			if ctx.Err() != nil {
				return &CallError{Model: c.model, Err: ctx.Err()}
			}
			// Transport errors are worth another attempt.
			return retry.RetryableError(&CallError{Model: c.model, Err: err})
		}
		if resp.IsError() {
			callErr := &CallError{
				Model:      c.model,
				StatusCode: resp.StatusCode(),
				Err:        fmt.Errorf("%s: %s", apiErr.Error.Type, apiErr.Error.Message),
			}
			if retriableStatus(resp.StatusCode()) {
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", &CallError{Model: c.model, Err: ErrEmptyCompletion}
	}

	c.logger.Debug("completion finished",
		"model", c.model,
		"messages", len(messages),
		"response_length", len(out.Choices[0].Message.Content))

	return out.Choices[0].Message.Content, nil
}

// retriableStatus reports whether an HTTP status is worth retrying.
func retriableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
