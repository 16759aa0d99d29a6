// Package ai dispatches chat completions across an ordered list of provider
// targets, falling back to the next target whenever one fails.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/logger"
	"github.com/doeshing/dexter/internal/ports"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 8 << 20

// Client is the completion engine for one role. It is safe for concurrent use.
type Client struct {
	targets    []domain.Target
	cache      *ResponseCache
	httpClient *http.Client
	logger     ports.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithCache shares a response cache.
func WithCache(c *ResponseCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithLogger sets the logger for fallback diagnostics.
func WithLogger(l ports.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient builds a client over an already-resolved target list.
func NewClient(targets []domain.Target, opts ...Option) *Client {
	c := &Client{
		targets:    append([]domain.Target(nil), targets...),
		httpClient: http.DefaultClient,
		logger:     logger.NewStd(false),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewResponseCache(domain.DefaultCacheCapacity)
	}
	return c
}

// NewRoleClient resolves the targets for role from cfg and builds a client.
func NewRoleClient(cfg domain.Config, role domain.Role, opts ...Option) *Client {
	targets := ResolveTargets(cfg.ConfiguredProviders(), cfg.Models.ForRole(role))
	return NewClient(targets, opts...)
}

// Targets returns a copy of the dispatch order.
func (c *Client) Targets() []domain.Target {
	return append([]domain.Target(nil), c.targets...)
}

// Complete tries each target in order and returns the first success. When
// every target fails the error is an *ExhaustedError listing each failure.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest, policy domain.CachePolicy) (string, error) {
	var failures []string
	for _, target := range c.targets {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Sprintf("- [%s] %v", target.Label(), err))
			break
		}

		text, err := c.attempt(ctx, target, req, policy)
		if err == nil {
			return text, nil
		}
		c.logger.Warn("completion target failed", map[string]interface{}{
			"target": target.Label(),
			"error":  err.Error(),
		})
		failures = append(failures, fmt.Sprintf("- [%s] %v", target.Label(), err))
	}
	return "", &ExhaustedError{Failures: failures}
}

// Chat satisfies ports.LLMBridge with cache-normal defaults.
func (c *Client) Chat(ctx context.Context, systemPrompt, userInput string) (string, error) {
	return c.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserInput:    userInput,
		Temperature:  domain.DefaultTemperature,
	}, domain.CacheNormal)
}

func (c *Client) attempt(ctx context.Context, target domain.Target, req domain.CompletionRequest, policy domain.CachePolicy) (string, error) {
	family := familyFor(target)
	payload, err := family.buildRequest(target.Model, req, true)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	key := cacheKey(target, payload)
	if policy == domain.CacheNormal {
		if cached, ok := c.cache.Get(key); ok {
			c.logger.Debug("completion cache hit", map[string]interface{}{"target": target.Label()})
			return cached, nil
		}
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if err := applyAuth(headers, target); err != nil {
		return "", err
	}

	endpoint := target.BaseURL + family.path
	status, body, err := c.post(ctx, endpoint, headers, payload)
	if err != nil {
		return "", err
	}

	if family.omittableMaxTokens && req.MaxTokens > 0 && isMaxTokensUnsupported(status, body) {
		c.logger.Debug("retrying without max_tokens", map[string]interface{}{"target": target.Label()})
		retryPayload, err := family.buildRequest(target.Model, req, false)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		status, body, err = c.post(ctx, endpoint, headers, retryPayload)
		if err != nil {
			return "", err
		}
	}

	if status < 200 || status >= 300 {
		return "", classifyStatus(status, body, domain.MaxErrorBodyChars)
	}

	text, err := family.parseResponse(body)
	if err != nil {
		return "", err
	}
	if policy == domain.CacheNormal {
		c.cache.Put(key, text)
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, endpoint string, headers http.Header, payload []byte) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, &TargetConfigError{Target: endpoint, Reason: err.Error()}
	}
	httpReq.Header = headers.Clone()
	return c.do(httpReq)
}

func (c *Client) do(httpReq *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Err: err}
	}
	return resp.StatusCode, body, nil
}
