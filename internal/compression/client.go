// Package compression implements the client for the LessTokens compression
// API. It normalizes the service's response shape, derives savings locally and
// retries transient transport failures with exponential backoff.
package compression

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/observability"
	"github.com/lesstokens/lesstokens-go/internal/retry"
)

const (
	// DefaultBaseURL is the production LessTokens endpoint.
	DefaultBaseURL = "https://lesstokens.hive-hub.ai"

	// DefaultTimeout bounds a single compression call at the transport layer.
	DefaultTimeout = 30 * time.Second

	compressPath = "/api/compress"
)

// Cache stores compression results keyed by prompt and options. Implemented
// by the redis cache; nil disables caching. Cache failures degrade to a log
// line and never fail a request.
type Cache interface {
	Get(ctx context.Context, prompt string, options *core.CompressionOptions) (*core.CompressedPrompt, error)
	Set(ctx context.Context, prompt string, options *core.CompressionOptions, result *core.CompressedPrompt) error
}

// Client calls the LessTokens compression API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
	cache      Cache
}

// Option customizes a Client.
type Option func(*Client)

// WithCache attaches a compression result cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a compression client. An empty baseURL falls back to the
// production endpoint; a non-positive timeout falls back to the default.
func NewClient(apiKey, baseURL string, timeout time.Duration, options ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retry.DefaultConfig(),
	}

	for _, opt := range options {
		opt(client)
	}
	return client
}

// compressRequest is the wire shape of a compression call. Optional fields
// are pointers so that unset values are omitted rather than sent as false/0.
type compressRequest struct {
	Prompt          string   `json:"prompt"`
	TargetRatio     *float64 `json:"targetRatio,omitempty"`
	PreserveContext *bool    `json:"preserveContext,omitempty"`
	Aggressive      *bool    `json:"aggressive,omitempty"`
}

// compressPayload matches both response field namings the service has used.
type compressPayload struct {
	Compressed       string  `json:"compressed"`
	OriginalTokens   int     `json:"originalTokens"`
	CompressedTokens int     `json:"compressedTokens"`
	Ratio            float64 `json:"ratio"`
	CompressionRatio float64 `json:"compressionRatio"`
}

// Compress compresses a prompt. Transient failures (timeout, network error,
// rate limit) are retried; everything else propagates on the first attempt.
func (c *Client) Compress(ctx context.Context, prompt string, options *core.CompressionOptions) (*core.CompressedPrompt, error) {
	logger := observability.FromContext(ctx)

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, prompt, options)
		if err != nil {
			logger.Warn("compression cache get failed, continuing without cache", observability.Error(err))
		}
		if cached != nil {
			logger.Debug("compression cache hit")
			return cached, nil
		}
	}

	request := compressRequest{Prompt: prompt}
	if options != nil {
		request.TargetRatio = options.TargetRatio
		request.PreserveContext = options.PreserveContext
		request.Aggressive = options.Aggressive
	}

	result, err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) (*core.CompressedPrompt, error) {
		return c.performRequest(ctx, request, prompt)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("prompt compressed",
		observability.Int("original_tokens", result.OriginalTokens),
		observability.Int("compressed_tokens", result.CompressedTokens),
		observability.Float64("savings_percent", result.SavingsPercent),
	)

	if c.cache != nil {
		if err := c.cache.Set(ctx, prompt, options, result); err != nil {
			logger.Warn("failed to store compression result in cache", observability.Error(err))
		}
	}

	return result, nil
}

// performRequest executes one compression HTTP call and normalizes the result.
func (c *Client) performRequest(ctx context.Context, request compressRequest, prompt string) (*core.CompressedPrompt, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, core.NewError(core.KindValidationError, fmt.Sprintf("failed to encode compression request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+compressPath, bytes.NewReader(body))
	if err != nil {
		return nil, core.NewError(core.KindNetworkError, fmt.Sprintf("failed to create request: %v", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err, c.httpClient.Timeout)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err, c.httpClient.Timeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatusError(resp.StatusCode, respBody)
	}

	return normalizeResponse(respBody, prompt)
}

// normalizeResponse accepts either a flat payload or one nested under "data",
// recomputes savings from the token counts and defaults the ratio to 1.0 when
// the service omits it. A missing compressed field degrades to passthrough of
// the original prompt; that is intentional, not an error.
func normalizeResponse(body []byte, prompt string) (*core.CompressedPrompt, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	payloadBytes := body
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			payloadBytes = envelope.Data
		}
	}

	var payload compressPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, core.NewError(core.KindNetworkError, fmt.Sprintf("failed to decode compression response: %v", err))
	}

	ratio := payload.CompressionRatio
	if ratio == 0 {
		ratio = payload.Ratio
	}
	if ratio == 0 {
		ratio = 1.0
	}

	compressed := payload.Compressed
	if compressed == "" {
		compressed = prompt
	}

	return &core.CompressedPrompt{
		Compressed:       compressed,
		OriginalTokens:   payload.OriginalTokens,
		CompressedTokens: payload.CompressedTokens,
		SavingsPercent:   core.SavingsPercent(payload.OriginalTokens, payload.CompressedTokens),
		Ratio:            ratio,
	}, nil
}

// classifyStatusError maps a non-2xx response to the error taxonomy.
func classifyStatusError(statusCode int, body []byte) *core.Error {
	var details map[string]any
	_ = json.Unmarshal(body, &details)

	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return core.NewErrorWithStatus(core.KindInvalidAPIKey, "Invalid LessTokens API key", statusCode, details)
	}

	message := fmt.Sprintf("Compression failed: HTTP %d", statusCode)
	if m, ok := details["message"].(string); ok && m != "" {
		message = m
	}
	return core.NewErrorWithStatus(core.KindCompressionFailed, message, statusCode, details)
}

// classifyTransportError maps transport failures to the taxonomy. An error
// that already carries a domain kind is re-propagated unchanged.
func classifyTransportError(err error, timeout time.Duration) error {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return err
	}

	if isTimeout(err) {
		return core.NewError(core.KindTimeout, fmt.Sprintf("Request timeout after %s", timeout))
	}
	return core.NewError(core.KindNetworkError, fmt.Sprintf("Network error: %v", err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
