package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lesstokens/lesstokens-go/core"
)

const (
	// DefaultBaseURL is the public Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	apiVersion = "v1beta"

	// maxErrorBodyLen limits error bodies quoted in error messages.
	maxErrorBodyLen = 512
)

// Client wraps the HTTP transport for Gemini API calls.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Gemini HTTP client. An empty baseURL falls back to the
// public endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{}, // timeouts via ctx, matching the backend connection
	}
}

// Gemini API request/response structures.

// Part is one piece of content within a turn.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is a single conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerateContentRequest is the request body for generateContent.
// GenerationConfig stays a map so unrecognized caller options pass through.
type GenerateContentRequest struct {
	Contents         []Content      `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig,omitempty"`
}

// UsageMetadata mirrors the Gemini usage block.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GenerateContentResponse is the response body of generateContent, and also
// the payload of each streaming SSE event.
type GenerateContentResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
	UsageMetadata UsageMetadata `json:"usageMetadata"`
}

// StreamEvent is one decoded SSE event or a terminal stream error.
type StreamEvent struct {
	Response *GenerateContentResponse
	Err      error
}

// GenerateContent sends a non-streaming request.
func (c *Client) GenerateContent(ctx context.Context, model string, request *GenerateContentRequest) (*GenerateContentResponse, error) {
	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, apiVersion, model)

	resp, err := c.do(ctx, url, request, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result GenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// StreamGenerateContent sends a streaming request and decodes SSE events into
// a channel. The channel closes when the upstream stream ends or ctx is
// cancelled; cancellation also closes the HTTP body, releasing the network
// stream.
func (c *Client) StreamGenerateContent(ctx context.Context, model string, request *GenerateContentRequest) (<-chan StreamEvent, error) {
	url := fmt.Sprintf("%s/%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, apiVersion, model)

	//nolint:bodyclose // Response body is closed in the reader goroutine
	resp, err := c.do(ctx, url, request, true)
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent)
	go c.readStream(ctx, resp, events)

	return events, nil
}

// do executes one HTTP request and checks the status. Non-2xx responses come
// back as domain errors.
func (c *Client) do(ctx context.Context, url string, request *GenerateContentRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		_ = resp.Body.Close()
		return nil, core.NewErrorWithStatus(
			core.KindLLMAPIError,
			fmt.Sprintf("google API error: HTTP %d: %s", resp.StatusCode, string(respBody)),
			resp.StatusCode,
			nil,
		)
	}

	return resp, nil
}

// readStream decodes "data:" SSE lines into events.
func (c *Client) readStream(ctx context.Context, resp *http.Response, events chan<- StreamEvent) {
	defer close(events)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}

		var response GenerateContentResponse
		if err := json.Unmarshal([]byte(data), &response); err != nil {
			c.send(ctx, events, StreamEvent{Err: fmt.Errorf("failed to decode stream event: %w", err)})
			return
		}

		if !c.send(ctx, events, StreamEvent{Response: &response}) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		c.send(ctx, events, StreamEvent{Err: fmt.Errorf("stream read failed: %w", err)})
	}
}

func (c *Client) send(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
