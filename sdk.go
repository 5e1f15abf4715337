// Package lesstokens is the client SDK for the LessTokens prompt compression
// service. It compresses a prompt through the remote API, forwards the
// compressed prompt to one of the supported LLM providers and reports unified
// token usage and savings metrics, for both single-shot and streaming
// responses.
package lesstokens

import (
	"context"
	"strings"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/compression"
	"github.com/lesstokens/lesstokens-go/internal/observability"
	"github.com/lesstokens/lesstokens-go/internal/provider/opts"
	"github.com/lesstokens/lesstokens-go/internal/provider/registry"
	"github.com/lesstokens/lesstokens-go/internal/validate"
)

// compressor abstracts the compression gateway for testing.
type compressor interface {
	Compress(ctx context.Context, prompt string, options *core.CompressionOptions) (*core.CompressedPrompt, error)
}

// resolverFunc constructs a provider adapter by name.
type resolverFunc func(name, apiKey, baseURL string) (core.Provider, error)

// SDK is the entry point: one instance per LessTokens API key and provider.
// Instances are safe for concurrent use; each request owns its own state.
type SDK struct {
	provider   string
	compressor compressor
	resolve    resolverFunc
}

// New creates an SDK instance. The configuration is validated before any
// network call is ever made.
func New(config Config) (*SDK, error) {
	if err := validate.APIKey(config.APIKey); err != nil {
		return nil, err
	}
	if err := validate.ProviderName(config.Provider, registry.IsSupported, registry.Supported()); err != nil {
		return nil, err
	}
	if config.Timeout < 0 {
		return nil, core.NewError(core.KindValidationError, "Timeout must be a positive number")
	}

	var clientOpts []compression.Option
	if config.Cache != nil {
		clientOpts = append(clientOpts, compression.WithCache(config.Cache))
	}

	return &SDK{
		provider:   strings.ToLower(config.Provider),
		compressor: compression.NewClient(config.APIKey, config.BaseURL, config.Timeout, clientOpts...),
		resolve:    registry.Resolve,
	}, nil
}

// ProcessPrompt compresses the prompt, sends it to the configured provider
// and returns the response with compression metrics merged into its usage and
// metadata.
func (s *SDK) ProcessPrompt(ctx context.Context, options ProcessOptions) (*core.LLMResponse, error) {
	ctx, prepared, err := s.prepare(ctx, options)
	if err != nil {
		return nil, err
	}

	response, err := prepared.provider.Chat(ctx, prepared.messages, options.LLMConfig)
	if err != nil {
		return nil, err
	}

	usage := mergeUsage(response.Usage, prepared.compressed)
	metadata := response.Metadata
	if metadata == nil {
		metadata = &core.ResponseMetadata{}
	}
	ratio := prepared.compressed.Ratio
	metadata.CompressionRatio = &ratio

	observability.FromContext(ctx).Info("prompt processed",
		observability.Int("total_tokens", usage.TotalTokens),
		observability.Float64("savings_percent", prepared.compressed.SavingsPercent),
	)

	return &core.LLMResponse{
		Content:  response.Content,
		Usage:    usage,
		Metadata: metadata,
	}, nil
}

// ProcessPromptStream compresses the prompt and streams the provider
// response. Non-terminal chunks are forwarded unchanged as they arrive; the
// terminal chunk carries usage with compression metrics merged in, even when
// the provider supplied none. Cancelling ctx abandons the stream and releases
// the underlying network connection.
func (s *SDK) ProcessPromptStream(ctx context.Context, options ProcessOptions) (<-chan core.StreamChunk, error) {
	ctx, prepared, err := s.prepare(ctx, options)
	if err != nil {
		return nil, err
	}

	upstream, err := prepared.provider.ChatStream(ctx, prepared.messages, options.LLMConfig)
	if err != nil {
		return nil, err
	}

	return wrapStream(ctx, upstream, prepared.compressed), nil
}

// CompressPrompt compresses a prompt without sending it to any LLM.
func (s *SDK) CompressPrompt(ctx context.Context, prompt string, options *core.CompressionOptions) (*core.CompressedPrompt, error) {
	if err := validate.Prompt(prompt); err != nil {
		return nil, err
	}
	if err := validate.CompressionOptions(options); err != nil {
		return nil, err
	}

	ctx = observability.WithRequestID(ctx, observability.GenerateRequestID())
	return s.compressor.Compress(ctx, prompt, options)
}

// preparedRequest is the shared outcome of the validation and compression
// steps of both entry points.
type preparedRequest struct {
	compressed *core.CompressedPrompt
	provider   core.Provider
	messages   []core.ChatMessage
}

// prepare validates inputs, compresses the prompt, resolves the provider and
// builds the message list: prior history first, then the new message.
func (s *SDK) prepare(ctx context.Context, options ProcessOptions) (context.Context, *preparedRequest, error) {
	if err := validate.Prompt(options.Prompt); err != nil {
		return ctx, nil, err
	}
	if err := validate.LLMConfig(options.LLMConfig); err != nil {
		return ctx, nil, err
	}
	if err := validate.CompressionOptions(options.CompressionOptions); err != nil {
		return ctx, nil, err
	}

	ctx = observability.WithRequestID(ctx, observability.GenerateRequestID())
	ctx = observability.WithProvider(ctx, s.provider)
	ctx = observability.WithModel(ctx, options.LLMConfig.Model)

	// A compression failure aborts the pipeline before any LLM call.
	compressed, err := s.compressor.Compress(ctx, options.Prompt, options.CompressionOptions)
	if err != nil {
		return ctx, nil, err
	}

	baseURL := opts.Normalize(options.LLMConfig.Options).BaseURL
	provider, err := s.resolve(s.provider, options.LLMConfig.APIKey, baseURL)
	if err != nil {
		return ctx, nil, err
	}

	messages := make([]core.ChatMessage, 0, len(options.Messages)+1)
	messages = append(messages, options.Messages...)
	messages = append(messages, options.newMessage(compressed))

	return ctx, &preparedRequest{
		compressed: compressed,
		provider:   provider,
		messages:   messages,
	}, nil
}

// mergeUsage augments provider-reported usage with compression metrics.
// Savings is recomputed from the compression token counts, independent of the
// LLM's own numbers.
func mergeUsage(usage core.TokenUsage, compressed *core.CompressedPrompt) core.TokenUsage {
	compressedTokens := compressed.CompressedTokens
	savings := core.SavingsPercent(compressed.OriginalTokens, compressed.CompressedTokens)

	usage.CompressedTokens = &compressedTokens
	usage.SavingsPercent = &savings
	return usage
}
