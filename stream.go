package lesstokens

import (
	"context"

	"github.com/lesstokens/lesstokens-go/core"
)

// wrapStream forwards provider chunks and injects compression metrics into
// the terminal chunk. Non-terminal chunks pass through unchanged and
// immediately; the upstream terminal chunk is withheld and replaced by
// exactly one merged terminal chunk once the stream ends. A mid-stream error
// chunk is forwarded as-is and ends the stream without a terminal chunk.
func wrapStream(ctx context.Context, upstream <-chan core.StreamChunk, compressed *core.CompressedPrompt) <-chan core.StreamChunk {
	out := make(chan core.StreamChunk)

	go func() {
		defer close(out)

		var lastUsage *core.TokenUsage

		for chunk := range upstream {
			if chunk.Err != nil {
				send(ctx, out, chunk)
				return
			}

			if chunk.Done {
				// Withhold the terminal chunk; keep the last observed usage.
				// A misbehaving upstream that emits several terminal chunks
				// still results in a single merged one.
				if chunk.Usage != nil {
					lastUsage = chunk.Usage
				}
				continue
			}

			if !send(ctx, out, chunk) {
				return
			}
		}

		usage := terminalUsage(lastUsage, compressed)
		send(ctx, out, core.StreamChunk{Done: true, Usage: &usage})
	}()

	return out
}

// terminalUsage merges compression metrics into the stream's final usage.
// When the stream carried no usage at all, a record is synthesized from the
// compression counts so the terminal chunk never lacks one.
func terminalUsage(lastUsage *core.TokenUsage, compressed *core.CompressedPrompt) core.TokenUsage {
	if lastUsage != nil {
		return mergeUsage(*lastUsage, compressed)
	}
	return mergeUsage(core.TokenUsage{
		PromptTokens:     compressed.OriginalTokens,
		CompletionTokens: 0,
		TotalTokens:      compressed.OriginalTokens,
	}, compressed)
}

func send(ctx context.Context, out chan<- core.StreamChunk, chunk core.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
