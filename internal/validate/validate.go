// Package validate checks SDK inputs before any network call is made.
// Every failure is a domain error raised synchronously.
package validate

import (
	"fmt"
	"strings"

	"github.com/lesstokens/lesstokens-go/core"
)

const (
	// MinPromptSize is the minimum prompt length in characters.
	MinPromptSize = 1

	// MaxPromptSize is the maximum prompt length in characters.
	MaxPromptSize = 1_000_000
)

// APIKey validates the LessTokens API key.
func APIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return core.NewError(core.KindInvalidAPIKey, "LessTokens API key is required and must be a non-empty string")
	}
	return nil
}

// ProviderName validates the configured provider name against the supported
// set. supported is the sorted list of known names.
func ProviderName(name string, isSupported func(string) bool, supported []string) error {
	if strings.TrimSpace(name) == "" {
		return core.NewError(core.KindInvalidProvider, "Provider is required and must be a non-empty string")
	}
	if !isSupported(name) {
		return core.NewError(
			core.KindInvalidProvider,
			fmt.Sprintf("Provider '%s' is not supported. Supported providers: %s", name, strings.Join(supported, ", ")),
		)
	}
	return nil
}

// Prompt validates prompt length bounds.
func Prompt(prompt string) error {
	if len(prompt) < MinPromptSize {
		return core.NewError(core.KindValidationError, fmt.Sprintf("Prompt must be at least %d character long", MinPromptSize))
	}
	if len(prompt) > MaxPromptSize {
		return core.NewError(core.KindValidationError, fmt.Sprintf("Prompt must not exceed %d characters", MaxPromptSize))
	}
	return nil
}

// LLMConfig validates the per-request LLM configuration.
func LLMConfig(config core.LLMConfig) error {
	if strings.TrimSpace(config.APIKey) == "" {
		return core.NewError(core.KindValidationError, "LLM API key is required and must be a non-empty string")
	}
	if strings.TrimSpace(config.Model) == "" {
		return core.NewError(core.KindValidationError, "Model is required and must be a non-empty string")
	}
	return nil
}

// CompressionOptions validates optional compression settings.
func CompressionOptions(options *core.CompressionOptions) error {
	if options == nil {
		return nil
	}
	if options.TargetRatio != nil && (*options.TargetRatio < 0 || *options.TargetRatio > 1) {
		return core.NewError(core.KindValidationError, "target_ratio must be a number between 0.0 and 1.0")
	}
	return nil
}
