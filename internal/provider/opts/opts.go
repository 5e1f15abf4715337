// Package opts normalizes caller-supplied LLM options into one canonical
// struct per request. Every logical option is accepted under both its
// snake_case and camelCase wire names, with the snake_case value winning when
// both are present. Keys that are not consumed here are preserved in Rest and
// forwarded to the backend verbatim by the adapters.
package opts

import "encoding/json"

// Canonical is the normalized option set shared by all provider adapters.
// Pointer fields distinguish "unset" from a zero value.
type Canonical struct {
	Temperature      *float64
	MaxTokens        *int64
	TopP             *float64
	TopK             *int64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Stop             []string
	BaseURL          string

	// Rest holds every caller-supplied key that no canonical field consumed.
	Rest map[string]any
}

// Aliases of each logical option, snake_case first.
var (
	temperatureKeys      = []string{"temperature"}
	maxTokensKeys        = []string{"max_tokens", "maxTokens"}
	topPKeys             = []string{"top_p", "topP"}
	topKKeys             = []string{"top_k", "topK"}
	frequencyPenaltyKeys = []string{"frequency_penalty", "frequencyPenalty"}
	presencePenaltyKeys  = []string{"presence_penalty", "presencePenalty"}
	stopKeys             = []string{"stop"}
	baseURLKeys          = []string{"base_url", "baseURL"}
)

// Normalize builds the canonical option set from raw caller options. The
// input map is not modified.
func Normalize(options map[string]any) Canonical {
	c := Canonical{Rest: make(map[string]any)}
	consumed := make(map[string]bool)

	c.Temperature = pickFloat(options, temperatureKeys, consumed)
	c.MaxTokens = pickInt(options, maxTokensKeys, consumed)
	c.TopP = pickFloat(options, topPKeys, consumed)
	c.TopK = pickInt(options, topKKeys, consumed)
	c.FrequencyPenalty = pickFloat(options, frequencyPenaltyKeys, consumed)
	c.PresencePenalty = pickFloat(options, presencePenaltyKeys, consumed)
	c.Stop = pickStrings(options, stopKeys, consumed)
	c.BaseURL = pickString(options, baseURLKeys, consumed)

	for key, value := range options {
		if !consumed[key] {
			c.Rest[key] = value
		}
	}
	return c
}

// pick returns the first alias present with a non-nil value and marks every
// alias as consumed so none of them leaks into Rest.
func pick(options map[string]any, keys []string, consumed map[string]bool) (any, bool) {
	var value any
	found := false
	for _, key := range keys {
		if v, ok := options[key]; ok {
			consumed[key] = true
			if !found && v != nil {
				value = v
				found = true
			}
		}
	}
	return value, found
}

func pickFloat(options map[string]any, keys []string, consumed map[string]bool) *float64 {
	v, ok := pick(options, keys, consumed)
	if !ok {
		return nil
	}
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func pickInt(options map[string]any, keys []string, consumed map[string]bool) *int64 {
	v, ok := pick(options, keys, consumed)
	if !ok {
		return nil
	}
	if f, ok := asFloat(v); ok {
		n := int64(f)
		return &n
	}
	return nil
}

func pickString(options map[string]any, keys []string, consumed map[string]bool) string {
	v, ok := pick(options, keys, consumed)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func pickStrings(options map[string]any, keys []string, consumed map[string]bool) []string {
	v, ok := pick(options, keys, consumed)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// asFloat coerces the numeric types that reach us from Go callers and from
// decoded JSON (where every number is a float64 or json.Number).
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
