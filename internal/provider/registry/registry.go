// Package registry constructs provider adapters by name. It is a pure
// factory: every Resolve call returns a fresh adapter and no state is
// retained between calls.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/provider/anthropic"
	"github.com/lesstokens/lesstokens-go/internal/provider/deepseek"
	"github.com/lesstokens/lesstokens-go/internal/provider/google"
	"github.com/lesstokens/lesstokens-go/internal/provider/openai"
)

// constructors maps a normalized provider name to its adapter constructor.
var constructors = map[string]func(apiKey, baseURL string) core.Provider{
	"openai": func(apiKey, baseURL string) core.Provider {
		return openai.New("openai", apiKey, baseURL)
	},
	"anthropic": func(apiKey, baseURL string) core.Provider {
		return anthropic.New(apiKey, baseURL)
	},
	"google": func(apiKey, baseURL string) core.Provider {
		return google.New(apiKey, baseURL)
	},
	"deepseek": func(apiKey, baseURL string) core.Provider {
		return deepseek.New(apiKey, baseURL)
	},
}

// Supported returns the sorted list of known provider names.
func Supported() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported reports whether the name resolves to a known provider.
// Comparison is case-insensitive.
func IsSupported(name string) bool {
	_, ok := constructors[strings.ToLower(name)]
	return ok
}

// Resolve constructs the adapter for the named provider. Name comparison is
// case-insensitive; an unknown name yields an InvalidProvider error naming
// the supported set. No network call is made.
func Resolve(name, apiKey, baseURL string) (core.Provider, error) {
	constructor, ok := constructors[strings.ToLower(name)]
	if !ok {
		return nil, core.NewError(
			core.KindInvalidProvider,
			fmt.Sprintf("Unsupported provider: %s. Supported providers: %s", name, strings.Join(Supported(), ", ")),
		)
	}
	return constructor(apiKey, baseURL), nil
}
