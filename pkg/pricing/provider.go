package pricing

import "strings"

// ProviderUnknown is the provider attributed to models whose identifier
// matches no recognized prefix.
const ProviderUnknown = "unknown"

// providerPrefixes maps model identifier prefixes to provider names.
// Declaration order matters only for documentation; lookup walks all
// entries and prefixes do not overlap.
var providerPrefixes = []struct {
	prefix   string
	provider string
}{
	{"gpt-", "openai"},
	{"o1-", "openai"},
	{"o3-", "openai"},
	{"o4-", "openai"},
	{"text-embedding-", "openai"},
	{"claude-", "anthropic"},
	{"gemini-", "google"},
	{"mistral-", "mistral"},
	{"mixtral-", "mistral"},
	{"llama-", "meta"},
	{"deepseek-", "deepseek"},
	{"qwen-", "alibaba"},
	{"grok-", "xai"},
	{"command-", "cohere"},
}

// ProviderForModel derives the provider name from a model identifier's
// prefix. Unrecognized prefixes map to ProviderUnknown.
func ProviderForModel(model string) string {
	for _, p := range providerPrefixes {
		if strings.HasPrefix(model, p.prefix) {
			return p.provider
		}
	}
	return ProviderUnknown
}
