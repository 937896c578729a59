package extractor

import "fmt"

// Provider selects which Extractor implementation backs the pipeline.
type Provider string

const (
	ProviderStub Provider = "stub"
	ProviderLLM  Provider = "llm"
)

// New builds the configured Extractor. apiKey is ignored for ProviderStub.
func New(provider Provider, apiKey string) (Extractor, error) {
	switch provider {
	case ProviderStub, "":
		return NewStub(), nil
	case ProviderLLM:
		if apiKey == "" {
			return nil, fmt.Errorf("extractor: llm provider requires an API key")
		}
		return NewLLM(apiKey), nil
	default:
		return nil, fmt.Errorf("extractor: unknown provider %q", provider)
	}
}
