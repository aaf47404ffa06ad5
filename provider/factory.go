package provider

import (
	"fmt"

	"relay/model"
)

// NewProvider creates an adapter from configuration. This is the single
// dispatch point over the closed set of adapter types; callers hold the
// result as a model.Provider and never branch on vendor again.
func NewProvider(cfg Config) (model.Provider, error) {
	switch cfg.Type {
	case TypeOpenAIChat:
		return NewOpenAIChatProvider(cfg.BaseURL, cfg.APIKey, cfg.Registry)
	case TypeOpenAIResponses:
		return NewOpenAIResponsesProvider(cfg.BaseURL, cfg.APIKey, cfg.Registry)
	case TypeAnthropic:
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Registry)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}
