// Package provider implements the vendor-specific adapters behind the
// model.Provider interface.
//
// Three adapters cover the two vendors relay speaks to:
//   - provider.OpenAIChatProvider — OpenAI Chat Completions (stateless;
//     history is replayed as an explicit message list)
//   - provider.OpenAIResponsesProvider — OpenAI Responses API (stateful;
//     server-side history resumed by a previous response id)
//   - provider.AnthropicProvider — Anthropic Messages API (stateless,
//     system prompt promoted to a dedicated top-level field)
//
// Each adapter owns the full translation between the canonical request/
// result shapes in the model package and its vendor's wire format,
// including how prior tool calls and their outputs are folded into a
// continuation request. The conversation loop in the llm package never
// sees vendor types.
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:     provider.TypeOpenAIResponses,
//	    APIKey:   "sk-...",
//	    Registry: registry,
//	})
//	if err != nil {
//	    // handle error
//	}
//	res, err := p.Invoke(ctx, req)
package provider

import "relay/tool"

// Type identifies the adapter implementation.
type Type string

const (
	TypeOpenAIChat      Type = "openai-chat"
	TypeOpenAIResponses Type = "openai-responses"
	TypeAnthropic       Type = "anthropic"
)

// Config holds adapter-specific configuration. The model is chosen per
// request, not per adapter, so it does not appear here.
type Config struct {
	Type    Type
	BaseURL string
	APIKey  string

	// Registry supplies the set of provider-internal tool types the
	// adapter must never hand back for local execution. Nil gets the
	// default set.
	Registry *tool.Registry
}
