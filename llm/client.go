// Package llm is the single entry point for getting model responses. It
// routes each request to a vendor adapter by model name, layers the
// bounded tool-calling loop on top, and hands back one canonical
// response regardless of which vendor served it.
package llm

import (
	"context"
	"fmt"
	"strings"

	"relay/config"
	"relay/model"
	"relay/provider"
	"relay/tool"
)

// LocalAPIKey is the sentinel key that routes otherwise-unknown model
// names to the OpenAI-compatible endpoint. Local servers behind an
// OpenAI-shaped API accept any key, so the value doubles as the key
// actually sent.
const LocalAPIKey = "ollama"

// DefaultMaxToolDepth bounds how many tool-execution rounds a single
// request may trigger before the loop gives up.
const DefaultMaxToolDepth = 3

const (
	defaultInstructions = "You are a helpful assistant."
	defaultMaxTokens    = 4096
)

var openaiModelPrefixes = []string{"gpt", "o1", "o3", "text-", "dall-e"}

// UnsupportedModelError reports a model name no adapter claims.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model: %s", e.Model)
}

// Config holds the credentials and endpoints the client routes across.
type Config struct {
	OpenAIBaseURL    string
	OpenAIAPIKey     string
	AnthropicBaseURL string
	AnthropicAPIKey  string
}

// Options tune a single request. The zero value asks for defaults.
type Options struct {
	// Instructions is the system prompt. Ignored when the input already
	// carries a system or developer message.
	Instructions string

	Temperature float64
	MaxTokens   int64

	// Tools overrides the registry's schemas for this request when
	// non-nil. Entries must already be in the projection the routed
	// provider expects (see tool.Registry.Schemas).
	Tools []map[string]any

	// ContinuationID resumes server-side conversation state on
	// providers that keep any. Stateless providers ignore it.
	ContinuationID string

	// MaxToolDepth overrides the client's tool-round bound when > 0.
	MaxToolDepth int

	// UseChatAPI forces OpenAI-routed requests onto Chat Completions
	// instead of the Responses API.
	UseChatAPI bool
}

// Client routes requests to vendor adapters and runs the tool loop.
// Safe for concurrent use.
type Client struct {
	cfg      Config
	registry *tool.Registry
	maxDepth int

	openaiChat      model.Provider
	openaiResponses model.Provider
	anthropic       model.Provider
}

// NewClient builds a client over the configured endpoints. Adapters for
// vendors with no API key configured are left out and route to an
// UnsupportedModelError at request time.
func NewClient(cfg Config, registry *tool.Registry) (*Client, error) {
	if registry == nil {
		registry = tool.NewRegistry()
	}
	c := &Client{cfg: cfg, registry: registry, maxDepth: DefaultMaxToolDepth}

	if cfg.OpenAIAPIKey != "" {
		chat, err := provider.NewOpenAIChatProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, registry)
		if err != nil {
			return nil, fmt.Errorf("configuring OpenAI provider: %w", err)
		}
		resp, err := provider.NewOpenAIResponsesProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, registry)
		if err != nil {
			return nil, fmt.Errorf("configuring OpenAI provider: %w", err)
		}
		c.openaiChat = chat
		c.openaiResponses = resp
	}
	if cfg.AnthropicAPIKey != "" {
		ap, err := provider.NewAnthropicProvider(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, registry)
		if err != nil {
			return nil, fmt.Errorf("configuring Anthropic provider: %w", err)
		}
		c.anthropic = ap
	}
	return c, nil
}

// NewClientWithProviders wires explicit adapters, bypassing routing
// setup. Intended for tests.
func NewClientWithProviders(chat, responses, anthropic model.Provider, registry *tool.Registry) *Client {
	if registry == nil {
		registry = tool.NewRegistry()
	}
	return &Client{
		registry:        registry,
		maxDepth:        DefaultMaxToolDepth,
		openaiChat:      chat,
		openaiResponses: responses,
		anthropic:       anthropic,
	}
}

// Registry exposes the client's tool registry so callers can register
// tools after construction.
func (c *Client) Registry() *tool.Registry { return c.registry }

// SetMaxToolDepth changes the default tool-round bound for requests
// that don't set Options.MaxToolDepth.
func (c *Client) SetMaxToolDepth(depth int) {
	if depth > 0 {
		c.maxDepth = depth
	}
}

// Respond routes the request to the adapter for modelName, runs the
// tool loop to completion, and returns the final response.
func (c *Client) Respond(ctx context.Context, modelName string, input []model.Message, opts Options) (*model.Response, error) {
	p, schemaKey, err := c.route(modelName, opts)
	if err != nil {
		return nil, err
	}

	maxDepth := c.maxDepth
	if opts.MaxToolDepth > 0 {
		maxDepth = opts.MaxToolDepth
	}
	if opts.Instructions == "" {
		opts.Instructions = defaultInstructions
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	tools := opts.Tools
	if tools == nil {
		tools = c.registry.Schemas(schemaKey)
	}

	req := model.Request{
		Model:          modelName,
		Input:          input,
		Instructions:   opts.Instructions,
		Temperature:    opts.Temperature,
		MaxTokens:      opts.MaxTokens,
		Tools:          tools,
		ContinuationID: opts.ContinuationID,
	}

	resp, err := c.run(ctx, p, req, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("getting response from %s: %w", modelName, err)
	}
	return resp, nil
}

// RespondText is Respond for callers that only want the text.
func (c *Client) RespondText(ctx context.Context, modelName, prompt string, opts Options) (string, error) {
	resp, err := c.Respond(ctx, modelName, model.UserMessage(prompt), opts)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// route picks the adapter and the schema projection key for a model
// name. Claude models go to Anthropic; known OpenAI families (and
// anything under the local sentinel key) go to OpenAI, preferring the
// Responses API unless the caller asked for Chat Completions.
func (c *Client) route(modelName string, opts Options) (model.Provider, string, error) {
	name := strings.ToLower(modelName)

	if strings.HasPrefix(name, "claude") || strings.HasPrefix(name, "anthropic") {
		if c.anthropic == nil {
			return nil, "", &UnsupportedModelError{Model: modelName}
		}
		return c.anthropic, tool.ProviderAnthropic, nil
	}

	openaiModel := c.cfg.OpenAIAPIKey == LocalAPIKey
	for _, prefix := range openaiModelPrefixes {
		if strings.HasPrefix(name, prefix) {
			openaiModel = true
			break
		}
	}
	if openaiModel {
		p := c.openaiResponses
		if opts.UseChatAPI {
			p = c.openaiChat
		}
		if p == nil {
			return nil, "", &UnsupportedModelError{Model: modelName}
		}
		if config.Debug {
			config.DebugLog.Printf("[Client] Routing %s to OpenAI (chat=%v)", modelName, opts.UseChatAPI)
		}
		return p, tool.ProviderOpenAI, nil
	}

	return nil, "", &UnsupportedModelError{Model: modelName}
}
