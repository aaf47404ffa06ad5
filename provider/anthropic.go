package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"relay/config"
	"relay/model"
	"relay/tool"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicProvider implements model.Provider over the Messages API.
// System and developer messages are not legal in the message list, so
// the adapter promotes them into the top-level system field. Tool use
// blocks in the reply are not executed locally; only text is returned.
type AnthropicProvider struct {
	client   *anthropic.Client
	registry *tool.Registry
}

// NewAnthropicProvider creates a Messages API adapter. baseURL defaults
// to the public Anthropic endpoint.
func NewAnthropicProvider(baseURL, apiKey string, registry *tool.Registry) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if registry == nil {
		registry = tool.NewRegistry()
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{client: &client, registry: registry}, nil
}

func (p *AnthropicProvider) Invoke(ctx context.Context, req model.Request) (*model.Result, error) {
	system, msgs := promoteSystem(req)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if tools := anthropicTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil && isToolRejection(err) && len(params.Tools) > 0 {
		// Some Claude-compatible endpoints reject tool parameters
		// outright. Retry once without them rather than failing the
		// whole request.
		if config.Debug {
			config.DebugLog.Printf("[Provider] Anthropic rejected tools, retrying without: %v", err)
		}
		params.Tools = nil
		params.ToolChoice = anthropic.ToolChoiceUnionParam{}
		msg, err = p.client.Messages.New(ctx, params)
	}
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	res := &model.Result{
		Text:         text.String(),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	if config.Debug {
		config.DebugLog.Printf("[Provider] Anthropic message: %d/%d tokens",
			res.InputTokens, res.OutputTokens)
	}
	return res, nil
}

// promoteSystem splits the request into a system prompt and the
// remaining conversation. Explicit instructions win; otherwise the
// first system or developer message in the input is promoted; otherwise
// a default prompt keeps behavior consistent with the other adapters.
func promoteSystem(req model.Request) (string, []anthropic.MessageParam) {
	system := req.Instructions
	msgs := make([]anthropic.MessageParam, 0, len(req.Input))
	for _, m := range req.Input {
		switch m.Role {
		case model.RoleSystem, model.RoleDeveloper:
			if system == "" {
				system = m.Content
			}
		case model.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if system == "" {
		system = "You are a helpful assistant."
	}
	return system, msgs
}

// anthropicTools reshapes the registry's "anthropic" projection
// ({name, description, input_schema}) into SDK tool params.
func anthropicTools(tools []map[string]any) []anthropic.ToolUnionParam {
	var out []anthropic.ToolUnionParam
	for _, t := range tools {
		name, _ := t["name"].(string)
		if name == "" {
			continue
		}
		schema := anthropic.ToolInputSchemaParam{}
		if in, ok := t["input_schema"].(map[string]any); ok {
			schema.Properties = in["properties"]
			schema.Required = stringSlice(in["required"])
		}
		tp := anthropic.ToolUnionParamOfTool(schema, name)
		if desc, ok := t["description"].(string); ok && desc != "" {
			tp.OfTool.Description = anthropic.String(desc)
		}
		out = append(out, tp)
	}
	return out
}

// isToolRejection reports whether an API error looks like the endpoint
// refusing tool parameters rather than a genuine request failure.
func isToolRejection(err error) bool {
	s := err.Error()
	return strings.Contains(s, "tool_choice") ||
		strings.Contains(s, "Extra inputs are not permitted")
}
