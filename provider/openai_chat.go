package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"relay/config"
	"relay/model"
	"relay/tool"
)

// OpenAIChatProvider implements model.Provider over the Chat
// Completions API. It is fully stateless: the whole conversation,
// including any prior tool calls and their outputs, is replayed as an
// explicit message list on every call, and no continuation id is ever
// produced.
type OpenAIChatProvider struct {
	client   openai.Client
	registry *tool.Registry
}

// NewOpenAIChatProvider creates a Chat Completions adapter. baseURL
// defaults to the public OpenAI endpoint; the API key is required
// (OpenAI-compatible local servers accept any non-empty key).
func NewOpenAIChatProvider(baseURL, apiKey string, registry *tool.Registry) (*OpenAIChatProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if registry == nil {
		registry = tool.NewRegistry()
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIChatProvider{client: client, registry: registry}, nil
}

func (p *OpenAIChatProvider) Invoke(ctx context.Context, req model.Request) (*model.Result, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    chatMessages(req),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if tools := chatTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	msg := resp.Choices[0].Message
	res := &model.Result{
		Text:         msg.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	for _, tc := range msg.ToolCalls {
		if tc.Type != "function" {
			continue
		}
		fn := tc.AsFunction()
		res.ToolCalls = append(res.ToolCalls, model.ToolCall{
			ID:        fn.ID,
			Name:      fn.Function.Name,
			Arguments: fn.Function.Arguments,
		})
	}

	if config.Debug {
		config.DebugLog.Printf("[Provider] Chat completion: %d tool calls, %d/%d tokens",
			len(res.ToolCalls), res.InputTokens, res.OutputTokens)
	}
	return res, nil
}

// chatMessages flattens the canonical request into the Chat Completions
// message array: instructions first as a system entry (unless the input
// already carries one), then the conversation, then the previous
// round's tool calls replayed as an assistant message with shortened
// ids followed by their tool-result messages.
func chatMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Input)+len(req.ToolResults)+2)

	if req.Instructions != "" && !model.HasSystemMessage(req.Input) {
		out = append(out, systemMessageParam(req.Instructions))
	}

	for _, m := range req.Input {
		switch m.Role {
		case model.RoleSystem, model.RoleDeveloper:
			out = append(out, systemMessageParam(m.Content))
		case model.RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		default:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		}
	}

	if len(req.ToolResults) > 0 {
		ids := shortenCallIDs(req.PendingCalls)
		out = append(out, assistantToolCallsParam(req.PendingCalls, ids))
		for _, tr := range req.ToolResults {
			id, ok := ids[tr.ID]
			if !ok {
				id = tr.ID
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: id,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(tr.Output),
					},
				},
			})
		}
	}

	return out
}

func systemMessageParam(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

// assistantToolCallsParam replays the model's tool calls so the API
// accepts the tool-result messages that follow.
func assistantToolCallsParam(calls []model.ToolCall, ids map[string]string) openai.ChatCompletionMessageParamUnion {
	asst := &openai.ChatCompletionAssistantMessageParam{}
	for _, c := range calls {
		id, ok := ids[c.ID]
		if !ok {
			id = c.ID
		}
		asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: id,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      c.Name,
					Arguments: c.Arguments,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: asst}
}

// chatTools reshapes the registry's schemas into the Chat Completions
// tool form. Only function tools survive; this API has no notion of
// provider-internal tools.
func chatTools(tools []map[string]any) []openai.ChatCompletionToolUnionParam {
	fns := functionTools(tools)
	if len(fns) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, len(fns))
	for i, ft := range fns {
		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        ft.Name,
			Description: openai.String(ft.Description),
			Parameters:  openai.FunctionParameters(ft.Parameters),
		})
	}
	return out
}
