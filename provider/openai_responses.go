package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"relay/config"
	"relay/model"
	"relay/tool"
)

// OpenAIResponsesProvider implements model.Provider over the Responses
// API. Conversation state lives server-side: the response id comes back
// as the continuation id and a later request resumes from it via
// previous_response_id, so callers only need to send the newest input.
//
// Provider-internal tools (file/web search, code interpreter) are
// forwarded in the request but resolved by OpenAI itself; only
// function_call output items are handed back for local execution.
type OpenAIResponsesProvider struct {
	client   openai.Client
	registry *tool.Registry
}

// NewOpenAIResponsesProvider creates a Responses API adapter.
func NewOpenAIResponsesProvider(baseURL, apiKey string, registry *tool.Registry) (*OpenAIResponsesProvider, error) {
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

	return &OpenAIResponsesProvider{client: client, registry: registry}, nil
}

func (p *OpenAIResponsesProvider) Invoke(ctx context.Context, req model.Request) (*model.Result, error) {
	var items responses.ResponseInputParam
	if req.ContinuationID == "" || len(req.ToolResults) == 0 {
		items = responsesInput(req.Input)
	}

	// Fold the previous round's tool outputs in as function_call_output
	// items. The conversation itself already lives server-side behind
	// the previous response id, so the outputs are the only new input.
	// The call_id must be echoed verbatim or the API rejects the
	// continuation.
	for _, tr := range req.ToolResults {
		items = append(items, responses.ResponseInputItemUnionParam{
			OfFunctionCallOutput: &responses.ResponseInputItemFunctionCallOutputParam{
				CallID: tr.ID,
				Output: responses.ResponseInputItemFunctionCallOutputOutputUnionParam{
					OfString: openai.String(tr.Output),
				},
			},
		})
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(req.MaxTokens)
	}
	if req.Instructions != "" && !model.HasSystemMessage(req.Input) {
		params.Instructions = openai.String(req.Instructions)
	}
	if req.ContinuationID != "" {
		params.PreviousResponseID = openai.String(req.ContinuationID)
	}
	if tools := responsesTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, err
	}

	res := &model.Result{
		InputTokens:    resp.Usage.InputTokens,
		OutputTokens:   resp.Usage.OutputTokens,
		ContinuationID: resp.ID,
	}
	for _, item := range resp.Output {
		switch {
		case item.Type == "message":
			for _, c := range item.Content {
				if c.Type == "output_text" {
					res.Text += c.Text
				}
			}
		case item.Type == "function_call" && !p.registry.IsInternalTool(item.Type):
			fc := item.AsFunctionCall()
			res.ToolCalls = append(res.ToolCalls, model.ToolCall{
				ID:        fc.CallID,
				Name:      fc.Name,
				Arguments: fc.Arguments,
			})
		}
	}
	if res.Text == "" && len(res.ToolCalls) == 0 {
		res.Text = resp.OutputText()
	}

	if config.Debug {
		config.DebugLog.Printf("[Provider] Response %s: %d tool calls, %d/%d tokens",
			resp.ID, len(res.ToolCalls), res.InputTokens, res.OutputTokens)
	}
	return res, nil
}

func responsesInput(msgs []model.Message) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, responses.ResponseInputItemUnionParam{
			OfMessage: &responses.EasyInputMessageParam{
				Role: easyInputRole(m.Role),
				Content: responses.EasyInputMessageContentUnionParam{
					OfString: openai.String(m.Content),
				},
			},
		})
	}
	return items
}

func easyInputRole(role string) responses.EasyInputMessageRole {
	switch role {
	case model.RoleSystem:
		return responses.EasyInputMessageRoleSystem
	case model.RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case model.RoleUser:
		return responses.EasyInputMessageRoleUser
	default:
		// The Responses API also accepts "developer" directly.
		return responses.EasyInputMessageRole(role)
	}
}

// responsesTools reshapes schemas for the Responses API. Function tools
// carry their parameters; recognized provider-internal types are passed
// through so OpenAI resolves them itself. Internal types whose request
// shape needs configuration this layer doesn't have are left out.
func responsesTools(tools []map[string]any) []responses.ToolUnionParam {
	var out []responses.ToolUnionParam
	for _, t := range tools {
		typ, _ := t["type"].(string)
		switch typ {
		case "function":
			name, _ := t["name"].(string)
			var description string
			var parameters map[string]any
			if fn, ok := t["function"].(map[string]any); ok {
				description, _ = fn["description"].(string)
				parameters, _ = fn["parameters"].(map[string]any)
			}
			out = append(out, responses.ToolUnionParam{
				OfFunction: &responses.FunctionToolParam{
					Name:        name,
					Description: openai.String(description),
					Parameters:  parameters,
				},
			})
		case "web_search", "web_search_preview":
			out = append(out, responses.ToolUnionParam{
				OfWebSearchPreview: &responses.WebSearchPreviewToolParam{
					Type: responses.WebSearchPreviewToolTypeWebSearchPreview,
				},
			})
		case "file_search":
			out = append(out, responses.ToolUnionParam{
				OfFileSearch: &responses.FileSearchToolParam{
					VectorStoreIDs: stringSlice(t["vector_store_ids"]),
				},
			})
		}
	}
	return out
}
