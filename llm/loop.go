package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"relay/config"
	"relay/model"
	"relay/tool"
)

// depthExceededText is returned verbatim when a request burns through
// its tool-round budget without the model producing a final answer.
const depthExceededText = "I've reached the maximum number of tool calls I can make for this request. Please provide more specific instructions if needed."

// run drives the tool-calling loop for one request. Each iteration
// invokes the provider once; when the model asks for tools they are
// executed locally and their outputs folded into the next request.
// After maxDepth tool rounds the loop stops with a canned response
// instead of invoking the provider again, so a request costs at most
// maxDepth+1 provider calls.
func (c *Client) run(ctx context.Context, p model.Provider, req model.Request, maxDepth int) (*model.Response, error) {
	var totalIn, totalOut int64

	for depth := 0; ; depth++ {
		res, err := p.Invoke(ctx, req)
		if err != nil {
			return nil, err
		}
		totalIn += res.InputTokens
		totalOut += res.OutputTokens

		if len(res.ToolCalls) == 0 {
			return &model.Response{
				Text:           res.Text,
				InputTokens:    totalIn,
				OutputTokens:   totalOut,
				ContinuationID: res.ContinuationID,
			}, nil
		}

		if config.Debug {
			config.DebugLog.Printf("[Loop] Depth %d: executing %d tool calls", depth, len(res.ToolCalls))
		}
		results := c.executeCalls(ctx, res.ToolCalls)

		if depth+1 > maxDepth {
			if config.Debug {
				config.DebugLog.Printf("[Loop] Tool depth %d exceeded, returning canned response", maxDepth)
			}
			// Token counts are zeroed: nothing here came from a model
			// turn the caller can act on.
			return &model.Response{
				Text:           depthExceededText,
				ContinuationID: res.ContinuationID,
			}, nil
		}

		req.PendingCalls = res.ToolCalls
		req.ToolResults = results
		req.ContinuationID = res.ContinuationID
	}
}

// executeCalls runs the requested tools sequentially in the order the
// provider issued them. Failures never abort the loop; they are folded
// into the output text so the model can see what went wrong and react.
func (c *Client) executeCalls(ctx context.Context, calls []model.ToolCall) []model.ToolResult {
	results := make([]model.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, model.ToolResult{
			ID:     call.ID,
			Output: c.executeCall(ctx, call),
		})
	}
	return results
}

func (c *Client) executeCall(ctx context.Context, call model.ToolCall) string {
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Invalid JSON arguments for tool %s: %v", call.Name, err)
		}
	}

	out, err := c.registry.Execute(ctx, call.Name, args)
	if err != nil {
		if errors.Is(err, tool.ErrNotFound) {
			return fmt.Sprintf("Error: Tool '%s' not found in registry", call.Name)
		}
		var execErr *tool.ExecutionError
		if errors.As(err, &execErr) {
			err = execErr.Err
		}
		return fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
	}
	return tool.FormatResult(out)
}
