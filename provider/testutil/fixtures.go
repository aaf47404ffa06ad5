package testutil

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"relay/model"
)

// TestMessages returns a sample conversation for testing
func TestMessages() []model.Message {
	return []model.Message{
		{Role: "user", Content: "Hello, how are you?"},
		{Role: "assistant", Content: "I'm doing well, thank you!"},
		{Role: "user", Content: "Can you help me with a task?"},
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{
		{Role: "user", Content: content},
	}
}

// SystemMessage returns a system message for testing
func SystemMessage(content string) model.Message {
	return model.Message{Role: "system", Content: content}
}

// TestToolCalls returns sample pending tool calls for testing
func TestToolCalls() []model.ToolCall {
	return []model.ToolCall{
		{ID: "fc_abc123", Name: "get_weather", Arguments: `{"location":"San Francisco, CA"}`},
		{ID: "fc_def456", Name: "calculate", Arguments: `{"expression":"2+2"}`},
	}
}

// TestMCPTools returns sample MCP tools for testing
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city and state, e.g. San Francisco, CA",
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "calculate",
			Description: "Perform a mathematical calculation",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "The mathematical expression to evaluate",
					},
				},
				Required: []string{"expression"},
			},
		},
	}
}
