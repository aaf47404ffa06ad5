package model

import "context"

// Provider abstracts one backend API (OpenAI Chat Completions, OpenAI
// Responses, Anthropic) behind a single non-streaming call.
//
// This interface is defined in the model package (not provider) so that
// provider implementations, the conversation loop, and test mocks can
// all import it without cycles.
type Provider interface {
	// Invoke sends one canonical request and returns either a final
	// result or a result carrying pending tool calls for the caller to
	// execute. Transport and API errors are returned as-is.
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// ToolCall is a function call requested by the model. ID is the
// provider-issued call identifier and must be echoed back verbatim
// when the tool's output is returned. Arguments is raw JSON text.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult is the textual outcome of one executed tool call,
// correlated to its ToolCall by ID.
type ToolResult struct {
	ID     string `json:"id"`
	Output string `json:"output"`
}

// Request is the provider-agnostic request shape. Each adapter
// translates it into its own wire format.
type Request struct {
	// Model is the full model identifier, e.g. "gpt-4o-mini" or
	// "claude-sonnet-4-5-20250929".
	Model string

	// Input is the conversation so far. For providers with server-side
	// state this is typically just the newest user message plus
	// ContinuationID.
	Input []Message

	// Instructions is the system prompt. Adapters skip it when Input
	// already contains an equivalent system-role message.
	Instructions string

	Temperature float64
	MaxTokens   int64

	// Tools holds schemas in the registry's "openai" projection; each
	// adapter reshapes them to its own convention. Nil or empty means
	// no tools field goes on the wire.
	Tools []map[string]any

	// ContinuationID resumes server-side conversation state. Only the
	// Responses adapter honors it; it is never valid across providers.
	ContinuationID string

	// PendingCalls and ToolResults carry the previous round's tool
	// calls and their outputs. Each adapter folds them into the request
	// per its own convention (tool-role messages, function_call_output
	// items, ...). They are always set together.
	PendingCalls []ToolCall
	ToolResults  []ToolResult
}

// Result is what an adapter hands back from one Invoke. ToolCalls,
// when non-empty, are calls the local registry should execute;
// provider-internal tools never appear here.
type Result struct {
	Text           string
	InputTokens    int64
	OutputTokens   int64
	ContinuationID string
	ToolCalls      []ToolCall
}
