package llm

import (
	"context"
	"errors"
	"testing"

	"relay/model"
	"relay/provider/testutil"
	"relay/tool"
)

func result(text string) *model.Result {
	return &model.Result{Text: text, InputTokens: 1, OutputTokens: 1}
}

func TestRouting(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		opts     Options
		expected string
	}{
		{"claude goes to anthropic", "claude-sonnet-4-0", Options{}, "anthropic"},
		{"anthropic prefix goes to anthropic", "anthropic.claude-v2", Options{}, "anthropic"},
		{"gpt goes to responses", "gpt-4o", Options{}, "responses"},
		{"o1 goes to responses", "o1-preview", Options{}, "responses"},
		{"o3 goes to responses", "o3-mini", Options{}, "responses"},
		{"text- goes to responses", "text-embedding-3-small", Options{}, "responses"},
		{"dall-e goes to responses", "dall-e-3", Options{}, "responses"},
		{"chat api override", "gpt-4o", Options{UseChatAPI: true}, "chat"},
		{"case insensitive", "GPT-4o", Options{}, "responses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := testutil.ScriptedProvider(result("chat"))
			responses := testutil.ScriptedProvider(result("responses"))
			anthropic := testutil.ScriptedProvider(result("anthropic"))
			c := NewClientWithProviders(chat, responses, anthropic, nil)

			resp, err := c.Respond(context.Background(), tt.model, model.UserMessage("hi"), tt.opts)
			if err != nil {
				t.Fatalf("respond: %v", err)
			}
			if resp.Text != tt.expected {
				t.Errorf("routed to %q, want %q", resp.Text, tt.expected)
			}
		})
	}
}

func TestRoutingUnsupportedModel(t *testing.T) {
	c := NewClientWithProviders(
		testutil.NewMockProvider(),
		testutil.NewMockProvider(),
		testutil.NewMockProvider(),
		nil,
	)

	_, err := c.Respond(context.Background(), "llama3.2", model.UserMessage("hi"), Options{})
	var umErr *UnsupportedModelError
	if !errors.As(err, &umErr) {
		t.Fatalf("got %v, want *UnsupportedModelError", err)
	}
	if umErr.Model != "llama3.2" {
		t.Errorf("model in error: got %q", umErr.Model)
	}
}

func TestRoutingLocalSentinelKey(t *testing.T) {
	responses := testutil.ScriptedProvider(result("local"))
	c := NewClientWithProviders(nil, responses, nil, nil)
	c.cfg.OpenAIAPIKey = LocalAPIKey

	resp, err := c.Respond(context.Background(), "llama3.2", model.UserMessage("hi"), Options{})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Text != "local" {
		t.Errorf("routed to %q, want local", resp.Text)
	}
}

func TestRoutingMissingAdapter(t *testing.T) {
	c := NewClientWithProviders(nil, testutil.NewMockProvider(), nil, nil)

	_, err := c.Respond(context.Background(), "claude-sonnet-4-0", model.UserMessage("hi"), Options{})
	var umErr *UnsupportedModelError
	if !errors.As(err, &umErr) {
		t.Fatalf("got %v, want *UnsupportedModelError", err)
	}
}

func TestRespondWrapsProviderErrors(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.InvokeFunc = func(ctx context.Context, req model.Request) (*model.Result, error) {
		return nil, errors.New("connection refused")
	}
	c := NewClientWithProviders(nil, mock, nil, nil)

	_, err := c.Respond(context.Background(), "gpt-4o", model.UserMessage("hi"), Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "getting response from gpt-4o: connection refused"
	if err.Error() != want {
		t.Errorf("error: got %q, want %q", err.Error(), want)
	}
}

func TestRespondPassesToolSchemas(t *testing.T) {
	registry := tool.NewRegistry()
	if err := registry.Register(tool.Definition{
		Name:        "today",
		Description: "Current date",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return "2026-08-30", nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	responses := testutil.ScriptedProvider(result("ok"))
	anthropic := testutil.ScriptedProvider(result("ok"))
	c := NewClientWithProviders(nil, responses, anthropic, registry)

	if _, err := c.Respond(context.Background(), "gpt-4o", model.UserMessage("hi"), Options{}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	req := responses.Requests()[0]
	if len(req.Tools) != 1 || req.Tools[0]["type"] != "function" {
		t.Errorf("openai schemas: got %v", req.Tools)
	}

	if _, err := c.Respond(context.Background(), "claude-sonnet-4-0", model.UserMessage("hi"), Options{}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	req = anthropic.Requests()[0]
	if len(req.Tools) != 1 {
		t.Fatalf("anthropic schemas: got %v", req.Tools)
	}
	if _, ok := req.Tools[0]["input_schema"]; !ok {
		t.Errorf("anthropic schema missing input_schema: %v", req.Tools[0])
	}
}

func TestRespondAppliesDefaults(t *testing.T) {
	responses := testutil.ScriptedProvider(result("ok"))
	c := NewClientWithProviders(nil, responses, nil, nil)

	if _, err := c.Respond(context.Background(), "gpt-4o", model.UserMessage("hi"), Options{}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	req := responses.Requests()[0]
	if req.Instructions != "You are a helpful assistant." {
		t.Errorf("instructions: got %q", req.Instructions)
	}
	if req.MaxTokens != 4096 {
		t.Errorf("max tokens: got %d, want 4096", req.MaxTokens)
	}

	if _, err := c.Respond(context.Background(), "gpt-4o", model.UserMessage("hi"), Options{
		Instructions: "Be terse.",
		MaxTokens:    128,
	}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	req = responses.Requests()[1]
	if req.Instructions != "Be terse." || req.MaxTokens != 128 {
		t.Errorf("overrides not applied: %+v", req)
	}
}

func TestRespondText(t *testing.T) {
	responses := testutil.ScriptedProvider(result("just text"))
	c := NewClientWithProviders(nil, responses, nil, nil)

	text, err := c.RespondText(context.Background(), "gpt-4o", "hi", Options{})
	if err != nil {
		t.Fatalf("respond text: %v", err)
	}
	if text != "just text" {
		t.Errorf("text: got %q", text)
	}

	req := responses.Requests()[0]
	if len(req.Input) != 1 || req.Input[0].Role != model.RoleUser || req.Input[0].Content != "hi" {
		t.Errorf("input: got %+v", req.Input)
	}
}

func TestMaxToolDepthOption(t *testing.T) {
	registry := tool.NewRegistry()
	if err := registry.Register(tool.Definition{
		Name: "spin",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return "again", nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	mock := testutil.NewMockProvider()
	mock.InvokeFunc = func(ctx context.Context, req model.Request) (*model.Result, error) {
		return &model.Result{
			ToolCalls: []model.ToolCall{{ID: "c1", Name: "spin", Arguments: "{}"}},
		}, nil
	}
	c := NewClientWithProviders(nil, mock, nil, registry)

	resp, err := c.Respond(context.Background(), "gpt-4o", model.UserMessage("hi"), Options{MaxToolDepth: 1})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Text != depthExceededText {
		t.Errorf("text: got %q, want the canned depth message", resp.Text)
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider calls: got %d, want 2", mock.CallCount())
	}
}
