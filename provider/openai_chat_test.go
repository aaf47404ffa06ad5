package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"relay/model"
)

func TestNewOpenAIChatProviderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIChatProvider("", "", nil); err == nil {
		t.Fatal("expected error for missing API key")
	}
	if _, err := NewOpenAIChatProvider("", "test-key", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChatMessagesInstructionsFirst(t *testing.T) {
	req := model.Request{
		Instructions: "Be terse.",
		Input:        []model.Message{{Role: "user", Content: "hi"}},
	}

	msgs := chatMessages(req)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].OfSystem == nil {
		t.Fatal("first message is not a system message")
	}
	if got := msgs[0].OfSystem.Content.OfString.Value; got != "Be terse." {
		t.Errorf("system content: got %q, want %q", got, "Be terse.")
	}
	if msgs[1].OfUser == nil {
		t.Errorf("second message is not a user message")
	}
}

func TestChatMessagesSkipsInstructionsWhenSystemPresent(t *testing.T) {
	req := model.Request{
		Instructions: "Be terse.",
		Input: []model.Message{
			{Role: "system", Content: "You are a pirate."},
			{Role: "user", Content: "hi"},
		},
	}

	msgs := chatMessages(req)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if got := msgs[0].OfSystem.Content.OfString.Value; got != "You are a pirate." {
		t.Errorf("system content: got %q, want %q", got, "You are a pirate.")
	}
}

func TestChatMessagesFoldsToolResults(t *testing.T) {
	req := model.Request{
		Input: []model.Message{{Role: "user", Content: "what time is it"}},
		PendingCalls: []model.ToolCall{
			{ID: "fc_long_provider_id_1", Name: "today", Arguments: "{}"},
		},
		ToolResults: []model.ToolResult{
			{ID: "fc_long_provider_id_1", Output: "2026-08-30T12:00:00Z"},
		},
	}

	msgs := chatMessages(req)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}

	asst := msgs[1].OfAssistant
	if asst == nil || len(asst.ToolCalls) != 1 {
		t.Fatal("second message is not an assistant tool-call replay")
	}
	toolMsg := msgs[2].OfTool
	if toolMsg == nil {
		t.Fatal("third message is not a tool result")
	}

	// Replayed call and its result must carry the same shortened id.
	callID := asst.ToolCalls[0].OfFunction.ID
	if callID == "fc_long_provider_id_1" {
		t.Errorf("call id was not shortened: %q", callID)
	}
	if toolMsg.ToolCallID != callID {
		t.Errorf("tool result id %q does not match replayed call id %q", toolMsg.ToolCallID, callID)
	}
	if got := toolMsg.Content.OfString.Value; got != "2026-08-30T12:00:00Z" {
		t.Errorf("tool output: got %q", got)
	}
}

func TestOpenAIChatInvoke(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_abc",
						"type": "function",
						"function": {"name": "today", "arguments": "{}"}
					}]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7}
		}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIChatProvider(srv.URL, "test-key", nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	res, err := p.Invoke(context.Background(), model.Request{
		Model: "gpt-4o-mini",
		Input: []model.Message{{Role: "user", Content: "what day is it"}},
		Tools: []map[string]any{
			{"type": "function", "name": "today", "function": map[string]any{
				"description": "Current date",
				"parameters":  map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}},
			}},
		},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	if len(res.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(res.ToolCalls))
	}
	tc := res.ToolCalls[0]
	if tc.ID != "call_abc" || tc.Name != "today" || tc.Arguments != "{}" {
		t.Errorf("tool call: got %+v", tc)
	}
	if res.InputTokens != 12 || res.OutputTokens != 7 {
		t.Errorf("tokens: got %d/%d, want 12/7", res.InputTokens, res.OutputTokens)
	}
	if res.ContinuationID != "" {
		t.Errorf("chat adapter must not produce a continuation id, got %q", res.ContinuationID)
	}

	if body["model"] != "gpt-4o-mini" {
		t.Errorf("wire model: got %v", body["model"])
	}
	tools, _ := body["tools"].([]any)
	if len(tools) != 1 {
		t.Errorf("wire tools: got %v", body["tools"])
	}
}

func TestOpenAIChatInvokeOmitsEmptyTools(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-2",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1}
		}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIChatProvider(srv.URL, "test-key", nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	res, err := p.Invoke(context.Background(), model.Request{
		Model: "gpt-4o-mini",
		Input: []model.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if res.Text != "hello" {
		t.Errorf("text: got %q, want hello", res.Text)
	}
	if _, present := body["tools"]; present {
		t.Errorf("tools field sent for a request with no tools: %v", body["tools"])
	}
}
