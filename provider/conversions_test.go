package provider

import (
	"reflect"
	"strings"
	"testing"

	"relay/model"
)

func TestFunctionTools(t *testing.T) {
	tests := []struct {
		name     string
		input    []map[string]any
		expected []funcTool
	}{
		{
			name:     "nil input",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty input",
			input:    []map[string]any{},
			expected: nil,
		},
		{
			name: "function tool unpacked",
			input: []map[string]any{
				{
					"type": "function",
					"name": "get_weather",
					"function": map[string]any{
						"description": "Get the weather",
						"parameters":  map[string]any{"type": "object"},
					},
				},
			},
			expected: []funcTool{
				{
					Name:        "get_weather",
					Description: "Get the weather",
					Parameters:  map[string]any{"type": "object"},
				},
			},
		},
		{
			name: "internal tool types dropped",
			input: []map[string]any{
				{"type": "web_search"},
				{"type": "function", "name": "a", "function": map[string]any{}},
				{"type": "file_search"},
			},
			expected: []funcTool{{Name: "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := functionTools(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("functionTools: got %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestChatToolsEmptyYieldsNil(t *testing.T) {
	if got := chatTools(nil); got != nil {
		t.Errorf("chatTools(nil): got %v, want nil", got)
	}
	if got := chatTools([]map[string]any{}); got != nil {
		t.Errorf("chatTools(empty): got %v, want nil", got)
	}
	// Internal-only schemas also reduce to nil for Chat Completions.
	if got := chatTools([]map[string]any{{"type": "web_search"}}); got != nil {
		t.Errorf("chatTools(internal only): got %v, want nil", got)
	}
}

func TestStringSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{"nil", nil, nil},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", "b"}, []string{"a", "b"}},
		{"any slice with non-strings", []any{"a", 1, "b"}, []string{"a", "b"}},
		{"wrong type", "a", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stringSlice(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("length: got %d, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("element %d: got %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestShortenCallIDs(t *testing.T) {
	calls := []model.ToolCall{
		{ID: "fc_a-very-long-provider-issued-identifier-1", Name: "a"},
		{ID: "fc_a-very-long-provider-issued-identifier-2", Name: "b"},
	}

	ids := shortenCallIDs(calls)
	if len(ids) != 2 {
		t.Fatalf("got %d mappings, want 2", len(ids))
	}
	seen := map[string]bool{}
	for orig, short := range ids {
		if !strings.HasPrefix(short, "call_") {
			t.Errorf("id for %s: got %q, want call_ prefix", orig, short)
		}
		if len(short) != len("call_")+30 {
			t.Errorf("id for %s: got length %d, want %d", orig, len(short), len("call_")+30)
		}
		if seen[short] {
			t.Errorf("duplicate shortened id %q", short)
		}
		seen[short] = true
	}
}
