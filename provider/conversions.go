package provider

import (
	"github.com/google/uuid"

	"relay/model"
)

// funcTool is a function tool unpacked from the registry's "openai"
// projection: {type: "function", name, function: {description,
// parameters}}.
type funcTool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// functionTools extracts the function-type entries from a schema list,
// dropping provider-internal tool types. Order is preserved.
func functionTools(tools []map[string]any) []funcTool {
	var out []funcTool
	for _, t := range tools {
		typ, _ := t["type"].(string)
		if typ != "function" {
			continue
		}
		name, _ := t["name"].(string)
		ft := funcTool{Name: name}
		if fn, ok := t["function"].(map[string]any); ok {
			ft.Description, _ = fn["description"].(string)
			ft.Parameters, _ = fn["parameters"].(map[string]any)
		}
		out = append(out, ft)
	}
	return out
}

// stringSlice coerces a schema "required" value into []string. The
// registry produces []string; schemas decoded from JSON carry []any.
func stringSlice(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// shortenCallIDs maps provider-issued call ids to fresh "call_<uuid>"
// ids that fit the Chat Completions 40-character id limit. The same
// mapping must be applied to the replayed assistant tool_calls and to
// their tool-result messages so correlation survives.
func shortenCallIDs(calls []model.ToolCall) map[string]string {
	ids := make(map[string]string, len(calls))
	for _, c := range calls {
		ids[c.ID] = "call_" + uuid.NewString()[:30]
	}
	return ids
}
