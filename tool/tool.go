// Package tool holds the registry of locally executable tools and the
// per-provider schema projections the adapters send on the wire.
//
// A tool is an explicit Definition value: name, description, declared
// parameters, and a Handler. The registry derives each provider's
// JSON-schema view from the parameter list; tools arriving with a
// ready-made schema (e.g. from an MCP server) carry it verbatim in
// InputSchema instead.
package tool

import (
	"context"
	"reflect"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// JSON schema type names for tool parameters.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// TypeOf maps a Go value to its JSON schema type name. Unknown kinds
// fall back to "string", matching how untyped parameters are treated.
func TypeOf(v any) string {
	if v == nil {
		return TypeString
	}
	switch v.(type) {
	case string:
		return TypeString
	case int, int32, int64:
		return TypeInteger
	case float32, float64:
		return TypeNumber
	case bool:
		return TypeBoolean
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	default:
		return TypeString
	}
}

// Param declares one named tool parameter.
type Param struct {
	Name string

	// Type is a JSON schema type name; empty means TypeString.
	Type string

	// Description, when set, becomes the parameter's schema description
	// and forces the parameter into the required set.
	Description string

	// Default marks the parameter optional when non-nil. It is only a
	// declaration; defaults are not substituted at execution time.
	Default any
}

// Handler executes a tool with named arguments. Blocking handlers
// should honor ctx; the result is serialized to text at the provider
// boundary (see FormatResult).
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition is a registrable tool.
type Definition struct {
	Name        string
	Description string
	Params      []Param

	// InputSchema, when non-nil, is used verbatim as the parameters
	// schema instead of deriving one from Params.
	InputSchema map[string]any

	Handler Handler
}

// parameters builds the JSON-schema object for the tool's parameters.
// A parameter is required unless it declares a default — except that a
// described parameter is always required, defaulted or not.
//
// TODO: described-but-defaulted params probably shouldn't be forced
// required; revisit before any caller registers one.
func (d Definition) parameters() map[string]any {
	if d.InputSchema != nil {
		return d.InputSchema
	}

	properties := make(map[string]any, len(d.Params))
	required := []string{}

	for _, p := range d.Params {
		typ := p.Type
		if typ == "" {
			typ = TypeString
		}
		prop := map[string]any{"type": typ}
		if p.Description != "" {
			prop["description"] = p.Description
			required = append(required, p.Name)
		} else if p.Default == nil {
			required = append(required, p.Name)
		}
		properties[p.Name] = prop
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// openaiSchema is the projection sent to both OpenAI APIs. The chat
// adapter additionally reshapes it into the flat function form.
func (d Definition) openaiSchema() map[string]any {
	return map[string]any{
		"type": "function",
		"name": d.Name,
		"function": map[string]any{
			"description": d.Description,
			"parameters":  d.parameters(),
		},
	}
}

func (d Definition) anthropicSchema() map[string]any {
	params := d.parameters()
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"input_schema": map[string]any{
			"type":       "object",
			"properties": params["properties"],
			"required":   params["required"],
		},
	}
}

func (d Definition) genericSchema() map[string]any {
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"parameters":  d.parameters(),
	}
}

// FromMCP adapts an MCP tool definition to a registry Definition. The
// MCP-declared schema (properties, required set) is preserved verbatim
// rather than re-derived, so optionality declared by the server is
// never overridden.
func FromMCP(t mcptypes.Tool, h Handler) Definition {
	schema := map[string]any{
		"type":       t.InputSchema.Type,
		"properties": t.InputSchema.Properties,
		"required":   t.InputSchema.Required,
	}
	if schema["type"] == "" {
		schema["type"] = TypeObject
	}
	if t.InputSchema.Properties == nil {
		schema["properties"] = map[string]any{}
	}
	if t.InputSchema.Required == nil {
		schema["required"] = []string{}
	}

	return Definition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
		Handler:     h,
	}
}
