// Package tools ships the built-in tool definitions.
package tools

import (
	"context"
	"time"

	"relay/tool"
)

// Today reports the current UTC date and time. It takes no parameters,
// which makes it a handy smoke test for the tool loop.
func Today() tool.Definition {
	return tool.Definition{
		Name:        "today",
		Description: "Get the current date and time in UTC",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return time.Now().UTC().Format("2006-01-02T15:04:05") + "Z", nil
		},
	}
}

// RegisterBuiltins adds every built-in tool to the registry.
func RegisterBuiltins(r *tool.Registry) error {
	return r.Register(Today())
}
