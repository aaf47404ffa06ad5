package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"relay/config"
)

// Schema projection keys understood by Schemas. Any other provider key
// falls back to the generic projection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// defaultInternalToolTypes are tool types resolved by the provider
// itself; the registry must never try to execute them.
var defaultInternalToolTypes = []string{
	"file_search",
	"web_search",
	"web_search_preview",
	"code_interpreter",
	"retrieval",
}

// ErrInvalidTool is returned by Register for a definition with no
// usable schema (missing name or handler).
var ErrInvalidTool = errors.New("tool has no usable schema")

// ErrNotFound is returned by Execute for an unregistered tool name.
var ErrNotFound = errors.New("tool not registered")

// ExecutionError wraps a failure raised by a tool's handler.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing tool %s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Registry maps tool names to definitions and memoizes per-provider
// schema projections. It is safe for concurrent use: schema reads take
// a read lock, register/unregister serialize and invalidate the cache.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Definition
	order    []string
	cache    map[string][]map[string]any
	internal map[string]struct{}
}

func NewRegistry() *Registry {
	internal := make(map[string]struct{}, len(defaultInternalToolTypes))
	for _, t := range defaultInternalToolTypes {
		internal[t] = struct{}{}
	}
	return &Registry{
		tools:    make(map[string]Definition),
		cache:    make(map[string][]map[string]any),
		internal: internal,
	}
}

// Register inserts a definition keyed by its name, overwriting any
// existing tool of the same name (the original registration position is
// kept). All cached schema projections are invalidated.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" || def.Handler == nil {
		return fmt.Errorf("%w: %q", ErrInvalidTool, def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.tools[def.Name] = def
	r.invalidateLocked()

	if config.Debug {
		config.DebugLog.Printf("[Tool] Registered tool %s (%d total)", def.Name, len(r.tools))
	}
	return nil
}

// Unregister removes a tool if present and invalidates the schema
// cache. Removing an unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.invalidateLocked()
}

func (r *Registry) invalidateLocked() {
	for provider := range r.cache {
		delete(r.cache, provider)
	}
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns a tool's definition.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Schemas returns every registered tool's schema in the named
// provider's projection, in registration order. Projections are built
// lazily and cached until the next register/unregister. Callers must
// not mutate the returned maps.
func (r *Registry) Schemas(provider string) []map[string]any {
	r.mu.RLock()
	if schemas, ok := r.cache[provider]; ok {
		r.mu.RUnlock()
		return schemas
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if schemas, ok := r.cache[provider]; ok {
		return schemas
	}

	schemas := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		switch provider {
		case ProviderOpenAI:
			schemas = append(schemas, def.openaiSchema())
		case ProviderAnthropic:
			schemas = append(schemas, def.anthropicSchema())
		default:
			schemas = append(schemas, def.genericSchema())
		}
	}
	r.cache[provider] = schemas

	if config.Debug {
		config.DebugLog.Printf("[Tool] Built schema cache for provider %s with %d tools", provider, len(schemas))
	}
	return schemas
}

// IsInternalTool reports whether a tool type is resolved by the LLM
// provider itself rather than by this registry.
func (r *Registry) IsInternalTool(toolType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.internal[toolType]
	return ok
}

// AddInternalToolType marks a tool type as provider-resolved.
func (r *Registry) AddInternalToolType(toolType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.internal[toolType] = struct{}{}
}

// InternalToolTypes returns the current set of provider-resolved tool
// types.
func (r *Registry) InternalToolTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.internal))
	for t := range r.internal {
		out = append(out, t)
	}
	return out
}

// Execute runs a registered tool with named arguments and returns its
// raw result. It fails with ErrNotFound for unknown names and wraps
// handler failures in *ExecutionError.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	def, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	if config.Debug {
		config.DebugLog.Printf("[Tool] Executing tool %s with args: %v", name, args)
	}

	result, err := def.Handler(ctx, args)
	if err != nil {
		return nil, &ExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

// FormatResult serializes a tool's return value for the provider
// boundary: maps and slices become JSON text, strings pass through,
// everything else goes through string conversion.
func FormatResult(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
