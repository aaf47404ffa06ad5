package testutil

import (
	"context"
	"sync"

	"relay/model"
)

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// Configurable response
	InvokeFunc func(ctx context.Context, req model.Request) (*model.Result, error)

	mu       sync.Mutex
	requests []model.Request
}

// NewMockProvider creates a mock provider with a default implementation
func NewMockProvider() *MockProvider {
	mock := &MockProvider{}
	mock.InvokeFunc = mock.defaultInvoke
	return mock
}

func (m *MockProvider) defaultInvoke(ctx context.Context, req model.Request) (*model.Result, error) {
	// Default: echo back a mock response
	return &model.Result{
		Text:         "Mock response",
		InputTokens:  10,
		OutputTokens: 5,
	}, nil
}

func (m *MockProvider) Invoke(ctx context.Context, req model.Request) (*model.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.InvokeFunc(ctx, req)
}

// Requests returns a copy of every request Invoke has received, in
// order.
func (m *MockProvider) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many times Invoke has been called.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// ScriptedProvider returns a mock that replays the given results in
// order, failing over to the last one if called more times.
func ScriptedProvider(results ...*model.Result) *MockProvider {
	mock := NewMockProvider()
	i := 0
	mock.InvokeFunc = func(ctx context.Context, req model.Request) (*model.Result, error) {
		res := results[i]
		if i < len(results)-1 {
			i++
		}
		return res, nil
	}
	return mock
}
