package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/funnelmesh/funnelmesh/core"
)

// ToolCall represents a function call request surfaced by a provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []core.Message   `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`

	// ProviderOrder optionally names the tenant's preferred backend order,
	// primary first. It is a routing hint consumed by the router; individual
	// providers ignore it.
	ProviderOrder []string `json:"provider_order,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the normalized completion returned to agents. Provider always
// names a backend that was actually invoked, or the cache tier name when the
// response was served from cache.
type Response struct {
	Text         string        `json:"text"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	Usage        TokenUsage    `json:"usage"`
	Provider     string        `json:"provider"`
	FallbackUsed bool          `json:"fallback_used"`
	Latency      time.Duration `json:"latency"`
}

// Clone returns a copy safe to hand out from a shared cache entry.
func (r *Response) Clone() *Response {
	cp := *r
	cp.ToolCalls = make([]ToolCall, len(r.ToolCalls))
	copy(cp.ToolCalls, r.ToolCalls)
	return &cp
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Provider is the minimal interface the router requires from a backend.
// Complete must classify failures via core.Transient / core.Permanent so the
// router can decide whether failing over is worthwhile.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the provider implementation.
	Info() Info
}

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. Responses are matched on the last user message; unmatched
// prompts get a generic echo. Errors can be scripted per call.
type MockProvider struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	errs      []error
	delay     time.Duration
	calls     int
}

// NewMockProvider constructs a MockProvider with tool support enabled.
func NewMockProvider(name, provider string) *MockProvider {
	return &MockProvider{
		info:      Info{Name: name, Provider: provider, SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input.
func (m *MockProvider) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith queues errors returned by subsequent Complete calls, in order.
// Once drained the provider succeeds again.
func (m *MockProvider) FailWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
}

// SetDelay makes every Complete call take at least d, for latency tests.
func (m *MockProvider) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls reports how many times Complete was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete implements Provider.
func (m *MockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls++
	var queued error
	if len(m.errs) > 0 {
		queued, m.errs = m.errs[0], m.errs[1:]
	}
	delay := m.delay
	var input string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			input = req.Messages[i].Text
			break
		}
	}
	text, ok := m.responses[input]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, core.Transient(ctx.Err())
		}
	}
	if queued != nil {
		return nil, queued
	}
	if err := ctx.Err(); err != nil {
		return nil, core.Transient(err)
	}
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", input)
	}
	return &Response{
		Text:     text,
		Usage:    TokenUsage{PromptTokens: len(req.Instructions) / 4, CompletionTokens: len(text) / 4},
		Provider: m.info.Name,
	}, nil
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
