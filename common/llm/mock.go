package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Responder returns the JSON payload a mock call should decode into
// result, keyed by SchemaName. Tests register one Responder per schema
// they exercise; anything unregistered is a hard failure rather than a
// silently empty struct, so a missing fixture is caught immediately.
type Responder func(req Request) (json.RawMessage, error)

// MockClient is a Client that never leaves the process. Used when
// MockMode is set in configuration (no LLM API key available, CI runs,
// local development) and directly in package tests.
type MockClient struct {
	model      string
	responders map[string]Responder
}

func NewMock(model string) *MockClient {
	return &MockClient{model: model, responders: make(map[string]Responder)}
}

// Register wires a canned response for the given schema name.
func (m *MockClient) Register(schemaName string, fn Responder) {
	m.responders[schemaName] = fn
}

// RegisterValue is a convenience wrapper around Register for a fixed value.
func (m *MockClient) RegisterValue(schemaName string, value any) {
	m.responders[schemaName] = func(Request) (json.RawMessage, error) {
		return json.Marshal(value)
	}
}

func (m *MockClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	fn, ok := m.responders[req.SchemaName]
	if !ok {
		return nil, fmt.Errorf("mock llm: no responder registered for schema %q", req.SchemaName)
	}
	raw, err := fn(req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("mock llm: unmarshal response: %w", err)
	}
	return &Response{PromptTokens: len(req.UserPrompt) / 4, CompletionTokens: len(raw) / 4}, nil
}

func (m *MockClient) Model() string {
	return m.model
}
