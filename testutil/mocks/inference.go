// Package mocks provides hand-rolled test doubles for the inference
// client and the evidence adapters.
package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/BaSui01/bioflow/llm"
	"github.com/BaSui01/bioflow/types"
)

// MockInferenceClient is a scripted llm.Client. Responses are looked
// up by a substring of the system prompt, so a single mock can serve
// every role in a pipeline run.
type MockInferenceClient struct {
	mu sync.Mutex

	// responses maps a system-prompt substring to the canned reply.
	responses map[string]string
	// fallback is returned when no substring matches.
	fallback string

	// err, if set, is returned on every call.
	err error
	// failAfter fails calls once the call count exceeds it (0 = off).
	failAfter int

	calls []llm.Request
}

// NewMockInferenceClient creates a mock that answers every call with
// a generic reply.
func NewMockInferenceClient() *MockInferenceClient {
	return &MockInferenceClient{
		responses: map[string]string{},
		fallback:  "mock response",
	}
}

// WithResponse registers a canned reply for any request whose system
// prompt contains match.
func (m *MockInferenceClient) WithResponse(match, reply string) *MockInferenceClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[match] = reply
	return m
}

// WithFallback sets the reply used when no registered match applies.
func (m *MockInferenceClient) WithFallback(reply string) *MockInferenceClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = reply
	return m
}

// WithError makes every call fail with err.
func (m *MockInferenceClient) WithError(err error) *MockInferenceClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter makes calls fail with a transient inference error
// once more than n calls have been made.
func (m *MockInferenceClient) WithFailAfter(n int) *MockInferenceClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// Complete implements llm.Client.
func (m *MockInferenceClient) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, *req)
	if m.err != nil {
		return "", m.err
	}
	if m.failAfter > 0 && len(m.calls) > m.failAfter {
		return "", types.NewError(types.ErrInferenceTransient, "scripted failure").WithRetryable(true)
	}
	for match, reply := range m.responses {
		if strings.Contains(req.System, match) {
			return reply, nil
		}
	}
	return m.fallback, nil
}

// Calls returns a copy of every request seen so far.
func (m *MockInferenceClient) Calls() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.calls...)
}

// CallCount returns the number of Complete invocations.
func (m *MockInferenceClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
