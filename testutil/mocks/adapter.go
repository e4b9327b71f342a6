package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/bioflow/evidence"
	"github.com/BaSui01/bioflow/types"
)

// MockAdapter is a scripted evidence.Adapter.
type MockAdapter struct {
	mu sync.Mutex

	source evidence.SourceID
	items  []evidence.Item
	err    error

	fetchCalls int
	lastTopic  string
}

// NewMockAdapter creates a mock for the given source with no items.
func NewMockAdapter(source evidence.SourceID) *MockAdapter {
	return &MockAdapter{source: source}
}

// WithItems sets the items returned by Fetch.
func (m *MockAdapter) WithItems(items ...evidence.Item) *MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	return m
}

// WithError makes Fetch fail with err.
func (m *MockAdapter) WithError(err error) *MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithSourceFailure makes Fetch fail with a transient source error,
// the kind the engine absorbs as partial evidence.
func (m *MockAdapter) WithSourceFailure() *MockAdapter {
	return m.WithError(types.NewError(types.ErrSourceTransient, "scripted source failure").
		WithSource(string(m.source)).WithRetryable(true))
}

// Source implements evidence.Adapter.
func (m *MockAdapter) Source() evidence.SourceID { return m.source }

// Fetch implements evidence.Adapter.
func (m *MockAdapter) Fetch(ctx context.Context, topic string) (*evidence.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	m.lastTopic = topic
	if m.err != nil {
		return nil, m.err
	}
	return &evidence.Set{
		Source:    m.source,
		Items:     append([]evidence.Item(nil), m.items...),
		FetchedAt: time.Now(),
	}, nil
}

// FetchCalls returns the number of Fetch invocations.
func (m *MockAdapter) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// LastTopic returns the topic of the most recent Fetch.
func (m *MockAdapter) LastTopic() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTopic
}
