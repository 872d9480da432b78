package notify

import (
	"context"
	"sync"
)

// MemoryProvider records events in memory. Useful in tests and local runs.
type MemoryProvider struct {
	mu     sync.Mutex
	events []RunEvent
}

// NewMemoryProvider returns an empty in-memory sink.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

// Publish appends the event.
func (m *MemoryProvider) Publish(_ context.Context, event RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Close does nothing.
func (m *MemoryProvider) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryProvider) Events() []RunEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunEvent, len(m.events))
	copy(out, m.events)
	return out
}
