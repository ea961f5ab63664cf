package mocks

import (
	"context"
	"sync"

	"github.com/taskward/taskward-api/internal/service/auth"
)

// MockAuditSink implements auth.AuditSink for testing, collecting every
// recorded event so tests can assert on the audit trail.
type MockAuditSink struct {
	mu     sync.Mutex
	events []auth.Event
}

// Ensure MockAuditSink implements auth.AuditSink
var _ auth.AuditSink = (*MockAuditSink)(nil)

// NewMockAuditSink creates a new empty MockAuditSink.
func NewMockAuditSink() *MockAuditSink {
	return &MockAuditSink{}
}

// Record implements the AuditSink interface.
func (m *MockAuditSink) Record(ctx context.Context, event auth.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of all recorded events in order.
func (m *MockAuditSink) Events() []auth.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]auth.Event(nil), m.events...)
}

// EventsOfKind returns the recorded events matching the given kind.
func (m *MockAuditSink) EventsOfKind(kind auth.EventKind) []auth.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []auth.Event
	for _, event := range m.events {
		if event.Kind == kind {
			matched = append(matched, event)
		}
	}
	return matched
}
