package transport

import (
	"context"
	"sync"
)

// Mock is an in-memory Replier used by dispatcher tests: it records every
// reply it receives instead of sending it anywhere.
type Mock struct {
	mu      sync.Mutex
	replies []MockReply
}

// MockReply is one recorded Reply call.
type MockReply struct {
	Event Event
	Lines []string
}

// Reply implements Replier.
func (m *Mock) Reply(_ context.Context, ev Event, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, MockReply{Event: ev, Lines: lines})
	return nil
}

// Replies returns every recorded reply, in call order.
func (m *Mock) Replies() []MockReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockReply, len(m.replies))
	copy(out, m.replies)
	return out
}
