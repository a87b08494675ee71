// Package progress implements the in-process progress bus (spec.md §4.5):
// per-node status fan-out to whoever is watching an execution, with no
// durable queue or cross-process transport. Grounded on the teacher's
// internal/api/websocket/hub.go execConns bookkeeping, but subscribers are
// direct callbacks instead of *Client send channels — an SSE handler or a
// test can Subscribe a plain func.
package progress

import (
	"sync"

	"github.com/google/uuid"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

// Subscriber receives every ExecutionProgress snapshot emitted for the
// execution it subscribed to, in emission order.
type Subscriber func(models.ExecutionProgress)

// Bus fans out ExecutionProgress snapshots to per-execution subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[int]Subscriber
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uuid.UUID]map[int]Subscriber)}
}

// Subscribe registers fn for executionID and returns an unsubscribe token.
func (b *Bus) Subscribe(executionID uuid.UUID, fn Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[executionID]; !ok {
		b.subs[executionID] = make(map[int]Subscriber)
	}
	id := b.next
	b.next++
	b.subs[executionID][id] = fn
	return id
}

// Unsubscribe removes a single subscriber registered via Subscribe.
func (b *Bus) Unsubscribe(executionID uuid.UUID, token int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if conns, ok := b.subs[executionID]; ok {
		delete(conns, token)
		if len(conns) == 0 {
			delete(b.subs, executionID)
		}
	}
}

// Emit delivers progress to every subscriber of its execution. Delivery is
// synchronous and best-effort: a panicking subscriber is isolated so it
// cannot take down the scheduler goroutine driving the execution.
func (b *Bus) Emit(progress models.ExecutionProgress) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subs[progress.ExecutionID]))
	for _, fn := range b.subs[progress.ExecutionID] {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		deliver(fn, progress)
	}
}

// Cleanup drops all subscribers for a finished execution.
func (b *Bus) Cleanup(executionID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, executionID)
}

func deliver(fn Subscriber, progress models.ExecutionProgress) {
	defer func() { _ = recover() }()
	fn(progress)
}
