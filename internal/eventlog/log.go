// Package eventlog is the simulation's append-only, tick-indexed event
// store (spec.md §6). Every event the core emits lands here before
// anything else observes it, so the log is always a complete record
// sufficient for exact replay (spec.md §8 property 9).
package eventlog

import (
	"sync"

	"rtgssim/pkg/domain"
)

// Log accumulates events in emission order and indexes them by tick for
// cheap per-tick queries. It also supports a simple pub/sub fan-out so a
// running simulation can be observed live (e.g. by a UI or a metrics
// exporter) without changing how the core emits events.
type Log struct {
	mu     sync.RWMutex
	events []domain.Event
	byTick map[int64][]int // tick -> indices into events, in emission order

	subsMu sync.RWMutex
	subs   map[int]chan domain.Event
	nextID int
}

// New returns an empty Log.
func New() *Log {
	return &Log{
		byTick: make(map[int64][]int),
		subs:   make(map[int]chan domain.Event),
	}
}

// Append records ev, assigning it the next sequence number within its
// tick, and fans it out to every live subscriber.
func (l *Log) Append(ev domain.Event) domain.Event {
	l.mu.Lock()
	ev.Seq = int64(len(l.byTick[ev.Tick]))
	idx := len(l.events)
	l.events = append(l.events, ev)
	l.byTick[ev.Tick] = append(l.byTick[ev.Tick], idx)
	l.mu.Unlock()

	l.broadcast(ev)
	return ev
}

// TickEvents returns every event recorded for tick, in emission order.
func (l *Log) TickEvents(tick int64) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idxs := l.byTick[tick]
	out := make([]domain.Event, len(idxs))
	for i, idx := range idxs {
		out[i] = l.events[idx]
	}
	return out
}

// All returns every event recorded so far, in emission order.
func (l *Log) All() []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the total number of events recorded.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Subscribe returns a channel that receives every event appended after
// subscription, along with an ID to pass to Unsubscribe. The channel is
// buffered; a slow subscriber drops events rather than blocking the
// simulation loop.
func (l *Log) Subscribe(buffer int) (<-chan domain.Event, int) {
	if buffer <= 0 {
		buffer = 256
	}
	ch := make(chan domain.Event, buffer)

	l.subsMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.subsMu.Unlock()

	return ch, id
}

// Unsubscribe closes and removes the channel returned by Subscribe.
func (l *Log) Unsubscribe(id int) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	if ch, ok := l.subs[id]; ok {
		close(ch)
		delete(l.subs, id)
	}
}

func (l *Log) broadcast(ev domain.Event) {
	l.subsMu.RLock()
	defer l.subsMu.RUnlock()
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
			// drop: a stalled subscriber must not stall the simulation
		}
	}
}
