// Package rtgs implements the central RTGS queue (Queue-2) and its
// immediate-settlement pass (spec.md §3, §4.5).
package rtgs

import "github.com/google/uuid"

// Band is a Queue-2 priority partition (spec.md §2, GLOSSARY).
type Band int

const (
	BandUrgent Band = iota
	BandNormal
	BandLow
	numBands
)

// BandOf maps a 0-10 priority to its band: Urgent 8-10, Normal 4-7, Low 0-3.
func BandOf(priority int) Band {
	switch {
	case priority >= 8:
		return BandUrgent
	case priority >= 4:
		return BandNormal
	default:
		return BandLow
	}
}

// Queue2 is the central queue: three FIFO sub-queues by band when
// priority_mode is enabled, or a single FIFO queue (everything filed
// under BandUrgent) otherwise (spec.md §3).
type Queue2 struct {
	priorityMode bool
	bands        [numBands][]uuid.UUID
}

// NewQueue2 builds an empty Queue2.
func NewQueue2(priorityMode bool) *Queue2 {
	return &Queue2{priorityMode: priorityMode}
}

func (q *Queue2) bandFor(priority int) Band {
	if !q.priorityMode {
		return BandUrgent
	}
	return BandOf(priority)
}

// Enqueue appends txID to the FIFO queue for its priority band.
func (q *Queue2) Enqueue(txID uuid.UUID, priority int) {
	b := q.bandFor(priority)
	q.bands[b] = append(q.bands[b], txID)
}

// Contains reports whether txID is currently queued in any band.
func (q *Queue2) Contains(txID uuid.UUID) bool {
	for b := range q.bands {
		for _, id := range q.bands[b] {
			if id == txID {
				return true
			}
		}
	}
	return false
}

// Remove deletes txID from whichever band it is in, preserving FIFO order.
func (q *Queue2) Remove(txID uuid.UUID) bool {
	for b := range q.bands {
		for i, id := range q.bands[b] {
			if id == txID {
				q.bands[b] = append(q.bands[b][:i], q.bands[b][i+1:]...)
				return true
			}
		}
	}
	return false
}

// Size returns the total number of transactions across all bands.
func (q *Queue2) Size() int {
	n := 0
	for b := range q.bands {
		n += len(q.bands[b])
	}
	return n
}

// BandIDs returns a snapshot copy of one band's FIFO order, safe to
// range over while the caller mutates the queue via Remove.
func (q *Queue2) BandIDs(b Band) []uuid.UUID {
	out := make([]uuid.UUID, len(q.bands[b]))
	copy(out, q.bands[b])
	return out
}

// AllOrdered returns every queued tx ID in band order (Urgent, Normal,
// Low), FIFO within each band — the order §4.5 and §4.6 both process in.
func (q *Queue2) AllOrdered() []uuid.UUID {
	out := make([]uuid.UUID, 0, q.Size())
	for b := Band(0); b < numBands; b++ {
		out = append(out, q.bands[b]...)
	}
	return out
}
