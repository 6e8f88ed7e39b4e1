package rtgs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBandOf(t *testing.T) {
	assert.Equal(t, BandUrgent, BandOf(10))
	assert.Equal(t, BandUrgent, BandOf(8))
	assert.Equal(t, BandNormal, BandOf(7))
	assert.Equal(t, BandNormal, BandOf(4))
	assert.Equal(t, BandLow, BandOf(3))
	assert.Equal(t, BandLow, BandOf(0))
}

func TestEnqueueFIFOOrderWithinBand(t *testing.T) {
	q := NewQueue2(true)
	id1, id2 := uuid.New(), uuid.New()
	q.Enqueue(id1, 9)
	q.Enqueue(id2, 9)

	assert.Equal(t, []uuid.UUID{id1, id2}, q.BandIDs(BandUrgent))
}

func TestEnqueueWithoutPriorityModeFilesEverythingUrgent(t *testing.T) {
	q := NewQueue2(false)
	id1 := uuid.New()
	q.Enqueue(id1, 1) // low priority, but priority_mode is off

	assert.Equal(t, []uuid.UUID{id1}, q.BandIDs(BandUrgent))
	assert.Empty(t, q.BandIDs(BandLow))
}

func TestRemove(t *testing.T) {
	q := NewQueue2(true)
	id1, id2 := uuid.New(), uuid.New()
	q.Enqueue(id1, 9)
	q.Enqueue(id2, 9)

	assert.True(t, q.Remove(id1))
	assert.Equal(t, []uuid.UUID{id2}, q.BandIDs(BandUrgent))
	assert.False(t, q.Remove(id1))
}

func TestSize(t *testing.T) {
	q := NewQueue2(true)
	assert.Equal(t, 0, q.Size())
	q.Enqueue(uuid.New(), 9)
	q.Enqueue(uuid.New(), 5)
	q.Enqueue(uuid.New(), 1)
	assert.Equal(t, 3, q.Size())
}

func TestAllOrderedIsBandOrderThenFIFO(t *testing.T) {
	q := NewQueue2(true)
	low := uuid.New()
	normal := uuid.New()
	urgent := uuid.New()
	q.Enqueue(low, 1)
	q.Enqueue(normal, 5)
	q.Enqueue(urgent, 9)

	assert.Equal(t, []uuid.UUID{urgent, normal, low}, q.AllOrdered())
}
