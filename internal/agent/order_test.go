package agent

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"rtgssim/internal/txstore"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
)

func TestSortQueue1FIFOByArrival(t *testing.T) {
	store := txstore.New()
	later := domain.NewTransaction("Bank_A", "Bank_B", 100, 5, 20, 3, true)
	earlier := domain.NewTransaction("Bank_A", "Bank_B", 100, 1, 20, 9, true)
	store.Add(later)
	store.Add(earlier)

	queue := []uuid.UUID{later.ID, earlier.ID}
	SortQueue1(queue, config.QueueOrderFIFO, store)

	assert.Equal(t, []uuid.UUID{earlier.ID, later.ID}, queue)
}

func TestSortQueue1PriorityDeadlineOrdersByPriorityThenDeadline(t *testing.T) {
	store := txstore.New()
	lowPriority := domain.NewTransaction("Bank_A", "Bank_B", 100, 0, 20, 2, true)
	highPriority := domain.NewTransaction("Bank_A", "Bank_B", 100, 0, 30, 9, true)
	store.Add(lowPriority)
	store.Add(highPriority)

	queue := []uuid.UUID{lowPriority.ID, highPriority.ID}
	SortQueue1(queue, config.QueueOrderPriorityDeadline, store)

	assert.Equal(t, []uuid.UUID{highPriority.ID, lowPriority.ID}, queue)
}

func TestSortQueue1PriorityDeadlineTieBreaksOnDeadlineThenArrival(t *testing.T) {
	store := txstore.New()
	sameEarlyDeadline := domain.NewTransaction("Bank_A", "Bank_B", 100, 2, 10, 5, true)
	sameLateDeadline := domain.NewTransaction("Bank_A", "Bank_B", 100, 1, 20, 5, true)
	store.Add(sameLateDeadline)
	store.Add(sameEarlyDeadline)

	queue := []uuid.UUID{sameLateDeadline.ID, sameEarlyDeadline.ID}
	SortQueue1(queue, config.QueueOrderPriorityDeadline, store)

	assert.Equal(t, []uuid.UUID{sameEarlyDeadline.ID, sameLateDeadline.ID}, queue)
}
