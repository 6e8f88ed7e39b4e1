package txstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtgssim/pkg/domain"
)

func TestAddAndGet(t *testing.T) {
	s := New()
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(tx)

	got, ok := s.Get(tx.ID)
	require.True(t, ok)
	assert.Equal(t, tx, got)

	_, ok = s.Get(uuid.New())
	assert.False(t, ok)
}

func TestMustGetUnknownTransaction(t *testing.T) {
	s := New()
	_, err := s.MustGet(uuid.New())
	assert.Error(t, err)
}

func TestApplySettlementFullySettles(t *testing.T) {
	s := New()
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(tx)

	err := s.ApplySettlement(tx, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(0), tx.RemainingAmount)
	assert.Equal(t, domain.Cents(1000), tx.SettledAmount)
	assert.Equal(t, domain.StatusSettled, tx.Status)
	assert.Equal(t, int64(3), tx.LastSettledTick)
}

func TestApplySettlementPartial(t *testing.T) {
	s := New()
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(tx)

	err := s.ApplySettlement(tx, 400, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(600), tx.RemainingAmount)
	assert.Equal(t, domain.StatusPartiallySettled, tx.Status)
}

func TestApplySettlementRejectsOverpayment(t *testing.T) {
	s := New()
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(tx)

	err := s.ApplySettlement(tx, 1500, 1)
	assert.Error(t, err)
}

func TestApplySettlementPropagatesToParent(t *testing.T) {
	s := New()
	parent := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(parent)

	children, err := s.Split(parent, 2, 0)
	require.NoError(t, err)
	require.Len(t, children, 2)

	err = s.ApplySettlement(children[0], children[0].RemainingAmount, 2)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSettled, children[0].Status)
	assert.Equal(t, parent.OriginalAmount-children[0].OriginalAmount, parent.RemainingAmount)
	assert.True(t, s.ParentConsistent(parent.ID))
}

func TestSplitEvenShares(t *testing.T) {
	s := New()
	parent := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(parent)

	children, err := s.Split(parent, 4, 0)
	require.NoError(t, err)
	require.Len(t, children, 4)

	var sum domain.Cents
	for _, c := range children {
		assert.Equal(t, domain.Cents(250), c.RemainingAmount)
		assert.Equal(t, &parent.ID, c.ParentID)
		sum += c.RemainingAmount
	}
	assert.Equal(t, parent.RemainingAmount, sum)
	assert.True(t, s.ParentConsistent(parent.ID))
}

func TestSplitUnevenSharesLastChildAbsorbsRemainder(t *testing.T) {
	s := New()
	parent := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(parent)

	children, err := s.Split(parent, 3, 0)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, domain.Cents(333), children[0].RemainingAmount)
	assert.Equal(t, domain.Cents(333), children[1].RemainingAmount)
	assert.Equal(t, domain.Cents(334), children[2].RemainingAmount)
}

func TestSplitRejectsNonDivisible(t *testing.T) {
	s := New()
	parent := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, false)
	s.Add(parent)

	_, err := s.Split(parent, 2, 0)
	assert.Error(t, err)
}

func TestSplitRejectsTooFewShares(t *testing.T) {
	s := New()
	parent := domain.NewTransaction("Bank_A", "Bank_B", 1, 0, 10, 5, true)
	s.Add(parent)

	_, err := s.Split(parent, 2, 0)
	assert.Error(t, err)
}

func TestSplitRejectsAlreadyPartiallySettled(t *testing.T) {
	s := New()
	parent := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	s.Add(parent)
	require.NoError(t, s.ApplySettlement(parent, 100, 0))

	_, err := s.Split(parent, 2, 0)
	assert.Error(t, err)
}

func TestChildrenInCreationOrder(t *testing.T) {
	s := New()
	parent := domain.NewTransaction("Bank_A", "Bank_B", 900, 0, 10, 5, true)
	s.Add(parent)

	children, err := s.Split(parent, 3, 0)
	require.NoError(t, err)

	got := s.Children(parent.ID)
	require.Len(t, got, 3)
	for i := range children {
		assert.Equal(t, children[i].ID, got[i].ID)
	}
}

func TestAll(t *testing.T) {
	s := New()
	s.Add(domain.NewTransaction("Bank_A", "Bank_B", 100, 0, 10, 5, true))
	s.Add(domain.NewTransaction("Bank_B", "Bank_A", 200, 0, 10, 5, true))
	assert.Len(t, s.All(), 2)
}

func TestParentConsistentForNonParent(t *testing.T) {
	s := New()
	assert.True(t, s.ParentConsistent(uuid.New()))
}
