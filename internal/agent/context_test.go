package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rtgssim/internal/txstore"
	"rtgssim/pkg/domain"
)

func TestBankFieldsReflectsAgentState(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 1000, 500, 200)
	a.Balance = -300
	a.Daily.Sent = 50

	fields := BankFields(5, 0, 100, 2, a)

	assert.Equal(t, float64(5), fields["tick"])
	assert.Equal(t, float64(5), fields["tick_in_day"])
	assert.Equal(t, float64(-300), fields["balance"])
	assert.Equal(t, float64(300), fields["credit_used"])
	assert.Equal(t, float64(1200), fields["allowed_overdraft_limit"])
	assert.Equal(t, float64(2), fields["queue2_size"])
	assert.Equal(t, float64(50), fields["sent_today"])
}

func TestTxFieldsComputesDerivedFlags(t *testing.T) {
	a := domain.NewAgent("Bank_A", 0, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	tx.Overdue = true
	tx.OverdueSinceTick = 8

	store := txstore.New()
	store.Add(tx)

	fields := TxFields(10, tx, a, store)

	assert.Equal(t, float64(1), fields["is_overdue"])
	assert.Equal(t, float64(1), fields["is_past_deadline"])
	assert.Equal(t, float64(2), fields["overdue_duration"])
	assert.Equal(t, float64(0), fields["ticks_to_deadline"])
	assert.Equal(t, float64(0), fields["is_split"])
}

func TestTxFieldsMarksTopCounterparty(t *testing.T) {
	a := domain.NewAgent("Bank_A", 0, 0, 0, 0)
	a.CounterpartyVolume["Bank_B"] = 5000
	a.CounterpartyVolume["Bank_C"] = 1000
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	store := txstore.New()
	store.Add(tx)

	fields := TxFields(0, tx, a, store)
	assert.Equal(t, float64(1), fields["tx_is_top_counterparty"])

	other := domain.NewTransaction("Bank_A", "Bank_C", 1000, 0, 10, 5, true)
	fields = TxFields(0, other, a, store)
	assert.Equal(t, float64(0), fields["tx_is_top_counterparty"])
}
