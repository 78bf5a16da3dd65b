package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfmachado/patrimonio/internal/models"
)

func TestReplayBuyAndSell(t *testing.T) {
	transactions := []models.Transaction{
		{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 30, Date: day(0)},
		{Symbol: "PETR4", Kind: models.TransactionSell, Quantity: 4, UnitPrice: 35, Date: day(2)},
	}

	r := Replay(transactions, nil)

	assert.Equal(t, 10.0, r.QuantityDeltas["PETR4"][day(0)])
	assert.Equal(t, -4.0, r.QuantityDeltas["PETR4"][day(2)])
	assert.Equal(t, -300.0, r.CashDeltas[day(0)])
	assert.Equal(t, 140.0, r.CashDeltas[day(2)])
	assert.Equal(t, 300.0, r.AppliedDeltas[day(0)])
	assert.Equal(t, -140.0, r.AppliedDeltas[day(2)])
	assert.Equal(t, day(0), r.FirstEventDay["PETR4"])
}

func TestReplayDividendIsCashOnly(t *testing.T) {
	// A sell with zero quantity is a cash inflow (dividend, interest) and
	// must not reduce applied capital.
	transactions := []models.Transaction{
		{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 30, Date: day(0)},
		{Symbol: "PETR4", Kind: models.TransactionSell, Quantity: 0, TotalValue: 50, Date: day(2)},
	}

	r := Replay(transactions, nil)

	assert.Equal(t, 50.0, r.CashDeltas[day(2)])
	assert.Equal(t, 0.0, r.AppliedDeltas[day(2)])
	assert.Equal(t, 0.0, r.QuantityDeltas["PETR4"][day(2)])
}

func TestReplaySameDayOrderInvariance(t *testing.T) {
	a := models.Transaction{Symbol: "VALE3", Kind: models.TransactionBuy, Quantity: 5, UnitPrice: 60, Date: day(1)}
	b := models.Transaction{Symbol: "VALE3", Kind: models.TransactionSell, Quantity: 2, UnitPrice: 62, Date: day(1)}
	c := models.Transaction{Symbol: "VALE3", Kind: models.TransactionBuy, Quantity: 1, UnitPrice: 61, Date: day(1)}

	forward := Replay([]models.Transaction{a, b, c}, nil)
	shuffled := Replay([]models.Transaction{c, a, b}, nil)

	assert.Equal(t, forward.QuantityDeltas, shuffled.QuantityDeltas)
	assert.Equal(t, forward.CashDeltas, shuffled.CashDeltas)
	assert.Equal(t, forward.AppliedDeltas, shuffled.AppliedDeltas)
}

func TestReplayEffectiveTotalPrefersTotalValue(t *testing.T) {
	transactions := []models.Transaction{
		{Symbol: "ITUB4", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 30, TotalValue: 305, Date: day(0)},
	}

	r := Replay(transactions, nil)
	assert.Equal(t, -305.0, r.CashDeltas[day(0)])
	assert.Equal(t, 305.0, r.AppliedDeltas[day(0)])
}

func TestReplaySnapshotOnlyHolding(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "HGLG11", Quantity: 20, AveragePrice: 160, LastUpdate: day(3)},
	}

	r := Replay(nil, holdings)

	require.Contains(t, r.FirstEventDay, "HGLG11")
	assert.Equal(t, day(3), r.FirstEventDay["HGLG11"])
	assert.Equal(t, 20.0, r.QuantityDeltas["HGLG11"][day(3)])
	assert.Equal(t, 3200.0, r.AppliedDeltas[day(3)])
}

func TestReplayHoldingWithTransactionsNotDuplicated(t *testing.T) {
	transactions := []models.Transaction{
		{Symbol: "HGLG11", Kind: models.TransactionBuy, Quantity: 20, UnitPrice: 160, Date: day(1)},
	}
	holdings := []models.Holding{
		{Symbol: "HGLG11", Quantity: 20, AveragePrice: 160, LastUpdate: day(3)},
	}

	r := Replay(transactions, holdings)

	// Only the transaction event exists; the snapshot does not re-enter.
	assert.Equal(t, day(1), r.FirstEventDay["HGLG11"])
	assert.Equal(t, 3200.0, r.AppliedDeltas[day(1)])
	assert.Equal(t, 0.0, r.AppliedDeltas[day(3)])
}

func TestReplayEmptyHoldingSkipped(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "ZERO3", Quantity: 0, AveragePrice: 0, LastUpdate: day(0)},
	}
	r := Replay(nil, holdings)
	assert.Empty(t, r.FirstEventDay)
}

func TestEarliestDay(t *testing.T) {
	transactions := []models.Transaction{
		{Symbol: "B", Kind: models.TransactionBuy, Quantity: 1, UnitPrice: 1, Date: day(5)},
		{Symbol: "A", Kind: models.TransactionBuy, Quantity: 1, UnitPrice: 1, Date: day(2)},
	}
	r := Replay(transactions, nil)
	assert.Equal(t, day(2), r.EarliestDay())

	empty := Replay(nil, nil)
	assert.True(t, empty.EarliestDay().IsZero())
}

func TestReplayDoesNotMutateInput(t *testing.T) {
	transactions := []models.Transaction{
		{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 30, Date: day(0).Add(14 * time.Hour)},
	}
	Replay(transactions, nil)
	if got := transactions[0].Date.Hour(); got != 14 {
		t.Errorf("transaction date mutated, hour = %d", got)
	}
}
