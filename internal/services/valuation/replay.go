package valuation

import (
	"time"

	"github.com/rfmachado/patrimonio/internal/models"
)

// ReplayResult holds the per-day deltas produced by folding the transaction
// ledger. All maps are keyed by midnight-UTC day. Same-day ordering never
// matters: deltas are additive, so any permutation of a day's transactions
// yields the same accumulators.
type ReplayResult struct {
	// QuantityDeltas maps symbol -> day -> net quantity change.
	QuantityDeltas map[string]map[time.Time]float64
	// CashDeltas maps day -> net cash change (buys negative, sells positive).
	CashDeltas map[time.Time]float64
	// AppliedDeltas maps day -> net applied-capital change.
	AppliedDeltas map[time.Time]float64
	// FirstEventDay maps symbol -> the earliest day the symbol appears.
	FirstEventDay map[string]time.Time
}

// Replay folds the transaction ledger into per-day deltas. Holdings with no
// matching transaction synthesize exactly one buy-equivalent event on their
// LastUpdate day, so every held quantity has a deterministic entry point.
// Transactions are read-only; the fold never mutates them.
func Replay(transactions []models.Transaction, fallbackHoldings []models.Holding) *ReplayResult {
	r := &ReplayResult{
		QuantityDeltas: make(map[string]map[time.Time]float64),
		CashDeltas:     make(map[time.Time]float64),
		AppliedDeltas:  make(map[time.Time]float64),
		FirstEventDay:  make(map[string]time.Time),
	}

	for _, tx := range transactions {
		day := tx.Date.UTC().Truncate(24 * time.Hour)
		total := tx.EffectiveTotal()

		switch tx.Kind {
		case models.TransactionSell:
			r.addQuantity(tx.Symbol, day, -tx.Quantity)
			r.CashDeltas[day] += total
			// A quantity-less sell is a cash event (dividend, interest):
			// it returns cash without unwinding applied capital.
			if tx.Quantity > 0 {
				r.AppliedDeltas[day] -= total
			}
		default: // buy
			r.addQuantity(tx.Symbol, day, tx.Quantity)
			r.CashDeltas[day] -= total
			r.AppliedDeltas[day] += total
		}
		r.noteFirstEvent(tx.Symbol, day)
	}

	// Snapshot-only holdings: one synthetic buy on LastUpdate.
	for _, h := range fallbackHoldings {
		if _, seen := r.FirstEventDay[h.Symbol]; seen {
			continue
		}
		if h.Quantity <= 0 && h.SnapshotValue() <= 0 {
			continue
		}
		day := h.LastUpdate.UTC().Truncate(24 * time.Hour)
		value := h.SnapshotValue()

		r.addQuantity(h.Symbol, day, h.Quantity)
		r.CashDeltas[day] -= value
		r.AppliedDeltas[day] += value
		r.noteFirstEvent(h.Symbol, day)
	}

	return r
}

// EarliestDay returns the first event day across all symbols, or zero when
// the replay is empty.
func (r *ReplayResult) EarliestDay() time.Time {
	var earliest time.Time
	for _, day := range r.FirstEventDay {
		if earliest.IsZero() || day.Before(earliest) {
			earliest = day
		}
	}
	return earliest
}

func (r *ReplayResult) addQuantity(symbol string, day time.Time, delta float64) {
	byDay := r.QuantityDeltas[symbol]
	if byDay == nil {
		byDay = make(map[time.Time]float64)
		r.QuantityDeltas[symbol] = byDay
	}
	byDay[day] += delta
}

func (r *ReplayResult) noteFirstEvent(symbol string, day time.Time) {
	if first, ok := r.FirstEventDay[symbol]; !ok || day.Before(first) {
		r.FirstEventDay[symbol] = day
	}
}
