package valuation

import (
	"math"
	"time"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/models"
)

// accrualBasis is the day-count basis for fixed income compounding.
const accrualBasis = 365.0

// FixedIncomeValueAt computes the present value of a fixed income position
// at an arbitrary reference date: investedAmount × (1 + rate/100)^(days/365)
// with whole days counted from start to min(reference, maturity), rounded to
// 2 decimals. Evaluation is independent per reference date — repeated calls
// at different dates are order-independent, which is what lets the daily
// series be built by repeated evaluation.
func FixedIncomeValueAt(p models.FixedIncomePosition, reference time.Time) float64 {
	invested := p.InvestedAmount
	if invested <= 0 {
		return 0
	}

	effective := reference
	if !p.MaturityDate.IsZero() && effective.After(p.MaturityDate) {
		// Frozen at maturity value beyond maturity.
		effective = p.MaturityDate
	}

	days := wholeDays(p.StartDate, effective)
	if days <= 0 {
		return common.Round2(invested)
	}

	value := invested * math.Pow(1+p.AnnualRatePct/100, float64(days)/accrualBasis)
	return common.Round2(value)
}

// wholeDays counts whole calendar days from a to b, negative when b < a.
func wholeDays(a, b time.Time) int {
	a = a.UTC().Truncate(24 * time.Hour)
	b = b.UTC().Truncate(24 * time.Hour)
	return int(b.Sub(a).Hours() / 24)
}
