package valuation

import (
	"math"
	"time"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/models"
)

const (
	// minBaseValue rejects a rebase whose base is effectively zero.
	minBaseValue = 1e-6
	// alreadyNormalizedCeiling flags a point-index series whose values all
	// look like small percentages — rebasing it again would double-normalize.
	alreadyNormalizedCeiling = 1.0
	// maxCumulativeReturnPct is the sanity ceiling on the final cumulative
	// return; anything beyond it is treated as corrupted input or an
	// exponential blow-up.
	maxCumulativeReturnPct = 5000.0
	// businessDaysPerYear divides an annualized nominal rate into per-day
	// compounding factors.
	businessDaysPerYear = 252.0
)

// NormalizeBenchmark converts a heterogeneous external series into a
// cumulative-percent-return series rebased to the timeline start. Series
// failing a sanity check return a *models.ValidationError and must be
// dropped from the response, never defaulted to zero.
func NormalizeBenchmark(series models.BenchmarkSeries, timeline []time.Time) ([]models.BenchmarkPoint, error) {
	if len(timeline) == 0 {
		return nil, &models.ValidationError{Series: series.Name, Reason: "empty timeline"}
	}
	if len(series.Points) < 2 {
		return nil, &models.ValidationError{Series: series.Name, Reason: "insufficient density"}
	}

	sorted := sortRatePoints(series.Points)

	var (
		points []models.BenchmarkPoint
		err    error
	)
	switch series.Kind {
	case models.BenchmarkPointIndex:
		points, err = rebasePointIndex(series.Name, sorted, timeline)
	case models.BenchmarkMonthlyRate:
		points, err = compoundPeriodicRate(series.Name, sorted, timeline)
	case models.BenchmarkDailyAnnualRate:
		points, err = compoundDailyAnnualRate(sorted, timeline)
	default:
		return nil, &models.ValidationError{Series: series.Name, Reason: "unknown series kind"}
	}
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, &models.ValidationError{Series: series.Name, Reason: "no points within timeline"}
	}

	final := points[len(points)-1].Value
	if math.IsNaN(final) || math.IsInf(final, 0) || math.Abs(final) > maxCumulativeReturnPct {
		return nil, &models.ValidationError{Series: series.Name, Reason: "implausible cumulative return"}
	}

	return points, nil
}

// rebasePointIndex rebases an absolute index level series (e.g. IBOVESPA)
// by (value/base − 1) × 100, base being the first value at or after the
// timeline start.
func rebasePointIndex(name string, sorted []models.RatePoint, timeline []time.Time) ([]models.BenchmarkPoint, error) {
	start := timeline[0]
	end := timeline[len(timeline)-1]

	maxAbs := 0.0
	for _, p := range sorted {
		if a := math.Abs(p.Value); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs <= alreadyNormalizedCeiling {
		return nil, &models.ValidationError{Series: name, Reason: "values look already rebased"}
	}

	base := 0.0
	for _, p := range sorted {
		if !p.Date.Before(start) {
			base = p.Value
			break
		}
	}
	if math.Abs(base) < minBaseValue {
		return nil, &models.ValidationError{Series: name, Reason: "near-zero base value"}
	}

	points := make([]models.BenchmarkPoint, 0, len(sorted))
	for _, p := range sorted {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		points = append(points, models.BenchmarkPoint{
			Date:  models.EpochMillis(p.Date.UTC().Truncate(24 * time.Hour)),
			Value: common.Round2((p.Value/base - 1) * 100),
		})
	}
	return points, nil
}

// compoundPeriodicRate converts a percent-per-period rate series (e.g.
// monthly IPCA) into a synthetic index starting at 100, then interpolates to
// daily granularity with a per-day geometric factor between known points.
func compoundPeriodicRate(name string, sorted []models.RatePoint, timeline []time.Time) ([]models.BenchmarkPoint, error) {
	// Synthetic index at each observation date.
	index := make([]models.RatePoint, len(sorted))
	level := 100.0
	for i, p := range sorted {
		level *= 1 + p.Value/100
		if math.IsNaN(level) || math.IsInf(level, 0) {
			return nil, &models.ValidationError{Series: name, Reason: "exponential blow-up while compounding"}
		}
		index[i] = models.RatePoint{Date: p.Date.UTC().Truncate(24 * time.Hour), Value: level}
	}

	points := make([]models.BenchmarkPoint, 0, len(timeline))
	base := 0.0
	cursor := 0
	for _, day := range timeline {
		// Advance to the last observation at or before this day.
		for cursor < len(index)-1 && !index[cursor+1].Date.After(day) {
			cursor++
		}
		if index[cursor].Date.After(day) {
			continue // before first observation
		}

		value := index[cursor].Value
		if cursor < len(index)-1 {
			// Geometric interpolation toward the next observation.
			next := index[cursor+1]
			span := wholeDays(index[cursor].Date, next.Date)
			elapsed := wholeDays(index[cursor].Date, day)
			if span > 0 && elapsed > 0 {
				factor := math.Pow(next.Value/index[cursor].Value, float64(elapsed)/float64(span))
				value *= factor
			}
		}

		if base == 0 {
			base = value
			if math.Abs(base) < minBaseValue {
				return nil, &models.ValidationError{Series: name, Reason: "near-zero base value"}
			}
		}
		points = append(points, models.BenchmarkPoint{
			Date:  models.EpochMillis(day),
			Value: common.Round2((value/base - 1) * 100),
		})
	}
	return points, nil
}

// compoundDailyAnnualRate builds a daily compounding index from a series of
// annualized nominal rates (e.g. CDI % a.a.), compounding only on business
// days with a (1 + rate/100)^(1/252) per-day factor.
func compoundDailyAnnualRate(sorted []models.RatePoint, timeline []time.Time) ([]models.BenchmarkPoint, error) {
	points := make([]models.BenchmarkPoint, 0, len(timeline))
	level := 100.0
	cursor := 0
	started := false

	for _, day := range timeline {
		for cursor < len(sorted)-1 && !sorted[cursor+1].Date.After(day) {
			cursor++
		}
		if sorted[cursor].Date.After(day) {
			continue // before first observation
		}
		if started && isBusinessDay(day) {
			level *= math.Pow(1+sorted[cursor].Value/100, 1/businessDaysPerYear)
		}
		started = true

		points = append(points, models.BenchmarkPoint{
			Date:  models.EpochMillis(day),
			Value: common.Round2(level - 100),
		})
	}
	return points, nil
}

// isBusinessDay reports whether a day is a weekday. Exchange holidays are
// not tracked; the carry-forward semantics absorb them.
func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
