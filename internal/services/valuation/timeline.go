// Package valuation implements the portfolio valuation timeline engine:
// ledger replay, daily series reconstruction, category aggregation and
// benchmark normalization.
package valuation

import (
	"sort"
	"time"

	"github.com/rfmachado/patrimonio/internal/models"
)

// BuildTimeline produces one timestamp per calendar day from start to end
// inclusive, at midnight UTC. Weekends are included; business-day filtering
// is the caller's concern.
func BuildTimeline(start, end time.Time) []time.Time {
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)

	if end.Before(start) {
		return nil
	}

	days := int(end.Sub(start).Hours()/24) + 1
	timeline := make([]time.Time, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		timeline = append(timeline, d)
	}
	return timeline
}

// BuildPriceMap walks the timeline once, advancing a cursor through the
// price history, and emits for each day the latest known price at or before
// it. Days before the first known price use initialPrice when positive;
// otherwise they are omitted from the map (unknown, not zero).
// O(timeline + history); the history is defensively sorted and cleaned.
func BuildPriceMap(history []models.PricePoint, timeline []time.Time, initialPrice float64) map[time.Time]float64 {
	sorted := models.CleanPricePoints(history)

	priceMap := make(map[time.Time]float64, len(timeline))
	cursor := 0
	lastKnown := 0.0
	if initialPrice > 0 {
		lastKnown = initialPrice
	}

	for _, day := range timeline {
		for cursor < len(sorted) && !sorted[cursor].Date.Truncate(24*time.Hour).After(day) {
			lastKnown = sorted[cursor].Close
			cursor++
		}
		if lastKnown > 0 {
			priceMap[day] = lastKnown
		}
	}

	return priceMap
}

// LatestPrice returns the last known price in a history, or initialPrice
// when the history is empty.
func LatestPrice(history []models.PricePoint, initialPrice float64) float64 {
	sorted := models.CleanPricePoints(history)
	if len(sorted) == 0 {
		return initialPrice
	}
	return sorted[len(sorted)-1].Close
}

// DownsampleToWeekly keeps the last series point per ISO week.
func DownsampleToWeekly(points []models.SeriesPoint) []models.SeriesPoint {
	if len(points) == 0 {
		return nil
	}

	weekly := make([]models.SeriesPoint, 0)
	for i, p := range points {
		if i == len(points)-1 {
			weekly = append(weekly, p)
			continue
		}
		y1, w1 := time.UnixMilli(p.Date).UTC().ISOWeek()
		y2, w2 := time.UnixMilli(points[i+1].Date).UTC().ISOWeek()
		if w1 != w2 || y1 != y2 {
			weekly = append(weekly, p)
		}
	}

	return weekly
}

// DownsampleToMonthly keeps the last series point per calendar month.
func DownsampleToMonthly(points []models.SeriesPoint) []models.SeriesPoint {
	if len(points) == 0 {
		return nil
	}

	monthly := make([]models.SeriesPoint, 0)
	for i, p := range points {
		d := time.UnixMilli(p.Date).UTC()
		if i == len(points)-1 {
			monthly = append(monthly, p)
			continue
		}
		next := time.UnixMilli(points[i+1].Date).UTC()
		if next.Month() != d.Month() || next.Year() != d.Year() {
			monthly = append(monthly, p)
		}
	}

	return monthly
}

// sortRatePoints returns the series points sorted by date ascending without
// modifying the input.
func sortRatePoints(points []models.RatePoint) []models.RatePoint {
	sorted := make([]models.RatePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return sorted
}
