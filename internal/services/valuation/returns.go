package valuation

import (
	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/models"
)

// PortfolioReturnSeries derives the cumulative percentage return of the
// portfolio over its own series, in the same point shape as the normalized
// benchmarks: ((gross / applied) − 1) × 100 per day. Days with no applied
// capital are skipped rather than reported as zero.
func PortfolioReturnSeries(series []models.SeriesPoint) []models.BenchmarkPoint {
	points := make([]models.BenchmarkPoint, 0, len(series))
	for _, p := range series {
		if p.CapitalApplied <= 0 {
			continue
		}
		points = append(points, models.BenchmarkPoint{
			Date:  p.Date,
			Value: common.Round2((p.GrossBalance/p.CapitalApplied - 1) * 100),
		})
	}
	return points
}
