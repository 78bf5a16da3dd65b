// Package interfaces defines service contracts for Patrimonio
package interfaces

import (
	"context"
	"time"

	"github.com/rfmachado/patrimonio/internal/models"
)

// QuoteClient retrieves daily price history from an external provider.
// Providers are rate-limited and unreliable: callers must treat any failure,
// timeout or empty result as "no data", never as a fatal condition.
type QuoteClient interface {
	// GetDailyHistory returns daily close points for a symbol over
	// [from, to], sorted ascending. An unknown symbol yields an empty
	// slice and no error.
	GetDailyHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error)

	// GetLatest returns the most recent available close for a symbol.
	// Returns models.ErrNoPriceData when the provider has nothing.
	GetLatest(ctx context.Context, symbol string) (models.PricePoint, error)
}

// RateSeriesClient retrieves external benchmark rate series (e.g. Banco
// Central SGS: CDI, IPCA).
type RateSeriesClient interface {
	// GetSeries returns the observations of a numbered series over
	// [from, to], sorted ascending.
	GetSeries(ctx context.Context, code int, from, to time.Time) ([]models.RatePoint, error)
}
