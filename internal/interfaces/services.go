package interfaces

import (
	"context"
	"time"

	"github.com/rfmachado/patrimonio/internal/models"
)

// PriceResolver resolves per-symbol price histories, preferring the persisted
// cache and falling back to the external provider. Manual/synthetic symbols
// short-circuit to empty histories without any lookup.
type PriceResolver interface {
	// ResolveHistory returns the date-sorted usable history for one symbol.
	// Provider failures degrade to an empty result, never an error.
	ResolveHistory(ctx context.Context, symbol string, kind models.AssetKind, from, to time.Time) []models.PricePoint

	// ResolveLatest returns the most recent known price for a symbol, or
	// models.ErrNoPriceData.
	ResolveLatest(ctx context.Context, symbol string, kind models.AssetKind) (models.PricePoint, error)

	// ResolveAll fans out ResolveHistory over the given symbols with a
	// bounded concurrency and per-symbol timeout. A failed symbol maps to
	// an empty history.
	ResolveAll(ctx context.Context, symbols map[string]models.AssetKind, from, to time.Time) map[string][]models.PricePoint
}

// ValuationOptions bounds a valuation request.
type ValuationOptions struct {
	From time.Time // zero = earliest ledger event
	To   time.Time // zero = today

	// Benchmarks to normalize alongside the portfolio series. When nil the
	// service fetches its default set (CDI, IPCA, IBOVESPA); pass an empty
	// slice to skip benchmarks entirely.
	Benchmarks []models.BenchmarkSeries
}

// ValuationService reconstructs the daily valuation series for a user.
type ValuationService interface {
	// BuildValuation produces the daily (capital applied, gross balance)
	// series, the category distribution with earmark overlay, and the
	// normalized benchmark series. A user with no ledger data yields an
	// empty result and no error.
	BuildValuation(ctx context.Context, userID string, opts ValuationOptions) (*models.ValuationResult, error)
}
