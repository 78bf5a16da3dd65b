package interfaces

import (
	"context"
	"time"

	"github.com/rfmachado/patrimonio/internal/models"
)

// StorageManager coordinates the storage backends
type StorageManager interface {
	PriceStorage() PriceHistoryStorage
	LedgerStore() LedgerStore

	// DataPath returns the base data directory path.
	DataPath() string

	// Lifecycle
	Close() error
}

// PriceHistoryStorage persists externally fetched price histories. It is the
// only state shared across valuation requests; upserts are idempotent and
// last-writer-wins per symbol/date is acceptable since external prices are
// deterministic per date.
type PriceHistoryStorage interface {
	// GetHistory retrieves the persisted history for a symbol over
	// [from, to]. A symbol with no stored history yields an empty slice.
	GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error)

	// UpsertPoints merges the given points into the persisted history.
	// Existing persisted points take precedence on date collision.
	UpsertPoints(ctx context.Context, symbol string, points []models.PricePoint) error

	// GetLatest returns the most recent persisted point for a symbol, or
	// models.ErrNoPriceData when none exists.
	GetLatest(ctx context.Context, symbol string) (models.PricePoint, error)
}

// LedgerStore supplies the engine's read inputs for a single resolved user
// and persists manual overrides. Authorization happens upstream; the engine
// never checks it.
type LedgerStore interface {
	// Transactions
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	// Holdings (portfolio snapshots)
	SaveHolding(ctx context.Context, h *models.Holding) error
	ListHoldings(ctx context.Context, userID string) ([]models.Holding, error)
	DeleteHolding(ctx context.Context, userID, symbol string) error

	// Fixed income positions
	SaveFixedIncome(ctx context.Context, p *models.FixedIncomePosition) error
	ListFixedIncome(ctx context.Context, userID string) ([]models.FixedIncomePosition, error)
	DeleteFixedIncome(ctx context.Context, id string) error

	// Category earmarks ("cash set aside to invest" overrides)
	SaveEarmark(ctx context.Context, e *models.CategoryEarmark) error
	ListEarmarks(ctx context.Context, userID string) ([]models.CategoryEarmark, error)

	// Settings
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	SaveSettings(ctx context.Context, s *models.UserSettings) error

	Close() error
}
