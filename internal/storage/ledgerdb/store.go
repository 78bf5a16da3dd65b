// Package ledgerdb provides BadgerHold-based storage for user ledger data:
// transactions, holdings, fixed income positions, earmarks and settings.
package ledgerdb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/models"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Ledger store opened")

	return &Store{db: db, logger: logger}, nil
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// --- transactions ---

// SaveTransaction persists a transaction, assigning an ID when absent.
func (s *Store) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Upsert(tx.ID, tx); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	s.logger.Debug().Str("symbol", tx.Symbol).Str("id", tx.ID).Msg("Transaction saved")
	return nil
}

// ListTransactions returns all transactions for a user sorted by date ascending.
func (s *Store) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.db.Find(&txs, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })
	return txs, nil
}

// DeleteTransaction removes a transaction by ID. A missing record reports
// models.ErrNotFound.
func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	err := s.db.Delete(id, models.Transaction{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("transaction '%s': %w", id, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete transaction '%s': %w", id, err)
	}
	return nil
}

// --- holdings ---

func holdingKey(userID, symbol string) string {
	return userID + "/" + symbol
}

// SaveHolding persists a portfolio snapshot position.
func (s *Store) SaveHolding(_ context.Context, h *models.Holding) error {
	if h.LastUpdate.IsZero() {
		h.LastUpdate = time.Now().UTC()
	}
	if err := s.db.Upsert(holdingKey(h.UserID, h.Symbol), h); err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	s.logger.Debug().Str("symbol", h.Symbol).Msg("Holding saved")
	return nil
}

// ListHoldings returns all holdings for a user.
func (s *Store) ListHoldings(_ context.Context, userID string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Find(&holdings, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings, nil
}

// DeleteHolding removes a holding by user and symbol. A missing record
// reports models.ErrNotFound.
func (s *Store) DeleteHolding(_ context.Context, userID, symbol string) error {
	err := s.db.Delete(holdingKey(userID, symbol), models.Holding{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("holding '%s': %w", symbol, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete holding '%s': %w", symbol, err)
	}
	return nil
}

// --- fixed income ---

// SaveFixedIncome persists a fixed income position, assigning an ID when absent.
func (s *Store) SaveFixedIncome(_ context.Context, p *models.FixedIncomePosition) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Upsert(p.ID, p); err != nil {
		return fmt.Errorf("failed to save fixed income position: %w", err)
	}
	return nil
}

// ListFixedIncome returns all fixed income positions for a user.
func (s *Store) ListFixedIncome(_ context.Context, userID string) ([]models.FixedIncomePosition, error) {
	var positions []models.FixedIncomePosition
	if err := s.db.Find(&positions, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to list fixed income positions: %w", err)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].StartDate.Before(positions[j].StartDate) })
	return positions, nil
}

// DeleteFixedIncome removes a fixed income position by ID. A missing record
// reports models.ErrNotFound.
func (s *Store) DeleteFixedIncome(_ context.Context, id string) error {
	err := s.db.Delete(id, models.FixedIncomePosition{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("fixed income position '%s': %w", id, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete fixed income position '%s': %w", id, err)
	}
	return nil
}

// --- earmarks ---

// SaveEarmark persists a per-category earmarked-cash override.
func (s *Store) SaveEarmark(_ context.Context, e *models.CategoryEarmark) error {
	key := e.UserID + "/" + string(e.Category)
	if err := s.db.Upsert(key, e); err != nil {
		return fmt.Errorf("failed to save earmark: %w", err)
	}
	return nil
}

// ListEarmarks returns all category earmarks for a user.
func (s *Store) ListEarmarks(_ context.Context, userID string) ([]models.CategoryEarmark, error) {
	var earmarks []models.CategoryEarmark
	if err := s.db.Find(&earmarks, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to list earmarks: %w", err)
	}
	return earmarks, nil
}

// --- settings ---

// GetSettings returns the user's manual settings, or defaults when unset.
func (s *Store) GetSettings(_ context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.Get(userID, &settings)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.UserSettings{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get settings for '%s': %w", userID, err)
	}
	return &settings, nil
}

// SaveSettings persists the user's manual settings.
func (s *Store) SaveSettings(_ context.Context, settings *models.UserSettings) error {
	if err := s.db.Upsert(settings.UserID, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Ensure Store implements LedgerStore
var _ interfaces.LedgerStore = (*Store)(nil)
