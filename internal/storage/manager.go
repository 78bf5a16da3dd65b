// Package storage provides the top-level StorageManager that coordinates
// the 2 storage areas: ledgerdb and pricefs.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/storage/ledgerdb"
	"github.com/rfmachado/patrimonio/internal/storage/pricefs"
)

// Manager implements interfaces.StorageManager using 2 storage areas.
type Manager struct {
	ledger *ledgerdb.Store
	prices *pricefs.Store
	logger *common.Logger
}

// NewManager creates a new StorageManager with the 2 storage areas.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ledgerStore, err := ledgerdb.NewStore(logger, config.Storage.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger store: %w", err)
	}

	priceStore, err := pricefs.NewStore(logger, config.Storage.Prices.Path)
	if err != nil {
		ledgerStore.Close()
		return nil, fmt.Errorf("failed to create price store: %w", err)
	}

	logger.Info().
		Str("ledger", config.Storage.Ledger.Path).
		Str("prices", config.Storage.Prices.Path).
		Msg("Storage manager initialized (2 areas)")

	return &Manager{
		ledger: ledgerStore,
		prices: priceStore,
		logger: logger,
	}, nil
}

// LedgerStore returns the ledger storage interface.
func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledger
}

// PriceStorage returns the price history storage interface.
func (m *Manager) PriceStorage() interfaces.PriceHistoryStorage {
	return m.prices
}

// DataPath returns the parent data directory of both areas.
func (m *Manager) DataPath() string {
	return filepath.Dir(m.prices.DataPath())
}

// Close closes all storage areas, returning the first error encountered.
func (m *Manager) Close() error {
	var firstErr error
	if err := m.ledger.Close(); err != nil {
		firstErr = err
	}
	if err := m.prices.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
