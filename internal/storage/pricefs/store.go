// Package pricefs implements file-based storage for price histories.
// One JSON file per symbol, written atomically via temp file + rename.
package pricefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/models"
)

// Store provides file-based JSON storage for per-symbol price histories.
type Store struct {
	basePath string
	logger   *common.Logger
}

// NewStore creates a new price file store.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create price store path %s: %w", path, err)
	}

	logger.Info().Str("path", path).Msg("Price store opened")
	return &Store{basePath: path, logger: logger}, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// GetHistory retrieves persisted points for a symbol over [from, to].
func (s *Store) GetHistory(_ context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	history, err := s.read(symbol)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, nil
	}

	out := make([]models.PricePoint, 0, len(history.Points))
	for _, p := range history.Points {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// UpsertPoints merges points into the persisted history. Existing persisted
// points win on date collision, so a re-fetch never rewrites history.
func (s *Store) UpsertPoints(_ context.Context, symbol string, points []models.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	history, err := s.read(symbol)
	if err != nil {
		return err
	}
	if history == nil {
		history = &models.PriceHistory{Symbol: symbol}
	}

	byDay := make(map[time.Time]models.PricePoint, len(history.Points)+len(points))
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		byDay[p.Date.Truncate(24*time.Hour)] = p
	}
	for _, p := range history.Points {
		byDay[p.Date.Truncate(24*time.Hour)] = p // existing wins
	}

	merged := make([]models.PricePoint, 0, len(byDay))
	for day, p := range byDay {
		p.Date = day
		p.Symbol = symbol
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })

	history.Points = merged
	history.UpdatedAt = time.Now().UTC()

	if err := s.write(symbol, history); err != nil {
		return err
	}
	s.logger.Debug().Str("symbol", symbol).Int("points", len(merged)).Msg("Price history saved")
	return nil
}

// GetLatest returns the most recent persisted point for a symbol.
func (s *Store) GetLatest(_ context.Context, symbol string) (models.PricePoint, error) {
	history, err := s.read(symbol)
	if err != nil {
		return models.PricePoint{}, err
	}
	if history == nil || len(history.Points) == 0 {
		return models.PricePoint{}, models.ErrNoPriceData
	}
	return history.Points[len(history.Points)-1], nil
}

// --- helpers ---

func (s *Store) read(symbol string) (*models.PriceHistory, error) {
	data, err := os.ReadFile(s.filePath(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read price history for %s: %w", symbol, err)
	}

	var history models.PriceHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse price history for %s: %w", symbol, err)
	}
	return &history, nil
}

func (s *Store) write(symbol string, history *models.PriceHistory) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal price history for %s: %w", symbol, err)
	}

	target := s.filePath(symbol)

	tmpFile, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Store) filePath(symbol string) string {
	return filepath.Join(s.basePath, sanitizeKey(symbol)+".json")
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

// Ensure Store implements PriceHistoryStorage
var _ interfaces.PriceHistoryStorage = (*Store)(nil)
