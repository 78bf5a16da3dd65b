// Package prices implements the price resolver: persisted-cache-first price
// history resolution with external provider fallback.
package prices

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/models"
)

// coverageThreshold is the fraction of the requested calendar-day window the
// persisted history must cover before the resolver skips the provider.
const coverageThreshold = 0.5

// marketSuffix is the exchange variant tried when a bare equity symbol
// returns nothing from the provider (B3 listings on the provider side).
const marketSuffix = ".SA"

// Service implements interfaces.PriceResolver.
type Service struct {
	quotes        interfaces.QuoteClient
	storage       interfaces.StorageManager
	logger        *common.Logger
	symbolTimeout time.Duration
	maxConcurrent int
	now           func() time.Time // injectable clock for testing
}

// NewService creates a new price resolver service.
func NewService(quotes interfaces.QuoteClient, storage interfaces.StorageManager, logger *common.Logger, cfg common.ValuationConfig) *Service {
	maxConcurrent := cfg.MaxConcurrentFetches
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Service{
		quotes:        quotes,
		storage:       storage,
		logger:        logger,
		symbolTimeout: cfg.GetSymbolTimeout(),
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// ResolveHistory returns the usable, date-sorted history for one symbol.
// Manual/synthetic symbols never reach the cache or the provider — this is
// policy, not an optimization: reserves and custom assets must always be
// valued at their declared snapshot price. Provider failures degrade to
// whatever the cache held.
func (s *Service) ResolveHistory(ctx context.Context, symbol string, kind models.AssetKind, from, to time.Time) []models.PricePoint {
	if !kind.UsesMarketPrice() {
		return nil
	}

	persisted, err := s.storage.PriceStorage().GetHistory(ctx, symbol, from, to)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price cache read failed")
		persisted = nil
	}
	persisted = models.CleanPricePoints(persisted)

	if s.coverageSufficient(persisted, from, to) {
		return persisted
	}

	fetched := s.fetchWithVariants(ctx, symbol, from, to)
	if len(fetched) == 0 {
		return persisted
	}

	if err := s.storage.PriceStorage().UpsertPoints(ctx, symbol, fetched); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist fetched prices")
	}

	return mergeHistories(persisted, fetched)
}

// ResolveLatest returns the most recent known price for a symbol.
func (s *Service) ResolveLatest(ctx context.Context, symbol string, kind models.AssetKind) (models.PricePoint, error) {
	if !kind.UsesMarketPrice() {
		return models.PricePoint{}, models.ErrNoPriceData
	}

	cached, err := s.storage.PriceStorage().GetLatest(ctx, symbol)
	if err == nil && cached.Valid() && s.fresh(cached.Date) {
		return cached, nil
	}

	for _, variant := range symbolVariants(symbol) {
		point, err := s.quotes.GetLatest(ctx, variant)
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", variant).Msg("Latest quote lookup failed")
			continue
		}
		if !point.Valid() {
			continue
		}
		point.Symbol = symbol
		if err := s.storage.PriceStorage().UpsertPoints(ctx, symbol, []models.PricePoint{point}); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist latest price")
		}
		return point, nil
	}

	// Provider had nothing; a stale cached point still beats no price.
	if cached.Valid() {
		return cached, nil
	}
	return models.PricePoint{}, models.ErrNoPriceData
}

// ResolveAll fans out per-symbol resolution. Each symbol's fetch and
// persistence is self-contained, so symbols run concurrently behind a
// bounded semaphore; a failed or timed-out symbol maps to an empty history.
func (s *Service) ResolveAll(ctx context.Context, symbols map[string]models.AssetKind, from, to time.Time) map[string][]models.PricePoint {
	type resolveResult struct {
		symbol string
		points []models.PricePoint
	}

	semaphore := make(chan struct{}, s.maxConcurrent)
	resultChan := make(chan resolveResult, len(symbols))

	for symbol, kind := range symbols {
		go func(sym string, k models.AssetKind) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			symCtx, cancel := context.WithTimeout(ctx, s.symbolTimeout)
			defer cancel()

			resultChan <- resolveResult{symbol: sym, points: s.ResolveHistory(symCtx, sym, k, from, to)}
		}(symbol, kind)
	}

	histories := make(map[string][]models.PricePoint, len(symbols))
	for range symbols {
		result := <-resultChan
		histories[result.symbol] = result.points
	}
	close(resultChan)

	return histories
}

// fetchWithVariants queries the provider for the full window, trying the
// bare symbol first and then the market-suffix variant. Failures are
// swallowed to an empty result — the provider is unreliable by contract.
func (s *Service) fetchWithVariants(ctx context.Context, symbol string, from, to time.Time) []models.PricePoint {
	for _, variant := range symbolVariants(symbol) {
		points, err := s.quotes.GetDailyHistory(ctx, variant, from, to)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", variant).Msg("Provider fetch failed")
			continue
		}
		points = models.CleanPricePoints(points)
		if len(points) == 0 {
			continue
		}
		// Record under the requested symbol regardless of variant used
		for i := range points {
			points[i].Symbol = symbol
		}
		s.logger.Debug().Str("symbol", symbol).Str("variant", variant).Int("points", len(points)).Msg("Provider fetch succeeded")
		return points
	}
	return nil
}

// coverageSufficient reports whether the persisted points cover at least
// half the calendar days of the requested window.
func (s *Service) coverageSufficient(points []models.PricePoint, from, to time.Time) bool {
	if len(points) == 0 {
		return false
	}
	expected := int(to.Truncate(24*time.Hour).Sub(from.Truncate(24*time.Hour)).Hours()/24) + 1
	if expected <= 0 {
		return true
	}
	return float64(len(points)) >= coverageThreshold*float64(expected)
}

// fresh reports whether a cached latest price is recent enough to skip the
// provider: at or after the previous calendar day.
func (s *Service) fresh(date time.Time) bool {
	yesterday := s.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	return !date.Before(yesterday)
}

// symbolVariants returns the provider symbols to try in order. Symbols that
// already carry an exchange suffix (or index prefixes like ^BVSP) are used
// as-is.
func symbolVariants(symbol string) []string {
	if strings.ContainsAny(symbol, ".^=") {
		return []string{symbol}
	}
	return []string{symbol, symbol + marketSuffix}
}

// mergeHistories combines persisted and fetched points; persisted points
// take precedence on date collision.
func mergeHistories(persisted, fetched []models.PricePoint) []models.PricePoint {
	byDay := make(map[time.Time]models.PricePoint, len(persisted)+len(fetched))
	for _, p := range fetched {
		byDay[p.Date.Truncate(24*time.Hour)] = p
	}
	for _, p := range persisted {
		byDay[p.Date.Truncate(24*time.Hour)] = p
	}

	merged := make([]models.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

// Ensure Service implements PriceResolver
var _ interfaces.PriceResolver = (*Service)(nil)
