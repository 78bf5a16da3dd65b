package valuation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rfmachado/patrimonio/internal/clients/bcb"
	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/models"
)

// ibovespaSymbol is the index symbol used for the default equity benchmark.
const ibovespaSymbol = "^BVSP"

// Service implements interfaces.ValuationService.
type Service struct {
	storage  interfaces.StorageManager
	resolver interfaces.PriceResolver
	rates    interfaces.RateSeriesClient
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a new valuation service.
// rates may be nil — default rate benchmarks (CDI, IPCA) are skipped then.
func NewService(storage interfaces.StorageManager, resolver interfaces.PriceResolver, rates interfaces.RateSeriesClient, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		resolver: resolver,
		rates:    rates,
		logger:   logger,
		now:      time.Now,
	}
}

// BuildValuation reconstructs the daily (capital applied, gross balance)
// series for a user, plus the category distribution and normalized
// benchmark series. A user with no ledger data yields an empty result and
// no error, so the caller can distinguish "no data" from a computation
// failure.
func (s *Service) BuildValuation(ctx context.Context, userID string, opts interfaces.ValuationOptions) (*models.ValuationResult, error) {
	funcStart := time.Now()
	store := s.storage.LedgerStore()

	transactions, err := store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	holdings, err := store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	fixedIncome, err := store.ListFixedIncome(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixed income positions: %w", err)
	}
	earmarks, err := store.ListEarmarks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earmarks: %w", err)
	}

	if len(transactions) == 0 && len(holdings) == 0 && len(fixedIncome) == 0 {
		return &models.ValuationResult{}, nil
	}

	// Fixed income positions are valued by accrual, never by snapshot or
	// market price. A holding record of the same asset would double count.
	holdingsBySymbol := make(map[string]models.Holding, len(holdings))
	replayHoldings := make([]models.Holding, 0, len(holdings))
	for _, h := range holdings {
		holdingsBySymbol[h.Symbol] = h
		if h.Kind != models.AssetFixedIncome {
			replayHoldings = append(replayHoldings, h)
		}
	}

	replay := Replay(withSyntheticFixedIncomeBuys(transactions, fixedIncome), replayHoldings)

	from, to := s.resolveBounds(replay, opts)
	timeline := BuildTimeline(from, to)
	if len(timeline) == 0 {
		return &models.ValuationResult{}, nil
	}

	// Resolve the asset kind once per symbol; the timeline walk dispatches
	// on it instead of re-sniffing symbols at each use site.
	kinds := make(map[string]models.AssetKind)
	for symbol := range replay.QuantityDeltas {
		if h, ok := holdingsBySymbol[symbol]; ok {
			kinds[symbol] = h.Kind
		} else {
			kinds[symbol] = models.AssetListedSecurity
		}
	}
	for _, p := range fixedIncome {
		kinds[p.Symbol] = models.AssetFixedIncome
	}

	marketSymbols := make(map[string]models.AssetKind)
	for symbol, kind := range kinds {
		if kind.UsesMarketPrice() {
			marketSymbols[symbol] = kind
		}
	}

	histories := s.resolver.ResolveAll(ctx, marketSymbols, from, to)

	priceMaps := make(map[string]map[time.Time]float64, len(marketSymbols))
	for symbol := range marketSymbols {
		initial := 0.0
		if h, ok := holdingsBySymbol[symbol]; ok {
			initial = h.AveragePrice
		}
		priceMaps[symbol] = BuildPriceMap(histories[symbol], timeline, initial)
	}

	rows := buildDailyRows(timeline, replay, kinds, priceMaps, holdingsBySymbol, fixedIncome)

	series := make([]models.SeriesPoint, 0, len(rows))
	for _, row := range rows {
		series = append(series, models.SeriesPoint{
			Date:           models.EpochMillis(row.Day),
			CapitalApplied: common.Round2(row.CapitalApplied),
			GrossBalance:   common.Round2(row.GrossBalance),
		})
	}

	result := &models.ValuationResult{
		Series: series,
		From:   from,
		To:     to,
	}

	if len(rows) > 0 {
		final := rows[len(rows)-1]
		result.Categories = BuildDistribution(
			s.holdingValuesAt(final, replay, kinds, priceMaps, holdingsBySymbol, fixedIncome),
			earmarks,
			final.GrossBalance,
		)
	}

	result.Returns = PortfolioReturnSeries(series)
	result.Benchmarks = s.normalizeBenchmarks(ctx, opts, timeline, from, to)

	s.logger.Info().
		Str("user", userID).
		Int("days", len(series)).
		Int("symbols", len(kinds)).
		Dur("elapsed", time.Since(funcStart)).
		Msg("Valuation complete")

	return result, nil
}

// dailyRow is one day of the internal, unrounded series.
type dailyRow struct {
	Day            time.Time
	CapitalApplied float64
	Cash           float64
	GrossBalance   float64
	Quantities     map[string]float64
}

// buildDailyRows walks the timeline once, applying replay deltas to the
// running accumulators and valuing every position per day. The walk is
// sequential by construction: each day depends on the previous day's
// accumulators.
func buildDailyRows(
	timeline []time.Time,
	replay *ReplayResult,
	kinds map[string]models.AssetKind,
	priceMaps map[string]map[time.Time]float64,
	holdingsBySymbol map[string]models.Holding,
	fixedIncome []models.FixedIncomePosition,
) []dailyRow {
	if len(timeline) == 0 {
		return nil
	}
	quantities, cash, applied := seedAccumulators(replay, timeline[0])

	rows := make([]dailyRow, 0, len(timeline))
	for _, day := range timeline {
		for symbol, byDay := range replay.QuantityDeltas {
			if delta, ok := byDay[day]; ok {
				quantities[symbol] += delta
				if quantities[symbol] < 0 {
					quantities[symbol] = 0
				}
			}
		}

		applied += replay.AppliedDeltas[day]
		if applied < 0 {
			// Applied capital decreases on liquidation but never below
			// zero; enforced here as a post-condition on the accumulator.
			applied = 0
		}

		cash += replay.CashDeltas[day]
		if cash < 0 {
			// Buys without recorded deposits are externally funded; a
			// negative running cash balance would double-reduce the gross.
			cash = 0
		}

		gross := cash
		for symbol, kind := range kinds {
			switch {
			case kind.UsesMarketPrice():
				quantity := quantities[symbol]
				if quantity <= 0 {
					continue
				}
				if price, ok := priceMaps[symbol][day]; ok {
					gross += quantity * price
				}
				// No known price yet: unknown, contributes 0 this day.
			case kind.IsManual():
				// Manual positions may carry value with no quantity
				// (a lump-sum reserve); presence is by first event day.
				if first, ok := replay.FirstEventDay[symbol]; ok && !day.Before(first) {
					gross += holdingsBySymbol[symbol].SnapshotValue()
				}
			}
		}
		for _, p := range fixedIncome {
			if day.Before(p.StartDate.UTC().Truncate(24 * time.Hour)) {
				continue
			}
			gross += FixedIncomeValueAt(p, day)
		}

		if math.IsNaN(gross) || math.IsInf(gross, 0) || math.IsNaN(applied) || math.IsInf(applied, 0) {
			// Should never happen with cleaned inputs; skip the day rather
			// than corrupt the series.
			continue
		}
		if gross < 0 {
			gross = 0
		}

		row := dailyRow{
			Day:            day,
			CapitalApplied: applied,
			Cash:           cash,
			GrossBalance:   gross,
		}
		if day.Equal(timeline[len(timeline)-1]) {
			row.Quantities = make(map[string]float64, len(quantities))
			for symbol, quantity := range quantities {
				row.Quantities[symbol] = quantity
			}
		}
		rows = append(rows, row)
	}

	return rows
}

// seedAccumulators replays every delta that precedes the series window, so a
// window opening mid-ledger starts from the positions actually held on its
// first day instead of from zero. Days are applied in order with the same
// clamping the in-window walk uses.
func seedAccumulators(replay *ReplayResult, start time.Time) (map[string]float64, float64, float64) {
	priorDays := make(map[time.Time]bool)
	for day := range replay.CashDeltas {
		if day.Before(start) {
			priorDays[day] = true
		}
	}
	for day := range replay.AppliedDeltas {
		if day.Before(start) {
			priorDays[day] = true
		}
	}
	for _, byDay := range replay.QuantityDeltas {
		for day := range byDay {
			if day.Before(start) {
				priorDays[day] = true
			}
		}
	}

	days := make([]time.Time, 0, len(priorDays))
	for day := range priorDays {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	quantities := make(map[string]float64, len(replay.QuantityDeltas))
	var cash, applied float64
	for _, day := range days {
		for symbol, byDay := range replay.QuantityDeltas {
			if delta, ok := byDay[day]; ok {
				quantities[symbol] += delta
				if quantities[symbol] < 0 {
					quantities[symbol] = 0
				}
			}
		}
		applied += replay.AppliedDeltas[day]
		if applied < 0 {
			applied = 0
		}
		cash += replay.CashDeltas[day]
		if cash < 0 {
			cash = 0
		}
	}
	return quantities, cash, applied
}

// holdingValuesAt produces per-position current values for the category
// distribution, valued at the final day of the series.
func (s *Service) holdingValuesAt(
	final dailyRow,
	replay *ReplayResult,
	kinds map[string]models.AssetKind,
	priceMaps map[string]map[time.Time]float64,
	holdingsBySymbol map[string]models.Holding,
	fixedIncome []models.FixedIncomePosition,
) []HoldingValue {
	values := make([]HoldingValue, 0, len(kinds)+len(fixedIncome))

	for symbol, kind := range kinds {
		holding, known := holdingsBySymbol[symbol]
		if !known {
			holding = models.Holding{Symbol: symbol, Kind: models.AssetListedSecurity}
		}

		var value float64
		switch {
		case kind.UsesMarketPrice():
			quantity := final.Quantities[symbol]
			if quantity <= 0 {
				continue
			}
			price, ok := priceMaps[symbol][final.Day]
			if !ok {
				// No market price resolved at all: fall back to the last
				// known snapshot price rather than dropping the position.
				price = holding.AveragePrice
			}
			value = quantity * price
		case kind.IsManual():
			if first, ok := replay.FirstEventDay[symbol]; !ok || final.Day.Before(first) {
				continue
			}
			value = holding.SnapshotValue()
		default:
			continue
		}

		values = append(values, HoldingValue{Holding: holding, Value: value})
	}

	for _, p := range fixedIncome {
		if final.Day.Before(p.StartDate.UTC().Truncate(24 * time.Hour)) {
			continue
		}
		values = append(values, HoldingValue{
			Holding: models.Holding{
				Symbol: p.Symbol,
				Name:   p.Name,
				Kind:   models.AssetFixedIncome,
			},
			Value: FixedIncomeValueAt(p, final.Day),
		})
	}

	return values
}

// resolveBounds determines the series window: explicit options win, then
// the earliest ledger event through today.
func (s *Service) resolveBounds(replay *ReplayResult, opts interfaces.ValuationOptions) (time.Time, time.Time) {
	from := opts.From
	if from.IsZero() {
		from = replay.EarliestDay()
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	to := opts.To
	if to.IsZero() || to.After(today) {
		to = today
	}

	return from.UTC().Truncate(24 * time.Hour), to
}

// withSyntheticFixedIncomeBuys appends a buy-equivalent cash event for each
// fixed income position with no transaction trail, so invested amounts enter
// the applied-capital series at their start date.
func withSyntheticFixedIncomeBuys(transactions []models.Transaction, fixedIncome []models.FixedIncomePosition) []models.Transaction {
	seen := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		seen[tx.Symbol] = true
	}

	out := transactions
	for _, p := range fixedIncome {
		if seen[p.Symbol] || p.InvestedAmount <= 0 {
			continue
		}
		out = append(out, models.Transaction{
			Symbol:     p.Symbol,
			Kind:       models.TransactionBuy,
			TotalValue: p.InvestedAmount,
			Date:       p.StartDate,
		})
	}
	return out
}

// normalizeBenchmarks fetches (when not supplied) and normalizes benchmark
// series. Invalid series are dropped with a warning, never zero-filled.
func (s *Service) normalizeBenchmarks(ctx context.Context, opts interfaces.ValuationOptions, timeline []time.Time, from, to time.Time) []models.NormalizedBenchmark {
	raw := opts.Benchmarks
	if raw == nil {
		raw = s.fetchDefaultBenchmarks(ctx, from, to)
	}

	normalized := make([]models.NormalizedBenchmark, 0, len(raw))
	for _, series := range raw {
		points, err := NormalizeBenchmark(series, timeline)
		if err != nil {
			s.logger.Warn().Err(err).Str("series", series.Name).Msg("Benchmark series dropped")
			continue
		}
		normalized = append(normalized, models.NormalizedBenchmark{Name: series.Name, Points: points})
	}
	return normalized
}

// fetchDefaultBenchmarks loads the standard comparison set: CDI, IPCA and
// IBOVESPA. Each fetch failure degrades to dropping that series.
func (s *Service) fetchDefaultBenchmarks(ctx context.Context, from, to time.Time) []models.BenchmarkSeries {
	var out []models.BenchmarkSeries

	if s.rates != nil {
		if cdi, err := s.rates.GetSeries(ctx, bcb.SeriesCDI, from, to); err != nil {
			s.logger.Warn().Err(err).Msg("CDI series fetch failed")
		} else if len(cdi) > 0 {
			out = append(out, models.BenchmarkSeries{Name: "CDI", Kind: models.BenchmarkDailyAnnualRate, Points: cdi})
		}

		if ipca, err := s.rates.GetSeries(ctx, bcb.SeriesIPCA, from, to); err != nil {
			s.logger.Warn().Err(err).Msg("IPCA series fetch failed")
		} else if len(ipca) > 0 {
			out = append(out, models.BenchmarkSeries{Name: "IPCA", Kind: models.BenchmarkMonthlyRate, Points: ipca})
		}
	}

	if history := s.resolver.ResolveHistory(ctx, ibovespaSymbol, models.AssetListedSecurity, from, to); len(history) > 0 {
		points := make([]models.RatePoint, len(history))
		for i, p := range history {
			points[i] = models.RatePoint{Date: p.Date, Value: p.Close}
		}
		out = append(out, models.BenchmarkSeries{Name: "IBOVESPA", Kind: models.BenchmarkPointIndex, Points: points})
	}

	return out
}

// Ensure Service implements ValuationService
var _ interfaces.ValuationService = (*Service)(nil)
