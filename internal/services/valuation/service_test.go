package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/models"
)

// ---- fakes ----

type fakeLedgerStore struct {
	transactions []models.Transaction
	holdings     []models.Holding
	fixedIncome  []models.FixedIncomePosition
	earmarks     []models.CategoryEarmark
}

func (f *fakeLedgerStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	return nil
}
func (f *fakeLedgerStore) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return f.transactions, nil
}
func (f *fakeLedgerStore) DeleteTransaction(ctx context.Context, id string) error { return nil }
func (f *fakeLedgerStore) SaveHolding(ctx context.Context, h *models.Holding) error {
	return nil
}
func (f *fakeLedgerStore) ListHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	return f.holdings, nil
}
func (f *fakeLedgerStore) DeleteHolding(ctx context.Context, userID, symbol string) error {
	return nil
}
func (f *fakeLedgerStore) SaveFixedIncome(ctx context.Context, p *models.FixedIncomePosition) error {
	return nil
}
func (f *fakeLedgerStore) ListFixedIncome(ctx context.Context, userID string) ([]models.FixedIncomePosition, error) {
	return f.fixedIncome, nil
}
func (f *fakeLedgerStore) DeleteFixedIncome(ctx context.Context, id string) error { return nil }
func (f *fakeLedgerStore) SaveEarmark(ctx context.Context, e *models.CategoryEarmark) error {
	return nil
}
func (f *fakeLedgerStore) ListEarmarks(ctx context.Context, userID string) ([]models.CategoryEarmark, error) {
	return f.earmarks, nil
}
func (f *fakeLedgerStore) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	return &models.UserSettings{UserID: userID}, nil
}
func (f *fakeLedgerStore) SaveSettings(ctx context.Context, s *models.UserSettings) error {
	return nil
}
func (f *fakeLedgerStore) Close() error { return nil }

type fakeStorageManager struct {
	ledger interfaces.LedgerStore
}

func (f *fakeStorageManager) PriceStorage() interfaces.PriceHistoryStorage { return nil }
func (f *fakeStorageManager) LedgerStore() interfaces.LedgerStore          { return f.ledger }
func (f *fakeStorageManager) DataPath() string                             { return "" }
func (f *fakeStorageManager) Close() error                                 { return nil }

type fakeResolver struct {
	histories map[string][]models.PricePoint
	resolved  []string
}

func (f *fakeResolver) ResolveHistory(ctx context.Context, symbol string, kind models.AssetKind, from, to time.Time) []models.PricePoint {
	f.resolved = append(f.resolved, symbol)
	return f.histories[symbol]
}

func (f *fakeResolver) ResolveLatest(ctx context.Context, symbol string, kind models.AssetKind) (models.PricePoint, error) {
	points := f.histories[symbol]
	if len(points) == 0 {
		return models.PricePoint{}, models.ErrNoPriceData
	}
	return points[len(points)-1], nil
}

func (f *fakeResolver) ResolveAll(ctx context.Context, symbols map[string]models.AssetKind, from, to time.Time) map[string][]models.PricePoint {
	out := make(map[string][]models.PricePoint)
	for symbol, kind := range symbols {
		out[symbol] = f.ResolveHistory(ctx, symbol, kind, from, to)
	}
	return out
}

type fakeRates struct {
	series map[int][]models.RatePoint
	calls  []int
}

func (f *fakeRates) GetSeries(ctx context.Context, code int, from, to time.Time) ([]models.RatePoint, error) {
	f.calls = append(f.calls, code)
	return f.series[code], nil
}

func newTestService(store *fakeLedgerStore, resolver *fakeResolver, rates *fakeRates) *Service {
	var rc interfaces.RateSeriesClient
	if rates != nil {
		rc = rates
	}
	svc := NewService(&fakeStorageManager{ledger: store}, resolver, rc, common.NewSilentLogger())
	svc.now = func() time.Time { return day(4) }
	return svc
}

// ---- tests ----

func TestBuildValuationEmptyUser(t *testing.T) {
	svc := newTestService(&fakeLedgerStore{}, &fakeResolver{}, nil)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestBuildValuationSeries(t *testing.T) {
	store := &fakeLedgerStore{
		transactions: []models.Transaction{
			{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 30, Date: day(0)},
			{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 5, UnitPrice: 60, Date: day(0)},
			{Symbol: "PETR4", Kind: models.TransactionSell, Quantity: 0, TotalValue: 50, Date: day(2)},
		},
		holdings: []models.Holding{
			{Symbol: "PETR4", Kind: models.AssetListedSecurity, Quantity: 15, AveragePrice: 40},
		},
	}
	resolver := &fakeResolver{histories: map[string][]models.PricePoint{
		"PETR4": {
			{Symbol: "PETR4", Date: day(0), Close: 40},
			{Symbol: "PETR4", Date: day(3), Close: 42},
		},
	}}
	svc := newTestService(store, resolver, nil)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{
		Benchmarks: []models.BenchmarkSeries{}, // skip benchmarks
	})
	require.NoError(t, err)
	require.Len(t, result.Series, 5)

	// Capital applied stays at the invested total on every day: the
	// dividend is a cash event and does not unwind it.
	for i, p := range result.Series {
		assert.Equal(t, 600.0, p.CapitalApplied, "day %d", i)
		assert.GreaterOrEqual(t, p.GrossBalance, 0.0, "day %d", i)
	}

	// Day 0 and 1: 15 × 40. Day 2 adds the 50 dividend. Days 3-4 reprice
	// at 42.
	assert.Equal(t, 600.0, result.Series[0].GrossBalance)
	assert.Equal(t, 600.0, result.Series[1].GrossBalance)
	assert.Equal(t, 650.0, result.Series[2].GrossBalance)
	assert.Equal(t, 680.0, result.Series[3].GrossBalance)
	assert.Equal(t, 680.0, result.Series[4].GrossBalance)

	// Dates are epoch millis at midnight UTC, ascending.
	assert.Equal(t, models.EpochMillis(day(0)), result.Series[0].Date)
	assert.Equal(t, models.EpochMillis(day(4)), result.Series[4].Date)

	// Category distribution values the final day.
	require.Contains(t, result.Categories, models.CategoryDomesticEquity)
	assert.Equal(t, 630.0, result.Categories[models.CategoryDomesticEquity].Value)

	// Portfolio return series mirrors the daily series shape.
	require.Len(t, result.Returns, 5)
	assert.Equal(t, 0.0, result.Returns[0].Value)
	assert.InDelta(t, 13.33, result.Returns[4].Value, 0.01)

	assert.Empty(t, result.Benchmarks)
}

func TestBuildValuationManualAsset(t *testing.T) {
	store := &fakeLedgerStore{
		holdings: []models.Holding{
			{Symbol: "RESERVA", Kind: models.AssetReserveEmergency, Quantity: 1, AveragePrice: 10000, LastUpdate: day(1)},
		},
	}
	resolver := &fakeResolver{}
	svc := newTestService(store, resolver, nil)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{
		Benchmarks: []models.BenchmarkSeries{},
	})
	require.NoError(t, err)
	require.Len(t, result.Series, 4) // day 1 through day 4

	for _, p := range result.Series {
		assert.Equal(t, 10000.0, p.CapitalApplied)
		assert.Equal(t, 10000.0, p.GrossBalance)
	}

	// Manual symbols never hit the resolver.
	assert.Empty(t, resolver.resolved)

	assert.Equal(t, 10000.0, result.Categories[models.CategoryReserveEmergency].Value)
	assert.Equal(t, 100.0, result.Categories[models.CategoryReserveEmergency].Percentage)
}

func TestBuildValuationFixedIncomeAccrues(t *testing.T) {
	store := &fakeLedgerStore{
		fixedIncome: []models.FixedIncomePosition{
			{Symbol: "CDB-X", Name: "CDB Banco X", InvestedAmount: 1000, AnnualRatePct: 12, StartDate: day(0), MaturityDate: day(365)},
		},
	}
	svc := newTestService(store, &fakeResolver{}, nil)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{
		Benchmarks: []models.BenchmarkSeries{},
	})
	require.NoError(t, err)
	require.Len(t, result.Series, 5)

	// Invested amount enters applied capital at the start date.
	assert.Equal(t, 1000.0, result.Series[0].CapitalApplied)
	assert.Equal(t, 1000.0, result.Series[0].GrossBalance)
	// Accrual is monotonic day over day.
	assert.GreaterOrEqual(t, result.Series[4].GrossBalance, result.Series[0].GrossBalance)

	assert.Contains(t, result.Categories, models.CategoryFixedIncome)
}

func TestBuildValuationDefaultBenchmarks(t *testing.T) {
	store := &fakeLedgerStore{
		transactions: []models.Transaction{
			{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 30, Date: day(0)},
		},
	}
	resolver := &fakeResolver{histories: map[string][]models.PricePoint{
		"PETR4": {{Symbol: "PETR4", Date: day(0), Close: 30}},
		"^BVSP": {
			{Symbol: "^BVSP", Date: day(0), Close: 120000},
			{Symbol: "^BVSP", Date: day(2), Close: 126000},
		},
	}}
	rates := &fakeRates{series: map[int][]models.RatePoint{
		12: {
			{Date: day(0), Value: 11.5},
			{Date: day(4), Value: 11.5},
		},
	}}
	svc := newTestService(store, resolver, rates)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{})
	require.NoError(t, err)

	// CDI (12) and IPCA (433) were both requested; IPCA came back empty
	// and is silently absent.
	assert.Contains(t, rates.calls, 12)
	assert.Contains(t, rates.calls, 433)

	names := make([]string, 0, len(result.Benchmarks))
	for _, b := range result.Benchmarks {
		names = append(names, b.Name)
	}
	assert.Contains(t, names, "CDI")
	assert.Contains(t, names, "IBOVESPA")
	assert.NotContains(t, names, "IPCA")

	for _, b := range result.Benchmarks {
		if b.Name == "IBOVESPA" {
			require.Len(t, b.Points, 2)
			assert.Equal(t, 0.0, b.Points[0].Value)
			assert.Equal(t, 5.0, b.Points[1].Value)
		}
	}
}

func TestBuildValuationExplicitWindow(t *testing.T) {
	store := &fakeLedgerStore{
		transactions: []models.Transaction{
			{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 30, Date: day(0)},
		},
	}
	resolver := &fakeResolver{histories: map[string][]models.PricePoint{
		"PETR4": {{Symbol: "PETR4", Date: day(0), Close: 30}},
	}}
	svc := newTestService(store, resolver, nil)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{
		From:       day(2),
		To:         day(3),
		Benchmarks: []models.BenchmarkSeries{},
	})
	require.NoError(t, err)
	require.Len(t, result.Series, 2)
	assert.Equal(t, models.EpochMillis(day(2)), result.Series[0].Date)

	// The buy on day 0 precedes the window but still backs the series:
	// the first window day reports the position as held, not zero.
	for i, p := range result.Series {
		assert.Equal(t, 300.0, p.CapitalApplied, "day %d", i)
		assert.Equal(t, 300.0, p.GrossBalance, "day %d", i)
	}
}

func TestBuildValuationWindowSeedsPriorLedgerState(t *testing.T) {
	store := &fakeLedgerStore{
		transactions: []models.Transaction{
			{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 20, UnitPrice: 30, Date: day(0)},
			{Symbol: "PETR4", Kind: models.TransactionSell, Quantity: 10, UnitPrice: 35, Date: day(1)},
			{Symbol: "PETR4", Kind: models.TransactionSell, Quantity: 0, TotalValue: 40, Date: day(1)},
		},
	}
	resolver := &fakeResolver{histories: map[string][]models.PricePoint{
		"PETR4": {{Symbol: "PETR4", Date: day(0), Close: 30}},
	}}
	svc := newTestService(store, resolver, nil)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{
		From:       day(3),
		To:         day(4),
		Benchmarks: []models.BenchmarkSeries{},
	})
	require.NoError(t, err)
	require.Len(t, result.Series, 2)

	// Pre-window replay: 20 bought for 600, 10 sold for 350, plus a 40
	// dividend. Applied 600-350=250; quantity 10; cash clamps the buy to
	// zero on day 0, then 350+40 on day 1.
	for i, p := range result.Series {
		assert.Equal(t, 250.0, p.CapitalApplied, "day %d", i)
		assert.Equal(t, 690.0, p.GrossBalance, "day %d", i) // 10×30 + 390 cash
	}

	require.Contains(t, result.Categories, models.CategoryDomesticEquity)
	assert.Equal(t, 300.0, result.Categories[models.CategoryDomesticEquity].Value)
}

func TestBuildValuationFutureToClampedToToday(t *testing.T) {
	store := &fakeLedgerStore{
		transactions: []models.Transaction{
			{Symbol: "PETR4", Kind: models.TransactionBuy, Quantity: 1, UnitPrice: 30, Date: day(3)},
		},
	}
	resolver := &fakeResolver{}
	svc := newTestService(store, resolver, nil)

	result, err := svc.BuildValuation(context.Background(), "u1", interfaces.ValuationOptions{
		To:         day(30),
		Benchmarks: []models.BenchmarkSeries{},
	})
	require.NoError(t, err)
	require.Len(t, result.Series, 2) // day 3 and day 4 ("today")
	assert.Equal(t, day(4), result.To)
}
