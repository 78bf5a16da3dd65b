package models

import "time"

// SeriesPoint is one day of the valuation output series. Dates are epoch
// milliseconds and values are rounded to 2 decimals — the shape the
// presentation layer charts directly.
type SeriesPoint struct {
	Date           int64   `json:"date"` // epoch millis at midnight UTC
	CapitalApplied float64 `json:"capital_applied"`
	GrossBalance   float64 `json:"gross_balance"`
}

// BenchmarkPoint mirrors SeriesPoint for normalized benchmark series; the
// value is a cumulative percentage return rebased to the series start.
type BenchmarkPoint struct {
	Date  int64   `json:"date"`
	Value float64 `json:"value"`
}

// EpochMillis converts a time to the epoch-millisecond representation used
// by the output series.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// Category is one key of the fixed investment-category taxonomy.
type Category string

const (
	CategoryDomesticEquity      Category = "acoes_nacionais"
	CategoryForeignEquity       Category = "acoes_internacionais"
	CategoryRealEstateFunds     Category = "fundos_imobiliarios"
	CategoryETFs                Category = "etfs"
	CategoryFunds               Category = "fundos"
	CategoryFixedIncome         Category = "renda_fixa"
	CategoryTreasury            Category = "tesouro_direto"
	CategoryPension             Category = "previdencia"
	CategoryCrypto              Category = "criptomoedas"
	CategoryCurrency            Category = "moedas"
	CategoryInsurance           Category = "seguros"
	CategoryReserveEmergency    Category = "reserva_emergencia"
	CategoryReserveOpportunity  Category = "reserva_oportunidade"
)

// AllCategories lists every category key in presentation order.
func AllCategories() []Category {
	return []Category{
		CategoryDomesticEquity,
		CategoryForeignEquity,
		CategoryRealEstateFunds,
		CategoryETFs,
		CategoryFunds,
		CategoryFixedIncome,
		CategoryTreasury,
		CategoryPension,
		CategoryCrypto,
		CategoryCurrency,
		CategoryInsurance,
		CategoryReserveEmergency,
		CategoryReserveOpportunity,
	}
}

// CategoryShare is the aggregated value and percentage for one category.
type CategoryShare struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// CategoryDistribution maps each category to its share of the portfolio.
type CategoryDistribution map[Category]CategoryShare

// NormalizedBenchmark is one benchmark series after rebasing, in percentage
// units comparable to the portfolio series.
type NormalizedBenchmark struct {
	Name   string           `json:"name"`
	Points []BenchmarkPoint `json:"points"`
}

// ValuationResult is the full request-scoped output of the engine. It is
// never persisted; the presentation layer consumes it directly.
type ValuationResult struct {
	Series     []SeriesPoint         `json:"series"`
	Categories CategoryDistribution  `json:"categories"`
	Benchmarks []NormalizedBenchmark `json:"benchmarks,omitempty"`
	// Returns is the portfolio's own cumulative percentage return, in the
	// same point shape as the benchmark series.
	Returns []BenchmarkPoint `json:"returns,omitempty"`
	// From and To are the resolved bounds of the series (zero when empty).
	From time.Time `json:"-"`
	To   time.Time `json:"-"`
}

// Empty reports whether the valuation found no data for the period, as
// opposed to a computation error (which surfaces as an error value).
func (r *ValuationResult) Empty() bool {
	return r == nil || len(r.Series) == 0
}
