package models

import (
	"math"
	"sort"
	"time"
)

// PricePoint is a single externally sourced daily price. Histories are
// sparse: weekends, holidays and provider gaps leave days without a point.
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}

// Valid reports whether the point is usable by the engine. Only strictly
// positive finite prices are valid; everything else is dropped before use.
func (p PricePoint) Valid() bool {
	return p.Close > 0 && !math.IsInf(p.Close, 0) && !math.IsNaN(p.Close)
}

// PriceHistory is a persisted per-symbol price series.
type PriceHistory struct {
	Symbol    string       `json:"symbol"`
	Points    []PricePoint `json:"points"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CleanPricePoints drops invalid points and returns the remainder sorted by
// date ascending. The input slice is not modified.
func CleanPricePoints(points []PricePoint) []PricePoint {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if p.Valid() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// RatePoint is one observation of an external benchmark series: either an
// index level or a percentage rate, depending on the series kind.
type RatePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// BenchmarkKind identifies the shape of an external benchmark series.
type BenchmarkKind string

const (
	// BenchmarkPointIndex is an absolute index level series (e.g. IBOVESPA).
	BenchmarkPointIndex BenchmarkKind = "point_index"
	// BenchmarkMonthlyRate is a percent-per-month rate series (e.g. IPCA).
	BenchmarkMonthlyRate BenchmarkKind = "monthly_rate"
	// BenchmarkDailyAnnualRate is a daily series of annualized nominal rates
	// compounded over ~252 business days (e.g. CDI).
	BenchmarkDailyAnnualRate BenchmarkKind = "daily_annual_rate"
)

// BenchmarkSeries is a raw external series before normalization.
type BenchmarkSeries struct {
	Name   string        `json:"name"`
	Kind   BenchmarkKind `json:"kind"`
	Points []RatePoint   `json:"points"`
}
