package valuation

import (
	"strings"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/models"
)

// HoldingValue pairs a holding with its current value for aggregation.
type HoldingValue struct {
	Holding models.Holding
	Value   float64
}

// Categorize resolves the investment category for a holding. The second
// return is false for holdings excluded from the distribution entirely
// (real estate and custom assets). Resolution order: asset-kind shortcuts,
// then the explicit type table routed by currency, then symbol-pattern
// heuristics.
func Categorize(h models.Holding) (models.Category, bool) {
	switch h.Kind {
	case models.AssetReserveEmergency:
		return models.CategoryReserveEmergency, true
	case models.AssetReserveOpportunity:
		return models.CategoryReserveOpportunity, true
	case models.AssetRealEstateCustom:
		return "", false
	case models.AssetFixedIncome:
		if containsToken(h, "TESOURO", "TD") {
			return models.CategoryTreasury, true
		}
		return models.CategoryFixedIncome, true
	case models.AssetCurrencyCrypto:
		if containsToken(h, "USD", "EUR", "DOLAR", "EURO", "GBP") {
			return models.CategoryCurrency, true
		}
		return models.CategoryCrypto, true
	}

	// Listed security: explicit table routed by name tokens and currency.
	name := strings.ToUpper(h.Name)
	switch {
	case containsToken(h, "SEGURO"):
		return models.CategoryInsurance, true
	case containsToken(h, "PREVIDENCIA", "PREV", "PGBL", "VGBL"):
		return models.CategoryPension, true
	case strings.Contains(name, "ETF"):
		return models.CategoryETFs, true
	case containsToken(h, "FII") || strings.HasSuffix(strings.ToUpper(h.Symbol), "11"):
		// B3 real estate funds list under the "11" suffix.
		return models.CategoryRealEstateFunds, true
	case containsToken(h, "FUNDO", "FIC", "FIM", "FIA"):
		return models.CategoryFunds, true
	case foreignCurrency(h.Currency):
		return models.CategoryForeignEquity, true
	default:
		return models.CategoryDomesticEquity, true
	}
}

// BuildDistribution aggregates per-holding values into the fixed category
// taxonomy and overlays the user's per-category earmarked cash before
// computing percentages.
//
// The earmark overlay is intentionally additive: the source treats computed
// holdings and "cash set aside" as distinct intents, so no deduplication
// happens even when an earmark targets an already-counted reserve category.
func BuildDistribution(values []HoldingValue, earmarks []models.CategoryEarmark, grossBalance float64) models.CategoryDistribution {
	totals := make(map[models.Category]float64)

	for _, hv := range values {
		if hv.Value <= 0 {
			continue
		}
		category, ok := Categorize(hv.Holding)
		if !ok {
			continue
		}
		totals[category] += hv.Value
	}

	for _, e := range earmarks {
		if e.Amount > 0 {
			totals[e.Category] += e.Amount
		}
	}

	var sum float64
	for _, v := range totals {
		sum += v
	}

	// Zero category total: fall back to the gross balance denominator so
	// percentages stay meaningful (all zero) instead of dividing by zero.
	denominator := sum
	if denominator <= 0 {
		denominator = grossBalance
	}

	distribution := make(models.CategoryDistribution, len(totals))
	for _, category := range models.AllCategories() {
		value, ok := totals[category]
		if !ok {
			continue
		}
		percentage := 0.0
		if denominator > 0 {
			percentage = value / denominator * 100
		}
		distribution[category] = models.CategoryShare{
			Value:      common.Round2(value),
			Percentage: common.Round2(percentage),
		}
	}

	return distribution
}

// containsToken reports whether the holding's symbol or name contains any of
// the given uppercase tokens.
func containsToken(h models.Holding, tokens ...string) bool {
	symbol := strings.ToUpper(h.Symbol)
	name := strings.ToUpper(h.Name)
	for _, token := range tokens {
		if strings.Contains(symbol, token) || strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// foreignCurrency reports whether a holding currency routes the position to
// the foreign equity category. Empty means BRL.
func foreignCurrency(currency string) bool {
	c := strings.ToUpper(strings.TrimSpace(currency))
	return c != "" && c != "BRL"
}
