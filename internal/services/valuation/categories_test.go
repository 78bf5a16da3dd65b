package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfmachado/patrimonio/internal/models"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		holding  models.Holding
		want     models.Category
		included bool
	}{
		{"domestic equity", models.Holding{Symbol: "PETR4", Kind: models.AssetListedSecurity}, models.CategoryDomesticEquity, true},
		{"foreign equity by currency", models.Holding{Symbol: "AAPL", Currency: "USD", Kind: models.AssetListedSecurity}, models.CategoryForeignEquity, true},
		{"fii by suffix", models.Holding{Symbol: "HGLG11", Kind: models.AssetListedSecurity}, models.CategoryRealEstateFunds, true},
		{"fii by name", models.Holding{Symbol: "XYZ", Name: "FII Logistica", Kind: models.AssetListedSecurity}, models.CategoryRealEstateFunds, true},
		{"etf", models.Holding{Symbol: "BOVA", Name: "ETF Ibovespa", Kind: models.AssetListedSecurity}, models.CategoryETFs, true},
		{"fund", models.Holding{Symbol: "X", Name: "Fundo Multimercado", Kind: models.AssetListedSecurity}, models.CategoryFunds, true},
		{"pension", models.Holding{Symbol: "X", Name: "Previdencia PGBL", Kind: models.AssetListedSecurity}, models.CategoryPension, true},
		{"insurance", models.Holding{Symbol: "X", Name: "Seguro de Vida", Kind: models.AssetListedSecurity}, models.CategoryInsurance, true},
		{"treasury", models.Holding{Symbol: "TESOURO-SELIC-2029", Kind: models.AssetFixedIncome}, models.CategoryTreasury, true},
		{"cdb", models.Holding{Symbol: "CDB-BANCO", Kind: models.AssetFixedIncome}, models.CategoryFixedIncome, true},
		{"crypto", models.Holding{Symbol: "BTC", Kind: models.AssetCurrencyCrypto}, models.CategoryCrypto, true},
		{"currency", models.Holding{Symbol: "USD", Kind: models.AssetCurrencyCrypto}, models.CategoryCurrency, true},
		{"emergency reserve", models.Holding{Symbol: "RESERVA", Kind: models.AssetReserveEmergency}, models.CategoryReserveEmergency, true},
		{"opportunity reserve", models.Holding{Symbol: "OPORT", Kind: models.AssetReserveOpportunity}, models.CategoryReserveOpportunity, true},
		{"real estate excluded", models.Holding{Symbol: "APTO-SP", Kind: models.AssetRealEstateCustom}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, included := Categorize(tt.holding)
			assert.Equal(t, tt.included, included)
			if included {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBuildDistributionPercentagesSum(t *testing.T) {
	values := []HoldingValue{
		{Holding: models.Holding{Symbol: "PETR4", Kind: models.AssetListedSecurity}, Value: 3000},
		{Holding: models.Holding{Symbol: "HGLG11", Kind: models.AssetListedSecurity}, Value: 2000},
		{Holding: models.Holding{Symbol: "CDB-X", Kind: models.AssetFixedIncome}, Value: 5000},
	}

	dist := BuildDistribution(values, nil, 10000)
	require.Len(t, dist, 3)
	assert.Equal(t, 30.0, dist[models.CategoryDomesticEquity].Percentage)
	assert.Equal(t, 20.0, dist[models.CategoryRealEstateFunds].Percentage)
	assert.Equal(t, 50.0, dist[models.CategoryFixedIncome].Percentage)

	var sum float64
	for _, share := range dist {
		sum += share.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.05)
}

func TestBuildDistributionEarmarkOverlay(t *testing.T) {
	values := []HoldingValue{
		{Holding: models.Holding{Symbol: "PETR4", Kind: models.AssetListedSecurity}, Value: 900},
	}
	earmarks := []models.CategoryEarmark{
		{Category: models.CategoryReserveEmergency, Amount: 100},
		{Category: models.CategoryDomesticEquity, Amount: 0}, // ignored
	}

	dist := BuildDistribution(values, earmarks, 1000)
	require.Len(t, dist, 2)
	assert.Equal(t, 100.0, dist[models.CategoryReserveEmergency].Value)
	assert.Equal(t, 10.0, dist[models.CategoryReserveEmergency].Percentage)
	assert.Equal(t, 90.0, dist[models.CategoryDomesticEquity].Percentage)
}

func TestBuildDistributionSkipsExcludedAndNonPositive(t *testing.T) {
	values := []HoldingValue{
		{Holding: models.Holding{Symbol: "APTO", Kind: models.AssetRealEstateCustom}, Value: 500000},
		{Holding: models.Holding{Symbol: "ZERO3", Kind: models.AssetListedSecurity}, Value: 0},
		{Holding: models.Holding{Symbol: "PETR4", Kind: models.AssetListedSecurity}, Value: 1000},
	}

	dist := BuildDistribution(values, nil, 1000)
	require.Len(t, dist, 1)
	assert.Equal(t, 100.0, dist[models.CategoryDomesticEquity].Percentage)
}

func TestBuildDistributionEmpty(t *testing.T) {
	dist := BuildDistribution(nil, nil, 0)
	assert.Empty(t, dist)
}
