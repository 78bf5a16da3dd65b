// Package models defines data structures for Patrimonio
package models

import "strings"

// AssetKind classifies a holding and determines its pricing strategy.
// Listed securities and currency/crypto positions are market-priced,
// fixed income accrues by formula, and everything else carries the
// user-declared snapshot price across the whole timeline.
type AssetKind string

const (
	AssetListedSecurity     AssetKind = "listed_security"
	AssetFixedIncome        AssetKind = "fixed_income"
	AssetReserveEmergency   AssetKind = "reserve_emergency"
	AssetReserveOpportunity AssetKind = "reserve_opportunity"
	AssetRealEstateCustom   AssetKind = "real_estate_custom"
	AssetCurrencyCrypto     AssetKind = "currency_crypto"
)

// ParseAssetKind maps a stored kind string to an AssetKind.
// Unknown or empty kinds default to listed security, which keeps older
// records (saved before kinds were recorded) on the market-price path.
func ParseAssetKind(s string) AssetKind {
	switch AssetKind(strings.ToLower(strings.TrimSpace(s))) {
	case AssetFixedIncome:
		return AssetFixedIncome
	case AssetReserveEmergency:
		return AssetReserveEmergency
	case AssetReserveOpportunity:
		return AssetReserveOpportunity
	case AssetRealEstateCustom:
		return AssetRealEstateCustom
	case AssetCurrencyCrypto:
		return AssetCurrencyCrypto
	default:
		return AssetListedSecurity
	}
}

// UsesMarketPrice reports whether the kind is priced from external quotes.
func (k AssetKind) UsesMarketPrice() bool {
	return k == AssetListedSecurity || k == AssetCurrencyCrypto
}

// IsReserve reports whether the kind is one of the cash reserve buckets.
func (k AssetKind) IsReserve() bool {
	return k == AssetReserveEmergency || k == AssetReserveOpportunity
}

// IsManual reports whether the holding's value is user-declared rather than
// market-priced or accrued. Manual symbols must never reach the external
// quote provider.
func (k AssetKind) IsManual() bool {
	return k.IsReserve() || k == AssetRealEstateCustom
}
