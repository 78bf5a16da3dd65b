package models

import (
	"strings"
	"time"
)

// TransactionKind distinguishes buys from sells.
type TransactionKind string

const (
	TransactionBuy  TransactionKind = "buy"
	TransactionSell TransactionKind = "sell"
)

// ParseTransactionKind normalizes a stored kind string. Anything that is not
// recognizably a sell is treated as a buy.
func ParseTransactionKind(s string) TransactionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sell", "venda":
		return TransactionSell
	default:
		return TransactionBuy
	}
}

// Transaction is a single immutable ledger entry. Replay never mutates it.
type Transaction struct {
	ID        string          `json:"id" badgerhold:"key"`
	UserID    string          `json:"user_id" badgerhold:"index"`
	Symbol    string          `json:"symbol"`
	Kind      TransactionKind `json:"kind"`
	Quantity  float64         `json:"quantity"`   // >= 0
	UnitPrice float64         `json:"unit_price"` // >= 0
	// TotalValue is authoritative when positive; otherwise the effective
	// total falls back to Quantity × UnitPrice.
	TotalValue float64   `json:"total_value"`
	Fees       float64   `json:"fees"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}

// EffectiveTotal returns the cash amount the transaction moved.
func (t Transaction) EffectiveTotal() float64 {
	if t.TotalValue > 0 {
		return t.TotalValue
	}
	return t.Quantity * t.UnitPrice
}

// Holding is a portfolio snapshot position. For positions without a
// transaction trail it is the only record of entry, replayed as a single
// synthetic buy on LastUpdate.
type Holding struct {
	UserID        string    `json:"user_id" badgerhold:"index"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Kind          AssetKind `json:"kind"`
	Currency      string    `json:"currency,omitempty"` // ISO code, "BRL" when empty
	Quantity      float64   `json:"quantity"`
	AveragePrice  float64   `json:"average_price"`
	TotalInvested float64   `json:"total_invested"`
	LastUpdate    time.Time `json:"last_update"`
}

// SnapshotValue returns the user-declared value of the position, preferring
// the invested total over quantity × average price.
func (h Holding) SnapshotValue() float64 {
	if h.TotalInvested > 0 {
		return h.TotalInvested
	}
	return h.Quantity * h.AveragePrice
}

// FixedIncomePosition is a fixed-income investment valued by day-count
// compound accrual rather than market quotes.
type FixedIncomePosition struct {
	ID             string    `json:"id" badgerhold:"key"`
	UserID         string    `json:"user_id" badgerhold:"index"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name,omitempty"`
	StartDate      time.Time `json:"start_date"`
	MaturityDate   time.Time `json:"maturity_date"`
	InvestedAmount float64   `json:"invested_amount"`    // >= 0
	AnnualRatePct  float64   `json:"annual_rate_pct"`    // e.g. 13.65 for 13.65% a.a.
	Indexer        string    `json:"indexer,omitempty"`  // "CDI", "IPCA", "PRE"
	CreatedAt      time.Time `json:"created_at"`
}

// CategoryEarmark is a user-entered "cash set aside to invest" override,
// added on top of the computed total for one category.
type CategoryEarmark struct {
	UserID   string   `json:"user_id" badgerhold:"index"`
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
}

// UserSettings holds per-user manual overrides that are not holdings.
type UserSettings struct {
	UserID       string  `json:"user_id" badgerhold:"key"`
	NetWorthGoal float64 `json:"net_worth_goal"`
}
