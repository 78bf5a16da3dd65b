package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoPriceData marks a symbol with no resolvable price for a needed day.
// Non-fatal: the timeline carries the last known price forward or, with no
// prior price, omits the symbol from that day's market-value sum.
var ErrNoPriceData = errors.New("no price data")

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a benchmark series that failed a sanity check.
// The series is excluded from output, never defaulted to zero.
type ValidationError struct {
	Series string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("benchmark series %q rejected: %s", e.Series, e.Reason)
}

// InvariantViolation records a condition that should never occur with correct
// inputs: decreasing applied capital, negative gross balance or non-finite
// values. Production code clamps or skips the offending day; only the
// self-check harness surfaces these.
type InvariantViolation struct {
	Day   time.Time
	Field string
	Value float64
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation on %s: %s = %g",
		e.Day.Format("2006-01-02"), e.Field, e.Value)
}
