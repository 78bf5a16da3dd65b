package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rfmachado/patrimonio/internal/app"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/services/valuation"
)

func main() {
	var (
		userID    = flag.String("user", "", "user ID to value")
		from      = flag.String("from", "", "series start (YYYY-MM-DD, default: earliest ledger event)")
		to        = flag.String("to", "", "series end (YYYY-MM-DD, default: today)")
		interval  = flag.String("interval", "daily", "series granularity: daily, weekly or monthly")
		selfCheck = flag.Bool("selfcheck", false, "run the built-in consistency scenario and exit")
	)
	flag.Parse()

	if *selfCheck {
		report := valuation.RunSelfCheck()
		json.NewEncoder(os.Stdout).Encode(report)
		if !report.Passed {
			os.Exit(1)
		}
		return
	}

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: patrimonio -user <id> [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-interval daily|weekly|monthly]")
		os.Exit(2)
	}

	a, err := app.NewApp(os.Getenv("PATRIMONIO_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	opts := interfaces.ValuationOptions{}
	if opts.From, err = parseDate(*from); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -from: %v\n", err)
		os.Exit(2)
	}
	if opts.To, err = parseDate(*to); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -to: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := a.Valuation.BuildValuation(ctx, *userID, opts)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Valuation failed")
		os.Exit(1)
	}

	switch *interval {
	case "weekly":
		result.Series = valuation.DownsampleToWeekly(result.Series)
	case "monthly":
		result.Series = valuation.DownsampleToMonthly(result.Series)
	case "daily":
	default:
		fmt.Fprintf(os.Stderr, "Unknown interval %q\n", *interval)
		os.Exit(2)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}
}

// parseDate parses an optional YYYY-MM-DD flag; empty means unset.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
