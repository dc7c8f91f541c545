package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceTier identifies which market-data level produced a resolved price.
// Tier order matters: resolution always prefers the lowest-index tier with data.
type SourceTier string

const (
	TierSaleyard          SourceTier = "Saleyard"
	TierStateIndicator    SourceTier = "State Indicator"
	TierNationalBenchmark SourceTier = "National Benchmark"
)

// MarketPrice is a resolved price-per-kilogram together with its provenance.
// It is a value returned per query, never reconciled state.
type MarketPrice struct {
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	Tier       SourceTier      `json:"tier"`
	AsOf       time.Time       `json:"as_of"`
}
