package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationSnapshot is a persisted point-in-time record of the portfolio
// totals, written by the nightly job and exported for reporting.
type ValuationSnapshot struct {
	AsOf            time.Time       `bson:"as_of" json:"as_of"`
	UnrealizedGross decimal.Decimal `bson:"unrealized_gross" json:"unrealized_gross"`
	UnrealizedNet   decimal.Decimal `bson:"unrealized_net" json:"unrealized_net"`
	RealizedTotal   decimal.Decimal `bson:"realized_total" json:"realized_total"`
	ValuedHerds     int             `bson:"valued_herds" json:"valued_herds"`
	UnvaluedHerds   int             `bson:"unvalued_herds" json:"unvalued_herds"`
	SoldHerds       int             `bson:"sold_herds" json:"sold_herds"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
}

// SnapshotFromSummary derives the stored snapshot from a portfolio summary.
func SnapshotFromSummary(summary PortfolioSummary, now time.Time) ValuationSnapshot {
	return ValuationSnapshot{
		AsOf:            summary.AsOf,
		UnrealizedGross: summary.UnrealizedGross,
		UnrealizedNet:   summary.UnrealizedNet,
		RealizedTotal:   summary.RealizedTotal,
		ValuedHerds:     summary.ValuedHerds,
		UnvaluedHerds:   len(summary.Unvalued),
		SoldHerds:       summary.SoldHerds,
		CreatedAt:       now,
	}
}
