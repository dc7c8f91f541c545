package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HerdValuation is the per-herd output of the valuation engine.
type HerdValuation struct {
	HerdID            string          `json:"herd_id"`
	GrossValue        decimal.Decimal `json:"gross_value"`
	NetValue          decimal.Decimal `json:"net_value"`
	PricePerKg        decimal.Decimal `json:"price_per_kg"`
	SourceTier        SourceTier      `json:"source_tier,omitempty"`
	ProjectedWeightKg float64         `json:"projected_weight_kg"`
	CostToCarry       decimal.Decimal `json:"cost_to_carry"`
	Realized          bool            `json:"realized"`
	AsOf              time.Time       `json:"as_of"`
}

// UnvaluedHerd reports a herd excluded from the valued total, with the reason.
type UnvaluedHerd struct {
	HerdID string `json:"herd_id"`
	Reason string `json:"reason"`
}

// PortfolioSummary aggregates herd valuations. Unrealized (market) value and
// realized (sold) value are reported separately and never summed together.
type PortfolioSummary struct {
	AsOf            time.Time       `json:"as_of"`
	UnrealizedGross decimal.Decimal `json:"unrealized_gross"`
	UnrealizedNet   decimal.Decimal `json:"unrealized_net"`
	RealizedTotal   decimal.Decimal `json:"realized_total"`
	ValuedHerds     int             `json:"valued_herds"`
	SoldHerds       int             `json:"sold_herds"`
	Valuations      []HerdValuation `json:"valuations"`
	Unvalued        []UnvaluedHerd  `json:"unvalued"`
}
