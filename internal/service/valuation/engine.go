// Package valuation orchestrates weight projection, price resolution, breed
// premiums and cost-to-carry into per-herd and portfolio valuations.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/refdata"
	"github.com/lachb/grazier/internal/service/market"
)

// PriceResolver resolves a price per kilogram for a market category.
type PriceResolver interface {
	Resolve(ctx context.Context, category, state, preferredSaleyard string) (models.MarketPrice, error)
}

// WeightProjector computes a herd's live weight at a date.
type WeightProjector interface {
	ProjectedWeight(herd models.HerdGroup, asOf time.Time) (float64, error)
}

// Engine values herds and portfolios. Construct one per deployment; it holds
// no mutable state of its own.
type Engine struct {
	projector      WeightProjector
	resolver       PriceResolver
	ref            *refdata.Provider
	costPerHeadDay decimal.Decimal
	logger         *zap.Logger
}

// NewEngine wires a valuation engine. costPerHeadDay is the daily holding
// cost accrued per head while a herd is retained.
func NewEngine(projector WeightProjector, resolver PriceResolver, ref *refdata.Provider, costPerHeadDay decimal.Decimal, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		projector:      projector,
		resolver:       resolver,
		ref:            ref,
		costPerHeadDay: costPerHeadDay,
		logger:         logger,
	}
}

// ValueHerd produces the valuation of a single herd at asOf.
//
// Unsold herds are priced from market data: projected weight, resolved price
// adjusted by the breed premium, gross = head x kg x $/kg, net = gross minus
// accrued cost-to-carry. Sold herds are valued verbatim from the recorded
// sale price at the sale date and are never re-priced from market data.
//
// Pricing failure surfaces market.ErrNoPriceAvailable; the caller decides
// whether the herd is reported unvalued.
func (e *Engine) ValueHerd(ctx context.Context, herd models.HerdGroup, asOf time.Time) (models.HerdValuation, error) {
	if err := herd.Validate(); err != nil {
		return models.HerdValuation{}, fmt.Errorf("herd %s: %w", herd.ID, err)
	}

	if herd.Sold {
		return e.realizedValuation(herd)
	}

	weight, err := e.projector.ProjectedWeight(herd, asOf)
	if err != nil {
		return models.HerdValuation{}, fmt.Errorf("herd %s: %w", herd.ID, err)
	}

	category := herd.MarketCategory
	if category == "" {
		category = herd.Category
	}

	price, err := e.resolver.Resolve(ctx, category, herd.State, herd.PreferredSaleyard)
	if err != nil {
		return models.HerdValuation{}, fmt.Errorf("herd %s: %w", herd.ID, err)
	}

	premium := e.ref.BreedPremium(herd.Species, category, herd.Breed)
	adjusted := price.PricePerKg.Mul(decimal.NewFromFloat(1 + premium))

	gross := decimal.NewFromInt(int64(herd.HeadCount)).
		Mul(decimal.NewFromFloat(weight)).
		Mul(adjusted).
		Round(2)

	carry := e.costToCarry(herd, herd.CreatedAt, asOf)

	valuation := models.HerdValuation{
		HerdID:            herd.ID,
		GrossValue:        gross,
		NetValue:          gross.Sub(carry),
		PricePerKg:        adjusted.Round(4),
		SourceTier:        price.Tier,
		ProjectedWeightKg: weight,
		CostToCarry:       carry,
		AsOf:              asOf,
	}

	e.logger.Debug("herd valued",
		zap.String("herd_id", herd.ID),
		zap.String("tier", string(price.Tier)),
		zap.String("gross", gross.String()))

	return valuation, nil
}

// ValuePortfolio values every herd in the set at asOf. A herd whose pricing
// fails with ErrNoPriceAvailable, or whose record is invalid, is excluded
// from the valued totals and reported in Unvalued; it never aborts the
// aggregate and is never counted as zero.
func (e *Engine) ValuePortfolio(ctx context.Context, herds []models.HerdGroup, asOf time.Time) (models.PortfolioSummary, error) {
	summary := models.PortfolioSummary{
		AsOf:            asOf,
		UnrealizedGross: decimal.Zero,
		UnrealizedNet:   decimal.Zero,
		RealizedTotal:   decimal.Zero,
	}

	for _, herd := range herds {
		valuation, err := e.ValueHerd(ctx, herd, asOf)
		switch {
		case errors.Is(err, market.ErrNoPriceAvailable), errors.Is(err, models.ErrInvalidInput):
			e.logger.Warn("herd excluded from portfolio valuation",
				zap.String("herd_id", herd.ID), zap.Error(err))
			summary.Unvalued = append(summary.Unvalued, models.UnvaluedHerd{
				HerdID: herd.ID,
				Reason: err.Error(),
			})
			continue
		case err != nil:
			return models.PortfolioSummary{}, fmt.Errorf("value portfolio: %w", err)
		}

		summary.Valuations = append(summary.Valuations, valuation)
		if valuation.Realized {
			// Realized totals are sale proceeds, kept apart from market value.
			summary.RealizedTotal = summary.RealizedTotal.Add(valuation.GrossValue)
			summary.SoldHerds++
		} else {
			summary.UnrealizedGross = summary.UnrealizedGross.Add(valuation.GrossValue)
			summary.UnrealizedNet = summary.UnrealizedNet.Add(valuation.NetValue)
			summary.ValuedHerds++
		}
	}

	return summary, nil
}

func (e *Engine) realizedValuation(herd models.HerdGroup) (models.HerdValuation, error) {
	soldDate := *herd.SoldDate
	weight, err := e.projector.ProjectedWeight(herd, soldDate)
	if err != nil {
		return models.HerdValuation{}, fmt.Errorf("herd %s at sale date: %w", herd.ID, err)
	}

	gross := decimal.NewFromInt(int64(herd.HeadCount)).
		Mul(decimal.NewFromFloat(weight)).
		Mul(*herd.SoldPricePerKg).
		Round(2)

	carry := e.costToCarry(herd, herd.CreatedAt, soldDate)

	return models.HerdValuation{
		HerdID:            herd.ID,
		GrossValue:        gross,
		NetValue:          gross.Sub(carry),
		PricePerKg:        *herd.SoldPricePerKg,
		ProjectedWeightKg: weight,
		CostToCarry:       carry,
		Realized:          true,
		AsOf:              soldDate,
	}, nil
}

func (e *Engine) costToCarry(herd models.HerdGroup, from, to time.Time) decimal.Decimal {
	if !to.After(from) || e.costPerHeadDay.IsZero() {
		return decimal.Zero
	}
	days := decimal.NewFromFloat(to.Sub(from).Hours() / 24)
	return e.costPerHeadDay.
		Mul(days).
		Mul(decimal.NewFromInt(int64(herd.HeadCount))).
		Round(2)
}
