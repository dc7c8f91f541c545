package valuation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/refdata"
	"github.com/lachb/grazier/internal/service/market"
	"github.com/lachb/grazier/internal/service/projection"
)

type fakeResolver struct {
	prices map[string]models.MarketPrice
}

func (f *fakeResolver) Resolve(_ context.Context, category, state, _ string) (models.MarketPrice, error) {
	price, ok := f.prices[category]
	if !ok {
		return models.MarketPrice{}, fmt.Errorf("category %q in %s: %w", category, state, market.ErrNoPriceAvailable)
	}
	return price, nil
}

var asOf = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func steerHerd(t *testing.T) models.HerdGroup {
	t.Helper()
	herd := models.NewHerdGroup(asOf.AddDate(0, 0, -120))
	herd.Species = models.SpeciesCattle
	herd.Sex = models.SexCastrate
	herd.Category = "Weaner Steer"
	herd.HeadCount = 10
	herd.InitialWeightKg = 42
	herd.CurrentWeightKg = 42
	herd.DailyWeightGain = 0.9
	require.NoError(t, herd.Validate())
	return herd
}

func newTestEngine(resolver PriceResolver, costPerHeadDay string) *Engine {
	return NewEngine(
		projection.NewService(nil),
		resolver,
		refdata.NewProvider(),
		decimal.RequireFromString(costPerHeadDay),
		nil,
	)
}

func marketPrice(price string, tier models.SourceTier) models.MarketPrice {
	return models.MarketPrice{
		PricePerKg: decimal.RequireFromString(price),
		Tier:       tier,
		AsOf:       asOf,
	}
}

func TestValueHerd_GrossAndNet(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]models.MarketPrice{
		"Weaner Steer": marketPrice("3.00", models.TierStateIndicator),
	}}
	engine := newTestEngine(resolver, "0.50")

	result, err := engine.ValueHerd(context.Background(), steerHerd(t), asOf)
	require.NoError(t, err)

	// weight 42 + 0.9*120 = 150kg, gross = 10 * 150 * 3.00
	assert.InDelta(t, 150.0, result.ProjectedWeightKg, 1e-9)
	assert.True(t, result.GrossValue.Equal(decimal.RequireFromString("4500")), result.GrossValue.String())
	// cost to carry = 0.50 * 120 days * 10 head
	assert.True(t, result.CostToCarry.Equal(decimal.RequireFromString("600")), result.CostToCarry.String())
	assert.True(t, result.NetValue.Equal(decimal.RequireFromString("3900")), result.NetValue.String())
	assert.Equal(t, models.TierStateIndicator, result.SourceTier)
	assert.False(t, result.Realized)
}

func TestValueHerd_AppliesBreedPremium(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]models.MarketPrice{
		"Weaner Steer": marketPrice("3.00", models.TierNationalBenchmark),
	}}
	engine := newTestEngine(resolver, "0")

	herd := steerHerd(t)
	herd.Breed = "Wagyu" // species-wide +20%

	result, err := engine.ValueHerd(context.Background(), herd, asOf)
	require.NoError(t, err)
	assert.True(t, result.PricePerKg.Equal(decimal.RequireFromString("3.6")), result.PricePerKg.String())
	assert.True(t, result.GrossValue.Equal(decimal.RequireFromString("5400")), result.GrossValue.String())
}

func TestValueHerd_UnknownBreedNoPremium(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]models.MarketPrice{
		"Weaner Steer": marketPrice("3.00", models.TierNationalBenchmark),
	}}
	engine := newTestEngine(resolver, "0")

	herd := steerHerd(t)
	herd.Breed = "Unknown Cross"

	result, err := engine.ValueHerd(context.Background(), herd, asOf)
	require.NoError(t, err)
	assert.True(t, result.GrossValue.Equal(decimal.RequireFromString("4500")))
}

func TestValueHerd_SoldUsesRecordedPrice(t *testing.T) {
	// No market prices at all: a sold herd must never touch the resolver.
	engine := newTestEngine(&fakeResolver{}, "0")

	herd := steerHerd(t)
	soldDate := asOf.AddDate(0, 0, -20) // 100 days after creation, weight 42+0.9*100=132
	require.NoError(t, herd.RecordSale(soldDate, decimal.RequireFromString("2.80"), asOf))

	result, err := engine.ValueHerd(context.Background(), herd, asOf)
	require.NoError(t, err)
	assert.True(t, result.Realized)
	assert.True(t, result.PricePerKg.Equal(decimal.RequireFromString("2.80")))
	// 10 head * 132kg * 2.80
	assert.True(t, result.GrossValue.Equal(decimal.RequireFromString("3696")), result.GrossValue.String())
	assert.Equal(t, soldDate, result.AsOf)
}

func TestValueHerd_SoldBasisTodayValued(t *testing.T) {
	// A herd whose initial weight was current "today" still reports realized
	// value when its sale date is in the past.
	engine := newTestEngine(&fakeResolver{}, "0")

	herd := steerHerd(t)
	herd.WeightBasis = models.BasisToday
	soldDate := asOf.AddDate(0, 0, -20)
	require.NoError(t, herd.RecordSale(soldDate, decimal.RequireFromString("2.80"), asOf))

	result, err := engine.ValueHerd(context.Background(), herd, asOf)
	require.NoError(t, err)
	assert.True(t, result.Realized)
	assert.True(t, result.PricePerKg.Equal(decimal.RequireFromString("2.80")))
	assert.GreaterOrEqual(t, result.ProjectedWeightKg, herd.InitialWeightKg)
	assert.True(t, result.GrossValue.IsPositive())
}

func TestValueHerd_NoPriceSurfaces(t *testing.T) {
	engine := newTestEngine(&fakeResolver{}, "0")

	_, err := engine.ValueHerd(context.Background(), steerHerd(t), asOf)
	assert.ErrorIs(t, err, market.ErrNoPriceAvailable)
}

func TestValuePortfolio_SeparatesValuedUnvaluedRealized(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]models.MarketPrice{
		"Weaner Steer": marketPrice("3.00", models.TierStateIndicator),
	}}
	engine := newTestEngine(resolver, "0")

	priced := steerHerd(t)

	unpriced := steerHerd(t)
	unpriced.Category = "Rangeland Goat"
	unpriced.Species = models.SpeciesGoat

	sold := steerHerd(t)
	require.NoError(t, sold.RecordSale(asOf.AddDate(0, 0, -20), decimal.RequireFromString("2.80"), asOf))

	summary, err := engine.ValuePortfolio(context.Background(), []models.HerdGroup{priced, unpriced, sold}, asOf)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ValuedHerds)
	assert.Equal(t, 1, summary.SoldHerds)
	require.Len(t, summary.Unvalued, 1)
	assert.Equal(t, unpriced.ID, summary.Unvalued[0].HerdID)

	assert.True(t, summary.UnrealizedGross.Equal(decimal.RequireFromString("4500")), summary.UnrealizedGross.String())
	assert.True(t, summary.RealizedTotal.Equal(decimal.RequireFromString("3696")), summary.RealizedTotal.String())
	// The unpriced herd contributes nothing; it is never counted as zero value.
	assert.Len(t, summary.Valuations, 2)
}
