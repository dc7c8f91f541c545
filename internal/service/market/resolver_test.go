package market

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/refdata"
	"github.com/lachb/grazier/pkg/clients/pricefeed"
)

type fakeSource struct {
	saleyard map[string]*pricefeed.Quote // category|saleyard
	state    map[string]*pricefeed.Quote // category|state
	national map[string]*pricefeed.Quote // category
	calls    int
}

func quote(price string) *pricefeed.Quote {
	return &pricefeed.Quote{
		PricePerKg: decimal.RequireFromString(price),
		PriceDate:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeSource) SaleyardQuote(_ context.Context, category, saleyard string) (*pricefeed.Quote, error) {
	f.calls++
	return f.saleyard[category+"|"+saleyard], nil
}

func (f *fakeSource) StateIndicator(_ context.Context, category, state string) (*pricefeed.Quote, error) {
	f.calls++
	return f.state[category+"|"+state], nil
}

func (f *fakeSource) NationalBenchmark(_ context.Context, category string) (*pricefeed.Quote, error) {
	f.calls++
	return f.national[category], nil
}

func newTestResolver(source QuoteSource, ttl time.Duration) *Resolver {
	return NewResolver(source, refdata.NewProvider(), ttl, nil)
}

func TestResolve_SaleyardTierWins(t *testing.T) {
	source := &fakeSource{
		saleyard: map[string]*pricefeed.Quote{"Weaner Steer|Roma Saleyards": quote("3.90")},
		state:    map[string]*pricefeed.Quote{"Weaner Steer|QLD": quote("3.70")},
		national: map[string]*pricefeed.Quote{"Weaner Steer": quote("3.50")},
	}
	resolver := newTestResolver(source, 0)

	price, err := resolver.Resolve(context.Background(), "Weaner Steer", "QLD", "Roma Saleyards")
	require.NoError(t, err)
	assert.Equal(t, models.TierSaleyard, price.Tier)
	assert.True(t, price.PricePerKg.Equal(decimal.RequireFromString("3.90")))
}

func TestResolve_FallsBackToStateIndicator(t *testing.T) {
	source := &fakeSource{
		state:    map[string]*pricefeed.Quote{"Weaner Steer|NSW": quote("3.70")},
		national: map[string]*pricefeed.Quote{"Weaner Steer": quote("3.50")},
	}
	resolver := newTestResolver(source, 0)

	price, err := resolver.Resolve(context.Background(), "Weaner Steer", "NSW", "Dubbo Regional Livestock Market")
	require.NoError(t, err)
	assert.Equal(t, models.TierStateIndicator, price.Tier)
	assert.True(t, price.PricePerKg.Equal(decimal.RequireFromString("3.70")))
}

func TestResolve_FallsBackToNationalBenchmark(t *testing.T) {
	source := &fakeSource{
		national: map[string]*pricefeed.Quote{"Grown Steer": quote("3.30")},
	}
	resolver := newTestResolver(source, 0)

	price, err := resolver.Resolve(context.Background(), "Grown Steer", "VIC", "")
	require.NoError(t, err)
	assert.Equal(t, models.TierNationalBenchmark, price.Tier)
}

func TestResolve_MapsUntrackedCategory(t *testing.T) {
	// "Weaner Heifer" has no indicator of its own; it prices off "Weaner Steer".
	source := &fakeSource{
		state: map[string]*pricefeed.Quote{"Weaner Steer|NSW": quote("3.88")},
	}
	resolver := newTestResolver(source, 0)

	price, err := resolver.Resolve(context.Background(), "Weaner Heifer", "NSW", "")
	require.NoError(t, err)
	assert.Equal(t, models.TierStateIndicator, price.Tier)
	assert.True(t, price.PricePerKg.Equal(decimal.RequireFromString("3.88")))
}

func TestResolve_NoPriceAvailable(t *testing.T) {
	resolver := newTestResolver(&fakeSource{}, 0)

	_, err := resolver.Resolve(context.Background(), "Rangeland Goat", "WA", "Roma Saleyards")
	assert.ErrorIs(t, err, ErrNoPriceAvailable)
}

func TestResolve_CacheServesRepeatLookups(t *testing.T) {
	source := &fakeSource{
		national: map[string]*pricefeed.Quote{"Grown Steer": quote("3.30")},
	}
	resolver := newTestResolver(source, time.Minute)

	_, err := resolver.Resolve(context.Background(), "Grown Steer", "", "")
	require.NoError(t, err)
	callsAfterFirst := source.calls

	_, err = resolver.Resolve(context.Background(), "Grown Steer", "", "")
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, source.calls)

	resolver.Invalidate()
	_, err = resolver.Resolve(context.Background(), "Grown Steer", "", "")
	require.NoError(t, err)
	assert.Greater(t, source.calls, callsAfterFirst)
}
