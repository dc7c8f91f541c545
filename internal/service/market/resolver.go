// Package market resolves a sale price per kilogram for a livestock category
// through a tiered fallback of market data sources.
package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/refdata"
	"github.com/lachb/grazier/pkg/clients/pricefeed"
)

// ErrNoPriceAvailable indicates every tier was queried and none held a quote.
// Portfolio-level callers treat the herd as unvalued; single-herd callers
// must handle it explicitly. Zero is never substituted.
var ErrNoPriceAvailable = errors.New("no price available")

// QuoteSource is the external price lookup consumed by the resolver. Each
// lookup returns (nil, nil) when no quote exists for the key.
type QuoteSource interface {
	SaleyardQuote(ctx context.Context, category, saleyard string) (*pricefeed.Quote, error)
	StateIndicator(ctx context.Context, category, state string) (*pricefeed.Quote, error)
	NationalBenchmark(ctx context.Context, category string) (*pricefeed.Quote, error)
}

type cacheKey struct {
	category string
	state    string
	saleyard string
}

type cacheEntry struct {
	price     models.MarketPrice
	fetchedAt time.Time
}

// Resolver resolves prices through the saleyard, state indicator and national
// benchmark tiers, in that strict order. It holds no state beyond an optional
// short-lived cache; construct one per engine, never share globally.
type Resolver struct {
	source QuoteSource
	ref    *refdata.Provider
	logger *zap.Logger
	now    func() time.Time

	ttl   time.Duration
	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// NewResolver wires a resolver. A zero or negative ttl disables caching.
func NewResolver(source QuoteSource, ref *refdata.Provider, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		source: source,
		ref:    ref,
		logger: logger,
		now:    time.Now,
		ttl:    ttl,
		cache:  make(map[cacheKey]cacheEntry),
	}
}

// Resolve returns the price per kilogram for a category with its source tier.
// Tiers are evaluated in strict order and the first with data wins:
//
//  1. exact quote for the preferred saleyard
//  2. state-level indicator
//  3. national benchmark
//
// Within each tier the herd category is tried first, then its mapped
// indicator category when the category is not separately tracked. When all
// tiers miss, Resolve fails with ErrNoPriceAvailable.
func (r *Resolver) Resolve(ctx context.Context, category, state, preferredSaleyard string) (models.MarketPrice, error) {
	key := cacheKey{category: category, state: state, saleyard: preferredSaleyard}
	if price, ok := r.cached(key); ok {
		return price, nil
	}

	candidates := []string{category}
	if mapped := r.ref.IndicatorCategory(category); mapped != category {
		candidates = append(candidates, mapped)
	}

	if preferredSaleyard != "" {
		for _, cat := range candidates {
			quote, err := r.source.SaleyardQuote(ctx, cat, preferredSaleyard)
			if err != nil {
				return models.MarketPrice{}, fmt.Errorf("saleyard tier lookup for %q: %w", cat, err)
			}
			if quote != nil {
				return r.store(key, quote, models.TierSaleyard), nil
			}
		}
	}

	if state != "" {
		for _, cat := range candidates {
			quote, err := r.source.StateIndicator(ctx, cat, state)
			if err != nil {
				return models.MarketPrice{}, fmt.Errorf("state indicator lookup for %q: %w", cat, err)
			}
			if quote != nil {
				return r.store(key, quote, models.TierStateIndicator), nil
			}
		}
	}

	for _, cat := range candidates {
		quote, err := r.source.NationalBenchmark(ctx, cat)
		if err != nil {
			return models.MarketPrice{}, fmt.Errorf("national benchmark lookup for %q: %w", cat, err)
		}
		if quote != nil {
			return r.store(key, quote, models.TierNationalBenchmark), nil
		}
	}

	r.logger.Debug("all price tiers exhausted",
		zap.String("category", category),
		zap.String("state", state),
		zap.String("saleyard", preferredSaleyard))

	return models.MarketPrice{}, fmt.Errorf("category %q in %s: %w", category, state, ErrNoPriceAvailable)
}

// Invalidate drops every cached price.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[cacheKey]cacheEntry)
}

func (r *Resolver) cached(key cacheKey) (models.MarketPrice, bool) {
	if r.ttl <= 0 {
		return models.MarketPrice{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[key]
	if !ok || r.now().Sub(entry.fetchedAt) > r.ttl {
		return models.MarketPrice{}, false
	}
	return entry.price, true
}

func (r *Resolver) store(key cacheKey, quote *pricefeed.Quote, tier models.SourceTier) models.MarketPrice {
	price := models.MarketPrice{
		PricePerKg: quote.PricePerKg,
		Tier:       tier,
		AsOf:       quote.PriceDate,
	}
	if r.ttl > 0 {
		r.mu.Lock()
		r.cache[key] = cacheEntry{price: price, fetchedAt: r.now()}
		r.mu.Unlock()
	}
	return price
}
