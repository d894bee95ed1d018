package pricing

import (
	"context"
	"log/slog"
	"sort"
)

// QuoteSource provides live platform prices for an item. Implementations may
// fail freely; the comparer falls back to estimated quotes.
type QuoteSource interface {
	Lookup(ctx context.Context, product, qty, category string) ([]FeedPrice, error)
}

// Comparer produces the per-item quote set: estimated prices, overridden by
// live feed prices where available, cached per item.
type Comparer struct {
	estimator *Estimator
	cache     *Cache
	source    QuoteSource
}

// NewComparer creates a comparer. A nil source disables live lookups.
func NewComparer(estimator *Estimator, cache *Cache, source QuoteSource) *Comparer {
	return &Comparer{
		estimator: estimator,
		cache:     cache,
		source:    source,
	}
}

// Quotes returns all platform quotes for an item, ascending by price.
func (c *Comparer) Quotes(ctx context.Context, name string, originalPrice float64, qty, category string) []Quote {
	if cached, ok := c.cache.Get(name, qty); ok {
		return cached
	}

	quotes := c.estimator.Quotes(name, originalPrice, qty)

	if c.source != nil {
		live, err := c.source.Lookup(ctx, name, qty, category)
		if err != nil {
			slog.Warn("Price feed lookup failed", "item", name, "error", err)
		} else {
			quotes = applyFeed(quotes, live, originalPrice)
		}
	}

	c.cache.Put(name, qty, quotes)
	return quotes
}

// applyFeed overrides estimated quotes with live prices where the feed has a
// positive price for the platform, then restores the ascending order.
func applyFeed(quotes []Quote, live []FeedPrice, originalPrice float64) []Quote {
	byPlatform := make(map[string]FeedPrice, len(live))
	for _, p := range live {
		byPlatform[p.Platform] = p
	}

	merged := make([]Quote, len(quotes))
	copy(merged, quotes)
	for i, q := range merged {
		p, ok := byPlatform[q.Platform]
		if !ok || p.Price <= 0 {
			continue
		}
		merged[i].Price = p.Price
		merged[i].Savings = round2(originalPrice - p.Price)
		if p.URL != "" {
			merged[i].URL = p.URL
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Price < merged[j].Price })
	return merged
}
