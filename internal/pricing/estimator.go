package pricing

import (
	"math"
	"math/rand"
	"net/url"
	"sort"
	"sync"

	"github.com/zombor/bill-scanner/internal/quantity"
)

// Estimator synthesizes platform quotes from the price observed on a bill.
// Prices are drawn from per-platform uniform ranges around the observed unit
// price, not looked up anywhere. Quick-commerce platforms skew slightly
// expensive, bulk quantities attract a discount on the large catalogs, and
// small packs get a minor adjustment on quick commerce.
type Estimator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	tags AffiliateTags
}

// NewEstimator creates an estimator drawing from rng. Tests pass a seeded
// source for reproducible quotes.
func NewEstimator(rng *rand.Rand, tags AffiliateTags) *Estimator {
	return &Estimator{rng: rng, tags: tags}
}

// Quotes returns one quote per platform, sorted ascending by price.
func (e *Estimator) Quotes(name string, originalPrice float64, qty string) []Quote {
	value, unit := quantity.ParseToNumber(qty)
	unitPrice := originalPrice
	if value > 0 {
		unitPrice = originalPrice / value
	}

	query := url.QueryEscape(SearchQuery(name, qty, unit))

	quotes := make([]Quote, 0, len(platformDirectory))
	for _, p := range platformDirectory {
		var variation float64
		if quickCommerce[p.name] {
			variation = e.uniform(0.95, 1.15)
		} else {
			variation = e.uniform(0.85, 1.05)
		}
		price := round2(unitPrice * variation * value)

		switch unit {
		case "kg", "l":
			if bulkDiscountPlatforms[p.name] {
				discount := e.uniform(0.02, 0.08)
				price = round2(price * (1 - discount))
			}
		case "g", "ml":
			if smallPackPlatforms[p.name] {
				adjustment := e.uniform(-0.03, 0.02)
				price = round2(price * (1 + adjustment))
			}
		}

		quotes = append(quotes, Quote{
			Platform: p.name,
			Price:    price,
			URL:      p.buildURL(query, e.tags),
			Savings:  round2(originalPrice - price),
		})
	}

	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Price < quotes[j].Price })
	return quotes
}

// uniform is safe for concurrent use, rand.Rand itself is not.
func (e *Estimator) uniform(lo, hi float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo + e.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
