package recommend

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/zombor/bill-scanner/internal/pricing"
)

// Recommendation scores one platform for an item. Score is 0-100.
type Recommendation struct {
	Platform     string  `json:"platform"`
	Reason       string  `json:"reason"`
	Score        float64 `json:"score"`
	DeliveryTime string  `json:"delivery_time"`
}

// categoryPreferences ranks platforms per category, strongest first. Only
// the first three entries earn the category bonus.
var categoryPreferences = map[string][]string{
	"Groceries":           {"BigBasket", "JioMart", "Blinkit", "Zepto"},
	"Fruits & Vegetables": {"BigBasket", "Swiggy Instamart", "Zepto", "Blinkit"},
	"Dairy":               {"Blinkit", "Zepto", "BigBasket", "Swiggy Instamart"},
	"Snacks":              {"Amazon", "Flipkart", "Meesho", "BigBasket"},
	"Beverages":           {"BigBasket", "JioMart", "Blinkit", "Amazon"},
	"Cleaning":            {"Amazon", "Flipkart", "BigBasket", "JioMart"},
	"Personal Care":       {"Amazon", "Flipkart", "Meesho", "BigBasket"},
	"Electronics":         {"Amazon", "Flipkart"},
	"Meat & Seafood":      {"BigBasket", "Swiggy Instamart", "Blinkit"},
	"Bakery":              {"Swiggy Instamart", "Blinkit", "Zepto", "BigBasket"},
	"Frozen Foods":        {"BigBasket", "Swiggy Instamart", "JioMart"},
	"Other":               {"Amazon", "Flipkart", "Meesho"},
}

// establishedPlatforms get a flat reliability bonus.
var establishedPlatforms = map[string]bool{
	"Amazon":    true,
	"Flipkart":  true,
	"BigBasket": true,
}

// Recommend scores each quote by category fit, price competitiveness,
// delivery speed and platform reliability, then returns the top three,
// descending by score. Ties keep the quote order, which is ascending by
// price. Quotes that score zero are dropped.
func Recommend(category string, quotes []pricing.Quote, delivery map[string]string) []Recommendation {
	if len(quotes) == 0 {
		return nil
	}

	preferred, ok := categoryPreferences[category]
	if !ok {
		preferred = categoryPreferences["Other"]
	}
	top := preferred
	if len(top) > 3 {
		top = top[:3]
	}

	best := quotes[0].Price
	for _, q := range quotes[1:] {
		if q.Price < best {
			best = q.Price
		}
	}

	recommendations := make([]Recommendation, 0, len(quotes))
	for _, q := range quotes {
		var score float64
		var reasons []string

		if idx := slices.Index(top, q.Platform); idx >= 0 {
			score += 40.0 * (1 - float64(idx)/3)
			reasons = append(reasons, fmt.Sprintf("Great for %s", category))
		}

		if q.Price == best {
			score += 30.0
			reasons = append(reasons, "Best price")
		} else if q.Price <= best*1.05 {
			score += 20.0
			reasons = append(reasons, "Competitive price")
		}

		eta := delivery[q.Platform]
		if strings.Contains(eta, "min") {
			score += 20.0
			reasons = append(reasons, fmt.Sprintf("Fast delivery (%s)", eta))
		} else if strings.Contains(eta, "Same Day") || strings.Contains(eta, "Next Day") {
			score += 10.0
			reasons = append(reasons, fmt.Sprintf("%s delivery", eta))
		}

		if establishedPlatforms[q.Platform] {
			score += 10.0
		}

		if score <= 0 {
			continue
		}

		reason := "Available"
		if len(reasons) > 0 {
			reason = strings.Join(reasons, ", ")
		}
		recommendations = append(recommendations, Recommendation{
			Platform:     q.Platform,
			Reason:       reason,
			Score:        math.Round(score*10) / 10,
			DeliveryTime: eta,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Score > recommendations[j].Score
	})
	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}
	return recommendations
}
