package bill

import (
	"time"

	"github.com/zombor/bill-scanner/internal/categorize"
	"github.com/zombor/bill-scanner/internal/pricing"
	"github.com/zombor/bill-scanner/internal/recommend"
)

// Bill represents one processed receipt upload
type Bill struct {
	ID          string                       `json:"id"`
	UserID      string                       `json:"user_id"`
	UploadDate  time.Time                    `json:"upload_date"`
	TotalAmount float64                      `json:"total_amount"`
	Items       []categorize.CategorizedItem `json:"items"`
	Status      string                       `json:"status"`
	Filename    string                       `json:"filename,omitempty"`
	ContentType string                       `json:"content_type,omitempty"`
}

// ItemQuotes carries one item's cross-platform price comparison
type ItemQuotes struct {
	Name                 string                     `json:"name"`
	Category             string                     `json:"category"`
	OriginalPrice        float64                    `json:"original_price"`
	PlatformPrices       []pricing.Quote            `json:"platform_prices"`
	BestPrice            float64                    `json:"best_price"`
	MaxSavings           float64                    `json:"max_savings"`
	RecommendedPlatforms []recommend.Recommendation `json:"recommended_platforms"`
}

// Analysis is the full result of processing one uploaded bill
type Analysis struct {
	Bill                  *Bill        `json:"bill"`
	ItemsWithPrices       []ItemQuotes `json:"items_with_prices"`
	TotalSavingsPotential float64      `json:"total_savings_potential"`
}

// ShoppingList is a generated, budget-bound list of items to buy
type ShoppingList struct {
	ID             string                     `json:"id"`
	UserID         string                     `json:"user_id"`
	Budget         float64                    `json:"budget"`
	Items          []categorize.SuggestedItem `json:"items"`
	TotalEstimated float64                    `json:"total_estimated"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// MonthlySpend is one month of the spending trend
type MonthlySpend struct {
	Month    string  `json:"month"`
	Spending float64 `json:"spending"`
}

// CategoryShare is one category's slice of total spending
type CategoryShare struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// Insights summarizes a user's spending across their bills
type Insights struct {
	TotalSpending     float64            `json:"total_spending"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	MonthlyTrend      []MonthlySpend     `json:"monthly_trend"`
	TopCategories     []CategoryShare    `json:"top_categories"`
}
