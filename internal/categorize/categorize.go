// Package categorize labels parsed bill items with shopping categories,
// normally through a language model, always with a local fallback.
package categorize

import (
	"context"
	"errors"
	"strings"

	"github.com/zombor/bill-scanner/internal/items"
)

// CategorizedItem is a raw item with a cleaned name and a category label.
type CategorizedItem struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// SuggestedItem is one entry of a generated shopping list.
type SuggestedItem struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	EstimatedPrice float64 `json:"estimated_price"`
	Quantity       string  `json:"quantity"`
}

// Categorizer cleans up and categorizes raw bill items.
type Categorizer interface {
	CategorizeItems(ctx context.Context, raw []items.RawItem) ([]CategorizedItem, error)
}

// ListSuggester drafts a budget-bound shopping list from purchase history.
type ListSuggester interface {
	SuggestItems(ctx context.Context, frequentItems []string, budget float64) ([]SuggestedItem, error)
}

// Categories is the closed set of labels an item can carry.
var Categories = []string{
	"Dairy",
	"Snacks",
	"Beverages",
	"Cleaning",
	"Personal Care",
	"Electronics",
	"Groceries",
	"Fruits & Vegetables",
	"Meat & Seafood",
	"Bakery",
	"Frozen Foods",
	"Other",
}

// canonicalCategory folds a free-form model label onto the closed category
// set; anything unrecognized becomes "Other".
func canonicalCategory(category string) string {
	category = strings.TrimSpace(category)
	for _, c := range Categories {
		if strings.EqualFold(category, c) {
			return c
		}
	}
	return "Other"
}

// FallbackItems labels every raw item "Other" without losing name, price
// or quantity. Used whenever the language model fails or is not configured.
func FallbackItems(raw []items.RawItem) []CategorizedItem {
	categorized := make([]CategorizedItem, 0, len(raw))
	for _, item := range raw {
		name := item.Name
		if name == "" {
			name = "Unknown"
		}
		categorized = append(categorized, CategorizedItem{
			Name:     name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Category: "Other",
		})
	}
	return categorized
}

// Disabled stands in when no language model is configured. Categorization
// errors so callers take their local fallback; suggestions fail outright.
type Disabled struct{}

func (Disabled) CategorizeItems(context.Context, []items.RawItem) ([]CategorizedItem, error) {
	return nil, errors.New("categorization is not configured")
}

func (Disabled) SuggestItems(context.Context, []string, float64) ([]SuggestedItem, error) {
	return nil, errors.New("shopping list suggestions are not configured")
}
