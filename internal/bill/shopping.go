package bill

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zombor/bill-scanner/internal/categorize"
)

const (
	// historyBills is how many recent bills seed the suggestion context
	historyBills = 5
	// historyItems caps the frequent-item names handed to the suggester
	historyItems = 10
	// defaultEstimatedPrice stands in for history items with no usable price
	defaultEstimatedPrice = 50.0
)

// GenerateShoppingList builds a budget-bound shopping list seeded with the
// user's recent purchase history and persists it. When the suggester fails
// the list is derived from the history itself, so the endpoint degrades
// instead of erroring.
func (s *Service) GenerateShoppingList(ctx context.Context, userID string, budget float64) (*ShoppingList, error) {
	bills, err := s.db.ListBills(userID)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	if len(bills) > historyBills {
		bills = bills[:historyBills]
	}

	names, counts := itemFrequency(bills)
	if len(names) > historyItems {
		names = names[:historyItems]
	}

	suggested, err := s.suggester.SuggestItems(ctx, names, budget)
	if err != nil {
		slog.Error("Failed to generate shopping list, deriving one from purchase history", "error", err)
		suggested = historySuggestions(bills, names, counts, budget)
	}

	var total float64
	for _, item := range suggested {
		total += item.EstimatedPrice
	}

	list := &ShoppingList{
		ID:             s.idGenerator.Generate(),
		UserID:         userID,
		Budget:         budget,
		Items:          suggested,
		TotalEstimated: total,
		CreatedAt:      s.timeSource.Now(),
	}

	if err := s.db.SaveShoppingList(list); err != nil {
		return nil, fmt.Errorf("saving shopping list: %w", err)
	}
	return list, nil
}

// ListShoppingLists returns the user's saved lists, newest first
func (s *Service) ListShoppingLists(userID string) ([]*ShoppingList, error) {
	lists, err := s.db.ListShoppingLists(userID)
	if err != nil {
		return nil, fmt.Errorf("listing shopping lists: %w", err)
	}
	return lists, nil
}

// itemFrequency counts item names across bills, keeping first-seen order
func itemFrequency(bills []*Bill) ([]string, map[string]int) {
	counts := map[string]int{}
	var names []string
	for _, b := range bills {
		for _, item := range b.Items {
			if item.Name == "" {
				continue
			}
			if counts[item.Name] == 0 {
				names = append(names, item.Name)
			}
			counts[item.Name]++
		}
	}
	return names, counts
}

// historySuggestions derives a shopping list from past purchases, most
// frequent item first, each priced from its most recent appearance and
// added only while it still fits the budget. Users with no history get
// grocery staples.
func historySuggestions(bills []*Bill, names []string, counts map[string]int, budget float64) []categorize.SuggestedItem {
	if len(names) == 0 {
		return stapleSuggestions(budget)
	}

	type pastItem struct {
		category string
		price    float64
		quantity string
	}
	latest := map[string]pastItem{}
	// bills are newest first, keep the first sighting of each name
	for _, b := range bills {
		for _, item := range b.Items {
			if _, ok := latest[item.Name]; ok {
				continue
			}
			latest[item.Name] = pastItem{
				category: item.Category,
				price:    item.Price,
				quantity: item.Quantity,
			}
		}
	}

	ordered := make([]string, len(names))
	copy(ordered, names)
	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i]] > counts[ordered[j]]
	})

	suggestions := make([]categorize.SuggestedItem, 0, len(ordered))
	var total float64
	for _, name := range ordered {
		past := latest[name]
		price := past.price
		if price <= 0 {
			price = defaultEstimatedPrice
		}
		if total+price > budget {
			continue
		}

		category := past.category
		if category == "" {
			category = "Other"
		}
		quantity := past.quantity
		if quantity == "" {
			quantity = "1"
		}
		suggestions = append(suggestions, categorize.SuggestedItem{
			Name:           name,
			Category:       category,
			EstimatedPrice: price,
			Quantity:       quantity,
		})
		total += price
	}
	return suggestions
}

// stapleSuggestions is the no-history list, the same staples the parser
// falls back to, budget-filtered in order.
func stapleSuggestions(budget float64) []categorize.SuggestedItem {
	staples := []categorize.SuggestedItem{
		{Name: "Milk", Category: "Dairy", EstimatedPrice: 60, Quantity: "1L"},
		{Name: "Bread", Category: "Bakery", EstimatedPrice: 40, Quantity: "1"},
		{Name: "Eggs", Category: "Dairy", EstimatedPrice: 80, Quantity: "12"},
		{Name: "Rice", Category: "Groceries", EstimatedPrice: 120, Quantity: "1kg"},
		{Name: "Oil", Category: "Groceries", EstimatedPrice: 150, Quantity: "1L"},
	}

	suggestions := make([]categorize.SuggestedItem, 0, len(staples))
	var total float64
	for _, item := range staples {
		if total+item.EstimatedPrice > budget {
			continue
		}
		suggestions = append(suggestions, item)
		total += item.EstimatedPrice
	}
	return suggestions
}
