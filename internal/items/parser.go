// Package items turns deduplicated, position-sorted receipt text lines into
// raw item tuples ready for categorization and pricing.
package items

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/zombor/bill-scanner/internal/quantity"
)

// RawItem is one line item parsed from a receipt, before categorization.
type RawItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity string  `json:"quantity"`
}

// Item prices outside this range are treated as recognition noise.
const (
	minItemPrice = 5
	maxItemPrice = 20000
)

var (
	// pricePattern matches an optional currency marker followed by 1-5
	// digits and an optional 2-decimal fraction. Receipts put the price
	// at the end of the line, so the rightmost match wins.
	pricePattern = regexp.MustCompile(`(?i)(?:Rs\.?|₹|INR)?\s*(\d{1,5}(?:[.,]\d{2})?)`)

	// standalonePricePattern recognizes a line that is nothing but a price,
	// as printed by two-line name/price receipt layouts.
	standalonePricePattern = regexp.MustCompile(`(?i)^\s*(?:Rs\.?|₹)?\s*\d+(?:[.,]\d{2})?\s*$`)

	// numericLinePattern rejects lines of bare numbers and punctuation,
	// typically item codes and ruled separators.
	numericLinePattern = regexp.MustCompile(`^[\d\s\-.,]+$`)

	quantityPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:kg|g|gm|gram|grams|l|ltr|liter|liters|ml|milliliter|pc|pcs|piece|pieces|pack|pk|nos|no|unit|units|doz|dozen|box|bottle|btl|can|tin|packet|pkt))`)

	enumeratorPattern     = regexp.MustCompile(`^[\d\-.)]+\s*`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
	currencyMarkerPattern = regexp.MustCompile(`(?i)\b(?:rs|inr)\b\.?|₹`)
	letterPattern         = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern          = regexp.MustCompile(`\d`)
	numberPattern         = regexp.MustCompile(`\d+(?:[.,]\d{2})?`)
)

// stopTokens filters receipt furniture: totals and tax lines, store
// metadata, dates, table headers, payment methods, bare units and other
// boilerplate that never names a purchasable item. A line is rejected when
// any of its alphanumeric tokens appears here.
var stopTokens = map[string]struct{}{}

func init() {
	for _, term := range []string{
		// Financial terms
		"total", "subtotal", "gst", "tax", "vat", "cgst", "sgst", "igst", "cess", "service", "charge",
		"cash", "card", "credit", "debit", "change", "balance", "due", "paid", "amount", "rupees",
		"price", "rate", "cost", "mrp", "discount", "offer", "saving",

		// Receipt metadata
		"bill", "invoice", "receipt", "thank", "visit", "again", "welcome", "customer", "copy",
		"original", "duplicate", "void", "cancelled", "returned", "refund", "exchange",

		// Store information
		"phone", "mobile", "address", "email", "website", "www", "http", "com", "in", "net",
		"store", "shop", "mall", "market", "branch", "outlet", "franchise", "retail",

		// Date and time
		"date", "time", "day", "month", "year", "hour", "min", "sec", "am", "pm",
		"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",

		// Table headers
		"item", "qty", "quantity", "code", "barcode", "hsn", "sac", "description", "details", "particulars",

		// Payment methods
		"upi", "paytm", "gpay", "phonepe", "googlepay", "bhim", "netbanking", "wallet",
		"visa", "mastercard", "rupay", "maestro", "atm", "pos", "swipe", "pin",

		// Staff and service
		"staff", "waiter", "server", "cashier", "manager", "supervisor", "executive",
		"tip", "gratuity", "delivery", "packing", "carry", "takeaway",

		// Bare units
		"kg", "gm", "g", "l", "ltr", "ml", "pc", "pcs", "nos", "no", "unit", "units",
		"pack", "pk", "dozen", "dz", "piece", "pieces", "set", "pair", "pairs",

		// Common Indian store terms
		"limited", "pvt", "ltd", "private", "corporation", "enterprise", "traders",
		"distributors", "wholesale", "supermarket", "hypermarket", "kirana",
		"provisions", "general", "stores", "bazaar", "mandi", "society", "cooperative",

		// Quality and expiry
		"best", "before", "expiry", "exp", "mfg", "manufactured", "batch", "lot",
		"fresh", "organic", "natural", "pure", "quality", "premium", "standard",

		// Promotional
		"free", "gift", "bonus", "combo", "deal", "sale",
		"promotion", "special", "period", "hurry", "only", "while", "stocks",

		// Location based
		"number", "flat", "apartment", "building", "tower", "block", "sector",
		"phase", "area", "colony", "road", "street", "lane", "cross",

		// Miscellaneous
		"e", "and", "or", "the", "of", "at", "on", "for", "to", "from",
		"with", "by", "as", "per", "each", "all", "any", "some", "more", "less",
	} {
		stopTokens[term] = struct{}{}
	}
}

// ParseItems converts position-sorted receipt lines into raw items. Lines
// that look like headers, footers or codes are dropped; the rightmost price
// token on a line becomes the item price and the text before it the name.
// When a line reduces to a bare price, the name is borrowed from the line
// above it.
func ParseItems(rawLines []string) []RawItem {
	// Single-character fragments are recognition noise and would distort
	// previous-line attribution if left in place.
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 1 {
			lines = append(lines, trimmed)
		}
	}

	var parsed []RawItem
	for i, line := range lines {
		lower := strings.ToLower(line)
		if len(line) < 3 || containsStopToken(lower) {
			continue
		}
		if numericLinePattern.MatchString(line) {
			continue
		}

		matches := pricePattern.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 {
			if item, ok := priceOnlyItem(lines, i); ok {
				parsed = append(parsed, item)
			}
			continue
		}

		// Rightmost price wins, receipts put the amount at line end.
		last := matches[len(matches)-1]
		price, err := strconv.ParseFloat(strings.ReplaceAll(line[last[2]:last[3]], ",", ""), 64)
		if err != nil {
			continue
		}
		if price < minItemPrice || price > maxItemPrice {
			continue
		}

		name := strings.TrimSpace(line[:last[0]])
		name = enumeratorPattern.ReplaceAllString(name, "")
		name = whitespacePattern.ReplaceAllString(name, " ")
		name = currencyMarkerPattern.ReplaceAllString(name, "")

		if len(name) < 2 || !letterPattern.MatchString(name) {
			prev, ok := previousName(lines, i)
			if !ok {
				continue
			}
			name = prev
		}

		qty := "1"
		if m := quantityPattern.FindStringSubmatch(name); m != nil {
			qty = quantity.Normalize(m[1])
			name = strings.TrimSpace(strings.ReplaceAll(name, m[0], ""))
		} else if inferred := quantity.InferFromName(name); inferred != "" {
			qty = inferred
		}

		name = strings.TrimSpace(name)
		if len(name) < 2 {
			continue
		}
		parsed = append(parsed, RawItem{Name: name, Price: price, Quantity: qty})
	}
	return parsed
}

// priceOnlyItem handles two-line layouts where a line holds only a price
// and the item name sits on the line above.
func priceOnlyItem(lines []string, i int) (RawItem, bool) {
	if !standalonePricePattern.MatchString(lines[i]) || i == 0 {
		return RawItem{}, false
	}
	prev := strings.TrimSpace(lines[i-1])
	if len(prev) <= 3 || containsStopToken(strings.ToLower(prev)) {
		return RawItem{}, false
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(numberPattern.FindString(lines[i]), ",", ""), 64)
	if err != nil || price < minItemPrice || price > maxItemPrice {
		return RawItem{}, false
	}
	return RawItem{Name: prev, Price: price, Quantity: "1"}, true
}

// previousName borrows the prior line as the item name when the current
// line reduced to nothing but its price. The prior line must itself look
// like a name: long enough, free of stop tokens, free of digits.
func previousName(lines []string, i int) (string, bool) {
	if i == 0 {
		return "", false
	}
	prev := strings.TrimSpace(lines[i-1])
	if len(prev) <= 3 || containsStopToken(strings.ToLower(prev)) || digitPattern.MatchString(prev) {
		return "", false
	}
	return prev, true
}

func containsStopToken(line string) bool {
	tokens := strings.FieldsFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if _, ok := stopTokens[tok]; ok {
			return true
		}
	}
	return false
}
