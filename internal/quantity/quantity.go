package quantity

import (
	"regexp"
	"strconv"
	"strings"
)

// numberUnitPattern matches a leading "<number><unit>" pair with optional
// whitespace between the two. Anything after the unit token is ignored.
var numberUnitPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-zA-Z]+)`)

// unitSynonyms maps unit spellings to a canonical short form. Lookup is
// longest-prefix-wins, so "grams" resolves via "grams" rather than "gm".
var unitSynonyms = map[string]string{
	"gram":       "g",
	"grams":      "g",
	"gm":         "g",
	"liter":      "l",
	"liters":     "l",
	"ltr":        "l",
	"milliliter": "ml",
	"piece":      "pc",
	"pieces":     "pc",
	"pcs":        "pc",
	"doz":        "dozen",
	"dozen":      "dozen",
	"box":        "box",
	"bottle":     "bottle",
	"btl":        "bottle",
	"can":        "can",
	"tin":        "tin",
	"packet":     "packet",
	"pkt":        "packet",
}

type baseUnit struct {
	unit       string
	multiplier float64
}

// baseUnits maps unit prefixes to the base unit used for unit-price math.
// Bulk units (kg, l) are the base with multiplier 1.0, small units (g, ml)
// scale down by 0.001, countable units pass through unchanged.
var baseUnits = map[string]baseUnit{
	"kg":    {"kg", 1.0},
	"g":     {"g", 0.001},
	"gm":    {"g", 0.001},
	"l":     {"l", 1.0},
	"ltr":   {"l", 1.0},
	"ml":    {"ml", 0.001},
	"pc":    {"pc", 1.0},
	"pcs":   {"pc", 1.0},
	"pack":  {"pack", 1.0},
	"pk":    {"pk", 1.0},
	"nos":   {"nos", 1.0},
	"no":    {"no", 1.0},
	"unit":  {"unit", 1.0},
	"units": {"unit", 1.0},
}

// Normalize rewrites a free-form quantity like "500gm" or "2 Pcs" into the
// canonical "<number> <unit>" form. Input without a leading number+unit pair
// is returned lowercased and trimmed.
func Normalize(raw string) string {
	q := strings.ToLower(strings.TrimSpace(raw))
	m := numberUnitPattern.FindStringSubmatch(q)
	if m == nil {
		return q
	}
	unit := m[2]
	if prefix := longestPrefix(unit, func(p string) bool { _, ok := unitSynonyms[p]; return ok }); prefix != "" {
		unit = unitSynonyms[prefix]
	}
	return m[1] + " " + unit
}

// ParseToNumber converts a quantity string into a numeric value in base units
// plus the base unit name, e.g. "500g" becomes (0.5, "g") and "1kg" becomes
// (1.0, "kg"). A bare number parses with unit "unit"; anything unparseable
// defaults to (1.0, "unit").
func ParseToNumber(raw string) (float64, string) {
	q := strings.ToLower(strings.TrimSpace(raw))
	m := numberUnitPattern.FindStringSubmatch(q)
	if m == nil {
		if v, err := strconv.ParseFloat(q, 64); err == nil {
			return v, "unit"
		}
		return 1.0, "unit"
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 1.0, "unit"
	}
	unit := m[2]
	if prefix := longestPrefix(unit, func(p string) bool { _, ok := baseUnits[p]; return ok }); prefix != "" {
		base := baseUnits[prefix]
		return value * base.multiplier, base.unit
	}
	return value, unit
}

// longestPrefix returns the longest prefix of unit accepted by known, or ""
// when no prefix is known. Prefixes of a given length are unique, so the
// result does not depend on iteration order.
func longestPrefix(unit string, known func(string) bool) string {
	for n := len(unit); n > 0; n-- {
		if p := unit[:n]; known(p) {
			return p
		}
	}
	return ""
}

// quantityHints maps product-name patterns to the quantity a product of that
// name usually ships in. Checked in order, first match wins.
var quantityHints = []struct {
	pattern  *regexp.Regexp
	quantity string
}{
	{regexp.MustCompile(`milk.*?1l`), "1 l"},
	{regexp.MustCompile(`milk.*?500ml`), "500 ml"},
	{regexp.MustCompile(`milk.*?250ml`), "250 ml"},
	{regexp.MustCompile(`bread.*?400g`), "400 g"},
	{regexp.MustCompile(`bread.*?200g`), "200 g"},
	{regexp.MustCompile(`egg.*?12`), "12 pcs"},
	{regexp.MustCompile(`egg.*?6`), "6 pcs"},
	{regexp.MustCompile(`rice.*?1kg`), "1 kg"},
	{regexp.MustCompile(`rice.*?5kg`), "5 kg"},
	{regexp.MustCompile(`oil.*?1l`), "1 l"},
	{regexp.MustCompile(`oil.*?500ml`), "500 ml"},
	{regexp.MustCompile(`water.*?1l`), "1 l"},
	{regexp.MustCompile(`water.*?500ml`), "500 ml"},
	{regexp.MustCompile(`coke.*?750ml`), "750 ml"},
	{regexp.MustCompile(`coke.*?1l`), "1 l"},
	{regexp.MustCompile(`juice.*?1l`), "1 l"},
	{regexp.MustCompile(`biscuit.*?pack`), "1 pack"},
	{regexp.MustCompile(`noodles.*?pack`), "1 pack"},
	{regexp.MustCompile(`maggi.*?pack`), "1 pack"},
	{regexp.MustCompile(`tea.*?250g`), "250 g"},
	{regexp.MustCompile(`coffee.*?100g`), "100 g"},
	{regexp.MustCompile(`sugar.*?1kg`), "1 kg"},
	{regexp.MustCompile(`salt.*?1kg`), "1 kg"},
	{regexp.MustCompile(`dal.*?1kg`), "1 kg"},
	{regexp.MustCompile(`dal.*?500g`), "500 g"},
	{regexp.MustCompile(`atta.*?5kg`), "5 kg"},
	{regexp.MustCompile(`atta.*?1kg`), "1 kg"},
	{regexp.MustCompile(`flour.*?1kg`), "1 kg"},
	{regexp.MustCompile(`butter.*?100g`), "100 g"},
	{regexp.MustCompile(`butter.*?500g`), "500 g"},
	{regexp.MustCompile(`cheese.*?200g`), "200 g"},
	{regexp.MustCompile(`paneer.*?200g`), "200 g"},
	{regexp.MustCompile(`paneer.*?500g`), "500 g"},
	{regexp.MustCompile(`curd.*?200g`), "200 g"},
	{regexp.MustCompile(`curd.*?500g`), "500 g"},
	{regexp.MustCompile(`curd.*?1l`), "1 l"},
}

// InferFromName guesses a quantity for a product name that carries a pack
// size in its text, like "Amul Milk 500ml Pouch". Returns "" when the name
// matches no known pattern.
func InferFromName(name string) string {
	lowered := strings.ToLower(name)
	for _, hint := range quantityHints {
		if hint.pattern.MatchString(lowered) {
			return hint.quantity
		}
	}
	return ""
}
