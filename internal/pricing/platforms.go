package pricing

import (
	"regexp"
	"strconv"
	"strings"
)

// Quote is one platform's offer for a bill item.
type Quote struct {
	Platform string  `json:"platform"`
	Price    float64 `json:"price"`
	URL      string  `json:"url"`
	Savings  float64 `json:"savings"`
}

// AffiliateTags holds the optional affiliate identifiers appended to
// platform search URLs. Empty fields leave the URLs untagged.
type AffiliateTags struct {
	Amazon   string
	Flipkart string
	Meesho   string
}

type platform struct {
	name     string
	delivery string
	buildURL func(query string, tags AffiliateTags) string
}

// platformDirectory lists the supported shopping platforms in a fixed order.
// The query passed to buildURL is already URL-encoded.
var platformDirectory = []platform{
	{"Amazon", "Next Day", func(q string, t AffiliateTags) string {
		u := "https://www.amazon.in/s?k=" + q
		if t.Amazon != "" {
			u += "&tag=" + t.Amazon
		}
		return u
	}},
	{"Flipkart", "2-3 Days", func(q string, t AffiliateTags) string {
		u := "https://www.flipkart.com/search?q=" + q
		if t.Flipkart != "" {
			u += "&affid=" + t.Flipkart
		}
		return u
	}},
	{"Meesho", "3-5 Days", func(q string, t AffiliateTags) string {
		u := "https://www.meesho.com/search?q=" + q
		if t.Meesho != "" {
			u += "&aff_id=" + t.Meesho
		}
		return u
	}},
	{"BigBasket", "Same Day", func(q string, t AffiliateTags) string {
		return "https://www.bigbasket.com/ps/?q=" + q
	}},
	{"JioMart", "Next Day", func(q string, t AffiliateTags) string {
		return "https://www.jiomart.com/search/" + q
	}},
	{"Blinkit", "10-15 min", func(q string, t AffiliateTags) string {
		return "https://blinkit.com/search?q=" + q
	}},
	{"Zepto", "10 min", func(q string, t AffiliateTags) string {
		return "https://www.zepto.com/search?query=" + q
	}},
	{"Swiggy Instamart", "15-20 min", func(q string, t AffiliateTags) string {
		return "https://www.swiggy.com/instamart/search?query=" + q
	}},
	{"Dunzo", "20-30 min", func(q string, t AffiliateTags) string {
		return "https://www.dunzo.com/search/" + q
	}},
}

// quickCommerce marks the platforms with minute-level delivery, whose
// estimated prices skew above the rest.
var quickCommerce = map[string]bool{
	"Blinkit":          true,
	"Zepto":            true,
	"Swiggy Instamart": true,
	"Dunzo":            true,
}

// bulkDiscountPlatforms get an extra discount on kg/l quantities.
var bulkDiscountPlatforms = map[string]bool{
	"Amazon":    true,
	"Flipkart":  true,
	"BigBasket": true,
	"JioMart":   true,
}

// smallPackPlatforms get a small adjustment on g/ml quantities.
var smallPackPlatforms = map[string]bool{
	"Blinkit":          true,
	"Zepto":            true,
	"Swiggy Instamart": true,
}

// DeliveryTimes returns the delivery descriptor for every platform.
func DeliveryTimes() map[string]string {
	times := make(map[string]string, len(platformDirectory))
	for _, p := range platformDirectory {
		times[p.name] = p.delivery
	}
	return times
}

var noiseWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true,
	"for": true, "with": true, "and": true, "&": true,
}

var (
	punctPattern      = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SearchQuery builds the search phrase used in platform deep links. Noise
// words and punctuation are stripped from the name, then a quantity
// qualifier is appended depending on the unit class: bulk units always carry
// their magnitude, small units only when a magnitude is present, piece
// counts turn into "dozen"/"pack" past fixed thresholds, and packaging
// units append the packaging word. The caller URL-encodes the result.
func SearchQuery(name, qty, unit string) string {
	base := strings.TrimSpace(name)
	words := strings.Fields(base)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !noiseWords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	if len(kept) > 0 {
		base = strings.Join(kept, " ")
	}
	base = punctPattern.ReplaceAllString(base, "")
	base = strings.TrimSpace(whitespacePattern.ReplaceAllString(base, " "))

	fields := strings.Fields(qty)
	switch unit {
	case "kg", "l":
		num := "1"
		if len(fields) > 0 {
			num = fields[0]
		}
		return strings.TrimSpace(base + " " + num + unit)
	case "g", "ml":
		if len(fields) > 0 {
			return strings.TrimSpace(base + " " + fields[0] + unit)
		}
	case "pcs", "pc":
		count := 1.0
		if len(fields) > 0 {
			v, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return base
			}
			count = v
		}
		if count >= 12 {
			return strings.TrimSpace(base + " dozen")
		}
		if count >= 6 {
			return strings.TrimSpace(base + " pack")
		}
	case "pack", "packet", "box", "bottle":
		return strings.TrimSpace(base + " " + unit)
	}
	return base
}
