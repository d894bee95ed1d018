package pricing

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockQuoteSource struct {
	prices    []FeedPrice
	lookupErr error
	calls     int
}

func (m *mockQuoteSource) Lookup(ctx context.Context, product, qty, category string) ([]FeedPrice, error) {
	m.calls++
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.prices, nil
}

var _ = Describe("Comparer", func() {
	var (
		clock    *fakeClock
		source   *mockQuoteSource
		comparer *Comparer
		quotes   []Quote
	)

	BeforeEach(func() {
		clock = &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
		source = &mockQuoteSource{}
	})

	JustBeforeEach(func() {
		estimator := NewEstimator(rand.New(rand.NewSource(7)), AffiliateTags{})
		comparer = NewComparer(estimator, NewCache(time.Hour, clock), source)
		quotes = comparer.Quotes(context.Background(), "Milk", 60.0, "1 l", "Dairy")
	})

	It("should return ascending quotes for every platform", func() {
		Expect(quotes).To(HaveLen(9))
		sorted := sort.SliceIsSorted(quotes, func(i, j int) bool {
			return quotes[i].Price < quotes[j].Price
		})
		Expect(sorted).To(BeTrue())
	})

	It("should serve repeat lookups from the cache", func() {
		again := comparer.Quotes(context.Background(), "Milk", 60.0, "1 l", "Dairy")
		Expect(again).To(Equal(quotes))
		Expect(source.calls).To(Equal(1))
	})

	When("the feed has live prices", func() {
		BeforeEach(func() {
			source.prices = []FeedPrice{
				{Platform: "Zepto", Price: 42.0, URL: "https://example.com/z"},
			}
		})

		It("should override the matching quote", func() {
			var zepto Quote
			for _, q := range quotes {
				if q.Platform == "Zepto" {
					zepto = q
				}
			}
			Expect(zepto.Price).To(Equal(42.0))
			Expect(zepto.Savings).To(Equal(18.0))
			Expect(zepto.URL).To(Equal("https://example.com/z"))
		})

		It("should keep the ascending order", func() {
			sorted := sort.SliceIsSorted(quotes, func(i, j int) bool {
				return quotes[i].Price < quotes[j].Price
			})
			Expect(sorted).To(BeTrue())
		})
	})

	When("the feed fails", func() {
		BeforeEach(func() {
			source.lookupErr = errors.New("connection refused")
		})

		It("should fall back to estimated quotes", func() {
			Expect(quotes).To(HaveLen(9))
			for _, q := range quotes {
				Expect(q.Price).To(BeNumerically(">", 0))
			}
		})
	})
})

var _ = Describe("applyFeed", func() {
	var (
		estimated []Quote
		live      []FeedPrice
		merged    []Quote
	)

	BeforeEach(func() {
		estimated = []Quote{
			{Platform: "Amazon", Price: 50.0, URL: "https://amazon.example", Savings: 10.0},
			{Platform: "Zepto", Price: 55.0, URL: "https://zepto.example", Savings: 5.0},
		}
	})

	JustBeforeEach(func() {
		merged = applyFeed(estimated, live, 60.0)
	})

	When("a live price undercuts an estimate", func() {
		BeforeEach(func() {
			live = []FeedPrice{{Platform: "Zepto", Price: 40.0, URL: "https://live.example"}}
		})

		It("should take the live price and recompute savings", func() {
			Expect(merged[0].Platform).To(Equal("Zepto"))
			Expect(merged[0].Price).To(Equal(40.0))
			Expect(merged[0].Savings).To(Equal(20.0))
			Expect(merged[0].URL).To(Equal("https://live.example"))
		})

		It("should not modify the input slice", func() {
			Expect(estimated[1].Price).To(Equal(55.0))
		})
	})

	When("a live price is zero", func() {
		BeforeEach(func() {
			live = []FeedPrice{{Platform: "Zepto", Price: 0}}
		})

		It("should keep the estimate", func() {
			Expect(merged[1].Platform).To(Equal("Zepto"))
			Expect(merged[1].Price).To(Equal(55.0))
		})
	})

	When("a live platform is unknown", func() {
		BeforeEach(func() {
			live = []FeedPrice{{Platform: "CornerShop", Price: 10.0}}
		})

		It("should ignore it", func() {
			Expect(merged).To(Equal(estimated))
		})
	})

	When("the live offer has no URL", func() {
		BeforeEach(func() {
			live = []FeedPrice{{Platform: "Amazon", Price: 45.0}}
		})

		It("should keep the estimated link", func() {
			Expect(merged[0].URL).To(Equal("https://amazon.example"))
		})
	})
})
