package bill

import (
	"errors"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/bill-scanner/internal/categorize"
)

var _ = Describe("GetInsights", func() {
	var (
		db       *mockDB
		timeSrc  *mockTimeSource
		service  *Service
		insights *Insights
		err      error
	)

	BeforeEach(func() {
		db = newMockDB()
		timeSrc = &mockTimeSource{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
		rng := rand.New(rand.NewSource(7))
		service = NewServiceWithDeps(db, newMockStorage(), &mockExtractor{}, &mockCategorizer{}, &mockSuggester{}, newMockQuoteProvider(), rng, "", &mockIDGenerator{id: "x"}, timeSrc)
	})

	JustBeforeEach(func() {
		insights, err = service.GetInsights("user-1")
	})

	When("the user has no bills", func() {
		It("returns zeroes, not an error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(insights.TotalSpending).To(BeZero())
			Expect(insights.CategoryBreakdown).NotTo(BeNil())
			Expect(insights.CategoryBreakdown).To(BeEmpty())
			Expect(insights.MonthlyTrend).To(BeEmpty())
			Expect(insights.TopCategories).To(BeEmpty())
		})
	})

	When("the user has bills", func() {
		BeforeEach(func() {
			db.bills["b1"] = &Bill{
				ID: "b1", UserID: "user-1", TotalAmount: 300,
				UploadDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "Milk", Price: 100, Category: "Dairy"},
					{Name: "Chips", Price: 200, Category: "Snacks"},
				},
			}
			db.bills["b2"] = &Bill{
				ID: "b2", UserID: "user-1", TotalAmount: 300,
				UploadDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "Milk", Price: 300, Category: "Dairy"},
				},
			}
			db.bills["foreign"] = &Bill{
				ID: "foreign", UserID: "someone-else", TotalAmount: 9999,
				UploadDate: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "TV", Price: 9999, Category: "Electronics"},
				},
			}
		})

		It("sums only the user's bills", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(insights.TotalSpending).To(Equal(600.0))
		})

		It("breaks spending down by category", func() {
			Expect(insights.CategoryBreakdown).To(Equal(map[string]float64{
				"Dairy":  400,
				"Snacks": 200,
			}))
		})

		It("ranks categories with percentages", func() {
			Expect(insights.TopCategories).To(Equal([]CategoryShare{
				{Category: "Dairy", Amount: 400, Percentage: 66.7},
				{Category: "Snacks", Amount: 200, Percentage: 33.3},
			}))
		})

		It("builds a six month trend, oldest first", func() {
			Expect(insights.MonthlyTrend).To(HaveLen(6))
			Expect(insights.MonthlyTrend[0].Month).To(Equal("Jan 2024"))
			Expect(insights.MonthlyTrend[5].Month).To(Equal("Jun 2024"))
		})

		It("keeps each trend point within the jitter window", func() {
			for _, point := range insights.MonthlyTrend {
				Expect(point.Spending).To(BeNumerically(">=", 600.0/6-500))
				Expect(point.Spending).To(BeNumerically("<=", 600.0/6+500))
			}
		})

		It("is deterministic for a fixed seed", func() {
			rng := rand.New(rand.NewSource(7))
			again := NewServiceWithDeps(db, newMockStorage(), &mockExtractor{}, &mockCategorizer{}, &mockSuggester{}, newMockQuoteProvider(), rng, "", &mockIDGenerator{id: "x"}, timeSrc)
			other, otherErr := again.GetInsights("user-1")
			Expect(otherErr).NotTo(HaveOccurred())
			Expect(other.MonthlyTrend).To(Equal(insights.MonthlyTrend))
		})
	})

	When("more than five categories have spending", func() {
		BeforeEach(func() {
			db.bills["b1"] = &Bill{
				ID: "b1", UserID: "user-1", TotalAmount: 2100,
				UploadDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "Paneer", Price: 600, Category: "Dairy"},
					{Name: "Chips", Price: 500, Category: "Snacks"},
					{Name: "Juice", Price: 400, Category: "Beverages"},
					{Name: "Detergent", Price: 300, Category: "Cleaning"},
					{Name: "Buns", Price: 200, Category: "Bakery"},
					{Name: "Batteries", Price: 100, Category: "Other"},
				},
			}
		})

		It("keeps only the top five", func() {
			Expect(insights.TopCategories).To(HaveLen(5))
			Expect(insights.TopCategories[0].Category).To(Equal("Dairy"))
			Expect(insights.TopCategories[4].Category).To(Equal("Bakery"))
		})
	})

	When("two categories tie on amount", func() {
		BeforeEach(func() {
			db.bills["b1"] = &Bill{
				ID: "b1", UserID: "user-1", TotalAmount: 400,
				UploadDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "Paneer", Price: 200, Category: "Dairy"},
					{Name: "Buns", Price: 200, Category: "Bakery"},
				},
			}
		})

		It("orders the tie by name", func() {
			Expect(insights.TopCategories[0].Category).To(Equal("Bakery"))
			Expect(insights.TopCategories[1].Category).To(Equal("Dairy"))
		})
	})

	When("an item has no category", func() {
		BeforeEach(func() {
			db.bills["b1"] = &Bill{
				ID: "b1", UserID: "user-1", TotalAmount: 50,
				UploadDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "Mystery", Price: 50},
				},
			}
		})

		It("buckets it under Other", func() {
			Expect(insights.CategoryBreakdown).To(HaveKeyWithValue("Other", 50.0))
		})
	})

	When("listing bills fails", func() {
		BeforeEach(func() {
			db.listErr = errors.New("db error")
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("listing bills")))
		})
	})
})
