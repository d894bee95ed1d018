package pricing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

var _ = Describe("Cache", func() {
	var (
		clock  *fakeClock
		cache  *Cache
		quotes []Quote
	)

	BeforeEach(func() {
		clock = &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
		cache = NewCache(time.Hour, clock)
		quotes = []Quote{{Platform: "Zepto", Price: 58.0}}
		cache.Put("Milk", "1 l", quotes)
	})

	It("should return stored quotes before the TTL expires", func() {
		clock.now = clock.now.Add(59 * time.Minute)
		got, ok := cache.Get("Milk", "1 l")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(quotes))
	})

	It("should ignore case and padding in the item name", func() {
		got, ok := cache.Get("  milk ", "1 l")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(quotes))
	})

	It("should distinguish quantities", func() {
		_, ok := cache.Get("Milk", "500 ml")
		Expect(ok).To(BeFalse())
	})

	It("should miss for unknown items", func() {
		_, ok := cache.Get("Bread", "1")
		Expect(ok).To(BeFalse())
	})

	It("should evict an entry once its TTL elapses", func() {
		clock.now = clock.now.Add(time.Hour)
		_, ok := cache.Get("Milk", "1 l")
		Expect(ok).To(BeFalse())
	})

	It("should accept a fresh entry after eviction", func() {
		clock.now = clock.now.Add(2 * time.Hour)
		_, _ = cache.Get("Milk", "1 l")

		cache.Put("Milk", "1 l", quotes)
		got, ok := cache.Get("Milk", "1 l")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(quotes))
	})
})
