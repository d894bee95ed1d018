package pricing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SearchQuery", func() {
	var (
		name  string
		qty   string
		unit  string
		query string
	)

	JustBeforeEach(func() {
		query = SearchQuery(name, qty, unit)
	})

	When("the quantity is a bulk unit", func() {
		BeforeEach(func() {
			name = "Basmati Rice"
			qty = "5 kg"
			unit = "kg"
		})

		It("should append the magnitude and unit", func() {
			Expect(query).To(Equal("Basmati Rice 5kg"))
		})
	})

	When("a bulk quantity has no magnitude", func() {
		BeforeEach(func() {
			name = "Milk"
			qty = ""
			unit = "l"
		})

		It("should default the magnitude to one", func() {
			Expect(query).To(Equal("Milk 1l"))
		})
	})

	When("the quantity is a small unit", func() {
		BeforeEach(func() {
			name = "Green Tea"
			qty = "250 g"
			unit = "g"
		})

		It("should append the magnitude and unit", func() {
			Expect(query).To(Equal("Green Tea 250g"))
		})
	})

	When("a small quantity has no magnitude", func() {
		BeforeEach(func() {
			name = "Green Tea"
			qty = ""
			unit = "g"
		})

		It("should leave the name alone", func() {
			Expect(query).To(Equal("Green Tea"))
		})
	})

	When("the count reaches a dozen", func() {
		BeforeEach(func() {
			name = "Eggs"
			qty = "12 pc"
			unit = "pc"
		})

		It("should search for a dozen", func() {
			Expect(query).To(Equal("Eggs dozen"))
		})
	})

	When("the count reaches a pack", func() {
		BeforeEach(func() {
			name = "Eggs"
			qty = "6 pc"
			unit = "pc"
		})

		It("should search for a pack", func() {
			Expect(query).To(Equal("Eggs pack"))
		})
	})

	When("the count is small", func() {
		BeforeEach(func() {
			name = "Eggs"
			qty = "2 pc"
			unit = "pc"
		})

		It("should leave the name alone", func() {
			Expect(query).To(Equal("Eggs"))
		})
	})

	When("the count is unparseable", func() {
		BeforeEach(func() {
			name = "Eggs"
			qty = "some pc"
			unit = "pc"
		})

		It("should leave the name alone", func() {
			Expect(query).To(Equal("Eggs"))
		})
	})

	When("the unit is a packaging word", func() {
		BeforeEach(func() {
			name = "Corn Flakes"
			qty = "1 box"
			unit = "box"
		})

		It("should append the packaging word", func() {
			Expect(query).To(Equal("Corn Flakes box"))
		})
	})

	When("the name carries noise words and punctuation", func() {
		BeforeEach(func() {
			name = "Pack of Chips (Salted)"
			qty = "1 pack"
			unit = "pack"
		})

		It("should strip both before appending", func() {
			Expect(query).To(Equal("Pack Chips Salted pack"))
		})
	})
})

var _ = Describe("DeliveryTimes", func() {
	It("should expose a descriptor for every platform", func() {
		times := DeliveryTimes()
		Expect(times).To(HaveLen(9))
		Expect(times["Zepto"]).To(Equal("10 min"))
		Expect(times["Amazon"]).To(Equal("Next Day"))
		Expect(times["BigBasket"]).To(Equal("Same Day"))
	})
})
