package pricing

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Feed", func() {
	var (
		server *ghttp.Server
		feed   *Feed
		prices []FeedPrice
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		feed = NewFeed(server.URL(), 2*time.Second)
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		prices, err = feed.Lookup(context.Background(), "Milk", "1 l", "Dairy")
	})

	When("the feed answers with prices", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/prices"),
				ghttp.VerifyJSONRepresenting(feedRequest{
					Product:  "Milk",
					Quantity: "1 l",
					Category: "Dairy",
				}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, feedResponse{
					Prices: []FeedPrice{
						{Platform: "Zepto", Price: 55.0, URL: "https://example.com/milk"},
					},
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the decoded prices", func() {
			Expect(prices).To(HaveLen(1))
			Expect(prices[0].Platform).To(Equal("Zepto"))
			Expect(prices[0].Price).To(Equal(55.0))
			Expect(prices[0].URL).To(Equal("https://example.com/milk"))
		})
	})

	When("the feed answers with an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "upstream down"))
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 500"))
			Expect(err.Error()).To(ContainSubstring("upstream down"))
		})
	})

	When("the feed answers with malformed JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "not json"))
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("decoding response"))
		})
	})
})
