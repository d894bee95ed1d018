package bill

import (
	"bytes"
	"errors"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/bill-scanner/internal/categorize"
)

var _ = Describe("ExportBills", func() {
	var (
		db       *mockDB
		service  *Service
		workbook []byte
		err      error
	)

	BeforeEach(func() {
		db = newMockDB()
		rng := rand.New(rand.NewSource(1))
		service = NewServiceWithDeps(db, newMockStorage(), &mockExtractor{}, &mockCategorizer{}, &mockSuggester{}, newMockQuoteProvider(), rng, "", &mockIDGenerator{id: "x"}, &mockTimeSource{now: time.Now()})
	})

	JustBeforeEach(func() {
		workbook, err = service.ExportBills("user-1")
	})

	When("the user has bills", func() {
		BeforeEach(func() {
			db.bills["b1"] = &Bill{
				ID: "b1", UserID: "user-1", TotalAmount: 100, Status: "completed",
				UploadDate: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "Milk", Quantity: "1 l", Price: 60, Category: "Dairy"},
					{Name: "Bread", Quantity: "1", Price: 40, Category: "Bakery"},
				},
			}
			db.bills["b2"] = &Bill{
				ID: "b2", UserID: "user-1", TotalAmount: 80, Status: "completed",
				UploadDate: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
				Items: []categorize.CategorizedItem{
					{Name: "Eggs", Quantity: "12", Price: 80, Category: "Dairy"},
				},
			}
			db.bills["foreign"] = &Bill{
				ID: "foreign", UserID: "someone-else", TotalAmount: 9999,
				UploadDate: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
			}
		})

		It("writes one row per item under a header, newest bill first", func() {
			Expect(err).NotTo(HaveOccurred())
			f, openErr := excelize.OpenReader(bytes.NewReader(workbook))
			Expect(openErr).NotTo(HaveOccurred())
			defer f.Close()

			rows, rowsErr := f.GetRows(exportSheet)
			Expect(rowsErr).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(4))
			Expect(rows[0]).To(Equal([]string{"Bill ID", "Upload Date", "Item", "Category", "Quantity", "Price", "Bill Total", "Status"}))
			Expect(rows[1]).To(Equal([]string{"b2", "2024-06-10 09:00", "Eggs", "Dairy", "12", "80", "80", "completed"}))
			Expect(rows[2]).To(Equal([]string{"b1", "2024-06-01 10:30", "Milk", "Dairy", "1 l", "60", "100", "completed"}))
			Expect(rows[3]).To(Equal([]string{"b1", "2024-06-01 10:30", "Bread", "Bakery", "1", "40", "100", "completed"}))
		})

		It("leaves the default sheet out of the workbook", func() {
			f, openErr := excelize.OpenReader(bytes.NewReader(workbook))
			Expect(openErr).NotTo(HaveOccurred())
			defer f.Close()
			Expect(f.GetSheetList()).To(Equal([]string{exportSheet}))
		})
	})

	When("a bill has no items", func() {
		BeforeEach(func() {
			db.bills["b1"] = &Bill{
				ID: "b1", UserID: "user-1", TotalAmount: 250, Status: "completed",
				UploadDate: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
			}
		})

		It("still writes a row for the bill", func() {
			Expect(err).NotTo(HaveOccurred())
			f, openErr := excelize.OpenReader(bytes.NewReader(workbook))
			Expect(openErr).NotTo(HaveOccurred())
			defer f.Close()

			rows, rowsErr := f.GetRows(exportSheet)
			Expect(rowsErr).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[1]).To(Equal([]string{"b1", "2024-06-01 10:30", "", "", "", "", "250", "completed"}))
		})
	})

	When("the user has no bills", func() {
		It("returns a workbook with just the header", func() {
			Expect(err).NotTo(HaveOccurred())
			f, openErr := excelize.OpenReader(bytes.NewReader(workbook))
			Expect(openErr).NotTo(HaveOccurred())
			defer f.Close()

			rows, rowsErr := f.GetRows(exportSheet)
			Expect(rowsErr).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})
	})

	When("the database fails", func() {
		BeforeEach(func() {
			db.listErr = errors.New("db error")
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("listing bills")))
			Expect(workbook).To(BeNil())
		})
	})
})
