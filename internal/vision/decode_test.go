package vision

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Decode", func() {
	var (
		data        []byte
		contentType string
		img         image.Image
		err         error
	)

	JustBeforeEach(func() {
		img, err = Decode(data, contentType)
	})

	When("the data is a PNG", func() {
		BeforeEach(func() {
			var buf bytes.Buffer
			encodeErr := png.Encode(&buf, whiteCanvas(10, 10))
			Expect(encodeErr).NotTo(HaveOccurred())
			data = buf.Bytes()
			contentType = "image/png"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should decode the image", func() {
			Expect(img.Bounds().Dx()).To(Equal(10))
			Expect(img.Bounds().Dy()).To(Equal(10))
		})
	})

	When("the data is a JPEG", func() {
		BeforeEach(func() {
			var buf bytes.Buffer
			encodeErr := jpeg.Encode(&buf, whiteCanvas(12, 8), nil)
			Expect(encodeErr).NotTo(HaveOccurred())
			data = buf.Bytes()
			contentType = "image/jpeg"
		})

		It("should decode the image", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(12))
		})
	})

	When("the content type does not match the data", func() {
		BeforeEach(func() {
			var buf bytes.Buffer
			encodeErr := png.Encode(&buf, whiteCanvas(10, 10))
			Expect(encodeErr).NotTo(HaveOccurred())
			data = buf.Bytes()
			contentType = "image/jpeg"
		})

		It("should sniff the format from the data", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(img).NotTo(BeNil())
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			data = []byte("not an image at all")
			contentType = "image/png"
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported image format"))
		})
	})

	When("the content type claims HEIC but the data is garbage", func() {
		BeforeEach(func() {
			data = []byte("definitely not heic data")
			contentType = "image/heic"
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("decoding HEIC/HEIF image"))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("should detect the ftyp box brands", func() {
		header := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
		header = append(header, make([]byte, 8)...)
		Expect(isHEICFormat(header)).To(BeTrue())
	})

	It("should reject short data", func() {
		Expect(isHEICFormat([]byte("tiny"))).To(BeFalse())
	})

	It("should reject other containers", func() {
		header := append([]byte{0, 0, 0, 24}, []byte("ftypmp42")...)
		header = append(header, make([]byte, 8)...)
		Expect(isHEICFormat(header)).To(BeFalse())
	})
})
