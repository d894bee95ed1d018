package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Detection is one recognized text line with its location and confidence.
// Confidence is normalized to 0-1.
type Detection struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Engine recognizes text in a single image.
type Engine interface {
	// Recognize returns the text lines found in the image
	Recognize(ctx context.Context, img image.Image) ([]Detection, error)
	// Close releases any resources held by the engine
	Close() error
}

// Tesseract recognizes text through the system Tesseract library at line
// granularity. Clients are created per call, so a single instance is safe
// for concurrent use.
type Tesseract struct {
	language string
}

// NewTesseract creates an engine for the given Tesseract language code.
// An empty language defaults to English.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}
}

// Recognize runs one Tesseract pass over the image.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("setting image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	detections := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		detections = append(detections, Detection{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Box:        box.Box,
		})
	}
	return detections, nil
}

// Close is a no-op, clients are per-call.
func (t *Tesseract) Close() error {
	return nil
}
