package ocr

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// SaveOverlay writes a copy of the bill image with each detection outlined.
// Box color ramps from red at zero confidence to green at full confidence,
// for eyeballing recognition quality.
func SaveOverlay(img image.Image, detections []Detection, path string) error {
	overlay := imaging.Clone(img)
	for _, d := range detections {
		conf := d.Confidence
		if conf < 0 {
			conf = 0
		} else if conf > 1 {
			conf = 1
		}
		c := colorful.Hsv(120*conf, 1, 1)
		border := color.NRGBA{
			R: uint8(c.R*255 + 0.5),
			G: uint8(c.G*255 + 0.5),
			B: uint8(c.B*255 + 0.5),
			A: 255,
		}
		drawRect(overlay, d.Box, border)
	}
	return imaging.Save(overlay, path)
}

// drawRect outlines r on img, clipped to the image bounds.
func drawRect(img draw.Image, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}
