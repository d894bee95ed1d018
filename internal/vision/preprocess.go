package vision

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Variant is one preprocessed rendition of the bill image, fed to its own
// recognition pass.
type Variant struct {
	Name  string
	Image *image.Gray
}

// Preprocess produces the recognition variants for a decoded bill image.
// The grayscale baseline is deskewed when the text angle is significant,
// then denoised, contrast-enhanced, binarized two ways, morphologically
// cleaned and sharpened. The variants are used independently downstream.
func Preprocess(src image.Image) []Variant {
	gray := toGray(src)

	// Skip rotation for negligible angles, interpolation only costs quality
	if angle := estimateSkew(gray); math.Abs(angle) > 0.5 {
		gray = toGray(imaging.Rotate(gray, -angle, color.White))
	}

	denoised := toGray(effect.Median(gray, 3.0))
	enhanced := clahe(denoised, 2.0, 8)
	adaptive := adaptiveThreshold(enhanced, 5.0, 2)
	global := segment.Threshold(enhanced, otsuLevel(enhanced))
	morphed := closeBinary(adaptive)
	sharpened := toGray(effect.UnsharpMask(enhanced, 1.0, 1.5))

	return []Variant{
		{Name: "gray", Image: gray},
		{Name: "denoised", Image: denoised},
		{Name: "enhanced", Image: enhanced},
		{Name: "adaptive-threshold", Image: adaptive},
		{Name: "global-threshold", Image: global},
		{Name: "morphed", Image: morphed},
		{Name: "sharpened", Image: sharpened},
	}
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray
}

// estimateSkew measures the dominant text angle in degrees from the second
// moments of the ink pixels, where ink is everything below the global Otsu
// level. Positive angles mean the text rises left to right. Angles steeper
// than 45° fold back toward the horizontal, and images with almost no ink
// report zero.
func estimateSkew(gray *image.Gray) float64 {
	level := otsuLevel(gray)
	bounds := gray.Bounds()

	var n int
	var sumX, sumY float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y < level {
				n++
				sumX += float64(x)
				sumY += float64(y)
			}
		}
	}
	if n < 64 {
		return 0
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, syy, sxy float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y < level {
				dx := float64(x) - meanX
				dy := float64(y) - meanY
				sxx += dx * dx
				syy += dy * dy
				sxy += dx * dy
			}
		}
	}

	// Principal axis of the ink distribution, negated because image y grows
	// downward while the reported angle follows the visual convention.
	angle := -0.5 * math.Atan2(2*sxy, sxx-syy) * 180 / math.Pi
	if angle > 45 {
		angle -= 90
	} else if angle < -45 {
		angle += 90
	}
	return angle
}

// otsuLevel picks the global binarization level maximizing between-class
// variance. The returned level sits just above the ink mode, so ink is
// strictly below it.
func otsuLevel(src *image.Gray) uint8 {
	bounds := src.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 128
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB, best float64
	var level int
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = t
		}
	}
	if level >= 255 {
		return 255
	}
	return uint8(level + 1)
}

// clahe applies contrast-limited adaptive histogram equalization over a
// square tile grid. Per-tile histograms are clipped at clipLimit times the
// uniform bin height before equalization, and pixel lookups interpolate
// between the four surrounding tile mappings to hide tile seams.
func clahe(src *image.Gray, clipLimit float64, tiles int) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < tiles || h < tiles {
		return src
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	luts := make([][][256]uint8, tiles)
	for ty := 0; ty < tiles; ty++ {
		luts[ty] = make([][256]uint8, tiles)
		for tx := 0; tx < tiles; tx++ {
			x0 := bounds.Min.X + tx*tileW
			y0 := bounds.Min.Y + ty*tileH
			x1 := min(x0+tileW, bounds.Max.X)
			y1 := min(y0+tileH, bounds.Max.Y)
			luts[ty][tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	out := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		gy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(gy))
		fy := gy - float64(ty0)
		ty1 := clampInt(ty0+1, 0, tiles-1)
		ty0 = clampInt(ty0, 0, tiles-1)

		for x := 0; x < w; x++ {
			gx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(gx))
			fx := gx - float64(tx0)
			tx1 := clampInt(tx0+1, 0, tiles-1)
			tx0 = clampInt(tx0, 0, tiles-1)

			v := src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			top := float64(luts[ty0][tx0][v])*(1-fx) + float64(luts[ty0][tx1][v])*fx
			bottom := float64(luts[ty1][tx0][v])*(1-fx) + float64(luts[ty1][tx1][v])*fx
			out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(top*(1-fy) + bottom*fy + 0.5)})
		}
	}
	return out
}

// tileLUT equalizes one tile's histogram with the clip limit applied and
// the clipped excess redistributed evenly across all bins.
func tileLUT(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var lut [256]uint8
	area := (x1 - x0) * (y1 - y0)
	if area == 0 {
		return lut
	}

	var hist [256]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	clip := int(clipLimit * float64(area) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i, c := range hist {
		if c > clip {
			excess += c - clip
			hist[i] = clip
		}
	}
	bonus := excess / 256
	for i := range hist {
		hist[i] += bonus
	}

	scale := 255.0 / float64(area)
	cum := 0
	for i, c := range hist {
		cum += c
		v := float64(cum) * scale
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}
	return lut
}

// adaptiveThreshold binarizes against a Gaussian-blurred local mean: pixels
// brighter than their neighborhood mean minus c become white, the rest
// black. Robust to uneven lighting across the page.
func adaptiveThreshold(src *image.Gray, radius float64, c int) *image.Gray {
	local := toGray(blur.Gaussian(src, radius))
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if int(src.GrayAt(x, y).Y) > int(local.GrayAt(x, y).Y)-c {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// closeBinary removes small dark specks and gaps from a binarized image, a
// 2x2 dilation followed by a 2x2 erosion.
func closeBinary(src *image.Gray) *image.Gray {
	return erode(dilate(src))
}

func dilate(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var v uint8
			for dy := 0; dy <= 1; dy++ {
				for dx := 0; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx >= bounds.Max.X || yy >= bounds.Max.Y {
						continue
					}
					if p := src.GrayAt(xx, yy).Y; p > v {
						v = p
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

func erode(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := uint8(255)
			for dy := 0; dy <= 1; dy++ {
				for dx := 0; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx >= bounds.Max.X || yy >= bounds.Max.Y {
						continue
					}
					if p := src.GrayAt(xx, yy).Y; p < v {
						v = p
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
