package ocr

import (
	"context"
	"image"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/zombor/bill-scanner/internal/vision"
)

// Extractor runs the recognition engine over every image variant and merges
// the results into deduplicated lines in reading order.
type Extractor struct {
	engine Engine
}

// NewExtractor creates an extractor backed by the given engine.
func NewExtractor(engine Engine) *Extractor {
	return &Extractor{engine: engine}
}

// Extract recognizes text across all variants concurrently. A failed pass
// is logged and skipped rather than failing the whole extraction. The
// merged detections are deduplicated and sorted top-to-bottom then
// left-to-right.
func (e *Extractor) Extract(ctx context.Context, variants []vision.Variant) ([]Detection, error) {
	results := make([][]Detection, len(variants))

	var wg sync.WaitGroup
	for i, v := range variants {
		wg.Add(1)
		go func(i int, v vision.Variant) {
			defer wg.Done()
			detections, err := e.engine.Recognize(ctx, v.Image)
			if err != nil {
				slog.Warn("Recognition pass failed", "variant", v.Name, "error", err)
				return
			}
			slog.Info("Recognition pass complete", "variant", v.Name, "detections", len(detections))
			results[i] = detections
		}(i, v)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Detection
	for _, r := range results {
		all = append(all, r...)
	}

	deduped := Dedup(all)
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Box.Min.Y != deduped[j].Box.Min.Y {
			return deduped[i].Box.Min.Y < deduped[j].Box.Min.Y
		}
		return deduped[i].Box.Min.X < deduped[j].Box.Min.X
	})
	return deduped, nil
}

// Dedup collapses near-identical detections produced by the separate
// passes. Detections with empty text or confidence below 0.25 are dropped.
// Two detections are duplicates when their box centers lie within 20 pixels
// on both axes and one's lowercased text equals or contains the other's;
// the higher-confidence duplicate wins, replacing the loser in place.
func Dedup(detections []Detection) []Detection {
	unique := make([]Detection, 0, len(detections))
	for _, d := range detections {
		text := strings.ToLower(strings.TrimSpace(d.Text))
		if text == "" || d.Confidence < 0.25 {
			continue
		}

		cx, cy := boxCenter(d.Box)
		duplicate := false
		for i, prev := range unique {
			px, py := boxCenter(prev.Box)
			prevText := strings.ToLower(strings.TrimSpace(prev.Text))
			if math.Abs(cy-py) < 20 && math.Abs(cx-px) < 20 &&
				(text == prevText || strings.Contains(prevText, text) || strings.Contains(text, prevText)) {
				duplicate = true
				if d.Confidence > prev.Confidence {
					unique[i] = d
				}
				break
			}
		}
		if !duplicate {
			unique = append(unique, d)
		}
	}
	return unique
}

func boxCenter(r image.Rectangle) (float64, float64) {
	return float64(r.Min.X+r.Max.X) / 2, float64(r.Min.Y+r.Max.Y) / 2
}
