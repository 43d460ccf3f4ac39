package colour

import (
	"fmt"
	"image"
	"slices"

	"github.com/hashicorp/go-hclog"
)

// FrequencyExtractor returns the most frequent exact colour, skipping any
// colour on the ignore list.
type FrequencyExtractor struct {
	ignore []RGB
	logger hclog.Logger
}

func newFrequencyExtractor(cfg ExtractorConfig, logger hclog.Logger) *FrequencyExtractor {
	return &FrequencyExtractor{ignore: cfg.Ignore, logger: logger.Named("frequency")}
}

// Extract extracts the dominant colour from an image.
func (e *FrequencyExtractor) Extract(img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	return e.ExtractPixels(SampleImage(img))
}

// ExtractPixels tallies pixels and returns the most frequent colour. Ties go
// to the colour seen first.
func (e *FrequencyExtractor) ExtractPixels(pixels []RGB) (*Result, error) {
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}

	counts := make(map[RGB]int)
	var order []RGB
	skipped := 0
	for _, p := range pixels {
		if slices.Contains(e.ignore, p) {
			skipped++
			continue
		}
		if counts[p] == 0 {
			order = append(order, p)
		}
		counts[p]++
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: all %d pixels are on the ignore list", ErrNoPixels, skipped)
	}

	// Stable sort keeps first-seen order among equal counts.
	slices.SortStableFunc(order, func(a, b RGB) int {
		return counts[b] - counts[a]
	})

	kept := len(pixels) - skipped
	weights := make([]float64, len(order))
	for i, c := range order {
		weights[i] = float64(counts[c]) / float64(kept)
	}

	e.logger.Debug("tallied colours", "pixels", len(pixels), "distinct", len(order), "ignored", skipped)
	return &Result{
		Colour:  order[0],
		Palette: NewPaletteWithWeights(order, weights),
		Sampled: kept,
	}, nil
}
