package image

import (
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

var (
	// ErrScaleOutOfRange flags a scale outside (0, 1], NaN included.
	ErrScaleOutOfRange = errors.New("scale out of range")
	// ErrZeroArea is returned when scaling would leave no pixels to sample.
	ErrZeroArea = errors.New("scaled image has zero area")
)

// ValidateScale reports whether scale lies in (0, 1]. Values above 1 are
// pointless and values at or below 0 sample nothing.
func ValidateScale(scale float64) error {
	switch {
	case math.IsNaN(scale):
		return fmt.Errorf("%w: scale is not a number", ErrScaleOutOfRange)
	case scale > 1:
		return fmt.Errorf("%w: %g is greater than 1, which is pointless", ErrScaleOutOfRange, scale)
	case scale <= 0:
		return fmt.Errorf("%w: %g is not above 0, which samples nothing", ErrScaleOutOfRange, scale)
	}
	return nil
}

// ClampScale caps scales above 1 at 1. Scales at or below 0 are returned
// unchanged so that Scale rejects them.
func ClampScale(scale float64) float64 {
	if scale > 1 {
		return 1
	}
	return scale
}

// ScaledSize returns the integer dimensions produced by scaling w×h.
func ScaledSize(w, h int, scale float64) (int, int) {
	return int(float64(w) * scale), int(float64(h) * scale)
}

// Scale resamples img by scale using bilinear filtering. A scale of exactly
// 1 returns img as-is. NaN is rejected with ErrScaleOutOfRange.
func Scale(img image.Image, scale float64) (image.Image, error) {
	if math.IsNaN(scale) {
		return nil, fmt.Errorf("%w: scale is not a number", ErrScaleOutOfRange)
	}
	bounds := img.Bounds()
	if scale == 1 {
		if bounds.Empty() {
			return nil, ErrZeroArea
		}
		return img, nil
	}

	w, h := ScaledSize(bounds.Dx(), bounds.Dy(), scale)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d at scale %g", ErrZeroArea, bounds.Dx(), bounds.Dy(), scale)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst, nil
}
