// Package seed derives the random seed used for k-means centroid seeding, so
// repeated extractions of the same source can be made reproducible.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Mode determines how the seed is generated.
type Mode string

const (
	// ModeContent hashes the image pixels (default; same content, same colour).
	ModeContent Mode = "content"
	// ModeFilepath hashes the absolute path or URL.
	ModeFilepath Mode = "filepath"
	// ModeManual uses a caller-provided value.
	ModeManual Mode = "manual"
	// ModeRandom varies every run.
	ModeRandom Mode = "random"
)

// Config holds configuration for seed generation.
type Config struct {
	Mode  Mode
	Value *int64 // only used by ModeManual
}

// Calculate returns the seed for img loaded from source. The boolean is false
// for ModeRandom, meaning the caller should leave seeding non-deterministic.
func Calculate(img image.Image, source string, cfg Config) (int64, bool, error) {
	switch cfg.Mode {
	case ModeContent:
		if img == nil {
			return 0, false, fmt.Errorf("image is required for content-based seed mode")
		}
		return ContentSeed(img), true, nil
	case ModeFilepath:
		if source == "" {
			return 0, false, fmt.Errorf("image path is required for filepath-based seed mode")
		}
		return FilepathSeed(source), true, nil
	case ModeManual:
		if cfg.Value == nil {
			return 0, false, fmt.Errorf("seed value is required for manual seed mode")
		}
		return *cfg.Value, true, nil
	case ModeRandom:
		return time.Now().UnixNano(), false, nil
	default:
		return 0, false, fmt.Errorf("unknown seed mode: %s", cfg.Mode)
	}
}

// ContentSeed hashes the image dimensions and a grid of its pixels.
func ContentSeed(img image.Image) int64 {
	bounds := img.Bounds()
	hasher := sha256.New()

	dim := make([]byte, 8)
	binary.LittleEndian.PutUint32(dim[0:4], uint32(bounds.Dx())) // #nosec G115 -- image dimensions are non-negative
	binary.LittleEndian.PutUint32(dim[4:8], uint32(bounds.Dy())) // #nosec G115 -- image dimensions are non-negative
	hasher.Write(dim)

	step := max(bounds.Dx()/100, bounds.Dy()/100, 1)
	px := make([]byte, 4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			px[0], px[1], px[2], px[3] = byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8)
			hasher.Write(px)
		}
	}

	return int64(binary.LittleEndian.Uint64(hasher.Sum(nil)[:8])) // #nosec G115 -- hash bits reinterpreted
}

// FilepathSeed hashes the absolute form of a local path, or a URL verbatim.
func FilepathSeed(source string) int64 {
	key := source
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if abs, err := filepath.Abs(source); err == nil {
			key = abs
		}
	}
	sum := sha256.Sum256([]byte(key))
	return int64(binary.LittleEndian.Uint64(sum[:8])) // #nosec G115 -- hash bits reinterpreted
}

// ValidModes returns a list of valid seed modes.
func ValidModes() []Mode {
	return []Mode{ModeContent, ModeFilepath, ModeManual, ModeRandom}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: content, filepath, manual, random)", s)
}
