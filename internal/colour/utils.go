package colour

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// LumaThreshold splits light from dark on the YIQ luma scale.
const LumaThreshold = 128.0

// ErrInvalidColour is returned when a colour string cannot be parsed or holds
// components outside 0-255.
var ErrInvalidColour = errors.New("invalid colour")

// SquaredDistance returns the squared Euclidean distance between two colours.
// Only useful for ordering; no square root is taken.
func SquaredDistance(a, b RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(c RGB) float64 {
	r := gammaCorrect(float64(c.R) / 255.0)
	g := gammaCorrect(float64(c.G) / 255.0)
	b := gammaCorrect(float64(c.B) / 255.0)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// gammaCorrect applies gamma correction to a colour component.
func gammaCorrect(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio calculates the contrast ratio between two colours according to WCAG 2.0.
// Returns a value between 1 and 21, where 21 is maximum contrast (black vs white).
func ContrastRatio(c1, c2 RGB) float64 {
	l1 := Luminance(c1)
	l2 := Luminance(c2)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// PerceptualLuma returns the YIQ luma of a colour on the 0-255 scale,
// computed on the non-linear channel values.
func PerceptualLuma(c RGB) float64 {
	return float64(int(c.R)*299+int(c.G)*587+int(c.B)*114) / 1000
}

// IsLight reports whether the colour sits above the luma threshold.
func IsLight(c RGB) bool {
	return PerceptualLuma(c) > LumaThreshold
}

// Shade moves every channel towards white (percent > 0) or black (percent < 0)
// by |percent| of the remaining distance.
func Shade(c RGB, percent float64) RGB {
	target := 255.0
	if percent < 0 {
		target = 0
		percent = -percent
	}
	shade := func(v uint8) uint8 {
		return clampChannel(roundHalfUp((target-float64(v))*percent) + float64(v))
	}
	return RGB{R: shade(c.R), G: shade(c.G), B: shade(c.B)}
}

// Blend linearly interpolates from a towards b by percent.
func Blend(a, b RGB, percent float64) RGB {
	mix := func(x, y uint8) uint8 {
		return clampChannel(roundHalfUp((float64(y)-float64(x))*percent + float64(x)))
	}
	return RGB{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// roundHalfUp rounds to the nearest integer with halves going towards +Inf,
// so -2.5 becomes -2.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

var functionalColour = regexp.MustCompile(`^rgba?\(\s*([^)]*)\)$`)

// ParseColour parses "rgb(r, g, b)", "rgba(r, g, b, a)" or a "#rgb"/"#rrggbb"
// hex string. Alpha is dropped.
func ParseColour(s string) (RGB, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q: %v", ErrInvalidColour, s, err)
		}
		r, g, b := c.RGB255()
		return RGB{R: r, G: g, B: b}, nil
	}

	m := functionalColour.FindStringSubmatch(s)
	if m == nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColour, s)
	}
	parts := strings.Split(m[1], ",")
	want := 3
	if strings.HasPrefix(s, "rgba") {
		want = 4
	}
	if len(parts) != want {
		return RGB{}, fmt.Errorf("%w: %q has %d components", ErrInvalidColour, s, len(parts))
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("%w: component %q out of range", ErrInvalidColour, strings.TrimSpace(parts[i]))
		}
		ch[i] = uint8(v)
	}
	if want == 4 {
		alpha := strings.TrimSpace(parts[3])
		a, err := strconv.ParseFloat(alpha, 64)
		if err != nil || math.IsNaN(a) || a < 0 || a > 1 {
			return RGB{}, fmt.Errorf("%w: alpha %q out of range", ErrInvalidColour, alpha)
		}
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// MustParseColour is ParseColour for compile-time constants; it panics on error.
func MustParseColour(s string) RGB {
	c, err := ParseColour(s)
	if err != nil {
		panic(err)
	}
	return c
}
