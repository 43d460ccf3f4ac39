package colour

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ShadeVariation selects how the dominant colour is pushed towards contrast.
type ShadeVariation string

const (
	// ShadeOff leaves the colour untouched.
	ShadeOff ShadeVariation = "off"
	// ShadeBoolean lightens dark colours and darkens light ones.
	ShadeBoolean ShadeVariation = "shade"
	// ShadeBlend blends towards the opposite shade reference colour.
	ShadeBlend ShadeVariation = "blend"
)

// ParseShadeVariation accepts "off"/"false"/"", "shade"/"true" and "blend".
func ParseShadeVariation(s string) (ShadeVariation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "false":
		return ShadeOff, nil
	case "shade", "true":
		return ShadeBoolean, nil
	case "blend":
		return ShadeBlend, nil
	default:
		return "", fmt.Errorf("invalid shade variation: %s (valid: off, shade, blend)", s)
	}
}

// LightDark pairs a value for light and dark backgrounds.
type LightDark[T any] struct {
	Light T `json:"light"`
	Dark  T `json:"dark"`
}

// Settings configures how an extracted colour is presented.
type Settings struct {
	// Ignore lists colours the frequency algorithm skips.
	Ignore []RGB
	// Scale is the sampling resolution factor in (0, 1].
	Scale float64

	ShadeVariation  ShadeVariation
	ShadePercentage float64
	ShadeColours    LightDark[RGB]

	NormalizeTextColour   bool
	NormalizedTextColours LightDark[string]

	LumaClasses LightDark[string]

	// Transparent renders the background as rgba when within [0.01, 0.99].
	Transparent *float64
}

// DefaultSettings returns the stock presentation settings.
func DefaultSettings() Settings {
	return Settings{
		Ignore:          []RGB{{R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 255}},
		Scale:           0.8,
		ShadeVariation:  ShadeOff,
		ShadePercentage: 0,
		ShadeColours: LightDark[RGB]{
			Light: RGB{R: 255, G: 255, B: 255},
			Dark:  RGB{R: 0, G: 0, B: 0},
		},
		NormalizeTextColour: true,
		NormalizedTextColours: LightDark[string]{
			Light: "#fff",
			Dark:  "#000",
		},
		LumaClasses: LightDark[string]{
			Light: "ab-light",
			Dark:  "ab-dark",
		},
	}
}

// Validate checks the settings for values that cannot be applied.
func (s Settings) Validate() error {
	switch s.ShadeVariation {
	case ShadeOff, ShadeBoolean, ShadeBlend:
	default:
		return fmt.Errorf("invalid shade variation: %s", s.ShadeVariation)
	}
	if s.ShadePercentage < -1 || s.ShadePercentage > 1 {
		return fmt.Errorf("shade percentage must be between -1 and 1, got %g", s.ShadePercentage)
	}
	return nil
}

// Presentation is the styling derived from a dominant colour.
type Presentation struct {
	// Colour is the dominant colour after shade or blend adjustment.
	Colour RGB `json:"-"`
	// Background is Colour rendered as rgb() or, when translucent, rgba().
	Background string `json:"background"`
	// TextColour is empty unless text normalisation is enabled.
	TextColour string `json:"textColour,omitempty"`
	// LumaClass is the light or dark class label.
	LumaClass string `json:"lumaClass"`
	// Luma is the YIQ luma of Colour.
	Luma float64 `json:"luma"`
}

// MarshalJSON adds the adjusted colour in rgb() form.
func (p Presentation) MarshalJSON() ([]byte, error) {
	type alias Presentation
	return json.Marshal(struct {
		Colour string `json:"colour"`
		alias
	}{Colour: p.Colour.String(), alias: alias(p)})
}

// Derive computes the presentation of c under s.
func Derive(c RGB, s Settings) Presentation {
	adjusted := AdjustShade(c, s)

	p := Presentation{
		Colour:     adjusted,
		Background: Background(adjusted, s.Transparent),
		LumaClass:  LumaClass(adjusted, s.LumaClasses),
		Luma:       PerceptualLuma(adjusted),
	}
	if s.NormalizeTextColour {
		p.TextColour = NormalizedTextColour(adjusted, s.NormalizedTextColours)
	}
	return p
}

// AdjustShade applies the configured shade variation to c.
func AdjustShade(c RGB, s Settings) RGB {
	luma := PerceptualLuma(c)
	switch s.ShadeVariation {
	case ShadeBoolean:
		if luma <= LumaThreshold {
			return Shade(c, s.ShadePercentage)
		}
		return Shade(c, -s.ShadePercentage)
	case ShadeBlend:
		if luma >= LumaThreshold {
			return Blend(c, s.ShadeColours.Dark, s.ShadePercentage)
		}
		return Blend(c, s.ShadeColours.Light, s.ShadePercentage)
	default:
		return c
	}
}

// Background renders c, translucent when alpha is set within [0.01, 0.99].
func Background(c RGB, alpha *float64) string {
	if alpha != nil && *alpha >= 0.01 && *alpha <= 0.99 {
		return c.WithAlpha(*alpha).String()
	}
	return c.String()
}

// NormalizedTextColour picks the dark text colour for backgrounds with luma
// >= 128 and the light one otherwise.
func NormalizedTextColour(c RGB, colours LightDark[string]) string {
	if PerceptualLuma(c) >= LumaThreshold {
		return colours.Dark
	}
	return colours.Light
}

// LumaClass labels colours with luma <= 128 dark. Note the boundary differs
// from NormalizedTextColour: luma 128 gets dark text and the dark class.
func LumaClass(c RGB, classes LightDark[string]) string {
	if PerceptualLuma(c) <= LumaThreshold {
		return classes.Dark
	}
	return classes.Light
}
