// Package colour provides dominant colour extraction and presentation helpers.
package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
)

// RGB represents an opaque colour with 8-bit channels.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// WithAlpha returns the translucent form of the colour.
func (rgb RGB) WithAlpha(a float64) RGBA {
	return RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: a}
}

// RGBA is an RGB colour with a fractional alpha in [0, 1].
type RGBA struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

// String returns the colour as "rgba(r, g, b, a)".
func (c RGBA) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// ToRGB converts a color.Color to RGB, discarding alpha.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// RGBToColor converts an RGB value to an opaque color.Color.
func RGBToColor(rgb RGB) color.Color {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// Palette is an ordered set of colours with optional relative weights.
type Palette struct {
	Colours []RGB
	Weights []float64 // index aligned with Colours, sums to 1 when set
}

// NewPalette creates a new Palette with the given colours.
func NewPalette(colours []RGB) *Palette {
	return &Palette{Colours: colours}
}

// NewPaletteWithWeights creates a palette whose colours carry weights.
func NewPaletteWithWeights(colours []RGB, weights []float64) *Palette {
	return &Palette{Colours: colours, Weights: weights}
}

// Len returns the number of colours in the palette.
func (p *Palette) Len() int {
	return len(p.Colours)
}

// Weight returns the weight of the colour at index i, or 0 when the palette is unweighted.
func (p *Palette) Weight(i int) float64 {
	if i < 0 || i >= len(p.Weights) {
		return 0
	}
	return p.Weights[i]
}

// ColourJSON represents a colour in JSON output format.
type ColourJSON struct {
	Hex    string  `json:"hex"`
	RGB    string  `json:"rgb"`
	Weight float64 `json:"weight,omitempty"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Count   int          `json:"count"`
	Colours []ColourJSON `json:"colours"`
}

// JSON returns the serialisable form of the palette.
func (p *Palette) JSON() PaletteJSON {
	colours := make([]ColourJSON, len(p.Colours))
	for i, c := range p.Colours {
		colours[i] = ColourJSON{
			Hex:    c.Hex(),
			RGB:    c.String(),
			Weight: p.Weight(i),
		}
	}
	return PaletteJSON{Count: len(p.Colours), Colours: colours}
}

// ToJSON converts the palette to indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p.JSON(), "", "  ")
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Colours) == 0 {
		return "Empty palette"
	}

	result := fmt.Sprintf("Palette with %d colours:\n", len(p.Colours))
	for i, c := range p.Colours {
		result += fmt.Sprintf("  %2d: %s (%s) %5.1f%%\n", i+1, c.Hex(), c.String(), p.Weight(i)*100)
	}
	return result
}
