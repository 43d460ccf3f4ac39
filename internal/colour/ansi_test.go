package colour

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColourPreview(t *testing.T) {
	out := ColourPreview(RGB{R: 1, G: 2, B: 3}, 4)

	assert.True(t, strings.HasPrefix(out, "\033[48;2;1;2;3m"))
	assert.True(t, strings.HasSuffix(out, "    "+ansiReset))
	assert.Contains(t, ColourPreview(RGB{}, 0), strings.Repeat(" ", defaultWidth))
}

func TestColourPreviewWithText(t *testing.T) {
	out := ColourPreviewWithText(RGB{}, RGB{R: 255, G: 255, B: 255}, "Aa", 6)
	assert.Contains(t, out, "\033[38;2;255;255;255m")
	assert.Contains(t, out, "  Aa  ")

	truncated := ColourPreviewWithText(RGB{}, RGB{}, "abcdef", 3)
	assert.Contains(t, truncated, "abc"+ansiReset)
}

func TestFormatPresentationPreview(t *testing.T) {
	p := Derive(RGB{R: 10, G: 20, B: 30}, DefaultSettings())
	assert.Contains(t, FormatPresentationPreview(p, 6), "\033[38;2;255;255;255m")

	// Without a text colour the preview falls back on luma.
	s := DefaultSettings()
	s.NormalizeTextColour = false
	light := Derive(RGB{R: 240, G: 240, B: 240}, s)
	assert.Contains(t, FormatPresentationPreview(light, 6), "\033[38;2;0;0;0m")
}

func TestSupportsANSIColours(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, SupportsANSIColours(os.Stdout))

	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "dumb")
	assert.False(t, SupportsANSIColours(os.Stdout))

	f, err := os.CreateTemp(t.TempDir(), "out")
	if assert.NoError(t, err) {
		defer f.Close()
		t.Setenv("TERM", "xterm-256color")
		assert.False(t, SupportsANSIColours(f), "regular files are not terminals")
	}
}
