package seed

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int, shift uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x) + shift, G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestCalculate(t *testing.T) {
	img := gradient(16, 16, 0)
	manual := int64(42)

	tests := []struct {
		name      string
		cfg       Config
		img       image.Image
		source    string
		wantFixed bool
		wantErr   bool
	}{
		{name: "content", cfg: Config{Mode: ModeContent}, img: img, wantFixed: true},
		{name: "content without image", cfg: Config{Mode: ModeContent}, wantErr: true},
		{name: "filepath", cfg: Config{Mode: ModeFilepath}, source: "a.png", wantFixed: true},
		{name: "filepath without source", cfg: Config{Mode: ModeFilepath}, wantErr: true},
		{name: "manual", cfg: Config{Mode: ModeManual, Value: &manual}, wantFixed: true},
		{name: "manual without value", cfg: Config{Mode: ModeManual}, wantErr: true},
		{name: "random", cfg: Config{Mode: ModeRandom}},
		{name: "unknown", cfg: Config{Mode: "dice"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, fixed, err := Calculate(tt.img, tt.source, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFixed, fixed)

			if tt.wantFixed {
				again, _, err := Calculate(tt.img, tt.source, tt.cfg)
				require.NoError(t, err)
				assert.Equal(t, v, again)
			}
		})
	}

	v, _, err := Calculate(nil, "", Config{Mode: ModeManual, Value: &manual})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestContentSeed(t *testing.T) {
	a := ContentSeed(gradient(20, 10, 0))
	assert.Equal(t, a, ContentSeed(gradient(20, 10, 0)))
	assert.NotEqual(t, a, ContentSeed(gradient(20, 10, 1)), "pixel changes alter the seed")
	assert.NotEqual(t, a, ContentSeed(gradient(10, 20, 0)), "dimensions alter the seed")

	large := gradient(450, 300, 0)
	assert.Equal(t, ContentSeed(large), ContentSeed(large))
}

func TestFilepathSeed(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, FilepathSeed("a.png"), FilepathSeed(filepath.Join(wd, "a.png")), "relative paths resolve")
	assert.NotEqual(t, FilepathSeed("a.png"), FilepathSeed("b.png"))
	assert.Equal(t, FilepathSeed("https://example.com/a.png"), FilepathSeed("https://example.com/a.png"))
}

func TestParseMode(t *testing.T) {
	for _, m := range ValidModes() {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMode("Content")
	assert.Error(t, err)
}
