package colour

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func twoByTwo(pixels ...color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i, p := range pixels {
		img.SetNRGBA(i%2, i/2, p)
	}
	return img
}

func TestExtractorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ExtractorConfig)
		wantErr bool
		is      error
	}{
		{name: "defaults", mutate: func(*ExtractorConfig) {}},
		{name: "frequency", mutate: func(c *ExtractorConfig) { c.Algorithm = AlgorithmFrequency }},
		{name: "unknown algorithm", mutate: func(c *ExtractorConfig) { c.Algorithm = "median" }, wantErr: true},
		{name: "zero clusters", mutate: func(c *ExtractorConfig) { c.Clusters = 0 }, wantErr: true, is: ErrInvalidK},
		{name: "too many clusters", mutate: func(c *ExtractorConfig) { c.Clusters = 257 }, wantErr: true},
		{name: "zero iterations", mutate: func(c *ExtractorConfig) { c.MaxIterations = 0 }, wantErr: true, is: ErrInvalidIterations},
		{name: "negative convergence", mutate: func(c *ExtractorConfig) { c.ConvergenceThreshold = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultExtractorConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}

			_, err = NewExtractor(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestKMeansExtractorTwoByTwo(t *testing.T) {
	opaqueRed := color.NRGBA{R: 255, A: 255}
	opaqueBlue := color.NRGBA{B: 255, A: 255}

	cfg := DefaultExtractorConfig()
	cfg.Clusters = 2
	cfg.Seed = int64Ptr(11)
	e, err := NewExtractor(cfg, nil)
	require.NoError(t, err)

	res, err := e.Extract(twoByTwo(opaqueRed, opaqueRed, opaqueRed, opaqueBlue))
	require.NoError(t, err)

	assert.Equal(t, "rgb(255, 0, 0)", res.String())
	assert.Equal(t, 4, res.Sampled)
	require.NotNil(t, res.Clusters)
	assert.ElementsMatch(t, []int{3, 1}, res.Clusters.Sizes())
	assert.Equal(t, 2, res.Palette.Len())
	assert.ElementsMatch(t, []float64{0.75, 0.25}, res.Palette.Weights)
}

func TestExtractPaletteSkipsEmptyClusters(t *testing.T) {
	dark := RGB{R: 10}
	bright := RGB{R: 200}

	cfg := DefaultExtractorConfig()
	cfg.Clusters = 5
	cfg.Seed = int64Ptr(3)
	e, err := NewExtractor(cfg, nil)
	require.NoError(t, err)

	res, err := e.ExtractPixels([]RGB{dark, dark, bright})
	require.NoError(t, err)

	assert.Len(t, res.Clusters.Centroids, 5)
	assert.ElementsMatch(t, []RGB{dark, bright}, res.Palette.Colours)
	assert.InDelta(t, 1.0, res.Palette.Weights[0]+res.Palette.Weights[1], 1e-9)
	for _, w := range res.Palette.Weights {
		assert.Positive(t, w)
	}
	assert.Equal(t, 2, res.Palette.JSON().Count)
}

func TestExtractTransparentImage(t *testing.T) {
	transparent := color.NRGBA{R: 40, G: 50, B: 60, A: 0}

	for _, alg := range ValidAlgorithms() {
		t.Run(string(alg), func(t *testing.T) {
			cfg := DefaultExtractorConfig()
			cfg.Algorithm = alg
			e, err := NewExtractor(cfg, nil)
			require.NoError(t, err)

			res, err := e.Extract(twoByTwo(transparent, transparent, transparent, transparent))
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrNoPixels)
			assert.Contains(t, err.Error(), "no sampled pixels")
		})
	}
}

func TestExtractNilImage(t *testing.T) {
	e, err := NewExtractor(DefaultExtractorConfig(), nil)
	require.NoError(t, err)

	_, err = e.Extract(nil)
	assert.Error(t, err)
}

func TestKMeansExtractorIgnoresIgnoreList(t *testing.T) {
	white := RGB{R: 255, G: 255, B: 255}

	cfg := DefaultExtractorConfig()
	cfg.Clusters = 1
	cfg.Ignore = []RGB{white}
	e, err := NewExtractor(cfg, nil)
	require.NoError(t, err)

	res, err := e.ExtractPixels([]RGB{white, white, white})
	require.NoError(t, err)
	assert.Equal(t, white, res.Colour)
}

func TestFrequencyExtractor(t *testing.T) {
	white := RGB{R: 255, G: 255, B: 255}
	black := RGB{}
	green := RGB{G: 200}

	pixels := []RGB{white, white, white, white, white, red, red, blue, black}

	tests := []struct {
		name    string
		ignore  []RGB
		want    RGB
		sampled int
		weight  float64
	}{
		{name: "no ignore list", want: white, sampled: 9, weight: 5.0 / 9},
		{name: "default ignore list", ignore: DefaultSettings().Ignore, want: red, sampled: 3, weight: 2.0 / 3},
		{name: "unrelated ignore list", ignore: []RGB{green}, want: white, sampled: 9, weight: 5.0 / 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultExtractorConfig()
			cfg.Algorithm = AlgorithmFrequency
			cfg.Ignore = tt.ignore
			e, err := NewExtractor(cfg, nil)
			require.NoError(t, err)

			res, err := e.ExtractPixels(pixels)
			require.NoError(t, err)

			assert.Equal(t, tt.want, res.Colour)
			assert.Equal(t, tt.sampled, res.Sampled)
			assert.Nil(t, res.Clusters)
			assert.InDelta(t, tt.weight, res.Palette.Weight(0), 1e-9)
		})
	}
}

func TestFrequencyExtractorTiesKeepFirstSeen(t *testing.T) {
	e, err := NewExtractor(ExtractorConfig{Algorithm: AlgorithmFrequency, Clusters: 1, MaxIterations: 1}, nil)
	require.NoError(t, err)

	res, err := e.ExtractPixels([]RGB{blue, red, red, blue})
	require.NoError(t, err)
	assert.Equal(t, blue, res.Colour)
	assert.Equal(t, []RGB{blue, red}, res.Palette.Colours)
}

func TestFrequencyExtractorAllIgnored(t *testing.T) {
	cfg := DefaultExtractorConfig()
	cfg.Algorithm = AlgorithmFrequency
	cfg.Ignore = []RGB{red}
	e, err := NewExtractor(cfg, nil)
	require.NoError(t, err)

	_, err = e.ExtractPixels([]RGB{red, red})
	assert.ErrorIs(t, err, ErrNoPixels)
}

func TestExtractBuffer(t *testing.T) {
	cfg := DefaultExtractorConfig()
	cfg.Clusters = 1
	e, err := NewExtractor(cfg, nil)
	require.NoError(t, err)

	res, err := ExtractBuffer(e, []uint8{10, 20, 30, 255, 30, 40, 50, 255, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 20, G: 30, B: 40}, res.Colour)
	assert.Equal(t, 2, res.Sampled)

	_, err = ExtractBuffer(e, []uint8{1, 2, 3, 0})
	assert.ErrorIs(t, err, ErrNoPixels)
}
