// Package analyze ties image acquisition, sampling, extraction and
// presentation together for a single image source.
package analyze

import (
	"context"
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/adaptivebg/internal/colour"
	"github.com/jmylchreest/adaptivebg/internal/config"
	"github.com/jmylchreest/adaptivebg/internal/image"
	"github.com/jmylchreest/adaptivebg/internal/seed"
)

// Report describes the extraction of one source.
type Report struct {
	Source       string              `json:"source"`
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	SampleWidth  int                 `json:"sampleWidth"`
	SampleHeight int                 `json:"sampleHeight"`
	Seed         *int64              `json:"seed,omitempty"`
	Colour       string              `json:"colour"`
	Palette      colour.PaletteJSON  `json:"palette"`
	Result       *colour.Result      `json:"-"`
	Presentation colour.Presentation `json:"presentation"`
}

// Analyzer runs the full extraction for image sources.
type Analyzer struct {
	loader image.Loader
	opts   config.Options
	logger hclog.Logger
}

// New creates an Analyzer. A nil loader defaults to image.SmartLoader.
func New(loader image.Loader, opts config.Options, logger hclog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if loader == nil {
		loader = image.NewSmartLoader(logger.Named("loader"))
	}
	if err := opts.Extractor.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if math.IsNaN(opts.Settings.Scale) {
		return nil, fmt.Errorf("invalid configuration: %w", image.ValidateScale(opts.Settings.Scale))
	}
	if err := image.ValidateScale(opts.Settings.Scale); err != nil {
		logger.Warn("scale should be between 0 and 1", "error", err)
	}
	return &Analyzer{loader: loader, opts: opts, logger: logger}, nil
}

// Analyze loads source and derives its dominant colour presentation. It is
// safe to call concurrently; every call clusters with its own engine.
func (a *Analyzer) Analyze(ctx context.Context, source string) (*Report, error) {
	img, err := a.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	scaled, err := image.Scale(img, image.ClampScale(a.opts.Settings.Scale))
	if err != nil {
		return nil, fmt.Errorf("failed to scale %s: %w", source, err)
	}

	report := &Report{
		Source:       source,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		SampleWidth:  scaled.Bounds().Dx(),
		SampleHeight: scaled.Bounds().Dy(),
	}

	cfg := a.opts.Extractor
	if cfg.Algorithm == colour.AlgorithmKMeans {
		value, ok, err := seed.Calculate(img, source, a.opts.Seed)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate seed: %w", err)
		}
		if ok {
			cfg.Seed = &value
			report.Seed = &value
		}
	}

	extractor, err := colour.NewExtractor(cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	result, err := extractor.Extract(scaled)
	if err != nil {
		return nil, fmt.Errorf("failed to extract colour from %s: %w", source, err)
	}

	report.Result = result
	report.Colour = result.String()
	report.Palette = result.Palette.JSON()
	report.Presentation = colour.Derive(result.Colour, a.opts.Settings)

	a.logger.Debug("extracted dominant colour",
		"source", source,
		"colour", result.Colour.String(),
		"sampled", result.Sampled,
		"class", report.Presentation.LumaClass,
	)
	return report, nil
}
