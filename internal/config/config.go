// Package config loads extraction and presentation settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jmylchreest/adaptivebg/internal/colour"
	"github.com/jmylchreest/adaptivebg/internal/seed"
)

// File mirrors the on-disk configuration. Unset keys stay nil and leave the
// corresponding default in place.
type File struct {
	Extract      Extract      `toml:"extract"`
	Presentation Presentation `toml:"presentation"`
}

// Extract holds the [extract] table.
type Extract struct {
	Algorithm   *string  `toml:"algorithm"`
	Clusters    *int     `toml:"clusters"`
	Iterations  *int     `toml:"iterations"`
	Convergence *float64 `toml:"convergence"`
	SeedMode    *string  `toml:"seed-mode"`
	Seed        *int64   `toml:"seed"`
	Scale       *float64 `toml:"scale"`
	Ignore      []string `toml:"ignore"`
}

// Presentation holds the [presentation] table.
type Presentation struct {
	ShadeVariation  *string  `toml:"shade-variation"`
	ShadePercentage *float64 `toml:"shade-percentage"`
	ShadeLight      *string  `toml:"shade-light"`
	ShadeDark       *string  `toml:"shade-dark"`
	NormalizeText   *bool    `toml:"normalize-text"`
	TextLight       *string  `toml:"text-light"`
	TextDark        *string  `toml:"text-dark"`
	ClassLight      *string  `toml:"class-light"`
	ClassDark       *string  `toml:"class-dark"`
	Transparent     *float64 `toml:"transparent"`
}

// Options is the fully resolved configuration.
type Options struct {
	Extractor colour.ExtractorConfig
	Settings  colour.Settings
	Seed      seed.Config
}

// Defaults returns the built-in options.
func Defaults() Options {
	settings := colour.DefaultSettings()
	extractor := colour.DefaultExtractorConfig()
	extractor.Ignore = settings.Ignore
	return Options{
		Extractor: extractor,
		Settings:  settings,
		Seed:      seed.Config{Mode: seed.ModeContent},
	}
}

// Load decodes the file at path. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func Load(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return &f, nil
}

// Apply overlays every set value in f onto opts.
func (f *File) Apply(opts *Options) error {
	if err := f.Extract.apply(opts); err != nil {
		return fmt.Errorf("[extract]: %w", err)
	}
	if err := f.Presentation.apply(&opts.Settings); err != nil {
		return fmt.Errorf("[presentation]: %w", err)
	}
	return nil
}

func (e Extract) apply(opts *Options) error {
	if e.Algorithm != nil {
		opts.Extractor.Algorithm = colour.Algorithm(*e.Algorithm)
	}
	if e.Clusters != nil {
		opts.Extractor.Clusters = *e.Clusters
	}
	if e.Iterations != nil {
		opts.Extractor.MaxIterations = *e.Iterations
	}
	if e.Convergence != nil {
		opts.Extractor.ConvergenceThreshold = *e.Convergence
	}
	if e.SeedMode != nil {
		mode, err := seed.ParseMode(*e.SeedMode)
		if err != nil {
			return err
		}
		opts.Seed.Mode = mode
	}
	if e.Seed != nil {
		v := *e.Seed
		opts.Seed.Value = &v
		if e.SeedMode == nil {
			opts.Seed.Mode = seed.ModeManual
		}
	}
	if e.Scale != nil {
		opts.Settings.Scale = *e.Scale
	}
	if e.Ignore != nil {
		ignore, err := ParseColours(e.Ignore)
		if err != nil {
			return fmt.Errorf("ignore: %w", err)
		}
		opts.Settings.Ignore = ignore
	}
	opts.Extractor.Ignore = opts.Settings.Ignore
	return nil
}

func (p Presentation) apply(s *colour.Settings) error {
	if p.ShadeVariation != nil {
		v, err := colour.ParseShadeVariation(*p.ShadeVariation)
		if err != nil {
			return err
		}
		s.ShadeVariation = v
	}
	if p.ShadePercentage != nil {
		s.ShadePercentage = *p.ShadePercentage
	}
	if p.ShadeLight != nil {
		c, err := colour.ParseColour(*p.ShadeLight)
		if err != nil {
			return fmt.Errorf("shade-light: %w", err)
		}
		s.ShadeColours.Light = c
	}
	if p.ShadeDark != nil {
		c, err := colour.ParseColour(*p.ShadeDark)
		if err != nil {
			return fmt.Errorf("shade-dark: %w", err)
		}
		s.ShadeColours.Dark = c
	}
	if p.NormalizeText != nil {
		s.NormalizeTextColour = *p.NormalizeText
	}
	if p.TextLight != nil {
		s.NormalizedTextColours.Light = *p.TextLight
	}
	if p.TextDark != nil {
		s.NormalizedTextColours.Dark = *p.TextDark
	}
	if p.ClassLight != nil {
		s.LumaClasses.Light = *p.ClassLight
	}
	if p.ClassDark != nil {
		s.LumaClasses.Dark = *p.ClassDark
	}
	if p.Transparent != nil {
		v := *p.Transparent
		s.Transparent = &v
	}
	return nil
}

// ParseColours parses a list of colour strings.
func ParseColours(values []string) ([]colour.RGB, error) {
	out := make([]colour.RGB, 0, len(values))
	for _, v := range values {
		c, err := colour.ParseColour(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
