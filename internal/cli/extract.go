package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/adaptivebg/internal/analyze"
	"github.com/jmylchreest/adaptivebg/internal/batch"
	"github.com/jmylchreest/adaptivebg/internal/colour"
	"github.com/jmylchreest/adaptivebg/internal/config"
	"github.com/jmylchreest/adaptivebg/internal/image"
	"github.com/jmylchreest/adaptivebg/internal/seed"
	httputil "github.com/jmylchreest/adaptivebg/internal/util/http"
	"github.com/jmylchreest/adaptivebg/internal/util/imagecache"
)

// extractFlags holds the extract command flags.
type extractFlags struct {
	scale       float64
	algorithm   string
	clusters    int
	iterations  int
	convergence float64
	seedMode    string
	seedValue   int64
	ignore      []string

	shadeVariation  string
	shadePercentage float64
	shadeLight      string
	shadeDark       string
	normalizeText   bool
	textLight       string
	textDark        string
	classLight      string
	classDark       string
	transparent     float64

	format  string
	output  string
	preview bool
	workers int
	random  bool

	cache    bool
	cacheDir string
}

func newExtractCmd() *cobra.Command {
	f := &extractFlags{}
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:   "extract <image>...",
		Short: "Extract the dominant colour of one or more images",
		Long: `Extract the dominant colour of an image and derive its presentation values.

Each argument may be a local file (JPEG, PNG, GIF or WebP, optionally gz, xz
or bz2 compressed), an HTTP(S) URL, or a directory. Directories expand to
every image they contain, or to one random image with --random. Multiple
images are processed concurrently.

Examples:
  # Dominant colour and presentation of a wallpaper
  adaptivebg extract wallpaper.jpg

  # Lighten dark colours / darken light ones by 20%
  adaptivebg extract --shade-variation shade --shade-percentage 0.2 cover.png

  # Blend towards the reference colours and render a translucent background
  adaptivebg extract --shade-variation blend --shade-percentage 0.3 --transparent 0.5 cover.png

  # Reproducible output for a whole directory as a table
  adaptivebg extract --seed-mode manual --seed 42 --format table ~/Pictures`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, f, args)
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&f.scale, "scale", defaults.Settings.Scale, "sampling resolution factor in (0, 1]")
	fl.StringVarP(&f.algorithm, "algorithm", "a", string(defaults.Extractor.Algorithm), "extraction algorithm (kmeans, frequency)")
	fl.IntVarP(&f.clusters, "clusters", "k", defaults.Extractor.Clusters, "number of k-means clusters")
	fl.IntVar(&f.iterations, "iterations", defaults.Extractor.MaxIterations, "maximum k-means iterations")
	fl.Float64Var(&f.convergence, "convergence", 0, "also stop once total centroid movement falls below this (0 disables)")
	fl.StringVar(&f.seedMode, "seed-mode", string(defaults.Seed.Mode), "k-means seed mode: content, filepath, manual, random")
	fl.Int64Var(&f.seedValue, "seed", 0, "k-means seed value (implies --seed-mode=manual)")
	fl.StringSliceVar(&f.ignore, "ignore", nil, "colours skipped by the frequency algorithm (default black and white)")

	fl.StringVar(&f.shadeVariation, "shade-variation", string(defaults.Settings.ShadeVariation), "shade variation: off, shade, blend")
	fl.Float64Var(&f.shadePercentage, "shade-percentage", defaults.Settings.ShadePercentage, "shade or blend amount in [0, 1]")
	fl.StringVar(&f.shadeLight, "shade-light", defaults.Settings.ShadeColours.Light.String(), "light blend reference colour")
	fl.StringVar(&f.shadeDark, "shade-dark", defaults.Settings.ShadeColours.Dark.String(), "dark blend reference colour")
	fl.BoolVar(&f.normalizeText, "normalize-text", defaults.Settings.NormalizeTextColour, "derive a readable text colour")
	fl.StringVar(&f.textLight, "text-light", defaults.Settings.NormalizedTextColours.Light, "text colour for dark backgrounds")
	fl.StringVar(&f.textDark, "text-dark", defaults.Settings.NormalizedTextColours.Dark, "text colour for light backgrounds")
	fl.StringVar(&f.classLight, "class-light", defaults.Settings.LumaClasses.Light, "class label for light backgrounds")
	fl.StringVar(&f.classDark, "class-dark", defaults.Settings.LumaClasses.Dark, "class label for dark backgrounds")
	fl.Float64Var(&f.transparent, "transparent", 0, "background alpha in [0.01, 0.99] (unset renders opaque)")

	fl.StringVarP(&f.format, "format", "f", "text", "output format (text, json, table)")
	fl.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fl.BoolVar(&f.preview, "preview", false, "show colour previews when writing to a terminal")
	fl.IntVarP(&f.workers, "workers", "w", 0, "concurrent extractions (default: GOMAXPROCS)")
	fl.BoolVar(&f.random, "random", false, "pick one random image from each directory argument")
	fl.BoolVar(&f.cache, "cache", false, "cache downloaded images on disk")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "image cache directory (default: user cache dir)")

	return cmd
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, f *extractFlags, args []string) error {
	logger := newLogger(cmd)

	switch f.format {
	case "text", "json", "table":
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, table)", f.format)
	}

	opts := config.Defaults()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		file, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := file.Apply(&opts); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger.Debug("loaded configuration", "path", path)
	}
	if err := f.apply(cmd.Flags(), &opts); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sources, err := resolveSources(args, f.random)
	if err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	var loader image.Loader
	if f.cache || f.cacheDir != "" {
		c, err := imagecache.New(f.cacheDir, httputil.FetchOptions{}, logger.Named("cache"))
		if err != nil {
			return err
		}
		loader = image.NewSmartLoader(logger.Named("loader")).WithCache(c)
		logger.Debug("caching remote images", "dir", c.Dir())
	}

	analyzer, err := analyze.New(loader, opts, logger)
	if err != nil {
		return err
	}

	runner := batch.NewRunner(f.workers, logger.Named("batch"))
	logger.Debug("extracting", "images", len(sources), "algorithm", opts.Extractor.Algorithm, "workers", runner.Workers())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outcomes, err := batch.Run(ctx, runner, sources, analyzer.Analyze)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var file *os.File
	if f.output != "" {
		file, err = os.Create(f.output) // #nosec G304 - User-specified output path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	preview := f.preview && file == nil && writerIsTerminal(out)
	if err := writeOutcomes(out, f.format, outcomes, preview); err != nil {
		return err
	}

	for _, o := range outcomes {
		if o.Err != nil {
			logger.Error("extraction failed", "source", o.Source, "error", o.Err)
		}
	}
	if failed := batch.Failed(outcomes); failed > 0 {
		return fmt.Errorf("%d of %d extractions failed", failed, len(outcomes))
	}
	return nil
}

// apply overlays explicitly set flags onto opts.
func (f *extractFlags) apply(fs *pflag.FlagSet, opts *config.Options) error {
	if fs.Changed("scale") {
		opts.Settings.Scale = f.scale
	}
	if fs.Changed("algorithm") {
		opts.Extractor.Algorithm = colour.Algorithm(f.algorithm)
	}
	if fs.Changed("clusters") {
		opts.Extractor.Clusters = f.clusters
	}
	if fs.Changed("iterations") {
		opts.Extractor.MaxIterations = f.iterations
	}
	if fs.Changed("convergence") {
		opts.Extractor.ConvergenceThreshold = f.convergence
	}
	if fs.Changed("seed-mode") {
		mode, err := seed.ParseMode(f.seedMode)
		if err != nil {
			return err
		}
		opts.Seed.Mode = mode
	}
	if fs.Changed("seed") {
		v := f.seedValue
		opts.Seed.Value = &v
		if !fs.Changed("seed-mode") {
			opts.Seed.Mode = seed.ModeManual
		}
	}
	if fs.Changed("ignore") {
		ignore, err := config.ParseColours(f.ignore)
		if err != nil {
			return fmt.Errorf("--ignore: %w", err)
		}
		opts.Settings.Ignore = ignore
	}
	opts.Extractor.Ignore = opts.Settings.Ignore

	if fs.Changed("shade-variation") {
		v, err := colour.ParseShadeVariation(f.shadeVariation)
		if err != nil {
			return err
		}
		opts.Settings.ShadeVariation = v
	}
	if fs.Changed("shade-percentage") {
		opts.Settings.ShadePercentage = f.shadePercentage
	}
	if fs.Changed("shade-light") {
		c, err := colour.ParseColour(f.shadeLight)
		if err != nil {
			return fmt.Errorf("--shade-light: %w", err)
		}
		opts.Settings.ShadeColours.Light = c
	}
	if fs.Changed("shade-dark") {
		c, err := colour.ParseColour(f.shadeDark)
		if err != nil {
			return fmt.Errorf("--shade-dark: %w", err)
		}
		opts.Settings.ShadeColours.Dark = c
	}
	if fs.Changed("normalize-text") {
		opts.Settings.NormalizeTextColour = f.normalizeText
	}
	if fs.Changed("text-light") {
		opts.Settings.NormalizedTextColours.Light = f.textLight
	}
	if fs.Changed("text-dark") {
		opts.Settings.NormalizedTextColours.Dark = f.textDark
	}
	if fs.Changed("class-light") {
		opts.Settings.LumaClasses.Light = f.classLight
	}
	if fs.Changed("class-dark") {
		opts.Settings.LumaClasses.Dark = f.classDark
	}
	if fs.Changed("transparent") {
		v := f.transparent
		opts.Settings.Transparent = &v
	}
	return nil
}

// resolveSources validates the arguments and expands directories.
func resolveSources(args []string, random bool) ([]string, error) {
	for _, a := range args {
		if err := image.ValidateImagePath(a); err != nil {
			return nil, err
		}
	}
	if !random {
		return image.ExpandPaths(args)
	}

	sources := make([]string, 0, len(args))
	for _, a := range args {
		p, err := image.ResolveImagePath(a)
		if err != nil {
			return nil, err
		}
		sources = append(sources, p)
	}
	return sources, nil
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && colour.SupportsANSIColours(f)
}

// writeOutcomes formats the batch results.
func writeOutcomes(w io.Writer, format string, outcomes []batch.Outcome[*analyze.Report], preview bool) error {
	switch format {
	case "json":
		return writeJSON(w, outcomesJSON(outcomes))
	case "table":
		_, err := io.WriteString(w, formatTable(outcomes, preview))
		return err
	default:
		_, err := io.WriteString(w, formatText(outcomes, preview))
		return err
	}
}

type outcomeJSON struct {
	*analyze.Report
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// outcomesJSON returns a single object for one source and an array otherwise.
func outcomesJSON(outcomes []batch.Outcome[*analyze.Report]) any {
	items := make([]outcomeJSON, len(outcomes))
	for i, o := range outcomes {
		items[i] = outcomeJSON{Report: o.Value, Source: o.Source}
		if o.Err != nil {
			items[i].Report = nil
			items[i].Error = o.Err.Error()
		}
	}
	if len(items) == 1 {
		return items[0]
	}
	return items
}

func formatText(outcomes []batch.Outcome[*analyze.Report], preview bool) string {
	var b strings.Builder
	for i, o := range outcomes {
		if len(outcomes) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s\n", o.Source)
		}
		if o.Err != nil {
			fmt.Fprintf(&b, "  error:       %v\n", o.Err)
			continue
		}

		r := o.Value
		p := r.Presentation
		if preview {
			fmt.Fprintf(&b, "  %s\n", colour.FormatPresentationPreview(p, 12))
		}
		fmt.Fprintf(&b, "  colour:      %s\n", r.Colour)
		fmt.Fprintf(&b, "  background:  %s\n", p.Background)
		if p.TextColour != "" {
			fmt.Fprintf(&b, "  text:        %s\n", p.TextColour)
		}
		fmt.Fprintf(&b, "  class:       %s\n", p.LumaClass)
		fmt.Fprintf(&b, "  luma:        %s\n", strconv.FormatFloat(p.Luma, 'f', -1, 64))
		if c := r.Result.Clusters; c != nil {
			fmt.Fprintf(&b, "  clusters:    %v (iterations: %d, converged: %t)\n", c.Sizes(), c.Iterations, c.Converged)
		}
	}
	return b.String()
}

func formatTable(outcomes []batch.Outcome[*analyze.Report], preview bool) string {
	headers := []string{"SOURCE", "COLOUR", "BACKGROUND", "TEXT", "CLASS", "LUMA"}
	if preview {
		headers = append([]string{""}, headers...)
	}
	table := NewTable(headers)
	// Error messages go in the COLOUR column; wrap them, never the source.
	table.SetColumnMaxWidth(len(headers)-5, 48)

	for _, o := range outcomes {
		var row []string
		if o.Err != nil {
			row = []string{o.Source, "error: " + o.Err.Error(), "", "", "", ""}
		} else {
			p := o.Value.Presentation
			row = []string{
				o.Source,
				o.Value.Colour,
				p.Background,
				p.TextColour,
				p.LumaClass,
				strconv.FormatFloat(p.Luma, 'f', 1, 64),
			}
		}
		if preview {
			swatch := strings.Repeat(" ", 4)
			if o.Err == nil {
				swatch = colour.ColourPreview(o.Value.Presentation.Colour, 4)
			}
			row = append([]string{swatch}, row...)
		}
		table.AddRow(row)
	}
	return table.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
