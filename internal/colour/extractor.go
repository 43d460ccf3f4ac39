package colour

import (
	"fmt"
	"image"
	"slices"

	"github.com/hashicorp/go-hclog"
)

// Extractor finds the dominant colour of an image.
type Extractor interface {
	// Extract samples img and returns its dominant colour.
	Extract(img image.Image) (*Result, error)
	// ExtractPixels runs extraction on already sampled pixels.
	ExtractPixels(pixels []RGB) (*Result, error)
}

// Result is the outcome of one extraction.
type Result struct {
	// Colour is the dominant colour.
	Colour RGB
	// Palette lists every candidate colour with its share of the sampled pixels.
	// Empty clusters are left out.
	Palette *Palette
	// Clusters is set by the kmeans algorithm only.
	Clusters *ClusterResult
	// Sampled is the number of opaque pixels considered.
	Sampled int
}

// String returns the dominant colour as "rgb(r, g, b)".
func (r *Result) String() string {
	return r.Colour.String()
}

// Algorithm represents the colour extraction algorithm type.
type Algorithm string

const (
	// AlgorithmKMeans clusters pixels and picks the centroid of the largest cluster.
	AlgorithmKMeans Algorithm = "kmeans"

	// AlgorithmFrequency tallies exact colours and picks the most frequent one,
	// skipping colours on the ignore list.
	AlgorithmFrequency Algorithm = "frequency"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{AlgorithmKMeans, AlgorithmFrequency}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	return slices.Contains(ValidAlgorithms(), alg)
}

// ExtractorConfig holds configuration for colour extraction.
type ExtractorConfig struct {
	Algorithm     Algorithm
	Clusters      int
	MaxIterations int

	// Ignore lists colours to exclude. Only the frequency algorithm honours it.
	Ignore []RGB

	// Seed makes kmeans seeding reproducible when set.
	Seed *int64

	// ConvergenceThreshold adds a centroid-movement stopping rule when > 0.
	ConvergenceThreshold float64
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Algorithm:     AlgorithmKMeans,
		Clusters:      DefaultClusters,
		MaxIterations: DefaultMaxIterations,
	}
}

// Validate validates the extractor configuration.
func (c ExtractorConfig) Validate() error {
	if !IsValidAlgorithm(c.Algorithm) {
		return fmt.Errorf("invalid algorithm: %s (valid algorithms: %v)", c.Algorithm, ValidAlgorithms())
	}
	if c.Clusters < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidK, c.Clusters)
	}
	if c.Clusters > 256 {
		return fmt.Errorf("cluster count too large: %d (maximum: 256)", c.Clusters)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidIterations, c.MaxIterations)
	}
	if c.ConvergenceThreshold < 0 {
		return fmt.Errorf("convergence threshold cannot be negative, got %g", c.ConvergenceThreshold)
	}
	return nil
}

// NewExtractor creates an Extractor for the configured algorithm.
func NewExtractor(cfg ExtractorConfig, logger hclog.Logger) (Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	switch cfg.Algorithm {
	case AlgorithmKMeans:
		return newKMeansExtractor(cfg, logger), nil
	case AlgorithmFrequency:
		return newFrequencyExtractor(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", cfg.Algorithm, ValidAlgorithms())
	}
}

// ExtractBuffer runs e over an interleaved RGBA buffer.
func ExtractBuffer(e Extractor, buf []uint8) (*Result, error) {
	return e.ExtractPixels(SamplePixels(buf))
}

// KMeansExtractor picks the centroid of the most populous k-means cluster.
type KMeansExtractor struct {
	cfg    ExtractorConfig
	logger hclog.Logger
}

func newKMeansExtractor(cfg ExtractorConfig, logger hclog.Logger) *KMeansExtractor {
	return &KMeansExtractor{cfg: cfg, logger: logger.Named("kmeans")}
}

// Extract extracts the dominant colour from an image.
func (e *KMeansExtractor) Extract(img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	return e.ExtractPixels(SampleImage(img))
}

// ExtractPixels clusters pixels and returns the largest cluster's centroid.
func (e *KMeansExtractor) ExtractPixels(pixels []RGB) (*Result, error) {
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}
	if len(e.cfg.Ignore) > 0 {
		// TODO: decide whether ignored colours should be masked before clustering.
		e.logger.Debug("ignore list is not applied by kmeans", "colours", len(e.cfg.Ignore))
	}

	// One engine per call; KMeans is not safe for concurrent use.
	opts := []KMeansOption{
		WithConvergenceThreshold(e.cfg.ConvergenceThreshold),
		WithLogger(e.logger),
	}
	if e.cfg.Seed != nil {
		opts = append(opts, WithSeed(*e.cfg.Seed))
	}
	engine := NewKMeans(e.cfg.Clusters, e.cfg.MaxIterations, opts...)

	clusters, err := engine.Cluster(pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster pixels: %w", err)
	}

	return &Result{
		Colour:   clusters.Dominant(),
		Palette:  clusters.Palette(),
		Clusters: clusters,
		Sampled:  len(pixels),
	}, nil
}
