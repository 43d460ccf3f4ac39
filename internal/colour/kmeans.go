package colour

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultClusters is the number of clusters used for dominant colour extraction.
	DefaultClusters = 5
	// DefaultMaxIterations caps the refinement passes of one clustering run.
	DefaultMaxIterations = 50
)

var (
	// ErrNoPixels is returned when there is nothing to cluster, e.g. a fully
	// transparent image.
	ErrNoPixels = errors.New("no sampled pixels")
	// ErrInvalidK is returned when fewer than one cluster is requested.
	ErrInvalidK = errors.New("cluster count must be at least 1")
	// ErrInvalidIterations is returned when maxIterations is below one.
	ErrInvalidIterations = errors.New("max iterations must be at least 1")
)

// KMeans clusters colours in RGB space with k-means++ seeding.
//
// A KMeans keeps no state between Cluster calls other than its random source,
// which is not safe for concurrent use: give each goroutine its own engine.
type KMeans struct {
	k             int
	maxIterations int
	convergence   float64
	rng           *rand.Rand
	logger        hclog.Logger
}

// KMeansOption configures a KMeans engine.
type KMeansOption func(*KMeans)

// WithSeed makes seeding reproducible.
func WithSeed(seed int64) KMeansOption {
	return func(e *KMeans) {
		e.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- colour seeding, not security sensitive
	}
}

// WithRand injects the random source used for seeding.
func WithRand(r *rand.Rand) KMeansOption {
	return func(e *KMeans) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithConvergenceThreshold also stops iteration once the summed centroid
// movement of a pass drops below t. Zero disables the check.
func WithConvergenceThreshold(t float64) KMeansOption {
	return func(e *KMeans) {
		e.convergence = t
	}
}

// WithLogger attaches a logger for per-run diagnostics.
func WithLogger(l hclog.Logger) KMeansOption {
	return func(e *KMeans) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewKMeans creates an engine producing k clusters in at most maxIterations passes.
func NewKMeans(k, maxIterations int, opts ...KMeansOption) *KMeans {
	e := &KMeans{
		k:             k,
		maxIterations: maxIterations,
		logger:        hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- colour seeding, not security sensitive
	}
	return e
}

// K returns the configured cluster count.
func (e *KMeans) K() int {
	return e.k
}

// ClusterResult is the outcome of one clustering run.
type ClusterResult struct {
	// Clusters holds the pixels assigned to each centroid; some may be empty.
	Clusters [][]RGB
	// Centroids is index aligned with Clusters.
	Centroids []RGB
	// Largest is the index of the most populous cluster, lowest index on ties.
	Largest int
	// Iterations is the number of assignment passes executed.
	Iterations int
	// Converged is false when the run stopped on the iteration cap.
	Converged bool
}

// Dominant returns the centroid of the largest cluster.
func (r *ClusterResult) Dominant() RGB {
	return r.Centroids[r.Largest]
}

// Sizes returns the pixel count of every cluster.
func (r *ClusterResult) Sizes() []int {
	sizes := make([]int, len(r.Clusters))
	for i, c := range r.Clusters {
		sizes[i] = len(c)
	}
	return sizes
}

// Weights returns every cluster's share of the sampled pixels.
func (r *ClusterResult) Weights() []float64 {
	total := 0
	for _, c := range r.Clusters {
		total += len(c)
	}
	weights := make([]float64, len(r.Clusters))
	if total == 0 {
		return weights
	}
	for i, c := range r.Clusters {
		weights[i] = float64(len(c)) / float64(total)
	}
	return weights
}

// Palette lists the centroids of the non-empty clusters with their weights,
// in cluster order.
func (r *ClusterResult) Palette() *Palette {
	weights := r.Weights()
	p := &Palette{}
	for i, c := range r.Clusters {
		if len(c) == 0 {
			continue
		}
		p.Colours = append(p.Colours, r.Centroids[i])
		p.Weights = append(p.Weights, weights[i])
	}
	return p
}

// Cluster groups pixels into k clusters.
func (e *KMeans) Cluster(pixels []RGB) (*ClusterResult, error) {
	if e.k < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, e.k)
	}
	if e.maxIterations < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidIterations, e.maxIterations)
	}
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}

	centroids, seeded := e.seed(pixels)
	if seeded < e.k {
		e.logger.Debug("fewer distinct seeds than clusters", "k", e.k, "seeded", seeded)
	}

	// Zeroed assignments mean the first pass only reports a change for
	// pixels that leave cluster 0.
	assignments := make([]int, len(pixels))
	sums := make([][3]int, e.k)
	counts := make([]int, e.k)

	iterations := 0
	converged := false
	for iterations < e.maxIterations {
		changed := false
		clear(sums)
		clear(counts)

		for i, p := range pixels {
			nearest := nearestCentroid(p, centroids[:seeded])
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
			sums[nearest][0] += int(p.R)
			sums[nearest][1] += int(p.G)
			sums[nearest][2] += int(p.B)
			counts[nearest]++
		}

		movement := 0.0
		for i := 0; i < seeded; i++ {
			if counts[i] == 0 {
				continue
			}
			next := RGB{
				R: meanChannel(sums[i][0], counts[i]),
				G: meanChannel(sums[i][1], counts[i]),
				B: meanChannel(sums[i][2], counts[i]),
			}
			movement += math.Sqrt(float64(SquaredDistance(centroids[i], next)))
			centroids[i] = next
		}

		iterations++
		if !changed || (e.convergence > 0 && movement < e.convergence) {
			converged = true
			break
		}
	}

	clusters := make([][]RGB, e.k)
	for i := range clusters {
		clusters[i] = make([]RGB, 0, counts[i])
	}
	for i, p := range pixels {
		clusters[assignments[i]] = append(clusters[assignments[i]], p)
	}

	result := &ClusterResult{
		Clusters:   clusters,
		Centroids:  centroids,
		Largest:    largestCluster(clusters),
		Iterations: iterations,
		Converged:  converged,
	}

	e.logger.Debug("clustering finished",
		"pixels", len(pixels),
		"k", e.k,
		"iterations", iterations,
		"converged", converged,
		"largest", result.Largest,
	)
	return result, nil
}

// seed picks initial centroids with k-means++. It returns k centroids and
// the number that were actually seeded; seeding stops early once every pixel
// coincides with a chosen centroid. Unseeded slots copy the first seed and
// never take part in assignment.
func (e *KMeans) seed(pixels []RGB) ([]RGB, int) {
	centroids := make([]RGB, 1, e.k)
	centroids[0] = pixels[e.rng.Intn(len(pixels))]

	distances := make([]int64, len(pixels))
	for len(centroids) < e.k && len(centroids) < len(pixels) {
		var total int64
		for i, p := range pixels {
			minDist := int64(math.MaxInt64)
			for _, c := range centroids {
				if d := int64(SquaredDistance(p, c)); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist
			total += minDist
		}
		if total == 0 {
			break
		}

		target := e.rng.Int63n(total)
		var cumulative int64
		for i, d := range distances {
			cumulative += d
			if cumulative > target {
				centroids = append(centroids, pixels[i])
				break
			}
		}
	}

	seeded := len(centroids)
	for len(centroids) < e.k {
		centroids = append(centroids, centroids[0])
	}
	return centroids, seeded
}

// nearestCentroid returns the index of the closest centroid, keeping the
// lowest index on ties.
func nearestCentroid(p RGB, centroids []RGB) int {
	nearest := 0
	minDist := math.MaxInt
	for i, c := range centroids {
		if d := SquaredDistance(p, c); d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest
}

func meanChannel(sum, count int) uint8 {
	return clampChannel(roundHalfUp(float64(sum) / float64(count)))
}

// largestCluster returns the first index holding the most pixels.
func largestCluster(clusters [][]RGB) int {
	index, size := 0, 0
	for i, c := range clusters {
		if len(c) > size {
			index, size = i, len(c)
		}
	}
	return index
}
