// Package cluster provides the k-means estimator and clustering quality
// metrics used by the unsupervised fitting paths of the integration engine.
package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// KMeans partitions samples into K clusters by Lloyd's algorithm with
// k-means++ initialisation.  The random source is injectable so that runs
// are reproducible given a seed; the zero-value source falls back to process
// entropy.
type KMeans struct {
	K       int
	MaxIter int

	rng *rand.Rand

	// Centroids holds the fitted K x p centroid matrix after FitPredict.
	Centroids *mat.Dense
	// Inertia is the sum of squared distances to the nearest centroid.
	Inertia float64
}

// Option configures a KMeans estimator.
type Option func(*KMeans)

// WithMaxIter overrides the iteration cap (default 100).
func WithMaxIter(n int) Option {
	return func(m *KMeans) { m.MaxIter = n }
}

// WithRand sets the random source used for centroid initialisation.
func WithRand(rng *rand.Rand) Option {
	return func(m *KMeans) { m.rng = rng }
}

// NewKMeans creates a KMeans estimator with the given cluster count.
func NewKMeans(k int, opts ...Option) *KMeans {
	m := &KMeans{K: k, MaxIter: 100}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *KMeans) source() *rand.Rand {
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return m.rng
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// initCentroids picks K starting centroids with the k-means++ scheme: the
// first uniformly, each subsequent one with probability proportional to the
// squared distance from the nearest centroid chosen so far.
func (m *KMeans) initCentroids(rows [][]float64) [][]float64 {
	rng := m.source()
	n := len(rows)
	centroids := make([][]float64, 0, m.K)
	centroids = append(centroids, rows[rng.Intn(n)])

	d2 := make([]float64, n)
	for len(centroids) < m.K {
		total := 0.0
		for i, r := range rows {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := sqDist(r, c); d < best {
					best = d
				}
			}
			d2[i] = best
			total += best
		}
		if total == 0 {
			// All remaining points coincide with a centroid; pick uniformly.
			centroids = append(centroids, rows[rng.Intn(n)])
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := n - 1
		for i, d := range d2 {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, rows[pick])
	}
	out := make([][]float64, m.K)
	for i, c := range centroids {
		out[i] = append([]float64(nil), c...)
	}
	return out
}

// FitPredict clusters X (samples x features) and returns one cluster index
// per row.  It fails when X is empty, K < 1, or there are fewer rows than
// clusters.
func (m *KMeans) FitPredict(X mat.Matrix) ([]int, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "kmeans input must not be empty")
	}
	if m.K < 1 {
		return nil, errors.Newf(errors.ErrCodeValidation, "kmeans requires K >= 1, got %d", m.K)
	}
	if n < m.K {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"kmeans requires at least K=%d rows, got %d", m.K, n)
	}

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		r := make([]float64, p)
		for j := 0; j < p; j++ {
			r[j] = X.At(i, j)
		}
		rows[i] = r
	}

	centroids := m.initCentroids(rows)
	assign := make([]int, n)

	for it := 0; it < m.MaxIter; it++ {
		changed := false
		m.Inertia = 0

		for i, r := range rows {
			best, bestD := 0, math.Inf(1)
			for c, cen := range centroids {
				if d := sqDist(r, cen); d < bestD {
					best, bestD = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
			m.Inertia += bestD
		}

		counts := make([]int, m.K)
		sums := make([][]float64, m.K)
		for c := range sums {
			sums[c] = make([]float64, p)
		}
		for i, r := range rows {
			c := assign[i]
			counts[c]++
			for j, v := range r {
				sums[c][j] += v
			}
		}
		for c := 0; c < m.K; c++ {
			if counts[c] == 0 {
				// Re-seed an emptied cluster from a random row.
				copy(sums[c], rows[m.source().Intn(n)])
				counts[c] = 1
			}
			for j := 0; j < p; j++ {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}

		if !changed && it > 0 {
			break
		}
	}

	m.Centroids = mat.NewDense(m.K, p, nil)
	for c := 0; c < m.K; c++ {
		m.Centroids.SetRow(c, centroids[c])
	}
	return assign, nil
}
