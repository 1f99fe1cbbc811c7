package scoring

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/cluster"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ClustPA scores each pathway by splitting its samples into two clusters on
// the pathway submatrix and projecting every sample onto the axis between the
// two centroids. The signed distance along that axis is the pathway score, so
// samples on opposite sides of the dominant split get opposite signs.
type ClustPA struct {
	cat         *pathway.Catalog
	minCoverage int
	rng         *rand.Rand
}

// ClustOption configures a ClustPA strategy.
type ClustOption func(*ClustPA)

// WithClustRand fixes the random source used by the per-pathway 2-means
// split, making scores reproducible.
func WithClustRand(rng *rand.Rand) ClustOption {
	return func(s *ClustPA) { s.rng = rng }
}

// NewClustPA builds a cluster-projection strategy.
func NewClustPA(cat *pathway.Catalog, minCoverage int, opts ...ClustOption) *ClustPA {
	s := &ClustPA{cat: cat, minCoverage: minCoverage}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FitTransform runs a 2-means split per covered pathway and returns the
// centroid-axis projections.
func (s *ClustPA) FitTransform(t *omics.Table) (*omics.Table, error) {
	pathways, err := coveredPathways(s.cat, s.minCoverage, t)
	if err != nil {
		return nil, err
	}

	n := t.NumSamples()
	scores := make([][]float64, len(pathways))
	for p, cp := range pathways {
		m := len(cp.colIdx)
		sub := mat.NewDense(n, m, nil)
		for j, col := range cp.colIdx {
			for i := 0; i < n; i++ {
				sub.Set(i, j, t.At(i, col))
			}
		}

		opts := []cluster.Option{}
		if s.rng != nil {
			opts = append(opts, cluster.WithRand(s.rng))
		}
		km := cluster.NewKMeans(2, opts...)
		if _, err := km.FitPredict(sub); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFitFailed,
				"clustpa scoring: pathway split failed")
		}

		// Axis between the two centroids, anchored at its midpoint.
		axis := make([]float64, m)
		mid := make([]float64, m)
		norm := 0.0
		for j := 0; j < m; j++ {
			d := km.Centroids.At(1, j) - km.Centroids.At(0, j)
			axis[j] = d
			mid[j] = (km.Centroids.At(0, j) + km.Centroids.At(1, j)) / 2
			norm += d * d
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}

		col := make([]float64, n)
		for i := 0; i < n; i++ {
			proj := 0.0
			for j := 0; j < m; j++ {
				proj += (sub.At(i, j) - mid[j]) * axis[j] / norm
			}
			col[i] = proj
		}
		scores[p] = col
	}
	return scoreTable(t, pathways, scores)
}
