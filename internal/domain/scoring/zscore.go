package scoring

import (
	"math"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ZScore scores each pathway as the mean column z-score of its covered
// molecules. Column statistics are learned at fit time so Transform applies
// train-set scaling to held-out samples.
type ZScore struct {
	cat         *pathway.Catalog
	minCoverage int

	pathways []coveredPathway
	means    [][]float64
	stds     [][]float64
}

// NewZScore builds a z-score strategy. It satisfies the Factory signature.
func NewZScore(cat *pathway.Catalog, minCoverage int) Strategy {
	return &ZScore{cat: cat, minCoverage: minCoverage}
}

// FitTransform learns per-column mean and standard deviation, then averages
// z-scores within each covered pathway.
func (s *ZScore) FitTransform(t *omics.Table) (*omics.Table, error) {
	pathways, err := coveredPathways(s.cat, s.minCoverage, t)
	if err != nil {
		return nil, err
	}

	n := t.NumSamples()
	s.pathways = pathways
	s.means = make([][]float64, len(pathways))
	s.stds = make([][]float64, len(pathways))

	scores := make([][]float64, len(pathways))
	for p, cp := range pathways {
		m := len(cp.colIdx)
		means := make([]float64, m)
		stds := make([]float64, m)
		for j, col := range cp.colIdx {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += t.At(i, col)
			}
			means[j] = sum / float64(n)
			ss := 0.0
			for i := 0; i < n; i++ {
				d := t.At(i, col) - means[j]
				ss += d * d
			}
			stds[j] = math.Sqrt(ss / float64(n))
			if stds[j] == 0 {
				stds[j] = 1
			}
		}
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j, c := range cp.colIdx {
				sum += (t.At(i, c) - means[j]) / stds[j]
			}
			col[i] = sum / float64(m)
		}
		scores[p] = col
		s.means[p] = means
		s.stds[p] = stds
	}
	return scoreTable(t, pathways, scores)
}

// Transform applies fitted column statistics to new samples.
func (s *ZScore) Transform(t *omics.Table) (*omics.Table, error) {
	if s.pathways == nil {
		return nil, errors.New(errors.ErrCodeNotFitted, "zscore scoring: not fitted")
	}
	n := t.NumSamples()
	scores := make([][]float64, len(s.pathways))
	for p, cp := range s.pathways {
		col := make([]float64, n)
		for j, name := range cp.columns {
			src, ok := t.ColumnIndex(name)
			if !ok {
				return nil, errors.Newf(errors.ErrCodeShapeMismatch,
					"zscore scoring: column %q missing from transform input", name)
			}
			for i := 0; i < n; i++ {
				col[i] += (t.At(i, src) - s.means[p][j]) / s.stds[p][j]
			}
		}
		for i := 0; i < n; i++ {
			col[i] /= float64(len(cp.colIdx))
		}
		scores[p] = col
	}
	return scoreTable(t, s.pathways, scores)
}
