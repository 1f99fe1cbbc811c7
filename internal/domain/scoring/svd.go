package scoring

import (
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// SVD scores each pathway with the first singular component of the pathway
// submatrix (the PLAGE approach): the per-sample score is the projection onto
// the dominant right singular vector, and the vector itself gives each
// molecule's contribution.
type SVD struct {
	cat         *pathway.Catalog
	minCoverage int

	// Fitted state, keyed by covered pathway order.
	pathways   []coveredPathway
	means      [][]float64
	loadings   [][]float64
	importance []MoleculeImportance
}

// NewSVD builds an SVD strategy. It satisfies the Factory signature.
func NewSVD(cat *pathway.Catalog, minCoverage int) Strategy {
	return &SVD{cat: cat, minCoverage: minCoverage}
}

// FitTransform decomposes every covered pathway submatrix and returns the
// per-sample projections on the leading component.
func (s *SVD) FitTransform(t *omics.Table) (*omics.Table, error) {
	pathways, err := coveredPathways(s.cat, s.minCoverage, t)
	if err != nil {
		return nil, err
	}

	n := t.NumSamples()
	s.pathways = pathways
	s.means = make([][]float64, len(pathways))
	s.loadings = make([][]float64, len(pathways))
	s.importance = s.importance[:0]

	scores := make([][]float64, len(pathways))
	for p, cp := range pathways {
		m := len(cp.colIdx)
		sub := mat.NewDense(n, m, nil)
		means := make([]float64, m)
		for j, col := range cp.colIdx {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += t.At(i, col)
			}
			means[j] = sum / float64(n)
			for i := 0; i < n; i++ {
				sub.Set(i, j, t.At(i, col)-means[j])
			}
		}

		var svd mat.SVD
		if ok := svd.Factorize(sub, mat.SVDThin); !ok {
			return nil, errors.Newf(errors.ErrCodeFitFailed,
				"svd scoring: decomposition failed for pathway %s", cp.id)
		}
		var v mat.Dense
		svd.VTo(&v)

		loading := make([]float64, m)
		sum := 0.0
		for j := 0; j < m; j++ {
			loading[j] = v.At(j, 0)
			sum += loading[j]
		}
		// Singular vectors are sign-ambiguous; orient so loadings sum positive
		// to make scores stable across refits.
		if sum < 0 {
			for j := range loading {
				loading[j] = -loading[j]
			}
		}

		col := make([]float64, n)
		for i := 0; i < n; i++ {
			// u1 * sigma1 equals the centered submatrix projected on v1.
			s0 := 0.0
			for j := 0; j < m; j++ {
				s0 += sub.At(i, j) * loading[j]
			}
			col[i] = s0
		}
		scores[p] = col
		s.means[p] = means
		s.loadings[p] = loading
		for j, name := range cp.columns {
			imp := loading[j]
			if imp < 0 {
				imp = -imp
			}
			s.importance = append(s.importance, MoleculeImportance{
				Pathway:    cp.id,
				Molecule:   name,
				Importance: imp,
			})
		}
	}
	return scoreTable(t, pathways, scores)
}

// Transform projects new samples with the loadings and column means learned
// during FitTransform.
func (s *SVD) Transform(t *omics.Table) (*omics.Table, error) {
	if s.pathways == nil {
		return nil, errors.New(errors.ErrCodeNotFitted, "svd scoring: not fitted")
	}
	n := t.NumSamples()
	scores := make([][]float64, len(s.pathways))
	for p, cp := range s.pathways {
		col := make([]float64, n)
		for j, name := range cp.columns {
			src, ok := t.ColumnIndex(name)
			if !ok {
				return nil, errors.Newf(errors.ErrCodeShapeMismatch,
					"svd scoring: column %q missing from transform input", name)
			}
			for i := 0; i < n; i++ {
				col[i] += (t.At(i, src) - s.means[p][j]) * s.loadings[p][j]
			}
		}
		scores[p] = col
	}
	return scoreTable(t, s.pathways, scores)
}

// MolecularImportance reports the absolute leading-component loading of every
// covered molecule.
func (s *SVD) MolecularImportance() []MoleculeImportance {
	out := make([]MoleculeImportance, len(s.importance))
	copy(out, s.importance)
	return out
}
