// Package decompose provides dimensionality-reduction estimators.
package decompose

import (
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// PCA projects samples onto the leading principal components of the centered
// data via a thin singular value decomposition.
type PCA struct {
	// NComponents is the requested number of components; it is clamped to
	// min(samples, features) during fit.
	NComponents int

	means    []float64
	comps    *mat.Dense // k x p, rows are unit principal axes
	variance []float64
	ratios   []float64
	fitted   bool
}

// NewPCA creates a PCA reducer retaining n components.
func NewPCA(n int) *PCA {
	return &PCA{NComponents: n}
}

// FitTransform fits the decomposition on X (samples x features) and returns
// the reduced coordinates (samples x k).
func (p *PCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "pca input must not be empty")
	}
	if p.NComponents < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidComponents, "pca requires at least 1 component, got %d", p.NComponents)
	}
	k := p.NComponents
	if mx := min(n, d); k > mx {
		k = mx
	}

	// Center columns.
	p.means = make([]float64, d)
	for j := 0; j < d; j++ {
		s := 0.0
		for i := 0; i < n; i++ {
			s += X.At(i, j)
		}
		p.means[j] = s / float64(n)
	}
	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, X.At(i, j)-p.means[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, errors.New(errors.ErrCodeFitFailed, "pca: singular value decomposition did not converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := svd.Values(nil)

	// Explained variance per component and the total over all of them.
	denom := float64(n - 1)
	if n < 2 {
		denom = 1
	}
	total := 0.0
	all := make([]float64, len(sigma))
	for i, s := range sigma {
		all[i] = s * s / denom
		total += all[i]
	}

	p.variance = all[:k]
	p.ratios = make([]float64, k)
	for i := 0; i < k; i++ {
		if total > 0 {
			p.ratios[i] = p.variance[i] / total
		}
	}

	p.comps = mat.NewDense(k, d, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < d; j++ {
			p.comps.Set(i, j, v.At(j, i))
		}
	}

	scores := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			scores.Set(i, c, u.At(i, c)*sigma[c])
		}
	}
	p.fitted = true
	return scores, nil
}

// ExplainedVarianceRatio returns the fraction of total variance captured by
// each retained component, in component order.
func (p *PCA) ExplainedVarianceRatio() []float64 {
	return append([]float64(nil), p.ratios...)
}

// Components returns the fitted k x p matrix of principal axes, or nil if
// the reducer has not been fitted.
func (p *PCA) Components() *mat.Dense {
	if !p.fitted {
		return nil
	}
	return mat.DenseCopyOf(p.comps)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
