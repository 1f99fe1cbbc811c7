// Package mbpls implements multi-block partial least squares regression for a
// single continuous outcome. Blocks are concatenated column-wise, deflated
// with NIPALS, and per-block weights and loadings are tracked so block-level
// importance can be derived afterwards.
package mbpls

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ----------------------------------------------------------------------------
// Model
// ----------------------------------------------------------------------------

// MBPLS fits a PLS1 model on the column-wise concatenation of the input
// blocks. Per-block slices of the weight and loading matrices are exposed so
// callers can attribute importance back to individual blocks.
type MBPLS struct {
	NComponents int

	blockSizes []int
	xMeans     []float64
	yMean      float64

	weights  *mat.Dense // p x k, concatenated-space weights
	loadings *mat.Dense // p x k, deflation loadings
	scores   *mat.Dense // n x k, super scores
	outcome  []float64  // k outcome loadings

	fitted int // components actually extracted
}

// New returns an unfitted model extracting nComponents latent variables.
func New(nComponents int) *MBPLS {
	return &MBPLS{NComponents: nComponents}
}

// Fit estimates the model from blocks sharing row order and a continuous
// outcome y. Extraction stops early if the residual no longer covaries with
// the outcome, in which case Components reports the achieved count.
func (m *MBPLS) Fit(blocks []mat.Matrix, y []float64) error {
	if m.NComponents < 1 {
		return errors.Newf(errors.ErrCodeInvalidComponents,
			"mbpls: n_components must be >= 1, got %d", m.NComponents)
	}
	if len(blocks) == 0 {
		return errors.New(errors.ErrCodeValidation, "mbpls: no blocks provided")
	}

	n := len(y)
	if n == 0 {
		return errors.New(errors.ErrCodeValidation, "mbpls: empty outcome")
	}
	m.blockSizes = make([]int, len(blocks))
	p := 0
	for b, blk := range blocks {
		rows, cols := blk.Dims()
		if rows != n {
			return errors.Newf(errors.ErrCodeShapeMismatch,
				"mbpls: block %d has %d rows, outcome has %d", b, rows, n)
		}
		if cols == 0 {
			return errors.Newf(errors.ErrCodeValidation, "mbpls: block %d has no columns", b)
		}
		m.blockSizes[b] = cols
		p += cols
	}
	k := m.NComponents
	if max := minInt(n-1, p); k > max {
		return errors.Newf(errors.ErrCodeInvalidComponents,
			"mbpls: n_components %d exceeds limit %d for %d samples and %d features", k, max, n, p)
	}

	// Concatenate and center.
	X := mat.NewDense(n, p, nil)
	off := 0
	for _, blk := range blocks {
		_, cols := blk.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < cols; j++ {
				X.Set(i, off+j, blk.At(i, j))
			}
		}
		off += cols
	}
	m.xMeans = make([]float64, p)
	for j := 0; j < p; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		mean := sum / float64(n)
		m.xMeans[j] = mean
		for i := 0; i < n; i++ {
			X.Set(i, j, X.At(i, j)-mean)
		}
	}
	m.yMean = 0
	for _, v := range y {
		m.yMean += v
	}
	m.yMean /= float64(n)
	yr := make([]float64, n)
	for i, v := range y {
		yr[i] = v - m.yMean
	}

	m.weights = mat.NewDense(p, k, nil)
	m.loadings = mat.NewDense(p, k, nil)
	m.scores = mat.NewDense(n, k, nil)
	m.outcome = make([]float64, k)
	m.fitted = 0

	w := make([]float64, p)
	t := make([]float64, n)
	for comp := 0; comp < k; comp++ {
		// w = X' y / ||X' y||
		norm := 0.0
		for j := 0; j < p; j++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += X.At(i, j) * yr[i]
			}
			w[j] = s
			norm += s * s
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			break
		}
		for j := range w {
			w[j] /= norm
		}

		// t = X w
		tt := 0.0
		for i := 0; i < n; i++ {
			s := 0.0
			for j := 0; j < p; j++ {
				s += X.At(i, j) * w[j]
			}
			t[i] = s
			tt += s * s
		}
		if tt < 1e-12 {
			break
		}

		// p_c = X' t / t't, v = y' t / t't, then deflate.
		v := 0.0
		for i := 0; i < n; i++ {
			v += yr[i] * t[i]
		}
		v /= tt
		for j := 0; j < p; j++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += X.At(i, j) * t[i]
			}
			load := s / tt
			m.loadings.Set(j, comp, load)
			m.weights.Set(j, comp, w[j])
			for i := 0; i < n; i++ {
				X.Set(i, j, X.At(i, j)-t[i]*load)
			}
		}
		for i := 0; i < n; i++ {
			m.scores.Set(i, comp, t[i])
			yr[i] -= v * t[i]
		}
		m.outcome[comp] = v
		m.fitted++
	}

	if m.fitted == 0 {
		return errors.New(errors.ErrCodeFitFailed,
			"mbpls: outcome is uncorrelated with all features")
	}
	return nil
}

// ----------------------------------------------------------------------------
// Accessors
// ----------------------------------------------------------------------------

// Components reports the number of latent variables actually extracted.
func (m *MBPLS) Components() int { return m.fitted }

// NumBlocks reports how many blocks the model was fitted on.
func (m *MBPLS) NumBlocks() int { return len(m.blockSizes) }

// BlockSizes returns the column count of each fitted block.
func (m *MBPLS) BlockSizes() []int {
	out := make([]int, len(m.blockSizes))
	copy(out, m.blockSizes)
	return out
}

// Weights returns the weight matrix over the concatenated feature space,
// one column per extracted component. Returns nil before fitting.
func (m *MBPLS) Weights() *mat.Dense {
	if m.fitted == 0 {
		return nil
	}
	p, _ := m.weights.Dims()
	return mat.DenseCopyOf(m.weights.Slice(0, p, 0, m.fitted))
}

// BlockWeights returns the weight rows belonging to one block.
func (m *MBPLS) BlockWeights(block int) (*mat.Dense, error) {
	lo, hi, err := m.blockRange(block)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(m.weights.Slice(lo, hi, 0, m.fitted)), nil
}

// BlockLoadings returns the deflation loading rows belonging to one block.
func (m *MBPLS) BlockLoadings(block int) (*mat.Dense, error) {
	lo, hi, err := m.blockRange(block)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(m.loadings.Slice(lo, hi, 0, m.fitted)), nil
}

// SuperScores returns the n x k matrix of latent scores.
func (m *MBPLS) SuperScores() *mat.Dense {
	if m.fitted == 0 {
		return nil
	}
	n, _ := m.scores.Dims()
	return mat.DenseCopyOf(m.scores.Slice(0, n, 0, m.fitted))
}

// OutcomeLoadings returns the per-component outcome regression loadings.
func (m *MBPLS) OutcomeLoadings() []float64 {
	if m.fitted == 0 {
		return nil
	}
	out := make([]float64, m.fitted)
	copy(out, m.outcome[:m.fitted])
	return out
}

func (m *MBPLS) blockRange(block int) (lo, hi int, err error) {
	if m.fitted == 0 {
		return 0, 0, errors.New(errors.ErrCodeNotFitted, "mbpls: model not fitted")
	}
	if block < 0 || block >= len(m.blockSizes) {
		return 0, 0, errors.Newf(errors.ErrCodeValidation,
			"mbpls: block index %d out of range [0,%d)", block, len(m.blockSizes))
	}
	for b := 0; b < block; b++ {
		lo += m.blockSizes[b]
	}
	return lo, lo + m.blockSizes[block], nil
}

// ----------------------------------------------------------------------------
// Prediction
// ----------------------------------------------------------------------------

// Predict projects new blocks through the fitted model and returns estimated
// outcome values. Blocks must match the fitted block column counts.
func (m *MBPLS) Predict(blocks []mat.Matrix) ([]float64, error) {
	if m.fitted == 0 {
		return nil, errors.New(errors.ErrCodeNotFitted, "mbpls: model not fitted")
	}
	if len(blocks) != len(m.blockSizes) {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"mbpls: expected %d blocks, got %d", len(m.blockSizes), len(blocks))
	}
	n := -1
	for b, blk := range blocks {
		rows, cols := blk.Dims()
		if cols != m.blockSizes[b] {
			return nil, errors.Newf(errors.ErrCodeShapeMismatch,
				"mbpls: block %d has %d columns, fitted with %d", b, cols, m.blockSizes[b])
		}
		if n == -1 {
			n = rows
		} else if rows != n {
			return nil, errors.New(errors.ErrCodeShapeMismatch, "mbpls: blocks disagree on row count")
		}
	}

	coef, err := m.regressionCoefficients()
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := m.yMean
		off := 0
		for b, blk := range blocks {
			for j := 0; j < m.blockSizes[b]; j++ {
				s += (blk.At(i, j) - m.xMeans[off+j]) * coef[off+j]
			}
			off += m.blockSizes[b]
		}
		out[i] = s
	}
	return out, nil
}

// regressionCoefficients computes B = W (P'W)^-1 v on the centered scale.
func (m *MBPLS) regressionCoefficients() ([]float64, error) {
	p, _ := m.weights.Dims()
	k := m.fitted

	W := m.weights.Slice(0, p, 0, k)
	P := m.loadings.Slice(0, p, 0, k)

	var pw mat.Dense
	pw.Mul(P.T(), W)
	var inv mat.Dense
	if err := inv.Inverse(&pw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "mbpls: singular loading-weight product")
	}

	v := mat.NewVecDense(k, m.outcome[:k])
	var rot mat.Dense
	rot.Mul(W, &inv)
	var coef mat.VecDense
	coef.MulVec(&rot, v)

	out := make([]float64, p)
	for j := 0; j < p; j++ {
		out[j] = coef.AtVec(j)
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
