package integrate

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// VIPMultiBlock computes variable-importance-in-projection scores for a
// fitted multi-block PLS model. weights is the stacked p-by-k weight matrix
// over all blocks, superScores the shared n-by-k latent score matrix and
// outcomeLoadings the k outcome regression loadings. The result preserves
// feature order:
//
//	vip_j = sqrt( p * Σ_k ss_k * w_jk² / Σ_k ss_k )
//	ss_k  = Σ_i t_ik² * v_k²
func VIPMultiBlock(weights, superScores mat.Matrix, outcomeLoadings []float64) ([]float64, error) {
	if weights == nil || superScores == nil {
		return nil, errors.New(errors.ErrCodeValidation, "vip: nil model matrices")
	}
	p, k := weights.Dims()
	n, sk := superScores.Dims()
	if sk != k || len(outcomeLoadings) != k {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"vip: weights have %d components, scores %d, outcome loadings %d",
			k, sk, len(outcomeLoadings))
	}
	if k == 0 || p == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "vip: empty model")
	}

	ss := make([]float64, k)
	total := 0.0
	for c := 0; c < k; c++ {
		sumT := 0.0
		for i := 0; i < n; i++ {
			t := superScores.At(i, c)
			sumT += t * t
		}
		ss[c] = sumT * outcomeLoadings[c] * outcomeLoadings[c]
		total += ss[c]
	}
	if total == 0 {
		return nil, errors.New(errors.ErrCodeValidation,
			"vip: zero total explained sum of squares")
	}

	out := make([]float64, p)
	for j := 0; j < p; j++ {
		acc := 0.0
		for c := 0; c < k; c++ {
			w := weights.At(j, c)
			acc += ss[c] * w * w
		}
		out[j] = math.Sqrt(float64(p) * acc / total)
	}
	return out, nil
}

// zscoreInPlace standardizes v with its own mean and population standard
// deviation; a zero-variance slice is left centered only.
func zscoreInPlace(v []float64) {
	if len(v) == 0 {
		return
	}
	mean := 0.0
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	ss := 0.0
	for _, x := range v {
		d := x - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(v)))
	if std == 0 {
		std = 1
	}
	for i := range v {
		v[i] = (v[i] - mean) / std
	}
}
