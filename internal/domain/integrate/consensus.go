package integrate

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// consensusMatrix runs the clusterer on nRuns random subsamples of X (a
// fraction of rows sampled without replacement) and accumulates, for every
// sample pair co-present in a run, how often the pair landed in the same
// cluster. The result is normalized by nRuns, giving pairwise agreement in
// [0,1]. Cluster index identity is arbitrary between runs, so the
// co-assignment matrix is the object that aggregates, not the labels.
func consensusMatrix(X mat.Matrix, factory ClustererFactory, nRuns int, fraction float64, rng *rand.Rand) (*mat.Dense, error) {
	n, _ := X.Dims()
	if nRuns < 1 {
		return nil, errors.Newf(errors.ErrCodeValidation, "consensus: n_runs must be >= 1, got %d", nRuns)
	}
	if fraction <= 0 || fraction > 1 {
		return nil, errors.Newf(errors.ErrCodeValidation,
			"consensus: subsample fraction must be in (0,1], got %g", fraction)
	}
	size := int(fraction * float64(n))
	if size < 1 {
		return nil, errors.New(errors.ErrCodeValidation, "consensus: subsample is empty")
	}

	out := mat.NewDense(n, n, nil)
	for run := 0; run < nRuns; run++ {
		idx := rng.Perm(n)[:size]
		sub := subsampleRows(X, idx)

		labels, err := factory().FitPredict(sub)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "consensus: subsample clustering failed")
		}
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				if labels[a] == labels[b] {
					out.Set(idx[a], idx[b], out.At(idx[a], idx[b])+1)
					out.Set(idx[b], idx[a], out.At(idx[b], idx[a])+1)
				}
			}
		}
	}
	out.Scale(1/float64(nRuns), out)
	return out, nil
}

func subsampleRows(X mat.Matrix, idx []int) *mat.Dense {
	_, d := X.Dims()
	out := mat.NewDense(len(idx), d, nil)
	for i, src := range idx {
		for j := 0; j < d; j++ {
			out.Set(i, j, X.At(src, j))
		}
	}
	return out
}
