package mbpls

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// linearProblem builds two blocks where the outcome depends only on the first
// column of the first block.
func linearProblem(n int) ([]mat.Matrix, []float64) {
	rng := rand.New(rand.NewSource(7))
	a := mat.NewDense(n, 3, nil)
	b := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
		for j := 0; j < 2; j++ {
			b.Set(i, j, rng.NormFloat64())
		}
		y[i] = 2*a.At(i, 0) + 1
	}
	return []mat.Matrix{a, b}, y
}

func TestMBPLS_RecoversLinearSignal(t *testing.T) {
	blocks, y := linearProblem(40)

	m := New(2)
	require.NoError(t, m.Fit(blocks, y))
	assert.Equal(t, 2, m.NumBlocks())
	assert.Equal(t, []int{3, 2}, m.BlockSizes())

	pred, err := m.Predict(blocks)
	require.NoError(t, err)
	for i, p := range pred {
		assert.InDelta(t, y[i], p, 0.05, "sample %d", i)
	}
}

func TestMBPLS_BlockAccessors(t *testing.T) {
	blocks, y := linearProblem(40)
	m := New(2)
	require.NoError(t, m.Fit(blocks, y))

	k := m.Components()
	require.GreaterOrEqual(t, k, 1)

	w0, err := m.BlockWeights(0)
	require.NoError(t, err)
	r, c := w0.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, k, c)

	w1, err := m.BlockWeights(1)
	require.NoError(t, err)
	r, _ = w1.Dims()
	assert.Equal(t, 2, r)

	// The informative feature carries the dominant first-component weight.
	for j := 1; j < 3; j++ {
		assert.Greater(t, abs(w0.At(0, 0)), abs(w0.At(j, 0)))
	}

	scores := m.SuperScores()
	n, sk := scores.Dims()
	assert.Equal(t, 40, n)
	assert.Equal(t, k, sk)
	assert.Len(t, m.OutcomeLoadings(), k)
}

func TestMBPLS_ScoresAreCentered(t *testing.T) {
	blocks, y := linearProblem(30)
	m := New(1)
	require.NoError(t, m.Fit(blocks, y))

	scores := m.SuperScores()
	sum := 0.0
	for i := 0; i < 30; i++ {
		sum += scores.At(i, 0)
	}
	assert.InDelta(t, 0, sum, 1e-8)
}

func TestMBPLS_Errors(t *testing.T) {
	blocks, y := linearProblem(10)

	err := New(0).Fit(blocks, y)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidComponents))

	err = New(50).Fit(blocks, y)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidComponents))

	err = New(1).Fit(blocks, y[:4])
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))

	m := New(1)
	_, err = m.Predict(blocks)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFitted))

	require.NoError(t, m.Fit(blocks, y))
	_, err = m.Predict(blocks[:1])
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))

	_, err = m.BlockWeights(5)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
