package integrate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

func TestVIPMultiBlock_SingleComponentClosedForm(t *testing.T) {
	// One component: the sum-of-squares factor cancels and
	// vip_j = sqrt(p) * |w_j| for a unit-norm weight vector.
	w := []float64{0.8, 0.6, 0}
	weights := mat.NewDense(3, 1, w)
	scores := mat.NewDense(4, 1, []float64{1, -1, 2, -2})
	outcome := []float64{0.5}

	vip, err := VIPMultiBlock(weights, scores, outcome)
	require.NoError(t, err)
	require.Len(t, vip, 3)
	for j, wj := range w {
		assert.InDelta(t, math.Sqrt(3)*math.Abs(wj), vip[j], 1e-12, "feature %d", j)
	}
}

func TestVIPMultiBlock_UniformWeightsGiveUnitVIP(t *testing.T) {
	// Equal squared weights across features make every VIP exactly 1.
	p := 4
	val := 1 / math.Sqrt(float64(p))
	weights := mat.NewDense(p, 2, []float64{
		val, val,
		val, -val,
		-val, val,
		-val, -val,
	})
	scores := mat.NewDense(3, 2, []float64{1, 2, -1, 1, 0, -3})
	outcome := []float64{0.7, 0.2}

	vip, err := VIPMultiBlock(weights, scores, outcome)
	require.NoError(t, err)
	for j, v := range vip {
		assert.InDelta(t, 1, v, 1e-12, "feature %d", j)
	}
}

func TestVIPMultiBlock_Errors(t *testing.T) {
	weights := mat.NewDense(2, 1, []float64{1, 0})
	scores := mat.NewDense(3, 2, nil)

	_, err := VIPMultiBlock(weights, scores, []float64{1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))

	_, err = VIPMultiBlock(nil, scores, []float64{1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	zeroScores := mat.NewDense(3, 1, nil)
	_, err = VIPMultiBlock(weights, zeroScores, []float64{0})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestZScoreInPlace(t *testing.T) {
	v := []float64{2, 4, 6}
	zscoreInPlace(v)
	assert.InDelta(t, 0, v[0]+v[1]+v[2], 1e-12)
	assert.InDelta(t, -v[0], v[2], 1e-12)

	flat := []float64{3, 3, 3}
	zscoreInPlace(flat)
	assert.Equal(t, []float64{0, 0, 0}, flat)
}
