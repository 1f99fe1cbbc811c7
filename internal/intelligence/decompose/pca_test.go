package decompose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

func TestPCA_VarianceOrdering(t *testing.T) {
	// Points spread along a dominant axis with small orthogonal noise.
	X := mat.NewDense(6, 2, []float64{
		-3, -0.1,
		-2, 0.1,
		-1, -0.05,
		1, 0.05,
		2, -0.1,
		3, 0.1,
	})

	pca := NewPCA(2)
	scores, err := pca.FitTransform(X)
	require.NoError(t, err)

	n, k := scores.Dims()
	assert.Equal(t, 6, n)
	assert.Equal(t, 2, k)

	ratios := pca.ExplainedVarianceRatio()
	require.Len(t, ratios, 2)
	assert.Greater(t, ratios[0], ratios[1])
	assert.Greater(t, ratios[0], 0.95)
	assert.InDelta(t, 1.0, ratios[0]+ratios[1], 1e-9)
}

func TestPCA_ScoresAreCentered(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 4,
		3, 30, 3,
		4, 40, 2,
	})
	pca := NewPCA(2)
	scores, err := pca.FitTransform(X)
	require.NoError(t, err)

	_, k := scores.Dims()
	for c := 0; c < k; c++ {
		sum := 0.0
		for i := 0; i < 4; i++ {
			sum += scores.At(i, c)
		}
		assert.InDelta(t, 0, sum, 1e-9)
	}
}

func TestPCA_ComponentsAreUnitVectors(t *testing.T) {
	X := mat.NewDense(5, 3, []float64{
		1, 0, 2,
		2, 1, 1,
		3, 0, 4,
		4, 1, 3,
		5, 0, 6,
	})
	pca := NewPCA(2)
	_, err := pca.FitTransform(X)
	require.NoError(t, err)

	comps := pca.Components()
	require.NotNil(t, comps)
	k, d := comps.Dims()
	for i := 0; i < k; i++ {
		norm := 0.0
		for j := 0; j < d; j++ {
			norm += comps.At(i, j) * comps.At(i, j)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	}
}

func TestPCA_ClampsComponents(t *testing.T) {
	X := mat.NewDense(3, 5, []float64{
		1, 2, 3, 4, 5,
		2, 3, 4, 5, 6,
		9, 1, 2, 2, 1,
	})
	pca := NewPCA(10)
	scores, err := pca.FitTransform(X)
	require.NoError(t, err)
	_, k := scores.Dims()
	assert.Equal(t, 3, k)
}

func TestPCA_Errors(t *testing.T) {
	_, err := NewPCA(0).FitTransform(mat.NewDense(2, 2, nil))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidComponents))

	assert.Nil(t, NewPCA(2).Components())
}
