package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// tightBlobs is two compact, well-separated clusters with known labels.
func tightBlobs() (*mat.Dense, []int) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0.1, 0,
		0, 0.1,
		10, 10,
		10.1, 10,
		10, 10.1,
	})
	return X, []int{0, 0, 0, 1, 1, 1}
}

func TestSilhouette(t *testing.T) {
	X, labels := tightBlobs()
	s, err := Silhouette(X, labels)
	require.NoError(t, err)
	assert.Greater(t, s, 0.9)

	// Deliberately bad partition scores much worse.
	bad := []int{0, 1, 0, 1, 0, 1}
	sBad, err := Silhouette(X, bad)
	require.NoError(t, err)
	assert.Less(t, sBad, s)
}

func TestSilhouette_Errors(t *testing.T) {
	X, _ := tightBlobs()
	_, err := Silhouette(X, []int{0, 0})
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))

	_, err = Silhouette(X, []int{0, 0, 0, 0, 0, 0})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestCalinskiHarabasz(t *testing.T) {
	X, labels := tightBlobs()
	good, err := CalinskiHarabasz(X, labels)
	require.NoError(t, err)

	bad, err := CalinskiHarabasz(X, []int{0, 1, 0, 1, 0, 1})
	require.NoError(t, err)
	assert.Greater(t, good, bad)
}

func TestDaviesBouldin(t *testing.T) {
	X, labels := tightBlobs()
	good, err := DaviesBouldin(X, labels)
	require.NoError(t, err)

	bad, err := DaviesBouldin(X, []int{0, 1, 0, 1, 0, 1})
	require.NoError(t, err)
	assert.Less(t, good, bad) // lower is better
}

func TestAdjustedRandIndex(t *testing.T) {
	a := []int{0, 0, 1, 1, 2, 2}

	// Identical mod relabeling.
	b := []int{5, 5, 9, 9, 0, 0}
	ari, err := AdjustedRandIndex(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ari, 1e-12)

	// Disagreement lowers the score.
	c := []int{0, 1, 0, 1, 0, 1}
	ari2, err := AdjustedRandIndex(a, c)
	require.NoError(t, err)
	assert.Less(t, ari2, 0.5)

	_, err = AdjustedRandIndex(a, []int{0})
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))
}
