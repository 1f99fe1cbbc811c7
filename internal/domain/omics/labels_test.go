package omics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

func TestNewLabels_Validation(t *testing.T) {
	_, err := NewLabels([]string{"s1"}, []string{"a", "b"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))

	_, err = NewLabels([]string{"s1", "s1"}, []string{"a", "b"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateSample))
}

func TestLabels_Value(t *testing.T) {
	l, err := NewLabels([]string{"s1", "s2"}, []string{"case", "control"})
	require.NoError(t, err)

	v, ok := l.Value("s2")
	require.True(t, ok)
	assert.Equal(t, "control", v)

	_, ok = l.Value("s9")
	assert.False(t, ok)
}

func TestLabels_Factorize_FirstSeenOrder(t *testing.T) {
	l, err := NewLabels(
		[]string{"s1", "s2", "s3", "s4", "s5"},
		[]string{"control", "case", "control", "relapse", "case"})
	require.NoError(t, err)

	codes, classes := l.Factorize()
	assert.Equal(t, []int{0, 1, 0, 2, 1}, codes)
	assert.Equal(t, []string{"control", "case", "relapse"}, classes)
}

func TestLabels_Select(t *testing.T) {
	l, err := NewLabels([]string{"s1", "s2", "s3"}, []string{"a", "b", "c"})
	require.NoError(t, err)

	sel, err := l.Select([]string{"s3", "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.Values())

	_, err = l.Select([]string{"s4"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))
}
