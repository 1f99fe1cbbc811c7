package omics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

func mustTable(t *testing.T, name string, samples, columns []string, values []float64) *Table {
	t.Helper()
	tab, err := NewTable(name, samples, columns, values)
	require.NoError(t, err)
	return tab
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name     string
		samples  []string
		columns  []string
		values   []float64
		wantCode errors.ErrorCode
	}{
		{
			name:     "value count mismatch",
			samples:  []string{"s1", "s2"},
			columns:  []string{"m1"},
			values:   []float64{1},
			wantCode: errors.ErrCodeShapeMismatch,
		},
		{
			name:     "duplicate sample",
			samples:  []string{"s1", "s1"},
			columns:  []string{"m1"},
			values:   []float64{1, 2},
			wantCode: errors.ErrCodeDuplicateSample,
		},
		{
			name:     "duplicate column",
			samples:  []string{"s1"},
			columns:  []string{"m1", "m1"},
			values:   []float64{1, 2},
			wantCode: errors.ErrCodeDuplicateColumn,
		},
		{
			name:     "empty",
			samples:  nil,
			columns:  []string{"m1"},
			values:   nil,
			wantCode: errors.ErrCodeShapeMismatch,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable("b", tc.samples, tc.columns, tc.values)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.wantCode))
		})
	}
}

func TestTable_Accessors(t *testing.T) {
	tab := mustTable(t, "metab", []string{"s1", "s2"}, []string{"m1", "m2", "m3"},
		[]float64{1, 2, 3, 4, 5, 6})

	assert.Equal(t, "metab", tab.Name())
	assert.Equal(t, 2, tab.NumSamples())
	assert.Equal(t, 3, tab.NumColumns())
	assert.Equal(t, 6.0, tab.At(1, 2))
	assert.True(t, tab.HasColumn("m2"))
	assert.False(t, tab.HasColumn("m9"))

	col, ok := tab.Column("m2")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 5}, col)

	j, ok := tab.ColumnIndex("m3")
	require.True(t, ok)
	assert.Equal(t, 2, j)

	i, ok := tab.SampleIndex("s2")
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestTable_DenseIsACopy(t *testing.T) {
	tab := mustTable(t, "b", []string{"s1"}, []string{"m1"}, []float64{7})
	d := tab.Dense()
	d.Set(0, 0, -1)
	assert.Equal(t, 7.0, tab.At(0, 0))
}

func TestTable_Scaled(t *testing.T) {
	tab := mustTable(t, "b", []string{"s1", "s2", "s3", "s4"}, []string{"m1", "m2"},
		[]float64{
			1, 5,
			2, 5,
			3, 5,
			4, 5,
		})
	scaled := tab.Scaled()

	// Column m1 has mean 2.5 and population std sqrt(1.25).
	std := math.Sqrt(1.25)
	assert.InDelta(t, (1-2.5)/std, scaled.At(0, 0), 1e-12)
	assert.InDelta(t, (4-2.5)/std, scaled.At(3, 0), 1e-12)

	// Column sums to zero after centering.
	sum := 0.0
	for i := 0; i < 4; i++ {
		sum += scaled.At(i, 0)
	}
	assert.InDelta(t, 0, sum, 1e-12)

	// Constant column is centered only.
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0, scaled.At(i, 1), 1e-12)
	}

	// Source table untouched.
	assert.Equal(t, 1.0, tab.At(0, 0))
}

func TestTable_SelectSamples(t *testing.T) {
	tab := mustTable(t, "b", []string{"s1", "s2", "s3"}, []string{"m1"}, []float64{1, 2, 3})

	sel, err := tab.SelectSamples([]string{"s3", "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "s1"}, sel.Samples())
	assert.Equal(t, 3.0, sel.At(0, 0))
	assert.Equal(t, 1.0, sel.At(1, 0))

	_, err = tab.SelectSamples([]string{"s9"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownSample))
}

func TestTable_WithColumn(t *testing.T) {
	tab := mustTable(t, "b", []string{"s1", "s2"}, []string{"m1"}, []float64{1, 2})

	ext, err := tab.WithColumn("Group", []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "Group"}, ext.Columns())
	assert.Equal(t, 1.0, ext.At(1, 1))
	assert.Equal(t, 1, tab.NumColumns())

	_, err = tab.WithColumn("m1", []float64{0, 0})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateColumn))

	_, err = tab.WithColumn("Group", []float64{0})
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))
}

func TestConcatColumns(t *testing.T) {
	a := mustTable(t, "metab", []string{"s1", "s2"}, []string{"m1", "m2"}, []float64{1, 2, 3, 4})
	b := mustTable(t, "prot", []string{"s1", "s2"}, []string{"p1"}, []float64{5, 6})

	cat, err := ConcatColumns("combined", a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "p1"}, cat.Columns())
	assert.Equal(t, 5.0, cat.At(0, 2))
	assert.Equal(t, []string{"s1", "s2"}, cat.Samples())
}

func TestConcatColumns_Collision(t *testing.T) {
	a := mustTable(t, "metab", []string{"s1"}, []string{"m1"}, []float64{1})
	b := mustTable(t, "prot", []string{"s1"}, []string{"m1"}, []float64{2})

	_, err := ConcatColumns("combined", a, b)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeColumnCollision))
}

func TestConcatColumns_SampleOrderMismatch(t *testing.T) {
	a := mustTable(t, "metab", []string{"s1", "s2"}, []string{"m1"}, []float64{1, 2})
	b := mustTable(t, "prot", []string{"s2", "s1"}, []string{"p1"}, []float64{3, 4})

	_, err := ConcatColumns("combined", a, b)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeMismatch))
}
