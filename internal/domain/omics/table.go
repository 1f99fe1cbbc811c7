// Package omics defines the in-memory tabular data model shared by the whole
// toolkit: sample-indexed, molecule-columned numeric tables, categorical
// sample labels, and the sample aligner used to reconcile several omics
// blocks measured on overlapping sample sets.
package omics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// Table is an immutable sample-by-molecule numeric matrix.  Row identifiers
// (samples) and column identifiers (molecules) are unique; every transform
// returns a new Table, the receiver is never mutated.
type Table struct {
	name      string
	samples   []string
	columns   []string
	sampleIdx map[string]int
	colIdx    map[string]int
	data      *mat.Dense
}

func buildIndex(ids []string, dupCode errors.ErrorCode) (map[string]int, error) {
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := idx[id]; ok {
			return nil, errors.New(dupCode, "duplicate identifier").WithDetail(id)
		}
		idx[id] = i
	}
	return idx, nil
}

// NewTable constructs a Table from row-major values.  len(values) must equal
// len(samples)*len(columns); sample and column identifiers must be unique.
func NewTable(name string, samples, columns []string, values []float64) (*Table, error) {
	n, p := len(samples), len(columns)
	if n == 0 || p == 0 {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "omics table requires at least one sample and one column")
	}
	if len(values) != n*p {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"omics table %q expects %d values, got %d", name, n*p, len(values))
	}
	sIdx, err := buildIndex(samples, errors.ErrCodeDuplicateSample)
	if err != nil {
		return nil, err
	}
	cIdx, err := buildIndex(columns, errors.ErrCodeDuplicateColumn)
	if err != nil {
		return nil, err
	}
	data := mat.NewDense(n, p, nil)
	copy(data.RawMatrix().Data, values)
	return &Table{
		name:      name,
		samples:   append([]string(nil), samples...),
		columns:   append([]string(nil), columns...),
		sampleIdx: sIdx,
		colIdx:    cIdx,
		data:      data,
	}, nil
}

// FromDense constructs a Table that takes ownership of m.  The caller must
// not retain or mutate m afterwards.
func FromDense(name string, samples, columns []string, m *mat.Dense) (*Table, error) {
	n, p := m.Dims()
	if n != len(samples) || p != len(columns) {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"matrix is %dx%d but %d samples and %d columns were supplied", n, p, len(samples), len(columns))
	}
	sIdx, err := buildIndex(samples, errors.ErrCodeDuplicateSample)
	if err != nil {
		return nil, err
	}
	cIdx, err := buildIndex(columns, errors.ErrCodeDuplicateColumn)
	if err != nil {
		return nil, err
	}
	return &Table{
		name:      name,
		samples:   append([]string(nil), samples...),
		columns:   append([]string(nil), columns...),
		sampleIdx: sIdx,
		colIdx:    cIdx,
		data:      m,
	}, nil
}

// Name returns the block name of the table (e.g., "metabolomics").
func (t *Table) Name() string { return t.name }

// Rename returns a copy of the table carrying a different block name.
func (t *Table) Rename(name string) *Table {
	c := t.shallowCopy()
	c.name = name
	return c
}

// NumSamples returns the number of rows.
func (t *Table) NumSamples() int { return len(t.samples) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Samples returns a copy of the sample identifiers in row order.
func (t *Table) Samples() []string { return append([]string(nil), t.samples...) }

// Columns returns a copy of the column identifiers in column order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// SampleAt returns the sample identifier of row i.
func (t *Table) SampleAt(i int) string { return t.samples[i] }

// ColumnAt returns the column identifier of column j.
func (t *Table) ColumnAt(j int) string { return t.columns[j] }

// At returns the value at row i, column j.
func (t *Table) At(i, j int) float64 { return t.data.At(i, j) }

// HasColumn reports whether the table contains the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// ColumnIndex returns the position of the named column, if present.
func (t *Table) ColumnIndex(name string) (int, bool) {
	j, ok := t.colIdx[name]
	return j, ok
}

// SampleIndex returns the row position of the named sample, if present.
func (t *Table) SampleIndex(id string) (int, bool) {
	i, ok := t.sampleIdx[id]
	return i, ok
}

// Column returns a copy of the named column's values in row order.
func (t *Table) Column(name string) ([]float64, bool) {
	j, ok := t.colIdx[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(t.samples))
	mat.Col(out, j, t.data)
	return out, true
}

// Dense returns a copy of the backing matrix.  Mutating the copy does not
// affect the table.
func (t *Table) Dense() *mat.Dense {
	return mat.DenseCopyOf(t.data)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := t.shallowCopy()
	c.data = mat.DenseCopyOf(t.data)
	return c
}

func (t *Table) shallowCopy() *Table {
	return &Table{
		name:      t.name,
		samples:   t.samples,
		columns:   t.columns,
		sampleIdx: t.sampleIdx,
		colIdx:    t.colIdx,
		data:      t.data,
	}
}

// columnStats returns the mean and population standard deviation of column j.
func (t *Table) columnStats(j int) (mean, std float64) {
	n := len(t.samples)
	for i := 0; i < n; i++ {
		mean += t.data.At(i, j)
	}
	mean /= float64(n)
	for i := 0; i < n; i++ {
		d := t.data.At(i, j) - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(n))
	return mean, std
}

// ColumnStd returns the population standard deviation of the named column.
func (t *Table) ColumnStd(name string) (float64, bool) {
	j, ok := t.colIdx[name]
	if !ok {
		return 0, false
	}
	_, std := t.columnStats(j)
	return std, true
}

// Scaled returns a derivative table with every column transformed to zero
// mean and unit variance (population standard deviation).  Constant columns
// are centered only, matching the behaviour of standard scalers that treat a
// zero variance as a unit scale.
func (t *Table) Scaled() *Table {
	n, p := t.data.Dims()
	out := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		mean, std := t.columnStats(j)
		if std == 0 {
			std = 1
		}
		for i := 0; i < n; i++ {
			out.Set(i, j, (t.data.At(i, j)-mean)/std)
		}
	}
	c := t.shallowCopy()
	c.data = out
	return c
}

// SelectSamples returns a table restricted to the given samples, in the
// given order.  Unknown sample identifiers fail with ErrCodeUnknownSample.
func (t *Table) SelectSamples(ids []string) (*Table, error) {
	rows := make([]int, len(ids))
	for k, id := range ids {
		i, ok := t.sampleIdx[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownSample, "sample not present in table "+t.name).WithDetail(id)
		}
		rows[k] = i
	}
	p := len(t.columns)
	out := mat.NewDense(len(ids), p, nil)
	for k, i := range rows {
		out.SetRow(k, t.data.RawRowView(i))
	}
	return FromDense(t.name, ids, t.columns, out)
}

// WithColumn returns a table with one additional column appended.  The new
// column name must not collide with an existing one and values must cover
// every sample in row order.
func (t *Table) WithColumn(name string, values []float64) (*Table, error) {
	if t.HasColumn(name) {
		return nil, errors.New(errors.ErrCodeDuplicateColumn, "column already present").WithDetail(name)
	}
	if len(values) != len(t.samples) {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"column %q expects %d values, got %d", name, len(t.samples), len(values))
	}
	n, p := t.data.Dims()
	out := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		copy(out.RawRowView(i)[:p], t.data.RawRowView(i))
		out.Set(i, p, values[i])
	}
	cols := append(t.Columns(), name)
	return FromDense(t.name, t.samples, cols, out)
}

// ConcatColumns merges the tables column-wise into one table named name.
// All tables must share the same samples in the same row order
// (ErrCodeShapeMismatch otherwise) and their column sets must be disjoint
// (ErrCodeColumnCollision otherwise).
func ConcatColumns(name string, tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "at least one table is required")
	}
	first := tables[0]
	total := 0
	for _, t := range tables {
		if t.NumSamples() != first.NumSamples() {
			return nil, errors.Newf(errors.ErrCodeShapeMismatch,
				"table %q has %d samples, expected %d", t.name, t.NumSamples(), first.NumSamples())
		}
		for i, id := range t.samples {
			if first.samples[i] != id {
				return nil, errors.New(errors.ErrCodeShapeMismatch,
					"sample order differs between blocks").WithDetail(t.name + ": " + id)
			}
		}
		total += t.NumColumns()
	}
	columns := make([]string, 0, total)
	seen := make(map[string]string, total)
	for _, t := range tables {
		for _, c := range t.columns {
			if prev, ok := seen[c]; ok {
				return nil, errors.New(errors.ErrCodeColumnCollision,
					"molecule identifier appears in multiple blocks").WithDetail(c + " in " + prev + " and " + t.name)
			}
			seen[c] = t.name
			columns = append(columns, c)
		}
	}
	n := first.NumSamples()
	out := mat.NewDense(n, total, nil)
	off := 0
	for _, t := range tables {
		p := t.NumColumns()
		for i := 0; i < n; i++ {
			copy(out.RawRowView(i)[off:off+p], t.data.RawRowView(i))
		}
		off += p
	}
	return FromDense(name, first.samples, columns, out)
}
