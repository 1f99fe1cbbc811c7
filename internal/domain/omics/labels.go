package omics

import (
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// Labels is a sample-indexed categorical series holding phenotype classes or
// any other per-sample annotation used by supervised and unsupervised fits.
type Labels struct {
	samples []string
	values  []string
	idx     map[string]int
}

// NewLabels constructs a Labels series.  Sample identifiers must be unique
// and values must cover every sample.
func NewLabels(samples, values []string) (*Labels, error) {
	if len(samples) != len(values) {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"labels expect %d values, got %d", len(samples), len(values))
	}
	idx, err := buildIndex(samples, errors.ErrCodeDuplicateSample)
	if err != nil {
		return nil, err
	}
	return &Labels{
		samples: append([]string(nil), samples...),
		values:  append([]string(nil), values...),
		idx:     idx,
	}, nil
}

// Len returns the number of labelled samples.
func (l *Labels) Len() int { return len(l.samples) }

// Samples returns a copy of the sample identifiers in order.
func (l *Labels) Samples() []string { return append([]string(nil), l.samples...) }

// Values returns a copy of the label values in sample order.
func (l *Labels) Values() []string { return append([]string(nil), l.values...) }

// Value returns the label of the given sample, if present.
func (l *Labels) Value(sample string) (string, bool) {
	i, ok := l.idx[sample]
	if !ok {
		return "", false
	}
	return l.values[i], true
}

// Select returns a Labels series restricted to the given samples in the
// given order.  The receiver's index must be a superset of ids; a missing
// sample fails with ErrCodeShapeMismatch because it means the metadata does
// not cover the aligned sample set.
func (l *Labels) Select(ids []string) (*Labels, error) {
	values := make([]string, len(ids))
	for k, id := range ids {
		i, ok := l.idx[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeShapeMismatch,
				"metadata does not cover aligned sample").WithDetail(id)
		}
		values[k] = l.values[i]
	}
	return NewLabels(ids, values)
}

// Factorize converts the categorical values into integer codes with a stable
// mapping in first-seen order, returning the codes and the class names such
// that classes[code[i]] == value of sample i.
func (l *Labels) Factorize() ([]int, []string) {
	codes := make([]int, len(l.values))
	classIdx := make(map[string]int)
	classes := make([]string, 0)
	for i, v := range l.values {
		c, ok := classIdx[v]
		if !ok {
			c = len(classes)
			classIdx[v] = c
			classes = append(classes, v)
		}
		codes[i] = c
	}
	return codes, classes
}
