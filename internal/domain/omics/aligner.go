package omics

import (
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// Align intersects the sample identifiers of all tables and filters every
// table and metadata series to exactly that intersection, leaving each
// table's column set untouched.
//
// The output row order is explicit and stable: the first table's sample order
// restricted to the intersection.  With a single table no filtering occurs
// and inputs are returned as-is.  An empty intersection fails with
// ErrCodeEmptyIntersection rather than producing empty tables.
//
// labelSets may be nil or shorter than tables; every non-nil series supplied
// is filtered to the same intersection and must cover it entirely.
func Align(tables []*Table, labelSets []*Labels) ([]*Table, []*Labels, error) {
	if len(tables) == 0 {
		return nil, nil, errors.New(errors.ErrCodeShapeMismatch, "at least one omics table is required")
	}
	if len(tables) == 1 {
		return tables, labelSets, nil
	}

	common := Intersection(tables)
	if len(common) == 0 {
		return nil, nil, errors.New(errors.ErrCodeEmptyIntersection,
			"no sample identifiers are shared by all omics blocks")
	}

	outTables := make([]*Table, len(tables))
	for i, t := range tables {
		ft, err := t.SelectSamples(common)
		if err != nil {
			return nil, nil, err
		}
		outTables[i] = ft
	}

	outLabels := make([]*Labels, len(labelSets))
	for i, l := range labelSets {
		if l == nil {
			continue
		}
		fl, err := l.Select(common)
		if err != nil {
			return nil, nil, err
		}
		outLabels[i] = fl
	}
	return outTables, outLabels, nil
}

// Intersection returns the sample identifiers present in every table, in the
// first table's row order.  The ordering is deliberate: it does not depend
// on map iteration order, so repeated calls over the same inputs yield the
// same sequence.
func Intersection(tables []*Table) []string {
	if len(tables) == 0 {
		return nil
	}
	common := make([]string, 0, tables[0].NumSamples())
	for _, id := range tables[0].samples {
		inAll := true
		for _, t := range tables[1:] {
			if _, ok := t.sampleIdx[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, id)
		}
	}
	return common
}
