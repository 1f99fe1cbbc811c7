// Package scoring implements single-sample pathway scoring strategies. Each
// strategy turns a sample-by-molecule table into a sample-by-pathway score
// table restricted to pathways meeting a minimum coverage threshold.
package scoring

import (
	"math/rand"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Contracts
// ─────────────────────────────────────────────────────────────────────────────

// Strategy scores one omics table against a pathway catalog.
type Strategy interface {
	// FitTransform learns any per-column statistics from t and returns the
	// sample-by-pathway score table.
	FitTransform(t *omics.Table) (*omics.Table, error)
}

// Factory builds a fresh Strategy bound to a catalog and coverage threshold.
// The engine instantiates one strategy per block in multi-view mode.
type Factory func(cat *pathway.Catalog, minCoverage int) Strategy

// MoleculeImportance is one molecule's contribution to one pathway score.
type MoleculeImportance struct {
	Pathway    string
	Molecule   string
	Importance float64
}

// MolecularImportanceProvider is an optional strategy capability reporting
// per-molecule contributions after FitTransform.
type MolecularImportanceProvider interface {
	MolecularImportance() []MoleculeImportance
}

// Transformer is an optional strategy capability that applies statistics
// learned during FitTransform to new data. Cross-validated grid search
// requires it so test folds are scored with train-fold state only.
type Transformer interface {
	Transform(t *omics.Table) (*omics.Table, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Strategy registry
// ─────────────────────────────────────────────────────────────────────────────

// FactoryByName resolves a strategy factory from its configuration name.
func FactoryByName(name string) (Factory, error) {
	switch name {
	case "svd", "":
		return NewSVD, nil
	case "zscore":
		return NewZScore, nil
	case "ssgsea":
		return NewSSGSEA, nil
	case "clustpa":
		return func(cat *pathway.Catalog, minCoverage int) Strategy {
			return NewClustPA(cat, minCoverage)
		}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown scoring strategy %q", name)
	}
}

// seededClustPA returns a ClustPA factory with a fixed random source, used by
// tests and reproducible pipelines.
func seededClustPA(seed int64) Factory {
	return func(cat *pathway.Catalog, minCoverage int) Strategy {
		return NewClustPA(cat, minCoverage, WithClustRand(rand.New(rand.NewSource(seed))))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared coverage filtering
// ─────────────────────────────────────────────────────────────────────────────

// coveredPathway is one catalog entry restricted to the columns present in the
// table being scored.
type coveredPathway struct {
	id      string
	colIdx  []int
	columns []string
}

// coveredPathways lists the pathways whose molecule overlap with t meets the
// coverage threshold, in catalog order. An empty result is an error so callers
// never fit on a silently empty score table.
func coveredPathways(cat *pathway.Catalog, minCoverage int, t *omics.Table) ([]coveredPathway, error) {
	if cat == nil {
		return nil, errors.New(errors.ErrCodeValidation, "scoring: nil pathway catalog")
	}
	out := make([]coveredPathway, 0, cat.Len())
	for _, id := range cat.IDs() {
		cp := coveredPathway{id: id}
		for _, m := range cat.Molecules(id) {
			if j, ok := t.ColumnIndex(m); ok {
				cp.colIdx = append(cp.colIdx, j)
				cp.columns = append(cp.columns, m)
			}
		}
		if len(cp.colIdx) >= minCoverage {
			out = append(out, cp)
		}
	}
	if len(out) == 0 {
		return nil, errors.Newf(errors.ErrCodeCoverageEmpty,
			"scoring: no pathway meets coverage threshold %d on table %q", minCoverage, t.Name())
	}
	return out, nil
}

// scoreTable assembles the sample-by-pathway result preserving sample order.
func scoreTable(src *omics.Table, pathways []coveredPathway, scores [][]float64) (*omics.Table, error) {
	n := src.NumSamples()
	ids := make([]string, len(pathways))
	for i, cp := range pathways {
		ids[i] = cp.id
	}
	values := make([]float64, 0, n*len(pathways))
	for i := 0; i < n; i++ {
		for p := range pathways {
			values = append(values, scores[p][i])
		}
	}
	return omics.NewTable(src.Name(), src.Samples(), ids, values)
}
