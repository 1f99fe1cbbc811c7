package scoring

import (
	"math"
	"sort"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
)

// ssGSEA rank weighting exponent.
const ssgseaAlpha = 0.25

// SSGSEA computes single-sample gene set enrichment scores. For each sample,
// molecules are ranked by value and a weighted running sum is accumulated up
// and down the ranking; the pathway score is the integrated difference between
// the in-set and out-of-set distributions.
type SSGSEA struct {
	cat         *pathway.Catalog
	minCoverage int
}

// NewSSGSEA builds an ssGSEA strategy. It satisfies the Factory signature.
func NewSSGSEA(cat *pathway.Catalog, minCoverage int) Strategy {
	return &SSGSEA{cat: cat, minCoverage: minCoverage}
}

// FitTransform scores every sample independently; no state is retained, so
// the strategy does not offer a Transform capability.
func (s *SSGSEA) FitTransform(t *omics.Table) (*omics.Table, error) {
	pathways, err := coveredPathways(s.cat, s.minCoverage, t)
	if err != nil {
		return nil, err
	}

	n := t.NumSamples()
	total := t.NumColumns()

	// Per-pathway membership over the table's column indices.
	members := make([]map[int]bool, len(pathways))
	for p, cp := range pathways {
		members[p] = make(map[int]bool, len(cp.colIdx))
		for _, c := range cp.colIdx {
			members[p][c] = true
		}
	}

	scores := make([][]float64, len(pathways))
	for p := range scores {
		scores[p] = make([]float64, n)
	}

	order := make([]int, total)
	for i := 0; i < n; i++ {
		for j := range order {
			order[j] = j
		}
		// Rank columns by decreasing value within this sample.
		sort.SliceStable(order, func(a, b int) bool {
			return t.At(i, order[a]) > t.At(i, order[b])
		})

		for p, cp := range pathways {
			inWeight := 0.0
			for _, c := range cp.colIdx {
				inWeight += math.Pow(math.Abs(t.At(i, c)), ssgseaAlpha)
			}
			if inWeight == 0 {
				continue
			}
			missStep := 0.0
			if miss := total - len(cp.colIdx); miss > 0 {
				missStep = 1.0 / float64(miss)
			}

			running := 0.0
			es := 0.0
			for _, c := range order {
				if members[p][c] {
					running += math.Pow(math.Abs(t.At(i, c)), ssgseaAlpha) / inWeight
				} else {
					running -= missStep
				}
				es += running
			}
			scores[p][i] = es / float64(total)
		}
	}
	return scoreTable(t, pathways, scores)
}
