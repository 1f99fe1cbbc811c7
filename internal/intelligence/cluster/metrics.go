package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// Partition quality metrics
// ---------------------------------------------------------------------------

func rowsOf(X mat.Matrix) [][]float64 {
	n, p := X.Dims()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		r := make([]float64, p)
		for j := 0; j < p; j++ {
			r[j] = X.At(i, j)
		}
		rows[i] = r
	}
	return rows
}

func groupIndices(labels []int) map[int][]int {
	groups := make(map[int][]int)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	return groups
}

func centroidOf(rows [][]float64, idx []int) []float64 {
	p := len(rows[0])
	c := make([]float64, p)
	for _, i := range idx {
		for j, v := range rows[i] {
			c[j] += v
		}
	}
	for j := range c {
		c[j] /= float64(len(idx))
	}
	return c
}

// Silhouette returns the mean silhouette coefficient over all samples, in
// [-1, 1].  Higher is better.  It requires at least two clusters and fewer
// clusters than samples.
func Silhouette(X mat.Matrix, labels []int) (float64, error) {
	rows := rowsOf(X)
	if len(rows) != len(labels) {
		return 0, errors.Newf(errors.ErrCodeShapeMismatch,
			"silhouette: %d rows but %d labels", len(rows), len(labels))
	}
	groups := groupIndices(labels)
	if len(groups) < 2 || len(groups) >= len(rows) {
		return 0, errors.Newf(errors.ErrCodeValidation,
			"silhouette requires 2 <= clusters < samples, got %d clusters over %d samples",
			len(groups), len(rows))
	}

	total := 0.0
	for i, r := range rows {
		own := labels[i]
		a := 0.0
		b := math.Inf(1)
		for l, idx := range groups {
			sum, cnt := 0.0, 0
			for _, j := range idx {
				if j == i {
					continue
				}
				sum += math.Sqrt(sqDist(r, rows[j]))
				cnt++
			}
			if l == own {
				if cnt > 0 {
					a = sum / float64(cnt)
				}
			} else {
				if m := sum / float64(len(idx)); m < b {
					b = m
				}
			}
		}
		if len(groups[own]) > 1 {
			total += (b - a) / math.Max(a, b)
		}
	}
	return total / float64(len(rows)), nil
}

// CalinskiHarabasz returns the variance-ratio criterion: between-cluster
// dispersion over within-cluster dispersion, scaled by degrees of freedom.
// Higher is better.
func CalinskiHarabasz(X mat.Matrix, labels []int) (float64, error) {
	rows := rowsOf(X)
	if len(rows) != len(labels) {
		return 0, errors.Newf(errors.ErrCodeShapeMismatch,
			"calinski-harabasz: %d rows but %d labels", len(rows), len(labels))
	}
	groups := groupIndices(labels)
	k, n := len(groups), len(rows)
	if k < 2 || k >= n {
		return 0, errors.Newf(errors.ErrCodeValidation,
			"calinski-harabasz requires 2 <= clusters < samples, got %d over %d", k, n)
	}

	overall := centroidOf(rows, allIndices(n))
	between, within := 0.0, 0.0
	for _, idx := range groups {
		c := centroidOf(rows, idx)
		between += float64(len(idx)) * sqDist(c, overall)
		for _, i := range idx {
			within += sqDist(rows[i], c)
		}
	}
	if within == 0 {
		return math.Inf(1), nil
	}
	return (between / within) * (float64(n-k) / float64(k-1)), nil
}

// DaviesBouldin returns the mean over clusters of the worst-case ratio of
// within-cluster scatter to between-centroid separation.  Lower is better.
func DaviesBouldin(X mat.Matrix, labels []int) (float64, error) {
	rows := rowsOf(X)
	if len(rows) != len(labels) {
		return 0, errors.Newf(errors.ErrCodeShapeMismatch,
			"davies-bouldin: %d rows but %d labels", len(rows), len(labels))
	}
	groups := groupIndices(labels)
	if len(groups) < 2 {
		return 0, errors.New(errors.ErrCodeValidation, "davies-bouldin requires at least 2 clusters")
	}

	ids := make([]int, 0, len(groups))
	for l := range groups {
		ids = append(ids, l)
	}
	centroids := make(map[int][]float64, len(groups))
	scatter := make(map[int]float64, len(groups))
	for l, idx := range groups {
		c := centroidOf(rows, idx)
		centroids[l] = c
		s := 0.0
		for _, i := range idx {
			s += math.Sqrt(sqDist(rows[i], c))
		}
		scatter[l] = s / float64(len(idx))
	}

	db := 0.0
	for _, li := range ids {
		worst := 0.0
		for _, lj := range ids {
			if li == lj {
				continue
			}
			sep := math.Sqrt(sqDist(centroids[li], centroids[lj]))
			if sep == 0 {
				continue
			}
			if r := (scatter[li] + scatter[lj]) / sep; r > worst {
				worst = r
			}
		}
		db += worst
	}
	return db / float64(len(ids)), nil
}

// AdjustedRandIndex compares two partitions of the same samples, corrected
// for chance: 1.0 for identical partitions (mod relabeling), ~0 for random
// agreement.
func AdjustedRandIndex(a, b []int) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Newf(errors.ErrCodeShapeMismatch,
			"adjusted rand index: partitions have %d and %d samples", len(a), len(b))
	}
	n := len(a)
	if n == 0 {
		return 0, errors.New(errors.ErrCodeValidation, "adjusted rand index requires at least one sample")
	}

	contingency := make(map[[2]int]int)
	rowSums := make(map[int]int)
	colSums := make(map[int]int)
	for i := 0; i < n; i++ {
		contingency[[2]int{a[i], b[i]}]++
		rowSums[a[i]]++
		colSums[b[i]]++
	}

	comb2 := func(m int) float64 { return float64(m) * float64(m-1) / 2 }

	sumNij, sumAi, sumBj := 0.0, 0.0, 0.0
	for _, v := range contingency {
		sumNij += comb2(v)
	}
	for _, v := range rowSums {
		sumAi += comb2(v)
	}
	for _, v := range colSums {
		sumBj += comb2(v)
	}

	expected := sumAi * sumBj / comb2(n)
	maxIndex := (sumAi + sumBj) / 2
	if maxIndex == expected {
		return 1, nil
	}
	return (sumNij - expected) / (maxIndex - expected), nil
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
