// Package integrate orchestrates pathway scoring and model fitting across one
// or more omics blocks. Models are injected through small capability
// interfaces; optional capabilities are detected with type assertions at fit
// time so incompatible models fail before any scoring work is done.
package integrate

import (
	"gonum.org/v1/gonum/mat"
)

// ─────────────────────────────────────────────────────────────────────────────
// Model capabilities
// ─────────────────────────────────────────────────────────────────────────────

// SupervisedModel fits a predictor on a score matrix and integer-coded labels
// delivered as float64 values.
type SupervisedModel interface {
	Fit(X mat.Matrix, y []float64) error
}

// Predictor is an optional supervised capability required by the
// cross-validation wrappers.
type Predictor interface {
	Predict(X mat.Matrix) ([]float64, error)
}

// Clusterer partitions rows of a matrix into integer-labelled clusters.
type Clusterer interface {
	FitPredict(X mat.Matrix) ([]int, error)
}

// ClustererFactory builds a fresh clustering model per consensus run; cluster
// state must not leak between runs.
type ClustererFactory func() Clusterer

// SizedClustererFactory builds a fresh clustering model for an explicit
// cluster count. Automatic count selection calls it once per candidate.
type SizedClustererFactory func(k int) Clusterer

// Reducer projects a matrix to a lower-dimensional coordinate system.
type Reducer interface {
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

// VarianceExplainer is an optional Reducer capability reporting per-component
// explained-variance fractions.
type VarianceExplainer interface {
	ExplainedVarianceRatio() []float64
}

// MultiBlockModel is a supervised projection model over several blocks that
// share row order. The weight, score and loading accessors expose what the
// VIP computation needs.
type MultiBlockModel interface {
	Fit(blocks []mat.Matrix, y []float64) error
	Predict(blocks []mat.Matrix) ([]float64, error)
	Weights() *mat.Dense
	SuperScores() *mat.Dense
	OutcomeLoadings() []float64
	BlockSizes() []int
}

// MultiBlockFactory builds a multi-block model with the requested number of
// latent components.
type MultiBlockFactory func(nComponents int) MultiBlockModel
