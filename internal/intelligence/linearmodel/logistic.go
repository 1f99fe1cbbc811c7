// Package linearmodel implements logistic classifiers used as injected
// predictive capabilities by the integration engine.
package linearmodel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ----------------------------------------------------------------------------
// Binary logistic regression
// ----------------------------------------------------------------------------

// Logistic is a binary logistic regression classifier trained with full-batch
// gradient descent. Features are standardized internally so the step size is
// stable across differently scaled inputs. The loss is convex, so weights are
// zero-initialized and fitting is deterministic.
type Logistic struct {
	LearnRate float64
	MaxIter   int
	Tol       float64

	weights []float64
	bias    float64
	means   []float64
	stds    []float64
	fitted  bool
}

// Option configures a Logistic before fitting.
type Option func(*Logistic)

// WithLearnRate overrides the gradient step size.
func WithLearnRate(lr float64) Option {
	return func(m *Logistic) { m.LearnRate = lr }
}

// WithMaxIter overrides the iteration cap.
func WithMaxIter(n int) Option {
	return func(m *Logistic) { m.MaxIter = n }
}

// NewLogistic returns a binary classifier with sensible defaults.
func NewLogistic(opts ...Option) *Logistic {
	m := &Logistic{
		LearnRate: 0.1,
		MaxIter:   500,
		Tol:       1e-6,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Fit trains on X with labels y in {0, 1}.
func (m *Logistic) Fit(X mat.Matrix, y []float64) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return errors.New(errors.ErrCodeValidation, "logistic: empty training matrix")
	}
	if len(y) != n {
		return errors.Newf(errors.ErrCodeShapeMismatch,
			"logistic: %d labels for %d rows", len(y), n)
	}
	for _, v := range y {
		if v != 0 && v != 1 {
			return errors.New(errors.ErrCodeValidation, "logistic: labels must be 0 or 1")
		}
	}

	m.means, m.stds = columnStats(X)
	Z := standardize(X, m.means, m.stds)

	m.weights = make([]float64, d)
	m.bias = 0
	grad := make([]float64, d)

	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i := 0; i < n; i++ {
			z := m.bias
			for j := 0; j < d; j++ {
				z += m.weights[j] * Z.At(i, j)
			}
			d0 := sigmoid(z) - y[i]
			for j := 0; j < d; j++ {
				grad[j] += d0 * Z.At(i, j)
			}
			gb += d0
		}

		step := m.LearnRate / float64(n)
		maxDelta := 0.0
		for j := 0; j < d; j++ {
			delta := step * grad[j]
			m.weights[j] -= delta
			if a := math.Abs(delta); a > maxDelta {
				maxDelta = a
			}
		}
		m.bias -= step * gb
		if maxDelta < m.Tol {
			break
		}
	}
	m.fitted = true
	return nil
}

// PredictProba returns P(y=1) for each row of X.
func (m *Logistic) PredictProba(X mat.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, errors.New(errors.ErrCodeNotFitted, "logistic: model not fitted")
	}
	n, d := X.Dims()
	if d != len(m.weights) {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch,
			"logistic: expected %d features, got %d", len(m.weights), d)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		z := m.bias
		for j := 0; j < d; j++ {
			z += m.weights[j] * (X.At(i, j) - m.means[j]) / m.stds[j]
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

// Predict returns hard labels at the 0.5 threshold.
func (m *Logistic) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// Coefficients returns a copy of the fitted weights on the standardized scale.
func (m *Logistic) Coefficients() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// ----------------------------------------------------------------------------
// One-vs-rest multiclass wrapper
// ----------------------------------------------------------------------------

// OneVsRest trains one binary Logistic per class and predicts the class whose
// model reports the highest probability.
type OneVsRest struct {
	opts    []Option
	classes []float64
	models  []*Logistic
}

// NewOneVsRest returns a multiclass classifier; opts are applied to each
// per-class binary model.
func NewOneVsRest(opts ...Option) *OneVsRest {
	return &OneVsRest{opts: opts}
}

// Fit trains one binary model per distinct label in y.
func (m *OneVsRest) Fit(X mat.Matrix, y []float64) error {
	n, _ := X.Dims()
	if len(y) != n {
		return errors.Newf(errors.ErrCodeShapeMismatch,
			"one-vs-rest: %d labels for %d rows", len(y), n)
	}

	seen := map[float64]bool{}
	m.classes = m.classes[:0]
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			m.classes = append(m.classes, v)
		}
	}
	if len(m.classes) < 2 {
		return errors.New(errors.ErrCodeValidation, "one-vs-rest: need at least two classes")
	}

	m.models = make([]*Logistic, len(m.classes))
	binY := make([]float64, n)
	for ci, class := range m.classes {
		for i, v := range y {
			if v == class {
				binY[i] = 1
			} else {
				binY[i] = 0
			}
		}
		model := NewLogistic(m.opts...)
		if err := model.Fit(X, binY); err != nil {
			return errors.Wrap(err, errors.ErrCodeFitFailed, "one-vs-rest: per-class fit failed")
		}
		m.models[ci] = model
	}
	return nil
}

// Predict returns, per row, the original label of the most probable class.
func (m *OneVsRest) Predict(X mat.Matrix) ([]float64, error) {
	if len(m.models) == 0 {
		return nil, errors.New(errors.ErrCodeNotFitted, "one-vs-rest: model not fitted")
	}
	n, _ := X.Dims()
	best := make([]float64, n)
	bestProba := make([]float64, n)
	for i := range bestProba {
		bestProba[i] = math.Inf(-1)
	}
	for ci, model := range m.models {
		proba, err := model.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for i, p := range proba {
			if p > bestProba[i] {
				bestProba[i] = p
				best[i] = m.classes[ci]
			}
		}
	}
	return best, nil
}

// ----------------------------------------------------------------------------
// Column standardization helpers
// ----------------------------------------------------------------------------

func columnStats(X mat.Matrix) (means, stds []float64) {
	n, d := X.Dims()
	means = make([]float64, d)
	stds = make([]float64, d)
	for j := 0; j < d; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		mean := sum / float64(n)
		ss := 0.0
		for i := 0; i < n; i++ {
			dv := X.At(i, j) - mean
			ss += dv * dv
		}
		std := math.Sqrt(ss / float64(n))
		if std == 0 {
			std = 1
		}
		means[j] = mean
		stds[j] = std
	}
	return means, stds
}

func standardize(X mat.Matrix, means, stds []float64) *mat.Dense {
	n, d := X.Dims()
	Z := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			Z.Set(i, j, (X.At(i, j)-means[j])/stds[j])
		}
	}
	return Z
}
