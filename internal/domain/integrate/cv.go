package integrate

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/scoring"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fold splitting
// ─────────────────────────────────────────────────────────────────────────────

// kfold shuffles sample indices and deals them round-robin into k folds.
func (e *Engine) kfold(n, k int) ([][]int, error) {
	if k < 2 {
		return nil, errors.Newf(errors.ErrCodeValidation, "cross-validation needs k >= 2 folds, got %d", k)
	}
	if k > n {
		return nil, errors.Newf(errors.ErrCodeValidation,
			"cross-validation with %d folds needs at least %d samples, got %d", k, k, n)
	}
	folds := make([][]int, k)
	for i, idx := range e.rng.Perm(n) {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds, nil
}

func complementIndices(n int, fold []int) []int {
	in := make(map[int]bool, len(fold))
	for _, i := range fold {
		in[i] = true
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}

func pick[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Fold-internal scaling
// ─────────────────────────────────────────────────────────────────────────────

// scaleWithTrainStats standardizes both tables with the train table's column
// means and population standard deviations, so no test-fold statistic reaches
// the fitted pipeline.
func scaleWithTrainStats(train, test *omics.Table) (*omics.Table, *omics.Table, error) {
	nTrain := train.NumSamples()
	p := train.NumColumns()
	means := make([]float64, p)
	stds := make([]float64, p)
	for j := 0; j < p; j++ {
		sum := 0.0
		for i := 0; i < nTrain; i++ {
			sum += train.At(i, j)
		}
		means[j] = sum / float64(nTrain)
		ss := 0.0
		for i := 0; i < nTrain; i++ {
			d := train.At(i, j) - means[j]
			ss += d * d
		}
		stds[j] = math.Sqrt(ss / float64(nTrain))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	apply := func(t *omics.Table) (*omics.Table, error) {
		n := t.NumSamples()
		values := make([]float64, 0, n*p)
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				values = append(values, (t.At(i, j)-means[j])/stds[j])
			}
		}
		return omics.NewTable(t.Name(), t.Samples(), t.Columns(), values)
	}

	scaledTrain, err := apply(train)
	if err != nil {
		return nil, nil, err
	}
	scaledTest, err := apply(test)
	if err != nil {
		return nil, nil, err
	}
	return scaledTrain, scaledTest, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SingleViewGridSearchCV
// ─────────────────────────────────────────────────────────────────────────────

// SingleViewGridSearchCV cross-validates every candidate model over the
// unscaled concatenated blocks, scaling and scoring inside each fold with
// train-fold state only, and returns the candidate with the best mean
// test-fold accuracy. The scoring strategy must expose the Transform
// capability and every candidate must expose Predict; either missing fails
// before any scoring work starts.
func (e *Engine) SingleViewGridSearchCV(candidates []SupervisedModel, folds int) (*GridSearchResult, error) {
	const mode = "grid_search_cv"
	if len(candidates) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "grid search: no candidate models")
	}
	for i, c := range candidates {
		if c == nil {
			return nil, errors.Newf(errors.ErrCodeCapabilityMissing, "grid search: candidate %d is nil", i)
		}
		if _, ok := c.(Predictor); !ok {
			return nil, errors.Newf(errors.ErrCodeCapabilityMissing,
				"grid search: candidate %d does not expose Predict", i)
		}
	}
	if _, ok := e.factory(e.catalog, e.minCoverage).(scoring.Transformer); !ok {
		return nil, errors.New(errors.ErrCodeCapabilityMissing,
			"grid search: scoring strategy does not expose Transform")
	}
	e.metrics.FitStarted(mode)
	start := time.Now()

	// Concatenate the raw, unscaled blocks; scaling happens per fold.
	concat, err := omics.ConcatColumns("combined", e.raw...)
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}
	n := concat.NumSamples()
	samples := concat.Samples()

	foldIdx, err := e.kfold(n, folds)
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}

	foldScores := make([][]float64, len(candidates))
	for ci := range candidates {
		foldScores[ci] = make([]float64, 0, folds)
	}

	for _, testIdx := range foldIdx {
		trainIdx := complementIndices(n, testIdx)

		train, err := concat.SelectSamples(pick(samples, trainIdx))
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}
		test, err := concat.SelectSamples(pick(samples, testIdx))
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}
		scaledTrain, scaledTest, err := scaleWithTrainStats(train, test)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}

		strat := e.factory(e.catalog, e.minCoverage)
		trainScores, err := strat.FitTransform(scaledTrain)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}
		testScores, err := strat.(scoring.Transformer).Transform(scaledTest)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}

		trainY := pick(e.y, trainIdx)
		testY := pick(e.y, testIdx)
		for ci, candidate := range candidates {
			if err := candidate.Fit(trainScores.Dense(), trainY); err != nil {
				e.metrics.FitFailed(mode)
				return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "grid search: candidate fit failed")
			}
			pred, err := candidate.(Predictor).Predict(testScores.Dense())
			if err != nil {
				e.metrics.FitFailed(mode)
				return nil, err
			}
			foldScores[ci] = append(foldScores[ci], accuracy(pred, testY))
		}
	}

	res := &GridSearchResult{RunID: newRunID(), Mode: mode, Coverage: e.Coverage(), BestIndex: -1}
	for ci := range candidates {
		mean := meanOf(foldScores[ci])
		res.Candidates = append(res.Candidates, CandidateScore{
			Index:     ci,
			MeanScore: mean,
			Folds:     foldScores[ci],
		})
		if res.BestIndex < 0 || mean > res.BestScore {
			res.BestIndex = ci
			res.BestScore = mean
		}
	}
	res.BestModel = candidates[res.BestIndex]

	// Refit the winner on the full data so the returned model is usable.
	full, _, err := e.scoreSingleView()
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}
	if err := res.BestModel.Fit(full.Dense(), e.y); err != nil {
		e.metrics.FitFailed(mode)
		return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "grid search: final refit failed")
	}

	e.metrics.FitCompleted(mode, time.Since(start).Seconds())
	e.logger.Info("grid search complete",
		logging.String("run_id", res.RunID),
		logging.Int("best_candidate", res.BestIndex),
		logging.Float64("best_score", res.BestScore))
	return res, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MultiViewCV
// ─────────────────────────────────────────────────────────────────────────────

// MultiViewCV cross-validates the multi-block model's predictive R² per fold.
// The scoring strategies are fitted once on the full scaled blocks before the
// folds are split, so scoring statistics leak across folds. This mirrors the
// reference pipeline and is a documented limitation of multi-view
// cross-validation, not an oversight.
func (e *Engine) MultiViewCV(nComponents, folds int) (*CVResult, error) {
	const mode = "multi_view_cv"
	e.metrics.FitStarted(mode)
	start := time.Now()

	blockScores := make([]*omics.Table, len(e.scaled))
	for i, blk := range e.scaled {
		sc, err := e.factory(e.catalog, e.minCoverage).FitTransform(blk)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}
		blockScores[i] = sc
	}

	n := blockScores[0].NumSamples()
	foldIdx, err := e.kfold(n, folds)
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}

	res := &CVResult{RunID: newRunID(), Mode: mode, Coverage: e.Coverage()}
	for _, testIdx := range foldIdx {
		trainIdx := complementIndices(n, testIdx)

		trainBlocks := make([]mat.Matrix, len(blockScores))
		testBlocks := make([]mat.Matrix, len(blockScores))
		for b, sc := range blockScores {
			dense := sc.Dense()
			trainBlocks[b] = rowsSubset(dense, trainIdx)
			testBlocks[b] = rowsSubset(dense, testIdx)
		}

		model := e.multiBlock(nComponents)
		if err := model.Fit(trainBlocks, pick(e.y, trainIdx)); err != nil {
			e.metrics.FitFailed(mode)
			return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "multi-view cv: fold fit failed")
		}
		pred, err := model.Predict(testBlocks)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}
		res.FoldScores = append(res.FoldScores, rSquared(pred, pick(e.y, testIdx)))
	}
	res.MeanScore = meanOf(res.FoldScores)

	e.metrics.FitCompleted(mode, time.Since(start).Seconds())
	e.logger.Info("multi-view cross-validation complete",
		logging.String("run_id", res.RunID),
		logging.Float64("mean_r2", res.MeanScore))
	return res, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scoring helpers
// ─────────────────────────────────────────────────────────────────────────────

func rowsSubset(X *mat.Dense, idx []int) *mat.Dense {
	_, d := X.Dims()
	out := mat.NewDense(len(idx), d, nil)
	for i, src := range idx {
		for j := 0; j < d; j++ {
			out.Set(i, j, X.At(src, j))
		}
	}
	return out
}

func accuracy(pred, truth []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for i := range truth {
		if pred[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

func rSquared(pred, truth []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	mean := meanOf(truth)
	ssRes, ssTot := 0.0, 0.0
	for i := range truth {
		d := truth[i] - pred[i]
		ssRes += d * d
		t := truth[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
