package integrate

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/scoring"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/monitoring/metrics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/cluster"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/decompose"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/mbpls"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// defaultMinCoverage is the minimum number of measured molecules a pathway
// needs before it is scored.
const defaultMinCoverage = 3

// maxDefaultPCAComponents caps the automatic component count of the optional
// pre-clustering PCA projection.
const maxDefaultPCAComponents = 50

// ─────────────────────────────────────────────────────────────────────────────
// Engine
// ─────────────────────────────────────────────────────────────────────────────

// Engine owns aligned raw and scaled omics blocks, integer-coded labels and a
// pathway coverage table. Each fitting mode scores blocks with the configured
// strategy and hands the score tables to an injected model. A failed fit
// never leaves partial results behind; every method returns a fresh result
// value.
type Engine struct {
	blockNames []string
	raw        []*omics.Table
	scaled     []*omics.Table
	labels     *omics.Labels
	y          []float64
	classes    []string

	catalog     *pathway.Catalog
	factory     scoring.Factory
	minCoverage int
	coverage    pathway.Coverage

	multiBlock MultiBlockFactory
	logger     logging.Logger
	metrics    metrics.PipelineMetrics
	rng        *rand.Rand
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithScoring replaces the default SVD scoring strategy factory.
func WithScoring(f scoring.Factory) Option {
	return func(e *Engine) { e.factory = f }
}

// WithMinCoverage sets the pathway coverage threshold.
func WithMinCoverage(n int) Option {
	return func(e *Engine) { e.minCoverage = n }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics attaches a pipeline metrics recorder.
func WithMetrics(m metrics.PipelineMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRand fixes the random source used by consensus subsampling and
// cross-validation fold shuffling. Without it runs are nondeterministic.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithMultiBlockFactory replaces the default multi-block PLS implementation.
func WithMultiBlockFactory(f MultiBlockFactory) Option {
	return func(e *Engine) { e.multiBlock = f }
}

// NewEngine aligns the blocks and metadata to their shared samples, scales
// every block, integer-codes the labels and computes the pathway coverage
// table over the union of all block columns.
func NewEngine(blocks []*omics.Table, meta *omics.Labels, cat *pathway.Catalog, opts ...Option) (*Engine, error) {
	if len(blocks) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "engine: at least one omics block is required")
	}
	if meta == nil {
		return nil, errors.New(errors.ErrCodeValidation, "engine: metadata labels are required")
	}
	if cat == nil {
		return nil, errors.New(errors.ErrCodeValidation, "engine: pathway catalog is required")
	}

	e := &Engine{
		catalog:     cat,
		factory:     scoring.NewSVD,
		minCoverage: defaultMinCoverage,
		multiBlock:  func(n int) MultiBlockModel { return mbpls.New(n) },
		logger:      logging.NewNopLogger(),
		metrics:     metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.logger = e.logger.Named("engine")

	aligned, labelSets, err := omics.Align(blocks, []*omics.Labels{meta})
	if err != nil {
		return nil, err
	}
	e.raw = aligned

	// Metadata may list the samples in any order, or be a superset of them;
	// pin it to the aligned row order so label i belongs to row i.
	e.labels, err = labelSets[0].Select(aligned[0].Samples())
	if err != nil {
		return nil, err
	}

	e.blockNames = make([]string, len(aligned))
	e.scaled = make([]*omics.Table, len(aligned))
	columnSets := make([][]string, len(aligned))
	for i, t := range aligned {
		e.blockNames[i] = t.Name()
		e.scaled[i] = t.Scaled()
		columnSets[i] = t.Columns()
	}
	e.coverage = cat.Coverage(columnSets...)

	codes, classes := e.labels.Factorize()
	e.classes = classes
	e.y = make([]float64, len(codes))
	for i, c := range codes {
		e.y[i] = float64(c)
	}

	e.logger.Info("engine constructed",
		logging.Int("blocks", len(aligned)),
		logging.Int("samples", aligned[0].NumSamples()),
		logging.Int("classes", len(classes)),
		logging.Int("pathways", cat.Len()))
	return e, nil
}

// BlockNames returns the aligned block names in input order.
func (e *Engine) BlockNames() []string {
	return append([]string(nil), e.blockNames...)
}

// Classes returns the label categories in first-seen order.
func (e *Engine) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Coverage returns the pathway coverage table computed at construction over
// the union of all block columns.
func (e *Engine) Coverage() pathway.Coverage {
	out := make(pathway.Coverage, len(e.coverage))
	for k, v := range e.coverage {
		out[k] = v
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// MultiView
// ─────────────────────────────────────────────────────────────────────────────

// MultiView scores every block with a fresh strategy instance, fits a shared
// multi-block projection model against the labels and derives VIP importance
// per pathway. VIPScaled is z-scored within each block's own VIP subset.
func (e *Engine) MultiView(nComponents int) (*MultiViewResult, error) {
	const mode = "multi_view"
	e.metrics.FitStarted(mode)
	start := time.Now()

	strategies := make([]scoring.Strategy, len(e.scaled))
	scores := make([]*omics.Table, len(e.scaled))
	for i, blk := range e.scaled {
		strategies[i] = e.factory(e.catalog, e.minCoverage)
		sc, err := strategies[i].FitTransform(blk)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}
		scores[i] = sc
		e.metrics.PathwaysScored(blk.Name(), sc.NumColumns())
		e.logger.Debug("block scored",
			logging.String("block", blk.Name()),
			logging.Int("pathways", sc.NumColumns()))
	}

	blockMats := make([]mat.Matrix, len(scores))
	for i, sc := range scores {
		blockMats[i] = sc.Dense()
	}
	model := e.multiBlock(nComponents)
	if err := model.Fit(blockMats, e.y); err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}

	vip, err := VIPMultiBlock(model.Weights(), model.SuperScores(), model.OutcomeLoadings())
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}

	res := &MultiViewResult{
		RunID:      newRunID(),
		Mode:       mode,
		Coverage:   e.Coverage(),
		Model:      model,
		BlockOrder: e.BlockNames(),
		Scores:     make(map[string]*omics.Table, len(scores)),
	}
	offset := 0
	for i, sc := range scores {
		res.Scores[e.blockNames[i]] = sc
		p := sc.NumColumns()
		blockVIP := append([]float64(nil), vip[offset:offset+p]...)
		raw := append([]float64(nil), blockVIP...)
		zscoreInPlace(blockVIP)
		for j := 0; j < p; j++ {
			id := sc.ColumnAt(j)
			res.VIP = append(res.VIP, VIPEntry{
				PathwayID:   id,
				PathwayName: e.catalog.Name(id),
				Block:       e.blockNames[i],
				VIP:         raw[j],
				VIPScaled:   blockVIP[j],
			})
		}
		offset += p
	}

	// Molecular importance is carried only when every strategy exposes it.
	importance := make(map[string][]scoring.MoleculeImportance, len(strategies))
	for i, s := range strategies {
		prov, ok := s.(scoring.MolecularImportanceProvider)
		if !ok {
			importance = nil
			break
		}
		importance[e.blockNames[i]] = prov.MolecularImportance()
	}
	res.MolecularImportance = importance

	e.metrics.FitCompleted(mode, time.Since(start).Seconds())
	e.logger.Info("multi-view fit complete",
		logging.String("run_id", res.RunID),
		logging.Int("vip_rows", len(res.VIP)))
	return res, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SingleView
// ─────────────────────────────────────────────────────────────────────────────

// scoreSingleView concatenates the scaled blocks column-wise and scores the
// combined table with one strategy instance.
func (e *Engine) scoreSingleView() (*omics.Table, scoring.Strategy, error) {
	concat, err := omics.ConcatColumns("combined", e.scaled...)
	if err != nil {
		return nil, nil, err
	}
	strat := e.factory(e.catalog, e.minCoverage)
	sc, err := strat.FitTransform(concat)
	if err != nil {
		return nil, nil, err
	}
	e.metrics.PathwaysScored("combined", sc.NumColumns())
	return sc, strat, nil
}

// SingleView scores the concatenated blocks once and fits the supplied
// supervised model on the combined score table.
func (e *Engine) SingleView(model SupervisedModel) (*SingleViewResult, error) {
	const mode = "single_view"
	if model == nil {
		return nil, errors.New(errors.ErrCodeCapabilityMissing,
			"single view: supervised model is required")
	}
	e.metrics.FitStarted(mode)
	start := time.Now()

	sc, strat, err := e.scoreSingleView()
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}
	if err := model.Fit(sc.Dense(), e.y); err != nil {
		e.metrics.FitFailed(mode)
		return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "single view: model fit failed")
	}

	res := &SingleViewResult{
		RunID:    newRunID(),
		Mode:     mode,
		Coverage: e.Coverage(),
		Model:    model,
		Scores:   sc,
	}
	if prov, ok := strat.(scoring.MolecularImportanceProvider); ok {
		res.MolecularImportance = prov.MolecularImportance()
	}
	e.metrics.FitCompleted(mode, time.Since(start).Seconds())
	e.logger.Info("single-view fit complete", logging.String("run_id", res.RunID))
	return res, nil
}

// SingleViewDimRed scores the concatenated blocks, standardizes the score
// table and fits the supplied dimensionality-reduction model.
func (e *Engine) SingleViewDimRed(model Reducer) (*DimRedResult, error) {
	const mode = "single_view_dimred"
	if model == nil {
		return nil, errors.New(errors.ErrCodeCapabilityMissing,
			"dim red: reduction model is required")
	}
	e.metrics.FitStarted(mode)
	start := time.Now()

	sc, _, err := e.scoreSingleView()
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}
	reduced, err := model.FitTransform(sc.Scaled().Dense())
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "dim red: model fit failed")
	}

	_, k := reduced.Dims()
	res := &DimRedResult{
		RunID:      newRunID(),
		Mode:       mode,
		Coverage:   e.Coverage(),
		Scores:     sc,
		Reduced:    reduced,
		Components: k,
	}
	if ve, ok := model.(VarianceExplainer); ok {
		res.ExplainedVariance = ve.ExplainedVarianceRatio()
	}
	e.metrics.FitCompleted(mode, time.Since(start).Seconds())
	e.logger.Info("dimensionality reduction complete",
		logging.String("run_id", res.RunID),
		logging.Int("components", k))
	return res, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SingleViewClust
// ─────────────────────────────────────────────────────────────────────────────

// ClustOptions controls the clustering path of SingleViewClust.
type ClustOptions struct {
	// UsePCA projects the standardized score table with PCA before
	// clustering; PCAComponents defaults to min(pathways, 50).
	UsePCA        bool
	PCAComponents int

	// Consensus enables subsample consensus clustering with NumRuns runs
	// (default 10) over SubsampleFraction of the samples (default 0.8).
	Consensus         bool
	NumRuns           int
	SubsampleFraction float64

	// MinClusters and MaxClusters bound the candidate sweep of
	// SingleViewClustAuto, inclusive of MinClusters and exclusive of
	// MaxClusters. Defaults are 2 and 11. SingleViewClust ignores them.
	MinClusters int
	MaxClusters int
}

// clusterInput standardizes the single-view score table and applies the
// optional PCA projection shared by the fixed-count and auto clustering
// paths.
func (e *Engine) clusterInput(sc *omics.Table, opts ClustOptions) (mat.Matrix, error) {
	var X mat.Matrix = sc.Scaled().Dense()
	if !opts.UsePCA {
		return X, nil
	}
	ncomp := opts.PCAComponents
	if ncomp <= 0 {
		ncomp = sc.NumColumns()
		if ncomp > maxDefaultPCAComponents {
			ncomp = maxDefaultPCAComponents
		}
	}
	reduced, err := decompose.NewPCA(ncomp).FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "clustering: PCA projection failed")
	}
	return reduced, nil
}

// SingleViewClust scores the concatenated blocks, re-standardizes the score
// table, optionally projects it with PCA and clusters it either directly or
// through subsample consensus. Fit quality is reported as silhouette,
// Calinski-Harabasz and Davies-Bouldin indices plus a normalized composite
// and the Adjusted Rand Index against the engine's metadata labels.
func (e *Engine) SingleViewClust(factory ClustererFactory, opts ClustOptions) (*ClustResult, error) {
	const mode = "single_view_clust"
	if factory == nil {
		return nil, errors.New(errors.ErrCodeCapabilityMissing,
			"clustering: clusterer factory is required")
	}
	e.metrics.FitStarted(mode)
	start := time.Now()

	sc, _, err := e.scoreSingleView()
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}

	X, err := e.clusterInput(sc, opts)
	if err != nil {
		e.metrics.FitFailed(mode)
		return nil, err
	}

	res := &ClustResult{RunID: newRunID(), Mode: mode, Coverage: e.Coverage(), Scores: sc}
	if opts.Consensus {
		runs := opts.NumRuns
		if runs <= 0 {
			runs = 10
		}
		fraction := opts.SubsampleFraction
		if fraction == 0 {
			fraction = 0.8
		}
		consensus, err := consensusMatrix(X, factory, runs, fraction, e.rng)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, err
		}
		labels, err := factory().FitPredict(consensus)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "clustering: consensus matrix clustering failed")
		}
		res.Consensus = consensus
		res.Labels = labels
	} else {
		labels, err := factory().FitPredict(X)
		if err != nil {
			e.metrics.FitFailed(mode)
			return nil, errors.Wrap(err, errors.ErrCodeFitFailed, "clustering: fit failed")
		}
		res.Labels = labels
	}

	res.Metrics, err = e.clusterMetrics(X, res.Labels)
	if err != nil {
		e.logger.Warn("cluster diagnostics unavailable", logging.Err(err))
	}

	e.metrics.FitCompleted(mode, time.Since(start).Seconds())
	e.logger.Info("clustering complete",
		logging.String("run_id", res.RunID),
		logging.Bool("consensus", opts.Consensus),
		logging.Float64("silhouette", res.Metrics.Silhouette))
	return res, nil
}

// SingleViewClustAuto selects the cluster count before clustering: every
// candidate count in [MinClusters, MaxClusters) is fitted once on the
// projected score table and rated by silhouette, and the winning count is
// handed to SingleViewClust for the regular direct or consensus fit. Ties
// keep the smaller count; candidates whose fit collapses to a single
// cluster are skipped.
func (e *Engine) SingleViewClustAuto(factory SizedClustererFactory, opts ClustOptions) (*ClustResult, error) {
	if factory == nil {
		return nil, errors.New(errors.ErrCodeCapabilityMissing,
			"clustering: sized clusterer factory is required")
	}
	lo := opts.MinClusters
	if lo < 2 {
		lo = 2
	}
	hi := opts.MaxClusters
	if hi <= 0 {
		hi = 11
	}
	if hi <= lo {
		return nil, errors.Newf(errors.ErrCodeValidation,
			"clustering: cluster count range [%d, %d) is empty", lo, hi)
	}

	sc, _, err := e.scoreSingleView()
	if err != nil {
		return nil, err
	}
	X, err := e.clusterInput(sc, opts)
	if err != nil {
		return nil, err
	}

	best, bestScore := 0, -1.0
	for k := lo; k < hi; k++ {
		labels, err := factory(k).FitPredict(X)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFitFailed,
				"clustering: candidate count fit failed")
		}
		sil, err := cluster.Silhouette(X, labels)
		if err != nil {
			continue
		}
		if sil > bestScore {
			best, bestScore = k, sil
		}
	}
	if best == 0 {
		return nil, errors.New(errors.ErrCodeFitFailed,
			"clustering: no candidate cluster count produced a valid partition")
	}
	e.logger.Info("cluster count selected",
		logging.Int("clusters", best),
		logging.Float64("silhouette", bestScore))

	res, err := e.SingleViewClust(func() Clusterer { return factory(best) }, opts)
	if err != nil {
		return nil, err
	}
	res.Clusters = best
	return res, nil
}

// normalizeScore min-max rescales v from [lo,hi] to [0,1].
func normalizeScore(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

func (e *Engine) clusterMetrics(X mat.Matrix, labels []int) (ClusterMetrics, error) {
	var m ClusterMetrics
	sil, err := cluster.Silhouette(X, labels)
	if err != nil {
		return m, err
	}
	ch, err := cluster.CalinskiHarabasz(X, labels)
	if err != nil {
		return m, err
	}
	db, err := cluster.DaviesBouldin(X, labels)
	if err != nil {
		return m, err
	}
	m.Silhouette = sil
	m.CalinskiHarabasz = ch
	m.DaviesBouldin = db

	// Composite averages the min-max normalized indices; Davies-Bouldin is
	// inverted since lower is better.
	silNorm := normalizeScore(sil, -1, 1)
	chNorm := normalizeScore(ch, 0, ch)
	dbNorm := 1 - normalizeScore(db, 0, db)
	m.Composite = (silNorm + chNorm + dbNorm) / 3

	truth := make([]int, len(e.y))
	for i, v := range e.y {
		truth[i] = int(v)
	}
	ari, err := cluster.AdjustedRandIndex(truth, labels)
	if err != nil {
		return m, err
	}
	m.ARI = ari
	return m, nil
}
