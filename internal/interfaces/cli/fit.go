package cli

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/integrate"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/scoring"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/dataio"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/cluster"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/decompose"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/linearmodel"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// fitOptions holds flags shared by every fit subcommand.
type fitOptions struct {
	DataSpecs   []string
	LabelsPath  string
	GMTPath     string
	Scoring     string
	MinCoverage int
	Components  int
	Folds       int
	Seed        int64
}

func newFitCmd() *cobra.Command {
	opts := &fitOptions{}

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit pathway-level models over one or more omics blocks",
	}

	pf := cmd.PersistentFlags()
	pf.StringArrayVar(&opts.DataSpecs, "data", nil, "omics block as name=path.csv (repeatable)")
	pf.StringVar(&opts.LabelsPath, "labels", "", "sample metadata CSV (sample,label)")
	pf.StringVar(&opts.GMTPath, "pathways", "", "pathway definitions in GMT format")
	pf.StringVar(&opts.Scoring, "scoring", "", "scoring strategy (svd, zscore, ssgsea, clustpa)")
	pf.IntVar(&opts.MinCoverage, "min-coverage", 0, "minimum molecules a pathway must cover")
	pf.IntVar(&opts.Components, "components", 0, "number of latent components")
	pf.IntVar(&opts.Folds, "folds", 0, "cross-validation folds (0 disables CV)")
	pf.Int64Var(&opts.Seed, "seed", 0, "random seed (0 leaves runs nondeterministic)")

	cmd.AddCommand(
		newFitMultiViewCmd(opts),
		newFitSingleViewCmd(opts),
		newFitClusterCmd(opts),
		newFitDimRedCmd(opts),
	)
	return cmd
}

// buildEngine loads the omics blocks, metadata, and pathway catalog from the
// fit flags and assembles an integration engine, resolving unset flags from
// configuration.
func buildEngine(cmd *cobra.Command, opts *fitOptions) (*integrate.Engine, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	cfg := cliCtx.Config.Engine

	if opts.Scoring == "" {
		opts.Scoring = cfg.Scoring
	}
	if opts.MinCoverage == 0 {
		opts.MinCoverage = cfg.MinCoverage
	}
	if opts.Components == 0 {
		opts.Components = cfg.Components
	}
	if opts.Seed == 0 {
		opts.Seed = cfg.Seed
	}

	blocks, err := loadBlocks(opts.DataSpecs)
	if err != nil {
		return nil, err
	}
	if opts.LabelsPath == "" {
		return nil, errors.New(errors.ErrCodeValidation, "--labels is required")
	}
	meta, err := dataio.ReadLabelsFile(opts.LabelsPath)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(opts.GMTPath)
	if err != nil {
		return nil, err
	}
	factory, err := scoring.FactoryByName(opts.Scoring)
	if err != nil {
		return nil, err
	}

	engineOpts := []integrate.Option{
		integrate.WithScoring(factory),
		integrate.WithMinCoverage(opts.MinCoverage),
		integrate.WithLogger(cliCtx.Logger),
	}
	if opts.Seed != 0 {
		engineOpts = append(engineOpts, integrate.WithRand(rand.New(rand.NewSource(opts.Seed))))
	}

	return integrate.NewEngine(blocks, meta, cat, engineOpts...)
}

// loadBlocks parses repeated name=path specs into named omics tables.
func loadBlocks(specs []string) ([]*omics.Table, error) {
	if len(specs) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one --data block is required")
	}
	blocks := make([]*omics.Table, 0, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return nil, errors.Newf(errors.ErrCodeValidation, "invalid --data spec %q, expected name=path", spec)
		}
		t, err := dataio.ReadTableFile(path, name)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, t)
	}
	return blocks, nil
}

func loadCatalog(path string) (*pathway.Catalog, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeValidation, "--pathways is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "failed to open pathway file")
	}
	defer f.Close()
	return pathway.ParseGMT(f)
}

// ─── multiview ───────────────────────────────────────────────────────────────

type vipReport struct {
	RunID      string               `json:"run_id"`
	Blocks     []string             `json:"blocks"`
	Components int                  `json:"components"`
	VIP        []integrate.VIPEntry `json:"vip"`
	CVScores   []float64            `json:"cv_scores,omitempty"`
}

func (r vipReport) TableHeaders() []string {
	return []string{"PATHWAY", "NAME", "BLOCK", "VIP", "VIP_SCALED"}
}

func (r vipReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.VIP))
	for _, e := range r.VIP {
		rows = append(rows, []string{
			e.PathwayID, e.PathwayName, e.Block,
			strconv.FormatFloat(e.VIP, 'f', 4, 64),
			strconv.FormatFloat(e.VIPScaled, 'f', 4, 64),
		})
	}
	return rows
}

func newFitMultiViewCmd(opts *fitOptions) *cobra.Command {
	var vipOut string

	cmd := &cobra.Command{
		Use:   "multiview",
		Short: "Fit a multi-block latent model and rank pathways by VIP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := buildEngine(cmd, opts)
			if err != nil {
				return err
			}

			res, err := engine.MultiView(opts.Components)
			if err != nil {
				return err
			}

			report := vipReport{
				RunID:      res.RunID,
				Blocks:     res.BlockOrder,
				Components: opts.Components,
				VIP:        res.VIP,
			}

			if opts.Folds > 0 {
				cv, err := engine.MultiViewCV(opts.Components, opts.Folds)
				if err != nil {
					return err
				}
				report.CVScores = cv.FoldScores
			}

			if vipOut != "" {
				if err := writeVIPFile(vipOut, res.VIP); err != nil {
					return err
				}
			}
			return printResult(cmd, report)
		},
	}

	cmd.Flags().StringVar(&vipOut, "vip-out", "", "write the VIP table to this CSV file")
	return cmd
}

func writeVIPFile(path string, entries []integrate.VIPEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create VIP output file")
	}
	defer f.Close()
	return dataio.WriteVIPCSV(f, entries)
}

// ─── singleview ──────────────────────────────────────────────────────────────

type singleViewReport struct {
	RunID      string              `json:"run_id"`
	Classes    []string            `json:"classes"`
	Pathways   int                 `json:"pathways"`
	BestScore  float64             `json:"best_score,omitempty"`
	FoldScores []float64           `json:"fold_scores,omitempty"`
	Importance []importanceSummary `json:"importance,omitempty"`
}

type importanceSummary struct {
	Pathway    string  `json:"pathway"`
	Molecule   string  `json:"molecule"`
	Importance float64 `json:"importance"`
}

func (r singleViewReport) TableHeaders() []string {
	return []string{"PATHWAY", "MOLECULE", "IMPORTANCE"}
}

func (r singleViewReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Importance))
	for _, e := range r.Importance {
		rows = append(rows, []string{
			e.Pathway, e.Molecule,
			strconv.FormatFloat(e.Importance, 'f', 4, 64),
		})
	}
	return rows
}

func newFitSingleViewCmd(opts *fitOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "singleview",
		Short: "Fit a classifier on the concatenated single-block score table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			engine, err := buildEngine(cmd, opts)
			if err != nil {
				return err
			}

			report := singleViewReport{Classes: engine.Classes()}

			if opts.Folds > 0 {
				search, err := engine.SingleViewGridSearchCV([]integrate.SupervisedModel{
					linearmodel.NewOneVsRest(),
					linearmodel.NewOneVsRest(linearmodel.WithLearnRate(0.01)),
					linearmodel.NewOneVsRest(linearmodel.WithLearnRate(0.5)),
				}, opts.Folds)
				if err != nil {
					return err
				}
				report.RunID = search.RunID
				report.BestScore = search.BestScore
				report.FoldScores = search.Candidates[search.BestIndex].Folds
				cliCtx.Logger.Info("grid search complete",
					logging.Int("best_candidate", search.BestIndex),
					logging.Float64("best_score", search.BestScore))
			} else {
				res, err := engine.SingleView(linearmodel.NewOneVsRest())
				if err != nil {
					return err
				}
				report.RunID = res.RunID
				report.Pathways = res.Scores.NumColumns()
				for _, mi := range res.MolecularImportance {
					report.Importance = append(report.Importance, importanceSummary{
						Pathway:    mi.Pathway,
						Molecule:   mi.Molecule,
						Importance: mi.Importance,
					})
				}
			}
			return printResult(cmd, report)
		},
	}
}

// ─── cluster ─────────────────────────────────────────────────────────────────

type clustReport struct {
	RunID     string                   `json:"run_id"`
	Clusters  int                      `json:"clusters"`
	Consensus bool                     `json:"consensus"`
	Sizes     map[string]int           `json:"sizes"`
	Metrics   integrate.ClusterMetrics `json:"metrics"`
}

func (r clustReport) TableHeaders() []string {
	return []string{"METRIC", "VALUE"}
}

func (r clustReport) TableRows() [][]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	return [][]string{
		{"silhouette", f(r.Metrics.Silhouette)},
		{"calinski_harabasz", f(r.Metrics.CalinskiHarabasz)},
		{"davies_bouldin", f(r.Metrics.DaviesBouldin)},
		{"composite", f(r.Metrics.Composite)},
		{"ari", f(r.Metrics.ARI)},
	}
}

func newFitClusterCmd(opts *fitOptions) *cobra.Command {
	var (
		clusters    int
		auto        bool
		minClusters int
		maxClusters int
		usePCA      bool
		consensus   bool
		runs        int
		fraction    float64
	)

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster samples in pathway-score space",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ccfg := cliCtx.Config.Clustering
			if clusters == 0 {
				clusters = ccfg.Clusters
			}
			if runs == 0 {
				runs = ccfg.Runs
			}
			if fraction == 0 {
				fraction = ccfg.SubsampleFraction
			}

			engine, err := buildEngine(cmd, opts)
			if err != nil {
				return err
			}

			sized := func(k int) integrate.Clusterer {
				var kmOpts []cluster.Option
				if opts.Seed != 0 {
					kmOpts = append(kmOpts, cluster.WithRand(rand.New(rand.NewSource(opts.Seed))))
				}
				return cluster.NewKMeans(k, kmOpts...)
			}
			clustOpts := integrate.ClustOptions{
				UsePCA:            usePCA,
				PCAComponents:     ccfg.PCAComponents,
				Consensus:         consensus,
				NumRuns:           runs,
				SubsampleFraction: fraction,
				MinClusters:       minClusters,
				MaxClusters:       maxClusters,
			}

			var res *integrate.ClustResult
			if auto {
				res, err = engine.SingleViewClustAuto(sized, clustOpts)
				if err == nil {
					clusters = res.Clusters
				}
			} else {
				res, err = engine.SingleViewClust(func() integrate.Clusterer { return sized(clusters) }, clustOpts)
			}
			if err != nil {
				return err
			}

			sizes := make(map[string]int)
			for _, l := range res.Labels {
				sizes[fmt.Sprintf("cluster_%d", l)]++
			}
			return printResult(cmd, clustReport{
				RunID:     res.RunID,
				Clusters:  clusters,
				Consensus: consensus,
				Sizes:     sizes,
				Metrics:   res.Metrics,
			})
		},
	}

	cmd.Flags().IntVar(&clusters, "clusters", 0, "number of clusters")
	cmd.Flags().BoolVar(&auto, "auto-clusters", false, "pick the cluster count by silhouette sweep")
	cmd.Flags().IntVar(&minClusters, "min-clusters", 0, "lowest candidate count for --auto-clusters (default 2)")
	cmd.Flags().IntVar(&maxClusters, "max-clusters", 0, "candidate count upper bound for --auto-clusters, exclusive (default 11)")
	cmd.Flags().BoolVar(&usePCA, "pca", false, "project scores with PCA before clustering")
	cmd.Flags().BoolVar(&consensus, "consensus", false, "enable subsample consensus clustering")
	cmd.Flags().IntVar(&runs, "runs", 0, "consensus subsample runs")
	cmd.Flags().Float64Var(&fraction, "fraction", 0, "consensus subsample fraction")
	return cmd
}

// ─── dimred ──────────────────────────────────────────────────────────────────

type dimredReport struct {
	RunID             string    `json:"run_id"`
	Components        int       `json:"components"`
	ExplainedVariance []float64 `json:"explained_variance"`
}

func (r dimredReport) TableHeaders() []string {
	return []string{"COMPONENT", "EXPLAINED_VARIANCE"}
}

func (r dimredReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.ExplainedVariance))
	for i, v := range r.ExplainedVariance {
		rows = append(rows, []string{
			fmt.Sprintf("PC%d", i+1),
			strconv.FormatFloat(v, 'f', 4, 64),
		})
	}
	return rows
}

func newFitDimRedCmd(opts *fitOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dimred",
		Short: "Reduce the pathway-score table to latent components",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := buildEngine(cmd, opts)
			if err != nil {
				return err
			}

			res, err := engine.SingleViewDimRed(decompose.NewPCA(opts.Components))
			if err != nil {
				return err
			}
			return printResult(cmd, dimredReport{
				RunID:             res.RunID,
				Components:        res.Components,
				ExplainedVariance: res.ExplainedVariance,
			})
		},
	}
}
