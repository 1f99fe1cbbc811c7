package integrate

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/scoring"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fit results
// ─────────────────────────────────────────────────────────────────────────────

// VIPEntry is one pathway's importance in a fitted multi-view model.
// VIPScaled is the raw VIP z-scored within the entry's own block so that
// blocks with different raw VIP scales stay comparable internally.
type VIPEntry struct {
	PathwayID   string
	PathwayName string
	Block       string
	VIP         float64
	VIPScaled   float64
}

// MultiViewResult bundles a fitted multi-block model with every derived
// artifact, instead of attaching fields to the model after the fact.
// Mode names the fitting path and Coverage is the engine's pathway coverage
// table at fit time; both travel with every result so a serialized run is
// self-describing.
type MultiViewResult struct {
	RunID      string
	Mode       string
	Coverage   pathway.Coverage
	Model      MultiBlockModel
	BlockOrder []string
	// Scores holds one sample-by-pathway table per block, keyed by block name.
	Scores map[string]*omics.Table
	VIP    []VIPEntry
	// MolecularImportance is keyed by block name and set only when every
	// block's scoring strategy exposes the capability.
	MolecularImportance map[string][]scoring.MoleculeImportance
}

// SingleViewResult is the outcome of a supervised fit on the concatenated
// single-block score table.
type SingleViewResult struct {
	RunID               string
	Mode                string
	Coverage            pathway.Coverage
	Model               SupervisedModel
	Scores              *omics.Table
	MolecularImportance []scoring.MoleculeImportance
}

// DimRedResult records a dimensionality reduction over the single-block
// score table.
type DimRedResult struct {
	RunID             string
	Mode              string
	Coverage          pathway.Coverage
	Scores            *omics.Table
	Reduced           *mat.Dense
	Components        int
	ExplainedVariance []float64
}

// ClusterMetrics are fit-quality diagnostics for a clustering partition.
// Composite is the min-max normalized average of the three indices; ARI is
// computed against the engine's metadata labels.
type ClusterMetrics struct {
	Silhouette       float64
	CalinskiHarabasz float64
	DaviesBouldin    float64
	Composite        float64
	ARI              float64
}

// ClustResult records a direct or consensus clustering run. Consensus is nil
// in direct mode; in consensus mode it is the sample-by-sample co-assignment
// agreement matrix in [0,1]. Clusters is the automatically selected cluster
// count and stays zero when the caller fixed the count themselves.
type ClustResult struct {
	RunID     string
	Mode      string
	Coverage  pathway.Coverage
	Scores    *omics.Table
	Labels    []int
	Clusters  int
	Consensus *mat.Dense
	Metrics   ClusterMetrics
}

// CandidateScore is one grid-search candidate's cross-validated accuracy.
type CandidateScore struct {
	Index     int
	MeanScore float64
	Folds     []float64
}

// GridSearchResult reports the winning candidate of a cross-validated search
// together with every candidate's fold scores.
type GridSearchResult struct {
	RunID      string
	Mode       string
	Coverage   pathway.Coverage
	BestIndex  int
	BestModel  SupervisedModel
	BestScore  float64
	Candidates []CandidateScore
}

// CVResult holds per-fold predictive scores for the multi-view model.
type CVResult struct {
	RunID      string
	Mode       string
	Coverage   pathway.Coverage
	FoldScores []float64
	MeanScore  float64
}

func newRunID() string { return uuid.NewString() }
