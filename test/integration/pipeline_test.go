// Package integration exercises the full pipeline: synthetic enrichment
// generation feeding the integration engine, verifying that the planted
// signal is recovered at the pathway level.
package integration

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/integrate"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/pathway"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/simulate"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/cluster"
	"github.com/turtacn/OmicsPath-Intelligence/internal/intelligence/linearmodel"
)

const (
	nSamples = 24
	seed     = 42
)

func noiseBlock(t *testing.T, rng *rand.Rand, name string, prefix string, nCols int) *omics.Table {
	t.Helper()

	samples := make([]string, nSamples)
	for i := range samples {
		samples[i] = fmt.Sprintf("S%02d", i)
	}
	columns := make([]string, nCols)
	for j := range columns {
		columns[j] = fmt.Sprintf("%s%d", prefix, j+1)
	}
	values := make([]float64, nSamples*nCols)
	for i := range values {
		values[i] = rng.NormFloat64()
	}

	tab, err := omics.NewTable(name, samples, columns, values)
	require.NoError(t, err)
	return tab
}

func testCatalog(t *testing.T) *pathway.Catalog {
	t.Helper()
	cat, err := pathway.FromEntries([]pathway.Entry{
		{ID: "PW-A", Name: "enriched metabolite pathway", Molecules: []string{"m1", "m2", "m3"}},
		{ID: "PW-B", Name: "background metabolite pathway", Molecules: []string{"m4", "m5", "m6"}},
		{ID: "PW-C", Name: "protein pathway one", Molecules: []string{"p1", "p2", "p3"}},
		{ID: "PW-D", Name: "protein pathway two", Molecules: []string{"p4", "p5", "p6"}},
	})
	require.NoError(t, err)
	return cat
}

// generateDataset plants a strong constant effect on PW-A and PW-C for the
// second synthetic cluster and returns the mutated blocks plus labels built
// from the planted groups.
func generateDataset(t *testing.T) ([]*omics.Table, *omics.Labels) {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	met := noiseBlock(t, rng, "metabolomics", "m", 8)
	pro := noiseBlock(t, rng, "proteomics", "p", 6)
	cat := testCatalog(t)

	gen, err := simulate.NewGenerator(
		[]*omics.Table{met, pro}, cat, []string{"PW-A", "PW-C"},
		simulate.WithRand(rand.New(rand.NewSource(seed))),
	)
	require.NoError(t, err)

	mutated, err := gen.Generate([]float64{0, 4}, simulate.EffectConstant, simulate.InputLog)
	require.NoError(t, err)
	require.Len(t, mutated, 2)

	groups := gen.Groups()
	require.Len(t, groups, nSamples)
	samples := mutated[0].Samples()
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = fmt.Sprintf("group_%d", g)
	}
	meta, err := omics.NewLabels(samples, labels)
	require.NoError(t, err)

	return mutated, meta
}

func newPipelineEngine(t *testing.T, blocks []*omics.Table, meta *omics.Labels) *integrate.Engine {
	t.Helper()
	engine, err := integrate.NewEngine(blocks, meta, testCatalog(t),
		integrate.WithMinCoverage(3),
		integrate.WithRand(rand.New(rand.NewSource(seed))),
	)
	require.NoError(t, err)
	return engine
}

func vipByPathway(entries []integrate.VIPEntry, block string) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range entries {
		if e.Block == block {
			out[e.PathwayID] = e.VIP
		}
	}
	return out
}

func TestPipeline_MultiViewRecoversEnrichment(t *testing.T) {
	blocks, meta := generateDataset(t)
	engine := newPipelineEngine(t, blocks, meta)

	res, err := engine.MultiView(2)
	require.NoError(t, err)
	require.Len(t, res.VIP, 4)

	met := vipByPathway(res.VIP, "metabolomics")
	require.Contains(t, met, "PW-A")
	require.Contains(t, met, "PW-B")
	assert.Greater(t, met["PW-A"], met["PW-B"],
		"enriched metabolite pathway should outrank the background pathway")

	pro := vipByPathway(res.VIP, "proteomics")
	require.Contains(t, pro, "PW-C")
	require.Contains(t, pro, "PW-D")
	assert.Greater(t, pro["PW-C"], pro["PW-D"],
		"enriched protein pathway should outrank the background pathway")
}

func TestPipeline_SingleViewSeparatesGroups(t *testing.T) {
	blocks, meta := generateDataset(t)
	engine := newPipelineEngine(t, blocks, meta)

	res, err := engine.SingleView(linearmodel.NewOneVsRest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, nSamples, res.Scores.NumSamples())
	assert.Equal(t, 4, res.Scores.NumColumns())
	assert.NotEmpty(t, res.MolecularImportance)
}

func TestPipeline_ClusteringRecoversGroups(t *testing.T) {
	blocks, meta := generateDataset(t)
	engine := newPipelineEngine(t, blocks, meta)

	factory := func() integrate.Clusterer {
		return cluster.NewKMeans(2, cluster.WithRand(rand.New(rand.NewSource(seed))))
	}
	res, err := engine.SingleViewClust(factory, integrate.ClustOptions{})
	require.NoError(t, err)

	assert.Greater(t, res.Metrics.ARI, 0.5,
		"clustering in pathway-score space should largely recover the planted groups")
}

func TestPipeline_CrossValidatedSignal(t *testing.T) {
	blocks, meta := generateDataset(t)
	engine := newPipelineEngine(t, blocks, meta)

	cv, err := engine.MultiViewCV(2, 4)
	require.NoError(t, err)
	require.Len(t, cv.FoldScores, 4)
	assert.Greater(t, cv.MeanScore, 0.0,
		"a strongly planted effect should yield positive out-of-fold fit")
}
