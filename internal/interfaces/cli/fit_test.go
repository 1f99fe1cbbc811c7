package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixtureDataset writes two omics block CSVs, a labels CSV, and a GMT
// file under dir. Case samples carry a +3 offset on the pathway molecules so
// supervised fits have signal to find.
func writeFixtureDataset(t *testing.T, dir string) (metPath, proPath, labelsPath, gmtPath string) {
	t.Helper()

	var met, pro, labels strings.Builder
	met.WriteString("sample,m1,m2,m3,m4\n")
	pro.WriteString("sample,p1,p2,p3,p4\n")
	labels.WriteString("sample,label\n")

	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("S%02d", i)
		group := "control"
		offset := 0.0
		if i < 6 {
			group = "case"
			offset = 3.0
		}
		base := float64(i%4) * 0.5
		fmt.Fprintf(&met, "%s,%g,%g,%g,%g\n",
			id, base+offset, base+offset+0.1, base+offset+0.2, base+0.3)
		fmt.Fprintf(&pro, "%s,%g,%g,%g,%g\n",
			id, base+offset+0.4, base+offset+0.5, base+offset+0.6, base+0.7)
		fmt.Fprintf(&labels, "%s,%s\n", id, group)
	}

	gmt := "PW1\tmetabolite signal\tm1\tm2\tm3\n" +
		"PW2\tprotein signal\tp1\tp2\tp3\n"

	metPath = filepath.Join(dir, "metabolomics.csv")
	proPath = filepath.Join(dir, "proteomics.csv")
	labelsPath = filepath.Join(dir, "labels.csv")
	gmtPath = filepath.Join(dir, "pathways.gmt")

	require.NoError(t, os.WriteFile(metPath, []byte(met.String()), 0o644))
	require.NoError(t, os.WriteFile(proPath, []byte(pro.String()), 0o644))
	require.NoError(t, os.WriteFile(labelsPath, []byte(labels.String()), 0o644))
	require.NoError(t, os.WriteFile(gmtPath, []byte(gmt), 0o644))
	return metPath, proPath, labelsPath, gmtPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFitMultiView_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	met, pro, labels, gmt := writeFixtureDataset(t, dir)
	vipOut := filepath.Join(dir, "vip.csv")

	out, err := runCommand(t,
		"fit", "multiview",
		"--data", "metabolomics="+met,
		"--data", "proteomics="+pro,
		"--labels", labels,
		"--pathways", gmt,
		"--components", "2",
		"--seed", "7",
		"--vip-out", vipOut,
		"-o", "json",
	)
	require.NoError(t, err, out)

	var report vipReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{"metabolomics", "proteomics"}, report.Blocks)
	require.Len(t, report.VIP, 2)

	written, readErr := os.ReadFile(vipOut)
	require.NoError(t, readErr)
	assert.Contains(t, string(written), "pathway_id")
	assert.Contains(t, string(written), "PW1")
}

func TestFitMultiView_TableOutput(t *testing.T) {
	dir := t.TempDir()
	met, pro, labels, gmt := writeFixtureDataset(t, dir)

	out, err := runCommand(t,
		"fit", "multiview",
		"--data", "metabolomics="+met,
		"--data", "proteomics="+pro,
		"--labels", labels,
		"--pathways", gmt,
		"--components", "2",
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "PATHWAY")
	assert.Contains(t, out, "PW1")
	assert.Contains(t, out, "PW2")
}

func TestFitSingleView_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	met, pro, labels, gmt := writeFixtureDataset(t, dir)

	out, err := runCommand(t,
		"fit", "singleview",
		"--data", "metabolomics="+met,
		"--data", "proteomics="+pro,
		"--labels", labels,
		"--pathways", gmt,
		"--seed", "7",
		"-o", "json",
	)
	require.NoError(t, err, out)

	var report singleViewReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.ElementsMatch(t, []string{"case", "control"}, report.Classes)
	assert.Equal(t, 2, report.Pathways)
}

func TestFitCluster_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	met, pro, labels, gmt := writeFixtureDataset(t, dir)

	out, err := runCommand(t,
		"fit", "cluster",
		"--data", "metabolomics="+met,
		"--data", "proteomics="+pro,
		"--labels", labels,
		"--pathways", gmt,
		"--clusters", "2",
		"--seed", "7",
		"-o", "json",
	)
	require.NoError(t, err, out)

	var report clustReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Clusters)
	assert.Len(t, report.Sizes, 2)
}

func TestFitCluster_AutoClusters(t *testing.T) {
	dir := t.TempDir()
	met, pro, labels, gmt := writeFixtureDataset(t, dir)

	out, err := runCommand(t,
		"fit", "cluster",
		"--data", "metabolomics="+met,
		"--data", "proteomics="+pro,
		"--labels", labels,
		"--pathways", gmt,
		"--auto-clusters",
		"--min-clusters", "2",
		"--max-clusters", "5",
		"--seed", "7",
		"-o", "json",
	)
	require.NoError(t, err, out)

	// Two planted groups: the sweep settles on two clusters.
	var report clustReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Clusters)
	assert.Len(t, report.Sizes, 2)
}

func TestFitDimRed_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	met, pro, labels, gmt := writeFixtureDataset(t, dir)

	out, err := runCommand(t,
		"fit", "dimred",
		"--data", "metabolomics="+met,
		"--data", "proteomics="+pro,
		"--labels", labels,
		"--pathways", gmt,
		"--components", "2",
		"-o", "json",
	)
	require.NoError(t, err, out)

	var report dimredReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Components)
	assert.Len(t, report.ExplainedVariance, 2)
}

func TestFit_MissingFlags(t *testing.T) {
	_, err := runCommand(t, "fit", "multiview")
	assert.Error(t, err)

	dir := t.TempDir()
	met, _, _, _ := writeFixtureDataset(t, dir)
	_, err = runCommand(t, "fit", "multiview", "--data", "metabolomics="+met)
	assert.Error(t, err)
}

func TestFit_BadDataSpec(t *testing.T) {
	_, err := runCommand(t, "fit", "multiview", "--data", "no-equals-sign",
		"--labels", "x.csv", "--pathways", "y.gmt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name=path")
}

func TestSimulate_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	met, pro, _, gmt := writeFixtureDataset(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := runCommand(t,
		"simulate",
		"--data", "metabolomics="+met,
		"--data", "proteomics="+pro,
		"--pathways", gmt,
		"--enrich", "PW1",
		"--effects", "1,2",
		"--effect-type", "constant",
		"--input-type", "log",
		"--seed", "7",
		"--out-dir", outDir,
		"-o", "json",
	)
	require.NoError(t, err, out)

	var report simulateReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"PW1"}, report.Enriched)
	assert.ElementsMatch(t, []string{"m1", "m2", "m3"}, report.Molecules)
	assert.Equal(t, 2, report.Clusters)
	require.Len(t, report.Outputs, 2)

	data, readErr := os.ReadFile(report.Outputs[0])
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Group")
}

func TestSimulate_RequiresEnrichment(t *testing.T) {
	dir := t.TempDir()
	met, _, _, gmt := writeFixtureDataset(t, dir)

	_, err := runCommand(t, "simulate",
		"--data", "metabolomics="+met,
		"--pathways", gmt,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich")
}

func TestSearch_DisabledByDefault(t *testing.T) {
	_, err := runCommand(t, "search", "water")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
