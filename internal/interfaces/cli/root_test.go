package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTable(t *testing.T) {
	out := FormatTable(
		[]string{"ID", "NAME"},
		[][]string{
			{"PW1", "glycolysis"},
			{"PW2", "tca"},
		},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID   NAME", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "---  ----------", lines[1])
	assert.Contains(t, lines[2], "glycolysis")
}

func TestFormatTable_ShortRow(t *testing.T) {
	out := FormatTable([]string{"A", "B"}, [][]string{{"x"}})
	assert.Contains(t, out, "x")
}

func TestFormatTable_NoHeaders(t *testing.T) {
	assert.Empty(t, FormatTable(nil, [][]string{{"x"}}))
}

func TestNewRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"config", "log-level", "output", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	subs := make(map[string]bool)
	for _, c := range cmd.Commands() {
		subs[c.Name()] = true
	}
	assert.True(t, subs["fit"])
	assert.True(t, subs["simulate"])
	assert.True(t, subs["search"])
}

func TestGetCLIContext_Uninitialized(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestRootCommand_Version(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "dev")
}

func TestPrintResult_JSONFallback(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, printResult(cmd, map[string]int{"answer": 42}))

	var parsed map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, 42, parsed["answer"])
}
