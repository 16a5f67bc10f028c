package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/inference-sim/conveyor-sim/sim"
	"github.com/inference-sim/conveyor-sim/sim/workload"
)

var backpressurePath = filepath.Join("..", "testdata", "scenarios", "backpressure.yaml")

// executeRoot runs the CLI with args and returns what it printed.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand_JSONReport(t *testing.T) {
	// GIVEN the backpressure scenario and a SQLite export target
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	// WHEN run with --json
	output, err := executeRoot(t, "run", "--scenario", backpressurePath, "--json", "--trace-db", dbPath)

	// THEN the report is valid JSON describing the run
	require.NoError(t, err)
	var rep Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.Equal(t, "packed", rep.Ordering)
	assert.Equal(t, int64(125), rep.EndedAt)
	assert.Equal(t, 5, rep.Arrivals)
	require.Len(t, rep.Conveyors, 3)
	assert.Equal(t, "sorter", rep.Conveyors[0].Next)
	assert.Equal(t, 5, rep.Conveyors[2].Extracted)
	require.NotNil(t, rep.Trace)
	assert.Equal(t, 5, rep.Trace.CargoExtracted)

	// AND the trace landed in SQLite under the reported run ID
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var transfers int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transfers WHERE run_id = ?`, rep.RunID).Scan(&transfers))
	assert.Equal(t, 8, transfers)
}

func TestValidateCommand(t *testing.T) {
	output, err := executeRoot(t, "validate", "--scenario", backpressurePath)

	require.NoError(t, err)
	assert.Equal(t, "scenario OK: 3 conveyors, 1 sinks\n", output)
}

func TestValidateCommand_MissingScenarioFlag(t *testing.T) {
	_, err := executeRoot(t, "validate", "--scenario", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestArrivalsCommand_ExportsMergedArrivals(t *testing.T) {
	// GIVEN a CSV destination
	out := filepath.Join(t.TempDir(), "merged.csv")

	// WHEN the arrivals are exported
	output, err := executeRoot(t, "arrivals", "--scenario", backpressurePath, "--out", out)

	// THEN file arrivals come first, then the periodic ones
	require.NoError(t, err)
	assert.Contains(t, output, "wrote 5 arrivals")
	records, err := workload.LoadArrivalsCSV(out)
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.CargoID)
	}
	assert.Equal(t, []string{"a1", "a2", "a3", "late-0", "late-1"}, ids)
	assert.Equal(t, int64(30), records[4].Time)
}

func TestApplyOverrides(t *testing.T) {
	// GIVEN overrides from flags or environment
	v := viper.New()
	v.Set("horizon", 40)
	v.Set("ordering", "packed")
	v.Set("priority-bits", 3)
	v.Set("trace-level", "transfers")
	v.Set("timeline", "-")
	sc, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	// WHEN applied
	require.NoError(t, applyOverrides(sc, v))

	// THEN they replace the scenario values
	assert.Equal(t, int64(40), sc.Horizon)
	assert.Equal(t, KernelSection{Ordering: "packed", PriorityBits: 3}, sc.Kernel)
	assert.Equal(t, "transfers", sc.Trace.Level)
	assert.Equal(t, "-", sc.Trace.Timeline)
}

func TestApplyOverrides_UnsetKeysKeepScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	require.NoError(t, applyOverrides(sc, viper.New()))

	assert.Equal(t, "stable", sc.Kernel.Ordering)
	assert.Equal(t, int64(0), sc.Horizon)
}

func TestApplyOverrides_InvalidResultRejected(t *testing.T) {
	v := viper.New()
	v.Set("priority-bits", 12)
	v.Set("ordering", "packed")
	sc, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	err = applyOverrides(sc, v)

	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestWriteTimeline_File(t *testing.T) {
	// GIVEN a finished traced run
	run, err := BuildSimulation(loadTestScenario(t, "backpressure.yaml"))
	require.NoError(t, err)
	run.Run()
	path := filepath.Join(t.TempDir(), "timeline.txt")

	// WHEN the timeline is written
	require.NoError(t, writeTimeline(path, run.Trace))

	// THEN it holds one line per record
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 5+8+1+2)
	assert.Equal(t, "[tick 0000000] accept   intake <- a1 (requested 0)", lines[0])
}
