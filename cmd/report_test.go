package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_WriteTable(t *testing.T) {
	// GIVEN a finished run of the drain scenario
	run, err := BuildSimulation(loadTestScenario(t, "drain.yaml"))
	require.NoError(t, err)
	run.Run()

	// WHEN the table report is rendered
	var buf bytes.Buffer
	NewReport(run).WriteTable(&buf)
	output := buf.String()

	// THEN the conveyor row and the run summary are present
	assert.Contains(t, output, "CONVEYOR")
	assert.Contains(t, output, "bin")
	assert.Contains(t, output, "full")
	assert.Contains(t, output, "=== Simulation Summary ===")
	assert.Contains(t, output, "Ordering        : stable")
	assert.Contains(t, output, "Ended at tick   : 2")
	assert.Contains(t, output, "Run ID          : "+run.Trace.RunID)
	assert.NotContains(t, output, "Mean put wait", "accepts are not traced at the transfers level")
}

func TestNewReport_UntracedRun(t *testing.T) {
	sc := loadTestScenario(t, "drain.yaml")
	sc.Trace.Level = "none"
	run, err := BuildSimulation(sc)
	require.NoError(t, err)
	run.Run()

	rep := NewReport(run)

	assert.Nil(t, rep.Trace)
	assert.Empty(t, rep.RunID)
	require.Len(t, rep.Conveyors, 1)
	assert.Equal(t, ConveyorReport{
		Name:          "bin",
		Capacity:      2,
		Period:        0,
		State:         "full",
		Occupancy:     2,
		Accepted:      2,
		BlockedPuts:   1,
		PeakOccupancy: 2,
		PendingPuts:   1,
	}, rep.Conveyors[0])
	assert.Equal(t, uint64(3), rep.EventsRun)
	assert.Equal(t, 0, rep.EventsPending)
}
