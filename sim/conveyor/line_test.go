package conveyor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/conveyor-sim/sim"
	"github.com/inference-sim/conveyor-sim/sim/internal/testutil"
	"github.com/inference-sim/conveyor-sim/sim/trace"
)

func TestLine_Add_RejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"empty name", Spec{Name: " ", Capacity: 1}},
		{"zero capacity", Spec{Name: "a", Capacity: 0}},
		{"negative period", Spec{Name: "a", Capacity: 1, Period: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := NewLine(newTestSimulator(t))
			_, err := line.Add(tt.spec)
			assert.ErrorIs(t, err, sim.ErrInvalidConfig)
		})
	}
}

func TestLine_Add_RejectsDuplicateNames(t *testing.T) {
	line := NewLine(newTestSimulator(t))
	_, err := line.Add(Spec{Name: "a", Capacity: 1})
	require.NoError(t, err)
	_, err = line.Add(Spec{Name: "a", Capacity: 2})
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestLine_Link_Validation(t *testing.T) {
	line := NewLine(newTestSimulator(t))
	a, _ := line.Add(Spec{Name: "a", Capacity: 1})
	b, _ := line.Add(Spec{Name: "b", Capacity: 2})
	c, _ := line.Add(Spec{Name: "c", Capacity: 2})
	small, _ := line.Add(Spec{Name: "small", Capacity: 1})

	require.NoError(t, line.Link(a, b))
	require.NoError(t, line.Link(b, c))

	assert.ErrorIs(t, line.Link(c, a), ErrCycle, "closing the loop")
	assert.ErrorIs(t, line.Link(small, small), ErrCycle, "self link")
	assert.ErrorIs(t, line.Link(a, c), ErrAlreadyLinked)
	assert.ErrorIs(t, line.Link(c, small), ErrCapacityMismatch)
	assert.ErrorIs(t, line.Link(a, ID(42)), ErrUnknownConveyor)
	assert.ErrorIs(t, line.Link(ID(-3), a), ErrUnknownConveyor)

	// a failed link leaves the conveyor terminal
	assert.True(t, line.Get(c).IsTerminal())
	assert.Equal(t, b, line.Get(a).Next())
}

func TestLine_Lookup(t *testing.T) {
	line := NewLine(newTestSimulator(t))
	id, _ := line.Add(Spec{Name: "belt", Capacity: 1})

	c, ok := line.Lookup("belt")
	require.True(t, ok)
	assert.Equal(t, id, c.ID())
	_, ok = line.Lookup("missing")
	assert.False(t, ok)
	assert.Nil(t, line.Get(NoNext))
	assert.Len(t, line.Conveyors(), 1)
}

func TestLine_Timeline_MatchesGolden(t *testing.T) {
	// GIVEN a belt feeding a small sink, traced at the most verbose level
	s := newTestSimulator(t)
	line := NewLine(s)
	chain := buildChain(t, line,
		Spec{Name: "a", Capacity: 1, Period: 5},
		Spec{Name: "s", Capacity: 2},
	)
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelAll})
	line.Observe(TraceObserver(st))

	put := func(id string) sim.Action {
		return func(now int64) { chain[0].PutOn(now, Cargo{ID: id, Created: now}, nil) }
	}
	s.ScheduleAt(0, put("x1"))
	s.ScheduleAt(0, put("x2"))
	s.ScheduleAt(17, func(now int64) { chain[1].Extract(now) })
	s.ScheduleAt(1, put("x3"))

	// WHEN the simulation runs to completion
	s.Run(nil)

	// THEN the recorded timeline matches the golden file
	var buf bytes.Buffer
	require.NoError(t, st.WriteTimeline(&buf))
	testutil.Golden(t).Assert(t, "line_timeline", buf.Bytes())

	summary := trace.Summarize(st)
	assert.Equal(t, 1, summary.TotalDeferrals)
	assert.Equal(t, 3, summary.CargoTransferred)
	assert.Equal(t, 2, summary.CargoExtracted)
}

func TestLine_ErrorsWrapSentinels(t *testing.T) {
	line := NewLine(newTestSimulator(t))
	a, _ := line.Add(Spec{Name: "a", Capacity: 1})
	err := line.Link(a, a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycle))
	assert.Contains(t, err.Error(), "a -> a")
}
