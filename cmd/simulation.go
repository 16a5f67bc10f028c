package cmd

import (
	"fmt"
	"iter"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/conveyor-sim/sim"
	"github.com/inference-sim/conveyor-sim/sim/conveyor"
	"github.com/inference-sim/conveyor-sim/sim/trace"
	"github.com/inference-sim/conveyor-sim/sim/workload"
)

// Simulation is a scenario wired onto a kernel, ready to run.
type Simulation struct {
	Scenario *Scenario
	Sim      *sim.Simulator
	Line     *conveyor.Line
	Trace    *trace.SimulationTrace // nil when tracing is off
	Sinks    []*sim.Repeater

	// EndedAt is the time of the last popped event, set by the end hook.
	EndedAt  int64
	Arrivals int
}

// BuildSimulation creates the kernel, the conveyor line and its links,
// the arrival starter and the sink drains described by sc.
func BuildSimulation(sc *Scenario) (*Simulation, error) {
	s, err := sim.NewSimulator(sc.KernelConfig())
	if err != nil {
		return nil, err
	}
	run := &Simulation{Scenario: sc, Sim: s, Line: conveyor.NewLine(s)}

	ids := make(map[string]conveyor.ID, len(sc.Conveyors))
	for _, entry := range sc.Conveyors {
		id, err := run.Line.Add(conveyor.Spec{Name: entry.Name, Capacity: entry.Capacity, Period: entry.Period})
		if err != nil {
			return nil, err
		}
		ids[entry.Name] = id
	}
	for _, entry := range sc.Conveyors {
		if entry.Next == "" {
			continue
		}
		if err := run.Line.Link(ids[entry.Name], ids[entry.Next]); err != nil {
			return nil, fmt.Errorf("%w: linking %s -> %s: %w", sim.ErrInvalidConfig, entry.Name, entry.Next, err)
		}
	}

	traceConfig := trace.TraceConfig{Level: trace.TraceLevel(sc.Trace.Level)}
	if traceConfig.Enabled() {
		run.Trace = trace.NewSimulationTrace(traceConfig)
		run.Line.Observe(conveyor.TraceObserver(run.Trace))
	}

	records, err := run.arrivals()
	if err != nil {
		return nil, err
	}
	s.AddStarter(&sim.RecordStarter[workload.ArrivalRecord]{
		Records: records,
		TimeOf:  func(rec workload.ArrivalRecord) int64 { return rec.Time },
		Process: func(now int64, rec workload.ArrivalRecord) {
			c, _ := run.Line.Lookup(rec.Conveyor)
			c.PutOn(now, conveyor.Cargo{ID: rec.CargoID, Created: now}, nil)
		},
		Before: func(*sim.Simulator) {
			logrus.Infof("Scheduling arrivals for %d conveyors", len(sc.Conveyors))
		},
		After: func(*sim.Simulator) {
			logrus.Infof("Scheduled %d arrivals", run.Arrivals)
		},
	})

	for _, entry := range sc.Sinks {
		c, _ := run.Line.Lookup(entry.Conveyor)
		until := entry.Until
		if until == 0 {
			until = sc.Horizon
		}
		s.AddStarter(sim.StarterFunc(func(s *sim.Simulator) {
			r := s.Repeat(entry.Start, entry.Period, entry.Priority, func(now int64) {
				if batch := c.Extract(now); len(batch) > 0 {
					logrus.Debugf("[tick %07d] sink drained %d from %s", now, len(batch), c.Name())
				}
			}, sim.UntilHorizon(until))
			run.Sinks = append(run.Sinks, r)
		}))
	}

	drained := make(map[string]bool, len(sc.Sinks))
	for _, entry := range sc.Sinks {
		drained[entry.Conveyor] = true
	}
	for _, c := range run.Line.Conveyors() {
		if c.IsTerminal() && !drained[c.Name()] {
			logrus.Warnf("Conveyor %s is a sink with no drain; it stops accepting once %d units arrive", c.Name(), c.Capacity())
		}
	}

	s.OnEnd(func(time int64) { run.EndedAt = time })
	return run, nil
}

// arrivals merges the scenario's arrival sources. File and inline records
// are checked against the line; periodic ones were checked on load.
func (run *Simulation) arrivals() (iter.Seq[workload.ArrivalRecord], error) {
	sc := run.Scenario
	var fixed []workload.ArrivalRecord
	if sc.Arrivals.File != "" {
		loaded, err := workload.LoadArrivalsCSV(sc.ResolvePath(sc.Arrivals.File))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sim.ErrInvalidConfig, err)
		}
		fixed = append(fixed, loaded...)
	}
	fixed = append(fixed, sc.Arrivals.Inline...)
	for _, rec := range fixed {
		if _, ok := run.Line.Lookup(rec.Conveyor); !ok {
			return nil, fmt.Errorf("%w: arrival %q targets unknown conveyor %q", sim.ErrInvalidConfig, rec.CargoID, rec.Conveyor)
		}
	}

	seqs := []iter.Seq[workload.ArrivalRecord]{slices.Values(fixed)}
	for _, p := range sc.Arrivals.Periodic {
		seqs = append(seqs, p.Records())
	}
	merged := workload.Concat(seqs...)
	return func(yield func(workload.ArrivalRecord) bool) {
		for rec := range merged {
			run.Arrivals++
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// Terminator stops the run after the scenario horizon; nil runs until the
// queue drains.
func (run *Simulation) Terminator() sim.Terminator {
	if run.Scenario.Horizon == 0 {
		return nil
	}
	return sim.UntilHorizon(run.Scenario.Horizon)
}

// Run executes the simulation to completion.
func (run *Simulation) Run() {
	run.Sim.Run(run.Terminator())
}
