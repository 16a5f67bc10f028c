package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/conveyor-sim/sim"
	"github.com/inference-sim/conveyor-sim/sim/trace"
	"github.com/inference-sim/conveyor-sim/sim/workload"
)

// Scenario represents a full scenario YAML file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Version   string          `yaml:"version"`
	Kernel    KernelSection   `yaml:"kernel"`
	Horizon   int64           `yaml:"horizon,omitempty"` // 0 = run until the queue drains
	Conveyors []ConveyorEntry `yaml:"conveyors"`
	Arrivals  ArrivalsSection `yaml:"arrivals"`
	Sinks     []SinkEntry     `yaml:"sinks,omitempty"`
	Trace     TraceSection    `yaml:"trace,omitempty"`

	// dir is the scenario file's directory; relative paths resolve against it.
	dir string
}

// KernelSection selects the event ordering.
type KernelSection struct {
	Ordering     string `yaml:"ordering"`
	PriorityBits int    `yaml:"priority_bits"`
}

// ConveyorEntry declares one conveyor and, optionally, its downstream neighbor.
type ConveyorEntry struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
	Period   int64  `yaml:"period"`
	Next     string `yaml:"next,omitempty"`
}

// ArrivalsSection lists the cargo sources. All of them are merged.
type ArrivalsSection struct {
	File     string                   `yaml:"file,omitempty"` // CSV: time,conveyor,cargo
	Inline   []workload.ArrivalRecord `yaml:"inline,omitempty"`
	Periodic []workload.PeriodicSpec  `yaml:"periodic,omitempty"`
}

// SinkEntry drains a conveyor every Period ticks, standing in for the
// external logic that empties terminal conveyors.
type SinkEntry struct {
	Conveyor string `yaml:"conveyor"`
	Start    int64  `yaml:"start"`
	Period   int64  `yaml:"period"`
	Priority int    `yaml:"priority"`
	Until    int64  `yaml:"until,omitempty"` // last tick a drain may run; 0 = horizon
}

// TraceSection configures recording and its outputs.
type TraceSection struct {
	Level    string `yaml:"level"`
	SQLite   string `yaml:"sqlite,omitempty"`
	Timeline string `yaml:"timeline,omitempty"`
}

// KernelConfig converts the kernel section.
func (s *Scenario) KernelConfig() sim.KernelConfig {
	return sim.KernelConfig{
		Ordering:     sim.OrderingKind(s.Kernel.Ordering),
		PriorityBits: s.Kernel.PriorityBits,
	}
}

// ResolvePath resolves a path from the scenario file relative to its directory.
func (s *Scenario) ResolvePath(path string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// ParseScenario decodes a scenario with strict field checking (typos must
// cause errors) and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing scenario YAML: empty document")
		}
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate reports configuration faults. Link-level checks (cycles,
// capacity mismatches) happen when the line is built.
func (s *Scenario) Validate() error {
	kernel := s.KernelConfig()
	if err := kernel.Validate(); err != nil {
		return err
	}
	if s.Horizon < 0 {
		return fmt.Errorf("%w: horizon %d must be >= 0", sim.ErrInvalidConfig, s.Horizon)
	}
	if len(s.Conveyors) == 0 {
		return fmt.Errorf("%w: at least one conveyor is required", sim.ErrInvalidConfig)
	}
	names := make(map[string]bool, len(s.Conveyors))
	for _, c := range s.Conveyors {
		names[c.Name] = true
	}
	for _, c := range s.Conveyors {
		if c.Next != "" && !names[c.Next] {
			return fmt.Errorf("%w: conveyor %q links to unknown conveyor %q", sim.ErrInvalidConfig, c.Name, c.Next)
		}
	}
	for _, rec := range s.Arrivals.Inline {
		if !names[rec.Conveyor] {
			return fmt.Errorf("%w: inline arrival %q targets unknown conveyor %q", sim.ErrInvalidConfig, rec.CargoID, rec.Conveyor)
		}
		if rec.Time < 0 {
			return fmt.Errorf("%w: inline arrival %q has negative time", sim.ErrInvalidConfig, rec.CargoID)
		}
	}
	for _, p := range s.Arrivals.Periodic {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", sim.ErrInvalidConfig, err)
		}
		if !names[p.Conveyor] {
			return fmt.Errorf("%w: periodic arrivals target unknown conveyor %q", sim.ErrInvalidConfig, p.Conveyor)
		}
	}
	for _, sink := range s.Sinks {
		if !names[sink.Conveyor] {
			return fmt.Errorf("%w: sink drains unknown conveyor %q", sim.ErrInvalidConfig, sink.Conveyor)
		}
		if sink.Period <= 0 {
			return fmt.Errorf("%w: sink %q period %d must be > 0", sim.ErrInvalidConfig, sink.Conveyor, sink.Period)
		}
		if sink.Priority < 0 || sink.Priority > kernel.MaxPriority() {
			return fmt.Errorf("%w: sink %q priority %d outside [0, %d]", sim.ErrInvalidConfig, sink.Conveyor, sink.Priority, kernel.MaxPriority())
		}
		if sink.Until == 0 && s.Horizon == 0 {
			return fmt.Errorf("%w: sink %q never stops; set until or a horizon", sim.ErrInvalidConfig, sink.Conveyor)
		}
	}
	if !trace.IsValidTraceLevel(s.Trace.Level) {
		return fmt.Errorf("%w: unknown trace level %q", sim.ErrInvalidConfig, s.Trace.Level)
	}
	traced := trace.TraceConfig{Level: trace.TraceLevel(s.Trace.Level)}.Enabled()
	if !traced && (s.Trace.SQLite != "" || s.Trace.Timeline != "") {
		return fmt.Errorf("%w: trace outputs need a trace level other than none", sim.ErrInvalidConfig)
	}
	return nil
}
