package conveyor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inference-sim/conveyor-sim/sim"
)

// ID addresses a conveyor inside its Line.
type ID int

// NoNext marks a conveyor without a downstream neighbor.
const NoNext ID = -1

var (
	// ErrUnknownConveyor is returned for IDs or names not in the line.
	ErrUnknownConveyor = errors.New("unknown conveyor")
	// ErrCycle is returned when a link would close a loop.
	ErrCycle = errors.New("link would create a cycle")
	// ErrAlreadyLinked is returned when the upstream conveyor already has a next.
	ErrAlreadyLinked = errors.New("conveyor already linked")
	// ErrCapacityMismatch is returned when an upstream batch could never fit downstream.
	ErrCapacityMismatch = errors.New("upstream capacity exceeds downstream capacity")
)

// Spec describes a conveyor to add to a line.
type Spec struct {
	Name     string
	Capacity int   // must be >= 1
	Period   int64 // transfer latency in ticks, must be >= 0
}

// Line owns a set of conveyors and the links between them. Conveyors refer
// to their downstream neighbor by ID, so the line is the single owner.
type Line struct {
	sim       *sim.Simulator
	conveyors []*Conveyor
	byName    map[string]ID
	observers []Observer
}

// NewLine creates an empty line scheduling on sim.
func NewLine(s *sim.Simulator) *Line {
	return &Line{
		sim:    s,
		byName: make(map[string]ID),
	}
}

// Simulator returns the kernel the line schedules on.
func (l *Line) Simulator() *sim.Simulator {
	return l.sim
}

// Add creates a terminal conveyor and returns its ID.
func (l *Line) Add(spec Spec) (ID, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return NoNext, fmt.Errorf("%w: conveyor name is required", sim.ErrInvalidConfig)
	}
	if _, exists := l.byName[name]; exists {
		return NoNext, fmt.Errorf("%w: duplicate conveyor %q", sim.ErrInvalidConfig, name)
	}
	if spec.Capacity < 1 {
		return NoNext, fmt.Errorf("%w: conveyor %q capacity %d must be >= 1", sim.ErrInvalidConfig, name, spec.Capacity)
	}
	if spec.Period < 0 {
		return NoNext, fmt.Errorf("%w: conveyor %q period %d must be >= 0", sim.ErrInvalidConfig, name, spec.Period)
	}
	id := ID(len(l.conveyors))
	l.conveyors = append(l.conveyors, &Conveyor{
		Agent:    sim.NewAgent(l.sim),
		id:       id,
		name:     name,
		capacity: spec.Capacity,
		period:   spec.Period,
		next:     NoNext,
		line:     l,
	})
	l.byName[name] = id
	return id, nil
}

// Link makes to the downstream neighbor of from. Links that would form a
// cycle, relink a conveyor, or feed a batch that could never fit are
// rejected.
func (l *Line) Link(from, to ID) error {
	src, dst := l.Get(from), l.Get(to)
	if src == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownConveyor, from)
	}
	if dst == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownConveyor, to)
	}
	if src.next != NoNext {
		return fmt.Errorf("%w: %s -> %s", ErrAlreadyLinked, src.name, l.conveyors[src.next].name)
	}
	for cur := to; cur != NoNext; cur = l.conveyors[cur].next {
		if cur == from {
			return fmt.Errorf("%w: %s -> %s", ErrCycle, src.name, dst.name)
		}
	}
	if src.capacity > dst.capacity {
		return fmt.Errorf("%w: %s (%d) -> %s (%d)", ErrCapacityMismatch, src.name, src.capacity, dst.name, dst.capacity)
	}
	src.next = to
	return nil
}

// Get returns the conveyor with the given ID, or nil.
func (l *Line) Get(id ID) *Conveyor {
	if id < 0 || int(id) >= len(l.conveyors) {
		return nil
	}
	return l.conveyors[id]
}

// Lookup returns the conveyor with the given name.
func (l *Line) Lookup(name string) (*Conveyor, bool) {
	id, ok := l.byName[name]
	if !ok {
		return nil, false
	}
	return l.conveyors[id], true
}

// Conveyors returns the conveyors in insertion order.
func (l *Line) Conveyors() []*Conveyor {
	return l.conveyors
}

// Observe registers an observer notified of every occupancy change.
func (l *Line) Observe(o Observer) {
	l.observers = append(l.observers, o)
}

func (l *Line) notify(ch Change) {
	for _, o := range l.observers {
		o(ch)
	}
}
