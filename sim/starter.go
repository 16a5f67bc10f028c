package sim

import "iter"

// Starter seeds the simulator with its initial events. Each registered
// starter runs exactly once, when Run begins.
type Starter interface {
	Start(sim *Simulator)
}

// StarterFunc adapts a function to the Starter interface.
type StarterFunc func(sim *Simulator)

// Start calls f(sim).
func (f StarterFunc) Start(sim *Simulator) {
	f(sim)
}

// RecordStarter schedules one event per externally supplied record at the
// record's own time. Records may be a finite slice (slices.Values) or a
// lazily produced sequence.
type RecordStarter[T any] struct {
	Records iter.Seq[T]
	TimeOf  func(rec T) int64
	Process func(now int64, rec T)
	Before  func(sim *Simulator) // optional, runs before any record is read
	After   func(sim *Simulator) // optional, runs after the last record is scheduled
}

// Start implements Starter.
func (s *RecordStarter[T]) Start(sim *Simulator) {
	if s.Before != nil {
		s.Before(sim)
	}
	for rec := range s.Records {
		sim.Schedule(s.TimeOf(rec), 0, func(now int64) {
			s.Process(now, rec)
		})
	}
	if s.After != nil {
		s.After(sim)
	}
}
