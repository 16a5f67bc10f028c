package sim

import "fmt"

// Action is the callback carried by an event. It receives the tick the
// event executes at.
type Action func(now int64)

// Terminator decides whether the run loop should stop before executing
// the event popped at the given tick. A nil Terminator never stops.
type Terminator func(now int64) bool

// UntilHorizon returns a Terminator that stops the loop at the first event
// scheduled past horizon.
func UntilHorizon(horizon int64) Terminator {
	return func(now int64) bool { return now > horizon }
}

// Event is a scheduled action. The pointer returned by Schedule doubles as
// the event's handle.
type Event struct {
	time     int64  // Simulation time of execution (in ticks)
	priority int    // Lower values run first among events at equal time
	seq      uint64 // Submission order, assigned by the simulator
	key      uint64 // Ordering key computed by the active Ordering
	action   Action
}

// Timestamp returns the scheduled time of the event.
func (e *Event) Timestamp() int64 {
	return e.time
}

// Priority returns the event's priority.
func (e *Event) Priority() int {
	return e.priority
}

// EventID returns the submission sequence id of the event.
func (e *Event) EventID() uint64 {
	return e.seq
}

// Append extends the event so that next runs right after the original
// action. The event keeps its position in the queue, which lets independent
// subscribers share one tick without scheduling duplicates.
func (e *Event) Append(next Action) *Event {
	prev := e.action
	e.action = func(now int64) {
		prev(now)
		next(now)
	}
	return e
}

func (e *Event) String() string {
	return fmt.Sprintf("%d:%d", e.time, e.priority)
}
