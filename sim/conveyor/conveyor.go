// Package conveyor models chains of bounded conveyors built on sim.Agent.
// Puts that find a conveyor full, and passes that find the downstream
// conveyor busy, wait as agent operations and resume when space is freed.
package conveyor

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/conveyor-sim/sim"
)

// jobKey separates a conveyor's blocked puts from the upstream passes
// waiting for it to be emptied.
type jobKey int

const (
	insertionKey jobKey = iota
	extractionKey
)

// Cargo is one unit carried along a line.
type Cargo struct {
	ID      string
	Created int64 // tick the cargo entered the line
}

// State is derived from occupancy and transfer status.
type State string

const (
	StateIdle     State = "idle"
	StateLoaded   State = "loaded"
	StateFull     State = "full"
	StateDraining State = "draining" // a pass downstream is waiting for a retry
)

// Stats counts what happened on one conveyor.
type Stats struct {
	Accepted      int
	BlockedPuts   int // puts that found the conveyor full at least once
	Passes        int
	Deferrals     int
	Extracted     int
	PeakOccupancy int
}

// Conveyor buffers up to capacity cargo units and, period ticks after it
// turns non-empty, passes its whole batch to the next conveyor in its line.
// A conveyor with no next is a terminal sink: it is never drained by passes,
// only by Extract.
type Conveyor struct {
	*sim.Agent

	id       ID
	name     string
	capacity int
	period   int64
	cargo    []Cargo
	next     ID
	line     *Line

	waiting  bool // a pass is deferred on the next conveyor's extraction key
	deferral int  // bumped on every deferral and extraction; stale retries compare against it
	epoch    int  // bumped on extraction; deliveries scheduled before it are dropped
	stats    Stats
}

// ID returns the conveyor's index in its line.
func (c *Conveyor) ID() ID { return c.id }

// Name returns the conveyor's name.
func (c *Conveyor) Name() string { return c.name }

// Capacity returns the maximum number of cargo units held at once.
func (c *Conveyor) Capacity() int { return c.capacity }

// Period returns the transfer latency in ticks.
func (c *Conveyor) Period() int64 { return c.period }

// Len returns the current occupancy.
func (c *Conveyor) Len() int { return len(c.cargo) }

// IsEmpty reports whether the conveyor holds no cargo.
func (c *Conveyor) IsEmpty() bool { return len(c.cargo) == 0 }

// IsTerminal reports whether the conveyor is a sink.
func (c *Conveyor) IsTerminal() bool { return c.next == NoNext }

// Next returns the downstream conveyor's ID, or NoNext.
func (c *Conveyor) Next() ID { return c.next }

// PendingPuts returns how many puts are still waiting for room.
func (c *Conveyor) PendingPuts() int { return c.Pending(insertionKey) }

// Stats returns a copy of the conveyor's counters.
func (c *Conveyor) Stats() Stats { return c.stats }

// Cargo returns a copy of the cargo currently on the conveyor, oldest first.
func (c *Conveyor) Cargo() []Cargo {
	out := make([]Cargo, len(c.cargo))
	copy(out, c.cargo)
	return out
}

// State returns the conveyor's current state.
func (c *Conveyor) State() State {
	switch {
	case c.waiting:
		return StateDraining
	case len(c.cargo) == 0:
		return StateIdle
	case len(c.cargo) >= c.capacity:
		return StateFull
	default:
		return StateLoaded
	}
}

// PutOn offers cargo to the conveyor. If there is room it is accepted at
// once; otherwise the put stays queued and is retried whenever space is
// freed, without the caller doing anything. onAccepted, if set, receives
// the tick the cargo was actually accepted.
func (c *Conveyor) PutOn(now int64, cargo Cargo, onAccepted sim.Action) {
	blocked := false
	c.TryOperation(insertionKey, now, func(t int64) bool {
		if len(c.cargo) >= c.capacity {
			if !blocked {
				blocked = true
				c.stats.BlockedPuts++
				logrus.Debugf("[tick %07d] %s full, %s waits", t, c.name, cargo.ID)
			}
			return false
		}
		wasEmpty := len(c.cargo) == 0
		c.cargo = append(c.cargo, cargo)
		c.stats.Accepted++
		c.stats.PeakOccupancy = max(c.stats.PeakOccupancy, len(c.cargo))
		if wasEmpty {
			c.deliver(t)
		}
		c.line.notify(Change{Time: t, Kind: ChangeAccepted, Conveyor: c, Batch: []Cargo{cargo}, RequestedAt: now})
		if onAccepted != nil {
			onAccepted(t)
		}
		return true
	})
}

// Extract removes all cargo from the conveyor, as external logic draining a
// sink would, and wakes everything blocked on it.
func (c *Conveyor) Extract(now int64) []Cargo {
	batch := c.cargo
	c.cargo = nil
	c.waiting = false
	c.deferral++
	c.epoch++
	c.stats.Extracted += len(batch)
	if len(batch) > 0 {
		c.line.notify(Change{Time: now, Kind: ChangeExtracted, Conveyor: c, Batch: batch})
	}
	c.Resume(insertionKey, now)
	c.Resume(extractionKey, now)
	return batch
}

// deliver schedules a pass period ticks from now.
func (c *Conveyor) deliver(now int64) {
	if c.IsEmpty() || c.IsTerminal() {
		return
	}
	epoch := c.epoch
	c.Simulator().Schedule(now+c.period, 0, func(t int64) {
		if c.epoch == epoch {
			c.transfer(t)
		}
	})
}

// canTake reports whether a batch of n units may be passed in whole.
func (c *Conveyor) canTake(n int) bool {
	return (c.IsEmpty() || c.IsTerminal()) && len(c.cargo)+n <= c.capacity
}

// transfer passes the whole batch downstream, or defers until the
// downstream conveyor's extraction key is resumed.
func (c *Conveyor) transfer(now int64) {
	if c.IsEmpty() || c.IsTerminal() {
		return
	}
	next := c.line.conveyors[c.next]
	if !next.canTake(len(c.cargo)) {
		c.waiting = true
		c.deferral++
		c.stats.Deferrals++
		token := c.deferral
		logrus.Debugf("[tick %07d] %s -> %s deferred (%d waiting)", now, c.name, next.name, len(c.cargo))
		c.line.notify(Change{Time: now, Kind: ChangeDeferred, Conveyor: c, Peer: next, Batch: c.Cargo()})
		next.AddDisposable(extractionKey, func(t int64) {
			if c.waiting && c.deferral == token {
				c.transfer(t)
			}
		})
		return
	}

	batch := c.cargo
	c.cargo = nil
	c.waiting = false
	next.cargo = append(next.cargo, batch...)
	next.stats.PeakOccupancy = max(next.stats.PeakOccupancy, len(next.cargo))
	c.stats.Passes++
	logrus.Debugf("[tick %07d] %s -> %s passed %d", now, c.name, next.name, len(batch))
	c.line.notify(Change{Time: now, Kind: ChangeSent, Conveyor: c, Peer: next, Batch: batch})
	c.line.notify(Change{Time: now, Kind: ChangeReceived, Conveyor: next, Peer: c, Batch: batch})

	c.Resume(insertionKey, now)
	c.Resume(extractionKey, now)
	next.deliver(now)
}
