// sim/simulator.go
package sim

import (
	"github.com/sirupsen/logrus"
)

// Simulator is the event kernel: it holds the virtual clock, the pending
// event queue and the starters that seed it.
type Simulator struct {
	// Clock is the time of the most recently popped event.
	Clock int64

	config   KernelConfig
	ordering Ordering
	queue    *EventHeap
	starters []Starter
	endHooks []func(time int64)
	// seq counts submitted events; it is the source of sequence ids.
	seq      uint64
	executed uint64
	// pairs holds the packed counter of every (time, priority) pair with
	// queued events. Nil for the stable ordering.
	pairs map[pair]*pairCounter
}

type pair struct {
	time     int64
	priority int
}

// pairCounter numbers submissions on one pair while any of them is queued.
type pairCounter struct {
	next  uint64
	queue int
}

// NewSimulator builds a kernel for the given config. Configuration faults
// are returned before anything is scheduled.
func NewSimulator(config KernelConfig) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ordering := config.ordering()
	s := &Simulator{
		config:   config,
		ordering: ordering,
		queue:    NewEventHeap(ordering),
	}
	if config.Ordering == OrderingPacked {
		s.pairs = make(map[pair]*pairCounter)
	}
	return s, nil
}

// Config returns the kernel configuration.
func (sim *Simulator) Config() KernelConfig {
	return sim.config
}

// Schedule pushes an action at the given time and priority. Times earlier
// than Clock are accepted and simply run next, in order among the events
// already queued.
func (sim *Simulator) Schedule(time int64, priority int, action Action) *Event {
	ev := &Event{
		time:     time,
		priority: priority,
		seq:      sim.seq,
		key:      sim.ordering.Key(time, priority, sim.counter(time, priority)),
		action:   action,
	}
	sim.seq++
	sim.queue.Schedule(ev)
	return ev
}

// counter returns the value the ordering packs as the event's tie-break.
// The packed ordering counts per (time, priority) pair, so its counter
// wraps only when one pair holds more than CounterCapacity submissions.
func (sim *Simulator) counter(time int64, priority int) uint64 {
	if sim.pairs == nil {
		return sim.seq
	}
	p := pair{time, priority}
	c, ok := sim.pairs[p]
	if !ok {
		c = &pairCounter{}
		sim.pairs[p] = c
	}
	n := c.next
	c.next++
	c.queue++
	return n
}

// release forgets a pair once its last queued event has been popped.
func (sim *Simulator) release(ev *Event) {
	if sim.pairs == nil {
		return
	}
	p := pair{ev.time, ev.priority}
	if c, ok := sim.pairs[p]; ok {
		c.queue--
		if c.queue == 0 {
			delete(sim.pairs, p)
		}
	}
}

// ScheduleAt pushes an action at priority 0.
func (sim *Simulator) ScheduleAt(time int64, action Action) *Event {
	return sim.Schedule(time, 0, action)
}

// AddStarter registers a bootstrap procedure run once when Run begins.
func (sim *Simulator) AddStarter(starter Starter) {
	sim.starters = append(sim.starters, starter)
}

// OnEnd registers a hook invoked with the last reached time when Run returns.
func (sim *Simulator) OnEnd(hook func(time int64)) {
	sim.endHooks = append(sim.endHooks, hook)
}

// EventCount returns the number of events submitted so far.
func (sim *Simulator) EventCount() uint64 {
	return sim.seq
}

// Executed returns the number of events whose actions ran.
func (sim *Simulator) Executed() uint64 {
	return sim.executed
}

// Pending returns the number of queued events.
func (sim *Simulator) Pending() int {
	return sim.queue.Len()
}

// Run invokes pending starters, then pops and executes events in order
// until the queue drains or terminator holds for a popped event's time.
// That event is not executed. Panics raised by actions are not recovered.
func (sim *Simulator) Run(terminator Terminator) {
	starters := sim.starters
	sim.starters = nil
	for _, starter := range starters {
		starter.Start(sim)
	}
	logrus.Infof("[tick %07d] Simulation started with %d pending events", sim.Clock, sim.queue.Len())

	var time int64
	for sim.queue.Len() > 0 {
		ev := sim.queue.PopNext()
		sim.release(ev)
		time = ev.time
		sim.Clock = time
		if terminator != nil && terminator(time) {
			logrus.Infof("[tick %07d] Terminator fired, %d events left unexecuted", time, sim.queue.Len())
			break
		}
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logrus.Debugf("[tick %07d] Executing event %d (priority %d)", time, ev.seq, ev.priority)
		}
		sim.executed++
		ev.action(time)
	}

	logrus.Infof("[tick %07d] Simulation ended after %d events", time, sim.executed)
	for _, hook := range sim.endHooks {
		hook(time)
	}
}
