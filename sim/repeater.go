package sim

// Repeater runs an action every period ticks until its terminator holds.
type Repeater struct {
	sim        *Simulator
	period     int64
	priority   int
	action     Action
	terminator Terminator
	tick       Action
	ticks      int
}

// Repeat schedules action at start and then every period ticks. When
// terminator holds for the time a tick is about to run, that tick does
// nothing and the chain stops for good. A nil terminator never stops.
func (sim *Simulator) Repeat(start, period int64, priority int, action Action, terminator Terminator) *Repeater {
	r := &Repeater{
		sim:        sim,
		period:     period,
		priority:   priority,
		action:     action,
		terminator: terminator,
	}
	r.sim.Schedule(start, priority, r.callback())
	return r
}

// callback builds the recurring action once and hands out the same value
// on every call, so each reschedule carries an identical callback.
func (r *Repeater) callback() Action {
	if r.tick == nil {
		r.tick = func(now int64) {
			if r.terminator != nil && r.terminator(now) {
				return
			}
			r.ticks++
			r.action(now)
			r.sim.Schedule(now+r.period, r.priority, r.tick)
		}
	}
	return r.tick
}

// Ticks returns how many times the action has run.
func (r *Repeater) Ticks() int {
	return r.ticks
}
