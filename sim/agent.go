package sim

// JobKey groups one agent's pending operations of one kind. Any comparable
// value works.
type JobKey any

// Operation is a retryable step. It returns true once it has completed and
// false to stay queued for the next Resume of its key.
type Operation func(now int64) bool

// Agent owns per-key FIFO queues of pending operations. It models blocking
// without threads: an operation that cannot finish stays queued until
// another event resumes its key.
type Agent struct {
	sim  *Simulator
	jobs map[JobKey][]Operation
}

// NewAgent creates an agent bound to the simulator.
func NewAgent(sim *Simulator) *Agent {
	return &Agent{
		sim:  sim,
		jobs: make(map[JobKey][]Operation),
	}
}

// Simulator returns the kernel the agent schedules on.
func (a *Agent) Simulator() *Simulator {
	return a.sim
}

// TryOperation queues op under key and resumes the key right away, so op
// completes inline when it already can.
func (a *Agent) TryOperation(key JobKey, now int64, op Operation) {
	a.AddOperation(key, op)
	a.Resume(key, now)
}

// AddOperation queues op under key without evaluating it.
func (a *Agent) AddOperation(key JobKey, op Operation) {
	a.jobs[key] = append(a.jobs[key], op)
}

// AddDisposable queues a one-shot action that runs on the next Resume of key.
func (a *Agent) AddDisposable(key JobKey, action Action) {
	a.AddOperation(key, func(now int64) bool {
		action(now)
		return true
	})
}

// Resume evaluates the operations queued under key in FIFO order and drops
// the ones that complete. Survivors keep their relative order. Operations
// queued while Resume runs go after the survivors and wait for the next call.
func (a *Agent) Resume(key JobKey, now int64) {
	ops := a.jobs[key]
	if len(ops) == 0 {
		return
	}
	a.jobs[key] = nil
	kept := ops[:0]
	for _, op := range ops {
		if !op(now) {
			kept = append(kept, op)
		}
	}
	clear(ops[len(kept):])
	kept = append(kept, a.jobs[key]...)
	if len(kept) == 0 {
		delete(a.jobs, key)
		return
	}
	a.jobs[key] = kept
}

// Pending returns the number of operations queued under key.
func (a *Agent) Pending(key JobKey) int {
	return len(a.jobs[key])
}
