package sched

import "time"

// Task is a unit of periodic work owned by a Scheduler.
type Task struct {
	id string
	s  *Scheduler
	fn Func

	period          time.Duration
	priority        Priority
	running         bool
	times           int
	count           int
	deleteAfterStop bool
	deleted         bool

	lastRun time.Time
	seq     uint64
}

// ID returns the task identifier, generating it on first call.
func (t *Task) ID() string {
	if t.id == "" {
		t.id = t.s.newID()
	}
	return t.id
}

// Start schedules the task with its current period and priority. The first
// run happens one period from now. A task whose priority is PriorityOff
// stays stopped.
func (t *Task) Start() {
	if t.deleted || t.priority == PriorityOff {
		return
	}
	t.running = true
	t.lastRun = t.s.clock.Now()
}

// StartWith sets the period and run budget, then starts the task.
func (t *Task) StartWith(period time.Duration, times int) {
	t.SetPeriod(period)
	t.SetTimes(times)
	t.Start()
}

// StartAndRun starts the task and runs it immediately, without waiting for
// the first period.
func (t *Task) StartAndRun() {
	t.Start()
	if t.running {
		t.checkAndRun(t.s.clock.Now())
	}
}

// Stop de-schedules the task and resets its run count. A task flagged with
// SetDeleteAfterStop is removed from the scheduler.
func (t *Task) Stop() {
	if t.deleted {
		return
	}
	t.running = false
	t.count = 0
	if t.deleteAfterStop {
		t.s.remove(t)
	}
}

// Restart resets the run count and period timer and (re)starts the task.
// Unlike Stop followed by Start, it never deletes the task.
func (t *Task) Restart() {
	if t.deleted {
		return
	}
	t.count = 0
	t.lastRun = t.s.clock.Now()
	t.running = t.priority != PriorityOff
}

// Ready makes a running task due on the next Poll.
func (t *Task) Ready() {
	t.lastRun = t.s.clock.Now().Add(-t.period)
}

// Reset restarts the period timer so the next run is one full period away.
func (t *Task) Reset() {
	t.lastRun = t.s.clock.Now()
}

// Delete removes the task from the scheduler. It will not run again.
func (t *Task) Delete() {
	if t.deleted {
		return
	}
	t.s.remove(t)
}

// IsDeleted reports whether the task has been removed.
func (t *Task) IsDeleted() bool {
	return t.deleted
}

// IsRunning reports whether the task is scheduled.
func (t *Task) IsRunning() bool {
	return t.running && !t.deleted
}

// Period returns the task period.
func (t *Task) Period() time.Duration {
	return t.period
}

// SetPeriod changes the task period.
func (t *Task) SetPeriod(period time.Duration) {
	t.period = clampPeriod(period)
}

// Priority returns the task priority.
func (t *Task) Priority() Priority {
	return t.priority
}

// SetPriority changes the priority. Setting PriorityOff on a running task
// stops it.
func (t *Task) SetPriority(p Priority) {
	t.priority = p
	if p == PriorityOff && t.running {
		t.Stop()
	}
}

// Times returns the run budget; -1 means unlimited.
func (t *Task) Times() int {
	return t.times
}

// SetTimes sets the run budget; any negative value means unlimited. The
// run count is not reset.
func (t *Task) SetTimes(n int) {
	if n < 0 {
		n = -1
	}
	t.times = n
}

// SurplusTimes returns the number of runs left, or -1 for unlimited.
func (t *Task) SurplusTimes() int {
	if t.times < 0 {
		return -1
	}
	if left := t.times - t.count; left > 0 {
		return left
	}
	return 0
}

// Count returns the number of runs since the last start or ResetCount.
func (t *Task) Count() int {
	return t.count
}

// ResetCount zeroes the run count.
func (t *Task) ResetCount() {
	t.count = 0
}

// IsDeleteAfterStop reports whether the task is removed when it stops.
func (t *Task) IsDeleteAfterStop() bool {
	return t.deleteAfterStop
}

// SetDeleteAfterStop controls whether the task is removed when it stops.
func (t *Task) SetDeleteAfterStop(v bool) {
	t.deleteAfterStop = v
}

// SetFunc replaces the task body.
func (t *Task) SetFunc(fn Func) {
	t.fn = fn
}

func (t *Task) isDue(now time.Time) bool {
	return t.running && !t.deleted && now.Sub(t.lastRun) >= t.period
}

// checkAndRun runs the task if it is still running and has budget left,
// then stops it when the budget is spent.
func (t *Task) checkAndRun(now time.Time) bool {
	if !t.running || t.deleted {
		return false
	}
	if t.SurplusTimes() == 0 {
		t.Stop()
		return false
	}

	t.lastRun = now
	t.count++
	t.s.run(t)

	if t.running && !t.deleted && t.times >= 0 && t.count >= t.times {
		t.Stop()
	}
	return true
}
