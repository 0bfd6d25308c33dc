package sched

import (
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/slotwire/internal/logging"
)

// Priority orders tasks that become due in the same poll.
// Higher values run first; PriorityOff keeps a task stopped.
type Priority int

const (
	// PriorityOff disables a task. Starting a task with this priority
	// leaves it stopped.
	PriorityOff Priority = iota
	// PriorityLowest is the default for NewTask and Once.
	PriorityLowest
	// PriorityLow is for background housekeeping.
	PriorityLow
	// PriorityMid is for ordinary periodic work.
	PriorityMid
	// PriorityHigh is for input handling and animations.
	PriorityHigh
	// PriorityHighest runs before everything else.
	PriorityHighest
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityOff:
		return "off"
	case PriorityLowest:
		return "lowest"
	case PriorityLow:
		return "low"
	case PriorityMid:
		return "mid"
	case PriorityHigh:
		return "high"
	case PriorityHighest:
		return "highest"
	default:
		return "unknown"
	}
}

// ParsePriority returns the priority named s, as printed by String.
func ParsePriority(s string) (Priority, bool) {
	for p := PriorityOff; p <= PriorityHighest; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return PriorityOff, false
}

// DefaultPriority is used by Once.
const DefaultPriority = PriorityLowest

// Func is the body of a task. It must not block.
type Func func()

// PanicHandler is called when a task function panics.
type PanicHandler func(task *Task, recovered any, stack []byte)

// Stats contains scheduler counters.
type Stats struct {
	// Polls is the number of Poll calls that inspected tasks.
	Polls uint64
	// Runs is the number of task executions.
	Runs uint64
	// Panics is the number of task executions that panicked.
	Panics uint64
	// Created is the number of tasks created.
	Created uint64
	// Deleted is the number of tasks removed.
	Deleted uint64
	// Tasks is the current number of tasks.
	Tasks int
	// Running is the current number of running tasks.
	Running int
}

// Scheduler runs periodic and one-shot tasks on the polling goroutine.
type Scheduler struct {
	clock        Clock
	logger       *logging.Logger
	panicHandler PanicHandler
	newID        func() string

	tasks   []*Task
	seq     uint64
	enabled bool
	polling bool
	dirty   bool

	stats Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logging.OrNull(l).WithComponent("sched")
	}
}

// WithPanicHandler replaces the default panic handler, which logs the
// panic and its stack at error level.
func WithPanicHandler(h PanicHandler) Option {
	return func(s *Scheduler) {
		if h != nil {
			s.panicHandler = h
		}
	}
}

// WithIDGenerator replaces the uuid-based task ID generator. IDs are
// generated on first use of Task.ID.
func WithIDGenerator(gen func() string) Option {
	return func(s *Scheduler) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New creates an enabled scheduler with no tasks.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   SystemClock(),
		logger:  logging.Null,
		newID:   uuid.NewString,
		enabled: true,
	}
	s.panicHandler = s.logPanic
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTask creates a stopped task. Call Start to schedule it.
func (s *Scheduler) NewTask(period time.Duration, prio Priority, fn Func) *Task {
	s.seq++
	t := &Task{
		s:        s,
		fn:       fn,
		period:   clampPeriod(period),
		priority: prio,
		times:    -1,
		seq:      s.seq,
		lastRun:  s.clock.Now(),
	}
	s.tasks = append(s.tasks, t)
	s.stats.Created++
	return t
}

// Once runs fn a single time after delay. The returned task deletes itself
// once it has run; callers may Delete it earlier to cancel.
func (s *Scheduler) Once(delay time.Duration, fn Func) *Task {
	t := s.NewTask(delay, DefaultPriority, fn)
	t.SetDeleteAfterStop(true)
	t.StartWith(delay, 1)
	return t
}

// Poll runs every running task whose period has elapsed and returns the
// number of task executions. Tasks created while polling are first
// considered by the next Poll. Calling Poll from inside a task is a no-op.
func (s *Scheduler) Poll() int {
	if !s.enabled || s.polling {
		return 0
	}
	s.polling = true
	defer func() {
		s.polling = false
		s.compact()
	}()

	s.stats.Polls++
	now := s.clock.Now()

	var due []*Task
	for _, t := range s.tasks {
		if t.isDue(now) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return 0
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].priority != due[j].priority {
			return due[i].priority > due[j].priority
		}
		return due[i].seq < due[j].seq
	})

	ran := 0
	for _, t := range due {
		// An earlier task may have stopped or deleted this one.
		if t.checkAndRun(now) {
			ran++
		}
	}
	return ran
}

// NextDue returns how long until the earliest running task becomes due.
// The second result is false when no task is running.
func (s *Scheduler) NextDue() (time.Duration, bool) {
	now := s.clock.Now()
	var (
		best  time.Duration
		found bool
	)
	for _, t := range s.tasks {
		if t.deleted || !t.running {
			continue
		}
		wait := t.period - now.Sub(t.lastRun)
		if wait < 0 {
			wait = 0
		}
		if !found || wait < best {
			best, found = wait, true
		}
	}
	return best, found
}

// Enable turns task handling on or off. A disabled scheduler ignores Poll.
func (s *Scheduler) Enable(enabled bool) {
	s.enabled = enabled
}

// Enabled reports whether Poll runs tasks.
func (s *Scheduler) Enabled() bool {
	return s.enabled
}

// Len returns the number of live tasks, running or stopped.
func (s *Scheduler) Len() int {
	n := 0
	for _, t := range s.tasks {
		if !t.deleted {
			n++
		}
	}
	return n
}

// Clear deletes every task.
func (s *Scheduler) Clear() {
	for _, t := range s.tasks {
		if !t.deleted {
			t.deleted = true
			t.running = false
			s.stats.Deleted++
		}
	}
	s.dirty = true
	s.compact()
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	st := s.stats
	for _, t := range s.tasks {
		if t.deleted {
			continue
		}
		st.Tasks++
		if t.running {
			st.Running++
		}
	}
	return st
}

func (s *Scheduler) remove(t *Task) {
	t.deleted = true
	t.running = false
	s.stats.Deleted++
	s.dirty = true
	s.compact()
}

// compact drops deleted tasks. While polling the slice is left alone and
// compacted when Poll returns.
func (s *Scheduler) compact() {
	if s.polling || !s.dirty {
		return
	}
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.deleted {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = kept
	s.dirty = false
}

func (s *Scheduler) run(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			s.stats.Panics++
			stack := debug.Stack()
			func() {
				defer func() { _ = recover() }()
				s.panicHandler(t, r, stack)
			}()
		}
	}()
	s.stats.Runs++
	if t.fn != nil {
		t.fn()
	}
}

func (s *Scheduler) logPanic(t *Task, recovered any, stack []byte) {
	s.logger.Error("task %s panicked: %v\n%s", t.ID(), recovered, stack)
}

func clampPeriod(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
