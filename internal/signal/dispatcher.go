package signal

import (
	"runtime/debug"
	"time"

	"github.com/dshills/slotwire/internal/list"
	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/sched"
)

// Stats contains dispatcher counters.
type Stats struct {
	// Emits is the number of emissions that were delivered or blocked.
	Emits uint64
	// DroppedEmits is the number of emissions dropped at the depth limit.
	DroppedEmits uint64
	// Calls is the number of slot callables invoked.
	Calls uint64
	// MissingCallable is the number of slot calls with no callable set.
	MissingCallable uint64
	// Panics is the number of slot calls that panicked.
	Panics uint64
	// Deferred is the number of deferred deliveries scheduled.
	Deferred uint64
	// StaleDeferred is the number of deferred deliveries whose edge was
	// severed before they fired.
	StaleDeferred uint64
	// Connected is the number of edges created.
	Connected uint64
	// Severed is the number of edges removed.
	Severed uint64
	// Rejected is the number of connect requests that were refused.
	Rejected uint64

	// Connections is the current number of live edges.
	Connections int
	// Signals is the current number of live signals.
	Signals int
	// Slots is the current number of live slots.
	Slots int
}

// Dispatcher owns the connection table shared by the signals and slots it
// creates.
type Dispatcher struct {
	sched        *sched.Scheduler
	logger       *logging.Logger
	panicHandler PanicHandler
	maxDepth     int
	deferDelay   time.Duration

	// conns[0] is never used so the zero ConnID is always stale.
	conns []connection
	free  []uint32
	live  int

	signals list.List[*Signal]
	slots   list.List[*Slot]

	depth  int
	closed bool
	stats  Stats
}

// NewDispatcher creates a dispatcher. s runs deferred deliveries; it may be
// nil, in which case Deferred connections are rejected.
func NewDispatcher(s *sched.Scheduler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sched:      s,
		logger:     logging.Null,
		maxDepth:   DefaultMaxDepth,
		deferDelay: DefaultDeferDelay,
		conns:      make([]connection, 1, 16),
	}
	d.panicHandler = d.logPanic
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Scheduler returns the scheduler used for deferred delivery.
func (d *Dispatcher) Scheduler() *sched.Scheduler {
	return d.sched
}

// NewSignal creates a signal. After Close the signal is returned already
// destroyed.
func (d *Dispatcher) NewSignal(name string) *Signal {
	s := &Signal{d: d, name: name}
	if d.closed {
		d.logger.Warn("signal %q created on closed dispatcher", name)
		s.destroyed = true
		return s
	}
	s.node = d.signals.InsertTail(s)
	return s
}

// NewSlot creates a slot wrapping fn. fn may be nil and set later.
func (d *Dispatcher) NewSlot(name string, fn func(*Signal)) *Slot {
	sl := &Slot{d: d, name: name, fn: fn}
	if d.closed {
		d.logger.Warn("slot %q created on closed dispatcher", name)
		sl.destroyed = true
		return sl
	}
	sl.node = d.slots.InsertTail(sl)
	return sl
}

// Disconnect severs the connection named by id. It reports whether the
// connection was live; a stale or zero id is a no-op.
func (d *Dispatcher) Disconnect(id ConnID) bool {
	return d.sever(id)
}

// Connected reports whether id names a live connection.
func (d *Dispatcher) Connected(id ConnID) bool {
	return d.lookup(id) != nil
}

// Info describes the connection named by id.
func (d *Dispatcher) Info(id ConnID) (ConnInfo, bool) {
	c := d.lookup(id)
	if c == nil {
		return ConnInfo{}, false
	}
	return c.info(id), true
}

// Connections returns every live connection, grouped by sender in signal
// creation order and by subscription order within a sender.
func (d *Dispatcher) Connections() []ConnInfo {
	out := make([]ConnInfo, 0, d.live)
	for n := d.signals.Head(); n != nil; n = d.signals.Next(n) {
		for _, id := range n.Value.out.Values() {
			if c := d.lookup(id); c != nil {
				out = append(out, c.info(id))
			}
		}
	}
	return out
}

// Signals returns the live signals in creation order.
func (d *Dispatcher) Signals() []*Signal {
	return d.signals.Values()
}

// Slots returns the live slots in creation order.
func (d *Dispatcher) Slots() []*Slot {
	return d.slots.Values()
}

// Close destroys every signal and slot, severing all connections. Pending
// deferred deliveries become no-ops. Close is idempotent.
func (d *Dispatcher) Close() {
	if d.closed {
		return
	}
	for _, s := range d.signals.Values() {
		s.Destroy()
	}
	for _, sl := range d.slots.Values() {
		sl.Destroy()
	}
	d.closed = true
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	st := d.stats
	st.Connections = d.live
	st.Signals = d.signals.Len()
	st.Slots = d.slots.Len()
	return st
}

// reject logs a refused connect and returns the zero ConnID.
func (d *Dispatcher) reject(format string, args ...any) ConnID {
	d.stats.Rejected++
	d.logger.Warn("connect rejected: "+format, args...)
	return ConnID{}
}

// call runs slot's callable with sig, recovering panics.
func (d *Dispatcher) call(slot *Slot, sig *Signal) {
	fn := slot.fn
	if fn == nil {
		d.stats.MissingCallable++
		d.logger.Warn("slot %q has no callable", slot.name)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.stats.Panics++
			stack := debug.Stack()
			func() {
				defer func() { _ = recover() }()
				d.panicHandler(slot, sig, r, stack)
			}()
		}
	}()

	d.stats.Calls++
	fn(sig)
}

func (d *Dispatcher) logPanic(slot *Slot, sig *Signal, recovered any, stack []byte) {
	d.logger.Error("slot %q panicked on %q: %v\n%s", slot.name, sig.Name(), recovered, stack)
}
