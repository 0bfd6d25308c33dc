package signal

import "github.com/dshills/slotwire/internal/list"

// Signal is an emitter. It keeps the connections it sends on in its
// outgoing list and the signal-to-signal connections it receives on in its
// incoming list.
type Signal struct {
	d    *Dispatcher
	name string
	node *list.Node[*Signal]

	param     any
	trigger   *Signal
	emits     uint64 // bumped whenever param is set by an emission
	blocked   bool
	destroyed bool

	out list.List[ConnID]
	in  list.List[ConnID]
}

// Name returns the signal name.
func (s *Signal) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Dispatcher returns the dispatcher that owns the signal.
func (s *Signal) Dispatcher() *Dispatcher {
	return s.d
}

// Param returns the payload of the current or most recent emission.
func (s *Signal) Param() any {
	return s.param
}

// Trigger returns the signal whose emission was forwarded to s, or nil
// when s was emitted directly.
func (s *Signal) Trigger() *Signal {
	return s.trigger
}

// Emit stores payload as the current parameter and delivers it over every
// outgoing connection in subscription order. Immediate connections have
// run when Emit returns; Deferred ones are queued on the scheduler.
func (s *Signal) Emit(payload any) {
	if s == nil || s.destroyed {
		return
	}
	s.emit(payload, nil)
}

func (s *Signal) emit(payload any, trigger *Signal) {
	d := s.d
	if d.depth >= d.maxDepth {
		d.stats.DroppedEmits++
		d.logger.Warn("emit of %q dropped at depth %d", s.name, d.depth)
		return
	}

	s.param = payload
	s.trigger = trigger
	s.emits++
	d.stats.Emits++
	if s.blocked {
		return
	}

	d.depth++
	defer func() { d.depth-- }()

	for _, id := range s.out.Values() {
		if s.destroyed {
			return
		}
		d.invoke(id, payload, trigger)
	}
}

// Connect connects s to slot and returns the connection handle. The handle
// only serves to request disconnection; the dispatcher owns the edge.
// A nil slot, a destroyed endpoint, a slot from another dispatcher, or a
// Deferred mode without a scheduler returns the zero ConnID.
func (s *Signal) Connect(slot *Slot, mode Mode) ConnID {
	if s == nil || slot == nil {
		return ConnID{}
	}
	d := s.d
	switch {
	case s.destroyed || slot.destroyed:
		return d.reject("%q -> %q: endpoint destroyed", s.name, slot.name)
	case slot.d != d:
		return d.reject("%q -> %q: endpoints belong to different dispatchers", s.name, slot.name)
	}
	if ok, why := d.checkMode(mode); !ok {
		return d.reject("%q -> %q: %s", s.name, slot.name, why)
	}
	return d.link(KindSignalSlot, mode, s, slot, nil)
}

// ConnectSignal forwards every emission of s to target. Connecting a
// signal to itself is rejected; see Connect for the other rejections.
func (s *Signal) ConnectSignal(target *Signal, mode Mode) ConnID {
	if s == nil || target == nil {
		return ConnID{}
	}
	d := s.d
	switch {
	case s == target:
		return d.reject("%q -> %q: self-loop", s.name, target.name)
	case s.destroyed || target.destroyed:
		return d.reject("%q -> %q: endpoint destroyed", s.name, target.name)
	case target.d != d:
		return d.reject("%q -> %q: endpoints belong to different dispatchers", s.name, target.name)
	}
	if ok, why := d.checkMode(mode); !ok {
		return d.reject("%q -> %q: %s", s.name, target.name, why)
	}
	return d.link(KindSignalSignal, mode, s, nil, target)
}

func (d *Dispatcher) checkMode(mode Mode) (bool, string) {
	switch mode {
	case Immediate:
		return true, ""
	case Deferred:
		if d.sched == nil {
			return false, "deferred mode needs a scheduler"
		}
		return true, ""
	default:
		return false, "unknown mode " + mode.String()
	}
}

// Disconnect severs the first outgoing connection to slot. It reports
// whether one was found.
func (s *Signal) Disconnect(slot *Slot) bool {
	if s == nil || slot == nil {
		return false
	}
	return s.d.sever(s.findOut(func(c *connection) bool {
		return c.kind == KindSignalSlot && c.slot == slot
	}))
}

// DisconnectSignal severs the first outgoing connection to target.
func (s *Signal) DisconnectSignal(target *Signal) bool {
	if s == nil || target == nil {
		return false
	}
	return s.d.sever(s.findOut(func(c *connection) bool {
		return c.kind == KindSignalSignal && c.target == target
	}))
}

// DisconnectAll severs every connection that references s, outgoing and
// incoming. It is a no-op on an unconnected signal.
func (s *Signal) DisconnectAll() {
	if s == nil {
		return
	}
	for n := s.out.Head(); n != nil; n = s.out.Head() {
		s.d.mustSever(n.Value)
	}
	for n := s.in.Head(); n != nil; n = s.in.Head() {
		s.d.mustSever(n.Value)
	}
}

// IsConnected reports whether any connection references s.
func (s *Signal) IsConnected() bool {
	return s != nil && (s.out.Len() > 0 || s.in.Len() > 0)
}

// IsConnectedTo reports whether s sends to slot.
func (s *Signal) IsConnectedTo(slot *Slot) bool {
	if s == nil || slot == nil {
		return false
	}
	return !s.findOut(func(c *connection) bool {
		return c.kind == KindSignalSlot && c.slot == slot
	}).IsZero()
}

// IsConnectedToSignal reports whether s forwards to target.
func (s *Signal) IsConnectedToSignal(target *Signal) bool {
	if s == nil || target == nil {
		return false
	}
	return !s.findOut(func(c *connection) bool {
		return c.kind == KindSignalSignal && c.target == target
	}).IsZero()
}

// IsConnectedBy reports whether source forwards to s.
func (s *Signal) IsConnectedBy(source *Signal) bool {
	if s == nil || source == nil {
		return false
	}
	n := s.in.Find(func(id ConnID) bool {
		c := s.d.lookup(id)
		return c != nil && c.sender == source
	})
	return n != nil
}

// Len returns the number of connections that reference s.
func (s *Signal) Len() int {
	if s == nil {
		return 0
	}
	return s.out.Len() + s.in.Len()
}

// Block suppresses delivery while blocked is true. A blocked signal still
// records the payload passed to Emit.
func (s *Signal) Block(blocked bool) {
	s.blocked = blocked
}

// IsBlocked reports whether delivery is suppressed.
func (s *Signal) IsBlocked() bool {
	return s.blocked
}

// Destroy severs every connection referencing s and removes it from its
// dispatcher. Later calls on s are no-ops.
func (s *Signal) Destroy() {
	if s == nil || s.destroyed {
		return
	}
	s.DisconnectAll()
	s.destroyed = true
	s.d.signals.Remove(s.node)
	s.node = nil
}

// IsDestroyed reports whether Destroy has been called.
func (s *Signal) IsDestroyed() bool {
	return s == nil || s.destroyed
}

// String returns the signal name.
func (s *Signal) String() string {
	return s.Name()
}

func (s *Signal) findOut(match func(*connection) bool) ConnID {
	n := s.out.Find(func(id ConnID) bool {
		c := s.d.lookup(id)
		return c != nil && match(c)
	})
	if n == nil {
		return ConnID{}
	}
	return n.Value
}
