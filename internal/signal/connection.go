package signal

import (
	"fmt"

	"github.com/dshills/slotwire/internal/list"
)

// Mode selects how a connection delivers an emission.
type Mode int

const (
	// Immediate delivers synchronously on the emitting call stack.
	Immediate Mode = iota
	// Deferred delivers from a one-shot scheduler task on a later poll.
	Deferred
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case Deferred:
		return "deferred"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "immediate" or "deferred". The empty string means
// Immediate.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "immediate":
		return Immediate, true
	case "deferred":
		return Deferred, true
	}
	return Immediate, false
}

// Kind is the connection variant.
type Kind int

const (
	// KindSignalSlot connects a Signal to a Slot.
	KindSignalSlot Kind = iota + 1
	// KindSignalSignal forwards one Signal to another.
	KindSignalSignal
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSignalSlot:
		return "signal-slot"
	case KindSignalSignal:
		return "signal-signal"
	default:
		return "invalid"
	}
}

// ConnID identifies a connection in its Dispatcher's table. The zero value
// never names a connection.
type ConnID struct {
	index uint32
	gen   uint32
}

// IsZero reports whether id is the zero ConnID.
func (id ConnID) IsZero() bool {
	return id == ConnID{}
}

// String formats the id as index:generation.
func (id ConnID) String() string {
	return fmt.Sprintf("%d:%d", id.index, id.gen)
}

// ConnInfo describes a live connection.
type ConnInfo struct {
	ID       ConnID
	Kind     Kind
	Mode     Mode
	Sender   *Signal
	Slot     *Slot
	Receiver *Signal
}

// ReceiverName returns the name of the receiving endpoint.
func (ci ConnInfo) ReceiverName() string {
	if ci.Kind == KindSignalSlot {
		return ci.Slot.Name()
	}
	return ci.Receiver.Name()
}

// connection is a row of the connection table.
type connection struct {
	gen  uint32
	live bool

	kind   Kind
	mode   Mode
	sender *Signal
	slot   *Slot
	target *Signal

	// outNode lives in sender.out; inNode lives in slot.in or target.in.
	outNode *list.Node[ConnID]
	inNode  *list.Node[ConnID]
}

func (c *connection) receiverList() *list.List[ConnID] {
	if c.kind == KindSignalSlot {
		return &c.slot.in
	}
	return &c.target.in
}

func (c *connection) info(id ConnID) ConnInfo {
	return ConnInfo{
		ID:       id,
		Kind:     c.kind,
		Mode:     c.mode,
		Sender:   c.sender,
		Slot:     c.slot,
		Receiver: c.target,
	}
}

// lookup returns the live row for id, or nil for a stale or zero id. The
// pointer is only valid until the table grows.
func (d *Dispatcher) lookup(id ConnID) *connection {
	if id.index == 0 || int(id.index) >= len(d.conns) {
		return nil
	}
	c := &d.conns[id.index]
	if !c.live || c.gen != id.gen {
		return nil
	}
	return c
}

// link allocates a row and inserts it at the tail of both endpoint lists.
func (d *Dispatcher) link(kind Kind, mode Mode, sender *Signal, slot *Slot, target *Signal) ConnID {
	var index uint32
	if n := len(d.free); n > 0 {
		index = d.free[n-1]
		d.free = d.free[:n-1]
	} else {
		d.conns = append(d.conns, connection{gen: 1})
		index = uint32(len(d.conns) - 1)
	}

	c := &d.conns[index]
	c.live = true
	c.kind = kind
	c.mode = mode
	c.sender = sender
	c.slot = slot
	c.target = target

	id := ConnID{index: index, gen: c.gen}
	c.outNode = sender.out.InsertTail(id)
	c.inNode = c.receiverList().InsertTail(id)

	d.live++
	d.stats.Connected++
	return id
}

// sever detaches the edge from both endpoint lists, then releases its row.
// It reports whether id named a live connection.
func (d *Dispatcher) sever(id ConnID) bool {
	c := d.lookup(id)
	if c == nil {
		return false
	}

	in := c.receiverList()
	if !c.sender.out.Contains(c.outNode) || !in.Contains(c.inNode) {
		panic(fmt.Sprintf("signal: connection %s is not linked into both endpoints", id))
	}
	c.sender.out.Remove(c.outNode)
	in.Remove(c.inNode)

	gen := c.gen + 1
	if gen == 0 {
		gen = 1
	}
	*c = connection{gen: gen}
	d.free = append(d.free, id.index)

	d.live--
	d.stats.Severed++
	return true
}

// mustSever severs an id taken from an endpoint list. Every id in a list
// names a live row, so a stale one means the table is corrupt.
func (d *Dispatcher) mustSever(id ConnID) {
	if !d.sever(id) {
		panic(fmt.Sprintf("signal: endpoint list holds stale connection %s", id))
	}
}

// invoke delivers one emission of the sender over id.
func (d *Dispatcher) invoke(id ConnID, payload any, trigger *Signal) {
	c := d.lookup(id)
	if c == nil {
		return
	}
	if c.mode == Deferred {
		d.deferDelivery(id, payload, trigger)
		return
	}
	d.deliver(id, payload, trigger)
}

// deliver performs the synchronous half of a delivery. Fields are copied
// out of the row before calling out, since callables may grow the table.
//
// For the duration of the call the sender's Param and Trigger read as this
// emission's values. Afterwards the previous values come back, unless the
// sender was emitted again meanwhile, in which case that newer emission's
// values stay.
func (d *Dispatcher) deliver(id ConnID, payload any, trigger *Signal) {
	c := d.lookup(id)
	if c == nil {
		return
	}
	kind, sender, slot, target := c.kind, c.sender, c.slot, c.target

	prevParam, prevTrigger := sender.param, sender.trigger
	sender.param, sender.trigger = payload, trigger
	mark := sender.emits
	defer func() {
		if sender.emits == mark {
			sender.param, sender.trigger = prevParam, prevTrigger
		}
	}()

	switch kind {
	case KindSignalSlot:
		d.call(slot, sender)
	case KindSignalSignal:
		target.emit(payload, sender)
	}
}

// deferDelivery schedules a delivery of payload over id. The task checks
// the edge again when it fires.
func (d *Dispatcher) deferDelivery(id ConnID, payload any, trigger *Signal) {
	d.stats.Deferred++
	d.sched.Once(d.deferDelay, func() {
		if d.lookup(id) == nil {
			d.stats.StaleDeferred++
			return
		}
		d.deliver(id, payload, trigger)
	})
}
