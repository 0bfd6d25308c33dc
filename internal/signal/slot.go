package signal

import "github.com/dshills/slotwire/internal/list"

// Slot wraps one callable and keeps the connections it receives on.
type Slot struct {
	d    *Dispatcher
	name string
	node *list.Node[*Slot]

	fn        func(*Signal)
	destroyed bool

	in list.List[ConnID]
}

// Name returns the slot name.
func (sl *Slot) Name() string {
	if sl == nil {
		return ""
	}
	return sl.name
}

// Func returns the wrapped callable.
func (sl *Slot) Func() func(*Signal) {
	return sl.fn
}

// SetFunc replaces the wrapped callable. It may be called at any time,
// including from inside the callable.
func (sl *Slot) SetFunc(fn func(*Signal)) {
	sl.fn = fn
}

// Call runs the callable synchronously with sig. A slot without a callable
// logs a warning and does nothing.
func (sl *Slot) Call(sig *Signal) {
	if sl == nil || sl.destroyed {
		return
	}
	sl.d.call(sl, sig)
}

// Disconnect severs the first connection from sig to sl.
func (sl *Slot) Disconnect(sig *Signal) bool {
	if sl == nil || sig == nil {
		return false
	}
	n := sl.in.Find(func(id ConnID) bool {
		c := sl.d.lookup(id)
		return c != nil && c.sender == sig
	})
	if n == nil {
		return false
	}
	return sl.d.sever(n.Value)
}

// DisconnectAll severs every connection to sl.
func (sl *Slot) DisconnectAll() {
	if sl == nil {
		return
	}
	for n := sl.in.Head(); n != nil; n = sl.in.Head() {
		sl.d.mustSever(n.Value)
	}
}

// IsConnected reports whether any signal sends to sl.
func (sl *Slot) IsConnected() bool {
	return sl != nil && sl.in.Len() > 0
}

// IsConnectedBy reports whether sig sends to sl.
func (sl *Slot) IsConnectedBy(sig *Signal) bool {
	if sl == nil || sig == nil {
		return false
	}
	return sl.in.Find(func(id ConnID) bool {
		c := sl.d.lookup(id)
		return c != nil && c.sender == sig
	}) != nil
}

// Len returns the number of connections to sl.
func (sl *Slot) Len() int {
	if sl == nil {
		return 0
	}
	return sl.in.Len()
}

// Destroy severs every connection to sl and removes it from its
// dispatcher.
func (sl *Slot) Destroy() {
	if sl == nil || sl.destroyed {
		return
	}
	sl.DisconnectAll()
	sl.destroyed = true
	sl.d.slots.Remove(sl.node)
	sl.node = nil
}

// IsDestroyed reports whether Destroy has been called.
func (sl *Slot) IsDestroyed() bool {
	return sl == nil || sl.destroyed
}
