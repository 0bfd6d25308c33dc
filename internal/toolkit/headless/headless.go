// Package headless provides an in-memory toolkit. It keeps an object tree
// and callbacks but draws nothing; events are injected with Send.
package headless

import (
	"fmt"

	"github.com/dshills/slotwire/internal/toolkit"
)

type object struct {
	parent   toolkit.Handle
	children []toolkit.Handle
	cb       toolkit.Callback
	dying    bool
}

// Toolkit is an in-memory toolkit.Toolkit.
type Toolkit struct {
	next    toolkit.Handle
	objects map[toolkit.Handle]*object
	roots   []toolkit.Handle
	def     toolkit.Callback
	closed  bool
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithDefaultCallback sets the callback installed on every new object.
// The built-in default ignores events and returns ResultOK.
func WithDefaultCallback(cb toolkit.Callback) Option {
	return func(t *Toolkit) {
		t.def = cb
	}
}

// New creates an empty headless toolkit.
func New(opts ...Option) *Toolkit {
	t := &Toolkit{
		objects: make(map[toolkit.Handle]*object),
		def: func(toolkit.Handle, toolkit.EventKind, any) toolkit.Result {
			return toolkit.ResultOK
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create implements toolkit.Toolkit.
func (t *Toolkit) Create(parent toolkit.Handle) (toolkit.Handle, error) {
	if t.closed {
		return 0, toolkit.ErrClosed
	}
	if parent != 0 {
		p, ok := t.objects[parent]
		if !ok || p.dying {
			return 0, fmt.Errorf("parent %d: %w", parent, toolkit.ErrUnknownHandle)
		}
	}

	t.next++
	h := t.next
	t.objects[h] = &object{parent: parent, cb: t.def}
	if parent != 0 {
		p := t.objects[parent]
		p.children = append(p.children, h)
	} else {
		t.roots = append(t.roots, h)
	}
	return h, nil
}

// Destroy implements toolkit.Toolkit. Children are destroyed first, and
// every destroyed handle receives EventCleanup through its current
// callback before it is removed.
func (t *Toolkit) Destroy(h toolkit.Handle) error {
	o, ok := t.objects[h]
	if !ok || o.dying {
		return fmt.Errorf("destroy %d: %w", h, toolkit.ErrUnknownHandle)
	}
	o.dying = true

	for len(o.children) > 0 {
		child := o.children[len(o.children)-1]
		if err := t.Destroy(child); err != nil {
			return err
		}
	}

	if o.cb != nil {
		o.cb(h, toolkit.EventCleanup, nil)
	}

	if o.parent != 0 {
		if p, ok := t.objects[o.parent]; ok {
			p.children = removeHandle(p.children, h)
		}
	} else {
		t.roots = removeHandle(t.roots, h)
	}
	delete(t.objects, h)
	return nil
}

// Callback implements toolkit.Toolkit.
func (t *Toolkit) Callback(h toolkit.Handle) toolkit.Callback {
	if o, ok := t.objects[h]; ok {
		return o.cb
	}
	return nil
}

// SetCallback implements toolkit.Toolkit.
func (t *Toolkit) SetCallback(h toolkit.Handle, cb toolkit.Callback) error {
	o, ok := t.objects[h]
	if !ok {
		return fmt.Errorf("set callback %d: %w", h, toolkit.ErrUnknownHandle)
	}
	o.cb = cb
	return nil
}

// Children implements toolkit.Toolkit.
func (t *Toolkit) Children(h toolkit.Handle) []toolkit.Handle {
	o, ok := t.objects[h]
	if !ok {
		return nil
	}
	return append([]toolkit.Handle(nil), o.children...)
}

// Parent returns the parent of h, or zero.
func (t *Toolkit) Parent(h toolkit.Handle) toolkit.Handle {
	if o, ok := t.objects[h]; ok {
		return o.parent
	}
	return 0
}

// Exists reports whether h is a live handle.
func (t *Toolkit) Exists(h toolkit.Handle) bool {
	_, ok := t.objects[h]
	return ok
}

// Len returns the number of live handles.
func (t *Toolkit) Len() int {
	return len(t.objects)
}

// Send raises an event on h through its current callback.
func (t *Toolkit) Send(h toolkit.Handle, kind toolkit.EventKind, param any) (toolkit.Result, error) {
	o, ok := t.objects[h]
	if !ok {
		return toolkit.ResultInvalid, fmt.Errorf("send %s to %d: %w", kind, h, toolkit.ErrUnknownHandle)
	}
	if o.cb == nil {
		return toolkit.ResultOK, nil
	}
	return o.cb(h, kind, param), nil
}

// Broadcast raises an event on every live handle in creation order.
func (t *Toolkit) Broadcast(kind toolkit.EventKind, param any) {
	for h := toolkit.Handle(1); h <= t.next; h++ {
		if _, ok := t.objects[h]; ok {
			_, _ = t.Send(h, kind, param)
		}
	}
}

// Close destroys every root object. Later Create calls fail.
func (t *Toolkit) Close() error {
	if t.closed {
		return nil
	}
	for len(t.roots) > 0 {
		if err := t.Destroy(t.roots[len(t.roots)-1]); err != nil {
			return err
		}
	}
	t.closed = true
	return nil
}

func removeHandle(hs []toolkit.Handle, h toolkit.Handle) []toolkit.Handle {
	for i, v := range hs {
		if v == h {
			return append(hs[:i], hs[i+1:]...)
		}
	}
	return hs
}
