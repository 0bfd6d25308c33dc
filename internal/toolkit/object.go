package toolkit

import (
	"fmt"

	"github.com/dshills/slotwire/internal/signal"
)

// Handler overrides how an Object reacts to toolkit events. Implementations
// usually finish by calling obj.Default to keep the toolkit's own
// behavior.
type Handler interface {
	HandleEvent(obj *Object, kind EventKind, param any) Result
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(obj *Object, kind EventKind, param any) Result

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(obj *Object, kind EventKind, param any) Result {
	return f(obj, kind, param)
}

// Object is a toolkit handle managed by a Registry. Each event kind has a
// signal, created on first use, that is emitted with the event parameter
// after the handler has run.
type Object struct {
	r        *Registry
	h        Handle
	parent   *Object
	handler  Handler
	original Callback
	alive    bool

	signals   map[EventKind]*signal.Signal
	destroyed *signal.Signal
}

// Handle returns the toolkit handle.
func (o *Object) Handle() Handle {
	return o.h
}

// Parent returns the parent object, or nil for root objects and objects
// adopted with Manage.
func (o *Object) Parent() *Object {
	return o.parent
}

// IsAlive reports whether the toolkit object still exists.
func (o *Object) IsAlive() bool {
	return o.alive
}

// SetHandler replaces the event handler. nil restores default handling.
func (o *Object) SetHandler(h Handler) {
	o.handler = h
}

// On returns the signal emitted for kind. It returns nil once the object
// has been deleted. On(EventCleanup) is the Destroyed signal.
func (o *Object) On(kind EventKind) *signal.Signal {
	if !o.alive {
		return nil
	}
	if kind == EventCleanup {
		return o.destroyed
	}
	sig, ok := o.signals[kind]
	if !ok {
		sig = o.r.d.NewSignal(o.signalName(kind.String()))
		o.signals[kind] = sig
	}
	return sig
}

// Destroyed returns the signal emitted, with the Object as payload, when
// the toolkit has finished cleaning up the handle. It is released right
// after that emission, so only Immediate connections observe it.
func (o *Object) Destroyed() *signal.Signal {
	if !o.alive {
		return nil
	}
	return o.destroyed
}

// Default forwards an event to the callback the toolkit installed at
// creation.
func (o *Object) Default(kind EventKind, param any) Result {
	if o.original == nil {
		return ResultOK
	}
	return o.original(o.h, kind, param)
}

// Send delivers an event through the handle's current callback, as if the
// toolkit had raised it.
func (o *Object) Send(kind EventKind, param any) Result {
	if !o.alive {
		return ResultInvalid
	}
	cb := o.r.tk.Callback(o.h)
	if cb == nil {
		return ResultOK
	}
	return cb(o.h, kind, param)
}

// Children returns the managed children of the object.
func (o *Object) Children() []*Object {
	if !o.alive {
		return nil
	}
	var out []*Object
	for _, h := range o.r.tk.Children(o.h) {
		if child, ok := o.r.objects[h]; ok {
			out = append(out, child)
		}
	}
	return out
}

// Delete asks the toolkit to destroy the object and its children. The
// Object is released when the cleanup event comes back through the
// trampoline.
func (o *Object) Delete() error {
	if !o.alive {
		return ErrObjectDeleted
	}
	if err := o.r.tk.Destroy(o.h); err != nil {
		return fmt.Errorf("delete object %d: %w", o.h, err)
	}
	return nil
}

// DeleteLater deletes the object from a scheduler task. The task does
// nothing if the object is already gone when it runs.
func (o *Object) DeleteLater() error {
	if !o.alive {
		return ErrObjectDeleted
	}
	s := o.r.d.Scheduler()
	if s == nil {
		return ErrNoScheduler
	}
	s.Once(DeleteLaterDelay, func() {
		if !o.alive {
			return
		}
		if err := o.Delete(); err != nil {
			o.r.logger.Warn("deferred delete of %d: %v", o.h, err)
		}
	})
	return nil
}

// Clean deletes every child of the object.
func (o *Object) Clean() error {
	if !o.alive {
		return ErrObjectDeleted
	}
	for _, h := range o.r.tk.Children(o.h) {
		if err := o.r.tk.Destroy(h); err != nil {
			return fmt.Errorf("clean object %d: %w", o.h, err)
		}
	}
	return nil
}

func (o *Object) dispatch(kind EventKind, param any) Result {
	var res Result
	if o.handler != nil {
		res = o.handler.HandleEvent(o, kind, param)
	} else {
		res = o.Default(kind, param)
	}
	if !o.alive {
		return ResultInvalid
	}

	if sig, ok := o.signals[kind]; ok {
		sig.Emit(param)
	}
	if !o.alive {
		return ResultInvalid
	}
	return res
}

// cleanup runs when the toolkit destroys the handle. The original callback
// goes back on the handle before it sees the cleanup, and the Object is
// released only after it returns.
func (o *Object) cleanup(param any) Result {
	r := o.r
	if err := r.tk.SetCallback(o.h, o.original); err != nil {
		r.logger.Warn("restore callback of %d: %v", o.h, err)
	}

	res := ResultOK
	if o.original != nil {
		res = o.original(o.h, EventCleanup, param)
	}

	delete(r.objects, o.h)
	o.alive = false
	o.destroyed.Emit(o)

	for _, sig := range o.signals {
		sig.Destroy()
	}
	o.destroyed.Destroy()
	o.signals = nil
	o.handler = nil
	r.logger.Debug("released object %d", o.h)
	return res
}

func (o *Object) signalName(event string) string {
	return fmt.Sprintf("object.%d.%s", o.h, event)
}
