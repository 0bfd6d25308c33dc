package toolkit

import (
	"fmt"
	"sort"
	"time"

	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/signal"
)

// DeleteLaterDelay is the delay used by Object.DeleteLater.
const DeleteLaterDelay = time.Millisecond

// Registry maps toolkit handles to managed Objects and owns the trampoline
// installed on each of them.
type Registry struct {
	tk      Toolkit
	d       *signal.Dispatcher
	logger  *logging.Logger
	objects map[Handle]*Object
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logging.OrNull(l).WithComponent("toolkit")
	}
}

// NewRegistry creates a registry for tk. Object signals are created on d.
func NewRegistry(tk Toolkit, d *signal.Dispatcher, opts ...Option) *Registry {
	r := &Registry{
		tk:      tk,
		d:       d,
		logger:  logging.Null,
		objects: make(map[Handle]*Object),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Toolkit returns the underlying toolkit.
func (r *Registry) Toolkit() Toolkit {
	return r.tk
}

// Dispatcher returns the dispatcher object signals live on.
func (r *Registry) Dispatcher() *signal.Dispatcher {
	return r.d
}

// NewObject creates a toolkit object under parent (nil for a root object)
// and manages it. handler may be nil, in which case events go straight to
// the toolkit's original callback.
func (r *Registry) NewObject(parent *Object, handler Handler) (*Object, error) {
	var ph Handle
	if parent != nil {
		if !parent.alive {
			return nil, ErrObjectDeleted
		}
		ph = parent.h
	}

	h, err := r.tk.Create(ph)
	if err != nil {
		return nil, fmt.Errorf("create object: %w", err)
	}
	o, err := r.Manage(h, handler)
	if err != nil {
		_ = r.tk.Destroy(h)
		return nil, err
	}
	o.parent = parent
	return o, nil
}

// Manage wraps an existing toolkit handle in an Object. The handle's
// current callback is remembered as the original and the trampoline is
// installed in its place.
func (r *Registry) Manage(h Handle, handler Handler) (*Object, error) {
	if _, ok := r.objects[h]; ok {
		return nil, fmt.Errorf("manage %d: %w", h, ErrAlreadyManaged)
	}

	original := r.tk.Callback(h)
	if err := r.tk.SetCallback(h, r.Trampoline); err != nil {
		return nil, fmt.Errorf("manage %d: %w", h, err)
	}

	o := &Object{
		r:        r,
		h:        h,
		handler:  handler,
		original: original,
		alive:    true,
		signals:  make(map[EventKind]*signal.Signal),
	}
	o.destroyed = r.d.NewSignal(o.signalName("destroyed"))
	r.objects[h] = o
	r.logger.Debug("managing object %d", h)
	return o, nil
}

// Lookup returns the Object managing h.
func (r *Registry) Lookup(h Handle) (*Object, bool) {
	o, ok := r.objects[h]
	return o, ok
}

// Len returns the number of managed objects.
func (r *Registry) Len() int {
	return len(r.objects)
}

// Objects returns the managed objects ordered by handle.
func (r *Registry) Objects() []*Object {
	out := make([]*Object, 0, len(r.objects))
	for _, o := range r.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].h < out[j].h })
	return out
}

// Trampoline is the callback installed on every managed handle. It
// resolves h through the handle table and forwards the event to the
// Object. Events for unmanaged handles are logged and ignored.
func (r *Registry) Trampoline(h Handle, kind EventKind, param any) Result {
	o, ok := r.objects[h]
	if !ok {
		r.logger.Warn("%s event for unmanaged handle %d", kind, h)
		return ResultOK
	}
	if kind == EventCleanup {
		return o.cleanup(param)
	}
	return o.dispatch(kind, param)
}

// Close deletes every managed object. Toolkit errors are logged.
func (r *Registry) Close() {
	for _, o := range r.Objects() {
		if !o.alive {
			continue
		}
		if err := o.Delete(); err != nil {
			r.logger.Warn("close: delete object %d: %v", o.h, err)
		}
	}
}
