package toolkit_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/slotwire/internal/sched"
	"github.com/dshills/slotwire/internal/signal"
	"github.com/dshills/slotwire/internal/toolkit"
	"github.com/dshills/slotwire/internal/toolkit/headless"
)

type harness struct {
	clock *sched.ManualClock
	s     *sched.Scheduler
	d     *signal.Dispatcher
	tk    *headless.Toolkit
	reg   *toolkit.Registry
	log   []string
}

func newHarness() *harness {
	h := &harness{}
	h.clock = sched.NewManualClock(time.Unix(0, 0))
	h.s = sched.New(sched.WithClock(h.clock))
	h.d = signal.NewDispatcher(h.s)
	h.tk = headless.New(headless.WithDefaultCallback(func(_ toolkit.Handle, kind toolkit.EventKind, _ any) toolkit.Result {
		h.log = append(h.log, "original:"+kind.String())
		return toolkit.ResultOK
	}))
	h.reg = toolkit.NewRegistry(h.tk, h.d)
	return h
}

func TestTrampolineForwardsToHandler(t *testing.T) {
	h := newHarness()
	obj, err := h.reg.NewObject(nil, toolkit.HandlerFunc(func(o *toolkit.Object, kind toolkit.EventKind, param any) toolkit.Result {
		h.log = append(h.log, "handler:"+kind.String())
		return o.Default(kind, param)
	}))
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}

	if _, err := h.tk.Send(obj.Handle(), toolkit.EventClicked, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := []string{"handler:clicked", "original:clicked"}
	if !reflect.DeepEqual(h.log, want) {
		t.Errorf("log = %v, want %v", h.log, want)
	}
}

func TestObjectSignals(t *testing.T) {
	h := newHarness()
	obj, _ := h.reg.NewObject(nil, nil)

	var got []any
	clicked := obj.On(toolkit.EventClicked)
	clicked.Connect(h.d.NewSlot("probe", func(s *signal.Signal) {
		got = append(got, s.Param())
	}), signal.Immediate)

	if obj.On(toolkit.EventClicked) != clicked {
		t.Error("On() created a second signal for the same kind")
	}

	_, _ = h.tk.Send(obj.Handle(), toolkit.EventClicked, "p1")
	_, _ = h.tk.Send(obj.Handle(), toolkit.EventPressed, "ignored")
	obj.Send(toolkit.EventClicked, "p2")

	if !reflect.DeepEqual(got, []any{"p1", "p2"}) {
		t.Errorf("clicked payloads = %v", got)
	}
}

func TestCleanupOrder(t *testing.T) {
	h := newHarness()
	var handle toolkit.Handle
	stillManaged := false

	h.tk = headless.New(headless.WithDefaultCallback(func(hd toolkit.Handle, kind toolkit.EventKind, _ any) toolkit.Result {
		h.log = append(h.log, "original:"+kind.String())
		if kind == toolkit.EventCleanup {
			_, stillManaged = h.reg.Lookup(hd)
			// Whatever is installed now must already be the original.
			h.tk.Callback(hd)(hd, toolkit.EventValueChanged, nil)
		}
		return toolkit.ResultOK
	}))
	h.reg = toolkit.NewRegistry(h.tk, h.d)

	obj, _ := h.reg.NewObject(nil, toolkit.HandlerFunc(func(o *toolkit.Object, kind toolkit.EventKind, param any) toolkit.Result {
		h.log = append(h.log, "handler:"+kind.String())
		return o.Default(kind, param)
	}))
	handle = obj.Handle()
	clicked := obj.On(toolkit.EventClicked)

	obj.Destroyed().Connect(h.d.NewSlot("destroyed", func(s *signal.Signal) {
		h.log = append(h.log, "destroyed")
		if s.Param() != obj {
			t.Errorf("Destroyed payload = %v", s.Param())
		}
	}), signal.Immediate)

	if err := obj.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []string{"original:cleanup", "original:value_changed", "destroyed"}
	if !reflect.DeepEqual(h.log, want) {
		t.Errorf("log = %v, want %v", h.log, want)
	}
	if !stillManaged {
		t.Error("object was unregistered before the original callback returned")
	}
	if _, ok := h.reg.Lookup(handle); ok {
		t.Error("object still registered after cleanup")
	}
	if obj.IsAlive() || obj.On(toolkit.EventClicked) != nil {
		t.Error("deleted object still alive")
	}
	if !clicked.IsDestroyed() {
		t.Error("event signal survived cleanup")
	}
	if err := obj.Delete(); !errors.Is(err, toolkit.ErrObjectDeleted) {
		t.Errorf("second Delete: err = %v", err)
	}
}

func TestDeleteParentReleasesChildren(t *testing.T) {
	h := newHarness()
	parent, _ := h.reg.NewObject(nil, nil)
	child, _ := h.reg.NewObject(parent, nil)
	grandchild, _ := h.reg.NewObject(child, nil)

	var order []toolkit.Handle
	for _, o := range []*toolkit.Object{parent, child, grandchild} {
		o := o
		o.Destroyed().Connect(h.d.NewSlot("d", func(*signal.Signal) {
			order = append(order, o.Handle())
		}), signal.Immediate)
	}

	if got := parent.Children(); len(got) != 1 || got[0] != child {
		t.Fatalf("Children() = %v", got)
	}
	if child.Parent() != parent {
		t.Error("Parent() mismatch")
	}

	_ = parent.Delete()

	want := []toolkit.Handle{grandchild.Handle(), child.Handle(), parent.Handle()}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("release order = %v, want %v", order, want)
	}
	if h.reg.Len() != 0 || h.tk.Len() != 0 {
		t.Errorf("registry=%d toolkit=%d after delete", h.reg.Len(), h.tk.Len())
	}
	if _, err := h.reg.NewObject(parent, nil); !errors.Is(err, toolkit.ErrObjectDeleted) {
		t.Errorf("NewObject under deleted parent: err = %v", err)
	}
}

func TestDeleteLater(t *testing.T) {
	h := newHarness()
	obj, _ := h.reg.NewObject(nil, nil)

	if err := obj.DeleteLater(); err != nil {
		t.Fatalf("DeleteLater: %v", err)
	}
	if !obj.IsAlive() {
		t.Fatal("DeleteLater deleted synchronously")
	}

	h.clock.Advance(toolkit.DeleteLaterDelay)
	h.s.Poll()
	if obj.IsAlive() {
		t.Error("object alive after deferred delete")
	}
}

func TestDeleteLaterAfterDelete(t *testing.T) {
	h := newHarness()
	obj, _ := h.reg.NewObject(nil, nil)
	_ = obj.DeleteLater()
	_ = obj.Delete()

	h.clock.Advance(toolkit.DeleteLaterDelay)
	h.s.Poll()
	if h.s.Stats().Panics != 0 {
		t.Error("deferred delete of a dead object panicked")
	}
}

func TestDeleteLaterWithoutScheduler(t *testing.T) {
	tk := headless.New()
	reg := toolkit.NewRegistry(tk, signal.NewDispatcher(nil))
	obj, _ := reg.NewObject(nil, nil)
	if err := obj.DeleteLater(); !errors.Is(err, toolkit.ErrNoScheduler) {
		t.Errorf("DeleteLater: err = %v", err)
	}
}

func TestSlotDeletesObjectDuringEvent(t *testing.T) {
	h := newHarness()
	obj, _ := h.reg.NewObject(nil, nil)
	obj.On(toolkit.EventClicked).Connect(h.d.NewSlot("close", func(*signal.Signal) {
		_ = obj.Delete()
	}), signal.Immediate)

	res, _ := h.tk.Send(obj.Handle(), toolkit.EventClicked, nil)
	if res != toolkit.ResultInvalid {
		t.Errorf("result = %v, want ResultInvalid", res)
	}
	if obj.IsAlive() {
		t.Error("object survived")
	}
}

func TestClean(t *testing.T) {
	h := newHarness()
	parent, _ := h.reg.NewObject(nil, nil)
	_, _ = h.reg.NewObject(parent, nil)
	_, _ = h.reg.NewObject(parent, nil)

	if err := parent.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if !parent.IsAlive() || len(parent.Children()) != 0 || h.reg.Len() != 1 {
		t.Errorf("after Clean: alive=%v children=%d registry=%d",
			parent.IsAlive(), len(parent.Children()), h.reg.Len())
	}
}

func TestManageTwice(t *testing.T) {
	h := newHarness()
	obj, _ := h.reg.NewObject(nil, nil)
	if _, err := h.reg.Manage(obj.Handle(), nil); !errors.Is(err, toolkit.ErrAlreadyManaged) {
		t.Errorf("Manage: err = %v", err)
	}
}

func TestTrampolineUnmanagedHandle(t *testing.T) {
	h := newHarness()
	if res := h.reg.Trampoline(77, toolkit.EventClicked, nil); res != toolkit.ResultOK {
		t.Errorf("Trampoline() = %v", res)
	}
}

func TestRegistryClose(t *testing.T) {
	h := newHarness()
	a, _ := h.reg.NewObject(nil, nil)
	_, _ = h.reg.NewObject(a, nil)
	_, _ = h.reg.NewObject(nil, nil)

	h.reg.Close()
	if h.reg.Len() != 0 || h.tk.Len() != 0 {
		t.Errorf("registry=%d toolkit=%d after Close", h.reg.Len(), h.tk.Len())
	}
	if got := h.d.Stats().Signals; got != 0 {
		t.Errorf("dispatcher still holds %d signals", got)
	}
}

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		in   string
		want toolkit.EventKind
		ok   bool
	}{
		{"clicked", toolkit.EventClicked, true},
		{" Value_Changed ", toolkit.EventValueChanged, true},
		{"cleanup", toolkit.EventCleanup, true},
		{"hover", toolkit.EventNone, false},
	}
	for _, tt := range tests {
		got, ok := toolkit.ParseEventKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseEventKind(%q) = %v, %v", tt.in, got, ok)
		}
	}
	if toolkit.EventKind(99).String() != "EventKind(99)" {
		t.Error("unknown kind String()")
	}
}
