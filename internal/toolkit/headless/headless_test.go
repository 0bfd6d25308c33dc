package headless

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/slotwire/internal/toolkit"
)

func TestCreateTree(t *testing.T) {
	tk := New()
	root, err := tk.Create(0)
	if err != nil {
		t.Fatalf("Create root: %v", err)
	}
	a, _ := tk.Create(root)
	b, _ := tk.Create(root)

	if got := tk.Children(root); !reflect.DeepEqual(got, []toolkit.Handle{a, b}) {
		t.Errorf("Children(root) = %v", got)
	}
	if tk.Parent(a) != root || tk.Parent(root) != 0 {
		t.Error("Parent() mismatch")
	}
	if _, err := tk.Create(99); !errors.Is(err, toolkit.ErrUnknownHandle) {
		t.Errorf("Create with unknown parent: err = %v", err)
	}
}

func TestDestroyChildrenFirst(t *testing.T) {
	var cleaned []toolkit.Handle
	tk := New(WithDefaultCallback(func(h toolkit.Handle, kind toolkit.EventKind, _ any) toolkit.Result {
		if kind == toolkit.EventCleanup {
			cleaned = append(cleaned, h)
		}
		return toolkit.ResultOK
	}))

	root, _ := tk.Create(0)
	a, _ := tk.Create(root)
	aa, _ := tk.Create(a)
	b, _ := tk.Create(root)

	if err := tk.Destroy(root); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	want := []toolkit.Handle{b, aa, a, root}
	if !reflect.DeepEqual(cleaned, want) {
		t.Errorf("cleanup order = %v, want %v", cleaned, want)
	}
	if tk.Len() != 0 {
		t.Errorf("Len() = %d after destroy", tk.Len())
	}
	if err := tk.Destroy(root); !errors.Is(err, toolkit.ErrUnknownHandle) {
		t.Errorf("second Destroy: err = %v", err)
	}
}

func TestDestroyDetachesFromParent(t *testing.T) {
	tk := New()
	root, _ := tk.Create(0)
	a, _ := tk.Create(root)
	b, _ := tk.Create(root)

	_ = tk.Destroy(a)
	if got := tk.Children(root); !reflect.DeepEqual(got, []toolkit.Handle{b}) {
		t.Errorf("Children(root) = %v", got)
	}
	if tk.Exists(a) || !tk.Exists(b) {
		t.Error("Exists() mismatch")
	}
}

func TestSendUsesCurrentCallback(t *testing.T) {
	tk := New()
	h, _ := tk.Create(0)

	var got []toolkit.EventKind
	_ = tk.SetCallback(h, func(_ toolkit.Handle, kind toolkit.EventKind, _ any) toolkit.Result {
		got = append(got, kind)
		return toolkit.ResultOK
	})

	if _, err := tk.Send(h, toolkit.EventClicked, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	tk.Broadcast(toolkit.EventResize, [2]int{80, 24})

	want := []toolkit.EventKind{toolkit.EventClicked, toolkit.EventResize}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if _, err := tk.Send(42, toolkit.EventClicked, nil); !errors.Is(err, toolkit.ErrUnknownHandle) {
		t.Errorf("Send to unknown handle: err = %v", err)
	}
	if err := tk.SetCallback(42, nil); !errors.Is(err, toolkit.ErrUnknownHandle) {
		t.Errorf("SetCallback on unknown handle: err = %v", err)
	}
}

func TestClose(t *testing.T) {
	tk := New()
	r1, _ := tk.Create(0)
	_, _ = tk.Create(r1)
	_, _ = tk.Create(0)

	if err := tk.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tk.Len() != 0 {
		t.Errorf("Len() = %d after Close", tk.Len())
	}
	if _, err := tk.Create(0); !errors.Is(err, toolkit.ErrClosed) {
		t.Errorf("Create after Close: err = %v", err)
	}
}
