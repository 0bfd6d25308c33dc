package term

import (
	"reflect"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/slotwire/internal/toolkit"
)

type recorded struct {
	h     toolkit.Handle
	kind  toolkit.EventKind
	param any
}

func newTestToolkit(t *testing.T) (*Toolkit, tcell.SimulationScreen, *[]recorded) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	tk, err := New(screen)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	screen.SetSize(40, 10)
	t.Cleanup(func() { _ = tk.Close() })

	var events []recorded
	return tk, screen, &events
}

func record(tk *Toolkit, h toolkit.Handle, events *[]recorded) {
	_ = tk.SetCallback(h, func(h toolkit.Handle, kind toolkit.EventKind, param any) toolkit.Result {
		*events = append(*events, recorded{h, kind, param})
		return toolkit.ResultOK
	})
}

func kinds(events []recorded) []toolkit.EventKind {
	out := make([]toolkit.EventKind, len(events))
	for i, e := range events {
		out[i] = e.kind
	}
	return out
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 2, Y: 1, W: 3, H: 2}
	tests := []struct {
		x, y int
		want bool
	}{
		{2, 1, true},
		{4, 2, true},
		{5, 1, false},
		{2, 3, false},
		{1, 1, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestMouseClick(t *testing.T) {
	tk, _, events := newTestToolkit(t)
	h, _ := tk.Create(0)
	_ = tk.SetBounds(h, Rect{X: 0, Y: 0, W: 10, H: 3})
	record(tk, h, events)

	tk.Dispatch(tcell.NewEventMouse(2, 1, tcell.Button1, tcell.ModNone))
	tk.Dispatch(tcell.NewEventMouse(3, 1, tcell.ButtonNone, tcell.ModNone))

	want := []toolkit.EventKind{toolkit.EventFocused, toolkit.EventPressed, toolkit.EventReleased, toolkit.EventClicked}
	if got := kinds(*events); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if tk.Focused() != h {
		t.Errorf("Focused() = %d, want %d", tk.Focused(), h)
	}
	pos := (*events)[3].param.(map[string]any)
	if pos["x"] != 3 || pos["y"] != 1 {
		t.Errorf("click position = %v", pos)
	}
}

func TestMouseReleaseOutside(t *testing.T) {
	tk, _, events := newTestToolkit(t)
	h, _ := tk.Create(0)
	_ = tk.SetBounds(h, Rect{X: 0, Y: 0, W: 5, H: 1})
	record(tk, h, events)

	tk.Dispatch(tcell.NewEventMouse(1, 0, tcell.Button1, tcell.ModNone))
	tk.Dispatch(tcell.NewEventMouse(20, 5, tcell.ButtonNone, tcell.ModNone))

	want := []toolkit.EventKind{toolkit.EventFocused, toolkit.EventPressed, toolkit.EventReleased}
	if got := kinds(*events); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestHitPrefersTopmost(t *testing.T) {
	tk, _, events := newTestToolkit(t)
	below, _ := tk.Create(0)
	above, _ := tk.Create(0)
	_ = tk.SetBounds(below, Rect{W: 10, H: 5})
	_ = tk.SetBounds(above, Rect{X: 2, Y: 2, W: 3, H: 1})
	record(tk, below, events)
	record(tk, above, events)

	tk.Dispatch(tcell.NewEventMouse(3, 2, tcell.Button1, tcell.ModNone))
	if len(*events) == 0 || (*events)[0].h != above {
		t.Errorf("press went to %v, want %d", *events, above)
	}
}

func TestKeysAndFocus(t *testing.T) {
	tk, _, events := newTestToolkit(t)
	a, _ := tk.Create(0)
	b, _ := tk.Create(0)
	record(tk, a, events)
	record(tk, b, events)

	// No focus yet: keys are dropped.
	tk.Dispatch(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	if len(*events) != 0 {
		t.Fatalf("unfocused key delivered: %v", *events)
	}

	tk.Dispatch(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))
	tk.Dispatch(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	tk.Dispatch(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))

	want := []recorded{
		{a, toolkit.EventFocused, nil},
		{a, toolkit.EventKey, nil},
		{a, toolkit.EventDefocused, nil},
		{b, toolkit.EventFocused, nil},
	}
	if len(*events) != len(want) {
		t.Fatalf("events = %v", *events)
	}
	for i, w := range want {
		if got := (*events)[i]; got.h != w.h || got.kind != w.kind {
			t.Errorf("event %d = %d/%v, want %d/%v", i, got.h, got.kind, w.h, w.kind)
		}
	}
	key := (*events)[1].param.(map[string]any)
	if key["rune"] != "x" {
		t.Errorf("key param = %v", key)
	}
}

func TestResizeBroadcast(t *testing.T) {
	tk, _, events := newTestToolkit(t)
	a, _ := tk.Create(0)
	b, _ := tk.Create(a)
	record(tk, a, events)
	record(tk, b, events)

	tk.Dispatch(tcell.NewEventResize(100, 30))

	if len(*events) != 2 {
		t.Fatalf("events = %v", *events)
	}
	for _, e := range *events {
		size := e.param.(map[string]any)
		if e.kind != toolkit.EventResize || size["width"] != 100 || size["height"] != 30 {
			t.Errorf("resize event = %+v", e)
		}
	}
}

func TestDestroyClearsFocus(t *testing.T) {
	tk, _, events := newTestToolkit(t)
	parent, _ := tk.Create(0)
	child, _ := tk.Create(parent)
	record(tk, parent, events)
	record(tk, child, events)
	_ = tk.Focus(child)

	if err := tk.Destroy(parent); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if tk.Focused() != 0 {
		t.Errorf("Focused() = %d after destroy", tk.Focused())
	}

	var cleaned []toolkit.Handle
	for _, e := range *events {
		if e.kind == toolkit.EventCleanup {
			cleaned = append(cleaned, e.h)
		}
	}
	if !reflect.DeepEqual(cleaned, []toolkit.Handle{child, parent}) {
		t.Errorf("cleanup order = %v", cleaned)
	}
}

func TestDrawLabel(t *testing.T) {
	tk, screen, _ := newTestToolkit(t)
	h, _ := tk.Create(0)
	_ = tk.SetBounds(h, Rect{X: 0, Y: 0, W: 10, H: 1})
	_ = tk.SetLabel(h, "héllo")
	if err := tk.SetColors(h, "#ff0000", "#000000"); err != nil {
		t.Fatalf("SetColors: %v", err)
	}

	tk.Draw()

	// "héllo" is five cells wide, so it starts at (10-5)/2 = 2.
	var got []rune
	for x := 2; x < 7; x++ {
		r, _, _, _ := screen.GetContent(x, 0) //nolint:staticcheck // GetContent is the correct API
		got = append(got, r)
	}
	if string(got) != "héllo" {
		t.Errorf("drawn label = %q", string(got))
	}
	_, _, style, _ := screen.GetContent(2, 0) //nolint:staticcheck // GetContent is the correct API
	if fg, _, _ := style.Decompose(); fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("foreground = %v", fg)
	}
}

func TestDrawTruncatesLabel(t *testing.T) {
	tk, screen, _ := newTestToolkit(t)
	h, _ := tk.Create(0)
	_ = tk.SetBounds(h, Rect{X: 0, Y: 0, W: 3, H: 1})
	_ = tk.SetLabel(h, "abcdef")

	tk.Draw()

	r, _, _, _ := screen.GetContent(3, 0) //nolint:staticcheck // GetContent is the correct API
	if r == 'd' {
		t.Error("label drawn past the object bounds")
	}
}

func TestParseColor(t *testing.T) {
	if c, err := ParseColor(""); err != nil || c != tcell.ColorDefault {
		t.Errorf("ParseColor(\"\") = %v, %v", c, err)
	}
	if c, err := ParseColor("#00ff00"); err != nil || c != tcell.NewRGBColor(0, 255, 0) {
		t.Errorf("ParseColor(#00ff00) = %v, %v", c, err)
	}
	if _, err := ParseColor("green"); err == nil {
		t.Error("ParseColor(green) should fail")
	}
}

func TestStartAndPump(t *testing.T) {
	tk, screen, events := newTestToolkit(t)
	h, _ := tk.Create(0)
	record(tk, h, events)
	_ = tk.Focus(h)
	*events = nil

	tk.Start()
	if err := screen.PostEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}

	// The screen may queue its own resize first; wait for the key.
	var got *recorded
	deadline := time.Now().Add(2 * time.Second)
	for got == nil && time.Now().Before(deadline) {
		tk.Pump()
		for i := range *events {
			if (*events)[i].kind == toolkit.EventKey {
				got = &(*events)[i]
			}
		}
		time.Sleep(time.Millisecond)
	}
	if got == nil {
		t.Fatalf("key event never pumped; got %v", *events)
	}
	if name := got.param.(map[string]any)["name"]; name != "Enter" {
		t.Errorf("key name = %v, want Enter", name)
	}
}
