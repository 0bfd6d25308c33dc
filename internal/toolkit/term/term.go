// Package term is a terminal toolkit built on tcell. Objects are labelled
// rectangles; mouse, key and resize events from the screen are turned into
// toolkit events on the loop goroutine by Pump.
package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/toolkit"
)

// Rect is a screen rectangle in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

type widget struct {
	parent   toolkit.Handle
	children []toolkit.Handle
	cb       toolkit.Callback
	bounds   Rect
	label    string
	style    tcell.Style
	dying    bool
}

// Toolkit implements toolkit.Toolkit on a tcell screen. All methods except
// Start must be called from the loop goroutine.
type Toolkit struct {
	screen tcell.Screen
	logger *logging.Logger

	next    toolkit.Handle
	widgets map[toolkit.Handle]*widget
	order   []toolkit.Handle
	focus   toolkit.Handle
	pressed toolkit.Handle
	dirty   bool

	events  chan tcell.Event
	done    chan struct{}
	started bool
	closed  bool
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Toolkit) {
		t.logger = logging.OrNull(l).WithComponent("term")
	}
}

// NewScreen returns the terminal screen for the current process.
func NewScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return s, nil
}

// New initializes screen and returns a toolkit drawing on it.
func New(screen tcell.Screen, opts ...Option) (*Toolkit, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()

	t := &Toolkit{
		screen:  screen,
		logger:  logging.Null,
		widgets: make(map[toolkit.Handle]*widget),
		events:  make(chan tcell.Event, 64),
		done:    make(chan struct{}),
		dirty:   true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Screen returns the underlying screen.
func (t *Toolkit) Screen() tcell.Screen {
	return t.screen
}

// Create implements toolkit.Toolkit.
func (t *Toolkit) Create(parent toolkit.Handle) (toolkit.Handle, error) {
	if t.closed {
		return 0, toolkit.ErrClosed
	}
	if parent != 0 {
		if p, ok := t.widgets[parent]; !ok || p.dying {
			return 0, fmt.Errorf("parent %d: %w", parent, toolkit.ErrUnknownHandle)
		}
	}

	t.next++
	h := t.next
	w := &widget{
		parent: parent,
		cb:     t.defaultCallback,
		style:  tcell.StyleDefault,
	}
	if parent != 0 {
		p := t.widgets[parent]
		p.children = append(p.children, h)
		w.bounds = p.bounds
	}
	t.widgets[h] = w
	t.order = append(t.order, h)
	t.dirty = true
	return h, nil
}

// Destroy implements toolkit.Toolkit.
func (t *Toolkit) Destroy(h toolkit.Handle) error {
	w, ok := t.widgets[h]
	if !ok || w.dying {
		return fmt.Errorf("destroy %d: %w", h, toolkit.ErrUnknownHandle)
	}
	w.dying = true

	for len(w.children) > 0 {
		if err := t.Destroy(w.children[len(w.children)-1]); err != nil {
			return err
		}
	}
	if w.cb != nil {
		w.cb(h, toolkit.EventCleanup, nil)
	}

	if p, ok := t.widgets[w.parent]; ok {
		p.children = removeHandle(p.children, h)
	}
	t.order = removeHandle(t.order, h)
	delete(t.widgets, h)
	if t.focus == h {
		t.focus = 0
	}
	if t.pressed == h {
		t.pressed = 0
	}
	t.dirty = true
	return nil
}

// Callback implements toolkit.Toolkit.
func (t *Toolkit) Callback(h toolkit.Handle) toolkit.Callback {
	if w, ok := t.widgets[h]; ok {
		return w.cb
	}
	return nil
}

// SetCallback implements toolkit.Toolkit.
func (t *Toolkit) SetCallback(h toolkit.Handle, cb toolkit.Callback) error {
	w, ok := t.widgets[h]
	if !ok {
		return fmt.Errorf("set callback %d: %w", h, toolkit.ErrUnknownHandle)
	}
	w.cb = cb
	return nil
}

// Children implements toolkit.Toolkit.
func (t *Toolkit) Children(h toolkit.Handle) []toolkit.Handle {
	if w, ok := t.widgets[h]; ok {
		return append([]toolkit.Handle(nil), w.children...)
	}
	return nil
}

// SetBounds places h on the screen.
func (t *Toolkit) SetBounds(h toolkit.Handle, r Rect) error {
	w, ok := t.widgets[h]
	if !ok {
		return fmt.Errorf("set bounds %d: %w", h, toolkit.ErrUnknownHandle)
	}
	w.bounds = r
	t.dirty = true
	return nil
}

// Bounds returns the rectangle of h.
func (t *Toolkit) Bounds(h toolkit.Handle) Rect {
	if w, ok := t.widgets[h]; ok {
		return w.bounds
	}
	return Rect{}
}

// SetLabel sets the text drawn centered in h.
func (t *Toolkit) SetLabel(h toolkit.Handle, label string) error {
	w, ok := t.widgets[h]
	if !ok {
		return fmt.Errorf("set label %d: %w", h, toolkit.ErrUnknownHandle)
	}
	w.label = label
	t.dirty = true
	return nil
}

// Label returns the label of h.
func (t *Toolkit) Label(h toolkit.Handle) string {
	if w, ok := t.widgets[h]; ok {
		return w.label
	}
	return ""
}

// SetColors sets the foreground and background of h from hex strings such
// as "#ff8800". An empty string keeps the terminal default.
func (t *Toolkit) SetColors(h toolkit.Handle, fg, bg string) error {
	w, ok := t.widgets[h]
	if !ok {
		return fmt.Errorf("set colors %d: %w", h, toolkit.ErrUnknownHandle)
	}
	fc, err := ParseColor(fg)
	if err != nil {
		return err
	}
	bc, err := ParseColor(bg)
	if err != nil {
		return err
	}
	w.style = tcell.StyleDefault.Foreground(fc).Background(bc)
	t.dirty = true
	return nil
}

// ParseColor converts a hex color to a tcell color.
func ParseColor(s string) (tcell.Color, error) {
	if s == "" {
		return tcell.ColorDefault, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
}

// Focus moves keyboard focus to h, sending EventDefocused to the previous
// holder and EventFocused to h.
func (t *Toolkit) Focus(h toolkit.Handle) error {
	if _, ok := t.widgets[h]; !ok {
		return fmt.Errorf("focus %d: %w", h, toolkit.ErrUnknownHandle)
	}
	t.setFocus(h)
	return nil
}

// Focused returns the handle holding keyboard focus, or zero.
func (t *Toolkit) Focused() toolkit.Handle {
	return t.focus
}

// Start launches the goroutine that reads screen events. The events are
// handled by Pump on the loop goroutine.
func (t *Toolkit) Start() {
	if t.started || t.closed {
		return
	}
	t.started = true
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case t.events <- ev:
			case <-t.done:
				return
			}
		}
	}()
}

// Pump handles every queued screen event, redraws if anything changed,
// and returns the number of events handled. It never blocks.
func (t *Toolkit) Pump() int {
	n := 0
	for {
		select {
		case ev := <-t.events:
			t.Dispatch(ev)
			n++
			continue
		default:
		}
		break
	}
	if t.dirty && !t.closed {
		t.Draw()
	}
	return n
}

// Dispatch turns one screen event into toolkit events. Mouse button 1
// presses the topmost object under the pointer and gives it focus; the
// release sends EventReleased, plus EventClicked when the pointer is still
// over the same object. Keys go to the focused object, except Tab which
// moves focus. Resizes go to every object.
func (t *Toolkit) Dispatch(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventMouse:
		x, y := e.Position()
		pos := map[string]any{"x": x, "y": y}
		down := e.Buttons()&tcell.Button1 != 0
		switch {
		case down && t.pressed == 0:
			h := t.hit(x, y)
			if h == 0 {
				return
			}
			t.pressed = h
			t.setFocus(h)
			t.send(h, toolkit.EventPressed, pos)
		case !down && t.pressed != 0:
			h := t.pressed
			t.pressed = 0
			t.send(h, toolkit.EventReleased, pos)
			if t.hit(x, y) == h {
				t.send(h, toolkit.EventClicked, pos)
			}
		}

	case *tcell.EventKey:
		if e.Key() == tcell.KeyTab {
			t.focusNext()
			return
		}
		if t.focus == 0 {
			return
		}
		param := map[string]any{"name": e.Name()}
		if e.Key() == tcell.KeyRune {
			param["rune"] = string(e.Rune())
		}
		t.send(t.focus, toolkit.EventKey, param)

	case *tcell.EventResize:
		w, h := e.Size()
		t.screen.Sync()
		param := map[string]any{"width": w, "height": h}
		for _, hd := range append([]toolkit.Handle(nil), t.order...) {
			t.send(hd, toolkit.EventResize, param)
		}
		t.dirty = true
	}
}

// Draw paints every object in creation order, later objects on top.
func (t *Toolkit) Draw() {
	t.screen.Clear()
	for _, h := range t.order {
		w := t.widgets[h]
		st := w.style
		if h == t.focus {
			st = st.Reverse(true)
		}
		b := w.bounds
		for y := b.Y; y < b.Y+b.H; y++ {
			for x := b.X; x < b.X+b.W; x++ {
				t.screen.SetContent(x, y, ' ', nil, st)
			}
		}
		if w.label != "" && b.H > 0 {
			offset := (b.W - uniseg.StringWidth(w.label)) / 2
			if offset < 0 {
				offset = 0
			}
			drawText(t.screen, b.X+offset, b.Y+b.H/2, b.W-offset, w.label, st)
		}
	}
	t.screen.Show()
	t.dirty = false
}

// Close destroys every object and releases the terminal.
func (t *Toolkit) Close() error {
	if t.closed {
		return nil
	}
	var roots []toolkit.Handle
	for _, h := range t.order {
		if t.widgets[h].parent == 0 {
			roots = append(roots, h)
		}
	}
	for i := len(roots) - 1; i >= 0; i-- {
		if _, ok := t.widgets[roots[i]]; !ok {
			continue
		}
		if err := t.Destroy(roots[i]); err != nil {
			t.logger.Warn("close: %v", err)
		}
	}
	t.closed = true
	close(t.done)
	t.screen.Fini()
	return nil
}

func (t *Toolkit) defaultCallback(h toolkit.Handle, kind toolkit.EventKind, _ any) toolkit.Result {
	t.logger.Debug("object %d: %s", h, kind)
	return toolkit.ResultOK
}

func (t *Toolkit) send(h toolkit.Handle, kind toolkit.EventKind, param any) {
	w, ok := t.widgets[h]
	if !ok || w.cb == nil {
		return
	}
	w.cb(h, kind, param)
	t.dirty = true
}

func (t *Toolkit) hit(x, y int) toolkit.Handle {
	for i := len(t.order) - 1; i >= 0; i-- {
		h := t.order[i]
		if w := t.widgets[h]; !w.dying && w.bounds.Contains(x, y) {
			return h
		}
	}
	return 0
}

func (t *Toolkit) setFocus(h toolkit.Handle) {
	if h == t.focus {
		return
	}
	old := t.focus
	t.focus = h
	t.dirty = true
	if old != 0 {
		t.send(old, toolkit.EventDefocused, nil)
	}
	t.send(h, toolkit.EventFocused, nil)
}

func (t *Toolkit) focusNext() {
	if len(t.order) == 0 {
		return
	}
	next := t.order[0]
	for i, h := range t.order {
		if h == t.focus && i+1 < len(t.order) {
			next = t.order[i+1]
			break
		}
	}
	t.setFocus(next)
}

// drawText writes s from (x, y) one grapheme cluster at a time, stopping
// before the first cluster that does not fit in limit cells.
func drawText(s tcell.Screen, x, y, limit int, text string, st tcell.Style) {
	col := 0
	state := -1
	for text != "" {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		if col+width > limit {
			return
		}
		runes := []rune(cluster)
		s.SetContent(x+col, y, runes[0], runes[1:], st)
		col += width
	}
}

func removeHandle(hs []toolkit.Handle, h toolkit.Handle) []toolkit.Handle {
	for i, v := range hs {
		if v == h {
			return append(hs[:i], hs[i+1:]...)
		}
	}
	return hs
}
