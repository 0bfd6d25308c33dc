package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/dshills/slotwire/internal/anim"
	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/sched"
	"github.com/dshills/slotwire/internal/script"
	"github.com/dshills/slotwire/internal/signal"
	"github.com/dshills/slotwire/internal/toolkit"
	"github.com/dshills/slotwire/internal/toolkit/term"
)

// Env supplies what Build wires the manifest into.
type Env struct {
	// Dispatcher owns every signal, slot and connection. Its scheduler
	// runs timers and animations.
	Dispatcher *signal.Dispatcher
	// Registry creates objects. It may be nil when the manifest has none.
	Registry *toolkit.Registry
	// Logger receives log slot output.
	Logger *logging.Logger
	// Quit is called by quit slots.
	Quit func()
	// ScriptOptions are applied to every lua slot engine.
	ScriptOptions []script.Option
}

// Decorator is implemented by toolkits that draw objects.
type Decorator interface {
	SetBounds(h toolkit.Handle, r term.Rect) error
	SetLabel(h toolkit.Handle, label string) error
	SetColors(h toolkit.Handle, fg, bg string) error
}

// Graph is a built manifest.
type Graph struct {
	d      *signal.Dispatcher
	logger *logging.Logger

	signals    map[string]*signal.Signal
	slots      map[string]*signal.Slot
	scripts    map[string]*script.Slot
	timers     map[string]*sched.Task
	objects    map[string]*toolkit.Object
	animations map[string]*anim.Animation

	// creation order, for Close
	objectOrder []*toolkit.Object
	conns       []signal.ConnID
	closed      bool
}

// Build validates m and creates its graph. On error everything created so
// far is released.
func Build(m *Manifest, env Env) (*Graph, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s := env.Dispatcher.Scheduler()
	if s == nil && (len(m.Timers) > 0 || len(m.Animations) > 0) {
		return nil, ErrNoScheduler
	}
	if env.Registry == nil && len(m.Objects) > 0 {
		return nil, ErrNoToolkit
	}

	g := &Graph{
		d:          env.Dispatcher,
		logger:     logging.OrNull(env.Logger).WithComponent("manifest"),
		signals:    make(map[string]*signal.Signal),
		slots:      make(map[string]*signal.Slot),
		scripts:    make(map[string]*script.Slot),
		timers:     make(map[string]*sched.Task),
		objects:    make(map[string]*toolkit.Object),
		animations: make(map[string]*anim.Animation),
	}
	steps := []func(*Manifest, Env) error{
		g.buildSignals,
		g.buildSlots,
		g.buildObjects,
		g.buildConnections,
		g.buildTimers,
	}
	for _, step := range steps {
		if err := step(m, env); err != nil {
			g.Close()
			return nil, err
		}
	}
	g.logger.Debug("built %d signals, %d slots, %d connections", len(g.signals), len(g.slots), len(g.conns))
	return g, nil
}

func (g *Graph) buildSignals(m *Manifest, _ Env) error {
	for _, name := range m.Signals {
		g.signals[name] = g.d.NewSignal(name)
	}
	for _, def := range m.Animations {
		easing, _ := anim.ParseEasing(def.Easing)
		opts := []anim.Option{anim.WithName(def.Name)}
		if def.Step > 0 {
			opts = append(opts, anim.WithStep(def.Step))
		}
		if def.Repeat != 0 {
			opts = append(opts, anim.WithRepeat(def.Repeat))
		}
		a := anim.New(g.d.Scheduler(), g.d, def.From, def.To, def.Duration, easing, opts...)
		g.animations[def.Name] = a
		g.signals[a.Value().Name()] = a.Value()
		g.signals[a.Finished().Name()] = a.Finished()
	}
	return nil
}

func (g *Graph) buildSlots(m *Manifest, env Env) error {
	for i, def := range m.Slots {
		switch def.Kind {
		case KindLog:
			g.slots[def.Name] = g.d.NewSlot(def.Name, g.logSlot(def))
		case KindQuit:
			quit := env.Quit
			g.slots[def.Name] = g.d.NewSlot(def.Name, func(sig *signal.Signal) {
				g.logger.Info("quit requested by %s", sig.Name())
				if quit != nil {
					quit()
				}
			})
		case KindEmit:
			target := g.signals[def.Signal]
			payload := def.Payload
			g.slots[def.Name] = g.d.NewSlot(def.Name, func(sig *signal.Signal) {
				if payload != nil {
					target.Emit(payload)
					return
				}
				target.Emit(sig.Param())
			})
		case KindLua:
			code, err := m.script(def)
			if err != nil {
				return entryError("slots", i, def.Name, err, "")
			}
			opts := append([]script.Option{
				script.WithLogger(env.Logger),
				script.WithResolver(g.Signal),
			}, env.ScriptOptions...)
			sl, err := script.NewSlot(g.d, def.Name, code, opts...)
			if err != nil {
				return entryError("slots", i, def.Name, err, "")
			}
			g.scripts[def.Name] = sl
			g.slots[def.Name] = sl.Slot()
		}
	}

	// Animation start triggers are slots too.
	for _, def := range m.Animations {
		a := g.animations[def.Name]
		if def.Start != "" {
			start := g.d.NewSlot(def.Name+".start", func(*signal.Signal) { a.Start() })
			g.slots[start.Name()] = start
			g.conns = append(g.conns, g.signals[def.Start].Connect(start, signal.Immediate))
		}
		if def.Autostart {
			a.Start()
		}
	}
	return nil
}

func (g *Graph) logSlot(def SlotDef) func(*signal.Signal) {
	level := logging.LevelInfo
	if def.Level != "" {
		level = logging.ParseLevel(def.Level)
	}
	logger := g.logger.WithField("slot", def.Name)
	path := def.Select
	return func(sig *signal.Signal) {
		value := sig.Param()
		if path != "" {
			value = Select(value, path)
		}
		logger.Log(level, "%s: %v", sig.Name(), value)
	}
}

func (g *Graph) buildObjects(m *Manifest, env Env) error {
	if len(m.Objects) == 0 {
		return nil
	}
	deco, _ := env.Registry.Toolkit().(Decorator)
	for i, def := range m.Objects {
		obj, err := env.Registry.NewObject(g.objects[def.Parent], nil)
		if err != nil {
			return entryError("objects", i, def.Name, err, "")
		}
		g.objects[def.Name] = obj
		g.objectOrder = append(g.objectOrder, obj)

		if deco != nil {
			if err := decorate(deco, obj.Handle(), def); err != nil {
				return entryError("objects", i, def.Name, err, "")
			}
		}
		for _, event := range sortedKeys(def.Events) {
			kind, _ := toolkit.ParseEventKind(event)
			id := obj.On(kind).ConnectSignal(g.signals[def.Events[event]], signal.Immediate)
			g.conns = append(g.conns, id)
		}
	}
	return nil
}

func decorate(deco Decorator, h toolkit.Handle, def ObjectDef) error {
	if len(def.Bounds) == 4 {
		r := term.Rect{X: def.Bounds[0], Y: def.Bounds[1], W: def.Bounds[2], H: def.Bounds[3]}
		if err := deco.SetBounds(h, r); err != nil {
			return err
		}
	}
	if def.Label != "" {
		if err := deco.SetLabel(h, def.Label); err != nil {
			return err
		}
	}
	if def.FG != "" || def.BG != "" {
		return deco.SetColors(h, def.FG, def.BG)
	}
	return nil
}

func (g *Graph) buildConnections(m *Manifest, _ Env) error {
	for i, c := range m.Connections {
		mode, _ := signal.ParseMode(c.Mode)
		from := g.signals[c.From]

		var id signal.ConnID
		if slot, ok := g.slots[c.To]; ok {
			id = from.Connect(slot, mode)
		} else {
			id = from.ConnectSignal(g.signals[c.To], mode)
		}
		if id.IsZero() {
			return entryError("connections", i, "", ErrInvalidValue, "%s -> %s rejected", c.From, c.To)
		}
		g.conns = append(g.conns, id)
	}
	return nil
}

func (g *Graph) buildTimers(m *Manifest, _ Env) error {
	s := g.d.Scheduler()
	for _, def := range m.Timers {
		prio := sched.PriorityMid
		if def.Priority != "" {
			prio, _ = sched.ParsePriority(def.Priority)
		}
		sig := g.signals[def.Signal]
		payload := def.Payload
		task := s.NewTask(def.Period, prio, func() { sig.Emit(payload) })
		times := def.Times
		if times == 0 {
			times = -1
		}
		task.SetTimes(times)
		if def.Immediate {
			task.StartAndRun()
		} else {
			task.Start()
		}
		g.timers[def.Name] = task
	}
	return nil
}

// Signal returns the named signal, or nil.
func (g *Graph) Signal(name string) *signal.Signal {
	return g.signals[name]
}

// Slot returns the named slot, or nil.
func (g *Graph) Slot(name string) *signal.Slot {
	return g.slots[name]
}

// Script returns the named lua slot, or nil.
func (g *Graph) Script(name string) *script.Slot {
	return g.scripts[name]
}

// Object returns the named object, or nil.
func (g *Graph) Object(name string) *toolkit.Object {
	return g.objects[name]
}

// Timer returns the named timer task, or nil.
func (g *Graph) Timer(name string) *sched.Task {
	return g.timers[name]
}

// Animation returns the named animation, or nil.
func (g *Graph) Animation(name string) *anim.Animation {
	return g.animations[name]
}

// Connections returns the live connections the graph created.
func (g *Graph) Connections() []signal.ConnInfo {
	var out []signal.ConnInfo
	for _, id := range g.conns {
		if info, ok := g.d.Info(id); ok {
			out = append(out, info)
		}
	}
	return out
}

// Describe writes a listing of the graph to w.
func (g *Graph) Describe(w io.Writer) error {
	var b bytes.Buffer

	names := make([]string, 0, len(g.signals))
	for name := range g.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(&b, "signals (%d):\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", name)
	}

	conns := g.Connections()
	fmt.Fprintf(&b, "connections (%d):\n", len(conns))
	for _, c := range conns {
		fmt.Fprintf(&b, "  %s -> %s [%s, %s]\n", c.Sender.Name(), c.ReceiverName(), c.Kind, c.Mode)
	}

	timers := make([]string, 0, len(g.timers))
	for name := range g.timers {
		timers = append(timers, name)
	}
	sort.Strings(timers)
	fmt.Fprintf(&b, "timers (%d):\n", len(timers))
	for _, name := range timers {
		t := g.timers[name]
		fmt.Fprintf(&b, "  %s every %s (%s)\n", name, t.Period(), t.Priority())
	}

	_, err := w.Write(b.Bytes())
	return err
}

// Close stops timers and animations and releases every object, slot and
// signal the graph created. It is safe to call more than once.
func (g *Graph) Close() {
	if g.closed {
		return
	}
	g.closed = true

	for _, t := range g.timers {
		t.Delete()
	}
	for _, a := range g.animations {
		a.Destroy()
	}
	for _, sl := range g.scripts {
		sl.Destroy()
	}
	for _, sl := range g.slots {
		sl.Destroy()
	}
	for i := len(g.objectOrder) - 1; i >= 0; i-- {
		if obj := g.objectOrder[i]; obj.IsAlive() {
			if err := obj.Delete(); err != nil {
				g.logger.Warn("close: delete object %d: %v", obj.Handle(), err)
			}
		}
	}
	for _, s := range g.signals {
		s.Destroy()
	}
}

// Select extracts the gjson path from v. Strings holding JSON are queried
// directly; other values are encoded to JSON first. Missing paths yield
// nil.
func Select(v any, path string) any {
	var data []byte
	switch p := v.(type) {
	case string:
		if !gjson.Valid(p) {
			return nil
		}
		data = []byte(p)
	case []byte:
		data = p
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil
		}
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return nil
	}
	return res.Value()
}
