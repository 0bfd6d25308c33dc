package manifest

import (
	"errors"
	"sort"

	"github.com/dshills/slotwire/internal/anim"
	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/sched"
	"github.com/dshills/slotwire/internal/signal"
	"github.com/dshills/slotwire/internal/toolkit"
	"github.com/dshills/slotwire/internal/toolkit/term"
)

// Validate checks names, references and field values. It reports every
// problem found, joined with errors.Join; each is an *Error.
func (m *Manifest) Validate() error {
	v := validator{
		m:       m,
		signals: make(map[string]bool),
		slots:   make(map[string]bool),
	}
	v.names()
	v.slotDefs()
	v.connections()
	v.timers()
	v.objects()
	v.animations()
	return errors.Join(v.errs...)
}

type validator struct {
	m       *Manifest
	signals map[string]bool
	slots   map[string]bool
	errs    []error
}

func (v *validator) fail(section string, i int, name string, err error, format string, args ...any) {
	v.errs = append(v.errs, entryError(section, i, name, err, format, args...))
}

func (v *validator) names() {
	for i, name := range v.m.Signals {
		switch {
		case name == "":
			v.fail("signals", i, "", ErrMissingField, "name")
		case v.signals[name]:
			v.fail("signals", i, name, ErrDuplicateName, "")
		default:
			v.signals[name] = true
		}
	}
	for i, a := range v.m.Animations {
		if a.Name == "" {
			continue
		}
		for _, name := range []string{a.Name + ".value", a.Name + ".finished"} {
			if v.signals[name] {
				v.fail("animations", i, a.Name, ErrDuplicateName, "signal %q", name)
			}
			v.signals[name] = true
		}
	}
	for i, def := range v.m.Slots {
		switch {
		case def.Name == "":
			v.fail("slots", i, "", ErrMissingField, "name")
		case v.slots[def.Name] || v.signals[def.Name]:
			v.fail("slots", i, def.Name, ErrDuplicateName, "")
		default:
			v.slots[def.Name] = true
		}
	}
}

func (v *validator) slotDefs() {
	for i, def := range v.m.Slots {
		switch def.Kind {
		case KindLog:
			if def.Level != "" && !logging.ValidLevel(def.Level) {
				v.fail("slots", i, def.Name, ErrInvalidValue, "level %q", def.Level)
			}
		case KindLua:
			if (def.Code == "") == (def.File == "") {
				v.fail("slots", i, def.Name, ErrInvalidValue, "lua slot needs exactly one of code or file")
			}
		case KindQuit:
		case KindEmit:
			if def.Signal == "" {
				v.fail("slots", i, def.Name, ErrMissingField, "signal")
			} else if !v.signals[def.Signal] {
				v.fail("slots", i, def.Name, ErrUnknownName, "signal %q", def.Signal)
			}
		case "":
			v.fail("slots", i, def.Name, ErrMissingField, "kind")
		default:
			v.fail("slots", i, def.Name, ErrInvalidValue, "kind %q", def.Kind)
		}
	}
}

func (v *validator) connections() {
	for i, c := range v.m.Connections {
		if !v.signals[c.From] {
			v.fail("connections", i, "", ErrUnknownName, "from %q", c.From)
		}
		switch {
		case v.slots[c.To]:
		case v.signals[c.To]:
			if c.To == c.From {
				v.fail("connections", i, "", ErrInvalidValue, "signal %q connected to itself", c.From)
			}
		default:
			v.fail("connections", i, "", ErrUnknownName, "to %q", c.To)
		}
		if _, ok := signal.ParseMode(c.Mode); !ok {
			v.fail("connections", i, "", ErrInvalidValue, "mode %q", c.Mode)
		}
	}
}

func (v *validator) timers() {
	seen := make(map[string]bool)
	for i, t := range v.m.Timers {
		switch {
		case t.Name == "":
			v.fail("timers", i, "", ErrMissingField, "name")
		case seen[t.Name]:
			v.fail("timers", i, t.Name, ErrDuplicateName, "")
		}
		seen[t.Name] = true
		if !v.signals[t.Signal] {
			v.fail("timers", i, t.Name, ErrUnknownName, "signal %q", t.Signal)
		}
		if t.Period <= 0 {
			v.fail("timers", i, t.Name, ErrInvalidValue, "period must be positive")
		}
		if t.Times < 0 {
			v.fail("timers", i, t.Name, ErrInvalidValue, "times %d", t.Times)
		}
		if t.Priority != "" {
			if p, ok := sched.ParsePriority(t.Priority); !ok || p == sched.PriorityOff {
				v.fail("timers", i, t.Name, ErrInvalidValue, "priority %q", t.Priority)
			}
		}
	}
}

func (v *validator) objects() {
	seen := make(map[string]bool)
	for i, o := range v.m.Objects {
		switch {
		case o.Name == "":
			v.fail("objects", i, "", ErrMissingField, "name")
		case seen[o.Name]:
			v.fail("objects", i, o.Name, ErrDuplicateName, "")
		}
		// Parents must be declared first.
		if o.Parent != "" && !seen[o.Parent] {
			v.fail("objects", i, o.Name, ErrUnknownName, "parent %q", o.Parent)
		}
		seen[o.Name] = true

		if len(o.Bounds) != 0 && len(o.Bounds) != 4 {
			v.fail("objects", i, o.Name, ErrInvalidValue, "bounds must be [x, y, w, h]")
		}
		for _, c := range []string{o.FG, o.BG} {
			if _, err := term.ParseColor(c); err != nil {
				v.fail("objects", i, o.Name, ErrInvalidValue, "color %q", c)
			}
		}
		for _, event := range sortedKeys(o.Events) {
			kind, ok := toolkit.ParseEventKind(event)
			if !ok || kind == toolkit.EventNone || kind == toolkit.EventCleanup {
				v.fail("objects", i, o.Name, ErrInvalidValue, "event %q", event)
			}
			if target := o.Events[event]; !v.signals[target] {
				v.fail("objects", i, o.Name, ErrUnknownName, "signal %q", target)
			}
		}
	}
}

func (v *validator) animations() {
	seen := make(map[string]bool)
	for i, a := range v.m.Animations {
		switch {
		case a.Name == "":
			v.fail("animations", i, "", ErrMissingField, "name")
		case seen[a.Name]:
			v.fail("animations", i, a.Name, ErrDuplicateName, "")
		}
		seen[a.Name] = true
		if a.Duration <= 0 {
			v.fail("animations", i, a.Name, ErrInvalidValue, "duration must be positive")
		}
		if _, ok := anim.ParseEasing(a.Easing); !ok {
			v.fail("animations", i, a.Name, ErrInvalidValue, "easing %q", a.Easing)
		}
		if a.Start != "" && !v.signals[a.Start] {
			v.fail("animations", i, a.Name, ErrUnknownName, "start %q", a.Start)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
