package script

import (
	"fmt"

	"github.com/dshills/slotwire/internal/signal"
)

// HandlerName is the global function a slot script must define. It is
// called as on_signal(name, payload, trigger) where trigger is the name
// of the forwarding signal, or nil for a direct emit.
const HandlerName = "on_signal"

// Slot is a signal slot backed by a Lua script.
type Slot struct {
	engine  *Engine
	slot    *signal.Slot
	errors  int
	lastErr error
}

// NewSlot loads code into a fresh engine and registers a slot named name
// with d. The script must define on_signal.
func NewSlot(d *signal.Dispatcher, name, code string, opts ...Option) (*Slot, error) {
	e := NewEngine(opts...)
	if err := e.DoString(code); err != nil {
		e.Close()
		return nil, fmt.Errorf("load script %q: %w", name, err)
	}
	if !e.Has(HandlerName) {
		e.Close()
		return nil, fmt.Errorf("load script %q: %w", name, ErrNoHandler)
	}

	s := &Slot{engine: e}
	s.slot = d.NewSlot(name, s.call)
	return s, nil
}

// Slot returns the dispatcher slot to connect signals to.
func (s *Slot) Slot() *signal.Slot {
	return s.slot
}

// Engine returns the engine running the script.
func (s *Slot) Engine() *Engine {
	return s.engine
}

// Errors returns how many invocations failed.
func (s *Slot) Errors() int {
	return s.errors
}

// LastError returns the most recent invocation error.
func (s *Slot) LastError() error {
	return s.lastErr
}

// Destroy disconnects the slot and closes the engine.
func (s *Slot) Destroy() {
	s.slot.Destroy()
	s.engine.Close()
}

func (s *Slot) call(sig *signal.Signal) {
	var trigger any
	if t := sig.Trigger(); t != nil {
		trigger = t.Name()
	}
	if _, err := s.engine.Call(HandlerName, sig.Name(), sig.Param(), trigger); err != nil {
		s.errors++
		s.lastErr = err
		s.engine.logger.Warn("slot %s failed on %s: %v", s.slot.Name(), sig.Name(), err)
	}
}
