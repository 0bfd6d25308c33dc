// Package script runs sandboxed Lua code as signal slots.
//
// Every Engine owns its own gopher-lua state with only the base, table,
// string and math libraries opened. Functions that load code from files
// or strings are removed. Two host functions are installed:
//
//	emit(name, value)  emits the named signal with value as payload
//	log(...)           writes its arguments to the engine logger
//
// Calls are bounded by an execution timeout and by a limit on host calls
// made per invocation.
//
// An Engine is not safe for concurrent use. Slots run on the goroutine
// that drives the dispatcher.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/signal"
)

// Default limits.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultCallLimit = 10_000
)

// Resolver maps a signal name to a live signal, or nil when unknown.
type Resolver func(name string) *signal.Signal

// Engine is a sandboxed Lua state.
type Engine struct {
	L *lua.LState

	timeout   time.Duration
	callLimit int64
	calls     int64
	running   int
	resolve   Resolver
	logger    *logging.Logger
	closed    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds the wall time of a single DoString or Call.
// Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.timeout = d
		}
	}
}

// WithCallLimit bounds the number of host calls made during a single
// invocation. Zero disables the limit.
func WithCallLimit(n int64) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.callLimit = n
		}
	}
}

// WithResolver sets the lookup used by the emit global.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolve = r
	}
}

// WithLogger sets the logger used by the log global and for errors.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.OrNull(l).WithComponent("script")
	}
}

// NewEngine creates a sandboxed Lua engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout:   DefaultTimeout,
		callLimit: DefaultCallLimit,
		logger:    logging.Null,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(e.L)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		e.L.SetGlobal(name, lua.LNil)
	}
	e.L.SetGlobal("emit", e.L.NewFunction(e.luaEmit))
	e.L.SetGlobal("log", e.L.NewFunction(e.luaLog))
	return e
}

// DoString runs a chunk of Lua code.
func (e *Engine) DoString(code string) error {
	if e.closed {
		return ErrClosed
	}
	return e.guard(func() error {
		return e.L.DoString(code)
	})
}

// Has reports whether a global function named fn is defined.
func (e *Engine) Has(fn string) bool {
	if e.closed {
		return false
	}
	return e.L.GetGlobal(fn).Type() == lua.LTFunction
}

// Call calls the global Lua function fn. Arguments and results are
// converted with ToLua and ToGo.
func (e *Engine) Call(fn string, args ...any) ([]any, error) {
	if e.closed {
		return nil, ErrClosed
	}
	fnVal := e.L.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q is not a function (got %s)", fn, fnVal.Type())
	}

	top := e.L.GetTop()
	err := e.guard(func() error {
		e.L.Push(fnVal)
		for _, arg := range args {
			e.L.Push(ToLua(e.L, arg))
		}
		return e.L.PCall(len(args), lua.MultRet, nil)
	})
	if err != nil {
		e.L.SetTop(top)
		return nil, err
	}

	n := e.L.GetTop() - top
	results := make([]any, n)
	for i := 0; i < n; i++ {
		results[i] = ToGo(e.L.Get(top + i + 1))
	}
	e.L.Pop(n)
	return results, nil
}

// Close releases the Lua state. It is safe to call more than once.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}

// IsClosed reports whether Close has been called.
func (e *Engine) IsClosed() bool {
	return e.closed
}

// guard runs fn with panics converted to errors. The outermost call
// also resets the host call counter and arms the timeout.
func (e *Engine) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if e.running > 0 {
		return fn()
	}
	e.running++
	defer func() { e.running-- }()

	e.calls = 0
	if e.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.L.SetContext(ctx)
		defer e.L.RemoveContext()
		err = fn()
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
		}
	} else {
		err = fn()
	}
	if err != nil && e.callLimit > 0 && e.calls > e.callLimit {
		return fmt.Errorf("%w (%d)", ErrCallLimit, e.callLimit)
	}
	return err
}

// hostCall counts a call into Go and raises a Lua error past the limit.
func (e *Engine) hostCall(L *lua.LState) {
	e.calls++
	if e.callLimit > 0 && e.calls > e.callLimit {
		L.RaiseError("%s", ErrCallLimit.Error())
	}
}

func (e *Engine) luaEmit(L *lua.LState) int {
	e.hostCall(L)
	name := L.CheckString(1)
	var sig *signal.Signal
	if e.resolve != nil {
		sig = e.resolve(name)
	}
	if sig == nil || sig.IsDestroyed() {
		L.RaiseError("%s: %q", ErrUnknownSignal.Error(), name)
		return 0
	}
	sig.Emit(ToGo(L.Get(2)))
	return 0
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.hostCall(L)
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	e.logger.Info("%s", strings.Join(parts, " "))
	return 0
}
