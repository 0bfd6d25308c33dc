// Package app wires the dispatcher, scheduler, toolkit and manifest
// together and drives them from a single loop goroutine.
package app

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/slotwire/internal/config"
	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/manifest"
	"github.com/dshills/slotwire/internal/sched"
	"github.com/dshills/slotwire/internal/script"
	"github.com/dshills/slotwire/internal/signal"
	"github.com/dshills/slotwire/internal/toolkit"
	"github.com/dshills/slotwire/internal/toolkit/headless"
	"github.com/dshills/slotwire/internal/toolkit/term"
)

// Options configures a new Application.
type Options struct {
	// Config holds the settings. Nil means config.Default().
	Config *config.Config

	// Manifest is the wiring to build. Nil loads Config.ManifestPath(),
	// if set.
	Manifest *manifest.Manifest

	// Logger overrides the logger built from Config.
	Logger *logging.Logger

	// Screen is used by the term backend instead of the process terminal.
	Screen tcell.Screen

	// Clock drives the scheduler. Nil means the system clock.
	Clock sched.Clock

	// Watch reloads the config file while running.
	Watch bool
}

// Application owns every runtime component.
type Application struct {
	opts   Options
	cfg    *config.Config
	logger *logging.Logger

	sched *sched.Scheduler
	d     *signal.Dispatcher
	tk    toolkit.Toolkit
	term  *term.Toolkit
	reg   *toolkit.Registry
	graph *manifest.Graph

	watcher *config.Watcher
	reloads <-chan config.Reload

	quit     bool
	polls    uint64
	running  atomic.Bool
	shutdown sync.Once
	closed   bool
}

// New creates an Application and builds its manifest.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts, cfg: opts.Config}
	if app.cfg == nil {
		app.cfg = config.Default()
	}
	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Logger
	app.logger = app.opts.Logger
	if app.logger == nil {
		lc := logging.DefaultConfig()
		lc.Level = app.cfg.LogLevel()
		lc.JSON = app.cfg.Log.JSON
		app.logger = logging.New(lc)
	}

	// 2. Scheduler
	schedOpts := []sched.Option{sched.WithLogger(app.logger)}
	if app.opts.Clock != nil {
		schedOpts = append(schedOpts, sched.WithClock(app.opts.Clock))
	}
	app.sched = sched.New(schedOpts...)

	// 3. Dispatcher
	app.d = signal.NewDispatcher(app.sched,
		signal.WithLogger(app.logger),
		signal.WithMaxDepth(app.cfg.Dispatch.MaxDepth),
		signal.WithDeferDelay(app.cfg.Dispatch.DeferDelay.Duration),
	)

	// 4. Toolkit
	if err := app.initToolkit(); err != nil {
		return &InitError{Component: "toolkit", Err: err}
	}
	app.reg = toolkit.NewRegistry(app.tk, app.d, toolkit.WithLogger(app.logger))

	// 5. Manifest
	m := app.opts.Manifest
	if m == nil && app.cfg.ManifestPath() != "" {
		var err error
		if m, err = manifest.Load(app.cfg.ManifestPath()); err != nil {
			return &InitError{Component: "manifest", Err: err}
		}
	}
	if m != nil {
		g, err := manifest.Build(m, manifest.Env{
			Dispatcher: app.d,
			Registry:   app.reg,
			Logger:     app.logger,
			Quit:       app.Quit,
			ScriptOptions: []script.Option{
				script.WithTimeout(app.cfg.Script.Timeout.Duration),
				script.WithCallLimit(app.cfg.Script.CallLimit),
			},
		})
		if err != nil {
			return &InitError{Component: "manifest", Err: err}
		}
		app.graph = g
	}

	// 6. Config watcher
	if app.opts.Watch && app.cfg.Source != "" {
		w, err := config.Watch(app.cfg.Source, config.WithWatchLogger(app.logger))
		if err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
		app.watcher = w
		app.reloads = w.Reloads()
	}
	return nil
}

func (app *Application) initToolkit() error {
	if app.cfg.Toolkit.Backend != config.BackendTerm {
		app.tk = headless.New()
		return nil
	}
	screen := app.opts.Screen
	if screen == nil {
		var err error
		if screen, err = term.NewScreen(); err != nil {
			return err
		}
	}
	tk, err := term.New(screen, term.WithLogger(app.logger))
	if err != nil {
		return err
	}
	app.tk = tk
	app.term = tk
	return nil
}

// Config returns the active settings.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Scheduler returns the task scheduler.
func (app *Application) Scheduler() *sched.Scheduler {
	return app.sched
}

// Dispatcher returns the signal dispatcher.
func (app *Application) Dispatcher() *signal.Dispatcher {
	return app.d
}

// Registry returns the toolkit object registry.
func (app *Application) Registry() *toolkit.Registry {
	return app.reg
}

// Toolkit returns the toolkit backend.
func (app *Application) Toolkit() toolkit.Toolkit {
	return app.tk
}

// Graph returns the built manifest, or nil when none was given.
func (app *Application) Graph() *manifest.Graph {
	return app.graph
}

// IsRunning reports whether Run is executing.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Quit asks the loop to return after the current step. It must be called
// from the loop goroutine, typically by a quit slot.
func (app *Application) Quit() {
	app.quit = true
}

// Shutdown releases every component in reverse initialization order. It
// must not be called while Run is executing, and is safe to call more
// than once.
func (app *Application) Shutdown() {
	app.shutdown.Do(func() {
		app.closed = true
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				app.logger.Warn("close config watcher: %v", err)
			}
		}
		if app.graph != nil {
			app.graph.Close()
		}
		if app.reg != nil {
			app.reg.Close()
		}
		if c, ok := app.tk.(io.Closer); ok {
			if err := c.Close(); err != nil {
				app.logger.Warn("close toolkit: %v", err)
			}
		}
		if app.d != nil {
			app.d.Close()
		}
		if app.sched != nil {
			app.sched.Clear()
		}
	})
}
