package app

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/slotwire/internal/config"
)

// Run drives the loop until ctx is done or a quit slot fires. Each
// iteration pumps toolkit events, applies config reloads and polls the
// scheduler, then sleeps until the next task is due or loop.tick passes,
// whichever comes first. A quit or cancelled context returns nil.
func (app *Application) Run(ctx context.Context) error {
	if app.closed {
		return ErrShutdown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if app.term != nil {
		app.term.Start()
	}
	app.logger.Info("running with %s toolkit", app.cfg.Toolkit.Backend)

	for {
		if err := app.Step(); err != nil {
			if errors.Is(err, ErrQuit) {
				app.logger.Info("quit after %d polls", app.polls)
				return nil
			}
			return err
		}

		timer := time.NewTimer(app.sleep())
		select {
		case <-ctx.Done():
			timer.Stop()
			app.logger.Debug("loop stopped: %v", ctx.Err())
			return nil
		case <-timer.C:
		}
	}
}

// Step runs one loop iteration. It returns ErrQuit once Quit has been
// called.
func (app *Application) Step() error {
	if app.closed {
		return ErrShutdown
	}
	if app.term != nil {
		app.term.Pump()
	}
	app.drainReloads()
	app.sched.Poll()
	app.polls++
	if app.quit {
		return ErrQuit
	}
	return nil
}

// Polls returns how many steps have run.
func (app *Application) Polls() uint64 {
	return app.polls
}

func (app *Application) sleep() time.Duration {
	tick := app.cfg.Loop.Tick.Duration
	if due, ok := app.sched.NextDue(); ok && due < tick {
		if due < 0 {
			return 0
		}
		return due
	}
	return tick
}

func (app *Application) drainReloads() {
	for {
		select {
		case r, ok := <-app.reloads:
			if !ok {
				app.reloads = nil
				return
			}
			app.applyReload(r)
		default:
			return
		}
	}
}

// applyReload adopts the settings that can change while running: the log
// level and the loop tick. Other changes take effect on restart.
func (app *Application) applyReload(r config.Reload) {
	if r.Err != nil {
		app.logger.Warn("config reload rejected: %v", r.Err)
		return
	}
	next := r.Config
	if next.Log.Level != app.cfg.Log.Level {
		app.logger.SetLevel(next.LogLevel())
		app.logger.Info("log level now %s", next.Log.Level)
	}
	if next.Loop.Tick != app.cfg.Loop.Tick {
		app.logger.Info("loop tick now %s", next.Loop.Tick)
	}
	if next.Dispatch != app.cfg.Dispatch || next.Toolkit != app.cfg.Toolkit ||
		next.Manifest != app.cfg.Manifest || next.Script != app.cfg.Script {
		app.logger.Warn("config changes outside log and loop need a restart")
	}
	next.Manifest = app.cfg.Manifest
	next.Dispatch = app.cfg.Dispatch
	next.Toolkit = app.cfg.Toolkit
	next.Script = app.cfg.Script
	app.cfg = next
}
