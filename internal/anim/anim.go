// Package anim drives value tweens from the cooperative scheduler and
// publishes their progress as signals.
//
// An Animation owns a periodic scheduler task. Every step advances a gween
// tween by the time elapsed since the previous step and emits the current
// value on the Value signal. When the last repetition completes, Finished
// is emitted once with the end value and the task deletes itself.
//
//	a := anim.New(s, d, 0, 100, time.Second, ease.OutCubic)
//	a.Value().Connect(slot, signal.Immediate)
//	a.Start()
package anim

import (
	"strings"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/dshills/slotwire/internal/sched"
	"github.com/dshills/slotwire/internal/signal"
)

// DefaultStep is the default interval between animation steps.
const DefaultStep = 16 * time.Millisecond

// Animation tweens a float64 from one value to another.
type Animation struct {
	s    *sched.Scheduler
	name string

	from, to float64
	duration time.Duration
	easing   ease.TweenFunc
	step     time.Duration
	repeat   int
	played   int

	tween   *gween.Tween
	task    *sched.Task
	last    time.Time
	current float64

	value    *signal.Signal
	finished *signal.Signal
}

// Option configures an Animation.
type Option func(*Animation)

// WithStep sets the interval between steps.
func WithStep(step time.Duration) Option {
	return func(a *Animation) {
		if step > 0 {
			a.step = step
		}
	}
}

// WithRepeat sets how many times the tween plays before Finished fires.
// Negative values repeat forever.
func WithRepeat(n int) Option {
	return func(a *Animation) {
		a.repeat = n
	}
}

// WithName sets the prefix of the signal names. The default is "anim",
// giving "anim.value" and "anim.finished".
func WithName(name string) Option {
	return func(a *Animation) {
		if name != "" {
			a.name = name
		}
	}
}

// New creates a stopped animation from -> to over duration. A nil easing
// means ease.Linear.
func New(s *sched.Scheduler, d *signal.Dispatcher, from, to float64, duration time.Duration, easing ease.TweenFunc, opts ...Option) *Animation {
	if easing == nil {
		easing = ease.Linear
	}
	a := &Animation{
		s:        s,
		name:     "anim",
		from:     from,
		to:       to,
		duration: duration,
		easing:   easing,
		step:     DefaultStep,
		repeat:   1,
		current:  from,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.value = d.NewSignal(a.name + ".value")
	a.finished = d.NewSignal(a.name + ".finished")
	return a
}

// Value is emitted with the current float64 value on every step.
func (a *Animation) Value() *signal.Signal {
	return a.value
}

// Finished is emitted with the end value once all repetitions are done.
func (a *Animation) Finished() *signal.Signal {
	return a.finished
}

// Current returns the most recent value.
func (a *Animation) Current() float64 {
	return a.current
}

// Running reports whether the animation is scheduled.
func (a *Animation) Running() bool {
	return a.task != nil && a.task.IsRunning()
}

// Start plays the animation from the beginning, restarting it if it is
// already running.
func (a *Animation) Start() {
	a.Stop()
	a.tween = gween.New(float32(a.from), float32(a.to), float32(a.duration.Seconds()), a.easing)
	a.played = 0
	a.current = a.from
	a.last = a.s.Now()

	a.task = a.s.NewTask(a.step, sched.PriorityHigh, a.tick)
	a.task.SetDeleteAfterStop(true)
	a.task.Start()
}

// Stop cancels the animation without emitting Finished.
func (a *Animation) Stop() {
	if a.task != nil {
		a.task.Delete()
		a.task = nil
	}
}

// Destroy stops the animation and releases its signals.
func (a *Animation) Destroy() {
	a.Stop()
	a.value.Destroy()
	a.finished.Destroy()
}

func (a *Animation) tick() {
	now := a.s.Now()
	dt := now.Sub(a.last)
	a.last = now

	v, done := a.tween.Update(float32(dt.Seconds()))
	a.current = float64(v)
	if done {
		a.current = a.to
	}
	a.value.Emit(a.current)
	if !done || a.task == nil {
		return
	}

	a.played++
	if a.repeat < 0 || a.played < a.repeat {
		a.tween.Reset()
		return
	}
	task := a.task
	a.task = nil
	task.Stop()
	a.finished.Emit(a.to)
}

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inquad":       ease.InQuad,
	"outquad":      ease.OutQuad,
	"inoutquad":    ease.InOutQuad,
	"incubic":      ease.InCubic,
	"outcubic":     ease.OutCubic,
	"inoutcubic":   ease.InOutCubic,
	"insine":       ease.InSine,
	"outsine":      ease.OutSine,
	"inoutsine":    ease.InOutSine,
	"outbounce":    ease.OutBounce,
	"outelastic":   ease.OutElastic,
	"inoutelastic": ease.InOutElastic,
}

// ParseEasing returns the easing function named s, such as "linear" or
// "out_cubic". Case, dashes and underscores are ignored.
func ParseEasing(s string) (ease.TweenFunc, bool) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
	if key == "" {
		return ease.Linear, true
	}
	fn, ok := easings[key]
	return fn, ok
}
