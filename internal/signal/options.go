package signal

import (
	"time"

	"github.com/dshills/slotwire/internal/logging"
)

// DefaultMaxDepth is the default limit on nested emissions.
const DefaultMaxDepth = 32

// DefaultDeferDelay is the default delay of deferred deliveries.
const DefaultDeferDelay = time.Millisecond

// PanicHandler is called when a slot callable panics.
type PanicHandler func(slot *Slot, sig *Signal, recovered any, stack []byte)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for warnings and recovered panics.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logging.OrNull(l).WithComponent("signal")
	}
}

// WithMaxDepth limits how deeply emissions may nest through
// signal-to-signal connections. Values below one are ignored.
func WithMaxDepth(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// WithDeferDelay sets the delay used for deferred deliveries. Negative
// values are treated as zero.
func WithDeferDelay(delay time.Duration) Option {
	return func(d *Dispatcher) {
		if delay < 0 {
			delay = 0
		}
		d.deferDelay = delay
	}
}

// WithPanicHandler replaces the default handler, which logs the panic.
func WithPanicHandler(h PanicHandler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.panicHandler = h
		}
	}
}
