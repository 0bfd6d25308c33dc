// Package signal implements the signal/slot dispatch engine.
//
// A Signal is an emitter, a Slot wraps one callable, and a connection is the
// edge between them. Signals can also be connected to other Signals, in
// which case the receiving Signal re-emits whatever the sender emitted.
//
// # Ownership
//
// Every connection lives in the connection table of the Dispatcher that
// created its endpoints. Endpoints only hold ConnID values in their
// intrusive lists; the table is the single owner of each edge. Connect
// returns the ConnID to the caller as a handle that can be used to request
// disconnection and nothing else. Once an edge is severed its table slot
// is recycled with a new generation, so an old ConnID can never reach the
// new edge:
//
//	d := signal.NewDispatcher(s)
//	clicked := d.NewSignal("clicked")
//	log := d.NewSlot("log", func(sig *signal.Signal) {
//	    fmt.Println(sig.Name(), sig.Param())
//	})
//
//	id := clicked.Connect(log, signal.Immediate)
//	clicked.Emit(42)       // prints "clicked 42"
//	d.Disconnect(id)
//	d.Disconnect(id)       // stale handle, no-op
//
// Destroying either endpoint severs every edge that references it before
// Destroy returns.
//
// # Delivery
//
// Immediate connections run on the emitting call stack in subscription
// order. Deferred connections schedule a one-shot task on the Scheduler
// passed to NewDispatcher; the task captures the ConnID and the payload,
// and does nothing if the edge was severed before it fires.
//
// Emit walks a snapshot of the outgoing list. Edges severed by a callable
// during the walk are skipped; edges created during the walk are not
// invoked by that emission.
//
// Every delivery carries the payload of the emission that started it. A
// callable that emits its own sender again runs that nested emission to
// completion; the outer walk then resumes with its original payload.
// After all deliveries, Param reports the payload of the latest emission.
//
// # Cycles
//
// Connecting a Signal to itself is rejected. Longer cycles are bounded by
// the dispatcher's maximum emit depth (see WithMaxDepth); emissions past
// the limit are dropped and counted in Stats.
//
// # Errors
//
// Dispatch operations do not return errors. Nil endpoints, redundant
// disconnects and stale handles are silent no-ops; rejected connects
// return the zero ConnID and log a warning. Panics raised by slot
// callables are recovered and handed to the PanicHandler.
//
// # Thread Safety
//
// A Dispatcher and its endpoints belong to the goroutine that polls the
// Scheduler. Nothing in this package takes locks.
package signal
