// Package toolkit is the boundary between the dispatch engine and a widget
// toolkit.
//
// The toolkit owns object handles and calls a single callback per handle
// with (handle, event kind, parameter). A Registry installs its Trampoline
// as that callback for every managed Object, resolves the handle through an
// explicit handle table, and turns toolkit events into signal emissions.
//
// # Cleanup
//
// When the toolkit destroys a handle it sends EventCleanup through the
// handle's current callback. The trampoline then, in order:
//
//  1. restores the callback the toolkit installed at creation,
//  2. forwards the cleanup to that original callback,
//  3. unregisters the Object, emits its Destroyed signal and releases its
//     signals.
//
// The Object stays registered until the original callback returns, so no
// callback can reach an unregistered Object.
package toolkit

import (
	"fmt"
	"strings"
)

// Handle is an opaque toolkit object handle. Zero means no object.
type Handle uint64

// EventKind classifies a toolkit event.
type EventKind int

const (
	EventNone EventKind = iota
	EventPressed
	EventReleased
	EventClicked
	EventKey
	EventFocused
	EventDefocused
	EventValueChanged
	EventResize
	// EventCleanup is sent once, when the toolkit destroys the handle.
	EventCleanup
)

var eventNames = [...]string{
	EventNone:         "none",
	EventPressed:      "pressed",
	EventReleased:     "released",
	EventClicked:      "clicked",
	EventKey:          "key",
	EventFocused:      "focused",
	EventDefocused:    "defocused",
	EventValueChanged: "value_changed",
	EventResize:       "resize",
	EventCleanup:      "cleanup",
}

// String returns the event kind name.
func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind parses an event kind name as returned by String.
func ParseEventKind(s string) (EventKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range eventNames {
		if name == s {
			return EventKind(k), true
		}
	}
	return EventNone, false
}

// Result is returned by callbacks.
type Result int

const (
	// ResultOK means the object is still valid.
	ResultOK Result = iota
	// ResultInvalid means the object was deleted while handling the event.
	ResultInvalid
)

// Callback is the per-handle function the toolkit calls for every event.
type Callback func(h Handle, kind EventKind, param any) Result

// Toolkit is the subset of a widget toolkit the engine depends on.
type Toolkit interface {
	// Create makes a new object under parent, or a root object when
	// parent is zero. The object starts with the toolkit's own callback.
	Create(parent Handle) (Handle, error)

	// Destroy deletes h and its children, children first. Each deleted
	// handle receives EventCleanup through its current callback.
	Destroy(h Handle) error

	// Callback returns the callback currently installed on h.
	Callback(h Handle) Callback

	// SetCallback replaces the callback installed on h.
	SetCallback(h Handle, cb Callback) error

	// Children returns the direct children of h.
	Children(h Handle) []Handle
}
