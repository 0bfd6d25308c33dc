package script

import "errors"

// Errors for script operations.
var (
	// ErrClosed is returned when operating on a closed engine.
	ErrClosed = errors.New("script engine is closed")

	// ErrTimeout is returned when a call runs past the execution timeout.
	ErrTimeout = errors.New("script execution timeout")

	// ErrCallLimit is returned when a call makes more host calls than allowed.
	ErrCallLimit = errors.New("script host call limit exceeded")

	// ErrNoHandler is returned when a slot script does not define on_signal.
	ErrNoHandler = errors.New("script does not define " + HandlerName)

	// ErrUnknownSignal is raised by emit for a name the resolver does not know.
	ErrUnknownSignal = errors.New("unknown signal")
)
