package app

import "errors"

var (
	// ErrQuit is returned by Step once a quit slot has fired.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("loop already running")

	// ErrShutdown is returned by Run and Step after Shutdown.
	ErrShutdown = errors.New("application is shut down")
)

// InitError reports which component failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
