package config

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned by Load when the named file is missing.
	ErrFileNotFound = errors.New("config file not found")

	// ErrWatcherClosed is returned when closing a watcher twice.
	ErrWatcherClosed = errors.New("config watcher closed")
)

// ParseError is a TOML decoding failure. Line and Column are zero when
// the decoder could not locate the problem.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError names a setting whose value cannot be used, such as
// "loop.tick".
type ValidationError struct {
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}
