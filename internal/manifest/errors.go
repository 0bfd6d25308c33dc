package manifest

import (
	"errors"
	"fmt"
)

// Errors returned by manifest validation and building.
var (
	// ErrMissingField indicates a required field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrDuplicateName indicates a name is declared twice.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnknownName indicates a reference to an undeclared name.
	ErrUnknownName = errors.New("unknown name")

	// ErrInvalidValue indicates a field holds a value outside its domain.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNoScheduler indicates timers or animations without a scheduler.
	ErrNoScheduler = errors.New("manifest needs a scheduler")

	// ErrNoToolkit indicates objects without a toolkit registry.
	ErrNoToolkit = errors.New("manifest needs a toolkit")

	// ErrClosed indicates an operation on a closed graph.
	ErrClosed = errors.New("graph is closed")
)

// Error locates a problem in a manifest entry.
type Error struct {
	// Section is the top-level key, such as "connections".
	Section string
	// Index is the position of the entry within its section.
	Index int
	// Name identifies the entry, when it has one.
	Name string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s[%d] %q: %v", e.Section, e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", e.Section, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func entryError(section string, index int, name string, err error, format string, args ...any) *Error {
	if format != "" {
		err = fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
	}
	return &Error{Section: section, Index: index, Name: name, Err: err}
}
