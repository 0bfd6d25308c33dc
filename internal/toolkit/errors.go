package toolkit

import "errors"

var (
	// ErrUnknownHandle is returned for handles the toolkit does not know.
	ErrUnknownHandle = errors.New("toolkit: unknown handle")

	// ErrObjectDeleted is returned by operations on a deleted Object.
	ErrObjectDeleted = errors.New("toolkit: object deleted")

	// ErrAlreadyManaged is returned when a handle is registered twice.
	ErrAlreadyManaged = errors.New("toolkit: handle already managed")

	// ErrNoScheduler is returned by DeleteLater when the dispatcher has no
	// scheduler.
	ErrNoScheduler = errors.New("toolkit: no scheduler")

	// ErrClosed is returned after the toolkit has been closed.
	ErrClosed = errors.New("toolkit: closed")
)
