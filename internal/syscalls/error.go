package syscalls

import "errors"

var (
	// ErrNotFound is an error that occurs when the open target does not
	// exist and creation was not requested.
	ErrNotFound = errors.New("file not found")

	// ErrCreateFailed is an error that occurs when creation was requested
	// but the host could not create the resource.
	ErrCreateFailed = errors.New("file could not be created")

	// ErrOpenFailed is an error that occurs when the resource exists but
	// cannot be opened (permissions, in use, exclusive-create collision).
	ErrOpenFailed = errors.New("file could not be opened")

	// ErrNotOpenForRead is an error that occurs when a descriptor is not
	// allocated with a readable access mode.
	ErrNotOpenForRead = errors.New("descriptor is not open for reading")

	// ErrNotOpenForWrite is an error that occurs when a descriptor is not
	// allocated with a writable access mode.
	ErrNotOpenForWrite = errors.New("descriptor is not open for writing")

	// ErrInvalidDescriptor is an error that occurs when an operation
	// addresses a descriptor that cannot serve it.
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrInvalidWhence is an error that occurs when a seek is requested
	// with an unknown reference point.
	ErrInvalidWhence = errors.New("invalid whence")

	// ErrNegativeOffset is an error that occurs when a seek would result
	// in a negative stream position.
	ErrNegativeOffset = errors.New("resulting offset is negative")

	// ErrNegativeLength is an error that occurs when a read is requested
	// with a negative length.
	ErrNegativeLength = errors.New("requested length is negative")

	// ErrInputCanceled is an error that occurs when a pending input
	// request is abandoned because the simulator is stopping.
	ErrInputCanceled = errors.New("input request canceled")
)
