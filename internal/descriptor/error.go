package descriptor

import "errors"

var (
	// ErrNameAlreadyOpen is an error that occurs when a file name is
	// requested for opening while it is already open under any descriptor.
	ErrNameAlreadyOpen = errors.New("file name is already open")

	// ErrCapacityExceeded is an error that occurs when no non-reserved
	// descriptor slot is free to satisfy an allocation.
	ErrCapacityExceeded = errors.New("maximum open file limit exceeded")

	// ErrNotAllocated is an error that occurs when a descriptor slot is
	// addressed that is not currently allocated.
	ErrNotAllocated = errors.New("descriptor is not allocated")
)
