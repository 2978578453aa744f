package descriptor

import "os"

// Flags is the guest-visible open flag bitmask. The numeric values are part
// of the guest contract (they mirror the classic newlib constants) and must
// not be renumbered.
type Flags uint32

const (
	// FlagReadOnly requests read-only access.
	FlagReadOnly Flags = 0x0000

	// FlagWriteOnly requests write-only access.
	FlagWriteOnly Flags = 0x0001

	// FlagReadWrite requests combined read-write access.
	FlagReadWrite Flags = 0x0002

	// FlagAppend positions every write at the end of the resource.
	FlagAppend Flags = 0x0008

	// FlagCreate creates the resource if it does not exist.
	FlagCreate Flags = 0x0200

	// FlagTruncate discards existing contents on open.
	FlagTruncate Flags = 0x0400

	// FlagExclusive fails the open if the resource already exists.
	FlagExclusive Flags = 0x0800
)

// accessMask isolates the access mode bits of a flag set.
const accessMask = FlagWriteOnly | FlagReadWrite

// Readable reports whether the access mode permits reading.
func (f Flags) Readable() bool {
	mode := f & accessMask

	return mode == FlagReadOnly || mode == FlagReadWrite
}

// Writable reports whether the access mode permits writing.
func (f Flags) Writable() bool {
	mode := f & accessMask

	return mode == FlagWriteOnly || mode == FlagReadWrite
}

// HostFlags translates the guest flag bitmask into flags suitable for
// [os.OpenFile] on the host.
func (f Flags) HostFlags() int {
	var host int

	switch f & accessMask {
	case FlagWriteOnly:
		host = os.O_WRONLY
	case FlagReadWrite:
		host = os.O_RDWR
	default:
		host = os.O_RDONLY
	}

	if f&FlagAppend != 0 {
		host |= os.O_APPEND
	}

	if f&FlagCreate != 0 {
		host |= os.O_CREATE
	}

	if f&FlagTruncate != 0 {
		host |= os.O_TRUNC
	}

	if f&FlagExclusive != 0 {
		host |= os.O_EXCL
	}

	return host
}
