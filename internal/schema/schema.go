// Package schema holds the shared capability types and the concrete
// implementations wrapping host operating system calls.
package schema

import (
	"io"
)

// HostFile is the capability set required from an open host resource.
// It is satisfied by [os.File]; consumers never depend on more than this.
type HostFile interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	Sync() error
	Fd() uintptr
}
