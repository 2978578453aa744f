// Package descriptor implements the bounded table mapping small guest file
// descriptors to open host resources.
package descriptor

import (
	"fmt"

	"github.com/simforge/guestio/internal/schema"
)

const (
	// MaxFiles is the fixed number of descriptor slots, reserved console
	// channels included.
	MaxFiles = 32

	// Stdin is the reserved guest input channel.
	Stdin = 0

	// Stdout is the reserved guest output channel.
	Stdout = 1

	// Stderr is the reserved guest error channel.
	Stderr = 2

	// reservedEnd is the first allocatable descriptor.
	reservedEnd = 3
)

// Entry describes a single open descriptor slot. Entries are owned
// exclusively by their [Table] and must not be retained across a release.
type Entry struct {
	FD    int
	Name  string
	Flags Flags
	File  schema.HostFile
}

// Channel reports whether the entry is one of the reserved console
// channels, which are never backed by a host resource.
func (e *Entry) Channel() bool {
	return e.FD < reservedEnd
}

// Table maps guest descriptors 0..MaxFiles-1 to open resources.
// Descriptors 0 through 2 are permanently reserved for the console channels.
// A Table is not safe for concurrent use; one simulator instance owns
// exactly one table.
type Table struct {
	entries [MaxFiles]*Entry
}

// NewTable returns a pointer to a new [Table] with the reserved console
// channels established.
func NewTable() *Table {
	t := &Table{}
	t.Reset()

	return t
}

// Reset releases every user entry, host resources included, and
// re-establishes the three reserved channels. It is idempotent and is
// invoked at simulator-reset boundaries.
func (t *Table) Reset() {
	for fd := reservedEnd; fd < MaxFiles; fd++ {
		t.Release(fd)
	}

	t.entries[Stdin] = &Entry{FD: Stdin, Name: "STDIN", Flags: FlagReadOnly}
	t.entries[Stdout] = &Entry{FD: Stdout, Name: "STDOUT", Flags: FlagWriteOnly}
	t.entries[Stderr] = &Entry{FD: Stderr, Name: "STDERR", Flags: FlagWriteOnly}
}

// Allocate reserves the lowest free non-reserved slot for name and records
// the requested flags. Allocation only reserves the slot; the host resource
// is attached later via [Table.Bind], and callers must roll back with
// [Table.Release] should opening the resource fail.
func (t *Table) Allocate(name string, flags Flags) (int, error) {
	if t.NameOpen(name) {
		return -1, fmt.Errorf("(descriptor) %q: %w", name, ErrNameAlreadyOpen)
	}

	for fd := reservedEnd; fd < MaxFiles; fd++ {
		if t.entries[fd] == nil {
			t.entries[fd] = &Entry{FD: fd, Name: name, Flags: flags}

			return fd, nil
		}
	}

	return -1, fmt.Errorf("(descriptor) %q: %w", name, ErrCapacityExceeded)
}

// Bind attaches an opened host resource to a previously allocated slot.
func (t *Table) Bind(fd int, file schema.HostFile) error {
	ent, ok := t.Lookup(fd)
	if !ok {
		return fmt.Errorf("(descriptor) fd %d: %w", fd, ErrNotAllocated)
	}

	ent.File = file

	return nil
}

// Release closes and discards the slot's host resource, if any, and frees
// the slot. Releasing a reserved or out-of-range descriptor is a silent
// no-op; legacy guest programs close descriptors unconditionally.
func (t *Table) Release(fd int) {
	if fd < reservedEnd || fd >= MaxFiles {
		return
	}

	ent := t.entries[fd]
	if ent == nil {
		return
	}

	if ent.File != nil {
		ent.File.Close() //nolint:errcheck
	}

	t.entries[fd] = nil
}

// Lookup returns the entry for fd, or false if fd is out of range or not
// currently allocated.
func (t *Table) Lookup(fd int) (*Entry, bool) {
	if fd < 0 || fd >= MaxFiles {
		return nil, false
	}

	if t.entries[fd] == nil {
		return nil, false
	}

	return t.entries[fd], true
}

// NameOpen reports whether name is currently open under any descriptor.
func (t *Table) NameOpen(name string) bool {
	for _, ent := range t.entries {
		if ent != nil && ent.Name == name {
			return true
		}
	}

	return false
}

// Readable reports whether fd is currently allocated with an access mode
// that permits reading.
func (t *Table) Readable(fd int) bool {
	ent, ok := t.Lookup(fd)

	return ok && ent.Flags.Readable()
}

// Writable reports whether fd is currently allocated with an access mode
// that permits writing.
func (t *Table) Writable(fd int) bool {
	ent, ok := t.Lookup(fd)

	return ok && ent.Flags.Writable()
}
