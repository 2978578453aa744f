// Package syscalls implements the guest-visible file I/O syscalls on top of
// the descriptor table. Every fallible operation signals failure through a
// sentinel -1 return plus an updated [Reporter] message; no error values
// cross the guest boundary.
package syscalls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/simforge/guestio/internal/console"
	"github.com/simforge/guestio/internal/descriptor"
	"github.com/simforge/guestio/internal/schema"
	"golang.org/x/sys/unix"
)

const (
	// inputBufSize bounds a single guest input request, terminator
	// included.
	inputBufSize = 128

	// defaultPerms is the file mode for guest-created host files.
	defaultPerms = os.FileMode(0o644)
)

type osProvider interface {
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Stat(name string) (os.FileInfo, error)
}

type unixProvider interface {
	Fstat(fd int, stat *unix.Stat_t) error
}

// FileStat is the minimal status structure populated by [Handler.Stat].
// ABI-level layout is left to the dispatching layer.
type FileStat struct {
	Size    int64
	Channel bool
}

// Handler implements the guest file I/O syscalls for one simulator
// instance. It is driven exclusively by the instruction-simulation loop and
// is not safe for concurrent use; concurrently running simulators each own
// an independent Handler.
type Handler struct {
	Table  *descriptor.Table
	Errors *Reporter

	console console.Bridge
	osOps   osProvider
	unixOps unixProvider

	instance uuid.UUID
}

// NewHandler returns a pointer to a new syscall [Handler] owning the given
// descriptor table and console bridge.
func NewHandler(table *descriptor.Table, bridge console.Bridge, osOps osProvider, unixOps unixProvider) *Handler {
	return &Handler{
		Table:    table,
		Errors:   NewReporter(),
		console:  bridge,
		osOps:    osOps,
		unixOps:  unixOps,
		instance: uuid.New(),
	}
}

// Instance returns the unique identity of this handler instance.
func (h *Handler) Instance() uuid.UUID {
	return h.instance
}

// Reset discards all user descriptors, host resources included, and
// re-establishes the reserved console channels. Invoked at simulator-reset
// boundaries.
func (h *Handler) Reset() {
	h.Table.Reset()

	slog.Debug("Reset guest descriptor table.", "instance", h.instance)
}

// Open opens name for the guest with the given flag bitmask and returns the
// new descriptor, or -1 with the failure recorded in the reporter. Any
// failure past allocation releases the just-allocated slot again.
func (h *Handler) Open(name string, flags descriptor.Flags) int {
	fd, err := h.Table.Allocate(name, flags)
	if err != nil {
		if errors.Is(err, descriptor.ErrCapacityExceeded) {
			h.Errors.fail(descriptor.ErrCapacityExceeded,
				"file name %s exceeds maximum open file limit of %d", name, descriptor.MaxFiles)
		} else {
			h.Errors.fail(descriptor.ErrNameAlreadyOpen,
				"file name %s is already open", name)
		}

		return -1
	}

	file, err := h.openHost(name, flags)
	if err != nil {
		h.Table.Release(fd)

		return -1
	}

	if err := h.Table.Bind(fd, file); err != nil {
		file.Close() //nolint:errcheck
		h.Table.Release(fd)
		h.Errors.fail(ErrOpenFailed, "file %s could not be opened", name)

		return -1
	}

	h.Errors.ok()

	slog.Debug("Opened guest file.",
		"instance", h.instance,
		"fd", fd,
		"name", name,
		"flags", fmt.Sprintf("%#x", uint32(flags)),
	)

	return fd
}

// openHost attempts the host-side open, converting host failures into the
// guest-visible error kinds at this boundary.
func (h *Handler) openHost(name string, flags descriptor.Flags) (schema.HostFile, error) {
	exists := true

	if _, err := h.osOps.Stat(name); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.Errors.fail(ErrOpenFailed, "file %s could not be opened", name)

			return nil, fmt.Errorf("(syscalls) %w: %w", ErrOpenFailed, err)
		}

		exists = false
	}

	if !exists && flags&descriptor.FlagCreate == 0 {
		h.Errors.fail(ErrNotFound, "file %s was not found", name)

		return nil, fmt.Errorf("(syscalls) %s: %w", name, ErrNotFound)
	}

	file, err := h.osOps.OpenFile(name, flags.HostFlags(), defaultPerms)
	if err != nil {
		if !exists {
			h.Errors.fail(ErrCreateFailed, "file %s could not be created", name)

			return nil, fmt.Errorf("(syscalls) %w: %w", ErrCreateFailed, err)
		}

		h.Errors.fail(ErrOpenFailed, "file %s could not be opened", name)

		return nil, fmt.Errorf("(syscalls) %w: %w", ErrOpenFailed, err)
	}

	return file, nil
}

// Read services a guest read of up to length bytes from fd and returns the
// data with its byte count, or nil and -1 on failure. Reads from the
// reserved input channel route through the console bridge and never touch
// the host filesystem; a zero count on an ordinary descriptor signals end
// of data. The length is guest-controlled and is validated before any
// buffer is sized from it.
func (h *Handler) Read(ctx context.Context, fd int, length int) ([]byte, int) {
	if length < 0 {
		h.Errors.fail(ErrNegativeLength, "read length %d on descriptor %d is negative", length, fd)

		return nil, -1
	}

	if length == 0 {
		return []byte{}, 0
	}

	if fd == descriptor.Stdin {
		return h.readConsole(ctx, length)
	}

	if !h.Table.Readable(fd) {
		h.Errors.fail(ErrNotOpenForRead, "file descriptor %d is not open for reading", fd)

		return nil, -1
	}

	ent, _ := h.Table.Lookup(fd)
	if ent.File == nil {
		h.Errors.fail(ErrNotOpenForRead, "file descriptor %d is not open for reading", fd)

		return nil, -1
	}

	buf := make([]byte, length)

	n, err := ent.File.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		h.Errors.fail(fmt.Errorf("(syscalls) %w", err), "file descriptor %d could not be read", fd)

		return nil, -1
	}

	return buf[:n], n
}

// readConsole satisfies a read on the reserved input channel by suspending
// on the console bridge. The returned data is the entered text truncated to
// the buffer limit and newline-terminated, so the byte count may exceed the
// raw text length by one.
func (h *Handler) readConsole(ctx context.Context, length int) ([]byte, int) {
	req := console.InputRequest{
		Title:     "stdin",
		Prompt:    "Enter string",
		MaxLength: min(length, inputBufSize),
	}

	text, err := h.console.RequestInput(ctx, req)
	if err != nil {
		h.Errors.fail(ErrInputCanceled, "input request on descriptor %d was canceled", descriptor.Stdin)

		return nil, -1
	}

	data := []byte(text)

	return data, len(data)
}

// Write services a guest write of data to fd and returns the number of
// bytes requested, or -1 on failure. Writes to the reserved output and
// error channels are forwarded to the console bridge and always report the
// full requested length, regardless of any downstream console failure.
func (h *Handler) Write(fd int, data []byte) int {
	if fd == descriptor.Stdout || fd == descriptor.Stderr {
		h.console.Emit(string(data))

		return len(data)
	}

	if !h.Table.Writable(fd) {
		h.Errors.fail(ErrNotOpenForWrite, "file descriptor %d is not open for writing", fd)

		return -1
	}

	ent, _ := h.Table.Lookup(fd)

	if _, err := ent.File.Write(data); err != nil {
		h.Errors.fail(fmt.Errorf("(syscalls) %w", err), "file descriptor %d could not be written", fd)

		return -1
	}

	// No buffering survives the call.
	if err := ent.File.Sync(); err != nil {
		h.Errors.fail(fmt.Errorf("(syscalls) %w", err), "file descriptor %d could not be flushed", fd)

		return -1
	}

	return len(data)
}

// Seek repositions the stream of fd and returns the new position, or -1 on
// failure. Whence follows POSIX semantics: [io.SeekStart] measures from the
// start, [io.SeekCurrent] adds to the current position, [io.SeekEnd] adds
// to the resource's current size.
func (h *Handler) Seek(fd int, offset int64, whence int) int64 {
	if whence != io.SeekStart && whence != io.SeekCurrent && whence != io.SeekEnd {
		h.Errors.fail(ErrInvalidWhence, "invalid whence %d for seek on descriptor %d", whence, fd)

		return -1
	}

	if !h.Table.Readable(fd) {
		h.Errors.fail(ErrNotOpenForRead, "file descriptor %d is not open for reading", fd)

		return -1
	}

	ent, _ := h.Table.Lookup(fd)
	if ent.Channel() || ent.File == nil {
		h.Errors.fail(ErrInvalidDescriptor, "file descriptor %d is not seekable", fd)

		return -1
	}

	target := offset

	switch whence {
	case io.SeekCurrent:
		cur, err := ent.File.Seek(0, io.SeekCurrent)
		if err != nil {
			h.Errors.fail(fmt.Errorf("(syscalls) %w", err), "file descriptor %d could not be positioned", fd)

			return -1
		}

		target += cur

	case io.SeekEnd:
		var st unix.Stat_t
		if err := h.unixOps.Fstat(int(ent.File.Fd()), &st); err != nil {
			h.Errors.fail(fmt.Errorf("(syscalls) %w", err), "file descriptor %d could not be positioned", fd)

			return -1
		}

		target += st.Size
	}

	if target < 0 {
		h.Errors.fail(ErrNegativeOffset, "offset %d is before the start of descriptor %d", target, fd)

		return -1
	}

	pos, err := ent.File.Seek(target, io.SeekStart)
	if err != nil {
		h.Errors.fail(fmt.Errorf("(syscalls) %w", err), "file descriptor %d could not be positioned", fd)

		return -1
	}

	return pos
}

// Close releases fd. It never fails and reports no error; closing a
// reserved or unknown descriptor is a deliberate no-op.
func (h *Handler) Close(fd int) {
	h.Table.Release(fd)
}

// Stat populates the minimal status structure for fd and returns it with 0,
// or the zero structure with -1 on failure. Reserved channels report only
// their channel nature; for ordinary descriptors the size is taken from the
// host resource.
func (h *Handler) Stat(fd int) (FileStat, int) {
	ent, ok := h.Table.Lookup(fd)
	if !ok {
		h.Errors.fail(ErrInvalidDescriptor, "file descriptor %d is not open", fd)

		return FileStat{}, -1
	}

	if ent.Channel() {
		return FileStat{Channel: true}, 0
	}

	var st unix.Stat_t
	if err := h.unixOps.Fstat(int(ent.File.Fd()), &st); err != nil {
		h.Errors.fail(fmt.Errorf("(syscalls) %w", err), "file descriptor %d could not be inspected", fd)

		return FileStat{}, -1
	}

	return FileStat{Size: st.Size}, 0
}
