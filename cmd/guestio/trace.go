package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/simforge/guestio/internal/descriptor"
)

// traceStep is one parsed line of a syscall trace.
type traceStep struct {
	op   string
	args []string
	line int
}

// parseTrace reads a line-oriented syscall trace from r. Lines are split
// with shell-style quoting so file names and payloads may contain spaces;
// empty lines and #-comments are skipped.
func parseTrace(r io.Reader) ([]traceStep, error) {
	var steps []traceStep

	line := 0

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++

		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields, err := shlex.Split(text, true)
		if err != nil {
			return nil, fmt.Errorf("(trace) line %d: %w", line, err)
		}

		if len(fields) == 0 {
			continue
		}

		steps = append(steps, traceStep{op: fields[0], args: fields[1:], line: line})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("(trace) failed to read trace: %w", err)
	}

	return steps, nil
}

// parseFlags interprets an open flag argument: either a numeric bitmask
// (the raw guest contract values) or symbolic tokens joined with '|'.
func parseFlags(arg string) (descriptor.Flags, error) {
	if v, err := strconv.ParseUint(arg, 0, 32); err == nil {
		return descriptor.Flags(v), nil
	}

	var flags descriptor.Flags

	for _, tok := range strings.Split(arg, "|") {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "read":
			flags |= descriptor.FlagReadOnly
		case "write":
			flags |= descriptor.FlagWriteOnly
		case "rdwr":
			flags |= descriptor.FlagReadWrite
		case "append":
			flags |= descriptor.FlagAppend
		case "create":
			flags |= descriptor.FlagCreate
		case "trunc":
			flags |= descriptor.FlagTruncate
		case "excl":
			flags |= descriptor.FlagExclusive
		default:
			return 0, fmt.Errorf("(trace) %q: %w", tok, errUnknownFlag)
		}
	}

	return flags, nil
}

// parseWhence interprets a seek whence argument: set, cur, end or the raw
// numeric value.
func parseWhence(arg string) (int, error) {
	switch strings.ToLower(arg) {
	case "set":
		return io.SeekStart, nil
	case "cur":
		return io.SeekCurrent, nil
	case "end":
		return io.SeekEnd, nil
	}

	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("(trace) %q: %w", arg, errUnknownWhence)
	}

	return v, nil
}

// unescape expands the escape sequences trace payloads may carry.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")

	return s
}

// resolvePath resolves a guest file name inside the sandbox directory.
// Absolute paths and upward traversal are rejected so a trace cannot reach
// outside the sandbox.
func (app *App) resolvePath(name string) (string, error) {
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("(trace) %q: %w", name, errUnsafePath)
	}

	return filepath.Join(app.cfg.SandboxDir, name), nil
}

// replay executes the trace steps in order against the syscall handlers.
// Failing guest operations are logged with the reporter's description and
// do not abort the replay; malformed steps do.
func (app *App) replay(ctx context.Context, steps []traceStep) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("(trace) %w", err)
		}

		if err := app.step(ctx, step); err != nil {
			return fmt.Errorf("(trace) line %d: %w", step.line, err)
		}
	}

	return nil
}

//nolint:funlen,cyclop
func (app *App) step(ctx context.Context, step traceStep) error {
	h := app.sysHandler

	switch step.op {
	case "open":
		if len(step.args) != 2 {
			return fmt.Errorf("open: %w", errBadArguments)
		}

		flags, err := parseFlags(step.args[1])
		if err != nil {
			return err
		}

		path, err := app.resolvePath(step.args[0])
		if err != nil {
			return err
		}

		fd := h.Open(path, flags)
		if fd < 0 {
			slog.Warn("Guest open failed.", "name", step.args[0], "reason", h.Errors.Last())
		} else {
			slog.Info("Guest open.", "name", step.args[0], "fd", fd)
		}

	case "read":
		fd, length, err := fdAndCount(step.args)
		if err != nil {
			return err
		}

		data, n := h.Read(ctx, fd, length)
		if n < 0 {
			slog.Warn("Guest read failed.", "fd", fd, "reason", h.Errors.Last())
		} else {
			slog.Info("Guest read.", "fd", fd, "n", n, "data", fmt.Sprintf("%q", data))
		}

	case "write":
		if len(step.args) != 2 {
			return fmt.Errorf("write: %w", errBadArguments)
		}

		fd, err := strconv.Atoi(step.args[0])
		if err != nil {
			return fmt.Errorf("write: %w", errBadArguments)
		}

		n := h.Write(fd, []byte(unescape(step.args[1])))
		if n < 0 {
			slog.Warn("Guest write failed.", "fd", fd, "reason", h.Errors.Last())
		} else {
			slog.Info("Guest write.", "fd", fd, "n", n)
		}

	case "seek":
		if len(step.args) != 3 {
			return fmt.Errorf("seek: %w", errBadArguments)
		}

		fd, err := strconv.Atoi(step.args[0])
		if err != nil {
			return fmt.Errorf("seek: %w", errBadArguments)
		}

		offset, err := strconv.ParseInt(step.args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("seek: %w", errBadArguments)
		}

		whence, err := parseWhence(step.args[2])
		if err != nil {
			return err
		}

		pos := h.Seek(fd, offset, whence)
		if pos < 0 {
			slog.Warn("Guest seek failed.", "fd", fd, "reason", h.Errors.Last())
		} else {
			slog.Info("Guest seek.", "fd", fd, "pos", pos)
		}

	case "close":
		if len(step.args) != 1 {
			return fmt.Errorf("close: %w", errBadArguments)
		}

		fd, err := strconv.Atoi(step.args[0])
		if err != nil {
			return fmt.Errorf("close: %w", errBadArguments)
		}

		h.Close(fd)
		slog.Info("Guest close.", "fd", fd)

	case "stat":
		if len(step.args) != 1 {
			return fmt.Errorf("stat: %w", errBadArguments)
		}

		fd, err := strconv.Atoi(step.args[0])
		if err != nil {
			return fmt.Errorf("stat: %w", errBadArguments)
		}

		st, ret := h.Stat(fd)
		if ret < 0 {
			slog.Warn("Guest stat failed.", "fd", fd, "reason", h.Errors.Last())
		} else {
			slog.Info("Guest stat.", "fd", fd, "size", st.Size, "channel", st.Channel)
		}

	case "reset":
		h.Reset()

	default:
		return fmt.Errorf("%q: %w", step.op, errUnknownOp)
	}

	return nil
}

// fdAndCount parses the common "<fd> <count>" argument pair.
func fdAndCount(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errBadArguments
	}

	fd, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, errBadArguments
	}

	count, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, errBadArguments
	}

	return fd, count, nil
}
