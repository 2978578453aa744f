package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/simforge/guestio/internal/configuration"
	"github.com/simforge/guestio/internal/console"
	"github.com/simforge/guestio/internal/descriptor"
	"github.com/simforge/guestio/internal/schema"
	"github.com/simforge/guestio/internal/syscalls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApp returns an app with a scripted console bridge and a temporary
// sandbox directory.
func newTestApp(t *testing.T, script []string) (*App, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := &configuration.Config{SandboxDir: dir}
	bridge := console.NewScripted(script, io.Discard)
	sysHandler := syscalls.NewHandler(descriptor.NewTable(), bridge, &schema.OS{}, &schema.Unix{})

	return NewApp(cfg, sysHandler, nil, ""), dir
}

// TestParseTrace verifies line splitting, quoting, comments and blank lines.
func TestParseTrace(t *testing.T) {
	t.Parallel()

	trace := `
# a comment line
open data.txt write|create

write 3 "hello world\n"
  close 3
`

	steps, err := parseTrace(strings.NewReader(trace))
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, "open", steps[0].op)
	assert.Equal(t, []string{"data.txt", "write|create"}, steps[0].args)
	assert.Equal(t, 3, steps[0].line)

	assert.Equal(t, "write", steps[1].op)
	assert.Equal(t, []string{"3", `hello world\n`}, steps[1].args)

	assert.Equal(t, "close", steps[2].op)
	assert.Equal(t, []string{"3"}, steps[2].args)
}

// TestParseFlags verifies symbolic and numeric flag arguments.
func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		arg     string
		want    descriptor.Flags
		wantErr error
	}{
		{"SymbolicRead", "read", descriptor.FlagReadOnly, nil},
		{"SymbolicCombined", "write|create|trunc", descriptor.FlagWriteOnly | descriptor.FlagCreate | descriptor.FlagTruncate, nil},
		{"SymbolicAppend", "write|append", descriptor.FlagWriteOnly | descriptor.FlagAppend, nil},
		{"SymbolicExclusive", "write|create|excl", descriptor.FlagWriteOnly | descriptor.FlagCreate | descriptor.FlagExclusive, nil},
		{"NumericHex", "0x601", descriptor.FlagWriteOnly | descriptor.FlagCreate | descriptor.FlagTruncate, nil},
		{"NumericDecimal", "2", descriptor.FlagReadWrite, nil},
		{"Unknown", "write|banana", 0, errUnknownFlag},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flags, err := parseFlags(tt.arg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, flags)
		})
	}
}

// TestParseWhence verifies symbolic and numeric whence arguments.
func TestParseWhence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		arg     string
		want    int
		wantErr error
	}{
		{"Set", "set", io.SeekStart, nil},
		{"Cur", "cur", io.SeekCurrent, nil},
		{"End", "END", io.SeekEnd, nil},
		{"Numeric", "1", io.SeekCurrent, nil},
		{"Unknown", "sideways", 0, errUnknownWhence},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			whence, err := parseWhence(tt.arg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, whence)
		})
	}
}

// TestUnescape verifies payload escape expansion.
func TestUnescape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\tb\n", unescape(`a\tb\n`))
	assert.Equal(t, "plain", unescape("plain"))
}

// TestResolvePath verifies sandbox containment of guest file names.
func TestResolvePath(t *testing.T) {
	t.Parallel()

	app, dir := newTestApp(t, nil)

	path, err := app.resolvePath("sub/data.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", "data.txt"), path)

	_, err = app.resolvePath("/etc/passwd")
	require.ErrorIs(t, err, errUnsafePath)

	_, err = app.resolvePath("../escape.txt")
	require.ErrorIs(t, err, errUnsafePath)
}

// TestReplay_RoundTrip verifies a full trace against the real subsystem,
// scripted console input included.
func TestReplay_RoundTrip(t *testing.T) {
	t.Parallel()

	app, dir := newTestApp(t, []string{"typed input"})

	trace := `
open data.txt write|create
write 3 "hello\n"
write 3 "world\n"
close 3
open data.txt read
seek 3 6 set
read 3 64
stat 3
close 3
read 0 64
write 1 "console out\n"
reset
`

	steps, err := parseTrace(strings.NewReader(trace))
	require.NoError(t, err)

	require.NoError(t, app.replay(context.Background(), steps))

	got, err := os.ReadFile(filepath.Join(dir, "data.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(got))
}

// TestReplay_GuestFailuresDoNotAbort verifies that failing guest operations
// are tolerated while malformed steps abort the replay.
func TestReplay_GuestFailuresDoNotAbort(t *testing.T) {
	t.Parallel()

	app, dir := newTestApp(t, nil)

	trace := `
open missing.txt read
write 25 "nobody home"
stat 25
`

	steps, err := parseTrace(strings.NewReader(trace))
	require.NoError(t, err)

	require.NoError(t, app.replay(context.Background(), steps))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	bad, err := parseTrace(strings.NewReader("open data.txt write|create extra-arg"))
	require.NoError(t, err)

	err = app.replay(context.Background(), bad)
	require.ErrorIs(t, err, errBadArguments)

	unknown, err := parseTrace(strings.NewReader("frobnicate 3"))
	require.NoError(t, err)

	err = app.replay(context.Background(), unknown)
	require.ErrorIs(t, err, errUnknownOp)
}

// TestLaunch verifies the end-to-end run from a trace file on disk,
// digest emission included.
func TestLaunch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &configuration.Config{SandboxDir: dir, Digests: true}
	bridge := console.NewScripted(nil, io.Discard)
	sysHandler := syscalls.NewHandler(descriptor.NewTable(), bridge, &schema.OS{}, &schema.Unix{})

	tracePath := filepath.Join(dir, "run.trace")
	trace := "open out.txt write|create\nwrite 3 \"artifact\"\nclose 3\n"
	require.NoError(t, os.WriteFile(tracePath, []byte(trace), 0o644))

	app := NewApp(cfg, sysHandler, nil, tracePath)

	require.NoError(t, app.Launch(context.Background()))

	got, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "artifact", string(got))
}

// TestLaunch_NoTrace verifies that a run without a trace is a no-op.
func TestLaunch_NoTrace(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t, nil)

	require.NoError(t, app.Launch(context.Background()))
}
