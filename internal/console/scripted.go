package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Scripted is a non-blocking [Bridge] for headless runs: input lines are
// served from a pre-loaded script and output is forwarded to a writer. An
// exhausted script serves empty input so automated runs never stall.
type Scripted struct {
	lines []string
	next  int
	out   io.Writer
}

// NewScripted returns a pointer to a new [Scripted] bridge serving the given
// input lines and emitting guest output to out. A nil out discards output.
func NewScripted(lines []string, out io.Writer) *Scripted {
	return &Scripted{
		lines: lines,
		out:   out,
	}
}

// LoadScript reads scripted input from r, one guest input per line.
func LoadScript(r io.Reader) ([]string, error) {
	var lines []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("(console) failed to read script: %w", err)
	}

	return lines, nil
}

// RequestInput implements [Bridge]. It never blocks; the next scripted line
// is consumed, or empty input is served when the script is exhausted.
func (s *Scripted) RequestInput(ctx context.Context, req InputRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("(console) %w", err)
	}

	var line string
	if s.next < len(s.lines) {
		line = s.lines[s.next]
		s.next++
	}

	return Terminate(line, req.MaxLength), nil
}

// Emit implements [Bridge].
func (s *Scripted) Emit(text string) {
	if s.out == nil {
		return
	}

	io.WriteString(s.out, text) //nolint:errcheck
}
