// Package console defines the boundary between the syscall layer and the
// simulator's user-facing input/output surface.
package console

import (
	"context"
)

// InputRequest describes a single blocking request for a line of guest
// input, surfaced to whatever sits behind the console boundary.
type InputRequest struct {
	Title     string
	Initial   string
	Prompt    string
	MaxLength int
}

// Bridge is the console boundary consumed by the syscall handlers.
//
// Emit forwards guest output to the surrounding surface and always succeeds
// from the caller's point of view. RequestInput suspends the calling
// simulation thread until input arrives or ctx is canceled; implementations
// return the input already passed through [Terminate].
type Bridge interface {
	RequestInput(ctx context.Context, req InputRequest) (string, error)
	Emit(text string)
}

// Terminate truncates text to maxLength-1 bytes and appends the line
// terminator, matching what guest programs expect from a line read.
func Terminate(text string, maxLength int) string {
	if maxLength > 0 && len(text) > maxLength-1 {
		text = text[:maxLength-1]
	}

	return text + "\n"
}
