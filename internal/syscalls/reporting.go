package syscalls

import "fmt"

// okMessage is the reporter state after a successful allocation.
const okMessage = "file operation OK"

// Reporter holds the most recent human-readable failure description of the
// syscall layer. It is overwritten by every failing operation and cleared
// back to the OK message by every successful allocation. Guest-visible code
// treats the message as diagnostic only, never as a control signal.
//
// A Reporter is not safe for concurrent use; it reflects only the last call
// on its owning [Handler].
type Reporter struct {
	msg string
	err error
}

// NewReporter returns a pointer to a new [Reporter] in the OK state.
func NewReporter() *Reporter {
	return &Reporter{msg: okMessage}
}

// fail records a failing operation: err carries the error kind for
// programmatic inspection, the formatted message is the guest-facing
// description.
func (r *Reporter) fail(err error, format string, args ...any) {
	r.err = err
	r.msg = fmt.Sprintf(format, args...)
}

// ok clears the reporter back to the OK state.
func (r *Reporter) ok() {
	r.err = nil
	r.msg = okMessage
}

// Last returns the most recent operation description.
func (r *Reporter) Last() string {
	return r.msg
}

// LastErr returns the error kind of the most recent failure, or nil when
// the last recorded operation succeeded.
func (r *Reporter) LastErr() error {
	return r.err
}
