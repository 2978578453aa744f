package main

import "errors"

var (
	// errUnknownOp occurs when a trace line names an operation the replay
	// does not implement.
	errUnknownOp = errors.New("unknown trace operation")

	// errBadArguments occurs when a trace operation carries malformed or
	// missing arguments.
	errBadArguments = errors.New("malformed trace arguments")

	// errUnknownFlag occurs when a symbolic open flag token is not part of
	// the guest flag contract.
	errUnknownFlag = errors.New("unknown open flag")

	// errUnknownWhence occurs when a seek whence argument is neither
	// symbolic nor numeric.
	errUnknownWhence = errors.New("unknown whence")

	// errUnsafePath occurs when a guest file name would escape the
	// sandbox directory.
	errUnsafePath = errors.New("unsafe path outside the sandbox")
)
