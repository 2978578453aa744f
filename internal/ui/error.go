package ui

import "errors"

var (
	// ErrInterfaceClosed occurs when guest input is requested after the
	// user interface has already exited.
	ErrInterfaceClosed = errors.New("user interface is closed")
)
