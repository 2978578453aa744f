// Package ui implements the interactive console bridge as a command-line
// user interface using [tea]. Guest output is rendered into a console pane
// and guest input requests surface as a modal prompt.
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simforge/guestio/internal/console"
)

// Handler is the principal implementation of a user interface [Handler].
// It satisfies [console.Bridge], making the interface the console boundary
// of the simulator instance it serves.
type Handler struct {
	program  *tea.Program
	doneChan chan struct{}

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler].
func NewHandler(ctx context.Context, cancel context.CancelFunc) *Handler {
	handler := &Handler{
		doneChan: make(chan struct{}),
	}

	model := NewTeaModel(handler, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]). When
// it returns, the interface is gone for good and pending or later input
// requests are released with [ErrInterfaceClosed].
func (uiHandler *Handler) Launch() error {
	defer close(uiHandler.doneChan)
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}

// Emit implements [console.Bridge]. Guest output is forwarded into the
// console pane; from the caller's point of view this always succeeds.
func (uiHandler *Handler) Emit(text string) {
	uiHandler.program.Send(OutputMsg(text))
}

// RequestInput implements [console.Bridge]. A modal prompt is raised in the
// interface and the calling simulation thread is suspended until the human
// submits a line or ctx is canceled (simulator stop). A request against an
// interface the user has already quit fails instead of stalling the caller;
// a finished [tea.Program] drops sent messages without replying.
func (uiHandler *Handler) RequestInput(ctx context.Context, req console.InputRequest) (string, error) {
	select {
	case <-uiHandler.doneChan:
		return "", fmt.Errorf("(ui) %w", ErrInterfaceClosed)
	default:
	}

	reply := make(chan string, 1)

	uiHandler.program.Send(PromptMsg{Request: req, Reply: reply})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("(ui) %w", ctx.Err())
	case <-uiHandler.doneChan:
		return "", fmt.Errorf("(ui) %w", ErrInterfaceClosed)
	case text := <-reply:
		return console.Terminate(text, req.MaxLength), nil
	}
}
