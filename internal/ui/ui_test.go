package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simforge/guestio/internal/console"
)

// TestTeaUI is an integration test for the command-line user interface. A
// full guest input round trip is simulated: output emission, a raised input
// prompt, typed keys and the submitted reply.
func TestTeaUI(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handler := &Handler{doneChan: make(chan struct{})}
	model := NewTeaModel(handler, cancel)
	program := tea.NewProgram(model, tea.WithInput(&in), tea.WithOutput(&buf), tea.WithAltScreen(), tea.WithContext(ctx))

	handler.program = program
	handler.LogWriter = NewTeaLogWriter(handler.program)

	inputResult := make(chan string, 1)

	go func() {
		time.Sleep(100 * time.Millisecond)
		program.Send(tea.WindowSizeMsg{Width: 200, Height: 60})

		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				break
			}
			if handler.Failed.Load() {
				return
			}
		}

		handler.Emit("guest says hi\n")
		time.Sleep(time.Millisecond)

		program.Send(LogMsg("log1"))
		time.Sleep(time.Millisecond)

		_, _ = handler.LogWriter.Write([]byte("log2"))
		time.Sleep(time.Millisecond)

		go func() {
			text, err := handler.RequestInput(ctx, console.InputRequest{
				Title:     "stdin",
				Prompt:    "Enter string",
				MaxLength: 64,
			})
			if err != nil {
				inputResult <- "error: " + err.Error()

				return
			}
			inputResult <- text
		}()

		// Give the prompt time to surface before typing into it.
		time.Sleep(100 * time.Millisecond)
		program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
		time.Sleep(time.Millisecond)
		program.Send(tea.KeyMsg{Type: tea.KeyEnter})

		served := <-inputResult
		inputResult <- served

		time.Sleep(100 * time.Millisecond)
		program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	}()

	if err := handler.Launch(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}

	select {
	case text := <-inputResult:
		if text != "hi\n" {
			t.Fatalf("Expected %q, got %q", "hi\n", text)
		}
	default:
		t.Fatal("UI never served the input request")
	}

	if buf.Len() == 0 {
		t.Fatal("UI generated no output at all")
	}

	by := buf.Bytes()

	if !bytes.Contains(by, []byte("guest says hi")) {
		t.Fatal("UI did not show the emitted guest output")
	}

	if !bytes.Contains(by, []byte("log1")) {
		t.Fatal("UI did not show the first log message sent (via program.Send)")
	}

	if !bytes.Contains(by, []byte("log2")) {
		t.Fatal("UI did not show the second log message sent (via LogWriter)")
	}
}

// TestTeaUI_Ctrl_C is an integration test for the command-line user interface.
// A Ctrl+C keypress is simulated, which should trigger upstream Context
// cancellation for signalling application teardown.
func TestTeaUI_Ctrl_C(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handler := &Handler{doneChan: make(chan struct{})}

	model := NewTeaModel(handler, cancel)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithInput(&in), tea.WithOutput(&buf), tea.WithContext(ctx))

	handler.program = program
	handler.LogWriter = NewTeaLogWriter(handler.program)

	go func() {
		time.Sleep(100 * time.Millisecond)
		program.Send(tea.WindowSizeMsg{Width: 200, Height: 60})

		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				program.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

				return
			}
			if handler.Failed.Load() {
				return
			}
		}
	}()

	err := handler.Launch()

	if err == nil {
		t.Fatalf("Expected %v, got nil", context.Canceled)
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected %v, got %v", context.Canceled, err)
	}

	if buf.Len() == 0 {
		t.Fatal("UI generated no output at all")
	}
}

// TestTeaUI_InputAfterQuit verifies that an input request arriving after
// the user has quit the interface fails fast instead of stalling the
// calling simulation thread.
func TestTeaUI_InputAfterQuit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handler := &Handler{doneChan: make(chan struct{})}
	model := NewTeaModel(handler, cancel)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithInput(&in), tea.WithOutput(&buf), tea.WithContext(ctx))

	handler.program = program
	handler.LogWriter = NewTeaLogWriter(handler.program)

	go func() {
		time.Sleep(100 * time.Millisecond)
		program.Send(tea.WindowSizeMsg{Width: 200, Height: 60})

		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

				return
			}
			if handler.Failed.Load() {
				return
			}
		}
	}()

	if err := handler.Launch(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}

	_, err := handler.RequestInput(ctx, console.InputRequest{MaxLength: 64})
	if !errors.Is(err, ErrInterfaceClosed) {
		t.Fatalf("Expected %v, got %v", ErrInterfaceClosed, err)
	}
}

// TestTeaUI_RequestInput_Canceled verifies that a pending input request is
// released with an error when the surrounding context is canceled.
func TestTeaUI_RequestInput_Canceled(t *testing.T) {
	t.Parallel()

	handler := &Handler{doneChan: make(chan struct{})}
	handler.program = tea.NewProgram(NewTeaModel(handler, func() {}),
		tea.WithInput(&bytes.Buffer{}), tea.WithOutput(&bytes.Buffer{}), tea.WithoutRenderer())
	handler.LogWriter = NewTeaLogWriter(handler.program)
	defer handler.LogWriter.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.RequestInput(ctx, console.InputRequest{MaxLength: 64})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected %v, got %v", context.Canceled, err)
	}
}
