package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/simforge/guestio/internal/configuration"
	"github.com/simforge/guestio/internal/syscalls"
	"github.com/simforge/guestio/internal/ui"
)

// App aggregates the wired subsystem parts for one runner invocation.
type App struct {
	cfg        *configuration.Config
	sysHandler *syscalls.Handler
	uiHandler  *ui.Handler
	tracePath  string
}

// NewApp returns a pointer to a new [App].
func NewApp(cfg *configuration.Config,
	sysHandler *syscalls.Handler,
	uiHandler *ui.Handler,
	tracePath string,
) *App {
	return &App{
		cfg:        cfg,
		sysHandler: sysHandler,
		uiHandler:  uiHandler,
		tracePath:  tracePath,
	}
}

// Launch replays the configured syscall trace against the subsystem and,
// when configured, emits artifact digests afterwards.
func (app *App) Launch(ctx context.Context) error {
	if app.tracePath == "" {
		slog.Info("No trace to replay, nothing to do.")

		return nil
	}

	f, err := os.Open(app.tracePath)
	if err != nil {
		return fmt.Errorf("(app) failed to open trace: %w", err)
	}
	defer f.Close()

	steps, err := parseTrace(f)
	if err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	if err := app.replay(ctx, steps); err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	if app.cfg.Digests {
		if err := app.emitDigests(); err != nil {
			return fmt.Errorf("(app) %w", err)
		}
	}

	return nil
}

// LaunchUI starts the interactive console (the [tea.Program]).
func (app *App) LaunchUI() error {
	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}
