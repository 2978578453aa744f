package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/simforge/guestio/internal/configuration"
	"github.com/simforge/guestio/internal/console"
	"github.com/simforge/guestio/internal/descriptor"
	"github.com/simforge/guestio/internal/schema"
	"github.com/simforge/guestio/internal/syscalls"
	"github.com/simforge/guestio/internal/ui"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string

	configPath = flag.String("config", "guestio.env", "path to the runner configuration file")
	tracePath  = flag.String("trace", "", "syscall trace file to replay against the guest I/O subsystem")
	uiEnabled  = flag.Bool("ui", false, "enable the interactive console (overrides the configuration)")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func setupLogging() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}),
	))
}

func setupUILogging(uiHandler *ui.Handler) {
	slog.SetDefault(slog.New(
		tint.NewHandler(uiHandler.LogWriter, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			NoColor:    true,
		}),
	))
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()
}

func startApp(ctx context.Context, wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		slog.Info("Waiting for UI...")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if app.uiHandler.Ready.Load() || app.uiHandler.Failed.Load() {
				break
			}
		}
	}

	if err := app.Launch(ctx); err != nil {
		slog.Error("Run failure.", "err", err)
		ExitCode = 1
	}
}

func startUI(ctx context.Context, wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		defer setupLogging()
		setupUILogging(app.uiHandler)

		if err := app.LaunchUI(); err != nil {
			slog.Error("UI failure: falling back to terminal.", "err", err)
		}
	}
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag.Parse()
	setupLogging()
	setupSignalHandlers(cancel)

	cpuProfiler := newCPUProfiler(ctx, cpuprofile)
	defer cpuProfiler.Stop()

	allocProfiler := newAllocProfiler(ctx, memprofile)
	defer allocProfiler.Stop()

	osProvider := &schema.OS{}
	unixProvider := &schema.Unix{}

	configHandler := configuration.NewHandler(&configuration.GodotenvProvider{})

	cfg, err := configHandler.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load the runner configuration.",
			"err", err,
		)

		return
	}

	var bridge console.Bridge
	var uiHandler *ui.Handler

	if (uiEnabled != nil && *uiEnabled) || cfg.UI {
		uiHandler = ui.NewHandler(ctx, cancel)
		bridge = uiHandler
	} else {
		scripted, err := scriptedBridge(cfg)
		if err != nil {
			slog.Error("Failed to load the input script.",
				"err", err,
			)

			return
		}
		bridge = scripted
	}

	table := descriptor.NewTable()
	sysHandler := syscalls.NewHandler(table, bridge, osProvider, unixProvider)

	slog.Info("Established guest I/O subsystem.",
		"instance", sysHandler.Instance(),
		"sandbox", cfg.SandboxDir,
	)

	var wg sync.WaitGroup
	app := NewApp(cfg, sysHandler, uiHandler, *tracePath)

	wg.Add(1)
	go startUI(ctx, &wg, app)

	wg.Add(1)
	go startApp(ctx, &wg, app)

	wg.Wait()
}

// scriptedBridge builds the headless console bridge, with pre-scripted
// guest input when the configuration names a script file.
func scriptedBridge(cfg *configuration.Config) (*console.Scripted, error) {
	var lines []string

	if cfg.InputScript != "" {
		f, err := os.Open(cfg.InputScript)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		lines, err = console.LoadScript(f)
		if err != nil {
			return nil, err
		}
	}

	return console.NewScripted(lines, os.Stdout), nil
}
