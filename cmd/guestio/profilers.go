package main

import (
	"context"
	"log/slog"
	"os"
	"runtime/pprof"
)

// cpuProfiler streams a cpu profile to a file for the lifetime of a run.
// Construction starts the capture; [cpuProfiler.Stop] ends it and waits for
// the profile to be flushed.
type cpuProfiler struct {
	cancel   context.CancelFunc
	doneChan chan struct{}
}

func newCPUProfiler(ctx context.Context, path *string) *cpuProfiler {
	cprof := &cpuProfiler{
		doneChan: make(chan struct{}),
	}
	ctx, cprof.cancel = context.WithCancel(ctx)

	target := ""
	if path != nil {
		target = *path
	}

	go cprof.profile(ctx, target)

	return cprof
}

func (cprof *cpuProfiler) profile(ctx context.Context, path string) {
	defer close(cprof.doneChan)

	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		slog.Error("Could not create cpu profile", "err", err)

		return
	}
	defer f.Close()

	if err := pprof.StartCPUProfile(f); err != nil {
		slog.Error("Could not start cpu profile", "err", err)

		return
	}
	defer pprof.StopCPUProfile()

	<-ctx.Done()
}

func (cprof *cpuProfiler) Stop() {
	cprof.cancel()
	<-cprof.doneChan
}

// allocProfiler writes an allocation profile when the run ends. Unlike the
// cpu profile, nothing is captured until [allocProfiler.Stop] is called.
type allocProfiler struct {
	cancel   context.CancelFunc
	doneChan chan struct{}
}

func newAllocProfiler(ctx context.Context, path *string) *allocProfiler {
	aprof := &allocProfiler{
		doneChan: make(chan struct{}),
	}
	ctx, aprof.cancel = context.WithCancel(ctx)

	target := ""
	if path != nil {
		target = *path
	}

	go aprof.profile(ctx, target)

	return aprof
}

func (aprof *allocProfiler) profile(ctx context.Context, path string) {
	defer close(aprof.doneChan)

	if path == "" {
		return
	}

	<-ctx.Done()

	f, err := os.Create(path)
	if err != nil {
		slog.Error("Could not create allocs profile", "err", err)

		return
	}
	defer f.Close()

	if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
		slog.Error("Could not write allocs profile", "err", err)
	}
}

func (aprof *allocProfiler) Stop() {
	aprof.cancel()
	<-aprof.doneChan
}
