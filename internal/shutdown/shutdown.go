// Package shutdown runs a blocking task until it finishes or a termination
// signal arrives, then flushes pending work within a deadline.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

// FlushFunc completes pending background work, such as preference writes,
// before the process exits.
type FlushFunc func(ctx context.Context) error

// Run calls run with a context that is cancelled on SIGINT or SIGTERM. Once
// run has returned, or timeout after a signal if it hangs, flush is called
// with its own timeout. Run returns run's error; cancellation caused by the
// signal is not an error.
func Run(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	run func(ctx context.Context) error,
	flush FlushFunc,
) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runUntil(sigCtx, ctx, logger, timeout, run, flush)
}

// runUntil is Run with the stop context supplied by the caller. parent is
// the context run would have had without the signal; its cancellation is
// reported as run's error.
func runUntil(
	stopCtx, parent context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	run func(ctx context.Context) error,
	flush FlushFunc,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	runDone := make(chan error, 1)
	go func() {
		runDone <- run(stopCtx)
	}()

	var err error
	select {
	case err = <-runDone:
	case <-stopCtx.Done():
		if parent.Err() == nil {
			logger.Info("received signal, initiating shutdown")
		}
		select {
		case err = <-runDone:
		case <-time.After(timeout):
			logger.Warn("shutdown timeout exceeded waiting for run to return")
		}
		if parent.Err() == nil && errors.Is(err, context.Canceled) {
			err = nil
		}
	}

	if flush != nil {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
		defer cancel()
		if ferr := flush(flushCtx); ferr != nil {
			logger.Warn("flush did not complete", "error", ferr)
		}
	}

	logger.Debug("shutdown complete")
	return err
}
