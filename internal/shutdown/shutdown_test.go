package shutdown

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunUntil_RunReturnsThenFlushes(t *testing.T) {
	parent := context.Background()
	runErr := errors.New("boom")
	flushed := false

	err := runUntil(parent, parent, discardLogger(), time.Second,
		func(ctx context.Context) error { return runErr },
		func(ctx context.Context) error {
			flushed = true
			if _, ok := ctx.Deadline(); !ok {
				t.Error("flush context has no deadline")
			}
			return nil
		},
	)

	if !errors.Is(err, runErr) {
		t.Errorf("err = %v, want %v", err, runErr)
	}
	if !flushed {
		t.Error("flush was not called")
	}
}

func TestRunUntil_StopCancelsRun(t *testing.T) {
	parent := context.Background()
	stopCtx, stop := context.WithCancel(parent)
	started := make(chan struct{})

	go func() {
		<-started
		stop()
	}()

	var flushErr error
	err := runUntil(stopCtx, parent, discardLogger(), time.Second,
		func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
		func(ctx context.Context) error {
			flushErr = ctx.Err()
			return nil
		},
	)

	if err != nil {
		t.Errorf("err = %v, want nil after a stop", err)
	}
	if flushErr != nil {
		t.Errorf("flush context already done: %v", flushErr)
	}
}

func TestRunUntil_ParentCancellationIsReported(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	err := runUntil(parent, parent, discardLogger(), time.Second,
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		nil,
	)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunUntil_HungRunTimesOut(t *testing.T) {
	parent := context.Background()
	stopCtx, stop := context.WithCancel(parent)
	stop()

	hang := make(chan struct{})
	defer close(hang)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	start := time.Now()
	flushed := false
	err := runUntil(stopCtx, parent, logger, 50*time.Millisecond,
		func(ctx context.Context) error {
			<-hang
			return nil
		},
		func(ctx context.Context) error {
			flushed = true
			return nil
		},
	)

	if err != nil {
		t.Errorf("err = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("runUntil took %v with a 50ms timeout", elapsed)
	}
	if !flushed {
		t.Error("flush should run even when run hangs")
	}
	if !strings.Contains(buf.String(), "shutdown timeout exceeded") {
		t.Errorf("log missing timeout warning: %s", buf.String())
	}
}

func TestRunUntil_FlushErrorIsLogged(t *testing.T) {
	parent := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := runUntil(parent, parent, logger, time.Second,
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("prefs endpoint down") },
	)

	if err != nil {
		t.Errorf("flush failure should not fail the run: %v", err)
	}
	if !strings.Contains(buf.String(), "prefs endpoint down") {
		t.Errorf("log missing flush error: %s", buf.String())
	}
}

func TestRun_NilFlushAndLogger(t *testing.T) {
	err := Run(context.Background(), nil, time.Second,
		func(ctx context.Context) error { return nil },
		nil,
	)
	if err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
