// Package tui provides a terminal UI for browsing job state diagrams using
// bubbletea.
package tui

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/diagram"
)

// TUI is the terminal UI hosting one pane per diagram.
type TUI struct {
	manager    *diagram.Manager
	containers []config.ContainerConfig
	refresh    time.Duration
	onQuit     func()
	out        io.Writer
	forceTTY   bool
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a TUI that binds the given containers through manager.
func New(manager *diagram.Manager, containers []config.ContainerConfig, opts ...Option) *TUI {
	t := &TUI{
		manager:    manager,
		containers: containers,
		out:        os.Stdout,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithRefreshInterval sets how often live diagrams are rebuilt. Zero
// disables periodic refresh.
func WithRefreshInterval(d time.Duration) Option {
	return func(t *TUI) {
		t.refresh = d
	}
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithOutput sets where the non-interactive rendering is written.
func WithOutput(w io.Writer) Option {
	return func(t *TUI) {
		t.out = w
	}
}

// WithForceTTY runs the interactive program even when stdout is not a
// terminal.
func WithForceTTY(force bool) Option {
	return func(t *TUI) {
		t.forceTTY = force
	}
}

// Run starts the TUI and blocks until it exits. Without a terminal it
// renders every diagram once as text instead.
func (t *TUI) Run(ctx context.Context) error {
	if !t.forceTTY && !isTerminal() {
		return t.runSimple(ctx)
	}

	m := newModel(ctx, t.manager, t.containers, t.refresh, t.onQuit)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Quitting cancels ctx, which can stop the program before tea.Quit
		// is processed.
		return nil
	}
	return err
}
