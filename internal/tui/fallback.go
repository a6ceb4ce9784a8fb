package tui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// runSimple builds every diagram once and prints it as plain text. It is
// used when no terminal is attached. An interrupt cancels the scan.
func (t *TUI) runSimple(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	t.manager.Scan(ctx, t.containers)
	if err := ctx.Err(); err != nil {
		return nil
	}

	for i, d := range t.manager.Diagrams() {
		if i > 0 {
			fmt.Fprintln(t.out)
		}
		fmt.Fprintf(t.out, "== %s (%s)\n", d.Name(), d.State())
		if err := d.Err(); err != nil {
			fmt.Fprintf(t.out, "error: %v\n", err)
		}
		fmt.Fprintln(t.out, d.Text())
	}
	return nil
}
