package diagram

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/source"
)

// PollInterval is how often IsConstructing checks for a finished scan.
const PollInterval = 250 * time.Millisecond

// Manager binds containers to diagrams. A container is bound at most once.
type Manager struct {
	transport source.Transport
	logger    *slog.Logger
	opts      []Option

	mu       sync.Mutex
	diagrams map[string]*Diagram
	order    []string

	scanning atomic.Int32
}

// NewManager creates a manager whose diagrams share the given transport and
// options.
func NewManager(transport source.Transport, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		transport: transport,
		logger:    logger,
		opts:      append([]Option{WithLogger(logger)}, opts...),
		diagrams:  make(map[string]*Diagram),
	}
}

// Scan binds every container not yet bound to a new diagram and builds the
// new diagrams concurrently. Already bound containers are left alone. A
// failing diagram is logged and never affects the others. Scan returns the
// diagrams it created, in container order.
func (m *Manager) Scan(ctx context.Context, containers []config.ContainerConfig) []*Diagram {
	m.scanning.Add(1)
	defer m.scanning.Add(-1)

	var created []*Diagram
	m.mu.Lock()
	for _, c := range containers {
		key := c.Key()
		if _, ok := m.diagrams[key]; ok {
			continue
		}
		d := New(c, m.transport, m.opts...)
		m.diagrams[key] = d
		m.order = append(m.order, key)
		created = append(created, d)
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, d := range created {
		d := d
		g.Go(func() error {
			if err := d.Build(ctx); err != nil {
				m.logger.Warn("diagram build failed", "diagram", d.Name(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	m.logger.Debug("scan complete", "created", len(created), "bound", m.Len())
	return created
}

// Diagram returns the diagram bound to a container key.
func (m *Manager) Diagram(key string) *Diagram {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.diagrams[key]
}

// Diagrams returns every bound diagram in binding order.
func (m *Manager) Diagrams() []*Diagram {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Diagram, 0, len(m.order))
	for _, key := range m.order {
		result = append(result, m.diagrams[key])
	}
	return result
}

// Len returns the number of bound diagrams.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Constructing reports whether a scan is running or any diagram is still
// building.
func (m *Manager) Constructing() bool {
	if m.scanning.Load() > 0 {
		return true
	}
	for _, d := range m.Diagrams() {
		if d.Constructing() {
			return true
		}
	}
	return false
}

// IsConstructing polls every PollInterval and returns once nothing is under
// construction. It is advisory: a new scan may start right after it
// returns.
func (m *Manager) IsConstructing(ctx context.Context) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !m.Constructing() {
				return nil
			}
		}
	}
}

// Flush waits for every diagram's pending preference writes, or until ctx
// is done.
func (m *Manager) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, d := range m.Diagrams() {
			d.Prefs().Wait()
		}
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
