// Package prefs reads and writes a diagram's saved preferences. The only
// preference is the absolute position of the job detail window.
package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"

	"github.com/npratt/statediagram/internal/source"
)

// Position is the saved top-left corner of the detail window.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type document struct {
	PositionAbsolute *Position `json:"position-absolute,omitempty"`
}

type update struct {
	Data   document `json:"data"`
	Verify string   `json:"_verify"`
}

// Store holds a diagram's preferences in memory and mirrors writes to the
// preferences endpoint when one is configured.
type Store struct {
	transport source.Transport
	uri       string
	token     string
	logger    *slog.Logger

	mu    sync.Mutex
	pos   Position
	saved bool
	wg    sync.WaitGroup
}

// New creates a store. An empty uri keeps preferences in memory only.
func New(transport source.Transport, uri, token string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		transport: transport,
		uri:       uri,
		token:     token,
		logger:    logger,
	}
}

// URI returns the preferences endpoint.
func (s *Store) URI() string {
	return s.uri
}

// Load reads the saved position from the endpoint. A response without a
// position leaves the current one unchanged.
func (s *Store) Load(ctx context.Context) (Position, bool, error) {
	if s.uri == "" {
		pos, ok := s.Position()
		return pos, ok, nil
	}

	body, err := s.transport.Get(ctx, s.uri)
	if err != nil {
		return Position{}, false, fmt.Errorf("load preferences: %w", err)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Position{}, false, fmt.Errorf("decode preferences: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.PositionAbsolute != nil {
		s.pos = *doc.PositionAbsolute
		s.saved = true
	}
	return s.pos, s.saved, nil
}

// Position returns the current position and whether one has been set.
func (s *Store) Position() (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.saved
}

// SetPosition records pos and, when an endpoint is configured, posts it in
// the background. Write failures are logged and otherwise ignored.
func (s *Store) SetPosition(ctx context.Context, pos Position) {
	s.mu.Lock()
	s.pos = pos
	s.saved = true
	s.mu.Unlock()

	if s.uri == "" {
		return
	}

	body := update{
		Data:   document{PositionAbsolute: &pos},
		Verify: s.token,
	}
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.transport.PostJSON(ctx, s.uri, body); err != nil {
			s.logger.Warn("save preferences failed", "uri", s.uri, "error", err)
			return
		}
		s.logger.Debug("saved preferences", "uri", s.uri, "x", pos.X, "y", pos.Y)
	}()
}

// Wait blocks until background writes have finished.
func (s *Store) Wait() {
	s.wg.Wait()
}
