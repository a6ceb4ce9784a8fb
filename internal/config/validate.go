package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingDataURI is returned for a container without a data-uri.
var ErrMissingDataURI = errors.New("container has no data-uri")

// Validate checks the loaded configuration.
func Validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Containers))
	for i, c := range cfg.Containers {
		if c.DataURI == "" {
			return fmt.Errorf("containers[%d] %q: %w", i, c.Name, ErrMissingDataURI)
		}
		if seen[c.Key()] {
			return fmt.Errorf("containers[%d]: duplicate container %q", i, c.Key())
		}
		seen[c.Key()] = true
		if c.DOMWait < 0 {
			return fmt.Errorf("containers[%d] %q: negative dom-wait %v", i, c.Key(), c.DOMWait)
		}
	}

	if iv := cfg.Graph.AutoRefreshInterval; iv != 0 && iv < time.Second {
		return fmt.Errorf("graph.auto_refresh_interval %v is below the 1s minimum", iv)
	}
	return nil
}
