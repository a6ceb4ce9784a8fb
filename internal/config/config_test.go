package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Containers == nil {
		t.Error("Containers is nil, want empty slice")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestDefaultGraphConfig(t *testing.T) {
	cfg := Default()

	if cfg.Graph.Density != "standard" {
		t.Errorf("Graph.Density = %q, want %q", cfg.Graph.Density, "standard")
	}
	if cfg.Graph.MaxLabel != 24 {
		t.Errorf("Graph.MaxLabel = %d, want 24", cfg.Graph.MaxLabel)
	}
	if cfg.Graph.AutoRefreshInterval != 10*time.Second {
		t.Errorf("Graph.AutoRefreshInterval = %v, want %v", cfg.Graph.AutoRefreshInterval, 10*time.Second)
	}
}

func TestDefaultPathsConfig(t *testing.T) {
	cfg := Default()

	if cfg.Paths.Log != ".statediagram/statediagram.log" {
		t.Errorf("Paths.Log = %q", cfg.Paths.Log)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 30s", cfg.HTTP.Timeout)
	}
}

func TestDefaultLogRotationConfig(t *testing.T) {
	cfg := Default()

	if cfg.LogRotation.MaxSizeMB != 100 {
		t.Errorf("LogRotation.MaxSizeMB = %d, want 100", cfg.LogRotation.MaxSizeMB)
	}
	if cfg.LogRotation.MaxBackups != 3 {
		t.Errorf("LogRotation.MaxBackups = %d, want 3", cfg.LogRotation.MaxBackups)
	}
	if !cfg.LogRotation.Compress {
		t.Error("LogRotation.Compress = false, want true")
	}
}

func TestContainerConfig_Key(t *testing.T) {
	named := ContainerConfig{Name: "nightly", DataURI: "http://x/api/state"}
	if named.Key() != "nightly" {
		t.Errorf("Key = %q, want nightly", named.Key())
	}
	unnamed := ContainerConfig{DataURI: "http://x/api/state"}
	if unnamed.Key() != "http://x/api/state" {
		t.Errorf("Key = %q, want the data URI", unnamed.Key())
	}
}

func TestContainerConfig_EffectiveDOMWait(t *testing.T) {
	tests := []struct {
		wait time.Duration
		want time.Duration
	}{
		{0, 500 * time.Millisecond},
		{-1, 500 * time.Millisecond},
		{20 * time.Millisecond, 20 * time.Millisecond},
	}
	for _, tt := range tests {
		c := ContainerConfig{DOMWait: tt.wait}
		if got := c.EffectiveDOMWait(); got != tt.want {
			t.Errorf("EffectiveDOMWait(%v) = %v, want %v", tt.wait, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid container",
			mutate: func(c *Config) { c.Containers = []ContainerConfig{{Name: "a", DataURI: "http://x"}} },
		},
		{
			name:    "missing data-uri",
			mutate:  func(c *Config) { c.Containers = []ContainerConfig{{Name: "a"}} },
			wantErr: true,
		},
		{
			name: "duplicate names",
			mutate: func(c *Config) {
				c.Containers = []ContainerConfig{{Name: "a", DataURI: "http://x"}, {Name: "a", DataURI: "http://y"}}
			},
			wantErr: true,
		},
		{
			name:    "refresh below minimum",
			mutate:  func(c *Config) { c.Graph.AutoRefreshInterval = 100 * time.Millisecond },
			wantErr: true,
		},
		{
			name:   "refresh disabled",
			mutate: func(c *Config) { c.Graph.AutoRefreshInterval = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingDataURIIsTyped(t *testing.T) {
	cfg := Default()
	cfg.Containers = []ContainerConfig{{Name: "a"}}
	if err := Validate(cfg); !errors.Is(err, ErrMissingDataURI) {
		t.Errorf("Validate() = %v, want ErrMissingDataURI", err)
	}
}
