// Package config provides configuration types and defaults for statediagram.
package config

import "time"

// DefaultDOMWait is how long a diagram waits after placing its tiles before
// capturing geometry and drawing edges.
const DefaultDOMWait = 500 * time.Millisecond

// Config holds all configuration for statediagram.
type Config struct {
	Containers  []ContainerConfig `yaml:"containers" mapstructure:"containers"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Graph       GraphConfig       `yaml:"graph" mapstructure:"graph"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// ContainerConfig describes one diagram: where its jobs come from and where
// its preferences are saved.
//
// Icons names the icon sprite used by browser renderings of the same
// container. Terminal and SVG output draw their own glyphs, so it is decoded
// and kept for shared config files but not read.
type ContainerConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	DataURI     string        `yaml:"data-uri" mapstructure:"data-uri"`         // Root page endpoint (required)
	PrefsURI    string        `yaml:"prefs-uri" mapstructure:"prefs-uri"`       // Empty keeps preferences in memory
	DOMWait     time.Duration `yaml:"dom-wait" mapstructure:"dom-wait"`         // Bare numbers are milliseconds (0 = 500ms)
	MaxJobs     int           `yaml:"max-jobs" mapstructure:"max-jobs"`         // Advisory, passed to collaborators
	Icons       string        `yaml:"icons" mapstructure:"icons"`               // Browser icon sprite, not read here
	VerifyToken string        `yaml:"verify-token" mapstructure:"verify-token"` // Sent with preference writes
}

// HTTPConfig holds settings for the job state transport.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per request (0 = no timeout)
}

// GraphConfig holds settings for the diagram panes.
type GraphConfig struct {
	Density             string        `yaml:"density" mapstructure:"density"`                             // Tile density: "compact", "standard", or "detailed"
	MaxLabel            int           `yaml:"max_label" mapstructure:"max_label"`                         // Job names are truncated to this many cells
	AutoRefreshInterval time.Duration `yaml:"auto_refresh_interval" mapstructure:"auto_refresh_interval"` // Interval for auto-refresh (0 = disabled, min 1s)
}

// PathsConfig holds file paths.
type PathsConfig struct {
	Log string `yaml:"log" mapstructure:"log"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Containers: []ContainerConfig{},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Graph: GraphConfig{
			Density:             "standard",
			MaxLabel:            24,
			AutoRefreshInterval: 10 * time.Second,
		},
		Paths: PathsConfig{
			Log: ".statediagram/statediagram.log",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Key identifies the container: its name, or its data URI when unnamed.
func (c ContainerConfig) Key() string {
	if c.Name != "" {
		return c.Name
	}
	return c.DataURI
}

// EffectiveDOMWait returns DOMWait, or DefaultDOMWait when unset.
func (c ContainerConfig) EffectiveDOMWait() time.Duration {
	if c.DOMWait <= 0 {
		return DefaultDOMWait
	}
	return c.DOMWait
}
