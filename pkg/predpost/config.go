package predpost

import (
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/app/config"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls the alert journal queue.
	Policy = ports.Policy
	// UpstreamConfig points at the telemetry/prediction service.
	UpstreamConfig = config.UpstreamConfig
	RefreshConfig  = config.RefreshConfig
	// ViewsConfig sizes the dashboard, history and chart fetches.
	ViewsConfig   = config.ViewsConfig
	ServerConfig  = config.ServerConfig
	MetricsConfig = config.MetricsConfig
	// JournalConfig configures the optional Timescale alert journal.
	JournalConfig = config.JournalConfig
	LogConfig     = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return config.Default()
}
