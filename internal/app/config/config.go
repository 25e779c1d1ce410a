package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
	"gopkg.in/yaml.v3"
)

// EnvUpstreamURL overrides upstream.base_url when set.
const EnvUpstreamURL = "PREDPOST_UPSTREAM_URL"

type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Views    ViewsConfig    `yaml:"views"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
}

type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ViewsConfig sizes the pages fetched for each view.
type ViewsConfig struct {
	DashboardLimit  int    `yaml:"dashboard_limit"`
	HistoryPageSize int    `yaml:"history_page_size"`
	VisualizeLimit  int    `yaml:"visualize_limit"`
	TimelineWindow  int    `yaml:"timeline_window"`
	RecentCount     int    `yaml:"recent_count"`
	Location        string `yaml:"location"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// JournalConfig is optional; an empty conn string disables the alert journal.
type JournalConfig struct {
	ConnString string       `yaml:"conn_string"`
	Table      string       `yaml:"table"`
	Policy     ports.Policy `yaml:"policy"`
}

func (j JournalConfig) Enabled() bool { return j.ConnString != "" }

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvUpstreamURL)); v != "" {
		cfg.Upstream.BaseURL = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadLocation resolves views.location; "Local" and "" mean the host zone.
func (c *Config) LoadLocation() (*time.Location, error) {
	switch c.Views.Location {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Views.Location)
	}
}

func (c *Config) applyDefaults() {
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "http://localhost:5000"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 15 * time.Second
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 30 * time.Second
	}
	if c.Views.DashboardLimit == 0 {
		c.Views.DashboardLimit = 100
	}
	if c.Views.HistoryPageSize == 0 {
		c.Views.HistoryPageSize = 20
	}
	if c.Views.VisualizeLimit == 0 {
		c.Views.VisualizeLimit = 200
	}
	if c.Views.TimelineWindow == 0 {
		c.Views.TimelineWindow = 20
	}
	if c.Views.RecentCount == 0 {
		c.Views.RecentCount = 5
	}
	if c.Views.Location == "" {
		c.Views.Location = "Local"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8088"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Journal.Table == "" {
		c.Journal.Table = "alert_journal"
	}
	if c.Journal.Policy.MaxQueueLen == 0 {
		c.Journal.Policy.MaxQueueLen = 10_000
	}
	if c.Journal.Policy.MaxBatchSize == 0 {
		c.Journal.Policy.MaxBatchSize = 500
	}
	if c.Journal.Policy.IdleSleep == 0 {
		c.Journal.Policy.IdleSleep = 50 * time.Millisecond
	}
	if c.Journal.Policy.OnQueueFull == "" {
		c.Journal.Policy.OnQueueFull = "drop"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL, got %q", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must not be negative, got %s", c.Upstream.Timeout)
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval must be at least 1s, got %s", c.Refresh.Interval)
	}
	for name, v := range map[string]int{
		"views.dashboard_limit":   c.Views.DashboardLimit,
		"views.history_page_size": c.Views.HistoryPageSize,
		"views.visualize_limit":   c.Views.VisualizeLimit,
		"views.timeline_window":   c.Views.TimelineWindow,
		"views.recent_count":      c.Views.RecentCount,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	if _, err := c.LoadLocation(); err != nil {
		return fmt.Errorf("views.location: %w", err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Journal.Policy.OnQueueFull {
	case "block", "drop", "reject":
	default:
		return fmt.Errorf("journal.policy.on_queue_full must be block, drop or reject, got %q", c.Journal.Policy.OnQueueFull)
	}
	return nil
}
