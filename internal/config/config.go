package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration, generalizing the
// teacher's Server/Database/Providers/Scheduler shape to the gateway,
// source, store, and scheduler concerns this system actually has.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Gateway   GatewayConfig           `yaml:"gateway"`
	Sources   map[string]SourceConfig `yaml:"sources"`
	Store     StoreConfig             `yaml:"store"`
	Scheduler SchedulerConfig         `yaml:"scheduler"`
}

// ServerConfig holds the read-only status HTTP server's listen settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GatewayConfig holds the polite-outbound-client settings every source
// adapter shares: identifying contact info, an optional upstream proxy,
// and the extra hosts a workspace is willing to load pipelines from.
type GatewayConfig struct {
	ContactEmail        string   `yaml:"contact_email"`  // sent as a user-agent/email header for polite traffic
	ProxyURL             string   `yaml:"proxy_url"`      // optional HTTP(S) proxy for all outbound requests
	AllowedPipelineHosts []string `yaml:"allowed_pipeline_hosts"` // extends the url: loader's default allow-list
}

// SourceConfig holds per-host settings for one external source: its API
// key (where the service requires one) and its rate-limit policy.
type SourceConfig struct {
	APIKey      string  `yaml:"api_key"`
	RefillRate  float64 `yaml:"refill_rate"` // tokens/sec; 0 means use the gateway's default (3)
	Burst       int     `yaml:"burst"`       // 0 means use the gateway's default (5)
}

// StoreConfig holds the two pipeline-store scope roots.
type StoreConfig struct {
	WorkspaceDir string `yaml:"workspace_dir"` // project-local scope root; "" disables the workspace scope
	GlobalDir    string `yaml:"global_dir"`    // process-wide data directory for the global scope
}

// SchedulerConfig holds the fleet limits for the periodic tick loop.
type SchedulerConfig struct {
	MaxEnabled    int `yaml:"max_enabled"`    // max concurrently enabled schedules (default: 5)
	MaxConcurrent int `yaml:"max_concurrent"` // max concurrently executing scheduled runs (default: 5)
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Gateway: GatewayConfig{},
		Sources: map[string]SourceConfig{},
		Store: StoreConfig{
			GlobalDir: defaultGlobalDir(),
		},
		Scheduler: SchedulerConfig{
			MaxEnabled:    5,
			MaxConcurrent: 5,
		},
	}
}

func defaultGlobalDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.litsearch"
	}
	return ".litsearch"
}

// Load reads a YAML configuration file at path and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Sources == nil {
		cfg.Sources = map[string]SourceConfig{}
	}
	if cfg.Scheduler.MaxEnabled == 0 {
		cfg.Scheduler.MaxEnabled = 5
	}
	if cfg.Scheduler.MaxConcurrent == 0 {
		cfg.Scheduler.MaxConcurrent = 5
	}
	if cfg.Store.GlobalDir == "" {
		cfg.Store.GlobalDir = defaultGlobalDir()
	}

	return cfg, nil
}

// LoadDefault tries to load "config.yaml" from the current directory.
// If the file does not exist, it returns sensible defaults.
// Any other error (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}
	return cfg, nil
}
