package types

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	SubjectHdrName = "x-subject-id"

	// DefaultPingInterval keeps intermediary proxies from dropping idle streams.
	DefaultPingInterval = 30 * time.Second

	// DefaultCleanupInterval bounds cache memory for keys written once and
	// never re-read.
	DefaultCleanupInterval = 10 * time.Minute
)

// ServerConfig drives the bookpulse process. Values come from the environment
// with an optional YAML file (CONFIG_FILE) taking precedence; see
// LoadServerConfig.
// Port is the HTTP listen port.
// OfflineSNSArn, when set, receives events published to topics with zero live
// subscribers (push-notification bridge). Empty disables the bridge.
// CacheMaxEntries caps the search cache entry count; 0 means unbounded
// (time/pattern eviction only).
type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	OfflineSNSArn   string        `yaml:"offline_sns_arn" json:"offline_sns_arn"`
	CacheMaxEntries int           `yaml:"cache_max_entries" json:"cache_max_entries"`
	PingInterval    time.Duration `yaml:"ping_interval" json:"ping_interval"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	HistoryLimit    int           `yaml:"history_limit" json:"history_limit"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		PingInterval:    DefaultPingInterval,
		CleanupInterval: DefaultCleanupInterval,
		HistoryLimit:    50,
	}
}

// LoadServerConfig reads the YAML file at path over the defaults. An empty
// path returns the defaults unchanged.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535]")
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("ping_interval must be positive")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache_max_entries must be non-negative. 0 for no bound")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	return nil
}
