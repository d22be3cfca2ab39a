package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "LIANBO_CONFIG"

// Config holds all settings recognized across the binaries. It is loaded
// once at process entry and passed by value afterwards.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Database  DatabaseConfig  `yaml:"database"`
	Spider    SpiderConfig    `yaml:"spider"`
	Logging   LoggingConfig   `yaml:"logging"`
	Batch     BatchConfig     `yaml:"batch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// BackendConfig describes the HTTP API listener.
type BackendConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SpiderConfig tunes the fetcher and the per-item pacing.
type SpiderConfig struct {
	MaxRetries     int     `yaml:"max_retries"`
	RequestDelay   float64 `yaml:"request_delay"`   // seconds between items
	RequestTimeout float64 `yaml:"request_timeout"` // seconds per HTTP attempt
}

// LoggingConfig selects level and optional per-binary log files.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	NewsLogFile   string `yaml:"news_log_file"`
	BatchLogFile  string `yaml:"batch_log_file"`
	ServerLogFile string `yaml:"server_log_file"`
}

// BatchConfig holds batch-run defaults.
type BatchConfig struct {
	DefaultStartDate string `yaml:"default_start_date"`
}

// SchedulerConfig controls the watch loop cadence.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// UnmarshalYAML accepts the interval as a duration string such as "30m" or
// "2h".
func (s *SchedulerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.Interval)
	if err != nil {
		return fmt.Errorf("scheduler interval: %w", err)
	}
	s.Interval = d
	return nil
}

// RequestDelayDuration converts the seconds-valued delay to a Duration.
func (s SpiderConfig) RequestDelayDuration() time.Duration {
	return time.Duration(s.RequestDelay * float64(time.Second))
}

// RequestTimeoutDuration converts the seconds-valued timeout to a Duration.
func (s SpiderConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout * float64(time.Second))
}

// Load reads YAML configuration from path (or the LIANBO_CONFIG env var when
// path is empty). A missing or unreadable file is non-fatal: the hardcoded
// defaults are returned and the problem is logged.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		return cfg
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		return cfg
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		return cfg
	}

	return mergeConfig(cfg, fileCfg)
}

func mergeConfig(base, override Config) Config {
	if override.Backend.Host != "" {
		base.Backend.Host = override.Backend.Host
	}
	if override.Backend.Port != 0 {
		base.Backend.Port = override.Backend.Port
	}
	if override.Backend.Debug {
		base.Backend.Debug = true
	}

	if override.Database.Path != "" {
		base.Database.Path = override.Database.Path
	}

	if override.Spider.MaxRetries != 0 {
		base.Spider.MaxRetries = override.Spider.MaxRetries
	}
	if override.Spider.RequestDelay != 0 {
		base.Spider.RequestDelay = override.Spider.RequestDelay
	}
	if override.Spider.RequestTimeout != 0 {
		base.Spider.RequestTimeout = override.Spider.RequestTimeout
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.NewsLogFile != "" {
		base.Logging.NewsLogFile = override.Logging.NewsLogFile
	}
	if override.Logging.BatchLogFile != "" {
		base.Logging.BatchLogFile = override.Logging.BatchLogFile
	}
	if override.Logging.ServerLogFile != "" {
		base.Logging.ServerLogFile = override.Logging.ServerLogFile
	}

	if override.Batch.DefaultStartDate != "" {
		base.Batch.DefaultStartDate = override.Batch.DefaultStartDate
	}

	if override.Scheduler.Interval != 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Backend:  BackendConfig{Host: "0.0.0.0", Port: 5001, Debug: false},
		Database: DatabaseConfig{Path: "news.db"},
		Spider: SpiderConfig{
			MaxRetries:     5,
			RequestDelay:   0.5,
			RequestTimeout: 20,
		},
		Logging:   LoggingConfig{Level: "info"},
		Batch:     BatchConfig{DefaultStartDate: "2022-01-01"},
		Scheduler: SchedulerConfig{Interval: 2 * time.Hour},
	}
}
