package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tree       TreeConfig       `yaml:"tree"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications. Alerts are
// disabled when either key is empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	// TrustedProxies is passed to gin; empty trusts none.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// LoggingConfig selects the zap encoder and level.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json | console
	OutputPath string `yaml:"output_path"`
}

// Tree backends.
const (
	BackendMemory = "memory"
	BackendRemote = "remote"
)

// TreeConfig selects where the inventory tree lives.
type TreeConfig struct {
	Backend    string           `yaml:"backend"`
	Remote     RemoteConfig     `yaml:"remote"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// RemoteConfig points at a realtime-database style REST endpoint.
type RemoteConfig struct {
	BaseURL             string        `yaml:"base_url"`
	AuthToken           string        `yaml:"auth_token"`
	HTTPProxy           string        `yaml:"http_proxy"`
	PollIntervalSeconds int           `yaml:"poll_interval_seconds"`
	PollInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
	TimeoutSeconds      int           `yaml:"timeout_seconds"`
	Timeout             time.Duration `yaml:"-"`
}

// CheckpointConfig controls persistence of the in-memory tree.
type CheckpointConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 30s"
	Key      string `yaml:"key"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration suitable for local development: an
// in-memory tree checkpointed to a SQLite file.
func Default() *Config {
	cfg := &Config{
		Tree: TreeConfig{
			Checkpoint: CheckpointConfig{Enabled: true},
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "file:cabins.db?cache=shared",
		},
	}
	_ = cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.OutputPath == "" {
		cfg.Logging.OutputPath = "stdout"
	}

	switch cfg.Tree.Backend {
	case "":
		cfg.Tree.Backend = BackendMemory
	case BackendMemory:
	case BackendRemote:
		if cfg.Tree.Remote.BaseURL == "" {
			return fmt.Errorf("tree.remote.base_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown tree backend %q", cfg.Tree.Backend)
	}
	if cfg.Tree.Remote.PollIntervalSeconds <= 0 {
		cfg.Tree.Remote.PollIntervalSeconds = 5
	}
	cfg.Tree.Remote.PollInterval = time.Duration(cfg.Tree.Remote.PollIntervalSeconds) * time.Second
	if cfg.Tree.Remote.TimeoutSeconds <= 0 {
		cfg.Tree.Remote.TimeoutSeconds = 30
	}
	cfg.Tree.Remote.Timeout = time.Duration(cfg.Tree.Remote.TimeoutSeconds) * time.Second
	if cfg.Tree.Checkpoint.Schedule == "" {
		cfg.Tree.Checkpoint.Schedule = "@every 30s"
	}
	if cfg.Tree.Checkpoint.Key == "" {
		cfg.Tree.Checkpoint.Key = "root"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.Driver != DriverPostgres && cfg.Database.Driver != DriverSQLite {
		return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
	return nil
}
