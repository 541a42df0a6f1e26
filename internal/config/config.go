package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Database        DatabaseConfig        `yaml:"database"`
	Prefs           PrefsConfig           `yaml:"prefs"`
	Auth            AuthConfig            `yaml:"auth"`
	Log             LogConfig             `yaml:"log"`
	Snapshot        SnapshotConfig        `yaml:"snapshot"`
	SnapshotStorage SnapshotStorageConfig `yaml:"snapshot_storage"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PrefsConfig locates the preference directory (last selected journal).
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SnapshotConfig controls periodic local database snapshots.
type SnapshotConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	Dir      string   `yaml:"dir"`
	Keep     int      `yaml:"keep"`
}

// SnapshotStorageConfig contains S3-compatible storage settings for
// snapshot upload. An empty Bucket keeps snapshots local only.
type SnapshotStorageConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only
	SecretKey string   `yaml:"-"` // env-only
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("DAYBOOK_CONFIG_PATH", "config/daybook.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath, true); err != nil {
		return nil, err
	}

	return finish(cfg)
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()
	if err := loadYAMLFile(cfg, path, false); err != nil {
		return nil, err
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(0), // live views stream indefinitely
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "~/.daybook/daybook.db",
		},
		Prefs: PrefsConfig{
			Path: "~/.daybook/prefs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Snapshot: SnapshotConfig{
			Enabled:  false,
			Interval: Duration(24 * time.Hour),
			Dir:      "~/.daybook/snapshots",
			Keep:     7,
		},
		SnapshotStorage: SnapshotStorageConfig{
			URLExpiry: Duration(15 * time.Minute),
		},
	}
}

// loadYAMLFile loads configuration from a YAML file. When optional is set,
// a missing file leaves the defaults untouched.
func loadYAMLFile(cfg *Config, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("DAYBOOK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	envDuration("DAYBOOK_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("DAYBOOK_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("DAYBOOK_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Paths
	if v := os.Getenv("DAYBOOK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DAYBOOK_PREFS_PATH"); v != "" {
		cfg.Prefs.Path = v
	}

	// Auth
	if v := os.Getenv("DAYBOOK_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("DAYBOOK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DAYBOOK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Snapshot
	if v := os.Getenv("DAYBOOK_SNAPSHOT_ENABLED"); v != "" {
		cfg.Snapshot.Enabled = v == "true" || v == "1"
	}
	envDuration("DAYBOOK_SNAPSHOT_INTERVAL", &cfg.Snapshot.Interval)
	if v := os.Getenv("DAYBOOK_SNAPSHOT_DIR"); v != "" {
		cfg.Snapshot.Dir = v
	}
	if v := os.Getenv("DAYBOOK_SNAPSHOT_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Snapshot.Keep = n
		}
	}

	// Snapshot storage
	if v := os.Getenv("DAYBOOK_SNAPSHOT_BUCKET"); v != "" {
		cfg.SnapshotStorage.Bucket = v
	}
	if v := os.Getenv("DAYBOOK_S3_ENDPOINT"); v != "" {
		cfg.SnapshotStorage.Endpoint = v
	}
	if v := os.Getenv("DAYBOOK_S3_REGION"); v != "" {
		cfg.SnapshotStorage.Region = v
	}
	if v := os.Getenv("DAYBOOK_S3_ACCESS_KEY"); v != "" {
		cfg.SnapshotStorage.AccessKey = v
	}
	if v := os.Getenv("DAYBOOK_S3_SECRET_KEY"); v != "" {
		cfg.SnapshotStorage.SecretKey = v
	}
	if v := os.Getenv("DAYBOOK_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.SnapshotStorage.UseSSL = &useSSL
	}
	envDuration("DAYBOOK_S3_URL_EXPIRY", &cfg.SnapshotStorage.URLExpiry)
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// expandPaths resolves a leading ~ in every configured path.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Database.Path, &c.Prefs.Path, &c.Snapshot.Dir} {
		if *p == "" || *p == ":memory:" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", c.Log.Format)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Snapshot.Enabled {
		if c.Snapshot.Interval <= 0 {
			return fmt.Errorf("snapshot.interval must be positive")
		}
		if c.Snapshot.Keep < 1 {
			return fmt.Errorf("snapshot.keep must be at least 1")
		}
	}
	if c.SnapshotStorage.Bucket != "" && c.SnapshotStorage.Endpoint == "" {
		return fmt.Errorf("snapshot_storage.endpoint is required when a bucket is set")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
