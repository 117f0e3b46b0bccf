package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/activity-tracker-backend/internal/platform/envutil"
)

// Config carries everything the process needs at startup. Values resolve in
// three layers: profile defaults, then an optional YAML file named by
// CONFIG_FILE, then environment variable overrides.
type Config struct {
	Profile string `yaml:"profile"`
	Debug   bool   `yaml:"debug"`
	Version string `yaml:"version"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	DBPath        string `yaml:"db_path"`
	DataDir       string `yaml:"data_dir"`
	BackupDir     string `yaml:"backup_dir"`
	LogFile       string `yaml:"log_file"`
	SecretKeyFile string `yaml:"secret_key_file"`
	LockFile      string `yaml:"lock_file"`

	LogMode        string        `yaml:"log_mode"`
	CSRFEnabled    bool          `yaml:"csrf_enabled"`
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	BackupKeep     int           `yaml:"backup_keep"`
	BackupSchedule string        `yaml:"backup_schedule"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

const appVersion = "1.4.0"

// Load resolves the configuration for the profile named by APP_PROFILE
// (development when unset).
func Load() (*Config, error) {
	profile := envutil.String("APP_PROFILE", "development")
	cfg, err := Profile(profile)
	if err != nil {
		return nil, err
	}

	if file := envutil.String("CONFIG_FILE", ""); file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", file, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Profile returns the baked-in defaults for a named profile.
func Profile(name string) (*Config, error) {
	dataDir := envutil.String("APP_DATA_DIR", defaultDataDir())

	base := &Config{
		Profile:            name,
		Version:            appVersion,
		Host:               "127.0.0.1",
		Port:               5000,
		DataDir:            dataDir,
		DBPath:             filepath.Join(dataDir, "tracker.db"),
		BackupDir:          filepath.Join(dataDir, "backups"),
		LogFile:            filepath.Join(dataDir, "tracker.log"),
		SecretKeyFile:      filepath.Join(dataDir, ".secret_key"),
		LockFile:           filepath.Join(dataDir, "tracker.lock"),
		LogMode:            "development",
		CSRFEnabled:        true,
		MetricsEnabled:     true,
		CacheTTL:           5 * time.Minute,
		BackupKeep:         7,
		BackupSchedule:     "@daily",
		CORSAllowedOrigins: []string{"http://localhost:5000", "http://127.0.0.1:5000"},
	}

	switch name {
	case "development":
		base.Debug = true
	case "production":
		base.Debug = false
		base.LogMode = "production"
	case "testing":
		base.Debug = true
		base.DBPath = ":memory:"
		base.CSRFEnabled = false
		base.LogFile = ""
		base.CacheTTL = 0
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	return base, nil
}

func (c *Config) applyEnv() {
	c.Host = envutil.String("APP_HOST", c.Host)
	c.Port = envutil.Int("APP_PORT", c.Port)
	c.DBPath = envutil.String("APP_DB_PATH", c.DBPath)
	c.BackupDir = envutil.String("APP_BACKUP_DIR", c.BackupDir)
	c.LogFile = envutil.String("APP_LOG_FILE", c.LogFile)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.Debug = envutil.Bool("APP_DEBUG", c.Debug)
	c.CSRFEnabled = envutil.Bool("CSRF_ENABLED", c.CSRFEnabled)
	c.MetricsEnabled = envutil.Bool("METRICS_ENABLED", c.MetricsEnabled)
	c.BackupKeep = envutil.Int("BACKUP_KEEP", c.BackupKeep)
	c.BackupSchedule = envutil.String("BACKUP_SCHEDULE", c.BackupSchedule)
	if ttl := envutil.Int("CACHE_TTL_SECONDS", -1); ttl >= 0 {
		c.CacheTTL = time.Duration(ttl) * time.Second
	}
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path must not be empty")
	}
	if c.BackupKeep < 1 {
		return fmt.Errorf("backup_keep must be at least 1")
	}
	return nil
}

// EnsureDirs creates the on-disk directories the process writes into. It is a
// no-op for the in-memory testing profile.
func (c *Config) EnsureDirs() error {
	if c.DBPath == ":memory:" {
		return nil
	}
	for _, dir := range []string{c.DataDir, c.BackupDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".activity-tracker")
}
