// Package config loads ridechat settings from an optional YAML file, with
// RIDECHAT_* environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lucasjlepore/ridechat/units"
)

// Config is the top-level ridechat configuration.
type Config struct {
	Units          string    `mapstructure:"units"`
	ClimbThreshold float64   `mapstructure:"climb_threshold"`
	Server         Server    `mapstructure:"server"`
	Session        Session   `mapstructure:"session"`
	Database       Database  `mapstructure:"database"`
	Narrative      Narrative `mapstructure:"narrative"`
	Log            Log       `mapstructure:"log"`
}

// Server configures the HTTP API.
type Server struct {
	Addr        string        `mapstructure:"addr"`
	MaxUploadMB int64         `mapstructure:"max_upload_mb"`
	Shutdown    time.Duration `mapstructure:"shutdown_timeout"`
}

// Session configures idle session expiry.
type Session struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Database configures the ride history store. An empty path disables it.
type Database struct {
	Path string `mapstructure:"path"`
}

// Narrative configures the remote text-generation fallback.
type Narrative struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

// Log configures the logger.
type Log struct {
	Debug bool `mapstructure:"debug"`
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from cfgFile, or config.yaml in the default
// directory when cfgFile is empty. A missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("units", DefaultUnits)
	v.SetDefault("climb_threshold", DefaultClimbThreshold)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.max_upload_mb", DefaultMaxUploadMB)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("session.ttl", DefaultSessionTTL)
	v.SetDefault("session.sweep_interval", DefaultSweepInterval)
	v.SetDefault("database.path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("narrative.enabled", false)
	v.SetDefault("narrative.endpoint", DefaultNarrativeEndpoint)
	v.SetDefault("narrative.model", DefaultNarrativeModel)
	v.SetDefault("narrative.token", "")
	v.SetDefault("narrative.timeout", DefaultNarrativeTimeout)
	v.SetDefault("narrative.retries", DefaultNarrativeRetries)
	v.SetDefault("log.debug", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Path = expandPath(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := units.ParsePolicy(c.Units); err != nil {
		return err
	}
	if c.ClimbThreshold <= 0 {
		return fmt.Errorf("climb_threshold must be positive, got %v", c.ClimbThreshold)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive, got %s", c.Session.SweepInterval)
	}
	return nil
}

// UnitPolicy returns the configured display units.
func (c *Config) UnitPolicy() units.Policy {
	p, err := units.ParsePolicy(c.Units)
	if err != nil {
		return units.Imperial()
	}
	return p
}

// NarrativeActive reports whether the fallback is enabled and has a token.
func (c *Config) NarrativeActive() bool {
	return c.Narrative.Enabled && strings.TrimSpace(c.Narrative.Token) != ""
}
