package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. EEROSNAP_AUTH_TOKEN.
const EnvPrefix = "EEROSNAP"

// Config holds all configuration for the snapshot daemon
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RefreshPath    string        `mapstructure:"refresh_path"`
	AuthCookie     string        `mapstructure:"auth_cookie"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

type AuthConfig struct {
	Token string `mapstructure:"token"`
}

// ResourcesConfig overrides the fallback path of logical resources. "{id}"
// is replaced with the network id.
type ResourcesConfig struct {
	Fallbacks map[string]string `mapstructure:"fallbacks"`
}

type SyncConfig struct {
	Schedule      string        `mapstructure:"schedule"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Networks      []string      `mapstructure:"networks"`
	Timezone      string        `mapstructure:"timezone"`
	TimelineHours int           `mapstructure:"timeline_hours"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Host        string `mapstructure:"host"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Name              string `mapstructure:"name"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	ConnectionTimeout int    `mapstructure:"connection_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. $VAR
// references in the file are expanded first; EEROSNAP_* variables then
// override individual keys. An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Round-trip through a map so the expanded text is normalized YAML
		var rawConfig map[string]interface{}
		if err := yaml.Unmarshal(data, &rawConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
		}
		data, err = yaml.Marshal(rawConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal raw config: %w", err)
		}

		expandedData := os.ExpandEnv(string(data))

		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewBufferString(expandedData)); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api-user.e2ro.com")
	v.SetDefault("api.refresh_path", "/2.2/login/refresh")
	v.SetDefault("api.auth_cookie", "s")
	v.SetDefault("api.request_timeout", 20*time.Second)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_limit_burst", 20)
	v.SetDefault("api.max_concurrency", 4)

	v.SetDefault("auth.token", "")

	v.SetDefault("sync.schedule", "*/5 * * * *")
	v.SetDefault("sync.timeout", 2*time.Minute)
	v.SetDefault("sync.timezone", "UTC")
	v.SetDefault("sync.timeline_hours", 24)
	v.SetDefault("sync.stale_after", 15*time.Minute)

	v.SetDefault("cache.size", 16)

	v.SetDefault("server.port", 50051)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.metrics_port", 9090)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.connection_timeout", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the values that cannot be defaulted away.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute url, got %q", c.API.BaseURL)
	}
	if c.API.RateLimit <= 0 {
		return errors.New("api.rate_limit must be positive")
	}
	if c.Cache.Size <= 0 {
		return errors.New("cache.size must be positive")
	}
	if _, err := c.Sync.Location(); err != nil {
		return fmt.Errorf("sync.timezone: %w", err)
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return errors.New("database.host is required when the database is enabled")
	}
	return nil
}

// Location resolves the configured timezone.
func (s SyncConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// NetworkFilter returns the configured network ids as a set; nil means all
// networks.
func (s SyncConfig) NetworkFilter() map[string]struct{} {
	if len(s.Networks) == 0 {
		return nil
	}
	filter := make(map[string]struct{}, len(s.Networks))
	for _, id := range s.Networks {
		if id = strings.TrimSpace(id); id != "" {
			filter[id] = struct{}{}
		}
	}
	return filter
}

// ConnString builds a lib/pq keyword connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.ConnectionTimeout,
	)
}
