package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/logging"
	"github.com/forgeevents/eventcatalog/internal/metadata"
)

// ConfigName is the base name of the configuration file
const ConfigName = "eventcatalog"

// EnvPrefix prefixes environment overrides (EVENTCATALOG_DATABASE_URL, ...)
const EnvPrefix = "EVENTCATALOG"

// ConfigurationError reports invalid or missing configuration. It is
// raised before any connection is attempted.
type ConfigurationError struct {
	Key string
	Err error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

// Unwrap returns the cause
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(key, format string, args ...interface{}) error {
	return &ConfigurationError{Key: key, Err: fmt.Errorf(format, args...)}
}

// IsConfigurationError reports whether err is a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// Config represents the eventcatalog configuration
type Config struct {
	Database       DatabaseConfig   `mapstructure:"database"`
	Redis          RedisConfig      `mapstructure:"redis"`
	Log            LogConfig        `mapstructure:"log"`
	Classifier     ClassifierConfig `mapstructure:"classifier"`
	Server         ServerConfig     `mapstructure:"server"`
	ForceRepublish bool             `mapstructure:"force_republish"`
}

// DatabaseConfig represents the catalog store connection
type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"`
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"` // database name, or file path for sqlite3
	SSLMode        string `mapstructure:"sslmode"`
	ConnectRetries int    `mapstructure:"connect_retries"`
}

// RedisConfig represents the optional run lock backend
type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// ClassifierConfig names the marker types and annotations
type ClassifierConfig struct {
	Markers              []string `mapstructure:"markers"`
	HasResultAnnotation  string   `mapstructure:"has_result_annotation"`
	CancelableAnnotation string   `mapstructure:"cancelable_annotation"`
	DeprecatedAnnotation string   `mapstructure:"deprecated_annotation"`
}

// ServerConfig represents the read API listener
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load loads the configuration. An empty path looks for eventcatalog.yml or
// eventcatalog.yaml in the working directory; a missing file there means
// defaults. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.connect_retries", 3)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.lock_ttl", "10m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("classifier.markers", metadata.DefaultMarkers)
	v.SetDefault("classifier.has_result_annotation", metadata.DefaultAnnotations.HasResult)
	v.SetDefault("classifier.cancelable_annotation", metadata.DefaultAnnotations.Cancelable)
	v.SetDefault("classifier.deprecated_annotation", metadata.DefaultAnnotations.Deprecated)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("force_republish", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &ConfigurationError{Err: fmt.Errorf("failed to read config file: %w", err)}
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := catalog.DialectFor(cfg.Database.Driver); err != nil {
		return &ConfigurationError{Key: "database.driver", Err: err}
	}
	if cfg.Database.ConnectRetries < 0 {
		return configErr("database.connect_retries", "must not be negative, got %d", cfg.Database.ConnectRetries)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json":
	default:
		return configErr("log.format", "must be console or json, got %q", cfg.Log.Format)
	}
	if cfg.Redis.URL != "" && cfg.Redis.LockTTL <= 0 {
		return configErr("redis.lock_ttl", "must be positive when redis.url is set")
	}
	if len(cfg.Classifier.Markers) == 0 {
		return configErr("classifier.markers", "at least one marker type is required")
	}
	return nil
}

// DSN returns the data source name for the configured driver. A missing
// database name is a ConfigurationError.
func (c *DatabaseConfig) DSN() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	if c.Name == "" {
		return "", configErr("database.name", "database name is required when database.url is not set")
	}

	if c.Driver == catalog.SQLite.Driver {
		return c.Name, nil
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String(), nil
}

// Target returns a printable description of the store without credentials.
func (c *DatabaseConfig) Target() string {
	dsn, err := c.DSN()
	if err != nil {
		return c.Driver
	}
	if c.Driver == catalog.SQLite.Driver {
		return "sqlite3:" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return c.Driver
	}
	return u.Redacted()
}

// StoreOptions returns catalog.Open options for the configured store.
func (c *Config) StoreOptions() (catalog.Options, error) {
	dsn, err := c.Database.DSN()
	if err != nil {
		return catalog.Options{}, err
	}
	return catalog.Options{
		Driver:         c.Database.Driver,
		DSN:            dsn,
		Target:         c.Database.Target(),
		ConnectRetries: c.Database.ConnectRetries,
	}, nil
}

// Annotations returns the configured marker annotations.
func (c *ClassifierConfig) Annotations() metadata.Annotations {
	return metadata.Annotations{
		HasResult:  c.HasResultAnnotation,
		Cancelable: c.CancelableAnnotation,
		Deprecated: c.DeprecatedAnnotation,
	}
}

// Logging returns the logging configuration.
func (c *LogConfig) Logging() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, File: c.File}
}

// FindConfigFile walks up from the working directory looking for a
// configuration file and returns its path.
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{ConfigName + ".yml", ConfigName + ".yaml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return "", fmt.Errorf("no %s.yml found", ConfigName)
		}
		dir = parent
	}
}
