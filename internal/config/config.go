package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	clamd "github.com/DevHatRo/clamd-sdk-go"
)

// Clamd contains daemon connection settings.
type Clamd struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	TLS                bool   `toml:"tls"`
	CAFile             string `toml:"ca_file"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	ChunkSize          int    `toml:"chunk_size"`
}

// Scan contains directory scan settings.
type Scan struct {
	// Concurrency caps simultaneous daemon sessions during a directory scan.
	Concurrency int `toml:"concurrency"`
	// RateLimit paces session starts per second. Zero disables pacing.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for clamdscan.
type Config struct {
	Clamd   Clamd   `toml:"clamd"`
	Scan    Scan    `toml:"scan"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the default configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration file at path (or the default location when
// path is empty), applies environment overrides, and validates the result.
// A missing file is not an error; exists reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		path = defaultConfigPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, "", false, err
	}

	exists := true
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolved, exists, nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}

// Timeout returns the session timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Clamd.TimeoutSeconds) * time.Second
}

// TLSConfig builds the TLS client configuration, or nil when TLS is off.
func (c *Config) TLSConfig() (*tls.Config, error) {
	if !c.Clamd.TLS {
		return nil, nil
	}
	cfg := &tls.Config{
		ServerName:         c.Clamd.Host,
		InsecureSkipVerify: c.Clamd.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed daemons
	}
	if c.Clamd.CAFile != "" {
		pem, err := os.ReadFile(c.Clamd.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca_file %s contains no certificates", c.Clamd.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// ClientOptions maps the configuration onto clamd client options.
func (c *Config) ClientOptions(logger logrus.FieldLogger) ([]clamd.ClientOption, error) {
	opts := []clamd.ClientOption{
		clamd.WithHost(c.Clamd.Host),
		clamd.WithPort(uint16(c.Clamd.Port)),
		clamd.WithTimeout(c.Timeout()),
		clamd.WithChunkSize(c.Clamd.ChunkSize),
		clamd.WithConcurrency(c.Scan.Concurrency),
		clamd.WithRateLimit(c.Scan.RateLimit, c.Scan.RateBurst),
	}
	if logger != nil {
		opts = append(opts, clamd.WithLogger(logger))
	}
	tlsCfg, err := c.TLSConfig()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		opts = append(opts, clamd.WithTLSConfig(tlsCfg))
	}
	return opts, nil
}

// applyEnv overrides connection settings from CLAMD_HOST, CLAMD_PORT,
// CLAMD_TLS and CLAMD_TIMEOUT (seconds).
func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("CLAMD_HOST")); v != "" {
		c.Clamd.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("CLAMD_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLAMD_PORT: %w", err)
		}
		c.Clamd.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("CLAMD_TLS")); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CLAMD_TLS: %w", err)
		}
		c.Clamd.TLS = on
	}
	if v := strings.TrimSpace(os.Getenv("CLAMD_TIMEOUT")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLAMD_TIMEOUT: %w", err)
		}
		c.Clamd.TimeoutSeconds = secs
	}
	return nil
}

func (c *Config) normalize() error {
	c.Clamd.Host = strings.TrimSpace(c.Clamd.Host)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	var err error
	if c.Clamd.CAFile, err = expandPath(c.Clamd.CAFile); err != nil {
		return err
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return err
	}
	return nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
