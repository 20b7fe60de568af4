package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClamd(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateClamd() error {
	if c.Clamd.Host == "" {
		return errors.New("clamd.host must be set")
	}
	if c.Clamd.Port < 1 || c.Clamd.Port > 65535 {
		return fmt.Errorf("clamd.port must be between 1 and 65535, got %d", c.Clamd.Port)
	}
	if c.Clamd.TimeoutSeconds <= 0 {
		return errors.New("clamd.timeout_seconds must be positive")
	}
	if c.Clamd.ChunkSize <= 0 {
		return errors.New("clamd.chunk_size must be positive")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Concurrency <= 0 {
		return errors.New("scan.concurrency must be positive")
	}
	if c.Scan.RateLimit < 0 {
		return errors.New("scan.rate_limit must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		return errors.New("logging.max_size_mb must be positive when logging.file is set")
	}
	return nil
}
