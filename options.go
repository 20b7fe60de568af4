package clamd

import (
	"crypto/tls"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultHost        = "localhost"
	defaultPort        = 3310
	defaultTimeout     = 20 * time.Second
	defaultChunkSize   = 64 * 1024 // 64KB
	defaultConcurrency = 10
)

// ClientOption configures the clamd client.
type ClientOption func(*Client)

// WithHost sets the daemon host name or IP address (default: localhost).
func WithHost(host string) ClientOption {
	return func(c *Client) {
		c.host = host
	}
}

// WithPort sets the daemon TCP port (default: 3310).
func WithPort(port uint16) ClientOption {
	return func(c *Client) {
		c.port = port
	}
}

// WithTLS enables or disables TLS with the default configuration.
func WithTLS(enabled bool) ClientOption {
	return func(c *Client) {
		c.useTLS = enabled
	}
}

// WithTLSConfig enables TLS using the given configuration.
// A nil config reverts to the default configuration.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *Client) {
		c.useTLS = true
		c.tlsConfig = cfg
	}
}

// WithTimeout sets the connect and idle timeout for every session (default: 20s).
// The idle deadline is refreshed on each read and write.
// Non-positive durations are ignored (no-op).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithChunkSize sets the maximum INSTREAM frame payload (default: 64KB).
func WithChunkSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithConcurrency caps the number of simultaneous sessions a directory scan
// opens (default: 10).
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRateLimit paces the start of directory-scan sessions to perSecond with
// the given burst. A non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger used for session diagnostics.
// By default the client logs nothing.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
