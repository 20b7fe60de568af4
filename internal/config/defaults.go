package config

const (
	defaultHost           = "localhost"
	defaultPort           = 3310
	defaultTimeoutSeconds = 20
	defaultChunkSize      = 64 * 1024
	defaultConcurrency    = 10
	defaultRateBurst      = 1
	defaultLogLevel       = "warn"
	defaultLogFormat      = "text"
	defaultLogMaxSizeMB   = 10
	defaultLogMaxBackups  = 3
	defaultConfigPath     = "~/.config/clamdscan/config.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Clamd: Clamd{
			Host:           defaultHost,
			Port:           defaultPort,
			TimeoutSeconds: defaultTimeoutSeconds,
			ChunkSize:      defaultChunkSize,
		},
		Scan: Scan{
			Concurrency: defaultConcurrency,
			RateBurst:   defaultRateBurst,
		},
		Logging: Logging{
			Level:      defaultLogLevel,
			Format:     defaultLogFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
