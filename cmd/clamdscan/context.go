package main

import (
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	clamd "github.com/DevHatRo/clamd-sdk-go"
	"github.com/DevHatRo/clamd-sdk-go/internal/config"
	"github.com/DevHatRo/clamd-sdk-go/internal/logging"
)

type commandContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFlag  string
	host        string
	port        uint16
	useTLS      bool
	insecure    bool
	timeout     time.Duration
	timeoutSet  bool
	concurrency int
	logLevel    string
	logFile     string

	config   *config.Config
	logger   *logrus.Logger
	closeLog func() error
}

func newCommandContext(stdin io.Reader, stdout, stderr io.Writer) *commandContext {
	return &commandContext{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// load reads the configuration, applies explicitly set flags on top, and
// builds the logger.
func (c *commandContext) load(flags *pflag.FlagSet) error {
	cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return err
	}

	if flags.Changed("host") {
		cfg.Clamd.Host = c.host
	}
	if flags.Changed("port") {
		cfg.Clamd.Port = int(c.port)
	}
	if flags.Changed("tls") {
		cfg.Clamd.TLS = c.useTLS
	}
	if flags.Changed("insecure") {
		cfg.Clamd.InsecureSkipVerify = c.insecure
	}
	c.timeoutSet = flags.Changed("timeout")
	if flags.Changed("concurrency") {
		cfg.Scan.Concurrency = c.concurrency
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(c.logLevel)
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = c.logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Stderr:     c.stderr,
	})
	if err != nil {
		return err
	}

	c.config = cfg
	c.logger = logger
	c.closeLog = closeLog
	return nil
}

func (c *commandContext) close() error {
	if c.closeLog == nil {
		return nil
	}
	return c.closeLog()
}

func (c *commandContext) client() (*clamd.Client, error) {
	opts, err := c.config.ClientOptions(c.logger)
	if err != nil {
		return nil, err
	}
	// --timeout takes sub-second durations the config file cannot express.
	if c.timeoutSet {
		opts = append(opts, clamd.WithTimeout(c.timeout))
	}
	return clamd.NewClient(opts...)
}
