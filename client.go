package clamd

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// defaultLabel names scans of readers that carry no name of their own.
const defaultLabel = "stream"

// Client talks to a clamd daemon over TCP or TLS.
// Every call opens its own connection, so a Client is safe for concurrent
// use from multiple goroutines.
type Client struct {
	host        string
	port        uint16
	useTLS      bool
	tlsConfig   *tls.Config
	timeout     time.Duration
	chunkSize   int
	concurrency int
	limiter     *rate.Limiter
	logger      logrus.FieldLogger
}

// NewClient creates a clamd client. Without options it connects to
// localhost:3310 in plain TCP with a 20 second timeout.
func NewClient(opts ...ClientOption) (*Client, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		host:        defaultHost,
		port:        defaultPort,
		timeout:     defaultTimeout,
		chunkSize:   defaultChunkSize,
		concurrency: defaultConcurrency,
		logger:      discard,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.host == "" {
		return nil, NewValidationError("host must not be empty", nil)
	}
	if c.port == 0 {
		return nil, NewValidationError("port must be greater than 0", nil)
	}

	return c, nil
}

// Addr returns the daemon address in host:port form.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(int(c.port)))
}

// Ping checks that the daemon is reachable and answers PONG.
func (c *Client) Ping(ctx context.Context) error {
	s, err := c.open(ctx, "PING", "")
	if err != nil {
		return err
	}

	rp := s.exchange(writeCommand(cmdPing), false)
	if !rp.complete {
		if errors.Is(rp.readErr, io.EOF) {
			return NewProtocolError(msgInvalid+"("+rp.line+")", io.ErrUnexpectedEOF)
		}
		return s.failure(ctx, rp)
	}

	if err := parsePingResponse(rp.line); err != nil {
		s.log.WithField("response", rp.line).Warn("unexpected ping response")
		return err
	}
	s.log.Debug("clamd answered PONG")
	return nil
}

// Version returns the version line reported by the daemon.
func (c *Client) Version(ctx context.Context) (*VersionResult, error) {
	s, err := c.open(ctx, "VERSION", "")
	if err != nil {
		return nil, err
	}

	rp := s.exchange(writeCommand(cmdVersion), false)
	if !rp.complete {
		if errors.Is(rp.readErr, io.EOF) {
			return nil, NewProtocolError(msgInvalid, io.ErrUnexpectedEOF)
		}
		return nil, s.failure(ctx, rp)
	}

	v, err := parseVersionResponse(rp.line)
	if err != nil {
		s.log.Warn("empty version response")
		return nil, err
	}
	s.log.WithField("version", v.Raw).Debug("clamd version received")
	return v, nil
}

// Scan dispatches on target: a string is scanned as a filesystem path (see
// ScanPath), an io.Reader as a single stream labeled "stream". fn receives
// one result per scanned stream, errors included, on the calling goroutine.
func (c *Client) Scan(ctx context.Context, target any, fn func(*ScanResult)) error {
	if fn == nil {
		return NewValidationError("result callback is required", nil)
	}

	switch t := target.(type) {
	case string:
		return c.ScanPathCallback(ctx, t, fn)
	case io.Reader:
		result, err := c.ScanReader(ctx, t, defaultLabel)
		if err != nil {
			result = errorResult(defaultLabel, err)
		}
		fn(result)
		return nil
	default:
		return NewValidationError(fmt.Sprintf("unsupported scan target %T", target), nil)
	}
}

// ScanStream scans r. The result is labeled with r's Name() when r has one,
// such as an *os.File, and "stream" otherwise.
func (c *Client) ScanStream(ctx context.Context, r io.Reader) (*ScanResult, error) {
	label := defaultLabel
	if named, ok := r.(interface{ Name() string }); ok && named.Name() != "" {
		label = named.Name()
	}
	return c.ScanReader(ctx, r, label)
}

// ScanBytes scans an in-memory buffer.
func (c *Client) ScanBytes(ctx context.Context, data []byte, label string) (*ScanResult, error) {
	return c.ScanReader(ctx, bytes.NewReader(data), label)
}

// ScanFile opens path and scans its contents. The result is labeled with path.
func (c *Client) ScanFile(ctx context.Context, path string) (*ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, withLabel(NewFilesystemError("failed to open file: "+path, err), path)
	}
	defer f.Close()

	return c.ScanReader(ctx, f, path)
}

// ScanReader streams r to the daemon with the INSTREAM command and returns
// its verdict. r is read in chunks and never buffered whole.
//
// An infected stream is not an error: the result has Status "FOUND" and the
// signature name in Message. Errors reported by the daemon, malformed
// replies, and transport failures are returned as *Error.
func (c *Client) ScanReader(ctx context.Context, r io.Reader, label string) (*ScanResult, error) {
	if r == nil {
		return nil, NewValidationError("reader is required", nil)
	}
	if label == "" {
		label = defaultLabel
	}

	start := time.Now()
	s, err := c.open(ctx, "INSTREAM", label)
	if err != nil {
		return nil, withLabel(err, label)
	}

	rp := s.exchange(c.streamTo(r), true)
	elapsed := time.Since(start)

	var sourceErr *sourceError
	switch {
	case rp.complete:
	case errors.As(rp.writeErr, &sourceErr):
		s.log.WithError(sourceErr.err).Warn("reading scan input failed")
		return nil, withLabel(NewValidationError("failed to read data", sourceErr.err), label)
	case errors.Is(rp.readErr, io.EOF):
		s.log.Warn("clamd closed the connection without a verdict")
		return nil, withLabel(NewProtocolError(msgNoResponse, rp.writeErr), label)
	default:
		err := s.failure(ctx, rp)
		s.log.WithError(err).Warn("scan session failed")
		return nil, withLabel(err, label)
	}

	status, message, err := parseScanResponse(rp.line)
	if err != nil {
		s.log.WithError(err).Warn("clamd rejected scan")
		return nil, withLabel(err, label)
	}

	result := &ScanResult{
		Status:   status,
		Message:  message,
		Filename: label,
		ScanTime: elapsed,
	}
	if result.IsInfected() {
		s.log.WithField("signature", message).Info("signature found")
	} else {
		s.log.WithField("elapsed", elapsed).Debug("stream clean")
	}
	return result, nil
}

// streamTo returns the write half of a scan session: r framed through a
// StreamWriter.
func (c *Client) streamTo(r io.Reader) func(io.Writer) error {
	return func(w io.Writer) error {
		sw := NewStreamWriter(w, c.chunkSize)
		buf := make([]byte, c.chunkSize)
		for {
			n, readErr := r.Read(buf)
			if n > 0 {
				if _, err := sw.Write(buf[:n]); err != nil {
					return err
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				return &sourceError{err: readErr}
			}
		}
		return sw.Close()
	}
}

func writeCommand(cmd string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, cmd)
		return err
	}
}
