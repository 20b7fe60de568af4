package clamd

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// session is one connection bound to exactly one command. It is never reused.
type session struct {
	conn *idleConn
	log  logrus.FieldLogger

	closeOnce sync.Once
	stopWatch func() bool
}

// reply is what a session collected before it was closed.
type reply struct {
	line     string
	complete bool
	// readErr is io.EOF when the daemon closed before sending a newline.
	readErr  error
	writeErr error
}

// sourceError marks a failure reading the caller's input, as opposed to
// writing to the daemon.
type sourceError struct {
	err error
}

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

// open dials the daemon and returns a session for command. label is empty
// for administrative commands.
func (c *Client) open(ctx context.Context, command, label string) (*session, error) {
	addr := c.Addr()
	log := c.logger.WithFields(logrus.Fields{
		"session": uuid.NewString(),
		"command": command,
		"addr":    addr,
	})
	if label != "" {
		log = log.WithField("label", label)
	}
	log.Debug("connecting to clamd")

	dialer := &net.Dialer{Timeout: c.timeout}
	var (
		conn net.Conn
		err  error
	)
	if c.useTLS {
		td := &tls.Dialer{NetDialer: dialer, Config: c.tlsConfig}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		log.WithError(err).Warn("clamd connection failed")
		return nil, classifyNetError(ctx, "failed to connect to clamd at "+addr, err)
	}

	s := &session{
		conn: &idleConn{Conn: conn, timeout: c.timeout},
		log:  log,
	}
	// Cancellation closes the socket, which unblocks any pending read or write.
	s.stopWatch = context.AfterFunc(ctx, s.close)
	return s, nil
}

// exchange runs write on its own goroutine while reading the reply on the
// calling one, then closes the session. With halfClose set, the write side
// is shut down once write returns so the daemon sees end of input.
func (s *session) exchange(write func(io.Writer) error, halfClose bool) reply {
	writeDone := make(chan error, 1)
	go func() {
		err := write(s.conn)
		if err == nil && halfClose {
			err = s.conn.CloseWrite()
		}
		if err != nil {
			// Unblock the reader; the daemon will not answer a partial request.
			s.close()
		}
		writeDone <- err
	}()

	line, complete, readErr := s.readLine()
	s.stopWatch()
	s.close()
	writeErr := <-writeDone

	return reply{
		line:     line,
		complete: complete,
		readErr:  readErr,
		writeErr: writeErr,
	}
}

// readLine accumulates reply bytes until the first newline or until the
// connection ends.
func (s *session) readLine() (string, bool, error) {
	var resp responseBuffer
	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 && resp.append(buf[:n]) {
			return resp.line(), true, nil
		}
		if resp.len() > maxResponseSize {
			return resp.line(), false, NewProtocolError("response exceeds "+strconv.Itoa(maxResponseSize)+" bytes without a newline", nil)
		}
		if err != nil {
			return resp.line(), false, err
		}
	}
}

// close releases the socket. Every terminal path funnels through here, and
// only the first call has any effect.
func (s *session) close() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Debug("closing clamd connection")
		}
	})
}

// failure converts an incomplete reply into an error, for the cases every
// command shares: cancellation, timeouts, and transport failures.
func (s *session) failure(ctx context.Context, rp reply) error {
	var pe *Error
	if errors.As(rp.readErr, &pe) {
		return pe
	}
	err := rp.readErr
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		if rp.writeErr != nil {
			err = rp.writeErr
		}
	}
	return classifyNetError(ctx, "clamd connection failed", err)
}

// classifyNetError maps transport errors to SDK error types.
func classifyNetError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return NewTimeoutError("request timed out", ctxErr)
		}
		return NewTimeoutError("request canceled", ctxErr)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return NewTimeoutError(msgTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(msgTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewConnectionError("DNS resolution failed", err)
	}
	return NewConnectionError(msg, err)
}

// idleConn applies a flat idle timeout: every read or write pushes the
// deadline of both directions forward, so a long upload keeps a pending
// read alive.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *idleConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

// CloseWrite shuts down the sending side, leaving the reply readable.
func (c *idleConn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}
