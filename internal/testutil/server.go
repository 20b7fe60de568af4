// Package testutil provides test helpers for the clamd-sdk-go SDK.
package testutil

import (
	"bufio"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Request is one command received by the fake daemon.
type Request struct {
	// Command is the command name without prefix or terminator, e.g. "INSTREAM".
	Command string
	// Data is the de-framed INSTREAM payload.
	Data []byte
	// Frames holds the payload length of every frame in arrival order,
	// including the zero-length terminator.
	Frames []uint32
}

// Handler returns the raw bytes to send back for a request. Returning
// Hangup closes the connection without a reply.
type Handler func(req *Request) string

// Hangup makes the server close the connection without replying.
const Hangup = "\x00hangup"

// Server is an in-process clamd stand-in listening on a loopback port.
type Server struct {
	listener net.Listener
	handler  Handler

	mu       sync.Mutex
	requests []*Request
	wg       sync.WaitGroup
}

// NewServer starts a plain TCP fake daemon. It is closed on test cleanup.
func NewServer(t testing.TB, handler Handler) *Server {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return start(t, l, handler)
}

// NewTLSServer starts a fake daemon behind TLS with a self-signed
// certificate. Clients must skip verification.
func NewTLSServer(t testing.TB, handler Handler) *Server {
	t.Helper()
	cert, err := selfSignedCert()
	if err != nil {
		t.Fatalf("generate certificate: %v", err)
	}
	l, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return start(t, l, handler)
}

func start(t testing.TB, l net.Listener, handler Handler) *Server {
	s := &Server{listener: l, handler: handler}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Host returns the listening IP address.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listening TCP port.
func (s *Server) Port() uint16 {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	p, _ := strconv.ParseUint(port, 10, 16)
	return uint16(p)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// Close stops the listener and waits for open connections to finish.
func (s *Server) Close() {
	s.listener.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	br := bufio.NewReader(conn)
	line, err := br.ReadString('\n')
	if err != nil {
		return
	}
	req := &Request{Command: strings.TrimSuffix(strings.TrimPrefix(line, "n"), "\n")}
	if req.Command == "INSTREAM" {
		req.Data, req.Frames, err = Deframe(br)
		if err != nil {
			return
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	resp := s.handler(req)
	if resp == Hangup {
		return
	}
	io.WriteString(conn, resp) //nolint:errcheck
}

// Deframe reads INSTREAM frames from r until the zero-length terminator and
// returns the concatenated payload and every frame length seen.
func Deframe(r io.Reader) ([]byte, []uint32, error) {
	var (
		data   []byte
		frames []uint32
		header [4]byte
	)
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, frames, fmt.Errorf("read frame header: %w", err)
		}
		n := binary.BigEndian.Uint32(header[:])
		frames = append(frames, n)
		if n == 0 {
			return data, frames, nil
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, frames, fmt.Errorf("read frame payload: %w", err)
		}
		data = append(data, chunk...)
	}
}

// ErrNoCommand is returned by SplitCommand when the input lacks a command line.
var ErrNoCommand = errors.New("testutil: missing command line")

// SplitCommand separates a captured INSTREAM byte sequence into its command
// token and the framed remainder.
func SplitCommand(raw []byte) (string, []byte, error) {
	i := strings.IndexByte(string(raw), '\n')
	if i < 0 {
		return "", nil, ErrNoCommand
	}
	return string(raw[:i+1]), raw[i+1:], nil
}

// Reply returns a Handler that answers every request with resp.
func Reply(resp string) Handler {
	return func(*Request) string { return resp }
}

// CleanResponse is the INSTREAM reply for a clean stream.
const CleanResponse = "stream: OK\n"

// InfectedResponse returns the INSTREAM reply for a stream matching signature.
func InfectedResponse(signature string) string {
	return "stream: " + signature + " FOUND\n"
}

// EICAR is the standard antivirus test string.
const EICAR = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

// ScanHandler answers INSTREAM with an EICAR detection when the payload
// contains the test string and clean otherwise; PING and VERSION get the
// usual replies.
func ScanHandler() Handler {
	return func(req *Request) string {
		switch req.Command {
		case "PING":
			return "PONG\n"
		case "VERSION":
			return "ClamAV 1.0.0/26912/Mon Jun 12 08:00:00 2023\n"
		case "INSTREAM":
			if strings.Contains(string(req.Data), EICAR) {
				return InfectedResponse("Eicar-Test-Signature")
			}
			return CleanResponse
		default:
			return "UNKNOWN COMMAND ERROR\n"
		}
	}
}
