package clamd

import (
	"encoding/binary"
	"errors"
	"io"
	"iter"
)

const (
	cmdInstream = "nINSTREAM\n"
	cmdPing     = "nPING\n"
	cmdVersion  = "nVERSION\n"
)

var errWriteAfterClose = errors.New("clamd: write to closed stream writer")

// StreamWriter frames bytes written to it into the clamd INSTREAM format:
// the nINSTREAM command once, a 4-byte big-endian length before each chunk,
// and a single zero-length frame on Close.
//
// StreamWriter does not buffer; each Write goes straight to the underlying
// writer as one or more frames of at most chunkSize bytes.
type StreamWriter struct {
	w         io.Writer
	chunkSize int
	started   bool
	closed    bool
	header    [4]byte
}

// NewStreamWriter returns a StreamWriter writing frames to w.
// A non-positive chunkSize selects the 64KB default.
func NewStreamWriter(w io.Writer, chunkSize int) *StreamWriter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &StreamWriter{w: w, chunkSize: chunkSize}
}

// Write emits p as length-prefixed frames. Empty writes emit nothing.
func (s *StreamWriter) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errWriteAfterClose
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.start(); err != nil {
		return 0, err
	}

	written := 0
	for len(p) > 0 {
		n := min(len(p), s.chunkSize)
		if err := s.frame(p[:n]); err != nil {
			return written, err
		}
		written += n
		p = p[n:]
	}
	return written, nil
}

// Close emits the zero-length terminator frame. An input that never produced
// a Write still yields the command followed by the terminator.
// Calling Close more than once is a no-op.
func (s *StreamWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.start(); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(s.header[:], 0)
	_, err := s.w.Write(s.header[:])
	return err
}

func (s *StreamWriter) start() error {
	if s.started {
		return nil
	}
	s.started = true
	_, err := io.WriteString(s.w, cmdInstream)
	return err
}

func (s *StreamWriter) frame(chunk []byte) error {
	binary.BigEndian.PutUint32(s.header[:], uint32(len(chunk)))
	if _, err := s.w.Write(s.header[:]); err != nil {
		return err
	}
	_, err := s.w.Write(chunk)
	return err
}

// Frames lazily converts a sequence of chunks into the INSTREAM wire
// sequence. It yields the command token, then a length prefix and payload
// for every non-empty chunk, and finally the zero-length terminator.
// Stopping iteration early suppresses the terminator.
func Frames(chunks iter.Seq[[]byte]) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if !yield([]byte(cmdInstream)) {
			return
		}
		for chunk := range chunks {
			if len(chunk) == 0 {
				continue
			}
			if !yield(binary.BigEndian.AppendUint32(nil, uint32(len(chunk)))) {
				return
			}
			if !yield(chunk) {
				return
			}
		}
		yield(make([]byte, 4))
	}
}
