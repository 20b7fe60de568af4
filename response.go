package clamd

import (
	"bytes"
	"strings"
)

// maxResponseSize bounds how much reply data a session accumulates while
// waiting for a newline. clamd replies are a single short line.
const maxResponseSize = 64 * 1024

// responseBuffer accumulates reply bytes until the first newline.
type responseBuffer struct {
	buf bytes.Buffer
}

// append adds p and reports whether a complete line is now available.
func (b *responseBuffer) append(p []byte) bool {
	b.buf.Write(p)
	return bytes.IndexByte(b.buf.Bytes(), '\n') >= 0
}

func (b *responseBuffer) len() int {
	return b.buf.Len()
}

// line returns the accumulated text up to, not including, the first newline.
// Anything after the newline is discarded.
func (b *responseBuffer) line() string {
	data := b.buf.Bytes()
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

// parseScanResponse maps one INSTREAM reply line to a status and message,
// or to an error when the daemon reported one or the line is unrecognised.
func parseScanResponse(line string) (status, message string, err error) {
	if sig, ok := strings.CutPrefix(line, "stream: "); ok {
		if name, ok := strings.CutSuffix(sig, " FOUND"); ok && name != "" {
			return StatusFound, name, nil
		}
	}
	if line == "stream: OK" {
		return StatusOK, "", nil
	}
	if i := strings.LastIndex(line, " ERROR"); i > 0 {
		return "", "", NewDaemonError(line[:i])
	}
	return "", "", NewProtocolError("Malformed Response["+line+"]", nil)
}

func parsePingResponse(line string) error {
	if line != "PONG" {
		return NewProtocolError(msgInvalid+"("+line+")", nil)
	}
	return nil
}

func parseVersionResponse(line string) (*VersionResult, error) {
	if line == "" {
		return nil, NewProtocolError(msgInvalid, nil)
	}
	return parseVersion(line), nil
}
