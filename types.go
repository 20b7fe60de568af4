package clamd

import (
	"strings"
	"time"
)

// Scan status values.
const (
	StatusOK    = "OK"
	StatusFound = "FOUND"
	StatusError = "ERROR"
)

// ScanResult represents the result of a virus scan.
type ScanResult struct {
	// Status is "OK" (clean), "FOUND" (infected), or "ERROR".
	Status string `json:"status"`
	// Message contains the signature name if infected, error description if error, or empty if clean.
	Message string `json:"message"`
	// Filename is the scan label: the file path, or "stream" for anonymous readers.
	Filename string `json:"filename,omitempty"`
	// ScanTime is the wall time of the session, from dial to verdict.
	ScanTime time.Duration `json:"time"`
	// Err is the typed error behind an "ERROR" status. It is only set on
	// results delivered by ScanPath, ScanPathCallback and Scan.
	Err error `json:"-"`
}

// IsInfected returns true if the scan found a virus.
func (r *ScanResult) IsInfected() bool {
	return r.Status == StatusFound
}

// IsClean returns true if the file is clean.
func (r *ScanResult) IsClean() bool {
	return r.Status == StatusOK
}

// errorResult converts a failed scan into a result carrying the error.
func errorResult(label string, err error) *ScanResult {
	return &ScanResult{
		Status:   StatusError,
		Message:  err.Error(),
		Filename: label,
		Err:      withLabel(err, label),
	}
}

// VersionResult contains the version reported by clamd.
type VersionResult struct {
	// Raw is the reply line exactly as the daemon sent it.
	Raw string `json:"raw"`
	// Engine is the ClamAV engine version, e.g. "1.0.0".
	Engine string `json:"engine,omitempty"`
	// Signatures is the signature database version, e.g. "26912".
	Signatures string `json:"signatures,omitempty"`
	// SignatureDate is the build date of the signature database, as reported.
	SignatureDate string `json:"signature_date,omitempty"`
}

// String returns the raw version line.
func (v *VersionResult) String() string {
	return v.Raw
}

// parseVersion splits "ClamAV <engine>/<signatures>/<date>". Missing parts stay empty.
func parseVersion(line string) *VersionResult {
	v := &VersionResult{Raw: line}
	rest, ok := strings.CutPrefix(line, "ClamAV ")
	if !ok {
		return v
	}
	parts := strings.SplitN(rest, "/", 3)
	v.Engine = parts[0]
	if len(parts) > 1 {
		v.Signatures = parts[1]
	}
	if len(parts) > 2 {
		v.SignatureDate = parts[2]
	}
	return v
}
