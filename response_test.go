package clamd

import (
	"testing"
)

func TestParseScanResponse(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantStatus  string
		wantMessage string
		wantErr     string
		wantCode    string
	}{
		{name: "clean", line: "stream: OK", wantStatus: StatusOK},
		{name: "infected", line: "stream: Eicar-Test-Signature FOUND", wantStatus: StatusFound, wantMessage: "Eicar-Test-Signature"},
		{name: "signature with spaces", line: "stream: Win.Test Sig FOUND", wantStatus: StatusFound, wantMessage: "Win.Test Sig"},
		{name: "daemon error", line: "UNKNOWN COMMAND ERROR", wantErr: "UNKNOWN COMMAND", wantCode: CodeDaemon},
		{name: "size limit", line: "INSTREAM size limit exceeded. ERROR", wantErr: "INSTREAM size limit exceeded.", wantCode: CodeDaemon},
		{name: "garbage", line: "garbage", wantErr: "Malformed Response[garbage]", wantCode: CodeProtocol},
		{name: "empty", line: "", wantErr: "Malformed Response[]", wantCode: CodeProtocol},
		{name: "bare error", line: " ERROR", wantErr: "Malformed Response[ ERROR]", wantCode: CodeProtocol},
		{name: "found without name", line: "stream:  FOUND", wantErr: "Malformed Response[stream:  FOUND]", wantCode: CodeProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message, err := parseScanResponse(tt.line)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q", tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
				}
				if !hasCode(err, tt.wantCode) {
					t.Errorf("error code mismatch, want %s: %#v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if message != tt.wantMessage {
				t.Errorf("message = %q, want %q", message, tt.wantMessage)
			}
		})
	}
}

func TestResponseBuffer(t *testing.T) {
	var b responseBuffer
	if b.append([]byte("stream: ")) {
		t.Error("no newline yet")
	}
	if !b.append([]byte("OK\ntrailing")) {
		t.Error("newline should be detected")
	}
	if got := b.line(); got != "stream: OK" {
		t.Errorf("line = %q, want %q", got, "stream: OK")
	}
}

func TestParseVersion(t *testing.T) {
	v := parseVersion("ClamAV 1.0.0/26912/Mon Jun 12 08:00:00 2023")
	if v.Engine != "1.0.0" || v.Signatures != "26912" || v.SignatureDate != "Mon Jun 12 08:00:00 2023" {
		t.Errorf("unexpected parse: %+v", v)
	}

	v = parseVersion("ClamAV 1.0.0")
	if v.Raw != "ClamAV 1.0.0" || v.Engine != "1.0.0" || v.Signatures != "" {
		t.Errorf("unexpected parse: %+v", v)
	}

	v = parseVersion("something else")
	if v.Raw != "something else" || v.Engine != "" {
		t.Errorf("unexpected parse: %+v", v)
	}
}

func TestParsePingResponse(t *testing.T) {
	if err := parsePingResponse("PONG"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := parsePingResponse("WAT")
	if err == nil || err.Error() != "Invalid response(WAT)" {
		t.Errorf("error = %v, want Invalid response(WAT)", err)
	}
}
