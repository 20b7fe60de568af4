package clamd

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  &Error{Code: CodeConnection, Message: "connection refused"},
			want: "connection refused",
		},
		{
			name: "with cause",
			err:  &Error{Code: CodeConnection, Message: "connection refused", Cause: errors.New("dial tcp")},
			want: "connection refused: dial tcp",
		},
		{
			name: "label not included",
			err:  &Error{Code: CodeDaemon, Message: "UNKNOWN COMMAND", Label: "stream"},
			want: "UNKNOWN COMMAND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{Code: CodeTimeout, Message: "timed out", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	err2 := &Error{Code: CodeTimeout, Message: "timed out"}
	if err2.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestErrorAs(t *testing.T) {
	err := NewConnectionError("connection refused", nil)
	wrapped := fmt.Errorf("request failed: %w", err)

	var target *Error
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find *Error")
	}
	if target.Code != CodeConnection {
		t.Errorf("Code = %q, want %q", target.Code, CodeConnection)
	}
}

func TestErrNoResponse(t *testing.T) {
	err := withLabel(NewProtocolError(msgNoResponse, errors.New("broken pipe")), "file.txt")
	if !errors.Is(err, ErrNoResponse) {
		t.Error("errors.Is should match ErrNoResponse regardless of label and cause")
	}
	if errors.Is(NewProtocolError("Malformed Response[x]", nil), ErrNoResponse) {
		t.Error("other protocol errors must not match ErrNoResponse")
	}
}

func TestWithLabel(t *testing.T) {
	orig := NewTimeoutError("timed out", nil)
	labeled := withLabel(orig, "a.txt")

	var e *Error
	if !errors.As(labeled, &e) || e.Label != "a.txt" {
		t.Errorf("label not applied: %#v", labeled)
	}
	if orig.Label != "" {
		t.Error("withLabel must not mutate its argument")
	}
	if again := withLabel(labeled, "b.txt"); again.(*Error).Label != "a.txt" {
		t.Error("an existing label should be kept")
	}

	plain := errors.New("plain")
	if withLabel(plain, "x") != plain {
		t.Error("non-SDK errors pass through unchanged")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code string
	}{
		{"connection", NewConnectionError("m", nil), CodeConnection},
		{"timeout", NewTimeoutError("m", nil), CodeTimeout},
		{"validation", NewValidationError("m", nil), CodeValidation},
		{"daemon", NewDaemonError("m"), CodeDaemon},
		{"protocol", NewProtocolError("m", nil), CodeProtocol},
		{"filesystem", NewFilesystemError("m", nil), CodeFilesystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message != "m" {
				t.Errorf("Message = %q, want %q", tt.err.Message, "m")
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	preds := map[string]func(error) bool{
		CodeConnection: IsConnectionError,
		CodeTimeout:    IsTimeoutError,
		CodeValidation: IsValidationError,
		CodeDaemon:     IsDaemonError,
		CodeProtocol:   IsProtocolError,
		CodeFilesystem: IsFilesystemError,
	}

	for code, pred := range preds {
		t.Run(code, func(t *testing.T) {
			err := &Error{Code: code, Message: "m"}
			if !pred(err) {
				t.Error("predicate should return true")
			}
			if !pred(fmt.Errorf("wrapped: %w", err)) {
				t.Error("predicate should work through wrapping")
			}
			if pred(errors.New("random error")) {
				t.Error("predicate should return false for non-SDK errors")
			}
			for other := range preds {
				if other != code && pred(&Error{Code: other}) {
					t.Errorf("predicate should return false for %s", other)
				}
			}
		})
	}
}
