package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"testing"
)

type engineErr struct {
	cat     Category
	timeout bool
	cause   error
}

func (e *engineErr) Error() string      { return "engine: " + e.cat.String() }
func (e *engineErr) Category() Category { return e.cat }
func (e *engineErr) Timeout() bool      { return e.timeout }
func (e *engineErr) Temporary() bool    { return false }
func (e *engineErr) Unwrap() error      { return e.cause }

func TestClassify_Nil(t *testing.T) {
	if k := Classify(nil); k != KindNoError {
		t.Fatalf("Classify(nil) = %v", k)
	}
}

func TestClassify_StructuredErrorWins(t *testing.T) {
	inner := NullHandle("op", "client")
	wrapped := fmt.Errorf("outer: %w", &engineErr{cat: CategoryBody, cause: inner})
	if k := Classify(wrapped); k != KindHandleNull {
		t.Fatalf("Classify = %v, want %v", k, KindHandleNull)
	}
}

func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		cat  Category
		want Kind
	}{
		{CategoryTimeout, KindHTTPTimeout},
		{CategoryStatus, KindHTTPStatus},
		{CategoryBuilder, KindHTTPBuilder},
		{CategoryRequest, KindHTTPRequest},
		{CategoryRedirect, KindHTTPRedirect},
		{CategoryBody, KindHTTPBody},
		{CategoryDecode, KindHTTPDecode},
		{CategoryUpgrade, KindHTTPUpgrade},
	}
	for _, tt := range tests {
		t.Run(tt.cat.String(), func(t *testing.T) {
			err := &engineErr{cat: tt.cat, cause: io.ErrUnexpectedEOF}
			if k := Classify(err); k != tt.want {
				t.Fatalf("Classify = %v, want %v", k, tt.want)
			}
		})
	}
}

func TestClassify_TimeoutCheckedFirst(t *testing.T) {
	err := &engineErr{cat: CategoryBody, timeout: true}
	if k := Classify(err); k != KindHTTPTimeout {
		t.Fatalf("Classify = %v, want timeout", k)
	}
	if k := Classify(fmt.Errorf("wait: %w", context.DeadlineExceeded)); k != KindHTTPTimeout {
		t.Fatalf("deadline exceeded = %v", k)
	}
	if k := Classify(os.ErrDeadlineExceeded); k != KindHTTPTimeout {
		t.Fatalf("os deadline = %v", k)
	}
}

func TestClassify_SecondTier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unexpected eof", &engineErr{cause: io.ErrUnexpectedEOF}, KindUnexpectedEOF},
		{"eof", fmt.Errorf("read: %w", io.EOF), KindUnexpectedEOF},
		{"short write", io.ErrShortWrite, KindWriteZero},
		{"missing file", &fs.PathError{Op: "open", Path: "/nope", Err: fs.ErrNotExist}, KindNotFound},
		{"permission", &fs.PathError{Op: "open", Path: "/root", Err: fs.ErrPermission}, KindPermissionDenied},
		{"exists", os.ErrExist, KindAlreadyExists},
		{"closed conn", &net.OpError{Op: "read", Net: "tcp", Err: net.ErrClosed}, KindNotConnected},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}, KindHostUnreachable},
		{"unsupported", errors.ErrUnsupported, KindUnsupported},
		{"plain", errors.New("mystery"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k := Classify(tt.err); k != tt.want {
				t.Fatalf("Classify(%v) = %v, want %v", tt.err, k, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	err := &engineErr{cat: CategoryTimeout}
	first := Classify(err)
	for i := 0; i < 100; i++ {
		if k := Classify(err); k != first {
			t.Fatalf("iteration %d: %v != %v", i, k, first)
		}
	}
	if first != KindHTTPTimeout {
		t.Fatalf("timeout classified as %v", first)
	}
}

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

func TestCodeOf(t *testing.T) {
	if c := CodeOf(Status("http://x", 503)); c != 503 {
		t.Errorf("CodeOf(Status) = %d", c)
	}
	if c := CodeOf(fmt.Errorf("w: %w", statusErr(418))); c != 418 {
		t.Errorf("CodeOf(statusErr) = %d", c)
	}
	if c := CodeOf(errors.New("x")); c != 0 {
		t.Errorf("CodeOf(plain) = %d", c)
	}
}
