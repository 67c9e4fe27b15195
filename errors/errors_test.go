package errors

import (
	"errors"
	"testing"
)

func TestConnectionFailureIsTransient(t *testing.T) {
	cf := &ConnectionFailure{Op: "current", URL: "http://agent/current", Err: errors.New("dial tcp: timeout")}
	if !IsTransient(cf) {
		t.Fatalf("expected ConnectionFailure to be transient")
	}
}

func TestConnectionFailureCancelled(t *testing.T) {
	cf := NewCancelledFailure("sample", "http://agent/sample")
	if !cf.Cancelled {
		t.Fatalf("expected cancelled marker to be set")
	}
	if cf.Error() == "" {
		t.Fatalf("expected non-empty error message")
	}
}

func TestProtocolErrorUnwrap(t *testing.T) {
	native := errors.New("NO_DEVICE")
	pe := &ProtocolError{Op: "probe", URL: "http://agent/probe", Code: "NO_DEVICE", Message: "device not found", NativeErr: native}
	if !errors.Is(pe, native) {
		t.Fatalf("expected errors.Is to unwrap to native error")
	}
	if !IsTransient(pe) {
		t.Fatalf("expected ProtocolError to be treated as transient for retry purposes")
	}
}

func TestTransportErrorIsTransient(t *testing.T) {
	te := &TransportError{Op: "current", URL: "http://agent/current", Payload: []byte("not xml"), Err: errors.New("xml: syntax error")}
	if !IsTransient(te) {
		t.Fatalf("expected TransportError to be treated as transient")
	}
}

func TestWrapPreservesClassification(t *testing.T) {
	base := errors.New("boom")
	wrapped := WrapFatal(base, "config", "Load", "read file")
	if !IsFatal(wrapped) {
		t.Fatalf("expected wrapped error to be classified fatal")
	}
	if IsTransient(wrapped) {
		t.Fatalf("fatal error should not also classify as transient")
	}
}

func TestWrapInvalid(t *testing.T) {
	wrapped := WrapInvalid(ErrInvalidData, "document", "Decode", "parse body")
	if !IsInvalid(wrapped) {
		t.Fatalf("expected wrapped error to be classified invalid")
	}
	if !errors.Is(wrapped, ErrInvalidData) {
		t.Fatalf("expected errors.Is chain to reach ErrInvalidData")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(nil, "c", "m", "a") != nil {
		t.Fatalf("expected nil passthrough")
	}
	if WrapTransient(nil, "c", "m", "a") != nil {
		t.Fatalf("expected nil passthrough")
	}
}
