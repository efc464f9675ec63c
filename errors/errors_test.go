package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if result := test.class.String(); result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"storage unavailable", ErrStorageUnavailable, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"invalid data", ErrInvalidData, false},
		{"source read", ErrSourceRead, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("timeout")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsTransient(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"source read", ErrSourceRead, true},
		{"publish", fmt.Errorf("put key a: %w", ErrPublish), true},
		{"source not found", ErrSourceNotFound, false},
		{"connection timeout", ErrConnectionTimeout, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsFatal(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"wrapped fatal", WrapFatal(errors.New("boom"), "Loader", "Load", "read"), ErrorFatal},
		{"wrapped invalid", WrapInvalid(errors.New("bad"), "Config", "Validate", "check"), ErrorInvalid},
		{"wrapped transient", WrapTransient(errors.New("later"), "KV", "Put", "write"), ErrorTransient},
		{"parsing failed", ErrParsingFailed, ErrorInvalid},
		{"unknown", errors.New("something odd"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := Classify(test.err); result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "c", "m", "a") != nil {
		t.Fatal("wrapping nil must return nil")
	}

	base := errors.New("disk gone")
	err := Wrap(base, "Loader", "Load", "read source")

	if got, want := err.Error(), "Loader.Load: read source failed: disk gone"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match base error")
	}
}

func TestWrapFatal_PreservesChain(t *testing.T) {
	err := WrapFatal(Join(ErrSourceRead, errors.New("unexpected EOF")), "Loader", "Load", "read")

	var ce *ClassifiedError
	if !errors.As(err, &ce) {
		t.Fatal("expected ClassifiedError")
	}
	if ce.Component != "Loader" || ce.Operation != "Load" {
		t.Errorf("unexpected context %s.%s", ce.Component, ce.Operation)
	}
	if !errors.Is(err, ErrSourceRead) {
		t.Error("sentinel lost in wrap chain")
	}
}

func TestJoin(t *testing.T) {
	if Join(ErrPublish, nil) != nil {
		t.Fatal("joining nil must return nil")
	}

	cause := errors.New("nats: timeout")
	err := Join(ErrPublish, cause)
	if !errors.Is(err, ErrPublish) || !errors.Is(err, cause) {
		t.Error("joined error should match both sentinel and cause")
	}
}
