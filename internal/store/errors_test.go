package store

import (
	"errors"
	"fmt"
	"testing"
)

var sentinels = []struct {
	name string
	err  error
}{
	{"ErrWriteFailure", ErrWriteFailure},
	{"ErrInvalidReference", ErrInvalidReference},
	{"ErrInvalidQuery", ErrInvalidQuery},
	{"ErrClosed", ErrClosed},
}

func TestSentinelErrors_Identity(t *testing.T) {
	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Fatal("Sentinel error should not be nil")
			}
			if s.err.Error() == "" {
				t.Fatal("Sentinel error should have a message")
			}
		})
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	for _, s := range sentinels {
		t.Run(s.name+"_wrapped", func(t *testing.T) {
			wrapped := fmt.Errorf("operation failed: %w", s.err)
			if !errors.Is(wrapped, s.err) {
				t.Errorf("errors.Is should return true for wrapped %s", s.name)
			}
		})
	}
}

func TestWriteFailure_WrapsBoth(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := writeFailure("insert journal", cause)

	if !errors.Is(err, ErrWriteFailure) {
		t.Error("expected ErrWriteFailure in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if got := err.Error(); got != "write failure: insert journal: disk I/O error" {
		t.Errorf("unexpected message %q", got)
	}
}
