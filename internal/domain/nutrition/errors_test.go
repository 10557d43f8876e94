package nutrition

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := fmt.Errorf("lookup apple: %w", NewError(KindUpstreamUnavailable, "lookup", cause))

	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Error("errors.Is(err, ErrUpstreamUnavailable) = false")
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("errors.Is(err, ErrMalformedResponse) = true")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should stay reachable through Unwrap")
	}
	if KindOf(err) != KindUpstreamUnavailable {
		t.Errorf("KindOf = %v; want %v", KindOf(err), KindUpstreamUnavailable)
	}
}

func TestNewError_NilCauseUsesSentinel(t *testing.T) {
	t.Parallel()

	err := NewError(KindConfiguration, "config", nil)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatal("expected sentinel as cause")
	}
	if err.Error() != "config: configuration: configuration error" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestKindOf_PlainError(t *testing.T) {
	t.Parallel()

	if KindOf(errors.New("x")) != 0 {
		t.Fatal("KindOf(plain) should be 0")
	}
	if ErrorKind(0).String() != "unknown" {
		t.Fatal("zero kind should print unknown")
	}
}
