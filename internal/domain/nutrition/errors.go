package nutrition

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures inside the resolution pipelines.
type ErrorKind int

const (
	// KindUpstreamUnavailable: network failure, timeout or non-2xx from a collaborator.
	KindUpstreamUnavailable ErrorKind = iota + 1
	// KindMalformedResponse: a collaborator answered but nothing usable could be parsed.
	KindMalformedResponse
	// KindInvalidRequest: the caller sent something the service cannot interpret.
	KindInvalidRequest
	// KindConfiguration: missing credentials or unknown settings at startup.
	KindConfiguration
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedResponse   = errors.New("malformed upstream response")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrConfiguration       = errors.New("configuration error")

	// ErrExtractionFailed is returned by ExtractJSON when neither the whole
	// text nor any balanced object inside it decodes.
	ErrExtractionFailed = errors.New("no JSON object found in model output")
)

func (k ErrorKind) String() string {
	switch k {
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindMalformedResponse:
		return "malformed_response"
	case KindInvalidRequest:
		return "invalid_request"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindConfiguration:
		return ErrConfiguration
	default:
		return nil
	}
}

// Error is the typed failure carried through the pipelines.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError builds an *Error; a nil err is replaced by the kind's sentinel.
func NewError(kind ErrorKind, op string, err error) *Error {
	if err == nil {
		err = kind.sentinel()
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalidRequest(op, msg string) *Error {
	return NewError(KindInvalidRequest, op, errors.New(msg))
}
