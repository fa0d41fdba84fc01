package bot

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed platform call.
type ErrorKind int

const (
	// NetworkFailure covers connection, DNS, timeout and 5xx errors.
	NetworkFailure ErrorKind = iota + 1
	// MalformedResponse means the body was not the expected JSON envelope.
	MalformedResponse
	// PlatformRejected means the API answered ok=false.
	PlatformRejected
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case MalformedResponse:
		return "malformed response"
	case PlatformRejected:
		return "platform rejected"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	ErrNetworkFailure    = errors.New("network failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrPlatformRejected  = errors.New("platform rejected request")
)

// TransportError is returned by every Bot method that talks to the platform.
// errors.Is matches it against the sentinel of its Kind.
type TransportError struct {
	Kind        ErrorKind
	Op          string
	StatusCode  int
	Code        int
	Description string
	Err         error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *TransportError) sentinel() error {
	switch e.Kind {
	case NetworkFailure:
		return ErrNetworkFailure
	case MalformedResponse:
		return ErrMalformedResponse
	default:
		return ErrPlatformRejected
	}
}

// KindOf returns the kind of a transport error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
