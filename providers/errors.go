package providers

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the failures a provider can produce.
type ErrorKind int

const (
	KindNotImplemented ErrorKind = iota + 1
	KindTransport
	KindBadResponse
	KindMalformedData
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotImplemented:
		return "not_implemented"
	case KindTransport:
		return "transport"
	case KindBadResponse:
		return "bad_response"
	case KindMalformedData:
		return "malformed_data"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on a kind.
var (
	ErrNotImplemented = errors.New("provider not implemented")
	ErrTransport      = errors.New("transport error")
	ErrBadResponse    = errors.New("bad response")
	ErrMalformedData  = errors.New("malformed data")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotImplemented:
		return ErrNotImplemented
	case KindTransport:
		return ErrTransport
	case KindBadResponse:
		return ErrBadResponse
	case KindMalformedData:
		return ErrMalformedData
	default:
		return nil
	}
}

// malformedHint is attached to every MalformedData error.
const malformedHint = "upstream response did not match the expected shape; the provider API may have changed"

// CreationError is returned by New for an unrecognized provider identifier.
type CreationError struct {
	Kind     ErrorKind
	Identity string
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("provider %q is not implemented", e.Identity)
}

func (e *CreationError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// FetchError is returned by Provider.GetWeather.
type FetchError struct {
	Kind     ErrorKind
	Provider string
	// Step names the upstream call that failed, e.g. "geocode" or "current".
	Step string
	// Message is the upstream text for BadResponse, or a diagnostic otherwise.
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	prefix := e.Provider
	if e.Step != "" {
		prefix += " " + e.Step
	}

	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("%s: request failed: %v", prefix, e.Err)
	case KindBadResponse:
		return fmt.Sprintf("%s: bad response: %s", prefix, e.Message)
	case KindMalformedData:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s (%s): %v", prefix, e.Message, malformedHint, e.Err)
		}
		return fmt.Sprintf("%s: %s (%s)", prefix, e.Message, malformedHint)
	default:
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf reports the ErrorKind carried by err, or 0 when err is not a
// provider error.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var ce *CreationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func transportError(provider, step string, err error) error {
	return &FetchError{Kind: KindTransport, Provider: provider, Step: step, Err: err}
}

func badResponse(provider, step, message string) error {
	return &FetchError{Kind: KindBadResponse, Provider: provider, Step: step, Message: message}
}

func malformed(provider, step, message string, err error) error {
	return &FetchError{Kind: KindMalformedData, Provider: provider, Step: step, Message: message, Err: err}
}
