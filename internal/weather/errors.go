package weather

import (
	"errors"
)

// Kind is the closed set of failures a weather request can end in.
type Kind int

const (
	KindInvalidURL Kind = iota + 1
	KindNetworkFailed
	KindDecodeFailed
	KindSerializationFailed
	KindLocationUnavailable
)

// String returns the stable code exposed to sinks.
func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindNetworkFailed:
		return "network_failed"
	case KindDecodeFailed:
		return "decode_failed"
	case KindSerializationFailed:
		return "serialization_failed"
	case KindLocationUnavailable:
		return "location_unavailable"
	default:
		return "unknown"
	}
}

func (k Kind) description() string {
	switch k {
	case KindInvalidURL:
		return "error building URL"
	case KindNetworkFailed:
		return "network failed"
	case KindDecodeFailed:
		return "could not decode the weather data"
	case KindSerializationFailed:
		return "invalid data from the weather service"
	case KindLocationUnavailable:
		return "unable to find the user's location"
	default:
		return "unknown weather error"
	}
}

// Error is a weather failure. Error() is the technical description for logs;
// Message() is what the user sees.
type Error struct {
	Kind Kind
	Err  error
}

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrInvalidURL          = &Error{Kind: KindInvalidURL}
	ErrNetworkFailed       = &Error{Kind: KindNetworkFailed}
	ErrDecodeFailed        = &Error{Kind: KindDecodeFailed}
	ErrSerializationFailed = &Error{Kind: KindSerializationFailed}
	ErrLocationUnavailable = &Error{Kind: KindLocationUnavailable}
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.description() + ": " + e.Err.Error()
	}
	return e.Kind.description()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind and no cause, i.e. the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Message is the user-facing text. Decode and serialization failures share it.
func (e *Error) Message() string {
	switch e.Kind {
	case KindInvalidURL:
		return "Invalid City name. Please try again."
	case KindNetworkFailed:
		return "We are having trouble connecting to the weather service. Please try later."
	case KindLocationUnavailable:
		return "We are unable to find your location. Please check the location permissions again."
	default:
		return "Something went wrong. Please try later."
	}
}

// LocationUnavailable wraps a location provider failure.
func LocationUnavailable(err error) *Error {
	return newError(KindLocationUnavailable, err)
}

// AsError returns err as a *Error. Errors from outside the taxonomy are
// reported as network failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var we *Error
	if errors.As(err, &we) {
		return we
	}
	return newError(KindNetworkFailed, err)
}
