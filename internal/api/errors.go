package api

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks a request that could not be built: a bad
// category, period, or base URL. It indicates a caller bug and is not
// retryable.
var ErrInvalidRequest = errors.New("invalid request")

// ServerError is a non-2xx response from the remote API.
type ServerError struct {
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server responded with status %d", e.Code)
}

// DecodingError is a response body that did not match the expected
// schema. Not retryable without a schema fix.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding response: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// TransportError is a connection-level failure: timeout, DNS, TLS.
// Potentially transient.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Describe classifies a fetch error into a short user-facing message.
// The underlying cause stays out of the message; it belongs in logs.
func Describe(err error) string {
	var (
		serverErr    *ServerError
		decodingErr  *DecodingError
		transportErr *TransportError
	)
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "The request is invalid. Please try again."
	case errors.As(err, &serverErr):
		return fmt.Sprintf("Server responded with an error: %d.", serverErr.Code)
	case errors.As(err, &decodingErr):
		return "Failed to process the data received."
	case errors.As(err, &transportErr):
		return "Failed to fetch data from the server. Please check your connection."
	default:
		return "An unknown error occurred. Please try again later."
	}
}
