package relay

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable cause carried by a failed relay call.
type Reason string

const (
	ReasonConnection         Reason = "connection_error"
	ReasonHTTPStatus         Reason = "http_status"
	ReasonSessionUnavailable Reason = "session_unavailable"
	ReasonStreamInterrupted  Reason = "stream_interrupted"
	ReasonDecode             Reason = "decode_error"
	ReasonUnexpected         Reason = "unexpected"
)

var fallbackMessages = map[Reason]string{
	ReasonConnection:         "Unable to connect to HornsIQ knowledge base. Using fallback response.",
	ReasonHTTPStatus:         "Error communicating with HornsIQ. Please try again.",
	ReasonSessionUnavailable: "HornsIQ is unavailable right now. Please try again shortly.",
}

const genericFallback = "An unexpected error occurred."

// UserMessage returns the user-facing fallback text for r.
func (r Reason) UserMessage() string {
	if msg, ok := fallbackMessages[r]; ok {
		return msg
	}
	return genericFallback
}

// Failure is the error type returned by every backend call.
type Failure struct {
	Reason Reason
	// Status is the upstream HTTP status for ReasonHTTPStatus.
	Status int
	Err    error
}

func (f *Failure) Error() string {
	switch f.Reason {
	case ReasonConnection:
		return fmt.Sprintf("Connection error: %v", f.Err)
	case ReasonHTTPStatus:
		return fmt.Sprintf("HTTP error: %d", f.Status)
	case ReasonSessionUnavailable:
		return fmt.Sprintf("session unavailable: %v", f.Err)
	}
	if f.Err == nil {
		return string(f.Reason)
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// asFailure classifies err, defaulting to ReasonUnexpected.
func asFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Reason: ReasonUnexpected, Err: err}
}
