package model

import (
	"errors"
	"fmt"

	"github.com/roach88/acterstore/internal/event"
)

// ErrNotFound is returned by readers when no record matches.
var ErrNotFound = errors.New("record not found")

// DecodeErrorCode categorizes decode failures.
type DecodeErrorCode string

const (
	// ErrCodeUnsupportedEvent indicates the event type or shape is not supported.
	ErrCodeUnsupportedEvent DecodeErrorCode = "UNSUPPORTED_EVENT"
)

// DecodeError reports an event the decoder refused. Event is the original
// input, unchanged.
type DecodeError struct {
	Code    DecodeErrorCode
	Message string
	Event   event.Event

	// Err is the underlying cause, if any (e.g. a content unmarshal error).
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s: %s (event=%s, type=%s)", e.Code, e.Message, e.Event.EventID, e.Event.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsUnsupported returns true if err is an unsupported-event decode error.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == ErrCodeUnsupportedEvent
	}
	return false
}

func unsupported(ev event.Event, cause error, format string, args ...any) *DecodeError {
	return &DecodeError{
		Code:    ErrCodeUnsupportedEvent,
		Message: fmt.Sprintf(format, args...),
		Event:   ev,
		Err:     cause,
	}
}
