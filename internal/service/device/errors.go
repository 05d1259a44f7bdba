package device

import (
	"errors"
	"fmt"
)

// Kind classifies a poll failure.
type Kind string

const (
	// KindNetwork covers connection, timeout and transport failures.
	KindNetwork Kind = "network"
	// KindStatus is a non-2xx HTTP response.
	KindStatus Kind = "status"
	// KindParse is malformed XML or a document missing devices or alarms.
	KindParse Kind = "parse"
)

var (
	// ErrUnexpectedStatus is wrapped by status failures.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrParse is wrapped by parse failures.
	ErrParse = errors.New("malformed device data")
)

// PollError describes why polling one host failed.
type PollError struct {
	// Host is the polled host as configured.
	Host string
	// Kind classifies the failure.
	Kind Kind
	// StatusCode is set for KindStatus.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *PollError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("poll %s: %s %d: %v", e.Host, e.Kind, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("poll %s: %s: %v", e.Host, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PollError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a poll failure, or "" for other errors.
func KindOf(err error) Kind {
	var pollErr *PollError
	if errors.As(err, &pollErr) {
		return pollErr.Kind
	}

	return ""
}
