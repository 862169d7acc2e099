package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies staging errors.
type ErrorKind int

const (
	// MalformedConfigLine indicates a key=value line could not be split on '='.
	MalformedConfigLine ErrorKind = iota
	// MalformedArrayValue indicates a list value not wrapped in exactly one bracket pair.
	MalformedArrayValue
	// RemoteStatusError indicates a non-200 HTTP response.
	RemoteStatusError
	// PreconditionViolation indicates the filesystem is not in the state an operation requires.
	PreconditionViolation
	// MissingProfileKey indicates the network profile lacks a required key.
	MissingProfileKey
	// ExtractionFailed indicates an archive could not be unpacked.
	ExtractionFailed
	// IOFailure wraps transport and filesystem failures.
	IOFailure
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case MalformedConfigLine:
		return "MalformedConfigLine"
	case MalformedArrayValue:
		return "MalformedArrayValue"
	case RemoteStatusError:
		return "RemoteStatusError"
	case PreconditionViolation:
		return "PreconditionViolation"
	case MissingProfileKey:
		return "MissingProfileKey"
	case ExtractionFailed:
		return "ExtractionFailed"
	case IOFailure:
		return "IOFailure"
	default:
		return "Unknown"
	}
}

// StageError is the error type shared by the staging components.
type StageError struct {
	// Kind classifies the error.
	Kind ErrorKind
	// Message is the human-readable error message.
	Message string
	// Path is the file or directory involved, if any.
	Path string
	// Line is the 1-indexed line number for parse errors (0 if unknown).
	Line int
	// URL is the remote location for HTTP errors.
	URL string
	// StatusCode is the HTTP status for RemoteStatusError.
	StatusCode int
	// Key is the missing profile key for MissingProfileKey.
	Key string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	switch {
	case e.Path != "" && e.Line > 0:
		fmt.Fprintf(&b, " (%s:%d)", e.Path, e.Line)
	case e.Path != "":
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " [url: %s", e.URL)
		if e.StatusCode != 0 {
			fmt.Fprintf(&b, ", status: %d", e.StatusCode)
		}
		b.WriteString("]")
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " [key: %s]", e.Key)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether any StageError in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *StageError
	for err != nil {
		if !errors.As(err, &se) {
			return false
		}
		if se.Kind == kind {
			return true
		}
		err = se.Cause
	}
	return false
}

// NewMalformedLineError creates a MalformedConfigLine error.
func NewMalformedLineError(path string, line int, text string) *StageError {
	return &StageError{
		Kind:    MalformedConfigLine,
		Message: fmt.Sprintf("cannot split %q on '='", text),
		Path:    path,
		Line:    line,
	}
}

// NewMalformedArrayError creates a MalformedArrayValue error.
func NewMalformedArrayError(value string) *StageError {
	return &StageError{
		Kind:    MalformedArrayValue,
		Message: fmt.Sprintf("expected a single bracketed list, got %q", value),
	}
}

// NewRemoteStatusError creates a RemoteStatusError.
func NewRemoteStatusError(url string, statusCode int) *StageError {
	return &StageError{
		Kind:       RemoteStatusError,
		Message:    "unexpected HTTP status",
		URL:        url,
		StatusCode: statusCode,
	}
}

// NewPreconditionError creates a PreconditionViolation error.
func NewPreconditionError(path, message string) *StageError {
	return &StageError{
		Kind:    PreconditionViolation,
		Message: message,
		Path:    path,
	}
}

// NewMissingProfileKeyError creates a MissingProfileKey error.
func NewMissingProfileKeyError(path, key string) *StageError {
	return &StageError{
		Kind:    MissingProfileKey,
		Message: "network profile is missing a required key",
		Path:    path,
		Key:     key,
	}
}

// NewExtractionError creates an ExtractionFailed error.
func NewExtractionError(path, message string, cause error) *StageError {
	return &StageError{
		Kind:    ExtractionFailed,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// NewIOError creates an IOFailure error.
func NewIOError(path, message string, cause error) *StageError {
	return &StageError{
		Kind:    IOFailure,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}
