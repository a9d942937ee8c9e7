package entities

import (
	"errors"
	"fmt"
)

// ParseErrorKind classifies structural decoding failures
type ParseErrorKind string

// Parse error kinds
const (
	TruncatedHeader  ParseErrorKind = "truncated_header"
	UnsupportedClass ParseErrorKind = "unsupported_class"
	CorruptDirectory ParseErrorKind = "corrupt_directory"
)

// Sentinel errors. ParseError values match the sentinel of their kind under errors.Is.
var (
	ErrTruncatedHeader  = errors.New("truncated header")
	ErrUnsupportedClass = errors.New("unsupported class")
	ErrCorruptDirectory = errors.New("corrupt directory")

	// ErrProbeUnavailable means the unpack probe is missing, timed out, or could not run
	ErrProbeUnavailable = errors.New("unpack probe unavailable")

	// ErrIOFailure means the artifact bytes could not be obtained
	ErrIOFailure = errors.New("artifact I/O failure")

	// ErrSinkFailure means a finished report could not be persisted
	ErrSinkFailure = errors.New("report sink failure")
)

// ParseError is returned by the PE and ELF decoders
type ParseError struct {
	Kind   ParseErrorKind
	Offset int64 // file offset the decoder was about to read, -1 when not applicable
	Msg    string
}

// NewParseError creates a ParseError
func NewParseError(kind ParseErrorKind, offset int64, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:   kind,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %#x: %s", e.Kind, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is matches the sentinel error of the same kind
func (e *ParseError) Is(target error) bool {
	switch e.Kind {
	case TruncatedHeader:
		return target == ErrTruncatedHeader
	case UnsupportedClass:
		return target == ErrUnsupportedClass
	case CorruptDirectory:
		return target == ErrCorruptDirectory
	}
	return false
}

// AsParseError extracts a *ParseError from an error chain
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
