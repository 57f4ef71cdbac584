// Package errs defines the failure kinds a conversion can end with.
// Callers branch on Kind rather than on message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a conversion failure.
type Kind uint8

const (
	// Other is any failure that is not one of the kinds below.
	Other Kind = iota
	// SourceUnreadable means the source could not be opened as a workbook.
	SourceUnreadable
	// NoReadableSheets means the sheet selection loaded nothing.
	NoReadableSheets
	// NoSheetsLoaded means the pipeline was left with an empty sheet set.
	NoSheetsLoaded
	// UnsupportedFormat means the caller asked for an unknown output format.
	UnsupportedFormat
	// InvalidChunkSize means the chunk bound was not positive.
	InvalidChunkSize
)

var kindNames = map[Kind]string{
	Other:             "other",
	SourceUnreadable:  "source unreadable",
	NoReadableSheets:  "no readable sheets",
	NoSheetsLoaded:    "no sheets loaded",
	UnsupportedFormat: "unsupported format",
	InvalidChunkSize:  "invalid chunk size",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrSourceUnreadable  = &Error{Kind: SourceUnreadable}
	ErrNoReadableSheets  = &Error{Kind: NoReadableSheets}
	ErrNoSheetsLoaded    = &Error{Kind: NoSheetsLoaded}
	ErrUnsupportedFormat = &Error{Kind: UnsupportedFormat}
	ErrInvalidChunkSize  = &Error{Kind: InvalidChunkSize}
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsCallerError reports whether err was caused by the caller's input
// (a bad file, selection, format or bound) rather than by the environment.
func IsCallerError(err error) bool {
	return KindOf(err) != Other
}
