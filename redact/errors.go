package redact

import (
	"errors"
	"fmt"
)

// Kind classifies the failures the redaction engine can report. Callers switch on the Kind rather than on error
// strings.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in this package, e.g. filesystem errors.
	KindUnknown Kind = iota

	// KindConfig indicates an unusable pattern configuration.
	KindConfig

	// KindEncoding indicates content that is not valid UTF-8 text.
	KindEncoding

	// KindDictionaryLoad indicates a mapping file that could not be read or decoded.
	KindDictionaryLoad

	// KindInconsistentMapping indicates two chunks reported different placeholders for the same original text.
	KindInconsistentMapping

	// KindAmbiguousMapping indicates two originals share one placeholder, so the mapping cannot be inverted.
	KindAmbiguousMapping

	// KindEmptyMapping indicates there is nothing to reverse.
	KindEmptyMapping

	// KindPlaceholderExhausted indicates every placeholder of a requested length has already been issued.
	KindPlaceholderExhausted
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindEncoding:
		return "encoding"
	case KindDictionaryLoad:
		return "dictionary_load"
	case KindInconsistentMapping:
		return "inconsistent_mapping"
	case KindAmbiguousMapping:
		return "ambiguous_mapping"
	case KindEmptyMapping:
		return "empty_mapping"
	case KindPlaceholderExhausted:
		return "placeholder_exhausted"
	default:
		return "unknown"
	}
}

// Sentinels for use with errors.Is. They carry no message of their own.
var (
	ErrConfig               = &Error{Kind: KindConfig}
	ErrEncoding             = &Error{Kind: KindEncoding}
	ErrDictionaryLoad       = &Error{Kind: KindDictionaryLoad}
	ErrInconsistentMapping  = &Error{Kind: KindInconsistentMapping}
	ErrAmbiguousMapping     = &Error{Kind: KindAmbiguousMapping}
	ErrEmptyMapping         = &Error{Kind: KindEmptyMapping}
	ErrPlaceholderExhausted = &Error{Kind: KindPlaceholderExhausted}
)

// Error is the error type returned by the redaction engine.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s, kind=%s, err=%s", msg, e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("%s, kind=%s", msg, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, which makes the package sentinels usable with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

// ConfigError builds a KindConfig error with the given message.
func ConfigError(msg string) error {
	return &Error{Kind: KindConfig, Msg: msg}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
