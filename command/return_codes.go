package command

import (
	"github.com/hashicorp/hcredact/redact"
)

// Success indicates a successful command execution.
const Success int = 0

// The following error group is intended for issues within the command's execution.
const (
	// FlagParseError indicates that a command was unable to successfully parse the flags/arguments provided to it.
	FlagParseError int = iota + 16

	// ConfigError indicates that the pattern configuration could not be loaded or is invalid.
	ConfigError

	// InputError indicates that an input file could not be read.
	InputError

	// OutputError indicates an error writing the output or mapping file.
	OutputError
)

// The following error group is intended for failures reported by the redaction engine.
const (
	// EncodingError is returned when the input is not valid UTF-8 text.
	EncodingError int = iota + 32

	// DictionaryLoadError is returned when a mapping file cannot be read or decoded.
	DictionaryLoadError

	// EmptyMappingError is returned when a mapping has nothing to reverse.
	EmptyMappingError

	// MappingError is returned when a mapping violates one of its invariants: an original with two placeholders, a
	// placeholder shared by two originals, or no placeholder left to allocate.
	MappingError
)

// returnCode maps an engine error to its return code. Errors that did not come from the engine are filesystem errors,
// reported as fallback.
func returnCode(err error, fallback int) int {
	switch redact.KindOf(err) {
	case redact.KindConfig:
		return ConfigError
	case redact.KindEncoding:
		return EncodingError
	case redact.KindDictionaryLoad:
		return DictionaryLoadError
	case redact.KindEmptyMapping:
		return EmptyMappingError
	case redact.KindInconsistentMapping, redact.KindAmbiguousMapping, redact.KindPlaceholderExhausted:
		return MappingError
	default:
		return fallback
	}
}
