package identity

import (
	"errors"
	"fmt"
)

// IdentifierErrorCode categorizes record name violations.
type IdentifierErrorCode string

const (
	ErrCodeEmpty             IdentifierErrorCode = "EMPTY"
	ErrCodeTooLong           IdentifierErrorCode = "TOO_LONG"
	ErrCodeNonPrintable      IdentifierErrorCode = "NON_PRINTABLE"
	ErrCodeLeadingUnderscore IdentifierErrorCode = "LEADING_UNDERSCORE"

	// ErrCodeMissingKey indicates an object with no primary key value.
	ErrCodeMissingKey IdentifierErrorCode = "MISSING_KEY"

	// ErrCodeUnparsable indicates a record name that does not parse back into
	// the declared primary key type.
	ErrCodeUnparsable IdentifierErrorCode = "UNPARSABLE"
)

// IdentifierError reports a primary key that cannot be used as a record name.
// The key is never truncated or transliterated to make it fit.
type IdentifierError struct {
	Code    IdentifierErrorCode
	Type    string
	Value   string
	Message string
}

func (e *IdentifierError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s key %q: %s", e.Code, e.Type, e.Value, e.Message)
	}
	return fmt.Sprintf("%s: key %q: %s", e.Code, e.Value, e.Message)
}

// IsIdentifierError returns true if err wraps an *IdentifierError.
func IsIdentifierError(err error) bool {
	var ie *IdentifierError
	return errors.As(err, &ie)
}
