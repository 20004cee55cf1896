package schema

import (
	"errors"
	"fmt"
)

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeMissingSchema indicates a type with no registered descriptor.
	ErrCodeMissingSchema ConfigErrorCode = "MISSING_SCHEMA"

	// ErrCodeMissingPrimaryKey indicates a descriptor with no primary key.
	ErrCodeMissingPrimaryKey ConfigErrorCode = "MISSING_PRIMARY_KEY"

	// ErrCodeMultiplePrimaryKeys indicates more than one primary key.
	ErrCodeMultiplePrimaryKeys ConfigErrorCode = "MULTIPLE_PRIMARY_KEYS"

	// ErrCodeInvalidPrimaryKeyType indicates a primary key that is not a
	// non-list int or string.
	ErrCodeInvalidPrimaryKeyType ConfigErrorCode = "INVALID_PRIMARY_KEY_TYPE"

	// ErrCodeUnsupportedScope indicates the shared scope or an unknown one.
	ErrCodeUnsupportedScope ConfigErrorCode = "UNSUPPORTED_SCOPE"

	// ErrCodeUnknownTarget indicates a reference to an unregistered type.
	ErrCodeUnknownTarget ConfigErrorCode = "UNKNOWN_TARGET"

	// ErrCodeInvalidSoftDelete indicates a missing or non-bool soft-delete flag.
	ErrCodeInvalidSoftDelete ConfigErrorCode = "INVALID_SOFT_DELETE"

	ErrCodeDuplicateType     ConfigErrorCode = "DUPLICATE_TYPE"
	ErrCodeDuplicateProperty ConfigErrorCode = "DUPLICATE_PROPERTY"
	ErrCodeInvalidRecordType ConfigErrorCode = "INVALID_RECORD_TYPE"
	ErrCodeInvalidProperty   ConfigErrorCode = "INVALID_PROPERTY"
	ErrCodeRegistryFrozen    ConfigErrorCode = "REGISTRY_FROZEN"
	ErrCodeRegistryNotFrozen ConfigErrorCode = "REGISTRY_NOT_FROZEN"
)

// ConfigError reports a descriptor or registry misconfiguration. These are
// programmer errors; callers are expected to fail startup on them.
type ConfigError struct {
	Code     ConfigErrorCode
	Type     string
	Property string
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	switch {
	case e.Type != "" && e.Property != "":
		return fmt.Sprintf("%s: %s.%s: %s", e.Code, e.Type, e.Property, e.Message)
	case e.Type != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Type, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func configErr(code ConfigErrorCode, typeName, prop, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:     code,
		Type:     typeName,
		Property: prop,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsConfigError returns true if err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// HasCode returns true if err wraps a *ConfigError with the given code.
func HasCode(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
