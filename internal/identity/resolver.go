package identity

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
)

// MaxRecordNameLength is the longest record name the remote service accepts.
const MaxRecordNameLength = 255

// Object is the read side of a local object.
type Object interface {
	ObjectType() string
	Property(name string) (any, bool)
}

// Validation selects whether string keys are checked.
type Validation int

const (
	// Strict rejects malformed string keys with an *IdentifierError.
	Strict Validation = iota

	// Skip performs no string checks.
	Skip
)

// String returns the configuration name of the mode.
func (v Validation) String() string {
	if v == Skip {
		return "skip"
	}
	return "strict"
}

// ParseValidation maps "strict" and "skip" to their modes.
func ParseValidation(s string) (Validation, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "skip":
		return Skip, nil
	default:
		return Strict, fmt.Errorf("unknown validation mode %q", s)
	}
}

// Resolver computes record identifiers for registered types.
type Resolver struct {
	reg        *schema.Registry
	validation Validation
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithValidation sets the validation mode. Defaults to Strict.
func WithValidation(v Validation) Option {
	return func(r *Resolver) { r.validation = v }
}

// New creates a resolver over a frozen registry.
func New(reg *schema.Registry, opts ...Option) *Resolver {
	r := &Resolver{reg: reg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the resolver reads type metadata from.
func (r *Resolver) Registry() *schema.Registry { return r.reg }

// Validation returns the configured validation mode.
func (r *Resolver) Validation() Validation { return r.validation }

// Resolve returns the record identifier of obj.
//
// Unknown types and primary keys of an undeclared runtime type yield a
// *schema.ConfigError; malformed string keys yield an *IdentifierError.
func (r *Resolver) Resolve(obj Object) (record.RecordID, error) {
	info, err := r.reg.Lookup(obj.ObjectType())
	if err != nil {
		return record.RecordID{}, err
	}
	key, ok := obj.Property(info.PrimaryKey.Name)
	if !ok || key == nil {
		return record.RecordID{}, &IdentifierError{
			Code:    ErrCodeMissingKey,
			Type:    info.Name(),
			Message: fmt.Sprintf("primary key %q has no value", info.PrimaryKey.Name),
		}
	}
	return r.ResolveKey(info, key)
}

// ResolveKey returns the record identifier for a primary key value of the
// given type.
func (r *Resolver) ResolveKey(info *schema.TypeInfo, key any) (record.RecordID, error) {
	name, err := r.RecordName(info, key)
	if err != nil {
		return record.RecordID{}, err
	}
	return record.RecordID{RecordName: name, Zone: info.Zone}, nil
}

// RecordName renders a primary key value as a record name.
func (r *Resolver) RecordName(info *schema.TypeInfo, key any) (string, error) {
	switch info.PrimaryKey.Kind {
	case schema.KindString:
		s, ok := key.(string)
		if !ok {
			return "", keyTypeError(info, key)
		}
		if r.validation == Strict {
			if err := ValidateRecordName(s); err != nil {
				var ie *IdentifierError
				if errors.As(err, &ie) {
					ie.Type = info.Name()
				}
				return "", err
			}
		}
		return s, nil

	case schema.KindInt:
		s, ok := formatInt(key)
		if !ok {
			return "", keyTypeError(info, key)
		}
		return s, nil

	default:
		return "", keyTypeError(info, key)
	}
}

// ParseKey converts a record name back into a primary key value: the name
// itself for string keys, an int64 for integer keys.
func ParseKey(info *schema.TypeInfo, recordName string) (any, error) {
	switch info.PrimaryKey.Kind {
	case schema.KindString:
		return recordName, nil
	case schema.KindInt:
		n, err := strconv.ParseInt(recordName, 10, 64)
		if err != nil {
			return nil, &IdentifierError{
				Code:    ErrCodeUnparsable,
				Type:    info.Name(),
				Value:   recordName,
				Message: "record name is not a base-10 integer",
			}
		}
		return n, nil
	default:
		return nil, keyTypeError(info, recordName)
	}
}

// ValidateRecordName checks a string key against the remote naming rules.
func ValidateRecordName(name string) error {
	if name == "" {
		return &IdentifierError{Code: ErrCodeEmpty, Value: name, Message: "record name is empty"}
	}
	if len(name) > MaxRecordNameLength {
		return &IdentifierError{
			Code:    ErrCodeTooLong,
			Value:   name,
			Message: fmt.Sprintf("record name is %d bytes, limit is %d", len(name), MaxRecordNameLength),
		}
	}
	if name[0] == '_' {
		return &IdentifierError{Code: ErrCodeLeadingUnderscore, Value: name, Message: "record name starts with an underscore"}
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c < 0x20 || c > 0x7E {
			return &IdentifierError{
				Code:    ErrCodeNonPrintable,
				Value:   name,
				Message: fmt.Sprintf("byte 0x%02x at offset %d is not printable ASCII", c, i),
			}
		}
	}
	return nil
}

func formatInt(key any) (string, bool) {
	switch n := key.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return formatUint(uint64(n))
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return formatUint(n)
	default:
		return "", false
	}
}

func keyTypeError(info *schema.TypeInfo, key any) *schema.ConfigError {
	return &schema.ConfigError{
		Code:     schema.ErrCodeInvalidPrimaryKeyType,
		Type:     info.Name(),
		Property: info.PrimaryKey.Name,
		Message:  fmt.Sprintf("declared %s, got %T", info.PrimaryKey.Kind, key),
	}
}

// formatUint rejects values ParseKey could not read back as an int64.
func formatUint(n uint64) (string, bool) {
	if n > math.MaxInt64 {
		return "", false
	}
	return strconv.FormatUint(n, 10), true
}
