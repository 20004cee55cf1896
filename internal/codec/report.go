package codec

import (
	"fmt"
	"strings"
)

// FieldCode categorizes a field that was not mapped.
type FieldCode string

const (
	// CodeUnsupportedListElement marks a list of non-primitive values.
	CodeUnsupportedListElement FieldCode = "UNSUPPORTED_LIST_ELEMENT"

	// CodeUnsupportedKind marks a single non-primitive value.
	CodeUnsupportedKind FieldCode = "UNSUPPORTED_KIND"

	// CodeToManyRelationship marks a to-many or inverse relationship.
	CodeToManyRelationship FieldCode = "TO_MANY_RELATIONSHIP"

	// CodeTypeMismatch marks a value whose Go or record type does not match
	// the declared kind.
	CodeTypeMismatch FieldCode = "TYPE_MISMATCH"

	// CodeNullForRequired marks an explicit Null received for a required
	// scalar.
	CodeNullForRequired FieldCode = "NULL_FOR_REQUIRED"

	// CodeInvalidReference marks a reference whose target has no valid
	// record identity.
	CodeInvalidReference FieldCode = "INVALID_REFERENCE"

	// CodeNoAssetProvider marks an asset field handled without an
	// AssetProvider configured.
	CodeNoAssetProvider FieldCode = "NO_ASSET_PROVIDER"
)

// FieldResult describes one skipped field.
type FieldResult struct {
	Property string    `json:"property"`
	Code     FieldCode `json:"code"`
	Message  string    `json:"message"`
}

func (f FieldResult) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Property, f.Code, f.Message)
}

// Report is the outcome of one encode or decode call.
type Report struct {
	Type       string        `json:"type"`
	RecordName string        `json:"recordName"`
	Skipped    []FieldResult `json:"skipped,omitempty"`

	// Deleted is the soft-delete flag of the object after the call.
	Deleted bool `json:"deleted"`
}

// HasIssues reports whether any field was skipped.
func (r *Report) HasIssues() bool { return len(r.Skipped) > 0 }

// Has reports whether a field with the given code was skipped for property.
func (r *Report) Has(property string, code FieldCode) bool {
	for _, f := range r.Skipped {
		if f.Property == property && f.Code == code {
			return true
		}
	}
	return false
}

// String formats the skipped fields one per line.
func (r *Report) String() string {
	if !r.HasIssues() {
		return fmt.Sprintf("%s %s: ok", r.Type, r.RecordName)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %d skipped", r.Type, r.RecordName, len(r.Skipped))
	for _, f := range r.Skipped {
		sb.WriteString("\n  ")
		sb.WriteString(f.String())
	}
	return sb.String()
}

func (r *Report) skip(property string, code FieldCode, format string, args ...any) {
	r.Skipped = append(r.Skipped, FieldResult{
		Property: property,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}
