package record

import (
	"fmt"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	KindNull      ValueKind = "null"
	KindString    ValueKind = "string"
	KindInt       ValueKind = "int"
	KindBool      ValueKind = "bool"
	KindDouble    ValueKind = "double"
	KindBytes     ValueKind = "bytes"
	KindTimestamp ValueKind = "timestamp"
	KindList      ValueKind = "list"
	KindAsset     ValueKind = "asset"
	KindReference ValueKind = "reference"
)

// IsScalar reports whether values of this kind may appear inside a List.
func (k ValueKind) IsScalar() bool {
	switch k {
	case KindString, KindInt, KindBool, KindDouble, KindBytes, KindTimestamp:
		return true
	default:
		return false
	}
}

// Value is a sealed interface over the record field variants.
// Only Null, String, Int, Bool, Double, Bytes, Timestamp, List, Asset and
// Reference implement it.
type Value interface {
	Kind() ValueKind
	recordValue()
}

// Null explicitly clears a field on the remote side.
type Null struct{}

// String is a text value.
type String string

// Int is a 64-bit integer value.
type Int int64

// Bool is a boolean value.
type Bool bool

// Double is a 64-bit float value. Local float32 properties widen to Double.
type Double float64

// Bytes is an inline binary value.
type Bytes []byte

// Timestamp is a point in time, always compared and serialized in UTC.
type Timestamp time.Time

// Time returns the timestamp as a time.Time in UTC.
func (t Timestamp) Time() time.Time { return time.Time(t).UTC() }

// List is a homogeneous array of scalar values. Build with NewList.
type List struct {
	Elem  ValueKind
	Items []Value
}

// Asset is a binary asset stored out of line. Name carries the primary key of
// the local wrapper object the asset was produced from.
type Asset struct {
	Name        string `json:"name"`
	BlobKey     string `json:"blobKey"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
}

// ReferenceAction describes what the remote service does with the referencing
// record when the target is deleted.
type ReferenceAction string

// ActionNone means deleting the target leaves the referencing record alone.
const ActionNone ReferenceAction = "none"

// Reference points at another record by identity.
type Reference struct {
	ID     RecordID        `json:"recordID"`
	Action ReferenceAction `json:"action"`
}

// NewReference creates a reference with no cascading delete semantics.
func NewReference(id RecordID) Reference {
	return Reference{ID: id, Action: ActionNone}
}

func (Null) Kind() ValueKind      { return KindNull }
func (String) Kind() ValueKind    { return KindString }
func (Int) Kind() ValueKind       { return KindInt }
func (Bool) Kind() ValueKind      { return KindBool }
func (Double) Kind() ValueKind    { return KindDouble }
func (Bytes) Kind() ValueKind     { return KindBytes }
func (Timestamp) Kind() ValueKind { return KindTimestamp }
func (List) Kind() ValueKind      { return KindList }
func (Asset) Kind() ValueKind     { return KindAsset }
func (Reference) Kind() ValueKind { return KindReference }

func (Null) recordValue()      {}
func (String) recordValue()    {}
func (Int) recordValue()       {}
func (Bool) recordValue()      {}
func (Double) recordValue()    {}
func (Bytes) recordValue()     {}
func (Timestamp) recordValue() {}
func (List) recordValue()      {}
func (Asset) recordValue()     {}
func (Reference) recordValue() {}

// NewList builds a homogeneous list of elem-kind values.
// Returns an error if elem is not a scalar kind or any item has another kind.
func NewList(elem ValueKind, items ...Value) (List, error) {
	if !elem.IsScalar() {
		return List{}, fmt.Errorf("list element kind %q is not a scalar", elem)
	}
	out := make([]Value, len(items))
	for i, item := range items {
		if item == nil {
			return List{}, fmt.Errorf("list[%d]: nil value", i)
		}
		if item.Kind() != elem {
			return List{}, fmt.Errorf("list[%d]: kind %q does not match element kind %q", i, item.Kind(), elem)
		}
		out[i] = item
	}
	return List{Elem: elem, Items: out}, nil
}

// Len returns the number of items.
func (l List) Len() int { return len(l.Items) }

// Materialize returns the list items as Go values, in order.
func (l List) Materialize() []any {
	out := make([]any, len(l.Items))
	for i, item := range l.Items {
		out[i], _ = Scalar(item)
	}
	return out
}

// Scalar converts a scalar Value to its natural Go representation:
// string, int64, bool, float64, []byte or time.Time.
// Returns false for Null, List, Asset and Reference.
func Scalar(v Value) (any, bool) {
	switch val := v.(type) {
	case String:
		return string(val), true
	case Int:
		return int64(val), true
	case Bool:
		return bool(val), true
	case Double:
		return float64(val), true
	case Bytes:
		return []byte(val), true
	case Timestamp:
		return val.Time(), true
	default:
		return nil, false
	}
}
