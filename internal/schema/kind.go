package schema

import (
	"fmt"
	"strings"
)

// Kind is the declared type of a local property.
type Kind string

const (
	KindInt       Kind = "int"
	KindString    Kind = "string"
	KindBool      Kind = "bool"
	KindFloat     Kind = "float"
	KindDouble    Kind = "double"
	KindBytes     Kind = "bytes"
	KindTimestamp Kind = "timestamp"

	// KindObject is a reference to another type. With List set it is a
	// to-many relationship.
	KindObject Kind = "object"

	// KindLinkingObjects is the inverse side of a to-many relationship.
	KindLinkingObjects Kind = "linkingObjects"

	// KindMixed is any non-primitive value (embedded object, dictionary).
	KindMixed Kind = "mixed"
)

var kinds = []Kind{
	KindInt, KindString, KindBool, KindFloat, KindDouble, KindBytes,
	KindTimestamp, KindObject, KindLinkingObjects, KindMixed,
}

// IsScalar reports whether k maps to a single remote scalar value.
func (k Kind) IsScalar() bool {
	switch k {
	case KindInt, KindString, KindBool, KindFloat, KindDouble, KindBytes, KindTimestamp:
		return true
	default:
		return false
	}
}

// IsValid reports whether k is one of the declared kinds.
func (k Kind) IsValid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind resolves a kind name case-insensitively. "date" and "datetime"
// are accepted as aliases of timestamp, "data" as bytes.
func ParseKind(name string) (Kind, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "date", "datetime":
		return KindTimestamp, nil
	case "data":
		return KindBytes, nil
	case "linkingobjects":
		return KindLinkingObjects, nil
	}
	k := Kind(lower)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown property kind %q", name)
	}
	return k, nil
}

// parseTypeExpr expands the shorthand property notation used by descriptor
// files:
//
//	"string"      required string
//	"string?"     optional string
//	"[]int"       list of int
//	"Author?"     optional reference to Author
//	"[]Author"    to-many reference to Author
//
// Names that are not kinds are treated as reference targets.
func parseTypeExpr(expr string) (Property, error) {
	var p Property
	s := strings.TrimSpace(expr)
	if s == "" {
		return p, fmt.Errorf("empty type expression")
	}
	if rest, ok := strings.CutPrefix(s, "[]"); ok {
		p.List = true
		s = rest
	}
	if rest, ok := strings.CutSuffix(s, "?"); ok {
		p.Optional = true
		s = rest
	}
	if s == "" {
		return p, fmt.Errorf("type expression %q has no type name", expr)
	}

	if k, err := ParseKind(s); err == nil {
		if k == KindObject || k == KindLinkingObjects {
			return p, fmt.Errorf("type expression %q needs a target type name", expr)
		}
		p.Kind = k
		return p, nil
	}

	p.Kind = KindObject
	p.Target = s
	return p, nil
}
