package codec

import (
	"fmt"

	"github.com/roach88/recmap/internal/schema"
)

// Shape is the mapping policy of one property.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeScalarList
	ShapeAsset
	ShapeReference
	ShapeToMany
	ShapeUnsupportedList
	ShapeUnsupported
)

var shapeNames = map[Shape]string{
	ShapeScalar:          "scalar",
	ShapeScalarList:      "scalarList",
	ShapeAsset:           "asset",
	ShapeReference:       "reference",
	ShapeToMany:          "toMany",
	ShapeUnsupportedList: "unsupportedList",
	ShapeUnsupported:     "unsupported",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Mapped reports whether fields of this shape appear in records.
func (s Shape) Mapped() bool {
	switch s {
	case ShapeScalar, ShapeScalarList, ShapeAsset, ShapeReference:
		return true
	default:
		return false
	}
}

// Field is one entry of a type's descriptor table.
type Field struct {
	Property schema.Property
	Shape    Shape

	// Target is set for ShapeAsset and ShapeReference.
	Target *schema.TypeInfo
}

// Plan is the descriptor table of one type, in property order.
type Plan struct {
	Info   *schema.TypeInfo
	Fields []Field
}

// Classify returns the shape of a property. target is the TypeInfo of the
// referenced type and may be nil for non-reference kinds.
func Classify(p schema.Property, target *schema.TypeInfo) Shape {
	switch {
	case p.Kind.IsScalar() && p.List:
		return ShapeScalarList
	case p.Kind.IsScalar():
		return ShapeScalar
	case p.IsToMany():
		return ShapeToMany
	case p.IsReference() && target != nil && target.IsAsset():
		return ShapeAsset
	case p.IsReference():
		return ShapeReference
	case p.List:
		return ShapeUnsupportedList
	default:
		return ShapeUnsupported
	}
}

// BuildPlans computes the descriptor table of every registered type.
// The registry must be frozen.
func BuildPlans(reg *schema.Registry) (map[string]*Plan, error) {
	if !reg.Frozen() {
		return nil, &schema.ConfigError{
			Code:    schema.ErrCodeRegistryNotFrozen,
			Message: "codec built before registry was frozen",
		}
	}

	plans := make(map[string]*Plan)
	for _, info := range reg.Types() {
		plan := &Plan{Info: info, Fields: make([]Field, 0, len(info.Schema.Properties))}
		for _, p := range info.Schema.Properties {
			var target *schema.TypeInfo
			if p.Target != "" {
				t, err := reg.Lookup(p.Target)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", info.Name(), p.Name, err)
				}
				target = t
			}
			plan.Fields = append(plan.Fields, Field{
				Property: p,
				Shape:    Classify(p, target),
				Target:   target,
			})
		}
		plans[info.Name()] = plan
	}
	return plans, nil
}
