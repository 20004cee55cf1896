package codec

import (
	"fmt"
	"log/slog"

	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/record"
)

// Encoder produces record snapshots of local objects.
type Encoder struct {
	ids   *identity.Resolver
	plans map[string]*Plan
	opts  options
}

// NewEncoder builds an encoder over the resolver's registry, which must be
// frozen.
func NewEncoder(ids *identity.Resolver, opts ...Option) (*Encoder, error) {
	plans, err := BuildPlans(ids.Registry())
	if err != nil {
		return nil, err
	}
	e := &Encoder{ids: ids, plans: plans}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e, nil
}

// Plan returns the descriptor table of a type.
func (e *Encoder) Plan(typeName string) (*Plan, bool) {
	p, ok := e.plans[typeName]
	return p, ok
}

// Encode builds a new record from obj.
//
// The error is non-nil only when obj's own identity cannot be resolved.
// Fields that cannot be mapped are skipped and listed in the report.
func (e *Encoder) Encode(obj Object) (*record.Record, *Report, error) {
	id, err := e.ids.Resolve(obj)
	if err != nil {
		return nil, nil, err
	}
	plan, ok := e.plans[obj.ObjectType()]
	if !ok {
		return nil, nil, fmt.Errorf("no descriptor table for type %q", obj.ObjectType())
	}

	rec := record.New(plan.Info.RecordType, id)
	report := &Report{Type: plan.Info.Name(), RecordName: id.RecordName}

	for _, f := range plan.Fields {
		e.encodeField(rec, report, obj, f)
	}

	if deleted, ok := rec.Get(plan.Info.SoftDeleteProperty()); ok {
		report.Deleted = deleted == record.Bool(true)
	}

	for _, s := range report.Skipped {
		slog.Warn("field not encoded",
			"type", report.Type,
			"record", report.RecordName,
			"property", s.Property,
			"code", s.Code,
			"reason", s.Message)
	}
	e.opts.metrics.observeEncode(rec.Type, report)
	return rec, report, nil
}

func (e *Encoder) encodeField(rec *record.Record, report *Report, obj Object, f Field) {
	name := f.Property.Name
	v, ok := obj.Property(name)
	absent := !ok || isNil(v)

	switch f.Shape {
	case ShapeScalar:
		if absent {
			return
		}
		val, err := toRemote(f.Property.Kind, v)
		if err != nil {
			report.skip(name, CodeTypeMismatch, "%v", err)
			return
		}
		rec.Set(name, val)

	case ShapeScalarList:
		if absent {
			return
		}
		list, nonEmpty, err := toRemoteList(f.Property.Kind, v)
		if err != nil {
			report.skip(name, CodeTypeMismatch, "%v", err)
			return
		}
		if nonEmpty {
			rec.Set(name, list)
		}

	case ShapeAsset:
		if absent {
			rec.SetNull(name)
			return
		}
		wrapper, err := e.target(f, v)
		if err != nil {
			report.skip(name, CodeTypeMismatch, "%v", err)
			return
		}
		if e.opts.assets == nil {
			report.skip(name, CodeNoAssetProvider, "no asset provider configured for %s", f.Target.Name())
			return
		}
		asset, err := e.opts.assets.RemoteAsset(wrapper)
		if err != nil {
			report.skip(name, CodeTypeMismatch, "asset wrapper: %v", err)
			return
		}
		rec.Set(name, asset)

	case ShapeReference:
		if absent {
			rec.SetNull(name)
			return
		}
		target, err := e.target(f, v)
		if err != nil {
			report.skip(name, CodeTypeMismatch, "%v", err)
			return
		}
		id, err := e.ids.Resolve(target)
		if err != nil {
			report.skip(name, CodeInvalidReference, "%v", err)
			return
		}
		rec.Set(name, record.NewReference(id))

	case ShapeToMany:
		report.skip(name, CodeToManyRelationship, "to-many relationships are not synced")

	case ShapeUnsupportedList:
		report.skip(name, CodeUnsupportedListElement, "lists of %s values are not supported", f.Property.Kind)

	case ShapeUnsupported:
		report.skip(name, CodeUnsupportedKind, "%s values are not supported", f.Property.Kind)
	}
}

// target checks that a reference value is an object of the declared type.
func (e *Encoder) target(f Field, v any) (Object, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("want %s object, got %T", f.Target.Name(), v)
	}
	if obj.ObjectType() != f.Target.Name() {
		return nil, fmt.Errorf("want %s object, got %s", f.Target.Name(), obj.ObjectType())
	}
	return obj, nil
}
