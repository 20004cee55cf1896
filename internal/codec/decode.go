package codec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
)

var errNilRecord = errors.New("decode: nil record")

// Decoder merges remote records into local objects.
type Decoder struct {
	reg      *schema.Registry
	plans    map[string]*Plan
	resolver Resolver
	opts     options
}

// NewDecoder builds a decoder. The resolver looks up or lazily creates the
// objects that records and their references point at.
func NewDecoder(reg *schema.Registry, resolver Resolver, opts ...Option) (*Decoder, error) {
	if resolver == nil {
		return nil, fmt.Errorf("decoder needs a resolver")
	}
	plans, err := BuildPlans(reg)
	if err != nil {
		return nil, err
	}
	d := &Decoder{reg: reg, plans: plans, resolver: resolver}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d, nil
}

// Decode finds or creates the local object identified by rec and merges the
// record's fields into it.
func (d *Decoder) Decode(ctx context.Context, rec *record.Record) (MutableObject, *Report, error) {
	if rec == nil {
		return nil, nil, errNilRecord
	}
	info, err := d.reg.ByRecordType(rec.Type)
	if err != nil {
		return nil, nil, err
	}
	key, err := identity.ParseKey(info, rec.ID.RecordName)
	if err != nil {
		return nil, nil, err
	}
	if rec.ID.Zone != info.Zone {
		slog.Debug("record zone differs from registered zone",
			"type", info.Name(),
			"record", rec.ID.RecordName,
			"zone", rec.ID.Zone.ZoneName,
			"expected", info.Zone.ZoneName)
	}

	obj, err := d.resolver.FindOrCreate(ctx, info.Name(), key)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving %s %v: %w", info.Name(), key, err)
	}
	report, err := d.DecodeInto(ctx, rec, obj)
	if err != nil {
		return nil, nil, err
	}
	return obj, report, nil
}

// DecodeInto merges rec into an already resolved object. Fields missing from
// the record are left untouched, and the primary key is never written.
func (d *Decoder) DecodeInto(ctx context.Context, rec *record.Record, obj MutableObject) (*Report, error) {
	if rec == nil {
		return nil, errNilRecord
	}
	if obj == nil {
		return nil, fmt.Errorf("decoding %s %s: nil object", rec.Type, rec.ID.RecordName)
	}
	info, err := d.reg.ByRecordType(rec.Type)
	if err != nil {
		return nil, err
	}
	if obj.ObjectType() != info.Name() {
		return nil, fmt.Errorf("record type %s maps to %s, object is %s", rec.Type, info.Name(), obj.ObjectType())
	}
	plan := d.plans[info.Name()]

	report := &Report{Type: info.Name(), RecordName: rec.ID.RecordName}
	for _, f := range plan.Fields {
		if f.Property.PrimaryKey {
			continue
		}
		v, ok := rec.Get(f.Property.Name)
		if !ok {
			continue
		}
		if err := d.decodeField(ctx, report, obj, f, v); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", info.Name(), f.Property.Name, err)
		}
	}

	if flag, ok := obj.Property(info.SoftDeleteProperty()); ok {
		report.Deleted = flag == true
	}

	for _, s := range report.Skipped {
		slog.Warn("field not decoded",
			"type", report.Type,
			"record", report.RecordName,
			"property", s.Property,
			"code", s.Code,
			"reason", s.Message)
	}
	d.opts.metrics.observeDecode(rec.Type, report)
	return report, nil
}

// decodeField applies one record value. Only collaborator failures are
// returned as errors; data problems are recorded in the report.
func (d *Decoder) decodeField(ctx context.Context, report *Report, obj MutableObject, f Field, v record.Value) error {
	name := f.Property.Name

	if _, isNull := v.(record.Null); isNull {
		switch {
		case !f.Shape.Mapped():
			report.skip(name, unmappedCode(f.Shape), "field is not synced")
		case f.Shape == ShapeScalar && !f.Property.Optional:
			report.skip(name, CodeNullForRequired, "null received for required %s", f.Property.Kind)
		default:
			obj.ClearProperty(name)
		}
		return nil
	}

	switch f.Shape {
	case ShapeScalar:
		local, err := toLocal(f.Property.Kind, v)
		if err != nil {
			report.skip(name, CodeTypeMismatch, "%v", err)
			return nil
		}
		obj.SetProperty(name, local)

	case ShapeScalarList:
		local, err := toLocalList(f.Property.Kind, v)
		if err != nil {
			report.skip(name, CodeTypeMismatch, "%v", err)
			return nil
		}
		obj.SetProperty(name, local)

	case ShapeReference:
		ref, ok := v.(record.Reference)
		if !ok {
			report.skip(name, CodeTypeMismatch, "want reference, got %s", v.Kind())
			return nil
		}
		key, err := identity.ParseKey(f.Target, ref.ID.RecordName)
		if err != nil {
			report.skip(name, CodeInvalidReference, "%v", err)
			return nil
		}
		target, err := d.resolver.FindOrCreate(ctx, f.Target.Name(), key)
		if err != nil {
			return fmt.Errorf("resolving %s %v: %w", f.Target.Name(), key, err)
		}
		obj.SetProperty(name, target)

	case ShapeAsset:
		asset, ok := v.(record.Asset)
		if !ok {
			report.skip(name, CodeTypeMismatch, "want asset, got %s", v.Kind())
			return nil
		}
		if d.opts.assets == nil {
			report.skip(name, CodeNoAssetProvider, "no asset provider configured for %s", f.Target.Name())
			return nil
		}
		key, err := identity.ParseKey(f.Target, asset.Name)
		if err != nil {
			report.skip(name, CodeInvalidReference, "%v", err)
			return nil
		}
		wrapper, err := d.resolver.FindOrCreate(ctx, f.Target.Name(), key)
		if err != nil {
			return fmt.Errorf("resolving %s %v: %w", f.Target.Name(), key, err)
		}
		if err := d.opts.assets.LocalAsset(ctx, asset, wrapper); err != nil {
			return fmt.Errorf("materializing asset %s: %w", asset.Name, err)
		}
		obj.SetProperty(name, wrapper)

	default:
		report.skip(name, unmappedCode(f.Shape), "field is not synced")
	}
	return nil
}

func unmappedCode(s Shape) FieldCode {
	switch s {
	case ShapeToMany:
		return CodeToManyRelationship
	case ShapeUnsupportedList:
		return CodeUnsupportedListElement
	default:
		return CodeUnsupportedKind
	}
}
