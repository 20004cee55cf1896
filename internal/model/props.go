package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/roach88/recmap/internal/schema"
)

// RefLookup returns the object of typeName with the given primary key. The
// key has already been converted to the target's key kind.
type RefLookup func(typeName string, key any) (*Object, error)

// FromProps builds an object from loosely typed values as produced by JSON
// or YAML decoding. Scalars are converted to the Go type of their declared
// kind, references are resolved through refs, and an unset soft-delete flag
// defaults to false.
func FromProps(reg *schema.Registry, typeName string, raw map[string]any, refs RefLookup) (*Object, error) {
	info, err := reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}

	obj := New(typeName, nil)
	for name, v := range raw {
		p, ok := info.Schema.Property(name)
		if !ok {
			return nil, fmt.Errorf("%s has no property %q", typeName, name)
		}
		val, err := coerceProperty(reg, p, v, refs)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", typeName, name, err)
		}
		obj.SetProperty(name, val)
	}
	if _, ok := obj.Property(info.SoftDeleteProperty()); !ok {
		obj.SetProperty(info.SoftDeleteProperty(), false)
	}
	return obj, nil
}

func coerceProperty(reg *schema.Registry, p schema.Property, v any, refs RefLookup) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch {
	case p.Kind == schema.KindMixed:
		return v, nil

	case p.Kind == schema.KindLinkingObjects:
		return nil, fmt.Errorf("inverse relationships are computed, not set")

	case p.Kind == schema.KindObject:
		target, err := reg.Lookup(p.Target)
		if err != nil {
			return nil, err
		}
		if refs == nil {
			return nil, fmt.Errorf("no reference lookup for %s", p.Target)
		}
		if !p.List {
			return lookupRef(target, v, refs)
		}
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("want list of %s keys, got %T", p.Target, v)
		}
		out := make([]*Object, len(items))
		for i, item := range items {
			obj, err := lookupRef(target, item, refs)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			out[i] = obj
		}
		return out, nil

	case p.List:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("want list of %s, got %T", p.Kind, v)
		}
		return scalarList(p.Kind, items)

	default:
		return Scalar(p.Kind, v)
	}
}

func lookupRef(target *schema.TypeInfo, v any, refs RefLookup) (*Object, error) {
	key, err := Scalar(target.PrimaryKey.Kind, v)
	if err != nil {
		return nil, fmt.Errorf("%s key: %w", target.Name(), err)
	}
	return refs(target.Name(), key)
}

func scalarList(k schema.Kind, items []any) (any, error) {
	switch k {
	case schema.KindInt:
		return convertList[int64](k, items)
	case schema.KindString:
		return convertList[string](k, items)
	case schema.KindBool:
		return convertList[bool](k, items)
	case schema.KindFloat:
		return convertList[float32](k, items)
	case schema.KindDouble:
		return convertList[float64](k, items)
	case schema.KindBytes:
		return convertList[[]byte](k, items)
	case schema.KindTimestamp:
		return convertList[time.Time](k, items)
	default:
		return nil, fmt.Errorf("kind %s is not a scalar", k)
	}
}

func convertList[T any](k schema.Kind, items []any) ([]T, error) {
	out := make([]T, len(items))
	for i, item := range items {
		v, err := Scalar(k, item)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		out[i] = v.(T)
	}
	return out, nil
}

// Scalar converts a decoded JSON or YAML value to the Go type used for
// kind k: int64, string, bool, float32, float64, []byte or time.Time.
// Bytes are read from base64 strings and timestamps from RFC 3339 strings.
func Scalar(k schema.Kind, v any) (any, error) {
	switch k {
	case schema.KindInt:
		return toInt64(v)

	case schema.KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}

	case schema.KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}

	case schema.KindFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil

	case schema.KindDouble:
		return toFloat64(v)

	case schema.KindBytes:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			out, err := base64.StdEncoding.DecodeString(b)
			if err != nil {
				return nil, fmt.Errorf("bytes: %w", err)
			}
			return out, nil
		}

	case schema.KindTimestamp:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, err
			}
			return parsed.UTC(), nil
		}

	default:
		return nil, fmt.Errorf("kind %s is not a scalar", k)
	}
	return nil, fmt.Errorf("want %s, got %T", k, v)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("want int, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}

// ToProps renders an object's properties as JSON-friendly values: bytes as
// base64, timestamps as RFC 3339 and references as the target's primary key.
func ToProps(reg *schema.Registry, obj *Object) (map[string]any, error) {
	info, err := reg.Lookup(obj.ObjectType())
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(obj.props))
	for name, v := range obj.props {
		rendered, err := renderProperty(reg, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", info.Name(), name, err)
		}
		out[name] = rendered
	}
	return out, nil
}

func renderProperty(reg *schema.Registry, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(val), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case [][]byte:
		out := make([]any, len(val))
		for i, b := range val {
			out[i] = base64.StdEncoding.EncodeToString(b)
		}
		return out, nil
	case []time.Time:
		out := make([]any, len(val))
		for i, t := range val {
			out[i] = t.UTC().Format(time.RFC3339Nano)
		}
		return out, nil
	case *Object:
		return refKey(reg, val)
	case []*Object:
		out := make([]any, len(val))
		for i, obj := range val {
			k, err := refKey(reg, obj)
			if err != nil {
				return nil, err
			}
			out[i] = k
		}
		return out, nil
	default:
		return v, nil
	}
}

func refKey(reg *schema.Registry, obj *Object) (any, error) {
	if obj == nil {
		return nil, nil
	}
	info, err := reg.Lookup(obj.ObjectType())
	if err != nil {
		return nil, err
	}
	key, _ := obj.Key(info)
	return key, nil
}
