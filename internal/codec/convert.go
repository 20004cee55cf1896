package codec

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"time"

	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
)

// remoteKind maps a scalar property kind to the record value kind it encodes
// to. Float widens to Double.
func remoteKind(k schema.Kind) record.ValueKind {
	switch k {
	case schema.KindInt:
		return record.KindInt
	case schema.KindString:
		return record.KindString
	case schema.KindBool:
		return record.KindBool
	case schema.KindFloat, schema.KindDouble:
		return record.KindDouble
	case schema.KindBytes:
		return record.KindBytes
	case schema.KindTimestamp:
		return record.KindTimestamp
	default:
		return ""
	}
}

// toRemote converts a local scalar to its record value.
func toRemote(k schema.Kind, v any) (record.Value, error) {
	switch k {
	case schema.KindInt:
		n, ok := asInt64(v)
		if !ok {
			return nil, mismatch(k, v)
		}
		return record.Int(n), nil

	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(k, v)
		}
		return record.String(s), nil

	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(k, v)
		}
		return record.Bool(b), nil

	case schema.KindFloat, schema.KindDouble:
		var f float64
		switch x := v.(type) {
		case float32:
			f = float64(x)
		case float64:
			f = x
		default:
			return nil, mismatch(k, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v cannot be stored remotely", f)
		}
		return record.Double(f), nil

	case schema.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, mismatch(k, v)
		}
		return record.Bytes(slices.Clone(b)), nil

	case schema.KindTimestamp:
		t, ok := v.(time.Time)
		if !ok {
			return nil, mismatch(k, v)
		}
		return record.Timestamp(t.UTC()), nil

	default:
		return nil, fmt.Errorf("kind %s is not a scalar", k)
	}
}

// toRemoteList converts a local slice to a List. The second result is false
// for empty slices, which are not stored.
func toRemoteList(k schema.Kind, v any) (record.List, bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return record.List{}, false, fmt.Errorf("want list of %s, got %T", k, v)
	}
	if rv.Len() == 0 {
		return record.List{}, false, nil
	}

	items := make([]record.Value, rv.Len())
	for i := range items {
		elem := rv.Index(i).Interface()
		if elem == nil {
			return record.List{}, false, fmt.Errorf("list[%d]: nil element", i)
		}
		item, err := toRemote(k, elem)
		if err != nil {
			return record.List{}, false, fmt.Errorf("list[%d]: %w", i, err)
		}
		items[i] = item
	}

	list, err := record.NewList(remoteKind(k), items...)
	if err != nil {
		return record.List{}, false, err
	}
	return list, true, nil
}

// toLocal converts a record value to the local Go type of kind k.
// Int values are accepted for float and double properties.
func toLocal(k schema.Kind, v record.Value) (any, error) {
	switch k {
	case schema.KindInt:
		if n, ok := v.(record.Int); ok {
			return int64(n), nil
		}
	case schema.KindString:
		if s, ok := v.(record.String); ok {
			return string(s), nil
		}
	case schema.KindBool:
		if b, ok := v.(record.Bool); ok {
			return bool(b), nil
		}
	case schema.KindFloat:
		switch x := v.(type) {
		case record.Double:
			return float32(x), nil
		case record.Int:
			return float32(x), nil
		}
	case schema.KindDouble:
		switch x := v.(type) {
		case record.Double:
			return float64(x), nil
		case record.Int:
			return float64(x), nil
		}
	case schema.KindBytes:
		if b, ok := v.(record.Bytes); ok {
			return slices.Clone([]byte(b)), nil
		}
	case schema.KindTimestamp:
		if t, ok := v.(record.Timestamp); ok {
			return t.Time(), nil
		}
	}
	return nil, fmt.Errorf("want %s, got %s", k, v.Kind())
}

// toLocalList converts a List to a typed Go slice of kind k.
func toLocalList(k schema.Kind, v record.Value) (any, error) {
	list, ok := v.(record.List)
	if !ok {
		return nil, fmt.Errorf("want list of %s, got %s", k, v.Kind())
	}

	switch k {
	case schema.KindInt:
		return convertItems[int64](k, list)
	case schema.KindString:
		return convertItems[string](k, list)
	case schema.KindBool:
		return convertItems[bool](k, list)
	case schema.KindFloat:
		return convertItems[float32](k, list)
	case schema.KindDouble:
		return convertItems[float64](k, list)
	case schema.KindBytes:
		return convertItems[[]byte](k, list)
	case schema.KindTimestamp:
		return convertItems[time.Time](k, list)
	default:
		return nil, fmt.Errorf("kind %s is not a scalar", k)
	}
}

func convertItems[T any](k schema.Kind, list record.List) ([]T, error) {
	out := make([]T, len(list.Items))
	for i, item := range list.Items {
		v, err := toLocal(k, item)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		out[i] = v.(T)
	}
	return out, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func mismatch(k schema.Kind, v any) error {
	return fmt.Errorf("want %s, got %T", k, v)
}

// isNil reports whether v is nil or a typed nil pointer, map, slice or
// interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
