package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Every value is serialized as a tagged object:
//
//	{"kind":"string","value":"hello"}
//	{"kind":"list","elem":"int","value":[1,2,3]}
//	{"kind":"null"}
//
// Timestamps use RFC 3339 with nanoseconds in UTC, bytes use standard base64.

// MarshalJSON implements json.Marshaler using the canonical form.
func (r *Record) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(r)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire struct {
		RecordType string                     `json:"recordType"`
		RecordID   RecordID                   `json:"recordID"`
		Fields     map[string]json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.RecordType == "" {
		return fmt.Errorf("record: missing recordType")
	}

	fields := make(map[string]Value, len(wire.Fields))
	for name, raw := range wire.Fields {
		v, err := UnmarshalValue(raw)
		if err != nil {
			return fmt.Errorf("record field %q: %w", name, err)
		}
		fields[name] = v
	}

	r.Type = wire.RecordType
	r.ID = wire.RecordID
	r.Fields = fields
	return nil
}

// MarshalValue serializes a single value in its tagged form.
func MarshalValue(v Value) ([]byte, error) {
	tree, err := valueTree(v)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(tree, false)
}

// UnmarshalValue parses a tagged value. Integers outside int64 and floats
// tagged as int are rejected rather than rounded.
func UnmarshalValue(data []byte) (Value, error) {
	var wire struct {
		Kind  ValueKind       `json:"kind"`
		Elem  ValueKind       `json:"elem"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	switch wire.Kind {
	case KindNull:
		return Null{}, nil
	case "":
		return nil, fmt.Errorf("value: missing kind")
	}
	if len(wire.Value) == 0 {
		return nil, fmt.Errorf("value: kind %q without payload", wire.Kind)
	}

	switch wire.Kind {
	case KindList:
		var raws []json.RawMessage
		if err := json.Unmarshal(wire.Value, &raws); err != nil {
			return nil, fmt.Errorf("list payload: %w", err)
		}
		items := make([]Value, len(raws))
		for i, raw := range raws {
			item, err := decodeScalar(wire.Elem, raw)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			items[i] = item
		}
		return NewList(wire.Elem, items...)

	case KindAsset:
		var a Asset
		if err := json.Unmarshal(wire.Value, &a); err != nil {
			return nil, fmt.Errorf("asset payload: %w", err)
		}
		return a, nil

	case KindReference:
		var ref Reference
		if err := json.Unmarshal(wire.Value, &ref); err != nil {
			return nil, fmt.Errorf("reference payload: %w", err)
		}
		if ref.Action == "" {
			ref.Action = ActionNone
		}
		return ref, nil

	default:
		return decodeScalar(wire.Kind, wire.Value)
	}
}

func decodeScalar(kind ValueKind, raw json.RawMessage) (Value, error) {
	switch kind {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case KindInt:
		n, err := decodeNumber(raw)
		if err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("int payload %s: %w", raw, err)
		}
		return Int(i), nil

	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case KindDouble:
		n, err := decodeNumber(raw)
		if err != nil {
			return nil, err
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("double payload %s: %w", raw, err)
		}
		return Double(f), nil

	case KindBytes:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("bytes payload: %w", err)
		}
		return Bytes(b), nil

	case KindTimestamp:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("timestamp payload: %w", err)
		}
		return Timestamp(ts.UTC()), nil

	default:
		return nil, fmt.Errorf("unknown scalar kind %q", kind)
	}
}

func decodeNumber(raw json.RawMessage) (json.Number, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", err
	}
	return n, nil
}

// recordTree converts a record into the generic tree serialized by
// marshalCanonical.
func recordTree(r *Record) (map[string]any, error) {
	fields := make(map[string]any, len(r.Fields))
	for name, v := range r.Fields {
		tree, err := valueTree(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = tree
	}
	return map[string]any{
		"recordType": r.Type,
		"recordID":   recordIDTree(r.ID),
		"fields":     fields,
	}, nil
}

func recordIDTree(id RecordID) map[string]any {
	return map[string]any{
		"recordName": id.RecordName,
		"zoneID": map[string]any{
			"zoneName":  id.Zone.ZoneName,
			"ownerName": id.Zone.OwnerName,
		},
	}
}

func valueTree(v Value) (map[string]any, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value")
	}
	switch val := v.(type) {
	case Null:
		return map[string]any{"kind": string(KindNull)}, nil

	case List:
		items := make([]any, len(val.Items))
		for i, item := range val.Items {
			p, err := scalarPayload(item)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			items[i] = p
		}
		return map[string]any{"kind": string(KindList), "elem": string(val.Elem), "value": items}, nil

	case Asset:
		payload := map[string]any{
			"name":    val.Name,
			"blobKey": val.BlobKey,
			"size":    val.Size,
		}
		if val.ContentType != "" {
			payload["contentType"] = val.ContentType
		}
		if val.Checksum != "" {
			payload["checksum"] = val.Checksum
		}
		return map[string]any{"kind": string(KindAsset), "value": payload}, nil

	case Reference:
		action := val.Action
		if action == "" {
			action = ActionNone
		}
		payload := map[string]any{
			"recordID": recordIDTree(val.ID),
			"action":   string(action),
		}
		return map[string]any{"kind": string(KindReference), "value": payload}, nil

	default:
		p, err := scalarPayload(v)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": string(v.Kind()), "value": p}, nil
	}
}

func scalarPayload(v Value) (any, error) {
	switch val := v.(type) {
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Bool:
		return bool(val), nil
	case Double:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("double %v has no JSON representation", f)
		}
		return f, nil
	case Bytes:
		return base64.StdEncoding.EncodeToString(val), nil
	case Timestamp:
		return val.Time().Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("kind %q is not a scalar", v.Kind())
	}
}
