package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, event.Step, event.Type, event.RecordName)
		}
	}
	return buf.String()
}

// AssertionContext carries what final_state assertions need.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var msgs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRecordField:
			err = assertRecordField(result, a)
		case AssertRecordCount:
			err = assertRecordCount(result, a)
		case AssertFinalState:
			err = assertFinalState(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

// assertRecordField checks the kind and, when given, the payload of one
// field of an encoded record.
func assertRecordField(result *Result, a Assertion) error {
	rec, ok := result.FindRecord(a.RecordType, a.Record)
	if !ok {
		return &AssertionError{
			Type:     AssertRecordField,
			Expected: fmt.Sprintf("encoded record %q", a.Record),
			Actual:   "record not found",
			Trace:    result.Trace,
		}
	}

	v, present := rec.Get(a.Field)
	if a.Kind == KindAbsent {
		if present {
			return &AssertionError{
				Type:     AssertRecordField,
				Expected: fmt.Sprintf("field %q absent", a.Field),
				Actual:   fmt.Sprintf("field %q has kind %s", a.Field, v.Kind()),
			}
		}
		return nil
	}
	if !present {
		return &AssertionError{
			Type:     AssertRecordField,
			Expected: fmt.Sprintf("field %q of kind %s", a.Field, a.Kind),
			Actual:   "field absent",
		}
	}
	if string(v.Kind()) != a.Kind {
		return &AssertionError{
			Type:     AssertRecordField,
			Expected: fmt.Sprintf("field %q of kind %s", a.Field, a.Kind),
			Actual:   fmt.Sprintf("kind %s", v.Kind()),
		}
	}
	if a.Value == nil {
		return nil
	}

	actual, err := payload(v)
	if err != nil {
		return err
	}
	expected, err := jsonShape(normalizeValue(a.Value))
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(expected, actual) {
		return &AssertionError{
			Type:     AssertRecordField,
			Expected: fmt.Sprintf("field %q = %v", a.Field, expected),
			Actual:   fmt.Sprintf("field %q = %v", a.Field, actual),
		}
	}
	return nil
}

// assertRecordCount checks how many records the flow encoded.
func assertRecordCount(result *Result, a Assertion) error {
	if len(result.Records) != a.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d encoded records", a.Count),
			Actual:   fmt.Sprintf("%d encoded records", len(result.Records)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalState loads a stored object and compares its properties with
// the expected values using subset semantics.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("final_state assertion requires a store")
	}
	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	reg := actx.Store.Registry()

	info, err := reg.Lookup(a.ObjectType)
	if err != nil {
		return err
	}
	key, err := model.Scalar(info.PrimaryKey.Kind, a.Key)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}

	obj, err := actx.Store.Load(ctx, a.ObjectType, key)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("stored %s %v", a.ObjectType, a.Key),
			Actual:   err.Error(),
		}
	}
	props, err := model.ToProps(reg, obj)
	if err != nil {
		return err
	}
	actual, err := jsonShape(props)
	if err != nil {
		return err
	}
	actualMap := actual.(map[string]any)

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		expected, err := jsonShape(normalizeValue(a.Expect[k]))
		if err != nil {
			return err
		}
		got, exists := actualMap[k]
		if !exists {
			got = nil
		}
		if !reflect.DeepEqual(expected, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.ObjectType, k, expected),
				Actual:   fmt.Sprintf("%s.%s = %v", a.ObjectType, k, got),
			}
		}
	}
	return nil
}

// payload returns the "value" member of v's tagged JSON form.
func payload(v record.Value) (any, error) {
	data, err := record.MarshalValue(v)
	if err != nil {
		return nil, err
	}
	var tagged map[string]any
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	return tagged["value"], nil
}

// jsonShape passes v through encoding/json so that YAML and Go values
// compare equal to their decoded JSON counterparts.
func jsonShape(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
