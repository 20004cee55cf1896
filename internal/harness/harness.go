package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/recmap/internal/asset"
	"github.com/roach88/recmap/internal/blob"
	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
	"github.com/roach88/recmap/internal/store"
	"github.com/roach88/recmap/internal/testutil"
)

// Harness executes a scenario against a fresh in-memory store. Encoded
// objects are saved first, so later decode steps merge into them.
type Harness struct {
	reg    *schema.Registry
	store  *store.Store
	blobs  blob.Store
	enc    *codec.Encoder
	assets *asset.Provider
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database and blob store with a
// deterministic clock, so traces are reproducible.
//
// Execution flow:
// 1. Load descriptors and build the registry
// 2. Import assets and save setup objects
// 3. Execute flow steps, checking expect clauses
// 4. Evaluate assertions against records and final state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	if err := h.executeSetup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		h.executeStep(ctx, i, step, result)
	}

	actx := &AssertionContext{Store: h.store, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	var schemas []schema.ObjectSchema
	for _, p := range scenario.Schemas {
		loaded, err := schema.LoadPath(p)
		if err != nil {
			return nil, fmt.Errorf("failed to load schemas: %w", err)
		}
		schemas = append(schemas, loaded...)
	}
	reg, err := schema.Build(schemas, schema.WithOwner(scenario.Owner))
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	validation, err := identity.ParseValidation(scenario.Validation)
	if err != nil {
		return nil, err
	}

	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", reg, store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	blobs := blob.NewMemory()
	provider := asset.NewProvider(blobs)
	enc, err := codec.NewEncoder(identity.New(reg, identity.WithValidation(validation)), codec.WithAssets(provider))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &Harness{reg: reg, store: st, blobs: blobs, enc: enc, assets: provider}, nil
}

// executeSetup imports assets and saves setup objects. Setup steps are
// assumed to succeed; any failure aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, scenario *Scenario) error {
	for i, a := range scenario.Assets {
		wrapper, err := asset.Import(ctx, h.blobs, a.Type, a.Name, strings.NewReader(a.Content), a.ContentType)
		if err != nil {
			return fmt.Errorf("assets[%d]: %w", i, err)
		}
		if err := h.store.Save(ctx, wrapper); err != nil {
			return fmt.Errorf("assets[%d]: %w", i, err)
		}
	}

	for i, step := range scenario.Setup {
		obj, err := h.build(ctx, step)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if err := h.store.Save(ctx, obj); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		slog.Debug("setup object saved", "step", i, "type", step.Type)
	}
	return nil
}

// build creates an object from a step, resolving references against the
// store. Missing targets become stubs that are saved with the object.
func (h *Harness) build(ctx context.Context, step ObjectStep) (*model.Object, error) {
	ss := h.store.Session()
	obj, err := model.FromProps(h.reg, step.Type, normalize(step.Props).(map[string]any), func(typeName string, key any) (*model.Object, error) {
		target, err := ss.FindOrCreate(ctx, typeName, key)
		if err != nil {
			return nil, err
		}
		return target.(*model.Object), nil
	})
	if err != nil {
		return nil, err
	}
	if err := ss.Flush(ctx); err != nil {
		return nil, err
	}
	return obj, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step FlowStep, result *Result) {
	var (
		event  TraceEvent
		report *codec.Report
		err    error
	)
	if step.Encode != nil {
		event, report, err = h.encode(ctx, step, result)
	} else {
		event, report, err = h.decode(ctx, step)
	}

	if err != nil {
		event.Error = err.Error()
	}
	if report != nil {
		for _, s := range report.Skipped {
			event.Skipped = append(event.Skipped, s.Property+" "+string(s.Code))
		}
		event.Deleted = report.Deleted
	}
	result.Trace = append(result.Trace, event)

	for _, msg := range checkExpect(step.Expect, report, err) {
		result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, event.Step, msg))
	}
}

func (h *Harness) encode(ctx context.Context, step FlowStep, result *Result) (TraceEvent, *codec.Report, error) {
	event := TraceEvent{Step: StepEncode, Type: step.Encode.Type}

	obj, err := h.build(ctx, *step.Encode)
	if err != nil {
		return event, nil, err
	}
	if err := h.store.Save(ctx, obj); err != nil {
		return event, nil, err
	}
	rec, report, err := h.enc.Encode(obj)
	if err != nil {
		return event, nil, err
	}
	canonical, err := record.MarshalCanonical(rec)
	if err != nil {
		return event, report, err
	}

	event.RecordName = rec.ID.RecordName
	event.Record = string(canonical)
	result.Records = append(result.Records, rec)
	return event, report, nil
}

func (h *Harness) decode(ctx context.Context, step FlowStep) (TraceEvent, *codec.Report, error) {
	event := TraceEvent{Step: StepDecode}

	data, err := json.Marshal(normalize(step.Decode))
	if err != nil {
		return event, nil, err
	}
	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return event, nil, err
	}
	event.RecordName = rec.ID.RecordName

	ss := h.store.Session()
	dec, err := codec.NewDecoder(h.reg, ss, codec.WithAssets(h.assets))
	if err != nil {
		return event, nil, err
	}
	obj, report, err := dec.Decode(ctx, &rec)
	if err != nil {
		return event, nil, err
	}
	event.Type = obj.ObjectType()
	if err := ss.Flush(ctx); err != nil {
		return event, report, err
	}
	return event, report, nil
}

// checkExpect compares a step outcome with its expect clause. A nil clause
// expects success.
func checkExpect(expect *ExpectClause, report *codec.Report, err error) []string {
	if expect == nil {
		expect = &ExpectClause{}
	}

	if expect.Error != "" {
		switch {
		case err == nil:
			return []string{fmt.Sprintf("expected error containing %q, got success", expect.Error)}
		case !strings.Contains(err.Error(), expect.Error):
			return []string{fmt.Sprintf("expected error containing %q, got %q", expect.Error, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	var want, got []string
	for _, s := range expect.Skipped {
		want = append(want, s.Property+" "+s.Code)
	}
	for _, s := range report.Skipped {
		got = append(got, s.Property+" "+string(s.Code))
	}
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		msgs = append(msgs, fmt.Sprintf("skipped fields: expected %v, got %v", want, got))
	}
	if expect.Deleted != nil && *expect.Deleted != report.Deleted {
		msgs = append(msgs, fmt.Sprintf("deleted: expected %t, got %t", *expect.Deleted, report.Deleted))
	}
	return msgs
}

// normalize converts YAML-decoded values into the shapes JSON decoding
// produces: map[string]any with string keys and []any.
func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalize(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
