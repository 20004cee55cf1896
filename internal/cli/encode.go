package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/recmap/internal/asset"
	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
	"github.com/roach88/recmap/internal/store"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Input       string   // JSON objects file, used instead of the database
	Type        string   // encode every object of this type
	Keys        []string // restrict --type to these keys
	Since       int64    // encode objects changed after this sequence
	MetricsFile string   // write codec metrics in text exposition format
}

// InputObject is one entry of an --input file.
type InputObject struct {
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// EncodeResult holds the records produced by one encode run.
type EncodeResult struct {
	Records []*record.Record `json:"records"`
	Reports []*codec.Report  `json:"reports"`

	// Fingerprints holds the content hash of each record, in order.
	Fingerprints []string `json:"fingerprints"`

	// LastSeq is the highest change sequence encoded, for the next --since.
	LastSeq int64 `json:"lastSeq,omitempty"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode local objects into records",
		Long: `Encode local objects into remote records, printed as canonical JSON.

Objects come from the database (--type, --key, --since) or from a JSON file
(--input) holding [{"type": "Note", "props": {...}}, ...]. References in an
input file name the target's primary key.

Fields that cannot be encoded are skipped and reported on stderr.

Examples:
  recmap encode --db ./recmap.db --type Note
  recmap encode --db ./recmap.db --type Note --key abc123
  recmap encode --db ./recmap.db --since 42 --format json
  recmap encode --input objects.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "JSON file of objects to encode instead of the database")
	cmd.Flags().StringVar(&opts.Type, "type", "", "encode objects of this type")
	cmd.Flags().StringSliceVar(&opts.Keys, "key", nil, "primary keys to encode (requires --type)")
	cmd.Flags().Int64Var(&opts.Since, "since", -1, "encode objects changed after this sequence number")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write codec metrics to this file")

	return cmd
}

func runEncode(ctx context.Context, opts *EncodeOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := checkEncodeFlags(opts); err != nil {
		return formatter.Fail("invalid flags", NewExitError(ExitCommandError, err.Error()))
	}

	ws, err := openWorkspace(opts.RootOptions, opts.Input == "")
	if err != nil {
		return formatter.Fail("failed to open workspace", err)
	}
	defer ws.Close()

	metricsReg := prometheus.NewRegistry()
	metrics, err := codec.NewMetrics(metricsReg)
	if err != nil {
		return formatter.Fail("failed to register metrics", err)
	}
	enc, err := codec.NewEncoder(ws.ids,
		codec.WithAssets(asset.NewProvider(nil)),
		codec.WithMetrics(metrics))
	if err != nil {
		return formatter.Fail("failed to create encoder", err)
	}

	var result *EncodeResult
	if opts.Input != "" {
		result, err = encodeInput(ws.reg, enc, opts.Input)
	} else {
		result, err = encodeStored(ctx, ws.store, enc, opts)
	}
	if err != nil {
		return formatter.Fail("encode failed", err)
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, metricsReg); err != nil {
			return formatter.Fail("failed to write metrics", err)
		}
	}
	return outputEncode(formatter, result)
}

func newEncodeResult() *EncodeResult {
	return &EncodeResult{
		Records:      []*record.Record{},
		Reports:      []*codec.Report{},
		Fingerprints: []string{},
	}
}

func checkEncodeFlags(opts *EncodeOptions) error {
	selectors := 0
	if opts.Input != "" {
		selectors++
	}
	if opts.Type != "" {
		selectors++
	}
	if opts.Since >= 0 {
		selectors++
	}
	switch {
	case selectors == 0:
		return fmt.Errorf("one of --input, --type or --since is required")
	case selectors > 1:
		return fmt.Errorf("--input, --type and --since are exclusive")
	case len(opts.Keys) > 0 && opts.Type == "":
		return fmt.Errorf("--key requires --type")
	}
	return nil
}

// encodeStored encodes objects from the store inside one read transaction,
// so every record reflects the same snapshot.
func encodeStored(ctx context.Context, st *store.Store, enc *codec.Encoder, opts *EncodeOptions) (*EncodeResult, error) {
	result := newEncodeResult()
	reg := st.Registry()

	err := st.View(ctx, func(r *store.Reader) error {
		objs, lastSeq, err := selectObjects(ctx, r, reg, opts)
		if err != nil {
			return err
		}
		result.LastSeq = lastSeq
		for _, obj := range objs {
			if err := encodeOne(enc, obj, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func selectObjects(ctx context.Context, r *store.Reader, reg *schema.Registry, opts *EncodeOptions) ([]*model.Object, int64, error) {
	if opts.Since >= 0 {
		changes, err := r.ChangedSince(ctx, opts.Since)
		if err != nil {
			return nil, 0, err
		}
		objs := make([]*model.Object, 0, len(changes))
		lastSeq := opts.Since
		for _, c := range changes {
			info, err := reg.Lookup(c.Type)
			if err != nil {
				return nil, 0, err
			}
			key, err := identity.ParseKey(info, c.Key)
			if err != nil {
				return nil, 0, err
			}
			obj, err := r.Load(ctx, c.Type, key)
			if err != nil {
				return nil, 0, err
			}
			objs = append(objs, obj)
			lastSeq = c.Seq
		}
		return objs, lastSeq, nil
	}

	if len(opts.Keys) == 0 {
		objs, err := r.List(ctx, opts.Type)
		return objs, 0, err
	}

	info, err := reg.Lookup(opts.Type)
	if err != nil {
		return nil, 0, err
	}
	objs := make([]*model.Object, 0, len(opts.Keys))
	for _, raw := range opts.Keys {
		key, err := identity.ParseKey(info, raw)
		if err != nil {
			return nil, 0, err
		}
		obj, err := r.Load(ctx, opts.Type, key)
		if err != nil {
			return nil, 0, fmt.Errorf("%s %s: %w", opts.Type, raw, err)
		}
		objs = append(objs, obj)
	}
	return objs, 0, nil
}

// encodeInput builds objects from a JSON file and encodes them in order.
// References resolve through an in-memory identity map, so a target listed
// later in the file is the same object as the stub its referrer received.
// Objects of string-keyed types without a key get a generated one.
func encodeInput(reg *schema.Registry, enc *codec.Encoder, path string) (*EncodeResult, error) {
	items, err := readInputObjects(path)
	if err != nil {
		return nil, err
	}

	objects := model.NewMemoryResolver(reg)
	lookup := func(typeName string, key any) (*model.Object, error) {
		obj, err := objects.FindOrCreate(context.Background(), typeName, key)
		if err != nil {
			return nil, err
		}
		return obj.(*model.Object), nil
	}

	built := make([]*model.Object, 0, len(items))
	for i, item := range items {
		obj, err := model.FromProps(reg, item.Type, item.Props, lookup)
		if err != nil {
			return nil, fmt.Errorf("input[%d]: %w", i, err)
		}
		info, err := reg.Lookup(item.Type)
		if err != nil {
			return nil, fmt.Errorf("input[%d]: %w", i, err)
		}
		key, ok := obj.Key(info)
		if !ok {
			if info.PrimaryKey.Kind != schema.KindString {
				return nil, fmt.Errorf("input[%d]: %s object has no primary key", i, item.Type)
			}
			key = model.NewKey()
			obj.SetProperty(info.PrimaryKey.Name, key)
		}
		target, err := lookup(item.Type, key)
		if err != nil {
			return nil, fmt.Errorf("input[%d]: %w", i, err)
		}
		for name, v := range obj.Props() {
			target.SetProperty(name, v)
		}
		built = append(built, target)
	}

	result := newEncodeResult()
	for _, obj := range built {
		if err := encodeOne(enc, obj, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func readInputObjects(path string) ([]InputObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read input", err)
	}
	var items []InputObject
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to parse %s", path), err)
	}
	return items, nil
}

func encodeOne(enc *codec.Encoder, obj *model.Object, result *EncodeResult) error {
	rec, report, err := enc.Encode(obj)
	if err != nil {
		return err
	}
	fp, err := record.Fingerprint(rec)
	if err != nil {
		return err
	}
	result.Records = append(result.Records, rec)
	result.Reports = append(result.Reports, report)
	result.Fingerprints = append(result.Fingerprints, fp)
	return nil
}

func outputEncode(formatter *OutputFormatter, result *EncodeResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for i, rec := range result.Records {
		data, err := record.MarshalCanonical(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(formatter.Writer, string(data))
		for _, s := range result.Reports[i].Skipped {
			fmt.Fprintf(formatter.GetErrWriter(), "%s %s: skipped %s\n", result.Reports[i].Type, rec.ID.RecordName, s)
		}
	}
	formatter.VerboseLog("Encoded %d record(s)", len(result.Records))
	return nil
}
