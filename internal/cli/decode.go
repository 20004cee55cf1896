package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/recmap/internal/asset"
	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	DryRun      bool   // decode in memory without touching the database
	MetricsFile string // write codec metrics in text exposition format
}

// DecodedObject is one local object after a decode run.
type DecodedObject struct {
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// DecodeResult holds the outcome of one decode run.
type DecodeResult struct {
	Objects []DecodedObject `json:"objects"`
	Reports []*codec.Report `json:"reports"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode [records-file]",
		Short: "Merge records into local objects",
		Long: `Decode remote records and merge them into the local database.

Records are read from the file argument or stdin, either as a JSON array or
as a stream of JSON objects (one per line). All objects touched by the run,
referenced stubs included, are saved in one transaction after every record
decoded successfully.

With --dry-run the records are decoded in memory and nothing is saved.

Examples:
  recmap encode --type Note | recmap decode --db ./other.db
  recmap decode records.json --dry-run --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runDecode(cmd.Context(), opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "decode in memory without saving")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write codec metrics to this file")

	return cmd
}

func runDecode(ctx context.Context, opts *DecodeOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	records, err := readRecords(path, cmd.InOrStdin())
	if err != nil {
		formatter.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read records", err)
	}

	ws, err := openWorkspace(opts.RootOptions, !opts.DryRun)
	if err != nil {
		return formatter.Fail("failed to open workspace", err)
	}
	defer ws.Close()

	blobs, err := ws.openBlobs(ctx)
	if err != nil {
		return formatter.Fail("failed to open workspace", err)
	}

	metricsReg := prometheus.NewRegistry()
	metrics, err := codec.NewMetrics(metricsReg)
	if err != nil {
		return formatter.Fail("failed to register metrics", err)
	}

	var (
		resolver codec.Resolver
		flush    func(context.Context) error
	)
	if opts.DryRun {
		resolver = model.NewMemoryResolver(ws.reg)
		flush = func(context.Context) error { return nil }
	} else {
		session := ws.store.Session()
		resolver, flush = session, session.Flush
	}

	dec, err := codec.NewDecoder(ws.reg, resolver,
		codec.WithAssets(asset.NewProvider(blobs)),
		codec.WithMetrics(metrics))
	if err != nil {
		return formatter.Fail("failed to create decoder", err)
	}

	result, err := decodeRecords(ctx, ws.reg, dec, records)
	if err != nil {
		return formatter.Fail("decode failed", err)
	}
	if err := flush(ctx); err != nil {
		return formatter.Fail("failed to save objects", err)
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, metricsReg); err != nil {
			return formatter.Fail("failed to write metrics", err)
		}
	}
	return outputDecode(formatter, result)
}

// readRecords reads records from path, or from stdin when path is empty.
func readRecords(path string, stdin io.Reader) ([]*record.Record, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return parseRecords(data)
}

// parseRecords accepts a JSON array of records or a stream of record objects.
func parseRecords(data []byte) ([]*record.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("no records in input")
	}

	if trimmed[0] == '[' {
		var records []*record.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parsing record array: %w", err)
		}
		for i, rec := range records {
			if rec == nil {
				return nil, fmt.Errorf("parsing record %d: null", i)
			}
		}
		return records, nil
	}

	var records []*record.Record
	dec := json.NewDecoder(bufio.NewReader(bytes.NewReader(trimmed)))
	for i := 0; ; i++ {
		rec := new(record.Record)
		err := dec.Decode(rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecords(ctx context.Context, reg *schema.Registry, dec *codec.Decoder, records []*record.Record) (*DecodeResult, error) {
	result := &DecodeResult{Objects: []DecodedObject{}, Reports: []*codec.Report{}}
	for i, rec := range records {
		obj, report, err := dec.Decode(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s %s): %w", i, rec.Type, rec.ID.RecordName, err)
		}
		local, ok := obj.(*model.Object)
		if !ok {
			return nil, fmt.Errorf("record %d: resolver returned %T", i, obj)
		}
		props, err := model.ToProps(reg, local)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		result.Objects = append(result.Objects, DecodedObject{Type: local.ObjectType(), Props: props})
		result.Reports = append(result.Reports, report)
	}
	return result, nil
}

func outputDecode(formatter *OutputFormatter, result *DecodeResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	enc := json.NewEncoder(formatter.Writer)
	for i, obj := range result.Objects {
		if err := enc.Encode(obj); err != nil {
			return err
		}
		report := result.Reports[i]
		for _, s := range report.Skipped {
			fmt.Fprintf(formatter.GetErrWriter(), "%s %s: skipped %s\n", report.Type, report.RecordName, s)
		}
	}
	formatter.VerboseLog("Decoded %d record(s)", len(result.Objects))
	return nil
}
