package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/schema"
)

// ValidationError describes one descriptor problem.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field,omitempty"`
}

// TypeSummary describes one registered type.
type TypeSummary struct {
	Name       string         `json:"name"`
	RecordType string         `json:"recordType"`
	Scope      string         `json:"scope"`
	Zone       string         `json:"zone"`
	Owner      string         `json:"owner"`
	PrimaryKey string         `json:"primaryKey"`
	Asset      bool           `json:"asset,omitempty"`
	Fields     []FieldSummary `json:"fields"`
}

// FieldSummary describes how one property maps.
type FieldSummary struct {
	Name   string `json:"name"`
	Shape  string `json:"shape"`
	Target string `json:"target,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Types    []TypeSummary     `json:"types,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [descriptors]",
		Short: "Validate type descriptors",
		Long: `Validate CUE or YAML type descriptors and print how each property maps.

Builds the registry exactly as the other commands do: duplicate types or
record types, missing primary keys, unknown reference targets and unsupported
scopes are reported. Properties that are never synced (to-many relationships,
lists of non-primitive values) are listed as warnings.

The descriptor path defaults to --schemas, then the config file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := opts.Settings()
	if err != nil {
		return err
	}
	path := cfg.Schemas
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return outputValidateError(formatter, ErrCodeNotFound, "no descriptors: pass a path, --schemas or set schemas in the config file")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("descriptor path not found: %s", path))
	}

	schemas, err := schema.LoadPath(path)
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{toValidationError(err)})
	}
	formatter.VerboseLog("Loaded %d type(s) from %s", len(schemas), path)

	reg, err := schema.Build(schemas, schema.WithOwner(cfg.Owner))
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{toValidationError(err)})
	}
	plans, err := codec.BuildPlans(reg)
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{toValidationError(err)})
	}

	result := ValidationResult{Valid: true}
	for _, info := range reg.Types() {
		formatter.VerboseLog("Validated type: %s", info.Name())
		summary, warnings := summarize(plans[info.Name()])
		result.Types = append(result.Types, summary)
		result.Warnings = append(result.Warnings, warnings...)
	}
	return outputValidateSuccess(formatter, result)
}

// summarize describes a plan and lists its unmapped fields.
func summarize(plan *codec.Plan) (TypeSummary, []string) {
	info := plan.Info
	s := TypeSummary{
		Name:       info.Name(),
		RecordType: info.RecordType,
		Scope:      string(info.Scope),
		Zone:       info.Zone.ZoneName,
		Owner:      info.Zone.OwnerName,
		PrimaryKey: info.PrimaryKey.Name,
		Asset:      info.IsAsset(),
		Fields:     make([]FieldSummary, 0, len(plan.Fields)),
	}

	var warnings []string
	for _, f := range plan.Fields {
		fs := FieldSummary{Name: f.Property.Name, Shape: f.Shape.String()}
		if f.Property.Target != "" {
			fs.Target = f.Property.Target
		}
		s.Fields = append(s.Fields, fs)
		if !f.Shape.Mapped() {
			warnings = append(warnings, fmt.Sprintf("%s.%s is not synced (%s)", info.Name(), f.Property.Name, f.Shape))
		}
	}
	return s, warnings
}

// toValidationError extracts code and position from descriptor and registry
// errors.
func toValidationError(err error) ValidationError {
	v := ValidationError{Code: ErrorCode(err), Message: err.Error()}

	var de *schema.DescriptorError
	if errors.As(err, &de) {
		v.Message = de.Message
		v.File = de.File
		v.Line = de.Line
		v.Field = de.Field
	}
	var ce *schema.ConfigError
	if errors.As(err, &ce) {
		v.Message = ce.Message
		v.Field = ce.Type
		if ce.Property != "" {
			v.Field += "." + ce.Property
		}
	}
	return v
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, t := range result.Types {
		fmt.Fprintf(w, "%s -> %s (%s/%s) key %s\n", t.Name, t.RecordType, t.Owner, t.Zone, t.PrimaryKey)
		for _, f := range t.Fields {
			if f.Target != "" {
				fmt.Fprintf(w, "  %s %s %s\n", f.Name, f.Shape, f.Target)
				continue
			}
			fmt.Fprintf(w, "  %s %s\n", f.Name, f.Shape)
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintf(w, "✓ %d type(s) valid\n", len(result.Types))
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Missing paths are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs descriptor errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		switch {
		case err.File != "" && err.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.File, err.Line)
		case err.File != "":
			fmt.Fprintln(formatter.Writer, err.File)
		}
		if err.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
