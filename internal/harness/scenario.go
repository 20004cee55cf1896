package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recmap/internal/identity"
)

// Scenario defines a codec conformance scenario: a set of type descriptors,
// some stored objects, and a flow of encode and decode steps whose records
// and reports are checked by assertions and a golden trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists descriptor files or directories (CUE or YAML).
	// Paths are relative to the scenario file location.
	Schemas []string `yaml:"schemas"`

	// Owner is the principal owning private zones. Defaults to the
	// registry default.
	Owner string `yaml:"owner,omitempty"`

	// Validation is the record name validation mode, "strict" or "skip".
	Validation string `yaml:"validation,omitempty"`

	// Assets are imported into the blob store before setup. Each import
	// saves a wrapper object keyed by Name.
	Assets []AssetStep `yaml:"assets,omitempty"`

	// Setup objects are saved to the store before the flow runs.
	Setup []ObjectStep `yaml:"setup,omitempty"`

	// Flow contains the encode and decode steps.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the encoded records and the final store state.
	Assertions []Assertion `yaml:"assertions"`
}

// AssetStep imports a blob and stores its wrapper object.
type AssetStep struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Content     string `yaml:"content"`
	ContentType string `yaml:"contentType,omitempty"`
}

// ObjectStep describes an object by type and properties. Reference
// properties hold the target's primary key.
type ObjectStep struct {
	Type  string         `yaml:"type"`
	Props map[string]any `yaml:"props"`
}

// FlowStep is exactly one of an encode or a decode.
type FlowStep struct {
	// Encode builds an object from props and encodes it.
	Encode *ObjectStep `yaml:"encode,omitempty"`

	// Decode is a record in its tagged JSON form, merged into the store.
	Decode map[string]any `yaml:"decode,omitempty"`

	// Expect specifies the expected outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Error is a substring of the expected error. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Skipped lists exactly the fields the report must contain.
	Skipped []SkippedField `yaml:"skipped,omitempty"`

	// Deleted is the expected soft-delete flag, when set.
	Deleted *bool `yaml:"deleted,omitempty"`
}

// SkippedField names one reported field.
type SkippedField struct {
	Property string `yaml:"property"`
	Code     string `yaml:"code"`
}

// Assertion validates encoded records or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "record_field": Check a field of an encoded record
	// - "record_count": Check the number of encoded records
	// - "final_state": Load a stored object and verify expected values
	Type string `yaml:"type"`

	// Record is the record name (used by record_field).
	Record string `yaml:"record,omitempty"`

	// RecordType selects among records sharing a name (used by record_field).
	RecordType string `yaml:"recordType,omitempty"`

	// Field is the record field name (used by record_field).
	Field string `yaml:"field,omitempty"`

	// Kind is the expected value kind, or "absent" when the field must not
	// be present (used by record_field).
	Kind string `yaml:"kind,omitempty"`

	// Value is the expected scalar or list payload (used by record_field).
	Value any `yaml:"value,omitempty"`

	// ObjectType and Key select a stored object (used by final_state).
	ObjectType string `yaml:"objectType,omitempty"`
	Key        any    `yaml:"key,omitempty"`

	// Expect contains expected property values (used by final_state).
	// Subset match - only specified properties are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of records (used by record_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordField = "record_field"
	AssertRecordCount = "record_count"
	AssertFinalState  = "final_state"
)

// KindAbsent marks a record field that must not be present.
const KindAbsent = "absent"

// LoadScenario reads and parses a scenario YAML file, resolving schema
// paths relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario, resolving schema paths
// relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, p := range scenario.Schemas {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Schemas[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Schemas) == 0 {
		return fmt.Errorf("schemas list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if _, err := identity.ParseValidation(s.Validation); err != nil {
		return err
	}

	for _, p := range s.Schemas {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("schema path not found: %s", p)
		}
	}

	for i, a := range s.Assets {
		if a.Type == "" || a.Name == "" {
			return fmt.Errorf("assets[%d]: type and name are required", i)
		}
	}
	for i, step := range s.Setup {
		if step.Type == "" {
			return fmt.Errorf("setup[%d]: type is required", i)
		}
	}
	for i, step := range s.Flow {
		switch {
		case step.Encode == nil && step.Decode == nil:
			return fmt.Errorf("flow[%d]: one of encode or decode is required", i)
		case step.Encode != nil && step.Decode != nil:
			return fmt.Errorf("flow[%d]: encode and decode are exclusive", i)
		case step.Encode != nil && step.Encode.Type == "":
			return fmt.Errorf("flow[%d].encode: type is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRecordField:
		if a.Record == "" || a.Field == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: record, field and kind are required for record_field", index)
		}
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertFinalState:
		if a.ObjectType == "" || a.Key == nil {
			return fmt.Errorf("assertions[%d]: objectType and key are required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
