package harness

import (
	"github.com/roach88/recmap/internal/record"
)

// Step kinds recorded in the trace.
const (
	StepEncode = "encode"
	StepDecode = "decode"
)

// TraceEvent records the outcome of one flow step.
type TraceEvent struct {
	Step       string   `json:"step"`
	Type       string   `json:"type,omitempty"`
	RecordName string   `json:"record_name,omitempty"`
	Record     string   `json:"record,omitempty"` // canonical JSON, encode only
	Skipped    []string `json:"skipped,omitempty"`
	Deleted    bool     `json:"deleted,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Records holds every successfully encoded record, in flow order.
	Records []*record.Record `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// FindRecord returns the last encoded record with the given name, optionally
// restricted to a record type.
func (r *Result) FindRecord(recordType, name string) (*record.Record, bool) {
	for i := len(r.Records) - 1; i >= 0; i-- {
		rec := r.Records[i]
		if rec.ID.RecordName == name && (recordType == "" || rec.Type == recordType) {
			return rec, true
		}
	}
	return nil, false
}
