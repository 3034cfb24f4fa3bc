package orchestrator

import (
	"fmt"
	"time"

	"github.com/maastricht-university/calltimeline/metrics"
	"github.com/maastricht-university/calltimeline/timeline"
)

// CallInput is one call as handed to the pipeline. Only the call id is
// checked at batch level; utterance and metadata defects are flagged per
// call and never reject the batch.
type CallInput struct {
	CallID       string                  `json:"call_id" yaml:"call_id" validate:"required"`
	DurationMeta *float64                `json:"duration_sec_metadata,omitempty" yaml:"duration_sec_metadata,omitempty"`
	Utterances   []timeline.RawUtterance `json:"utterances" yaml:"utterances"`
}

// Batch is the unit of work for one run. Call ids must be present and
// unique.
type Batch struct {
	Calls []CallInput `json:"calls" yaml:"calls" validate:"unique=CallID,dive"`
}

// Source says where a batch comes from. An empty Path means the ingest
// service configured under services.ingest.
type Source struct {
	Path string
}

func (s Source) String() string {
	if s.Path == "" {
		return "ingest"
	}
	return s.Path
}

// CallError is a per-call failure. It never aborts the rest of the batch.
type CallError struct {
	CallID string
	Err    error
}

func (e *CallError) Error() string { return fmt.Sprintf("call %s: %v", e.CallID, e.Err) }
func (e *CallError) Unwrap() error { return e.Err }

// Failure is the persisted form of a CallError.
type Failure struct {
	CallID string `json:"call_id" yaml:"call_id"`
	Error  string `json:"error" yaml:"error"`
}

// RunResult is what one Run produced.
type RunResult struct {
	RunID    string
	Dir      string
	Reports  []*metrics.Report
	Failures []*CallError
	Warnings int
	Skipped  int
}

// Manifest is written next to the metric files of a run.
type Manifest struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	Pipeline    string            `json:"pipeline" yaml:"pipeline"`
	Version     string            `json:"version" yaml:"version"`
	Source      string            `json:"source" yaml:"source"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Calls       int               `json:"calls" yaml:"calls"`
	Computed    int               `json:"computed" yaml:"computed"`
	Skipped     int               `json:"skipped" yaml:"skipped"`
	Warnings    int               `json:"warnings" yaml:"warnings"`
	Failures    []Failure         `json:"failures" yaml:"failures"`
	Metrics     map[string]string `json:"metrics" yaml:"metrics"`
	Files       map[string]string `json:"files" yaml:"files"`
}
