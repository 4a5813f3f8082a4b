package checkpoint

import (
	"sort"
	"time"
)

// ActionStatus reports how a single action invocation ended.
type ActionStatus string

const (
	ActionStatusOK      ActionStatus = "ok"
	ActionStatusSkipped ActionStatus = "skipped"
	ActionStatusFailed  ActionStatus = "failed"
)

// ActionResult is the structured outcome of dispatching one action against
// one validation result.
type ActionResult struct {
	Name   string         `json:"name" yaml:"name"`
	Kind   ActionKind     `json:"kind" yaml:"kind"`
	Status ActionStatus   `json:"status" yaml:"status"`
	Detail map[string]any `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunResult pairs one validation outcome with the results of the actions
// that ran against it.
type RunResult struct {
	ID               ValidationResultIdentifier `json:"id" yaml:"id"`
	ValidationResult *ValidationResult          `json:"validation_result" yaml:"validation_result"`
	ActionResults    []ActionResult             `json:"action_results" yaml:"action_results"`
}

// CheckpointResult aggregates the outcomes of one run of a checkpoint. It is
// created fresh per run and owned solely by the caller. Entries appear in
// validation execution order.
type CheckpointResult struct {
	name        string
	executionID string
	runID       RunIdentifier
	runResults  []*RunResult
	byID        map[string]*RunResult
	startTime   time.Time
	endTime     time.Time
}

func newCheckpointResult(name, executionID string, runID RunIdentifier) *CheckpointResult {
	return &CheckpointResult{
		name:        name,
		executionID: executionID,
		runID:       runID,
		byID:        map[string]*RunResult{},
		startTime:   time.Now(),
	}
}

func (r *CheckpointResult) add(result *RunResult) {
	r.runResults = append(r.runResults, result)
	r.byID[result.ID.String()] = result
}

func (r *CheckpointResult) finish() {
	r.endTime = time.Now()
}

// Name returns the checkpoint name this result belongs to.
func (r *CheckpointResult) Name() string {
	return r.name
}

// ExecutionID returns the unique ID assigned to this Run call.
func (r *CheckpointResult) ExecutionID() string {
	return r.executionID
}

// RunID returns the run identifier shared by all validations in this run.
func (r *CheckpointResult) RunID() RunIdentifier {
	return r.runID
}

// Duration returns how long the run took.
func (r *CheckpointResult) Duration() time.Duration {
	return r.endTime.Sub(r.startTime)
}

// Success is the logical AND of all validation outcomes. A run with zero
// validations is vacuously successful.
func (r *CheckpointResult) Success() bool {
	for _, result := range r.runResults {
		if !result.ValidationResult.Success {
			return false
		}
	}
	return true
}

// RunResults returns the per-validation entries in execution order.
func (r *CheckpointResult) RunResults() []*RunResult {
	return r.runResults
}

// RunResult returns the entry for the given identifier, if present.
func (r *CheckpointResult) RunResult(id ValidationResultIdentifier) (*RunResult, bool) {
	result, ok := r.byID[id.String()]
	return result, ok
}

// ListValidationResults returns the validation outcomes in execution order.
func (r *CheckpointResult) ListValidationResults() []*ValidationResult {
	results := make([]*ValidationResult, 0, len(r.runResults))
	for _, entry := range r.runResults {
		results = append(results, entry.ValidationResult)
	}
	return results
}

// ListExpectationSuiteNames returns the sorted set of expectation suite
// names involved in this run.
func (r *CheckpointResult) ListExpectationSuiteNames() []string {
	seen := map[string]bool{}
	names := []string{}
	for _, entry := range r.runResults {
		name := entry.ID.ExpectationSuiteName
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
