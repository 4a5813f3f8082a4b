package checkpoint

import (
	"fmt"
	"time"

	"go.jetify.com/typeid"
)

// runNameTimeFormat is the default run name layout when neither a run name
// nor a run name template is supplied.
const runNameTimeFormat = "20060102T150405.000000Z"

// RunIdentifier identifies one execution of a checkpoint. All validations
// within a run share the same identifier so their results can be correlated
// later.
type RunIdentifier struct {
	RunName string    `json:"run_name" yaml:"run_name"`
	RunTime time.Time `json:"run_time" yaml:"run_time"`
}

// NewRunIdentifier builds a run identifier. A zero runTime defaults to the
// current UTC time, and an empty runName defaults to a timestamp derived
// from the run time.
func NewRunIdentifier(runName string, runTime time.Time) RunIdentifier {
	if runTime.IsZero() {
		runTime = time.Now().UTC()
	}
	if runName == "" {
		runName = runTime.UTC().Format(runNameTimeFormat)
	}
	return RunIdentifier{RunName: runName, RunTime: runTime}
}

func (r RunIdentifier) String() string {
	return fmt.Sprintf("%s@%s", r.RunName, r.RunTime.UTC().Format(time.RFC3339))
}

// ValidationResultIdentifier keys one validation outcome within a run:
// the expectation suite, the shared run identifier and the batch the
// validation executed against.
type ValidationResultIdentifier struct {
	ExpectationSuiteName string        `json:"expectation_suite_name" yaml:"expectation_suite_name"`
	RunID                RunIdentifier `json:"run_id" yaml:"run_id"`
	BatchIdentifier      string        `json:"batch_identifier" yaml:"batch_identifier"`
}

func (v ValidationResultIdentifier) String() string {
	return fmt.Sprintf("%s::%s::%s", v.ExpectationSuiteName, v.RunID, v.BatchIdentifier)
}

// NewRunExecutionID returns a unique ID correlating the log lines and
// stored artifacts of a single Run call.
func NewRunExecutionID() string {
	id, err := typeid.WithPrefix("ckptrun")
	if err != nil {
		panic(err)
	}
	return id.String()
}
