package checkpoint

import (
	"context"
)

// ValidationRequest carries everything the validation engine needs to
// evaluate one expectation suite against one batch of data.
type ValidationRequest struct {
	BatchRequest         *BatchRequest
	ExpectationSuiteName string
	EvaluationParameters map[string]any
	RuntimeConfiguration map[string]any
	RunID                RunIdentifier
}

// ValidationStatistics summarizes how many expectations in a suite were
// evaluated and how many passed.
type ValidationStatistics struct {
	EvaluatedExpectations    int     `json:"evaluated_expectations" yaml:"evaluated_expectations"`
	SuccessfulExpectations   int     `json:"successful_expectations" yaml:"successful_expectations"`
	UnsuccessfulExpectations int     `json:"unsuccessful_expectations" yaml:"unsuccessful_expectations"`
	SuccessPercent           float64 `json:"success_percent" yaml:"success_percent"`
}

// ValidationResult is the outcome of validating one batch against one
// expectation suite.
type ValidationResult struct {
	Success              bool                 `json:"success" yaml:"success"`
	Statistics           ValidationStatistics `json:"statistics" yaml:"statistics"`
	ExpectationSuiteName string               `json:"expectation_suite_name" yaml:"expectation_suite_name"`
	RunID                RunIdentifier        `json:"run_id" yaml:"run_id"`
	BatchIdentifier      string               `json:"batch_identifier" yaml:"batch_identifier"`
	Error                string               `json:"error,omitempty" yaml:"error,omitempty"`
	Meta                 map[string]any       `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// ValidationEngine executes an expectation suite against a batch of data.
// Implementations may be network-bound; from the checkpoint's perspective
// each call is a blocking round-trip returning a single result or error.
type ValidationEngine interface {
	Validate(ctx context.Context, request ValidationRequest) (*ValidationResult, error)
}

// NullEngine is a ValidationEngine that reports success for every request
// without touching any data. Useful for dry runs and tests.
type NullEngine struct{}

func NewNullEngine() *NullEngine {
	return &NullEngine{}
}

func (e *NullEngine) Validate(ctx context.Context, request ValidationRequest) (*ValidationResult, error) {
	result := &ValidationResult{
		Success:              true,
		ExpectationSuiteName: request.ExpectationSuiteName,
		RunID:                request.RunID,
	}
	if request.BatchRequest != nil {
		result.BatchIdentifier = request.BatchRequest.Identifier()
	}
	return result, nil
}
