// Package script evaluates the ${...} expressions that may appear in a
// checkpoint's run name template and in string-valued evaluation
// parameters. Expressions run against a small set of globals describing
// the current run (checkpoint name, run time, parameters).
package script

import (
	"context"
)

// Value is the result of evaluating one expression.
type Value interface {

	// Value returns the result as a Go value.
	Value() any

	// String returns the string rendering used in templates.
	String() string
}

// Script is a compiled expression that can be evaluated repeatedly with
// different globals.
type Script interface {
	Evaluate(ctx context.Context, globals map[string]any) (Value, error)
}

// Compiler compiles expression source into a Script.
type Compiler interface {
	Compile(ctx context.Context, code string) (Script, error)
}
