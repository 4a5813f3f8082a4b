package checkpoint

import (
	"time"

	"dario.cat/mergo"
)

// RunOptions override the stored configuration for a single run. Any zero
// field leaves the corresponding config value in effect.
type RunOptions struct {

	// RunName and RunTime identify the run. RunID takes precedence over
	// both when supplied. Unset values default per NewRunIdentifier.
	RunName string
	RunTime time.Time
	RunID   *RunIdentifier

	// RunNameTemplate overrides the config's run_name_template.
	RunNameTemplate string

	// BatchRequest and ExpectationSuiteName override the config's top-level
	// validation defaults.
	BatchRequest         *BatchRequest
	ExpectationSuiteName string

	// Validations, when supplied, is used verbatim as the list of
	// validations to execute (backfilled from the top-level defaults).
	Validations []ValidationSpec

	// EvaluationParameters and RuntimeConfiguration are merged key-by-key
	// over the config's values.
	EvaluationParameters map[string]any
	RuntimeConfiguration map[string]any
}

func (o RunOptions) asConfigLayer() CheckpointConfig {
	layer := CheckpointConfig{
		BatchRequest:         o.BatchRequest,
		Validations:          o.Validations,
		EvaluationParameters: o.EvaluationParameters,
		RuntimeConfiguration: o.RuntimeConfiguration,
	}
	if o.RunNameTemplate != "" {
		layer.RunNameTemplate = stringPtr(o.RunNameTemplate)
	}
	if o.ExpectationSuiteName != "" {
		layer.ExpectationSuiteName = stringPtr(o.ExpectationSuiteName)
	}
	return layer
}

// resolveConfig merges the three configuration layers into one effective
// config and resolves the list of validations to execute. Precedence,
// highest first: run overrides, constructor overrides, stored defaults.
// The merge is per-field; map-valued fields merge key-by-key rather than
// being replaced wholesale. The inputs are never mutated.
func resolveConfig(stored *CheckpointConfig, overrides *CheckpointConfig, run RunOptions) (*CheckpointConfig, []ValidationSpec, error) {
	effective := stored.Copy()
	if overrides != nil {
		if err := mergo.Merge(effective, *overrides.Copy(), mergo.WithOverride); err != nil {
			return nil, nil, &ConfigError{Cause: "failed to merge constructor overrides", Wrapped: err}
		}
	}
	runLayer := run.asConfigLayer()
	if err := mergo.Merge(effective, runLayer, mergo.WithOverride); err != nil {
		return nil, nil, &ConfigError{Cause: "failed to merge run overrides", Wrapped: err}
	}
	if err := effective.Validate(); err != nil {
		return nil, nil, err
	}
	validations, err := resolveValidations(effective)
	if err != nil {
		return nil, nil, err
	}
	return effective, validations, nil
}

// resolveValidations produces the effective validation list: the merged
// validations backfilled from top-level defaults, or a single synthesized
// entry when only top-level defaults are present, or an empty list (a
// valid, vacuously successful run).
func resolveValidations(effective *CheckpointConfig) ([]ValidationSpec, error) {
	suiteDefault := ""
	if effective.ExpectationSuiteName != nil {
		suiteDefault = *effective.ExpectationSuiteName
	}

	specs := copyValidations(effective.Validations)
	if len(specs) == 0 {
		if effective.BatchRequest == nil || suiteDefault == "" {
			return []ValidationSpec{}, nil
		}
		specs = []ValidationSpec{{
			BatchRequest:         effective.BatchRequest.Copy(),
			ExpectationSuiteName: suiteDefault,
		}}
	}

	for i := range specs {
		if specs[i].BatchRequest == nil {
			specs[i].BatchRequest = effective.BatchRequest.Copy()
		}
		if specs[i].ExpectationSuiteName == "" {
			specs[i].ExpectationSuiteName = suiteDefault
		}
		if specs[i].BatchRequest == nil && specs[i].ExpectationSuiteName == "" {
			return nil, NewConfigError("validation %d has neither a batch request nor an expectation suite name after applying defaults", i)
		}
		specs[i].EvaluationParameters = mergeAnyMaps(effective.EvaluationParameters, specs[i].EvaluationParameters)
		specs[i].RuntimeConfiguration = mergeAnyMaps(effective.RuntimeConfiguration, specs[i].RuntimeConfiguration)
	}
	return specs, nil
}

// mergeAnyMaps merges override keys over base keys, recursing into nested
// maps. Neither input is mutated.
func mergeAnyMaps(base, override map[string]any) map[string]any {
	merged := copyAnyMap(base)
	if merged == nil {
		merged = map[string]any{}
	}
	if err := mergo.Map(&merged, copyAnyMap(override), mergo.WithOverride); err != nil {
		// mergo.Map only fails on type mismatches between the inputs, which
		// cannot happen for two map[string]any values.
		panic(err)
	}
	return merged
}
