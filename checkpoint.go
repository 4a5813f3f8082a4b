// Package checkpoint configures and runs checkpoints: named, persistable
// bundles that pair data-validation requests with a list of
// post-validation actions such as persisting results, notifying a channel
// or refreshing published documentation.
package checkpoint

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/deepnoodle-ai/checkpoint/script"
)

// Options configures a new Checkpoint.
type Options struct {

	// Config is the stored configuration the checkpoint runs. Required.
	Config *CheckpointConfig

	// Overrides are constructor-level overrides applied on top of Config
	// for every run of this checkpoint. Optional.
	Overrides *CheckpointConfig

	// Engine executes expectation suites against batches. Required.
	Engine ValidationEngine

	// Dispatcher invokes the configured actions. Defaults to a dispatcher
	// with no-op backends.
	Dispatcher *Dispatcher

	// Compiler evaluates ${...} expressions in run name templates and
	// evaluation parameters. Defaults to the Risor engine.
	Compiler script.Compiler

	// Logger for run progress. Defaults to a discard logger.
	Logger *slog.Logger
}

// Checkpoint pairs an immutable configuration with the collaborators needed
// to run it. The configuration is copied at construction time and never
// mutated afterwards, so a single Checkpoint may serve concurrent runs as
// long as its engine and backends are concurrency-safe.
type Checkpoint struct {
	config     *CheckpointConfig
	overrides  *CheckpointConfig
	engine     ValidationEngine
	dispatcher *Dispatcher
	compiler   script.Compiler
	logger     *slog.Logger
}

// New creates a Checkpoint, validating the configuration eagerly so that
// configuration mistakes never surface mid-run.
func New(opts Options) (*Checkpoint, error) {
	if opts.Config == nil {
		return nil, NewConfigError("checkpoint config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Overrides != nil {
		if err := opts.Overrides.ActionList.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Engine == nil {
		return nil, NewConfigError("validation engine is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = NewDispatcher(DispatcherOptions{Logger: opts.Logger})
	}
	if opts.Compiler == nil {
		opts.Compiler = script.NewRisorEngine(script.DefaultGlobals())
	}
	return &Checkpoint{
		config:     opts.Config.Copy(),
		overrides:  opts.Overrides.Copy(),
		engine:     opts.Engine,
		dispatcher: opts.Dispatcher,
		compiler:   opts.Compiler,
		logger:     opts.Logger,
	}, nil
}

// Name returns the checkpoint name.
func (c *Checkpoint) Name() string {
	return c.config.Name
}

// Config returns a copy of the stored configuration.
func (c *Checkpoint) Config() *CheckpointConfig {
	return c.config.Copy()
}

// ActionList returns a copy of the configured action list.
func (c *Checkpoint) ActionList() ActionList {
	return c.config.ActionList.Copy()
}

// Run resolves the effective configuration for this run and executes it:
// every resolved validation runs in list order through the engine, the
// action list runs in configured order against each outcome, and the
// aggregated CheckpointResult is returned.
//
// Engine and action failures are captured into the result so a
// multi-validation run always completes; Run itself returns an error only
// for configuration problems surfaced during resolution.
func (c *Checkpoint) Run(ctx context.Context, opts RunOptions) (*CheckpointResult, error) {
	effective, validations, err := resolveConfig(c.config, c.overrides, opts)
	if err != nil {
		return nil, err
	}

	runID, err := c.resolveRunID(ctx, effective, opts)
	if err != nil {
		return nil, err
	}
	executionID := NewRunExecutionID()
	result := newCheckpointResult(c.config.Name, executionID, runID)

	c.logger.Info("checkpoint run started",
		"checkpoint", c.config.Name,
		"execution_id", executionID,
		"run_name", runID.RunName,
		"validation_count", len(validations))

	for _, validation := range validations {
		c.runValidation(ctx, effective, validation, runID, result)
	}
	result.finish()

	c.logger.Info("checkpoint run finished",
		"checkpoint", c.config.Name,
		"execution_id", executionID,
		"success", result.Success(),
		"duration", result.Duration())
	return result, nil
}

// runValidation executes one validation and its action list, inserting the
// outcome into the result aggregation. A failing engine call is recorded as
// a failed outcome for this entry and does not affect the other entries.
func (c *Checkpoint) runValidation(ctx context.Context, effective *CheckpointConfig, validation ValidationSpec, runID RunIdentifier, result *CheckpointResult) {
	batchID := ""
	if validation.BatchRequest != nil {
		batchID = validation.BatchRequest.Identifier()
	}
	id := ValidationResultIdentifier{
		ExpectationSuiteName: validation.ExpectationSuiteName,
		RunID:                runID,
		BatchIdentifier:      batchID,
	}

	var outcome *ValidationResult
	parameters, err := c.resolveParameters(ctx, validation.EvaluationParameters, runID)
	if err == nil {
		outcome, err = c.engine.Validate(ctx, ValidationRequest{
			BatchRequest:         validation.BatchRequest,
			ExpectationSuiteName: validation.ExpectationSuiteName,
			EvaluationParameters: parameters,
			RuntimeConfiguration: validation.RuntimeConfiguration,
			RunID:                runID,
		})
	}
	if err != nil {
		engineErr := &EngineError{
			SuiteName: validation.ExpectationSuiteName,
			Cause:     err.Error(),
			Wrapped:   err,
		}
		c.logger.Warn("validation failed to execute",
			"checkpoint", c.config.Name,
			"suite", validation.ExpectationSuiteName,
			"batch", batchID,
			"error", engineErr)
		outcome = &ValidationResult{
			Success:              false,
			ExpectationSuiteName: validation.ExpectationSuiteName,
			RunID:                runID,
			BatchIdentifier:      batchID,
			Error:                engineErr.Error(),
		}
	}
	if outcome.ExpectationSuiteName == "" {
		outcome.ExpectationSuiteName = validation.ExpectationSuiteName
	}

	actionResults := make([]ActionResult, 0, len(effective.ActionList))
	for _, action := range effective.ActionList {
		actionResult, actionErr := c.dispatcher.Dispatch(ctx, c.config.Name, action, outcome, id, parameters)
		actionResults = append(actionResults, actionResult)
		if actionErr == nil {
			continue
		}
		c.logger.Warn("action failed",
			"checkpoint", c.config.Name,
			"action", action.Name,
			"suite", validation.ExpectationSuiteName,
			"error", actionErr)
		if action.Action.Kind.HaltsOnFailure() {
			c.logger.Warn("skipping remaining actions for validation",
				"checkpoint", c.config.Name,
				"after_action", action.Name,
				"suite", validation.ExpectationSuiteName)
			break
		}
	}

	result.add(&RunResult{
		ID:               id,
		ValidationResult: outcome,
		ActionResults:    actionResults,
	})
}

// resolveRunID picks the shared run identifier for this run: an explicit
// identifier wins, then an explicit run name, then the rendered run name
// template, then the timestamp default.
func (c *Checkpoint) resolveRunID(ctx context.Context, effective *CheckpointConfig, opts RunOptions) (RunIdentifier, error) {
	if opts.RunID != nil {
		return *opts.RunID, nil
	}
	runTime := opts.RunTime
	if runTime.IsZero() {
		runTime = time.Now().UTC()
	}
	runName := opts.RunName
	if runName == "" && effective.RunNameTemplate != nil && *effective.RunNameTemplate != "" {
		template, err := script.NewTemplate(c.compiler, *effective.RunNameTemplate)
		if err != nil {
			return RunIdentifier{}, &ConfigError{Cause: "invalid run_name_template", Wrapped: err}
		}
		rendered, err := template.Render(ctx, map[string]any{
			"name":       c.config.Name,
			"run_time":   runTime,
			"parameters": effective.EvaluationParameters,
		})
		if err != nil {
			return RunIdentifier{}, &ConfigError{Cause: "failed to render run_name_template", Wrapped: err}
		}
		runName = rendered
	}
	return NewRunIdentifier(runName, runTime), nil
}

var singleExprPattern = regexp.MustCompile(`^\$\{([^}]+)\}$`)

// resolveParameters evaluates ${...} expressions in string-valued
// evaluation parameters. A value that is exactly one expression keeps the
// expression's typed result; a value with embedded expressions renders to a
// string. Parameters without expressions pass through untouched.
func (c *Checkpoint) resolveParameters(ctx context.Context, parameters map[string]any, runID RunIdentifier) (map[string]any, error) {
	hasExpression := false
	for _, value := range parameters {
		if text, ok := value.(string); ok && strings.Contains(text, "${") {
			hasExpression = true
			break
		}
	}
	if !hasExpression {
		return parameters, nil
	}

	globals := map[string]any{
		"name":       c.config.Name,
		"run_time":   runID.RunTime,
		"parameters": parameters,
	}
	resolved := make(map[string]any, len(parameters))
	for key, value := range parameters {
		text, ok := value.(string)
		if !ok || !strings.Contains(text, "${") {
			resolved[key] = value
			continue
		}
		if match := singleExprPattern.FindStringSubmatch(text); match != nil {
			compiled, err := c.compiler.Compile(ctx, match[1])
			if err != nil {
				return nil, &ConfigError{Cause: "invalid evaluation parameter expression " + text, Wrapped: err}
			}
			evaluated, err := compiled.Evaluate(ctx, globals)
			if err != nil {
				return nil, &ConfigError{Cause: "failed to evaluate parameter " + key, Wrapped: err}
			}
			resolved[key] = evaluated.Value()
			continue
		}
		template, err := script.NewTemplate(c.compiler, text)
		if err != nil {
			return nil, &ConfigError{Cause: "invalid evaluation parameter template " + text, Wrapped: err}
		}
		rendered, err := template.Render(ctx, globals)
		if err != nil {
			return nil, &ConfigError{Cause: "failed to render parameter " + key, Wrapped: err}
		}
		resolved[key] = rendered
	}
	return resolved, nil
}
