package checkpoint

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigVersion is the only schema version this package reads or writes.
	ConfigVersion = 1.0

	// ConfigClassName and ConfigModuleName identify the implementation in
	// persisted configs so stores shared with other tooling stay readable.
	ConfigClassName  = "Checkpoint"
	ConfigModuleName = "github.com/deepnoodle-ai/checkpoint"
)

// BatchRequest identifies the data a validation runs against.
type BatchRequest struct {
	DatasourceName    string `json:"datasource_name" yaml:"datasource_name"`
	DataConnectorName string `json:"data_connector_name" yaml:"data_connector_name"`
	DataAssetName     string `json:"data_asset_name" yaml:"data_asset_name"`
}

// Identifier returns a stable string identifying the batch, used as the
// batch component of a ValidationResultIdentifier.
func (b BatchRequest) Identifier() string {
	return strings.Join([]string{b.DatasourceName, b.DataConnectorName, b.DataAssetName}, "-")
}

// Copy returns a copy of the batch request (pointer form for optional fields).
func (b *BatchRequest) Copy() *BatchRequest {
	if b == nil {
		return nil
	}
	copied := *b
	return &copied
}

// ValidationSpec describes one validation to execute: which data to load
// and which expectation suite to evaluate against it, plus optional
// per-validation overrides of the checkpoint's run-time parameters.
type ValidationSpec struct {
	BatchRequest         *BatchRequest  `json:"batch_request" yaml:"batch_request"`
	ExpectationSuiteName string         `json:"expectation_suite_name" yaml:"expectation_suite_name"`
	EvaluationParameters map[string]any `json:"evaluation_parameters,omitempty" yaml:"evaluation_parameters,omitempty"`
	RuntimeConfiguration map[string]any `json:"runtime_configuration,omitempty" yaml:"runtime_configuration,omitempty"`
}

// Copy returns a deep copy of the spec.
func (v ValidationSpec) Copy() ValidationSpec {
	return ValidationSpec{
		BatchRequest:         v.BatchRequest.Copy(),
		ExpectationSuiteName: v.ExpectationSuiteName,
		EvaluationParameters: copyAnyMap(v.EvaluationParameters),
		RuntimeConfiguration: copyAnyMap(v.RuntimeConfiguration),
	}
}

// CheckpointConfig is the persistable record describing a checkpoint:
// identity, default validation parameters, the action list and run-time
// defaults. It is treated as read-only once built; a run computes an
// effective merged copy and never mutates the original, so one config may
// be shared by concurrent runs.
//
// The serialized field set is fixed and case-sensitive. Omitted optional
// fields serialize as explicit null rather than being absent, so a
// round-trip through the store reproduces an equal config.
type CheckpointConfig struct {
	Name                 string           `json:"name" yaml:"name"`
	ConfigVersion        float64          `json:"config_version" yaml:"config_version"`
	ClassName            string           `json:"class_name" yaml:"class_name"`
	ModuleName           string           `json:"module_name" yaml:"module_name"`
	TemplateName         *string          `json:"template_name" yaml:"template_name"`
	RunNameTemplate      *string          `json:"run_name_template" yaml:"run_name_template"`
	ExpectationSuiteName *string          `json:"expectation_suite_name" yaml:"expectation_suite_name"`
	BatchRequest         *BatchRequest    `json:"batch_request" yaml:"batch_request"`
	ActionList           ActionList       `json:"action_list" yaml:"action_list"`
	EvaluationParameters map[string]any   `json:"evaluation_parameters" yaml:"evaluation_parameters"`
	RuntimeConfiguration map[string]any   `json:"runtime_configuration" yaml:"runtime_configuration"`
	Validations          []ValidationSpec `json:"validations" yaml:"validations"`
	Profilers            []string         `json:"profilers" yaml:"profilers"`
}

// NewCheckpointConfig returns a config with the fixed schema version and
// empty (non-nil) collections, matching the persisted shape of a config
// that was built with no optional arguments.
func NewCheckpointConfig(name string) *CheckpointConfig {
	return &CheckpointConfig{
		Name:                 name,
		ConfigVersion:        ConfigVersion,
		ClassName:            ConfigClassName,
		ModuleName:           ConfigModuleName,
		ActionList:           ActionList{},
		EvaluationParameters: map[string]any{},
		RuntimeConfiguration: map[string]any{},
		Validations:          []ValidationSpec{},
		Profilers:            []string{},
	}
}

// Validate checks the config for structural problems. It is called eagerly
// by New so that configuration mistakes surface at build time.
func (c *CheckpointConfig) Validate() error {
	if c.Name == "" {
		return NewConfigError("checkpoint name is required")
	}
	if c.ConfigVersion != ConfigVersion {
		return NewConfigError("unsupported config_version %v", c.ConfigVersion)
	}
	return c.ActionList.Validate()
}

// Copy returns a deep copy of the config.
func (c *CheckpointConfig) Copy() *CheckpointConfig {
	if c == nil {
		return nil
	}
	return &CheckpointConfig{
		Name:                 c.Name,
		ConfigVersion:        c.ConfigVersion,
		ClassName:            c.ClassName,
		ModuleName:           c.ModuleName,
		TemplateName:         copyStringPtr(c.TemplateName),
		RunNameTemplate:      copyStringPtr(c.RunNameTemplate),
		ExpectationSuiteName: copyStringPtr(c.ExpectationSuiteName),
		BatchRequest:         c.BatchRequest.Copy(),
		ActionList:           c.ActionList.Copy(),
		EvaluationParameters: copyAnyMap(c.EvaluationParameters),
		RuntimeConfiguration: copyAnyMap(c.RuntimeConfiguration),
		Validations:          copyValidations(c.Validations),
		Profilers:            copyStrings(c.Profilers),
	}
}

// ToYAML serializes the config. The output round-trips through LoadString.
func (c *CheckpointConfig) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint config: %w", err)
	}
	return data, nil
}

// LoadConfigFile loads a checkpoint config from a YAML file.
func LoadConfigFile(path string) (*CheckpointConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint config file: %w", err)
	}
	return LoadConfigString(string(data))
}

// LoadConfigString loads a checkpoint config from a YAML string and
// validates it.
func LoadConfigString(data string) (*CheckpointConfig, error) {
	config := NewCheckpointConfig("")
	if err := yaml.Unmarshal([]byte(data), config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			result[k] = copyAnyMap(nested)
		} else {
			result[k] = v
		}
	}
	return result
}

func copyValidations(specs []ValidationSpec) []ValidationSpec {
	if specs == nil {
		return nil
	}
	result := make([]ValidationSpec, len(specs))
	for i, spec := range specs {
		result[i] = spec.Copy()
	}
	return result
}

// String pointer helper for the optional top-level defaults.
func stringPtr(s string) *string {
	return &s
}
