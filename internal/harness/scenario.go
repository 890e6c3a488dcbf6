package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is the specification document to open.
	// Relative paths are resolved against the scenario's directory.
	Spec string `yaml:"spec"`

	// Display is the id of the display under test.
	Display string `yaml:"display"`

	// TokenPrefix names activation tokens ("<prefix>-1", ...).
	// Defaults to "act".
	TokenPrefix string `yaml:"token_prefix,omitempty"`

	// Steps run in order after the initial activation.
	Steps []Step `yaml:"steps,omitempty"`

	// Expect is checked against the display's outputs after the last step.
	Expect []Expectation `yaml:"expect"`
}

// Step is one user action. Exactly one of Activate and Select is set.
type Step struct {
	// Activate reloads the source and rebuilds the display.
	Activate bool `yaml:"activate,omitempty"`

	// Select applies a value to an input's control.
	Select *Selection `yaml:"select,omitempty"`

	// Reject requires the control to refuse the selection.
	Reject bool `yaml:"reject,omitempty"`
}

// Selection names an input and the value to select.
type Selection struct {
	Structure string `yaml:"structure"`
	Value     string `yaml:"value"`
}

// Expectation checks one output. Every field that is set must hold.
type Expectation struct {
	// Output is the id of the output structure.
	Output string `yaml:"output"`

	// Count is the exact number of records in the output's query.
	Count *int `yaml:"count,omitempty"`

	// Contains requires some record to have all of these field values.
	Contains map[string]any `yaml:"contains,omitempty"`

	// Fields lists, per field, the values across the query in order.
	Fields map[string][]any `yaml:"fields,omitempty"`

	// Lines is the output's exact rendered content.
	Lines []string `yaml:"lines,omitempty"`
}

// LoadScenario reads a scenario file and resolves its spec path against
// the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving a relative
// spec path against basePath. Unknown fields are rejected so typos fail
// loudly.
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

	if scenario.Spec != "" && !filepath.IsAbs(scenario.Spec) && basePath != "" {
		scenario.Spec = filepath.Join(basePath, scenario.Spec)
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
	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}
	if s.Display == "" {
		return fmt.Errorf("display is required")
	}
	if len(s.Expect) == 0 {
		return fmt.Errorf("expect list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Spec); os.IsNotExist(err) {
		return fmt.Errorf("spec file not found: %s", s.Spec)
	}

	for i, step := range s.Steps {
		switch {
		case step.Activate && step.Select != nil:
			return fmt.Errorf("steps[%d]: activate and select are mutually exclusive", i)
		case !step.Activate && step.Select == nil:
			return fmt.Errorf("steps[%d]: one of activate or select is required", i)
		case step.Select != nil && step.Select.Structure == "":
			return fmt.Errorf("steps[%d].select: structure is required", i)
		case step.Reject && step.Select == nil:
			return fmt.Errorf("steps[%d]: reject applies only to select", i)
		}
	}

	for i, e := range s.Expect {
		if e.Output == "" {
			return fmt.Errorf("expect[%d]: output is required", i)
		}
		if e.Count == nil && e.Contains == nil && e.Fields == nil && e.Lines == nil {
			return fmt.Errorf("expect[%d]: at least one of count, contains, fields or lines is required", i)
		}
		if e.Count != nil && *e.Count < 0 {
			return fmt.Errorf("expect[%d]: count must be non-negative", i)
		}
	}
	return nil
}
