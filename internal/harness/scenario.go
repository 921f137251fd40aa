package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/conventions/internal/engine"
	"github.com/roach88/conventions/internal/ir"
)

// Scenario defines a conformance test scenario: a model definition, the
// convention set to build it with, and assertions on the resulting trace
// and model.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE files, or a single directory, holding the model
	// definition. Paths are relative to the scenario file location.
	Specs []string `yaml:"specs,omitempty"`

	// Model is an inline CUE model definition, used instead of Specs.
	Model string `yaml:"model,omitempty"`

	// Conventions names the convention set. Defaults to "default".
	Conventions string `yaml:"conventions,omitempty"`

	// MaxIterations overrides the dispatcher's batch iteration bound.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// Assertions validate the trace, the model or the build error.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is a fixed run ID for deterministic golden files.
	// If empty, defaults to DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`
}

// DefaultRunID is the run ID of scenarios that do not set one.
const DefaultRunID = "test-run-default"

// EventMatch selects trace events. Empty fields match anything.
type EventMatch struct {
	Kind    string `yaml:"kind,omitempty"`
	Phase   string `yaml:"phase,omitempty"`
	Plugin  string `yaml:"plugin,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Matches reports whether ev satisfies every field set in m.
func (m EventMatch) Matches(ev ir.TraceEvent) bool {
	return (m.Kind == "" || m.Kind == ev.Kind) &&
		(m.Phase == "" || m.Phase == ev.Phase) &&
		(m.Plugin == "" || m.Plugin == ev.Plugin) &&
		(m.Subject == "" || m.Subject == ev.Subject)
}

func (m EventMatch) String() string {
	s := m.Kind
	if s == "" {
		s = "*"
	}
	if m.Phase != "" {
		s += " " + m.Phase
	}
	if m.Plugin != "" {
		s += " by " + m.Plugin
	}
	if m.Subject != "" {
		s += fmt.Sprintf(" (%s)", m.Subject)
	}
	return s
}

// Assertion validates the trace, the built model or the build error.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event matching EventMatch is in the trace
	// - "trace_order": Events match trace events in this order
	// - "trace_count": exactly Count events match EventMatch
	// - "model_has": the model contains the described element
	// - "model_lacks": the model does not contain Entity or Entity.Property
	// - "error": the build failed with Code and a message containing Message
	Type string `yaml:"type"`

	// Event selector (trace_contains, trace_count).
	EventMatch `yaml:",inline"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Events is the expected event order (trace_order).
	Events []EventMatch `yaml:"events,omitempty"`

	// Entity names the entity type (model_has, model_lacks).
	Entity string `yaml:"entity,omitempty"`

	// Property names a property of Entity. PropertyType, Nullable and
	// Shadow refine it.
	Property     string `yaml:"property,omitempty"`
	PropertyType string `yaml:"property_type,omitempty"`
	Nullable     *bool  `yaml:"nullable,omitempty"`
	Shadow       *bool  `yaml:"shadow,omitempty"`

	// PrimaryKey is the expected primary key of Entity.
	PrimaryKey []string `yaml:"primary_key,omitempty"`

	// ForeignKey names the properties of a foreign key on Entity.
	// Principal and Required refine it.
	ForeignKey []string `yaml:"foreign_key,omitempty"`
	Principal  string   `yaml:"principal,omitempty"`
	Required   *bool    `yaml:"required,omitempty"`

	// Index names the properties of an index on Entity. Unique refines it.
	Index  []string `yaml:"index,omitempty"`
	Unique *bool    `yaml:"unique,omitempty"`

	// Navigation names a reference, collection or many-to-many navigation
	// on Entity. Target refines it.
	Navigation string `yaml:"navigation,omitempty"`
	Target     string `yaml:"target,omitempty"`

	// Annotation names an annotation on the model, on Entity, or on
	// Entity.Property. Value is its expected value.
	Annotation string `yaml:"annotation,omitempty"`
	Value      any    `yaml:"value,omitempty"`

	// Code is the expected error code (error).
	Code string `yaml:"code,omitempty"`

	// Message is a substring of the expected error message (error).
	Message string `yaml:"message,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertModelHas      = "model_has"
	AssertModelLacks    = "model_lacks"
	AssertError         = "error"
)

// LoadScenario reads and parses a scenario YAML file. Spec paths are
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or validating spec
// paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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

	switch {
	case len(s.Specs) == 0 && s.Model == "":
		return fmt.Errorf("either specs or model is required")
	case len(s.Specs) > 0 && s.Model != "":
		return fmt.Errorf("specs and model are mutually exclusive")
	}

	if s.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.EventMatch == (EventMatch{}) {
			return fmt.Errorf("assertions[%d]: trace_contains needs at least one of kind, phase, plugin, subject", index)
		}
	case AssertTraceOrder:
		if len(a.Events) < 2 {
			return fmt.Errorf("assertions[%d]: events list needs at least two entries for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertModelHas:
		if a.Entity == "" && a.Annotation == "" {
			return fmt.Errorf("assertions[%d]: entity or annotation is required for model_has", index)
		}
		if a.Annotation != "" && a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required with annotation", index)
		}
	case AssertModelLacks:
		if a.Entity == "" {
			return fmt.Errorf("assertions[%d]: entity is required for model_lacks", index)
		}
	case AssertError:
		if a.Code != "" && !knownErrorCode(a.Code) {
			return fmt.Errorf("assertions[%d]: unknown error code %q", index, a.Code)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func knownErrorCode(code string) bool {
	switch engine.ErrorCode(code) {
	case engine.ErrCodeInvalidSpec, engine.ErrCodeValidation, engine.ErrCodeInfiniteLoop,
		engine.ErrCodeCanceled, engine.ErrCodeJournal, engine.ErrCodeInternal:
		return true
	}
	return false
}

// expectsError reports whether the scenario asserts a failed build.
func (s *Scenario) expectsError() bool {
	for _, a := range s.Assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}
