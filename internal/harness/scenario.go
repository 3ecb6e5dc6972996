package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shipledger/internal/fixture"
)

// Scenario defines a ledger scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// NowMs fixes the build clock (Unix milliseconds). Zero means wall time,
	// which only matters for builds with a window.
	NowMs int64 `yaml:"now_ms,omitempty"`

	// Steps run in order. Each step either imports records or runs a build.
	Steps []Step `yaml:"steps"`

	// Assertions validate the builds and the final ledger.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario step. Exactly one field is set.
type Step struct {
	Import *fixture.Fixture `yaml:"import,omitempty"`
	Build  *BuildStep       `yaml:"build,omitempty"`
}

// BuildStep runs one build.
type BuildStep struct {
	Full       bool `yaml:"full"`
	WindowDays int  `yaml:"window_days"`
}

// Assertion validates a build or the final ledger.
type Assertion struct {
	// Type specifies the assertion type:
	// - "entry": Check one ledger row's fields
	// - "unmatched": Check the exact set of rows not fully matched
	// - "summary": Check one build's summary
	// - "stage_order": Check one build's progress stages appear in order
	Type string `yaml:"type"`

	// Pod1 is the transaction id of the row (used by entry).
	Pod1 string `yaml:"pod1,omitempty"`

	// Build is the 1-based index of the build (used by summary, stage_order).
	Build int `yaml:"build,omitempty"`

	// Expect contains expected field values (used by entry, summary).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// IDs is the expected set of transaction ids (used by unmatched).
	IDs []string `yaml:"ids,omitempty"`

	// Stages is the expected stage order (used by stage_order).
	Stages []string `yaml:"stages,omitempty"`
}

// Assertion type constants.
const (
	AssertEntry      = "entry"
	AssertUnmatched  = "unmatched"
	AssertSummary    = "summary"
	AssertStageOrder = "stage_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// builds returns the number of build steps.
func (s *Scenario) builds() int {
	n := 0
	for _, step := range s.Steps {
		if step.Build != nil {
			n++
		}
	}
	return n
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Import != nil && step.Build != nil:
			return fmt.Errorf("steps[%d]: import and build are mutually exclusive", i)
		case step.Import != nil:
			if err := step.Import.Validate(); err != nil {
				return fmt.Errorf("steps[%d].import: %w", i, err)
			}
		case step.Build != nil:
			if step.Build.WindowDays < 0 {
				return fmt.Errorf("steps[%d].build: window_days must be non-negative", i)
			}
		default:
			return fmt.Errorf("steps[%d]: import or build is required", i)
		}
	}

	builds := s.builds()
	if builds == 0 {
		return fmt.Errorf("at least one build step is required")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, builds); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, builds int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEntry:
		if a.Pod1 == "" {
			return fmt.Errorf("assertions[%d]: pod1 is required for entry", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for entry", index)
		}
	case AssertUnmatched:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for unmatched (use [] for none)", index)
		}
	case AssertSummary, AssertStageOrder:
		if a.Build < 1 || a.Build > builds {
			return fmt.Errorf("assertions[%d]: build must be between 1 and %d", index, builds)
		}
		if a.Type == AssertSummary && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for summary", index)
		}
		if a.Type == AssertStageOrder && len(a.Stages) == 0 {
			return fmt.Errorf("assertions[%d]: stages list is required for stage_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
