/*
Package factory provides YAML/JSON to Go program policy conversion.

PURPOSE:
  Converts a policy document into a timesheet.ProgramPolicy. Caps and
  reporting categories change more often than code does; the coordinator
  edits a file and restarts the service.

SCHEMA (YAML; JSON is accepted since it is a YAML subset):

  default_cap: 3.0
  programs:
    - name: Rawdat
      cap: 2.0
      category: "Rawdat & Rawdat + Admin Work"
    - name: Camp
      cap: 4.0

RULES:
  - Programs must be one of the fixed enumeration (case-insensitive).
  - Caps must be in (0, 24].
  - Programs the document does not mention keep their built-in cap and
    category. An empty category clears the merge for that program.

USAGE:
  f := factory.NewPolicyFactory()
  policy, err := f.LoadFile("policy.yaml")
  ledger := timesheet.NewLedger(store, timesheet.WithPolicy(policy))

SEE ALSO:
  - timesheet/policies.go: ProgramPolicy and the built-in tables
*/
package factory

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/timesheet"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// PolicyDoc is the file representation of a program policy.
type PolicyDoc struct {
	DefaultCap *float64     `yaml:"default_cap,omitempty"`
	Programs   []ProgramDoc `yaml:"programs"`
}

// ProgramDoc overrides one program.
type ProgramDoc struct {
	Name     string   `yaml:"name"`
	Cap      *float64 `yaml:"cap,omitempty"`
	Category *string  `yaml:"category,omitempty"`
}

var maxCap = decimal.NewFromInt(24)

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts policy documents to ProgramPolicy values.
type PolicyFactory struct {
	base func() *timesheet.ProgramPolicy
}

// NewPolicyFactory creates a factory that overlays documents on the
// built-in policy.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{base: timesheet.DefaultPolicy}
}

// LoadFile reads and parses a policy file.
func (f *PolicyFactory) LoadFile(path string) (*timesheet.ProgramPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return f.ParsePolicy(data)
}

// ParsePolicy parses a YAML or JSON document.
func (f *PolicyFactory) ParsePolicy(data []byte) (*timesheet.ProgramPolicy, error) {
	var doc PolicyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}
	return f.FromDoc(doc)
}

// FromDoc applies doc over the built-in policy.
func (f *PolicyFactory) FromDoc(doc PolicyDoc) (*timesheet.ProgramPolicy, error) {
	policy := f.base()

	if doc.DefaultCap != nil {
		c, err := validCap("default_cap", *doc.DefaultCap)
		if err != nil {
			return nil, err
		}
		policy.DefaultCap = c
	}

	seen := make(map[timesheet.Program]bool, len(doc.Programs))
	for i, pd := range doc.Programs {
		program, err := timesheet.ParseProgram(pd.Name)
		if err != nil {
			return nil, fmt.Errorf("programs[%d]: %w", i, err)
		}
		if program == timesheet.ProgramUnspecified {
			return nil, fmt.Errorf("programs[%d]: name is required", i)
		}
		if seen[program] {
			return nil, fmt.Errorf("programs[%d]: %s listed twice", i, program)
		}
		seen[program] = true

		if pd.Cap != nil {
			c, err := validCap(string(program), *pd.Cap)
			if err != nil {
				return nil, err
			}
			policy.Caps[program] = c
		}
		if pd.Category != nil {
			if *pd.Category == "" {
				delete(policy.Categories, program)
			} else {
				policy.Categories[program] = *pd.Category
			}
		}
	}
	return policy, nil
}

func validCap(name string, v float64) (decimal.Decimal, error) {
	c := decimal.NewFromFloat(v)
	if !c.IsPositive() || c.GreaterThan(maxCap) {
		return decimal.Zero, fmt.Errorf("%s: cap %s must be in (0, 24]", name, c)
	}
	return c, nil
}
