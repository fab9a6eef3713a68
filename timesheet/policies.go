package timesheet

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROGRAM POLICY - Per-session caps and reporting categories
// =============================================================================

// ProgramPolicy holds the static policy tables.
//
// Caps bounds the billable hours of a single session. Categories maps a
// program to the label its hours are reported under; programs sharing a
// label are merged by Aggregate.
type ProgramPolicy struct {
	Caps       map[Program]decimal.Decimal
	DefaultCap decimal.Decimal
	Categories map[Program]string
}

// RawdatCategory is the combined reporting label of the two Rawdat programs.
const RawdatCategory = "Rawdat & Rawdat + Admin Work"

// DefaultPolicy returns the built-in caps and categories. A policy file can
// override them (see factory).
func DefaultPolicy() *ProgramPolicy {
	return &ProgramPolicy{
		Caps: map[Program]decimal.Decimal{
			ProgramRawdat:      decimal.RequireFromString("2.0"),
			ProgramRawdatAdmin: decimal.RequireFromString("3.0"),
			ProgramSigaar:      decimal.RequireFromString("2.5"),
			ProgramMukhayyam:   decimal.RequireFromString("4.0"),
			ProgramKibaar:      decimal.RequireFromString("2.5"),
			ProgramCamp:        decimal.RequireFromString("4.0"),
		},
		DefaultCap: decimal.RequireFromString("3.0"),
		Categories: map[Program]string{
			ProgramRawdat:      RawdatCategory,
			ProgramRawdatAdmin: RawdatCategory,
		},
	}
}

// Cap returns the per-session cap, or DefaultCap for unknown programs.
func (p *ProgramPolicy) Cap(program Program) decimal.Decimal {
	if c, ok := p.Caps[program]; ok {
		return c
	}
	return p.DefaultCap
}

// Category returns the reporting label for program.
func (p *ProgramPolicy) Category(program Program) string {
	if c, ok := p.Categories[program]; ok && c != "" {
		return c
	}
	return string(program)
}

// =============================================================================
// HOURS ADJUSTMENT
// =============================================================================

var (
	minutesPerHour = decimal.NewFromInt(60)
	quarter        = decimal.RequireFromString("0.25")
	half           = decimal.RequireFromString("0.50")
	threeQuarters  = decimal.RequireFromString("0.75")
	wholeHour      = decimal.NewFromInt(1)
)

// Adjust reconciles actual elapsed hours into billable hours.
//
// Sessions longer than the program cap bill the cap. Otherwise the minute
// remainder is bucketed into quarter hours: 0-15 -> .25, 16-30 -> .50,
// 31-45 -> .75, 46-59 -> 1.00. A zero remainder also bills .25, so a whole
// hour session rounds up; product has not confirmed this, keep it until they
// do. The result never exceeds the cap.
func (p *ProgramPolicy) Adjust(actual decimal.Decimal, program Program) (decimal.Decimal, error) {
	if actual.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative actual hours %s", ErrInvalidInput, actual)
	}

	limit := p.Cap(program)
	if actual.GreaterThan(limit) {
		return limit, nil
	}

	whole := actual.Floor()
	minutes := actual.Sub(whole).Mul(minutesPerHour).Round(0).IntPart()
	adjusted := whole.Add(quarterBucket(minutes))
	return decimal.Min(adjusted, limit), nil
}

func quarterBucket(minutes int64) decimal.Decimal {
	switch {
	case minutes <= 15:
		return quarter
	case minutes <= 30:
		return half
	case minutes <= 45:
		return threeQuarters
	default:
		return wholeHour
	}
}
