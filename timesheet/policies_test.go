package timesheet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// HOURS ADJUSTMENT
// =============================================================================

func TestAdjust_QuarterBuckets(t *testing.T) {
	policy := timesheet.DefaultPolicy()

	tests := []struct {
		name    string
		actual  string
		program timesheet.Program
		want    string
	}{
		{"12 minutes bills a quarter", "1.20", timesheet.ProgramRawdat, "1.25"},
		{"15 minutes bills a quarter", "0.25", timesheet.ProgramSigaar, "0.25"},
		{"16 minutes bills a half", "0.27", timesheet.ProgramSigaar, "0.50"},
		{"30 minutes bills a half", "1.50", timesheet.ProgramRawdat, "1.50"},
		{"31 minutes bills three quarters", "1.52", timesheet.ProgramCamp, "1.75"},
		{"45 minutes bills three quarters", "0.75", timesheet.ProgramKibaar, "0.75"},
		{"46 minutes bills a full hour", "0.77", timesheet.ProgramKibaar, "1.00"},
		{"whole hour rounds up a quarter", "1.00", timesheet.ProgramSigaar, "1.25"},
		{"zero elapsed bills a quarter", "0", timesheet.ProgramMukhayyam, "0.25"},
		{"over cap bills the cap", "2.10", timesheet.ProgramRawdat, "2.00"},
		{"far over cap bills the cap", "9.00", timesheet.ProgramCamp, "4.00"},
		{"bucket above cap is clipped", "2.00", timesheet.ProgramRawdat, "2.00"},
		{"admin work has its own cap", "2.60", timesheet.ProgramRawdatAdmin, "2.75"},
		{"unknown program uses default cap", "5.00", timesheet.Program("Retreat"), "3.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Adjust(generic.MustParseHours(tt.actual), tt.program)
			require.NoError(t, err)
			assert.True(t, generic.MustParseHours(tt.want).Equal(got),
				"Adjust(%s, %s) = %s, want %s", tt.actual, tt.program, got, tt.want)
		})
	}
}

func TestAdjust_NeverExceedsCap(t *testing.T) {
	policy := timesheet.DefaultPolicy()

	for _, program := range timesheet.Programs {
		limit := policy.Cap(program)
		for minutes := 0; minutes <= 6*60; minutes += 7 {
			actual := generic.Elapsed(time.Duration(minutes) * time.Minute)
			got, err := policy.Adjust(actual, program)
			require.NoError(t, err)
			assert.False(t, got.IsNegative())
			assert.True(t, got.LessThanOrEqual(limit), "%s: %s > cap %s", program, got, limit)
		}
	}
}

func TestAdjust_NegativeInput_Rejected(t *testing.T) {
	policy := timesheet.DefaultPolicy()

	_, err := policy.Adjust(generic.MustParseHours("-0.5"), timesheet.ProgramRawdat)

	assert.ErrorIs(t, err, timesheet.ErrInvalidInput)
	assert.True(t, timesheet.IsClientError(err))
}

func TestPolicy_Categories(t *testing.T) {
	policy := timesheet.DefaultPolicy()

	assert.Equal(t, timesheet.RawdatCategory, policy.Category(timesheet.ProgramRawdat))
	assert.Equal(t, timesheet.RawdatCategory, policy.Category(timesheet.ProgramRawdatAdmin))
	assert.Equal(t, "Sigaar", policy.Category(timesheet.ProgramSigaar))
}

// =============================================================================
// PROGRAMS
// =============================================================================

func TestParseProgram(t *testing.T) {
	p, err := timesheet.ParseProgram("  rawdat + admin work ")
	require.NoError(t, err)
	assert.Equal(t, timesheet.ProgramRawdatAdmin, p)

	p, err = timesheet.ParseProgram("")
	require.NoError(t, err)
	assert.Equal(t, timesheet.ProgramUnspecified, p)

	_, err = timesheet.ParseProgram("Retreat")
	var progErr *timesheet.InvalidProgramError
	require.ErrorAs(t, err, &progErr)
	assert.Equal(t, "Retreat", progErr.Program)
	assert.ErrorIs(t, err, timesheet.ErrInvalidProgram)
}
