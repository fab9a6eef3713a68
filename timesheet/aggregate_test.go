package timesheet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func closedEntry(worker string, day int, program timesheet.Program, in, out time.Duration, adjusted string) timesheet.Entry {
	return timesheet.Entry{
		WorkerID:      worker,
		Date:          generic.NewTimePoint(2025, time.March, day),
		ClockIn:       in,
		ClockOut:      &out,
		ActualHours:   generic.Elapsed(out - in),
		AdjustedHours: generic.MustParseHours(adjusted),
		Program:       program,
	}
}

func openEntry(worker string, day int, program timesheet.Program, in time.Duration) timesheet.Entry {
	return timesheet.Entry{
		WorkerID: worker,
		Date:     generic.NewTimePoint(2025, time.March, day),
		ClockIn:  in,
		Program:  program,
	}
}

func TestAggregate_MergesRawdatCategory(t *testing.T) {
	// GIVEN: Rawdat 2.0, Rawdat + Admin Work 1.5, Sigaar 3.0
	// WHEN: aggregating with the default categories
	// THEN: the merged Rawdat category (3.5) sorts ahead of Sigaar (3.0)

	entries := []timesheet.Entry{
		closedEntry("w1", 3, timesheet.ProgramRawdat, 9*time.Hour, 11*time.Hour, "2.00"),
		closedEntry("w1", 4, timesheet.ProgramRawdatAdmin, 9*time.Hour, 10*time.Hour+30*time.Minute, "1.50"),
		closedEntry("w1", 5, timesheet.ProgramSigaar, 9*time.Hour, 12*time.Hour, "3.00"),
	}

	totals := timesheet.Aggregate(entries, timesheet.DefaultPolicy().Categories)

	require.Len(t, totals, 2)
	assert.Equal(t, timesheet.RawdatCategory, totals[0].Program)
	assert.Equal(t, "3.5", totals[0].Hours.String())
	assert.Equal(t, "Sigaar", totals[1].Program)
	assert.Equal(t, "3", totals[1].Hours.String())
	assert.Equal(t, "6.5", timesheet.TotalHours(totals).String())
}

func TestTotalHours_NoTotals_IsZero(t *testing.T) {
	assert.True(t, timesheet.TotalHours(nil).IsZero())
	assert.Equal(t, "0.00", generic.FormatHours(timesheet.TotalHours([]timesheet.ProgramTotal{})))
}

func TestAggregate_SkipsOpenEntries(t *testing.T) {
	entries := []timesheet.Entry{
		closedEntry("w1", 3, timesheet.ProgramCamp, 9*time.Hour, 10*time.Hour, "1.25"),
		openEntry("w1", 4, timesheet.ProgramKibaar, 9*time.Hour),
	}

	totals := timesheet.Aggregate(entries, nil)

	require.Len(t, totals, 1)
	assert.Equal(t, "Camp", totals[0].Program)
}

func TestAggregate_TiesOrderedByName(t *testing.T) {
	entries := []timesheet.Entry{
		closedEntry("w1", 3, timesheet.ProgramSigaar, 9*time.Hour, 10*time.Hour, "1.00"),
		closedEntry("w1", 4, timesheet.ProgramCamp, 9*time.Hour, 10*time.Hour, "1.00"),
		closedEntry("w1", 5, timesheet.ProgramKibaar, 9*time.Hour, 10*time.Hour, "1.00"),
	}

	totals := timesheet.Aggregate(entries, nil)

	require.Len(t, totals, 3)
	assert.Equal(t, []string{"Camp", "Kibaar", "Sigaar"},
		[]string{totals[0].Program, totals[1].Program, totals[2].Program})
}

func TestAggregate_Empty(t *testing.T) {
	totals := timesheet.Aggregate(nil, timesheet.DefaultPolicy().Categories)

	assert.NotNil(t, totals)
	assert.Empty(t, totals)
}

func TestBuildReport(t *testing.T) {
	w := generic.MonthWindow(2025, time.March)
	entries := []timesheet.Entry{
		closedEntry("w1", 3, timesheet.ProgramSigaar, 15*time.Hour+4*time.Minute, 16*time.Hour+10*time.Minute, "1.25"),
		openEntry("w1", 4, timesheet.ProgramCamp, 9*time.Hour),
	}

	report := timesheet.BuildReport("w1", w, entries, nil)

	assert.Equal(t, "March 2025", report.Label)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "2025-03-03", report.Rows[0].Date)
	assert.Equal(t, "03:04 PM", report.Rows[0].ClockIn)
	assert.Equal(t, "04:10 PM", report.Rows[0].ClockOut)
	assert.True(t, report.Rows[1].Open)
	assert.Empty(t, report.Rows[1].ClockOut)
	require.Len(t, report.Totals, 1)
	assert.Equal(t, "1.25", report.TotalHours.String())
}
