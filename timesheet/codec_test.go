package timesheet

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/generic"
)

func TestDecodeRows_ShortRowsAndSpreadsheetDates(t *testing.T) {
	rows := [][]string{
		Header,
		{"7", "w1", "3/3/2025", "9:05", "", "", "", "Camp"},
		{"8", "w2", "2025-03-03", "09:00:00", "10:00:00", "1.00", "1.25", "Sigaar"},
		{"", "w3", "2025-03-03", "09:00:00"},
	}

	entries, skipped := DecodeRows(rows)

	assert.Empty(t, skipped)
	require.Len(t, entries, 3)
	assert.Equal(t, generic.NewTimePoint(2025, time.March, 3), entries[0].Date)
	assert.Equal(t, 9*time.Hour+5*time.Minute, entries[0].ClockIn)
	assert.True(t, entries[0].IsOpen())
	assert.False(t, entries[1].IsOpen())
	assert.Equal(t, 4, entries[2].Row)
	assert.Equal(t, ProgramUnspecified, entries[2].Program)
}

func TestDecodeRows_ReportsMalformed(t *testing.T) {
	rows := [][]string{
		Header,
		{"x", "w1", "2025-03-03", "09:00:00"},
		{"2", "", "2025-03-03", "09:00:00"},
		{"3", "w1", "2025-03-03", "25:99"},
		{"4", "w1", "2025-03-03", "09:00:00", "10:00:00", "abc"},
	}

	entries, skipped := DecodeRows(rows)

	assert.Empty(t, entries)
	require.Len(t, skipped, 4)
	assert.Equal(t, []int{2, 3, 4, 5},
		[]int{skipped[0].Row, skipped[1].Row, skipped[2].Row, skipped[3].Row})
}

func TestEncodeEntry_RoundTripsThroughDecode(t *testing.T) {
	out := 11*time.Hour + 30*time.Minute
	e := Entry{
		Sequence:      3,
		WorkerID:      "w1",
		Date:          generic.NewTimePoint(2025, time.March, 3),
		ClockIn:       9 * time.Hour,
		ClockOut:      &out,
		ActualHours:   generic.MustParseHours("2.5"),
		AdjustedHours: generic.MustParseHours("2.5"),
		Program:       ProgramSigaar,
	}

	row := EncodeEntry(e)
	assert.Equal(t, []string{"3", "w1", "2025-03-03", "09:00:00", "11:30:00", "2.50", "2.50", "Sigaar"}, row)

	entries, skipped := DecodeRows([][]string{Header, row})
	require.Empty(t, skipped)
	require.Len(t, entries, 1)
	assert.Equal(t, out, *entries[0].ClockOut)
}

func TestCloseAddress(t *testing.T) {
	assert.Equal(t, "Sheet1!E12:G12", closeAddress("Sheet1", 12))
	assert.Equal(t, "'Time Sheet'!E2:G2", closeAddress("Time Sheet", 2))
}

func TestNextSequence_CountsNonBlankDataRows(t *testing.T) {
	assert.Equal(t, 1, nextSequence(nil))
	assert.Equal(t, 1, nextSequence([][]string{Header}))
	assert.Equal(t, 3, nextSequence([][]string{Header, {"1", "w1"}, {"", " "}, {"2", "w2"}}))
}

func TestWorkerLocks_SerializeAndRelease(t *testing.T) {
	locks := newWorkerLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		overlap bool
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("w1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > 1 {
				overlap = true
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.Empty(t, locks.locks, "entries dropped after last unlock")
}
