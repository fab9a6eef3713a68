/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Clock-in / clock-out round trips and status mapping
- Worker status with an active session
- Report window resolution (monthly, payroll, custom)
- Payroll period listing
- Health checks
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/generic/store"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	handler *Handler
	router  http.Handler
	mem     *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	mem.Seed("workers", [][]string{
		timesheet.WorkerHeader,
		{"w1", "Aisha"},
		{"w2", "Yusuf"},
	})
	h := NewHandler(timesheet.NewLedger(mem), clockAt(10, 9, 0), zerolog.Nop())
	return &testServer{handler: h, router: NewRouter(h), mem: mem}
}

func clockAt(day, hour, minute int) generic.FixedClock {
	return generic.FixedClock{At: time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type failingStore struct{}

func (failingStore) ReadRows(context.Context, string, string) ([][]string, error) {
	return nil, &generic.StoreError{Op: "read", Dataset: "timesheet", Err: errors.New("connection refused")}
}

func (failingStore) AppendRows(context.Context, string, string, [][]string) error {
	return &generic.StoreError{Op: "append", Dataset: "timesheet", Err: errors.New("connection refused")}
}

func (failingStore) UpdateCell(context.Context, string, string, string) error {
	return &generic.StoreError{Op: "update", Dataset: "timesheet", Err: errors.New("connection refused")}
}

// =============================================================================
// CLOCK IN / CLOCK OUT
// =============================================================================

func TestClockInOut_RoundTrip(t *testing.T) {
	// GIVEN: A worker with no session today
	s := newTestServer(t)

	// WHEN: They clock in at 09:00 and out at 10:40
	rec := s.do(t, http.MethodPost, "/api/workers/w1/clock-in", ClockInRequest{Program: "rawdat"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	in := decode[EntryDTO](t, rec)
	assert.True(t, in.Open)
	assert.Equal(t, "Rawdat", in.Program)
	assert.Equal(t, "09:00:00", in.ClockIn)
	assert.Equal(t, "2025-03-10", in.Date)

	s.handler.Clock = clockAt(10, 10, 40)
	rec = s.do(t, http.MethodPost, "/api/workers/w1/clock-out", nil)

	// THEN: 100 minutes bill as 1.75 adjusted hours
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[EntryDTO](t, rec)
	assert.False(t, out.Open)
	assert.Equal(t, "10:40:00", out.ClockOut)
	assert.Equal(t, "1.67", out.ActualHours)
	assert.Equal(t, "1.75", out.AdjustedHours)
	assert.Equal(t, in.Row, out.Row)
}

func TestClockIn_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		worker   string
		body     any
		wantCode int
		wantErr  string
	}{
		{"missing program", "w1", map[string]string{}, http.StatusBadRequest, ""},
		{"unknown program", "w1", ClockInRequest{Program: "Chess"}, http.StatusBadRequest, "invalid_input"},
		{"unknown worker", "nobody", ClockInRequest{Program: "Camp"}, http.StatusNotFound, "unknown_worker"},
		{"malformed body", "w1", "not an object", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPost, "/api/workers/"+tt.worker+"/clock-in", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestClockIn_Twice_Conflict(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/workers/w1/clock-in", ClockInRequest{Program: "Camp"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/workers/w1/clock-in", ClockInRequest{Program: "Sigaar"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_clocked_in", decode[ErrorResponse](t, rec).Code)
}

func TestClockOut_StatusMapping(t *testing.T) {
	t.Run("no open session", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/workers/w1/clock-out", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "no_open_session", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("program mismatch", func(t *testing.T) {
		s := newTestServer(t)
		require.Equal(t, http.StatusCreated,
			s.do(t, http.MethodPost, "/api/workers/w1/clock-in", ClockInRequest{Program: "Kibaar"}).Code)

		rec := s.do(t, http.MethodPost, "/api/workers/w1/clock-out", ClockOutRequest{Program: "Camp"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "program_mismatch", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("multiple open sessions", func(t *testing.T) {
		s := newTestServer(t)
		s.mem.Seed("timesheet", [][]string{
			timesheet.Header,
			{"1", "w1", "2025-03-10", "08:00:00", "", "", "", "Camp"},
			{"2", "w1", "2025-03-10", "08:30:00", "", "", "", "Camp"},
		})
		rec := s.do(t, http.MethodPost, "/api/workers/w1/clock-out", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "multiple_open_sessions", decode[ErrorResponse](t, rec).Code)
	})
}

func TestClockIn_StoreUnavailable(t *testing.T) {
	h := NewHandler(
		timesheet.NewLedger(failingStore{}, timesheet.WithDirectory(staticDirectory{"w1": "Aisha"})),
		clockAt(10, 9, 0),
		zerolog.Nop(),
	)
	s := &testServer{handler: h, router: NewRouter(h)}

	rec := s.do(t, http.MethodPost, "/api/workers/w1/clock-in", ClockInRequest{Program: "Camp"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "store_unavailable", decode[ErrorResponse](t, rec).Code)
}

// lockedStore reads normally but every write loses to another writer.
type lockedStore struct {
	generic.RowStore
}

func (lockedStore) AppendRows(context.Context, string, string, [][]string) error {
	return fmt.Errorf("%w: append timesheet: database is locked", generic.ErrConcurrentModification)
}

func TestClockIn_WriteLockContention_Conflict(t *testing.T) {
	mem := store.NewMemory()
	h := NewHandler(
		timesheet.NewLedger(lockedStore{mem}, timesheet.WithDirectory(staticDirectory{"w1": "Aisha"})),
		clockAt(10, 9, 0),
		zerolog.Nop(),
	)
	s := &testServer{handler: h, router: NewRouter(h)}

	rec := s.do(t, http.MethodPost, "/api/workers/w1/clock-in", ClockInRequest{Program: "Camp"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "concurrent_modification", decode[ErrorResponse](t, rec).Code)
}

type staticDirectory map[string]string

func (d staticDirectory) Lookup(_ context.Context, id string) (*timesheet.Worker, error) {
	if name, ok := d[id]; ok {
		return &timesheet.Worker{ID: id, Name: name}, nil
	}
	return nil, nil
}

// =============================================================================
// WORKER STATUS
// =============================================================================

func TestGetWorker_ShowsActiveSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/workers/w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	w := decode[WorkerDTO](t, rec)
	assert.Equal(t, "Aisha", w.Name)
	assert.Nil(t, w.ActiveSession)

	s.do(t, http.MethodPost, "/api/workers/w1/clock-in", ClockInRequest{Program: "Mukhayyam"})

	w = decode[WorkerDTO](t, s.do(t, http.MethodGet, "/api/workers/w1", nil))
	require.NotNil(t, w.ActiveSession)
	assert.Equal(t, "Mukhayyam", w.ActiveSession.Program)
}

func TestGetWorker_Unknown(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/workers/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func seedHistory(s *testServer) {
	s.mem.Seed("timesheet", [][]string{
		timesheet.Header,
		{"1", "w1", "2025-02-25", "09:00:00", "11:00:00", "2.00", "2.00", "Rawdat"},
		{"2", "w1", "2025-03-03", "09:00:00", "10:30:00", "1.50", "1.50", "Rawdat + Admin Work"},
		{"3", "w1", "2025-03-04", "13:00:00", "16:00:00", "3.00", "2.50", "Sigaar"},
		{"4", "w2", "2025-03-04", "13:00:00", "14:00:00", "1.00", "1.00", "Camp"},
		{"5", "w1", "2025-03-21", "09:00:00", "10:00:00", "1.00", "1.00", "Camp"},
	})
}

func TestReport_Windows(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLabel string
		wantRows  int
		wantTotal string
	}{
		{"default is current month", "", "March 2025", 3, "5.00"},
		{"explicit month", "?kind=monthly&year=2025&month=2", "February 2025", 1, "2.00"},
		{"current payroll period", "?kind=payroll", "Feb 20 - Mar 19, 2025", 3, "6.00"},
		{"previous payroll period", "?kind=payroll&offset=1", "Jan 20 - Feb 19, 2025", 0, "0.00"},
		{"custom range", "?kind=custom&start=2025-03-03&end=2025-03-04", "Mar 3 - 4, 2025", 2, "4.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			seedHistory(s)

			rec := s.do(t, http.MethodGet, "/api/workers/w1/report"+tt.query, nil)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			report := decode[ReportDTO](t, rec)
			assert.Equal(t, tt.wantLabel, report.Period.Label)
			assert.Len(t, report.Rows, tt.wantRows)
			assert.Equal(t, tt.wantTotal, report.TotalHours)
			assert.NotNil(t, report.Totals)
		})
	}
}

func TestReport_MergesRawdatCategory(t *testing.T) {
	s := newTestServer(t)
	seedHistory(s)

	report := decode[ReportDTO](t, s.do(t, http.MethodGet, "/api/workers/w1/report?kind=payroll", nil))

	require.Len(t, report.Totals, 2)
	assert.Equal(t, ProgramTotalDTO{Program: "Rawdat", Hours: "3.50"}, report.Totals[0])
	assert.Equal(t, ProgramTotalDTO{Program: "Sigaar", Hours: "2.50"}, report.Totals[1])
}

func TestReport_InvalidQueries(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown kind", "?kind=weekly"},
		{"custom without end", "?kind=custom&start=2025-03-03"},
		{"inverted custom range", "?kind=custom&start=2025-03-10&end=2025-03-01"},
		{"bad date", "?kind=custom&start=yesterday&end=2025-03-01"},
		{"month out of range", "?kind=monthly&month=13"},
		{"non-numeric offset", "?kind=payroll&offset=last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodGet, "/api/workers/w1/report"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

// =============================================================================
// PROGRAMS / PERIODS / HEALTH
// =============================================================================

func TestListPrograms(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/programs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	programs := decode[[]ProgramDTO](t, rec)
	require.Len(t, programs, len(timesheet.Programs))
	assert.Equal(t, ProgramDTO{Name: "Rawdat", Cap: "2.00", Category: "Rawdat"}, programs[0])
	assert.Equal(t, ProgramDTO{Name: "Rawdat + Admin Work", Cap: "3.00", Category: "Rawdat"}, programs[1])
}

func TestListPayrollPeriods(t *testing.T) {
	s := newTestServer(t)
	s.handler.Clock = clockAt(25, 12, 0)

	rec := s.do(t, http.MethodGet, "/api/periods/payroll?n=3", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	periods := decode[[]PeriodDTO](t, rec)
	require.Len(t, periods, 3)
	assert.Equal(t, "2025-03-20", periods[0].Start)
	assert.Equal(t, "2025-04-19", periods[0].End)
	assert.Equal(t, "Jan 20 - Feb 19, 2025", periods[2].Label)
}

func TestListPayrollPeriods_DefaultAndBounds(t *testing.T) {
	s := newTestServer(t)

	periods := decode[[]PeriodDTO](t, s.do(t, http.MethodGet, "/api/periods/payroll", nil))
	assert.Len(t, periods, 6)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/periods/payroll?n=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/periods/payroll?n=99", nil).Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)

	s.handler.Checks["redis"] = func(context.Context) error { return errors.New("dial tcp: refused") }
	rec := s.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "unhealthy", body["status"])
}
