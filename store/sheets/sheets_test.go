package sheets_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/store/sheets"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// FAKE VALUES API
// =============================================================================

type request struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeSheets serves one spreadsheet's values from memory.
type fakeSheets struct {
	mu       sync.Mutex
	values   [][]any
	requests []request
	status   int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req := request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &req.Body)
		}
	}
	f.requests = append(f.requests, req)

	if f.status != 0 {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, f.status)
		return
	}

	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Sheet1!A1:H9", "majorDimension": "ROWS", "values": f.values})
	case http.MethodPost:
		for _, row := range req.Body["values"].([]any) {
			f.values = append(f.values, row.([]any))
		}
		_, _ = w.Write([]byte(`{}`))
	case http.MethodPut:
		values := req.Body["values"].([]any)[0].([]any)
		from, _, _ := generic.ParseA1(req.Body["range"].(string))
		row := f.values[from.Row-1]
		for len(row) < from.Col+len(values) {
			row = append(row, "")
		}
		copy(row[from.Col:], values)
		f.values[from.Row-1] = row
		_, _ = w.Write([]byte(`{}`))
	}
}

func newTestStore(t *testing.T, fake *fakeSheets) *sheets.Store {
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := sheets.New(context.Background(), sheets.Config{
		Spreadsheets: map[string]string{"timesheet": "sheet-ts", "workers": "sheet-w"},
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return store
}

// =============================================================================
// TESTS
// =============================================================================

func TestReadRows_ConvertsScalars(t *testing.T) {
	fake := &fakeSheets{values: [][]any{
		{"sequence", "worker_id"},
		{float64(1), "w1", true},
		{},
	}}
	store := newTestStore(t, fake)

	rows, err := store.ReadRows(context.Background(), "timesheet", "Sheet1!A:H")

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"sequence", "worker_id"}, {"1", "w1", "true"}, {}}, rows)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/v4/spreadsheets/sheet-ts/values/Sheet1!A:H", fake.requests[0].Path)
}

func TestAppendRows_UsesRawInsertRows(t *testing.T) {
	fake := &fakeSheets{}
	store := newTestStore(t, fake)

	err := store.AppendRows(context.Background(), "timesheet", "Sheet1!A:H", [][]string{{"1", "w1"}})

	require.NoError(t, err)
	req := fake.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v4/spreadsheets/sheet-ts/values/Sheet1!A:H:append", req.Path)
	assert.Equal(t, "insertDataOption=INSERT_ROWS&valueInputOption=RAW", req.Query)
	assert.Equal(t, [][]any{{"1", "w1"}}, fake.values)
}

func TestUpdateRange_SingleCall(t *testing.T) {
	fake := &fakeSheets{values: [][]any{{"h"}, {"1", "w1", "2025-03-03", "09:00:00"}}}
	store := newTestStore(t, fake)

	err := store.UpdateRange(context.Background(), "timesheet", "Sheet1!E2:G2", []string{"10:00:00", "1.00", "1.25"})

	require.NoError(t, err)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodPut, fake.requests[0].Method)
	assert.Equal(t, "valueInputOption=RAW", fake.requests[0].Query)
	assert.Equal(t, []any{"1", "w1", "2025-03-03", "09:00:00", "10:00:00", "1.00", "1.25"}, fake.values[1])
}

func TestAPIError_IsStoreUnavailable(t *testing.T) {
	fake := &fakeSheets{status: http.StatusTooManyRequests}
	store := newTestStore(t, fake)

	_, err := store.ReadRows(context.Background(), "timesheet", "Sheet1!A:H")

	var storeErr *generic.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "read", storeErr.Op)
	assert.Contains(t, err.Error(), "429")
	assert.ErrorIs(t, err, generic.ErrStoreUnavailable)
}

func TestUnknownDataset(t *testing.T) {
	store := newTestStore(t, &fakeSheets{})

	err := store.AppendRows(context.Background(), "payroll", "Sheet1!A:A", [][]string{{"x"}})

	assert.ErrorIs(t, err, generic.ErrStoreUnavailable)
}

func TestNew_RequiresCredentials(t *testing.T) {
	ctx := context.Background()
	ids := map[string]string{"timesheet": "x"}

	_, err := sheets.New(ctx, sheets.Config{})
	assert.Error(t, err)

	_, err = sheets.New(ctx, sheets.Config{Spreadsheets: ids})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "authorized_user"}`), 0o600))
	_, err = sheets.New(ctx, sheets.Config{Spreadsheets: ids, CredentialsFile: path})
	assert.Error(t, err)
}

func TestLedgerOverSheets(t *testing.T) {
	// GIVEN: a workers sheet and an empty timesheet behind one fake API
	// WHEN: a worker clocks in and out
	// THEN: one append and one three-cell update reach the API

	fake := &fakeSheets{values: [][]any{{"worker_id", "name"}, {"w1", "Aisha"}}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	ts := &fakeSheets{}
	tsSrv := httptest.NewServer(ts)
	t.Cleanup(tsSrv.Close)

	workers, err := sheets.New(context.Background(), sheets.Config{
		Spreadsheets: map[string]string{"workers": "w"}, BaseURL: srv.URL, HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	timesheetStore, err := sheets.New(context.Background(), sheets.Config{
		Spreadsheets: map[string]string{"timesheet": "t"}, BaseURL: tsSrv.URL, HTTPClient: tsSrv.Client(),
	})
	require.NoError(t, err)

	ledger := timesheet.NewLedger(timesheetStore,
		timesheet.WithDirectory(timesheet.NewRowDirectory(workers, "workers", "Sheet1!A:B")))
	ctx := context.Background()
	start := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	_, err = ledger.ClockIn(ctx, "w1", timesheet.ProgramCamp, start)
	require.NoError(t, err)
	_, err = ledger.ClockOut(ctx, "w1", timesheet.ProgramCamp, start.Add(90*time.Minute))
	require.NoError(t, err)

	require.Len(t, ts.values, 2)
	assert.Equal(t, []any{"1", "w1", "2025-03-03", "09:00:00", "10:30:00", "1.50", "1.50", "Camp"}, ts.values[1])

	last := ts.requests[len(ts.requests)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/v4/spreadsheets/t/values/Sheet1!E2:G2", last.Path)
}
