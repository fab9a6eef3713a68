/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes the session ledger via REST API. Handles HTTP request/response,
  JSON serialization and validation, and delegates to timesheet.Ledger.

ENDPOINTS:
  Programs:
    GET    /api/programs                    Programs with caps and categories

  Workers:
    GET    /api/workers/{id}                Worker and today's open session
    POST   /api/workers/{id}/clock-in       Open a session   {"program": "..."}
    POST   /api/workers/{id}/clock-out      Close a session  {"program": "..."} optional
    GET    /api/workers/{id}/report         History and totals for a window

  Periods:
    GET    /api/periods/payroll?n=6         Recent payroll periods

REPORT QUERY:
  kind=monthly&year=2025&month=3     (defaults to the current month)
  kind=payroll&offset=0              (0 = current period, 1 = previous, ...)
  kind=custom&start=2025-03-03&end=2025-03-17

TIME:
  "Now" is read once per request from the handler's Clock, in the
  organization's timezone.

ERROR HANDLING:
  See errors.go for the status mapping.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *timesheet.Ledger
	Clock  generic.Clock
	Log    zerolog.Logger

	// Checks are run by /healthz, keyed by dependency name.
	Checks map[string]HealthCheck

	validate *validator.Validate
}

// NewHandler creates a new handler over ledger.
func NewHandler(ledger *timesheet.Ledger, clock generic.Clock, log zerolog.Logger) *Handler {
	return &Handler{
		Ledger:   ledger,
		Clock:    clock,
		Log:      log,
		Checks:   make(map[string]HealthCheck),
		validate: validator.New(),
	}
}

// =============================================================================
// PROGRAM HANDLERS
// =============================================================================

// ListPrograms returns the program enumeration with caps and categories.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	policy := h.Ledger.Policy()
	dtos := make([]ProgramDTO, len(timesheet.Programs))
	for i, p := range timesheet.Programs {
		dtos[i] = ProgramDTO{
			Name:     string(p),
			Cap:      generic.FormatHours(policy.Cap(p)),
			Category: policy.Category(p),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// GetWorker returns the worker and today's open session.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	worker, err := h.Ledger.Worker(ctx, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	open, err := h.Ledger.ActiveSession(ctx, worker.ID, h.Clock.Now())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, WorkerDTO{
		ID:            worker.ID,
		Name:          worker.Name,
		ActiveSession: ToEntryDTO(open),
	})
}

// ClockIn opens a session for the worker.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ClockInRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", errors.New(validationMessage(err)))
		return
	}
	program, err := timesheet.ParseProgram(req.Program)
	if err != nil {
		h.countClock("clock_in", err)
		h.writeDomainError(w, r, err)
		return
	}

	entry, err := h.Ledger.ClockIn(r.Context(), id, program, h.Clock.Now())
	h.countClock("clock_in", err)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ToEntryDTO(entry))
}

// ClockOut closes the worker's open session. The body is optional.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ClockOutRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	program, err := timesheet.ParseProgram(req.Program)
	if err != nil {
		h.countClock("clock_out", err)
		h.writeDomainError(w, r, err)
		return
	}

	entry, err := h.Ledger.ClockOut(r.Context(), id, program, h.Clock.Now())
	h.countClock("clock_out", err)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	hours, _ := entry.AdjustedHours.Float64()
	AdjustedHours.WithLabelValues(string(entry.Program)).Observe(hours)
	writeJSON(w, http.StatusOK, ToEntryDTO(entry))
}

// Report returns display rows and program totals for a window.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	q, err := parseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", errors.New(validationMessage(err)))
		return
	}

	window, err := ResolveWindow(q, generic.DateOf(h.Clock.Now()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	report, err := h.Ledger.Report(r.Context(), id, window)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToReportDTO(report))
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPayrollPeriods returns the n most recent payroll periods, current first.
func (h *Handler) ListPayrollPeriods(w http.ResponseWriter, r *http.Request) {
	q := PeriodsQuery{N: 6}
	if s := r.URL.Query().Get("n"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid query", fmt.Errorf("n: %w", err))
			return
		}
		q.N = n
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", errors.New(validationMessage(err)))
		return
	}

	windows := generic.PayrollWindows(generic.DateOf(h.Clock.Now()), q.N)
	dtos := make([]PeriodDTO, len(windows))
	for i, win := range windows {
		dtos[i] = ToPeriodDTO(win)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HEALTH
// =============================================================================

// Healthz runs every registered check with a short timeout.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	writeJSON(w, status, map[string]any{"status": overall, "dependencies": deps})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) countClock(op string, err error) {
	result := "ok"
	if err != nil {
		_, result = resolveError(err)
	}
	ClockOperationsTotal.WithLabelValues(op, result).Inc()
}

// decodeBody decodes a JSON body. With optional, an empty body is accepted.
func decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseReportQuery(r *http.Request) (ReportQuery, error) {
	values := r.URL.Query()
	q := ReportQuery{
		Kind:  values.Get("kind"),
		Start: values.Get("start"),
		End:   values.Get("end"),
	}
	if q.Kind == "" {
		q.Kind = string(generic.WindowMonthly)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"year", &q.Year},
		{"month", &q.Month},
		{"offset", &q.Offset},
	}
	for _, p := range ints {
		s := values.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = n
	}
	return q, nil
}

// ResolveWindow turns a validated query into a window relative to today.
func ResolveWindow(q ReportQuery, today generic.TimePoint) (generic.Window, error) {
	switch generic.WindowKind(q.Kind) {
	case generic.WindowPayroll:
		windows := generic.PayrollWindows(today, q.Offset+1)
		return windows[q.Offset], nil
	case generic.WindowCustom:
		start, err := generic.ParseDate(q.Start)
		if err != nil {
			return generic.Window{}, fmt.Errorf("%w: start: %v", timesheet.ErrInvalidInput, err)
		}
		end, err := generic.ParseDate(q.End)
		if err != nil {
			return generic.Window{}, fmt.Errorf("%w: end: %v", timesheet.ErrInvalidInput, err)
		}
		return generic.CustomWindow(start, end)
	default:
		year, month := today.Year(), today.Month()
		if q.Year != 0 {
			year = q.Year
		}
		if q.Month != 0 {
			month = time.Month(q.Month)
		}
		return generic.MonthWindow(year, month), nil
	}
}
