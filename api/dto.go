/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger's model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request / *Query: Request body and query types from clients

HOURS:
  Hours are strings with two decimals ("1.25") so clients never see
  floating point noise.

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  h.validate before touching the ledger.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ClockInRequest is the body of POST /api/workers/{id}/clock-in.
type ClockInRequest struct {
	Program string `json:"program" validate:"required"`
}

// ClockOutRequest is the optional body of POST /api/workers/{id}/clock-out.
// An empty program skips the program check.
type ClockOutRequest struct {
	Program string `json:"program"`
}

// ReportQuery holds the query parameters of GET /api/workers/{id}/report.
type ReportQuery struct {
	Kind   string `validate:"required,oneof=monthly payroll custom"`
	Year   int    `validate:"omitempty,min=2000,max=2100"`
	Month  int    `validate:"omitempty,min=1,max=12"`
	Offset int    `validate:"min=0,max=24"`
	Start  string `validate:"required_if=Kind custom"`
	End    string `validate:"required_if=Kind custom"`
}

// PeriodsQuery holds the query parameters of GET /api/periods/payroll.
type PeriodsQuery struct {
	N int `validate:"min=1,max=24"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ProgramDTO describes one program and its policy.
type ProgramDTO struct {
	Name     string `json:"name"`
	Cap      string `json:"cap"`
	Category string `json:"category"`
}

// WorkerDTO is a worker with today's open session, if any.
type WorkerDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ActiveSession *EntryDTO `json:"active_session"`
}

// EntryDTO represents a timesheet entry.
type EntryDTO struct {
	Row           int    `json:"row"`
	Sequence      int    `json:"sequence"`
	WorkerID      string `json:"worker_id"`
	Date          string `json:"date"`
	ClockIn       string `json:"clock_in"`
	ClockOut      string `json:"clock_out,omitempty"`
	ActualHours   string `json:"actual_hours,omitempty"`
	AdjustedHours string `json:"adjusted_hours,omitempty"`
	Program       string `json:"program"`
	Open          bool   `json:"open"`
}

// PeriodDTO represents a reporting window.
type PeriodDTO struct {
	Kind  string `json:"kind"`
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// ReportDTO is the report hand-off.
type ReportDTO struct {
	WorkerID   string            `json:"worker_id"`
	Period     PeriodDTO         `json:"period"`
	Rows       []DisplayRowDTO   `json:"rows"`
	Totals     []ProgramTotalDTO `json:"totals"`
	TotalHours string            `json:"total_hours"`
}

type DisplayRowDTO struct {
	Date     string `json:"date"`
	Program  string `json:"program"`
	ClockIn  string `json:"clock_in"`
	ClockOut string `json:"clock_out"`
	Hours    string `json:"hours"`
	Open     bool   `json:"open"`
}

type ProgramTotalDTO struct {
	Program string `json:"program"`
	Hours   string `json:"hours"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func ToEntryDTO(e *timesheet.Entry) *EntryDTO {
	if e == nil {
		return nil
	}
	dto := &EntryDTO{
		Row:      e.Row,
		Sequence: e.Sequence,
		WorkerID: e.WorkerID,
		Date:     e.Date.String(),
		ClockIn:  generic.FormatClock(e.ClockIn),
		Program:  string(e.Program),
		Open:     e.IsOpen(),
	}
	if !e.IsOpen() {
		dto.ClockOut = generic.FormatClock(*e.ClockOut)
		dto.ActualHours = generic.FormatHours(e.ActualHours)
		dto.AdjustedHours = generic.FormatHours(e.AdjustedHours)
	}
	return dto
}

func ToPeriodDTO(w generic.Window) PeriodDTO {
	return PeriodDTO{
		Kind:  string(w.Kind),
		Start: w.Start.String(),
		End:   w.End.String(),
		Label: w.Label,
	}
}

func ToReportDTO(r *timesheet.Report) ReportDTO {
	dto := ReportDTO{
		WorkerID:   r.WorkerID,
		Period:     ToPeriodDTO(r.Window),
		Rows:       make([]DisplayRowDTO, len(r.Rows)),
		Totals:     make([]ProgramTotalDTO, len(r.Totals)),
		TotalHours: generic.FormatHours(r.TotalHours),
	}
	dto.Period.Label = r.Label
	for i, row := range r.Rows {
		dto.Rows[i] = DisplayRowDTO{
			Date:     row.Date,
			Program:  string(row.Program),
			ClockIn:  row.ClockIn,
			ClockOut: row.ClockOut,
			Hours:    generic.FormatHours(row.Hours),
			Open:     row.Open,
		}
	}
	for i, t := range r.Totals {
		dto.Totals[i] = ProgramTotalDTO{Program: t.Program, Hours: generic.FormatHours(t.Hours)}
	}
	return dto
}
