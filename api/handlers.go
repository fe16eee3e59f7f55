/*
handlers.go - HTTP API handlers for the attendance reporting system

PURPOSE:
  Exposes the roster, self-report and verification subsystems via REST
  API. Handles HTTP request/response, JSON serialization, and delegates
  to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees?active=      List roster (optional active filter)
    POST   /api/employees              Register employee
    GET    /api/employees/{id}         Get one employee
    PUT    /api/employees/{id}         Patch employee fields
    PATCH  /api/employees/{id}/toggle  Flip active flag
    DELETE /api/employees/{id}         Remove employee

  Reports:
    GET    /api/reports?month=YYYY-MM  List a month's self-reports
    POST   /api/reports                Submit self-reports (fan-out per employee)
    PUT    /api/reports/{id}           Edit one report
    DELETE /api/reports/{id}           Delete one report

  Verification:
    POST   /api/cbo/upload             Store a month's CSV exports
    POST   /api/verification           Run/fetch verification for a month
    POST   /api/verification/checks    Set a confirmation check mark
    GET    /api/workdays?month=        List manual workday overrides
    POST   /api/workdays?month=        Set an override
    DELETE /api/workdays?month=        Clear an override

  Settings:
    GET    /api/settings               Notification toggle state
    POST   /api/settings               Update toggle
    DELETE /api/settings               Reset toggle to default

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (struct tags + handler checks)
  3. Call domain logic (roster, report, verify, notify)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found, no CBO data for month
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The app runs on the
  company intranet behind the office firewall.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kensei/kintai-engine/notify"
	"github.com/kensei/kintai-engine/report"
	"github.com/kensei/kintai-engine/roster"
	"github.com/kensei/kintai-engine/timesheet"
	"github.com/kensei/kintai-engine/verify"
)

const timeFormat = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Roster   *roster.Store
	Reports  *report.Store
	Verifier *verify.Service
	Settings *notify.Settings
	Sink     notify.Sink
	Log      *logrus.Logger

	validate *validator.Validate
}

// NewHandler creates a handler over the given stores. A nil sink
// disables notifications.
func NewHandler(rosterStore *roster.Store, reports *report.Store, verifier *verify.Service, settings *notify.Settings, sink notify.Sink, log *logrus.Logger) *Handler {
	if sink == nil {
		sink = notify.Noop{}
	}
	return &Handler{
		Roster:   rosterStore,
		Reports:  reports,
		Verifier: verifier,
		Settings: settings,
		Sink:     sink,
		Log:      log,
		validate: validator.New(),
	}
}

// decodeValid decodes a JSON body into dst and runs struct
// validation.
func (h *Handler) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return h.validate.Struct(dst)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster in report order. The optional
// active query parameter narrows to active (true) or retired (false)
// employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var (
		employees []roster.Employee
		err       error
	)
	if q := r.URL.Query().Get("active"); q == "" {
		employees, err = h.Roster.List(r.Context())
	} else {
		active, perr := strconv.ParseBool(q)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid active filter", perr)
			return
		}
		if active {
			employees, err = h.Roster.ListActive(r.Context())
		} else {
			var all []roster.Employee
			all, err = h.Roster.List(r.Context())
			for _, e := range all {
				if !e.Active {
					employees = append(employees, e)
				}
			}
		}
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers a new roster entry.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	emp, err := h.Roster.Create(r.Context(), roster.Employee{
		Name:         req.Name,
		CBOName:      req.CBOName,
		Department:   roster.Department(req.Department),
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one roster entry.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Roster.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, roster.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// UpdateEmployee patches roster fields.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	patch := roster.Patch{
		Name:         req.Name,
		CBOName:      req.CBOName,
		Department:   roster.Department(req.Department),
		DisplayOrder: req.DisplayOrder,
	}

	emp, err := h.Roster.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, roster.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// ToggleEmployee flips the active flag.
func (h *Handler) ToggleEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Roster.Toggle(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, roster.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to toggle employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// DeleteEmployee removes a roster entry.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	err := h.Roster.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, roster.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// SELF-REPORT HANDLERS
// =============================================================================

// ListReports returns a month's self-reports.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	month, ok := timesheet.NormalizeMonth(r.URL.Query().Get("month"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid month", errors.New("month must be YYYY-MM"))
		return
	}

	reports, err := h.Reports.ListMonth(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reports", err)
		return
	}

	dtos := make([]ReportDTO, len(reports))
	for i, rep := range reports {
		dtos[i] = toReportDTO(rep)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SubmitReports stores one report per listed employee and pushes a
// group notification. Notification failure never fails the
// submission.
func (h *Handler) SubmitReports(w http.ResponseWriter, r *http.Request) {
	var req SubmitReportRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	entries := make([]report.Entry, len(req.Reports))
	for i, e := range req.Reports {
		if !e.Hours.IsPositive() {
			writeError(w, http.StatusBadRequest, "Invalid request", fmt.Errorf("hours for %s must be positive", e.Employee))
			return
		}
		entries[i] = report.Entry{Employee: e.Employee, Hours: e.Hours}
	}

	saved, err := h.Reports.Submit(r.Context(), req.Date, req.Category, entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save reports", err)
		return
	}

	h.notifySubmission(r, req, saved)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"report_count": len(saved),
		"message":      fmt.Sprintf("%d件の報告を送信しました", len(saved)),
	})
}

func (h *Handler) notifySubmission(r *http.Request, req SubmitReportRequest, saved []report.SelfReport) {
	enabled, err := h.Settings.Enabled(r.Context())
	if err != nil {
		h.Log.WithError(err).Warn("notification settings unavailable")
		return
	}
	if !enabled || len(saved) == 0 {
		return
	}

	sub := notify.Submission{
		Date:        req.Date,
		Category:    req.Category,
		SubmittedAt: saved[0].CreatedAt,
	}
	for _, rep := range saved {
		sub.Entries = append(sub.Entries, notify.Entry{Employee: rep.Employee, Hours: rep.Hours})
	}
	if err := h.Sink.NotifySubmission(r.Context(), sub); err != nil {
		// Reports are already stored; log and continue.
		h.Log.WithError(err).Error("submission notification failed")
	}
}

// UpdateReport patches one stored report.
func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	var req UpdateReportRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	if req.Hours != nil && !req.Hours.IsPositive() {
		writeError(w, http.StatusBadRequest, "Invalid request", errors.New("hours must be positive"))
		return
	}

	rep, err := h.Reports.Update(r.Context(), chi.URLParam(r, "id"), req.Hours, req.Category, req.Date)
	if errors.Is(err, report.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// DeleteReport removes one stored report.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	err := h.Reports.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, report.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete report", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// VERIFICATION HANDLERS
// =============================================================================

// UploadCBO parses and stores a month's CSV exports.
func (h *Handler) UploadCBO(w http.ResponseWriter, r *http.Request) {
	var req UploadCBORequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	month, ok := timesheet.NormalizeMonth(req.Month)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid month", errors.New("month must be YYYY-MM"))
		return
	}

	stats, err := h.Verifier.Upload(r.Context(), month, req.CSVData, req.AttendanceCSV, req.SalesCSV)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse CSV", err)
		return
	}

	writeJSON(w, http.StatusOK, UploadCBOResponse{
		Success: true,
		Message: "CSV parsed and saved successfully",
		Stats:   stats,
	})
}

// RunVerification returns the month's verification report, cached or
// freshly computed.
func (h *Handler) RunVerification(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	month, ok := timesheet.NormalizeMonth(req.Month)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid month", errors.New("month must be YYYY-MM"))
		return
	}

	rep, err := h.Verifier.Verify(r.Context(), month, req.ForceRefresh, roster.Department(req.Department))
	if errors.Is(err, verify.ErrNoData) {
		writeError(w, http.StatusNotFound, "CBO data not found",
			fmt.Errorf("no CBO data uploaded for %s, please upload CSV first", month))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to verify CBO data", err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{Success: true, Verification: rep})
}

// UpdateCheck sets or clears one confirmation check mark.
func (h *Handler) UpdateCheck(w http.ResponseWriter, r *http.Request) {
	var req UpdateCheckRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	state, err := h.Verifier.UpdateCheck(r.Context(), req.Month, req.Employee, req.Date, req.CheckType, req.Checked)
	if errors.Is(err, verify.ErrBadCheckType) {
		writeError(w, http.StatusBadRequest, "Invalid checkType", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update check status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": state})
}

// ListWorkdays returns a month's manual overrides.
func (h *Handler) ListWorkdays(w http.ResponseWriter, r *http.Request) {
	month, ok := timesheet.NormalizeMonth(r.URL.Query().Get("month"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid month format", errors.New("month must be YYYY-MM"))
		return
	}

	overrides, err := h.Verifier.Workdays().List(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workday settings", err)
		return
	}
	writeJSON(w, http.StatusOK, WorkdaysResponse{Success: true, Month: month, Settings: overrides})
}

// SetWorkday marks a date as a workday or holiday.
func (h *Handler) SetWorkday(w http.ResponseWriter, r *http.Request) {
	month, ok := timesheet.NormalizeMonth(r.URL.Query().Get("month"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid month format", errors.New("month must be YYYY-MM"))
		return
	}
	var req WorkdayRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	if err := h.Verifier.Workdays().Set(r.Context(), month, req.Date, req.Type); err != nil {
		if errors.Is(err, verify.ErrBadOverride) {
			writeError(w, http.StatusBadRequest, "Invalid type", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save workday setting", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "month": month, "date": req.Date, "type": req.Type})
}

// DeleteWorkday clears a date's manual override.
func (h *Handler) DeleteWorkday(w http.ResponseWriter, r *http.Request) {
	month, ok := timesheet.NormalizeMonth(r.URL.Query().Get("month"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid month format", errors.New("month must be YYYY-MM"))
		return
	}
	var req WorkdayRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	err := h.Verifier.Workdays().Delete(r.Context(), month, req.Date)
	if errors.Is(err, verify.ErrNoOverride) {
		writeError(w, http.StatusNotFound, "Setting not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete workday setting", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "month": month, "date": req.Date})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the notification toggle state.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.Settings.Enabled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read settings", err)
		return
	}
	_, configured := h.Sink.(*notify.LineSink)
	writeJSON(w, http.StatusOK, SettingsDTO{
		LineNotificationEnabled: enabled,
		LineConfigured:          configured,
	})
}

// UpdateSettings stores the notification toggle.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid value", err)
		return
	}

	if err := h.Settings.SetEnabled(r.Context(), *req.LineNotificationEnabled); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":                   true,
		"line_notification_enabled": *req.LineNotificationEnabled,
	})
}

// ResetSettings clears the toggle, returning to the enabled default.
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.Settings.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset settings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
