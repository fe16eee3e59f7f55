/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest, UpdateEmployeeRequest

  Reports:
    SubmitReportRequest, ReportEntryRequest, UpdateReportRequest,
    ReportDTO

  Verification:
    UploadCBORequest, VerifyRequest, UpdateCheckRequest,
    WorkdayRequest

  Settings:
    SettingsDTO, UpdateSettingsRequest

VALIDATION:
  Struct tags drive go-playground/validator; checks that the tag
  language cannot express (decimal ranges, month formats) live in the
  handlers.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Router setup and middleware
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/kensei/kintai-engine/report"
	"github.com/kensei/kintai-engine/roster"
	"github.com/kensei/kintai-engine/verify"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents a roster entry in API responses.
type EmployeeDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CBOName      string `json:"cbo_name"`
	Department   string `json:"department"`
	Active       bool   `json:"active"`
	DisplayOrder int    `json:"display_order"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	Name         string `json:"name" validate:"required"`
	CBOName      string `json:"cbo_name" validate:"required"`
	Department   string `json:"department" validate:"required,oneof=factory management"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// UpdateEmployeeRequest is a partial roster patch. Empty fields are
// left unchanged.
type UpdateEmployeeRequest struct {
	Name         string `json:"name"`
	CBOName      string `json:"cbo_name"`
	Department   string `json:"department" validate:"omitempty,oneof=factory management"`
	DisplayOrder *int   `json:"display_order" validate:"omitempty,gte=0"`
}

// =============================================================================
// SELF-REPORT TYPES
// =============================================================================

// ReportEntryRequest is one employee's figure in a submission.
type ReportEntryRequest struct {
	Employee string          `json:"employee" validate:"required"`
	Hours    decimal.Decimal `json:"hours"`
}

// SubmitReportRequest is the request to submit self-reports.
type SubmitReportRequest struct {
	Date     string               `json:"date" validate:"required,datetime=2006-01-02"`
	Category string               `json:"category" validate:"required"`
	Reports  []ReportEntryRequest `json:"reports" validate:"required,min=1,dive"`
}

// UpdateReportRequest patches one stored report. Nil/empty fields are
// left unchanged.
type UpdateReportRequest struct {
	Hours    *decimal.Decimal `json:"hours"`
	Category string           `json:"category"`
	Date     string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ReportDTO represents a stored self-report in API responses.
type ReportDTO struct {
	ID        string          `json:"id"`
	Date      string          `json:"date"`
	Employee  string          `json:"employee"`
	Category  string          `json:"category"`
	Hours     decimal.Decimal `json:"hours"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// =============================================================================
// VERIFICATION TYPES
// =============================================================================

// UploadCBORequest carries a month's CSV exports. The attendance and
// sales CSVs are optional.
type UploadCBORequest struct {
	Month         string `json:"month" validate:"required"`
	CSVData       string `json:"csv_data" validate:"required"`
	AttendanceCSV string `json:"attendance_csv"`
	SalesCSV      string `json:"sales_csv"`
}

// UploadCBOResponse is the upload outcome.
type UploadCBOResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Stats   verify.UploadStats `json:"stats"`
}

// VerifyRequest triggers a verification run.
type VerifyRequest struct {
	Month        string `json:"month" validate:"required"`
	ForceRefresh bool   `json:"force_refresh"`
	Department   string `json:"department" validate:"omitempty,oneof=factory management"`
}

// VerifyResponse wraps a verification report.
type VerifyResponse struct {
	Success      bool           `json:"success"`
	Verification *verify.Report `json:"verification"`
}

// UpdateCheckRequest sets or clears one confirmation check mark.
type UpdateCheckRequest struct {
	Month     string `json:"month" validate:"required"`
	Employee  string `json:"employee" validate:"required"`
	Date      string `json:"date" validate:"required"`
	CheckType string `json:"check_type" validate:"required,oneof=self admin"`
	Checked   bool   `json:"checked"`
}

// WorkdayRequest sets or clears one manual workday override.
type WorkdayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006/01/02"`
	Type string `json:"type" validate:"omitempty,oneof=workday holiday"`
}

// WorkdaysResponse lists a month's manual overrides.
type WorkdaysResponse struct {
	Success  bool              `json:"success"`
	Month    string            `json:"month"`
	Settings map[string]string `json:"settings"`
}

// =============================================================================
// SETTINGS TYPES
// =============================================================================

// SettingsDTO is the notification configuration state.
type SettingsDTO struct {
	LineNotificationEnabled bool `json:"line_notification_enabled"`
	LineConfigured          bool `json:"line_configured"`
}

// UpdateSettingsRequest toggles notifications. The pointer
// distinguishes an explicit false from a missing field.
type UpdateSettingsRequest struct {
	LineNotificationEnabled *bool `json:"line_notification_enabled" validate:"required"`
}

// =============================================================================
// COMMON TYPES
// =============================================================================

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e roster.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           e.ID,
		Name:         e.Name,
		CBOName:      e.CBOName,
		Department:   string(e.Department),
		Active:       e.Active,
		DisplayOrder: e.DisplayOrder,
		CreatedAt:    e.CreatedAt.Format(timeFormat),
		UpdatedAt:    e.UpdatedAt.Format(timeFormat),
	}
}

func toReportDTO(r report.SelfReport) ReportDTO {
	return ReportDTO{
		ID:        r.ID,
		Date:      r.Date,
		Employee:  r.Employee,
		Category:  r.Category,
		Hours:     r.Hours,
		CreatedAt: r.CreatedAt.Format(timeFormat),
		UpdatedAt: r.UpdatedAt.Format(timeFormat),
	}
}
