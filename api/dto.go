/*
dto.go - JSON shapes for the report API

PURPOSE:
  Decouples the engine's decimal/time domain types from the wire
  contract: hours flatten to JSON numbers, dates to yyyy-mm-dd strings,
  optional entry fields drop out when unset.

SEE ALSO:
  - handlers.go: Uses these types
  - report/types.go: The domain side
*/
package api

import (
	"github.com/loom/timereport/calendar"
	"github.com/loom/timereport/report"
)

// ReportDataResponse is the full query payload.
type ReportDataResponse struct {
	TimeReports        []TimeReportDTO            `json:"timeReports"`
	TimeTypes          []TimeTypeDTO              `json:"timeTypes"`
	Teams              []TeamDTO                  `json:"teams"`
	Roles              []RoleDTO                  `json:"roles"`
	GeneralAssignments []GeneralTimeAssignmentDTO `json:"generalAssignments"`
}

type TimeReportDTO struct {
	ID                     string         `json:"id"`
	EmployeeID             string         `json:"employeeId"`
	EmployeeName           string         `json:"employeeName"`
	PayrollID              string         `json:"payrollId"`
	Week                   string         `json:"week"`
	WeekStart              string         `json:"weekStart"`
	WeekEnd                string         `json:"weekEnd"`
	Team                   string         `json:"team"`
	Role                   string         `json:"role"`
	FullHours              float64        `json:"fullHours"`
	ExpectedHours          float64        `json:"expectedHours"`
	IsUnderutilized        bool           `json:"isUnderutilized"`
	MissingHours           float64        `json:"missingHours"`
	UnderutilizationReason string         `json:"underutilizationReason,omitempty"`
	TimeEntries            []TimeEntryDTO `json:"timeEntries"`
}

type TimeEntryDTO struct {
	ID         string  `json:"id"`
	Hours      float64 `json:"hours"`
	TimeTypeID string  `json:"timeTypeId"`
	IsCapDev   bool    `json:"isCapDev"`
	Date       string  `json:"date"`

	IsPublicHoliday   bool   `json:"isPublicHoliday,omitempty"`
	PublicHolidayName string `json:"publicHolidayName,omitempty"`

	IsLeave   bool   `json:"isLeave,omitempty"`
	LeaveType string `json:"leaveType,omitempty"`

	ProjectID    string        `json:"projectId,omitempty"`
	ProjectName  string        `json:"projectName,omitempty"`
	JiraID       string        `json:"jiraId,omitempty"`
	JiraURL      string        `json:"jiraUrl,omitempty"`
	TeamName     string        `json:"teamName,omitempty"`
	ActivityDate string        `json:"activityDate,omitempty"`
	DateRange    *DateRangeDTO `json:"dateRange,omitempty"`
}

type DateRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type TimeTypeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsCapDev bool   `json:"isCapDev"`
}

type TeamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoleDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GeneralTimeAssignmentDTO struct {
	RoleID       string  `json:"roleId"`
	TimeTypeID   string  `json:"timeTypeId"`
	HoursPerWeek float64 `json:"hoursPerWeek"`
}

// =============================================================================
// DOMAIN -> DTO
// =============================================================================

func toReportDataResponse(data *report.Data) ReportDataResponse {
	resp := ReportDataResponse{
		TimeReports:        make([]TimeReportDTO, 0, len(data.TimeReports)),
		TimeTypes:          make([]TimeTypeDTO, 0, len(data.TimeTypes)),
		Teams:              make([]TeamDTO, 0, len(data.Teams)),
		Roles:              make([]RoleDTO, 0, len(data.Roles)),
		GeneralAssignments: make([]GeneralTimeAssignmentDTO, 0, len(data.GeneralAssignments)),
	}
	for _, r := range data.TimeReports {
		resp.TimeReports = append(resp.TimeReports, toTimeReportDTO(r))
	}
	for _, tt := range data.TimeTypes {
		resp.TimeTypes = append(resp.TimeTypes, toTimeTypeDTO(tt))
	}
	for _, t := range data.Teams {
		resp.Teams = append(resp.Teams, TeamDTO{ID: string(t.ID), Name: t.Name})
	}
	for _, r := range data.Roles {
		resp.Roles = append(resp.Roles, RoleDTO{ID: string(r.ID), Name: r.Name})
	}
	for _, ga := range data.GeneralAssignments {
		resp.GeneralAssignments = append(resp.GeneralAssignments, GeneralTimeAssignmentDTO{
			RoleID:       string(ga.RoleID),
			TimeTypeID:   string(ga.TimeTypeID),
			HoursPerWeek: ga.HoursPerWeek.InexactFloat64(),
		})
	}
	return resp
}

func toTimeReportDTO(r report.TimeReport) TimeReportDTO {
	dto := TimeReportDTO{
		ID:                     r.ID,
		EmployeeID:             string(r.EmployeeID),
		EmployeeName:           r.EmployeeName,
		PayrollID:              r.PayrollID,
		Week:                   r.Week,
		WeekStart:              calendar.DateKey(r.WeekStart),
		WeekEnd:                calendar.DateKey(r.WeekEnd),
		Team:                   r.Team,
		Role:                   r.Role,
		FullHours:              r.FullHours.InexactFloat64(),
		ExpectedHours:          r.ExpectedHours.InexactFloat64(),
		IsUnderutilized:        r.IsUnderutilized,
		MissingHours:           r.MissingHours.InexactFloat64(),
		UnderutilizationReason: r.UnderutilizationReason,
		TimeEntries:            make([]TimeEntryDTO, 0, len(r.TimeEntries)),
	}
	for _, e := range r.TimeEntries {
		dto.TimeEntries = append(dto.TimeEntries, toTimeEntryDTO(e))
	}
	return dto
}

func toTimeEntryDTO(e report.TimeEntry) TimeEntryDTO {
	dto := TimeEntryDTO{
		ID:                e.ID,
		Hours:             e.Hours.InexactFloat64(),
		TimeTypeID:        string(e.TimeTypeID),
		IsCapDev:          e.IsCapDev,
		Date:              calendar.DateKey(e.Date),
		IsPublicHoliday:   e.IsPublicHoliday,
		PublicHolidayName: e.PublicHolidayName,
		IsLeave:           e.IsLeave,
		LeaveType:         e.LeaveType,
		ProjectID:         string(e.ProjectID),
		ProjectName:       e.ProjectName,
		JiraID:            e.JiraID,
		JiraURL:           e.JiraURL,
		TeamName:          e.TeamName,
		ActivityDate:      e.ActivityDate,
	}
	if e.DateRange != nil {
		dto.DateRange = &DateRangeDTO{
			Start: calendar.DateKey(e.DateRange.Start),
			End:   calendar.DateKey(e.DateRange.End),
		}
	}
	return dto
}

func toTimeTypeDTO(tt report.TimeType) TimeTypeDTO {
	return TimeTypeDTO{ID: string(tt.ID), Name: tt.Name, IsCapDev: tt.IsCapDev}
}
