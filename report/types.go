/*
Package report reconstructs week-by-week time ledgers for employees.

PURPOSE:
  Given a read-only snapshot of team history, role allocations, leave,
  public holidays and Jira project activity, the engine in this package
  produces one TimeReport per employee per ISO week, classifying every
  hour as CapDev or not and guaranteeing entry hours sum exactly to the
  validated totals.

KEY CONCEPTS IN THIS FILE (types.go):
  - Input entities: Employee, TeamAssignment, Role, TimeType,
    GeneralTimeAssignment, Leave, Team, JiraBoard, Project,
    ProjectActivity. All read-only; mutated only by collaborators
    outside this package (sync jobs, admin CRUD).
  - Output: TimeReport and its ordered TimeEntry children. Computed
    fresh on every invocation, never persisted.

DESIGN PRINCIPLES:
  1. Precision: hour quantities are decimal.Decimal end to end, so the
     exact-sum guarantee of the project split holds without epsilon
     games.
  2. Type safety: typed identifiers keep employee/team/role ids from
     crossing wires.
  3. Purity: report computation is a function of the snapshot. Same
     snapshot, same reports.

SEE ALSO:
  - snapshot.go: Fetcher boundary and derived indexes
  - engine.go: The per-employee per-week allocation pipeline
  - assembler.go: Query filtering and response assembly
*/
package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type TeamID string
type RoleID string
type TimeTypeID string
type BoardID string
type ProjectID string

// =============================================================================
// INPUT ENTITIES
// =============================================================================

// Employee carries the employee's nominal capacity and full team
// assignment history. HoursPerWeek is a 5-day-week nominal figure in
// [0, 168]; 0 is the "not yet configured" sentinel that forces every
// week to report as underutilized with no entries.
type Employee struct {
	ID           EmployeeID
	Name         string
	PayrollID    string
	HoursPerWeek decimal.Decimal
	RoleID       RoleID

	// Assignments is the full history, not just the current team.
	// Fetchers return it ordered by start date descending.
	Assignments []TeamAssignment
}

// TeamAssignment is one span of an employee's team membership. A nil
// EndDate means open-ended. Spans may overlap or leave gaps.
type TeamAssignment struct {
	EmployeeID EmployeeID
	TeamID     TeamID
	StartDate  time.Time
	EndDate    *time.Time
}

// ActiveFor reports whether the assignment covers any day of the week
// [weekStart, weekEnd].
func (a TeamAssignment) ActiveFor(weekStart, weekEnd time.Time) bool {
	if a.StartDate.After(weekEnd) {
		return false
	}
	return a.EndDate == nil || !a.EndDate.Before(weekStart)
}

type Role struct {
	ID   RoleID
	Name string
}

// TimeType classifies an hour entry as CapDev or not. The types named
// "Leave", "Development" and "Maintenance" double as synthetic defaults
// for entries with no explicit general-assignment type (holiday, leave
// and project entries).
type TimeType struct {
	ID       TimeTypeID
	Name     string
	IsCapDev bool
}

// GeneralTimeAssignment is a standing weekly allocation applied to every
// employee holding the role, every week, scaled by the leave ratio.
type GeneralTimeAssignment struct {
	RoleID       RoleID
	TimeTypeID   TimeTypeID
	HoursPerWeek decimal.Decimal
}

// LeaveStatus values as recorded by the payroll sync. Only taken and
// approved leave counts toward reports.
const (
	LeaveStatusTaken    = "TAKEN"
	LeaveStatusApproved = "APPROVED"
)

// Leave is a single-day leave record. Duration is carried from payroll
// but ignored by the engine, which normalizes leave to 8-hour days.
type Leave struct {
	EmployeeID EmployeeID
	Date       time.Time
	Type       string
	Status     string
	Duration   decimal.Decimal
}

// Counts reports whether the leave record's status makes it visible to
// the engine.
func (l Leave) Counts() bool {
	return l.Status == LeaveStatusTaken || l.Status == LeaveStatusApproved
}

type Team struct {
	ID   TeamID
	Name string
}

// JiraBoard links a team to the projects tracked on one of its boards.
type JiraBoard struct {
	ID     BoardID
	TeamID TeamID
	Name   string
}

// Project is a Jira-tracked body of work. A team's available pool is
// the union of projects across all of its boards.
type Project struct {
	ID       ProjectID
	BoardID  BoardID
	Name     string
	JiraID   string
	IsCapDev bool
}

// ProjectActivity is one distinct interesting change-history date for a
// Jira issue, deduplicated upstream with automation authors excluded. A
// project is active in a week iff it has at least one activity row
// inside that week.
type ProjectActivity struct {
	JiraIssueID  string
	ActivityDate time.Time
}

// =============================================================================
// OUTPUT: REPORTS AND ENTRIES
// =============================================================================

// Underutilization reasons, set at the pipeline's early exits or by
// final reconciliation.
const (
	ReasonHoursNotSet       = "Hours per week not set"
	ReasonNoTeamAssignment  = "No team assignment for this period"
	ReasonNoActiveProjects  = "No active projects in teams' boards"
	ReasonNoProjectActivity = "No project activity this week"
	ReasonInsufficientHours = "Insufficient hours allocated"
)

// TeamUnassigned labels weeks with no active team assignment.
const TeamUnassigned = "Unassigned"

// TimeReport is one employee's reconstructed ledger for one ISO week.
type TimeReport struct {
	ID           string // employeeId-weekStart
	EmployeeID   EmployeeID
	EmployeeName string
	PayrollID    string
	Week         string // Monday week key, yyyy-mm-dd
	WeekStart    time.Time
	WeekEnd      time.Time
	Team         string // comma-joined active team names, or "Unassigned"
	Role         string

	FullHours     decimal.Decimal // sum of all entry hours
	ExpectedHours decimal.Decimal

	IsUnderutilized        bool
	MissingHours           decimal.Decimal
	UnderutilizationReason string

	TimeEntries []TimeEntry
}

// DateRange marks a week-granular entry's span.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// TimeEntry is one ledger line. Exactly one of the holiday, leave or
// project field groups is populated for day/project entries; general
// role entries populate none of them. Holiday and leave entries are
// day-granular; role and project entries are week-granular.
type TimeEntry struct {
	ID         string
	Hours      decimal.Decimal
	TimeTypeID TimeTypeID
	IsCapDev   bool
	Date       time.Time

	IsPublicHoliday   bool
	PublicHolidayName string

	IsLeave   bool
	LeaveType string

	ProjectID    ProjectID
	ProjectName  string
	JiraID       string
	JiraURL      string
	TeamName     string
	ActivityDate string // plain yyyy-mm-dd, project entries only
	DateRange    *DateRange
}
