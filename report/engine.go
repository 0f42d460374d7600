/*
engine.go - The per-employee, per-week allocation pipeline

PURPOSE:
  Reconstructs one TimeReport for each (employee, week) pair from the
  snapshot. The pipeline is a straight line with three early exits
  (zero-hours guard, no team assignment, no active projects/activity),
  each of which stops entry generation but still flows into final
  reconciliation.

PIPELINE (per employee x week):
  1. Zero-hours guard: unconfigured employees report empty weeks
  2. Resolve active team assignments, build the week's team label
  3. Working days -> expected capacity
  4. Day entries: public holiday first, then leave (8h each)
  5. Leave-adjusted ratio = working days excl. leave / working days
  6. Role allocations scaled by the ratio
  7. Remaining hours = max(0, (expected - unscaled assigned) * ratio)
  8. Even split of remaining hours across the week's active projects,
     quarter-hour rounded with the last project absorbing the remainder
     so entry hours sum exactly to the remaining hours
  9. Reconciliation: underutilization flag, missing hours, reason

DETERMINISM:
  Pure function of the snapshot. Quarter-hour rounding and the
  last-project remainder make the split reproducible and exact; the
  activity-date map keeps the first date seen per project in activity
  list order, never overwriting.

SEE ALSO:
  - snapshot.go: Input indexes
  - assembler.go: Drives the engine across employees and weeks
*/
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/loom/timereport/calendar"
	"github.com/shopspring/decimal"
)

// Synthetic default time type names looked up when an entry carries no
// explicit general-assignment type.
const (
	timeTypeLeave       = "Leave"
	timeTypeDevelopment = "Development"
	timeTypeMaintenance = "Maintenance"
)

var (
	four          = decimal.NewFromInt(4)
	five          = decimal.NewFromInt(5)
	leaveDayHours = decimal.NewFromInt(8)
)

// Engine computes weekly time reports from an immutable snapshot. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	cal         *calendar.Calendar
	jiraBaseURL string
	ix          *index
}

// NewEngine prepares an engine over one snapshot. The calendar is built
// from the snapshot's holiday rows; jiraBaseURL (may be empty) prefixes
// browse links on project entries.
func NewEngine(snap *Snapshot, region, jiraBaseURL string) *Engine {
	return &Engine{
		cal:         calendar.New(region, snap.Holidays),
		jiraBaseURL: strings.TrimSuffix(jiraBaseURL, "/"),
		ix:          newIndex(snap),
	}
}

// WeekReport computes the report for one employee and the week anchored
// at weekStart.
func (e *Engine) WeekReport(emp Employee, weekStart time.Time) TimeReport {
	weekEnd := calendar.WeekEnd(weekStart)
	week := calendar.DateKey(weekStart)

	r := TimeReport{
		ID:           fmt.Sprintf("%s-%s", emp.ID, week),
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		PayrollID:    emp.PayrollID,
		Week:         week,
		WeekStart:    weekStart,
		WeekEnd:      weekEnd,
		Team:         TeamUnassigned,
		Role:         e.ix.roleName(emp.RoleID),
	}

	// Unconfigured capacity short-circuits everything, including the
	// final reconciliation: the week is flagged with zero expectation.
	if emp.HoursPerWeek.IsZero() {
		r.IsUnderutilized = true
		r.UnderutilizationReason = ReasonHoursNotSet
		return r
	}

	active := e.activeAssignments(emp, weekStart, weekEnd)
	if names := e.teamLabel(active); names != "" {
		r.Team = names
	}

	days := calendar.DaysOfWeek(weekStart)
	workingDays := 0
	for _, d := range days {
		if e.cal.IsWorkingDay(d) {
			workingDays++
		}
	}
	hoursPerDay := emp.HoursPerWeek.Div(five)
	expected := hoursPerDay.Mul(decimal.NewFromInt(int64(workingDays)))

	full := decimal.Zero
	leaveDays := 0
	seq := 0
	nextID := func() string {
		seq++
		return fmt.Sprintf("%s-%d", r.ID, seq)
	}

	// Day entries. A public holiday wins over a leave record on the
	// same date; the day produces at most one entry either way.
	leaveType := e.ix.timeTypeByName(timeTypeLeave)
	for _, d := range days {
		if calendar.IsWeekend(d) {
			continue
		}
		if h, ok := e.cal.PublicHoliday(d); ok {
			r.TimeEntries = append(r.TimeEntries, TimeEntry{
				ID:                nextID(),
				Hours:             leaveDayHours,
				TimeTypeID:        leaveType.ID,
				IsCapDev:          leaveType.IsCapDev,
				Date:              d,
				IsPublicHoliday:   true,
				PublicHolidayName: h.Name,
			})
			full = full.Add(leaveDayHours)
			continue
		}
		if l, ok := e.ix.leaveFor(emp.ID, d); ok {
			r.TimeEntries = append(r.TimeEntries, TimeEntry{
				ID:         nextID(),
				Hours:      leaveDayHours,
				TimeTypeID: leaveType.ID,
				IsCapDev:   leaveType.IsCapDev,
				Date:       d,
				IsLeave:    true,
				LeaveType:  l.Type,
			})
			full = full.Add(leaveDayHours)
			leaveDays++
		}
	}

	// An all-holiday week has zero working days; the ratio guard keeps
	// it at zero instead of dividing by zero.
	ratio := decimal.Zero
	if workingDays > 0 {
		ratio = decimal.NewFromInt(int64(workingDays - leaveDays)).
			Div(decimal.NewFromInt(int64(workingDays)))
	}

	// Role allocations. Entries are ratio-scaled, but the assigned
	// total subtracted from capacity below stays unscaled - observed
	// payroll behavior, preserved as-is and pinned in tests.
	totalAssigned := decimal.Zero
	for _, ga := range e.ix.assignmentsByRole[emp.RoleID] {
		totalAssigned = totalAssigned.Add(ga.HoursPerWeek)
		adjusted := ga.HoursPerWeek.Mul(ratio)
		if adjusted.Sign() <= 0 {
			continue
		}
		tt := e.ix.timeType(ga.TimeTypeID)
		r.TimeEntries = append(r.TimeEntries, TimeEntry{
			ID:         nextID(),
			Hours:      adjusted,
			TimeTypeID: ga.TimeTypeID,
			IsCapDev:   tt.IsCapDev,
			Date:       weekStart,
		})
		full = full.Add(adjusted)
	}

	remaining := expected.Sub(totalAssigned).Mul(ratio)
	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}

	if remaining.Sign() > 0 {
		distributed, reason := e.distributeProjects(active, weekStart, weekEnd, remaining, nextID)
		r.UnderutilizationReason = reason
		for _, entry := range distributed {
			full = full.Add(entry.Hours)
			r.TimeEntries = append(r.TimeEntries, entry)
		}
	}

	r.FullHours = full
	r.ExpectedHours = expected
	r.IsUnderutilized = full.LessThan(expected)
	if missing := expected.Sub(full); missing.Sign() > 0 {
		r.MissingHours = missing
	} else {
		r.MissingHours = decimal.Zero
	}
	if r.IsUnderutilized && r.UnderutilizationReason == "" {
		r.UnderutilizationReason = ReasonInsufficientHours
	}
	return r
}

// activeAssignments filters the employee's history to spans covering
// the week, ordered chronologically by start date so transition-week
// labels read oldest team first.
func (e *Engine) activeAssignments(emp Employee, weekStart, weekEnd time.Time) []TeamAssignment {
	var active []TeamAssignment
	for _, a := range emp.Assignments {
		if a.ActiveFor(weekStart, weekEnd) {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].StartDate.Before(active[j].StartDate)
	})
	return active
}

// teamLabel joins the active teams' names with ", ". Unknown team ids
// resolve to empty names and are skipped.
func (e *Engine) teamLabel(active []TeamAssignment) string {
	var names []string
	for _, a := range active {
		if name := e.ix.teamName(a.TeamID); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// distributeProjects splits remaining hours evenly across the week's
// active projects. Returns the generated entries and, on an early exit,
// the underutilization reason.
func (e *Engine) distributeProjects(active []TeamAssignment, weekStart, weekEnd time.Time, remaining decimal.Decimal, nextID func() string) ([]TimeEntry, string) {
	if len(active) == 0 {
		return nil, ReasonNoTeamAssignment
	}

	// Merge the pools of every active team, first team owning a
	// project wins its attribution.
	var pool []Project
	owner := make(map[ProjectID]TeamID)
	seen := make(map[ProjectID]bool)
	for _, a := range active {
		for _, p := range e.ix.projectsForTeam(a.TeamID) {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			owner[p.ID] = a.TeamID
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		return nil, ReasonNoActiveProjects
	}

	// First activity date seen per Jira id inside the week, in activity
	// list order. Never overwritten once set; callers wanting
	// most-recent-first semantics pre-sort descending.
	firstSeen := make(map[string]time.Time)
	for _, act := range e.ix.activities {
		if act.ActivityDate.Before(weekStart) || act.ActivityDate.After(weekEnd) {
			continue
		}
		if _, ok := firstSeen[act.JiraIssueID]; !ok {
			firstSeen[act.JiraIssueID] = act.ActivityDate
		}
	}

	var activeProjects []Project
	for _, p := range pool {
		if _, ok := firstSeen[p.JiraID]; ok {
			activeProjects = append(activeProjects, p)
		}
	}
	if len(activeProjects) == 0 {
		return nil, ReasonNoProjectActivity
	}

	// Even split with an exact-sum guarantee: every project but the
	// last gets the quarter-hour rounded share, the last absorbs what
	// is left verbatim.
	base := remaining.Div(decimal.NewFromInt(int64(len(activeProjects))))
	toDistribute := remaining
	entries := make([]TimeEntry, 0, len(activeProjects))
	for i, p := range activeProjects {
		last := i == len(activeProjects)-1

		var hours decimal.Decimal
		if last {
			hours = toDistribute
		} else {
			hours = roundQuarter(base)
			toDistribute = toDistribute.Sub(hours)
		}

		typeName := timeTypeMaintenance
		if p.IsCapDev {
			typeName = timeTypeDevelopment
		}
		tt := e.ix.timeTypeByName(typeName)

		activityDate := weekStart
		if d, ok := firstSeen[p.JiraID]; ok {
			activityDate = d
		}

		entry := TimeEntry{
			ID:           nextID(),
			Hours:        hours,
			TimeTypeID:   tt.ID,
			IsCapDev:     p.IsCapDev,
			Date:         weekStart,
			ProjectID:    p.ID,
			ProjectName:  p.Name,
			JiraID:       p.JiraID,
			JiraURL:      e.browseURL(p.JiraID),
			TeamName:     e.ix.teamName(owner[p.ID]),
			ActivityDate: calendar.DateKey(activityDate),
		}
		if !last {
			entry.DateRange = &DateRange{Start: weekStart, End: weekEnd}
		}
		entries = append(entries, entry)
	}
	return entries, ""
}

func (e *Engine) browseURL(jiraID string) string {
	if e.jiraBaseURL == "" || jiraID == "" {
		return ""
	}
	return e.jiraBaseURL + "/browse/" + jiraID
}

// roundQuarter rounds to the nearest quarter hour, halves away from
// zero.
func roundQuarter(h decimal.Decimal) decimal.Decimal {
	return h.Mul(four).Round(0).Div(four)
}
