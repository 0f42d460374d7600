package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loom/timereport/calendar"
	"github.com/loom/timereport/report"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return calendar.Day(year, month, d)
}

func datePtr(t time.Time) *time.Time { return &t }

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// week under test: Monday 2024-01-15 .. Sunday 2024-01-21, no holidays
// unless a test seeds them.
var monday = day(2024, time.January, 15)

func fullTimeEmployee() report.Employee {
	return report.Employee{
		ID:           "emp-1",
		Name:         "Ana Marshall",
		PayrollID:    "PR-100",
		HoursPerWeek: dec(40),
		RoleID:       "role-eng",
		Assignments: []report.TeamAssignment{
			{EmployeeID: "emp-1", TeamID: "team-b", StartDate: day(2023, time.June, 1)},
		},
	}
}

// baseSnapshot has one team with one board and no projects, the default
// time types, and one role. Tests extend it as needed.
func baseSnapshot(emp report.Employee) *report.Snapshot {
	return &report.Snapshot{
		Employees: []report.Employee{emp},
		TimeTypes: []report.TimeType{
			{ID: "tt-leave", Name: "Leave"},
			{ID: "tt-dev", Name: "Development", IsCapDev: true},
			{ID: "tt-maint", Name: "Maintenance"},
			{ID: "tt-admin", Name: "Administration"},
		},
		Teams: []report.Team{
			{ID: "team-b", Name: "Team B"},
			{ID: "team-c", Name: "Team C"},
		},
		Roles: []report.Role{
			{ID: "role-eng", Name: "Engineer"},
		},
		Boards: []report.JiraBoard{
			{ID: "board-b", TeamID: "team-b", Name: "Board B"},
			{ID: "board-c", TeamID: "team-c", Name: "Board C"},
		},
	}
}

func newEngine(snap *report.Snapshot) *report.Engine {
	return report.NewEngine(snap, "NZ", "https://jira.example.com")
}

func addProject(snap *report.Snapshot, id, board, jiraID string, capDev bool, activity ...time.Time) {
	snap.Projects = append(snap.Projects, report.Project{
		ID: report.ProjectID(id), BoardID: report.BoardID(board),
		Name: id, JiraID: jiraID, IsCapDev: capDev,
	})
	for _, d := range activity {
		snap.Activities = append(snap.Activities, report.ProjectActivity{
			JiraIssueID: jiraID, ActivityDate: d,
		})
	}
}

func projectEntries(r report.TimeReport) []report.TimeEntry {
	var out []report.TimeEntry
	for _, e := range r.TimeEntries {
		if e.ProjectID != "" {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// GUARDS AND EARLY EXITS
// =============================================================================

func TestZeroHoursPerWeek_ReportsEmptyWeek(t *testing.T) {
	emp := fullTimeEmployee()
	emp.HoursPerWeek = decimal.Zero
	r := newEngine(baseSnapshot(emp)).WeekReport(emp, monday)

	if len(r.TimeEntries) != 0 {
		t.Fatalf("expected no entries, got %d", len(r.TimeEntries))
	}
	if !r.FullHours.IsZero() || !r.ExpectedHours.IsZero() || !r.MissingHours.IsZero() {
		t.Errorf("expected all-zero hours, got full=%s expected=%s missing=%s",
			r.FullHours, r.ExpectedHours, r.MissingHours)
	}
	if !r.IsUnderutilized {
		t.Error("unconfigured employee should be flagged underutilized")
	}
	if r.UnderutilizationReason != report.ReasonHoursNotSet {
		t.Errorf("reason = %q, want %q", r.UnderutilizationReason, report.ReasonHoursNotSet)
	}
}

func TestNoTeamAssignment_StopsDistribution(t *testing.T) {
	emp := fullTimeEmployee()
	emp.Assignments = nil
	r := newEngine(baseSnapshot(emp)).WeekReport(emp, monday)

	if r.Team != report.TeamUnassigned {
		t.Errorf("team = %q, want %q", r.Team, report.TeamUnassigned)
	}
	if r.UnderutilizationReason != report.ReasonNoTeamAssignment {
		t.Errorf("reason = %q, want %q", r.UnderutilizationReason, report.ReasonNoTeamAssignment)
	}
	if !r.IsUnderutilized || !r.MissingHours.Equal(dec(40)) {
		t.Errorf("expected 40 missing hours, got %s (underutilized=%v)", r.MissingHours, r.IsUnderutilized)
	}
}

func TestEmptyProjectPool_StopsDistribution(t *testing.T) {
	emp := fullTimeEmployee()
	r := newEngine(baseSnapshot(emp)).WeekReport(emp, monday)

	if r.UnderutilizationReason != report.ReasonNoActiveProjects {
		t.Errorf("reason = %q, want %q", r.UnderutilizationReason, report.ReasonNoActiveProjects)
	}
}

func TestNoActivityThisWeek_StopsDistribution(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	addProject(snap, "proj-1", "board-b", "PRJ-1", true, day(2024, time.January, 8)) // prior week

	r := newEngine(snap).WeekReport(emp, monday)
	if r.UnderutilizationReason != report.ReasonNoProjectActivity {
		t.Errorf("reason = %q, want %q", r.UnderutilizationReason, report.ReasonNoProjectActivity)
	}
	if len(projectEntries(r)) != 0 {
		t.Error("inactive projects must not receive hours")
	}
}

func TestInsufficientHours_FallbackReason(t *testing.T) {
	// 60h/week, all five days on leave: 40h of leave entries against a
	// 60h expectation, ratio 0 so nothing else allocates.
	emp := fullTimeEmployee()
	emp.HoursPerWeek = dec(60)
	snap := baseSnapshot(emp)
	for d := 15; d <= 19; d++ {
		snap.Leaves = append(snap.Leaves, report.Leave{
			EmployeeID: emp.ID, Date: day(2024, time.January, d),
			Type: "Vacation", Status: report.LeaveStatusTaken,
		})
	}

	r := newEngine(snap).WeekReport(emp, monday)
	if !r.FullHours.Equal(dec(40)) || !r.ExpectedHours.Equal(dec(60)) {
		t.Fatalf("full=%s expected=%s, want 40/60", r.FullHours, r.ExpectedHours)
	}
	if r.UnderutilizationReason != report.ReasonInsufficientHours {
		t.Errorf("reason = %q, want %q", r.UnderutilizationReason, report.ReasonInsufficientHours)
	}
}

// =============================================================================
// DAY ENTRIES: HOLIDAYS AND LEAVE
// =============================================================================

func TestPublicHolidayTakesPrecedenceOverLeave(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	snap.Holidays = []calendar.Holiday{
		{Date: monday, Name: "Provincial Day", Type: "public"},
	}
	snap.Leaves = []report.Leave{
		{EmployeeID: emp.ID, Date: monday, Type: "Vacation", Status: report.LeaveStatusApproved},
	}

	r := newEngine(snap).WeekReport(emp, monday)

	var holiday, leave int
	for _, e := range r.TimeEntries {
		if !e.Date.Equal(monday) {
			continue
		}
		if e.IsPublicHoliday {
			holiday++
			if !e.Hours.Equal(dec(8)) {
				t.Errorf("holiday entry hours = %s, want 8", e.Hours)
			}
			if e.PublicHolidayName != "Provincial Day" {
				t.Errorf("holiday name = %q", e.PublicHolidayName)
			}
		}
		if e.IsLeave {
			leave++
		}
	}
	if holiday != 1 || leave != 0 {
		t.Errorf("got %d holiday and %d leave entries for the date, want 1 and 0", holiday, leave)
	}
}

func TestLeaveEntryPerDay(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	snap.Leaves = []report.Leave{
		{EmployeeID: emp.ID, Date: day(2024, time.January, 16), Type: "Sick", Status: report.LeaveStatusTaken},
		// Pending leave must not count.
		{EmployeeID: emp.ID, Date: day(2024, time.January, 17), Type: "Sick", Status: "PENDING"},
		// Weekend leave must not count.
		{EmployeeID: emp.ID, Date: day(2024, time.January, 20), Type: "Sick", Status: report.LeaveStatusTaken},
	}

	r := newEngine(snap).WeekReport(emp, monday)

	var leaves []report.TimeEntry
	for _, e := range r.TimeEntries {
		if e.IsLeave {
			leaves = append(leaves, e)
		}
	}
	if len(leaves) != 1 {
		t.Fatalf("expected exactly 1 leave entry, got %d", len(leaves))
	}
	if leaves[0].LeaveType != "Sick" || !leaves[0].Hours.Equal(dec(8)) {
		t.Errorf("leave entry = %+v", leaves[0])
	}
	if leaves[0].TimeTypeID != "tt-leave" {
		t.Errorf("leave entry time type = %q, want tt-leave", leaves[0].TimeTypeID)
	}
}

func TestAllHolidayWeek_NoDivisionByZero(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	for d := 15; d <= 19; d++ {
		snap.Holidays = append(snap.Holidays, calendar.Holiday{
			Date: day(2024, time.January, d), Name: "Shutdown", Type: "public",
		})
	}
	snap.GeneralAssignments = []report.GeneralTimeAssignment{
		{RoleID: "role-eng", TimeTypeID: "tt-admin", HoursPerWeek: dec(8)},
	}

	r := newEngine(snap).WeekReport(emp, monday)

	if !r.ExpectedHours.IsZero() {
		t.Errorf("expected hours = %s, want 0", r.ExpectedHours)
	}
	if !r.FullHours.Equal(dec(40)) {
		t.Errorf("full hours = %s, want 40 (5 holiday entries)", r.FullHours)
	}
	// Ratio is guarded to zero, so the 8h role allocation is skipped.
	for _, e := range r.TimeEntries {
		if e.TimeTypeID == "tt-admin" {
			t.Error("role allocation must not appear in a zero-working-day week")
		}
	}
	if r.IsUnderutilized {
		t.Error("40h against a 0h expectation is not underutilization")
	}
}

// =============================================================================
// ROLE ALLOCATION SCALING
// =============================================================================

func TestRoleAllocation_ScaledByLeaveRatio(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	snap.GeneralAssignments = []report.GeneralTimeAssignment{
		{RoleID: "role-eng", TimeTypeID: "tt-admin", HoursPerWeek: dec(8)},
	}
	snap.Leaves = []report.Leave{
		{EmployeeID: emp.ID, Date: day(2024, time.January, 16), Type: "Vacation", Status: report.LeaveStatusTaken},
	}

	r := newEngine(snap).WeekReport(emp, monday)

	var allocation *report.TimeEntry
	for i := range r.TimeEntries {
		if r.TimeEntries[i].TimeTypeID == "tt-admin" {
			allocation = &r.TimeEntries[i]
		}
	}
	if allocation == nil {
		t.Fatal("expected a role allocation entry")
	}
	// 1 leave day of 5 working days: ratio 0.8, 8h becomes 6.4h.
	if !allocation.Hours.Equal(dec(6.4)) {
		t.Errorf("allocation hours = %s, want 6.4", allocation.Hours)
	}
	if !allocation.Date.Equal(monday) {
		t.Errorf("allocation entries are week-granular, got date %s", allocation.Date)
	}
}

func TestRemainingHours_SubtractsUnscaledAssignments(t *testing.T) {
	// The emitted allocation entry is leave-ratio scaled, but the
	// capacity subtraction uses the unscaled assigned total. A 10h
	// allocation with 1 leave day leaves (40-10)*0.8 = 24h for
	// projects, not (40-8)*0.8 = 25.6h.
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	snap.GeneralAssignments = []report.GeneralTimeAssignment{
		{RoleID: "role-eng", TimeTypeID: "tt-admin", HoursPerWeek: dec(10)},
	}
	snap.Leaves = []report.Leave{
		{EmployeeID: emp.ID, Date: day(2024, time.January, 16), Type: "Vacation", Status: report.LeaveStatusTaken},
	}
	addProject(snap, "proj-1", "board-b", "PRJ-1", true, day(2024, time.January, 17))

	r := newEngine(snap).WeekReport(emp, monday)

	entries := projectEntries(r)
	if len(entries) != 1 {
		t.Fatalf("expected 1 project entry, got %d", len(entries))
	}
	if !entries[0].Hours.Equal(dec(24)) {
		t.Errorf("project hours = %s, want 24 (unscaled subtraction)", entries[0].Hours)
	}
}

// =============================================================================
// PROJECT DISTRIBUTION
// =============================================================================

func TestProjectSplit_QuarterHourRoundingIsDeterministic(t *testing.T) {
	// 10h across 3 projects: 3.25, 3.25, then the verbatim remainder 3.5.
	emp := fullTimeEmployee()
	emp.HoursPerWeek = dec(10)
	snap := baseSnapshot(emp)
	addProject(snap, "proj-1", "board-b", "PRJ-1", true, day(2024, time.January, 15))
	addProject(snap, "proj-2", "board-b", "PRJ-2", true, day(2024, time.January, 16))
	addProject(snap, "proj-3", "board-b", "PRJ-3", false, day(2024, time.January, 17))

	engine := newEngine(snap)
	for run := 0; run < 3; run++ {
		r := engine.WeekReport(emp, monday)
		entries := projectEntries(r)
		if len(entries) != 3 {
			t.Fatalf("run %d: expected 3 project entries, got %d", run, len(entries))
		}
		want := []decimal.Decimal{dec(3.25), dec(3.25), dec(3.5)}
		for i, e := range entries {
			if !e.Hours.Equal(want[i]) {
				t.Errorf("run %d: entry %d hours = %s, want %s", run, i, e.Hours, want[i])
			}
		}
	}
}

func TestProjectSplit_SumsExactlyToRemaining(t *testing.T) {
	// 40h over 3 projects does not divide evenly; the split must still
	// sum back exactly.
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	addProject(snap, "proj-1", "board-b", "PRJ-1", true, day(2024, time.January, 15))
	addProject(snap, "proj-2", "board-b", "PRJ-2", false, day(2024, time.January, 16))
	addProject(snap, "proj-3", "board-b", "PRJ-3", true, day(2024, time.January, 17))

	r := newEngine(snap).WeekReport(emp, monday)

	sum := decimal.Zero
	for _, e := range projectEntries(r) {
		sum = sum.Add(e.Hours)
	}
	if !sum.Equal(dec(40)) {
		t.Errorf("project hours sum = %s, want exactly 40", sum)
	}
	if !r.FullHours.Equal(r.ExpectedHours) {
		t.Errorf("full = %s, expected = %s; distribution should close the gap", r.FullHours, r.ExpectedHours)
	}
	if r.IsUnderutilized {
		t.Error("fully distributed week must not be underutilized")
	}
}

func TestProjectEntries_MetadataAndDateRange(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	addProject(snap, "proj-1", "board-b", "PRJ-1", true, day(2024, time.January, 16))
	addProject(snap, "proj-2", "board-b", "PRJ-2", false, day(2024, time.January, 17))

	r := newEngine(snap).WeekReport(emp, monday)
	entries := projectEntries(r)
	if len(entries) != 2 {
		t.Fatalf("expected 2 project entries, got %d", len(entries))
	}

	first, last := entries[0], entries[1]
	if first.TimeTypeID != "tt-dev" || !first.IsCapDev {
		t.Errorf("CapDev project should carry the Development type, got %q", first.TimeTypeID)
	}
	if last.TimeTypeID != "tt-maint" || last.IsCapDev {
		t.Errorf("non-CapDev project should carry the Maintenance type, got %q", last.TimeTypeID)
	}
	if first.JiraURL != "https://jira.example.com/browse/PRJ-1" {
		t.Errorf("jira url = %q", first.JiraURL)
	}
	if first.TeamName != "Team B" {
		t.Errorf("team name = %q, want Team B", first.TeamName)
	}
	if first.ActivityDate != "2024-01-16" {
		t.Errorf("activity date = %q, want 2024-01-16", first.ActivityDate)
	}
	// Only non-last entries span the week.
	if first.DateRange == nil {
		t.Error("non-last project entry should carry a date range")
	} else if !first.DateRange.Start.Equal(monday) || !first.DateRange.End.Equal(day(2024, time.January, 21)) {
		t.Errorf("date range = %v", *first.DateRange)
	}
	if last.DateRange != nil {
		t.Error("last project entry must not carry a date range")
	}
}

func TestProjectActivityDate_FirstSeenWins(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	addProject(snap, "proj-1", "board-b", "PRJ-1", true)
	// Later date first in list order: it wins and is never overwritten.
	snap.Activities = []report.ProjectActivity{
		{JiraIssueID: "PRJ-1", ActivityDate: day(2024, time.January, 18)},
		{JiraIssueID: "PRJ-1", ActivityDate: day(2024, time.January, 16)},
	}

	r := newEngine(snap).WeekReport(emp, monday)
	entries := projectEntries(r)
	if len(entries) != 1 {
		t.Fatalf("expected 1 project entry, got %d", len(entries))
	}
	if entries[0].ActivityDate != "2024-01-18" {
		t.Errorf("activity date = %q, want first-seen 2024-01-18", entries[0].ActivityDate)
	}
}

func TestTransitionWeek_MergesPoolsOfBothTeams(t *testing.T) {
	emp := fullTimeEmployee()
	emp.Assignments = []report.TeamAssignment{
		// Fetch order is start date descending.
		{EmployeeID: emp.ID, TeamID: "team-c", StartDate: day(2024, time.January, 16)},
		{EmployeeID: emp.ID, TeamID: "team-b", StartDate: day(2023, time.June, 1), EndDate: datePtr(day(2024, time.January, 15))},
	}
	snap := baseSnapshot(emp)
	addProject(snap, "proj-b", "board-b", "PRJ-B", true, day(2024, time.January, 15))
	addProject(snap, "proj-c", "board-c", "PRJ-C", false, day(2024, time.January, 17))

	r := newEngine(snap).WeekReport(emp, monday)

	if r.Team != "Team B, Team C" {
		t.Errorf("transition week label = %q, want \"Team B, Team C\"", r.Team)
	}
	entries := projectEntries(r)
	if len(entries) != 2 {
		t.Fatalf("expected entries from both teams' pools, got %d", len(entries))
	}
	if entries[0].TeamName != "Team B" || entries[1].TeamName != "Team C" {
		t.Errorf("team attribution = %q, %q", entries[0].TeamName, entries[1].TeamName)
	}
}

// =============================================================================
// DEGRADED REFERENCE DATA
// =============================================================================

func TestMissingDefaultTimeTypes_DegradeToEmptyIDs(t *testing.T) {
	emp := fullTimeEmployee()
	snap := baseSnapshot(emp)
	snap.TimeTypes = nil
	snap.Holidays = []calendar.Holiday{{Date: monday, Name: "Provincial Day", Type: "public"}}
	addProject(snap, "proj-1", "board-b", "PRJ-1", true, day(2024, time.January, 16))

	r := newEngine(snap).WeekReport(emp, monday)

	if len(r.TimeEntries) == 0 {
		t.Fatal("reports must still generate without reference time types")
	}
	for _, e := range r.TimeEntries {
		if e.TimeTypeID != "" {
			t.Errorf("entry %s resolved type %q from an empty reference set", e.ID, e.TimeTypeID)
		}
	}
	// Project CapDev classification survives the missing lookup.
	entries := projectEntries(r)
	if len(entries) != 1 || !entries[0].IsCapDev {
		t.Error("project entry should keep its own CapDev flag")
	}
}

func TestReportIdentity(t *testing.T) {
	emp := fullTimeEmployee()
	r := newEngine(baseSnapshot(emp)).WeekReport(emp, monday)

	if r.ID != "emp-1-2024-01-15" {
		t.Errorf("report id = %q", r.ID)
	}
	if r.Week != "2024-01-15" || !r.WeekEnd.Equal(day(2024, time.January, 21)) {
		t.Errorf("week identity = %q (%s..%s)", r.Week, r.WeekStart, r.WeekEnd)
	}
	if r.Role != "Engineer" || r.PayrollID != "PR-100" {
		t.Errorf("reference fields = role %q payroll %q", r.Role, r.PayrollID)
	}
}
