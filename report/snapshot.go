/*
snapshot.go - Fetcher boundary and snapshot indexes

PURPOSE:
  Defines the contract between the engine and whatever supplies its
  data (the SQLite repository in store/sqlite, literal fixtures in
  tests). The engine never fetches per employee or per week: one Fetch
  call returns everything for the whole window, already batched one
  query per entity type.

CONTRACT (per window [From, To]):
  - Employees with role id and FULL assignment history, assignments
    ordered start date descending
  - Leave rows limited to TAKEN/APPROVED status and dates in window
  - All general time assignments, time types, teams, roles
  - Boards, their projects, and activity rows for those projects' Jira
    ids inside the window
  - The region's holiday rows

ERRORS:
  Fetch failures propagate to the caller unmodified in meaning; the
  engine never suppresses partial results. An inverted window is not an
  error - week enumeration simply yields nothing.

SEE ALSO:
  - store/sqlite/sqlite.go: The production Fetcher
  - engine.go: Consumes the derived indexes built here
*/
package report

import (
	"context"
	"time"

	"github.com/loom/timereport/calendar"
)

// Window is the inclusive date range a snapshot covers.
type Window struct {
	From time.Time
	To   time.Time
}

// Snapshot is the immutable input to one report computation.
type Snapshot struct {
	Employees          []Employee
	Leaves             []Leave
	GeneralAssignments []GeneralTimeAssignment
	TimeTypes          []TimeType
	Teams              []Team
	Roles              []Role
	Boards             []JiraBoard
	Projects           []Project
	Activities         []ProjectActivity
	Holidays           []calendar.Holiday
}

// Fetcher supplies snapshots. Implementations batch their reads up
// front; the engine issues exactly one Fetch per report generation.
type Fetcher interface {
	Fetch(ctx context.Context, w Window) (*Snapshot, error)
}

// =============================================================================
// DERIVED INDEXES
// =============================================================================

// dayEmployeeKey keys the leave map by (date, employee) without string
// concatenation.
type dayEmployeeKey struct {
	day      string
	employee EmployeeID
}

// index holds the lookup structures derived once per snapshot and
// shared read-only across every (employee, week) computation.
type index struct {
	leaves            map[dayEmployeeKey]Leave
	rolesByID         map[RoleID]Role
	teamsByID         map[TeamID]Team
	timeTypesByID     map[TimeTypeID]TimeType
	timeTypesByName   map[string]TimeType
	assignmentsByRole map[RoleID][]GeneralTimeAssignment
	teamProjects      map[TeamID][]Project
	activities        []ProjectActivity
}

func newIndex(snap *Snapshot) *index {
	ix := &index{
		leaves:            make(map[dayEmployeeKey]Leave),
		rolesByID:         make(map[RoleID]Role, len(snap.Roles)),
		teamsByID:         make(map[TeamID]Team, len(snap.Teams)),
		timeTypesByID:     make(map[TimeTypeID]TimeType, len(snap.TimeTypes)),
		timeTypesByName:   make(map[string]TimeType, len(snap.TimeTypes)),
		assignmentsByRole: make(map[RoleID][]GeneralTimeAssignment),
		teamProjects:      make(map[TeamID][]Project),
		activities:        snap.Activities,
	}

	for _, l := range snap.Leaves {
		if !l.Counts() {
			continue
		}
		key := dayEmployeeKey{day: calendar.DateKey(l.Date), employee: l.EmployeeID}
		if _, exists := ix.leaves[key]; !exists {
			ix.leaves[key] = l
		}
	}
	for _, r := range snap.Roles {
		ix.rolesByID[r.ID] = r
	}
	for _, tm := range snap.Teams {
		ix.teamsByID[tm.ID] = tm
	}
	for _, tt := range snap.TimeTypes {
		ix.timeTypesByID[tt.ID] = tt
		if _, exists := ix.timeTypesByName[tt.Name]; !exists {
			ix.timeTypesByName[tt.Name] = tt
		}
	}
	for _, ga := range snap.GeneralAssignments {
		ix.assignmentsByRole[ga.RoleID] = append(ix.assignmentsByRole[ga.RoleID], ga)
	}

	// A team's pool is the union of projects across its boards, in
	// board order then project order.
	boardTeam := make(map[BoardID]TeamID, len(snap.Boards))
	for _, b := range snap.Boards {
		boardTeam[b.ID] = b.TeamID
	}
	for _, b := range snap.Boards {
		for _, p := range snap.Projects {
			if p.BoardID == b.ID {
				ix.teamProjects[boardTeam[b.ID]] = append(ix.teamProjects[boardTeam[b.ID]], p)
			}
		}
	}

	return ix
}

// leaveFor returns the visible leave record for employee on day, if any.
func (ix *index) leaveFor(employee EmployeeID, day time.Time) (Leave, bool) {
	l, ok := ix.leaves[dayEmployeeKey{day: calendar.DateKey(day), employee: employee}]
	return l, ok
}

// roleName resolves a role id to its display name, empty when the
// reference row is missing.
func (ix *index) roleName(id RoleID) string {
	return ix.rolesByID[id].Name
}

// teamName resolves a team id to its display name, empty when missing.
func (ix *index) teamName(id TeamID) string {
	return ix.teamsByID[id].Name
}

// timeType resolves by id; the zero TimeType stands in for a missing
// reference row so reports still generate degraded rather than failing.
func (ix *index) timeType(id TimeTypeID) TimeType {
	return ix.timeTypesByID[id]
}

// timeTypeByName resolves the synthetic default types ("Leave",
// "Development", "Maintenance"). Missing names yield the zero TimeType.
func (ix *index) timeTypeByName(name string) TimeType {
	return ix.timeTypesByName[name]
}

// projectsForTeam returns the team's merged board pool.
func (ix *index) projectsForTeam(id TeamID) []Project {
	return ix.teamProjects[id]
}
