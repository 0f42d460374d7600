/*
assembler.go - Query filtering and response assembly

PURPOSE:
  Drives the engine across every matching employee and every week in
  the requested range, then flattens the per-employee per-week reports
  into one response payload alongside the reference lists the UI needs
  (time types, teams, roles, general assignments).

FILTERING:
  search/team/role filters narrow the employee set BEFORE the engine
  runs, so filtered-out employees cost nothing:
  - search: case-insensitive substring on name or payroll id
  - team:   any assignment to that team overlapping the range,
            current or historical
  - role:   the employee's role name

CONCURRENCY:
  Employees are computed via scatter/gather into an index-addressed
  results slice, so output order matches snapshot order and results are
  identical to a sequential run. Parallelism is an optimization only;
  no computation depends on another employee's or week's outcome.

SEE ALSO:
  - engine.go: The per-week pipeline
  - api/handlers.go: The HTTP caller
*/
package report

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/loom/timereport/calendar"
)

// Data is the full query payload: computed reports plus the reference
// lists returned alongside them.
type Data struct {
	TimeReports        []TimeReport
	TimeTypes          []TimeType
	Teams              []Team
	Roles              []Role
	GeneralAssignments []GeneralTimeAssignment
}

// Query selects the range and optional employee filters.
type Query struct {
	From   time.Time
	To     time.Time
	Search string
	Team   string
	Role   string
}

// Assembler fetches one snapshot per query and runs the engine over it.
type Assembler struct {
	fetcher     Fetcher
	region      string
	jiraBaseURL string
}

// NewAssembler wires the assembler to its data source. region names the
// holiday calendar's locality; jiraBaseURL may be empty.
func NewAssembler(fetcher Fetcher, region, jiraBaseURL string) *Assembler {
	return &Assembler{fetcher: fetcher, region: region, jiraBaseURL: jiraBaseURL}
}

// TimeReportData computes reports for every employee matching the query
// over every week intersecting [From, To]. An inverted range yields an
// empty report list, not an error. Fetch failures propagate as-is.
func (a *Assembler) TimeReportData(ctx context.Context, q Query) (*Data, error) {
	snap, err := a.fetcher.Fetch(ctx, Window{From: q.From, To: q.To})
	if err != nil {
		return nil, err
	}

	employees := filterEmployees(snap, q)
	weeks := slices.Collect(calendar.WeekStarts(q.From, q.To))
	engine := NewEngine(snap, a.region, a.jiraBaseURL)

	// Scatter per employee, gather by index.
	perEmployee := make([][]TimeReport, len(employees))
	var wg sync.WaitGroup
	for i, emp := range employees {
		wg.Add(1)
		go func(i int, emp Employee) {
			defer wg.Done()
			reports := make([]TimeReport, 0, len(weeks))
			for _, ws := range weeks {
				reports = append(reports, engine.WeekReport(emp, ws))
			}
			perEmployee[i] = reports
		}(i, emp)
	}
	wg.Wait()

	data := &Data{
		TimeReports:        make([]TimeReport, 0, len(employees)*len(weeks)),
		TimeTypes:          snap.TimeTypes,
		Teams:              snap.Teams,
		Roles:              snap.Roles,
		GeneralAssignments: snap.GeneralAssignments,
	}
	for _, reports := range perEmployee {
		data.TimeReports = append(data.TimeReports, reports...)
	}
	return data, nil
}

func filterEmployees(snap *Snapshot, q Query) []Employee {
	teamsByName := make(map[string]TeamID, len(snap.Teams))
	for _, t := range snap.Teams {
		teamsByName[strings.ToLower(t.Name)] = t.ID
	}
	rolesByID := make(map[RoleID]Role, len(snap.Roles))
	for _, r := range snap.Roles {
		rolesByID[r.ID] = r
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	var out []Employee
	for _, emp := range snap.Employees {
		if search != "" &&
			!strings.Contains(strings.ToLower(emp.Name), search) &&
			!strings.Contains(strings.ToLower(emp.PayrollID), search) {
			continue
		}
		if q.Role != "" && !strings.EqualFold(rolesByID[emp.RoleID].Name, q.Role) {
			continue
		}
		if q.Team != "" {
			teamID, known := teamsByName[strings.ToLower(q.Team)]
			if !known || !assignedInRange(emp, teamID, q.From, q.To) {
				continue
			}
		}
		out = append(out, emp)
	}
	return out
}

// assignedInRange reports whether the employee held an assignment to
// the team overlapping [from, to], current or historical.
func assignedInRange(emp Employee, team TeamID, from, to time.Time) bool {
	for _, a := range emp.Assignments {
		if a.TeamID != team {
			continue
		}
		if a.StartDate.After(to) {
			continue
		}
		if a.EndDate == nil || !a.EndDate.Before(from) {
			return true
		}
	}
	return false
}
