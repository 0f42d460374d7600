package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loom/timereport/report"
)

// staticFetcher serves a canned snapshot; the assembler must call it
// exactly once per query.
type staticFetcher struct {
	snap    *report.Snapshot
	err     error
	fetches int
}

func (f *staticFetcher) Fetch(ctx context.Context, w report.Window) (*report.Snapshot, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func januarySnapshot() *report.Snapshot {
	emp := fullTimeEmployee()
	emp.Assignments = []report.TeamAssignment{
		{EmployeeID: emp.ID, TeamID: "team-c", StartDate: day(2024, time.January, 16)},
		{EmployeeID: emp.ID, TeamID: "team-b", StartDate: day(2023, time.June, 1), EndDate: datePtr(day(2024, time.January, 15))},
	}
	snap := baseSnapshot(emp)
	snap.Employees = append(snap.Employees, report.Employee{
		ID: "emp-2", Name: "Ben Okafor", PayrollID: "PR-200",
		HoursPerWeek: dec(40), RoleID: "role-eng",
	})
	return snap
}

func queryJanuary() report.Query {
	return report.Query{
		From: day(2024, time.January, 1),
		To:   day(2024, time.January, 31),
	}
}

func TestTimeReportData_TransitionWeekLabels(t *testing.T) {
	fetcher := &staticFetcher{snap: januarySnapshot()}
	assembler := report.NewAssembler(fetcher, "NZ", "")

	q := queryJanuary()
	q.Search = "ana"
	data, err := assembler.TimeReportData(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if fetcher.fetches != 1 {
		t.Errorf("expected a single batched fetch, got %d", fetcher.fetches)
	}
	if len(data.TimeReports) != 5 {
		t.Fatalf("full-month range should yield 5 weekly reports, got %d", len(data.TimeReports))
	}

	wantTeams := map[string]string{
		"2024-01-01": "Team B",
		"2024-01-08": "Team B",
		"2024-01-15": "Team B, Team C",
		"2024-01-22": "Team C",
		"2024-01-29": "Team C",
	}
	for _, r := range data.TimeReports {
		if want := wantTeams[r.Week]; r.Team != want {
			t.Errorf("week %s team = %q, want %q", r.Week, r.Team, want)
		}
	}
}

func TestTimeReportData_InvertedRangeYieldsNoReports(t *testing.T) {
	assembler := report.NewAssembler(&staticFetcher{snap: januarySnapshot()}, "NZ", "")

	data, err := assembler.TimeReportData(context.Background(), report.Query{
		From: day(2024, time.January, 15),
		To:   day(2024, time.January, 1),
	})
	if err != nil {
		t.Fatalf("inverted range must not be an error, got %v", err)
	}
	if len(data.TimeReports) != 0 {
		t.Errorf("expected no reports, got %d", len(data.TimeReports))
	}
	// Reference data still rides along.
	if len(data.TimeTypes) == 0 || len(data.Teams) == 0 || len(data.Roles) == 0 {
		t.Error("reference lists should be populated regardless of range")
	}
}

func TestTimeReportData_SearchFiltersBeforeEngine(t *testing.T) {
	assembler := report.NewAssembler(&staticFetcher{snap: januarySnapshot()}, "NZ", "")

	cases := []struct {
		search string
		want   int // matched employees
	}{
		{"ana", 1},
		{"PR-200", 1},
		{"pr-", 2},
		{"nobody", 0},
	}
	for _, tc := range cases {
		q := queryJanuary()
		q.Search = tc.search
		data, err := assembler.TimeReportData(context.Background(), q)
		if err != nil {
			t.Fatal(err)
		}
		if got := len(data.TimeReports); got != tc.want*5 {
			t.Errorf("search %q: %d reports, want %d", tc.search, got, tc.want*5)
		}
	}
}

func TestTimeReportData_TeamFilterUsesAssignmentHistory(t *testing.T) {
	assembler := report.NewAssembler(&staticFetcher{snap: januarySnapshot()}, "NZ", "")

	// emp-1 left Team B mid-month; historical overlap still matches.
	q := queryJanuary()
	q.Team = "Team B"
	data, err := assembler.TimeReportData(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.TimeReports) != 5 {
		t.Fatalf("expected emp-1's 5 reports, got %d", len(data.TimeReports))
	}
	for _, r := range data.TimeReports {
		if r.EmployeeID != "emp-1" {
			t.Errorf("unexpected employee %s in Team B filter", r.EmployeeID)
		}
	}

	// emp-2 has no assignments at all.
	q.Team = "Team C"
	data, err = assembler.TimeReportData(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range data.TimeReports {
		if r.EmployeeID == "emp-2" {
			t.Error("unassigned employee matched a team filter")
		}
	}
}

func TestTimeReportData_RoleFilter(t *testing.T) {
	assembler := report.NewAssembler(&staticFetcher{snap: januarySnapshot()}, "NZ", "")

	q := queryJanuary()
	q.Role = "Engineer"
	data, err := assembler.TimeReportData(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.TimeReports) != 10 {
		t.Errorf("both employees are Engineers, got %d reports", len(data.TimeReports))
	}

	q.Role = "Designer"
	data, err = assembler.TimeReportData(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.TimeReports) != 0 {
		t.Errorf("no Designers exist, got %d reports", len(data.TimeReports))
	}
}

func TestTimeReportData_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	assembler := report.NewAssembler(&staticFetcher{err: boom}, "NZ", "")

	_, err := assembler.TimeReportData(context.Background(), queryJanuary())
	if !errors.Is(err, boom) {
		t.Fatalf("fetch failure must propagate, got %v", err)
	}
}

func TestTimeReportData_OrderIsDeterministic(t *testing.T) {
	assembler := report.NewAssembler(&staticFetcher{snap: januarySnapshot()}, "NZ", "")

	first, err := assembler.TimeReportData(context.Background(), queryJanuary())
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 5; run++ {
		again, err := assembler.TimeReportData(context.Background(), queryJanuary())
		if err != nil {
			t.Fatal(err)
		}
		if len(again.TimeReports) != len(first.TimeReports) {
			t.Fatalf("report count changed between runs")
		}
		for i := range first.TimeReports {
			if again.TimeReports[i].ID != first.TimeReports[i].ID {
				t.Fatalf("run %d: report %d is %s, was %s despite identical input",
					run, i, again.TimeReports[i].ID, first.TimeReports[i].ID)
			}
		}
	}
}
