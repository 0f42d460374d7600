/*
seed.go - Demo dataset loader

PURPOSE:
  Loads a small deterministic company into the store so the report
  endpoint has something to chew on without the Jira/payroll sync
  collaborators: two teams with boards and projects, a default time
  type set, standing role allocations, a month of project activity and
  leave, and the region's public holidays (New Zealand, 2024).

  Row ids are minted with uuid; the dataset's shape (names, dates,
  hours) is fixed so reseeding reproduces identical reports.

PROGRESS:
  Seed reports coarse progress through a callback so the HTTP layer can
  stream it (see api/progress.go). A nil callback is fine.
*/
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loom/timereport/calendar"
)

// SeedProgress receives coarse progress while seeding.
type SeedProgress func(stage string, pct int)

// Seed wipes the store and loads the demo dataset.
func (s *Store) Seed(ctx context.Context, progress SeedProgress) error {
	if progress == nil {
		progress = func(string, int) {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	progress("Clearing existing data", 5)
	for _, table := range []string{
		"project_activities", "projects", "boards", "leaves",
		"general_time_assignments", "team_assignments", "holidays",
		"employees", "time_types", "teams", "roles",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	progress("Loading reference data", 20)

	roles := map[string]string{}
	for _, name := range []string{"Engineer", "Senior Engineer", "Designer"} {
		id := uuid.NewString()
		roles[name] = id
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO roles (id, name) VALUES (?, ?)`, id, name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}

	teams := map[string]string{}
	for _, name := range []string{"Platform", "Mobile"} {
		id := uuid.NewString()
		teams[name] = id
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teams (id, name) VALUES (?, ?)`, id, name); err != nil {
			return fmt.Errorf("seed team %s: %w", name, err)
		}
	}

	timeTypes := map[string]string{}
	for _, tt := range []struct {
		name   string
		capDev bool
	}{
		{"Leave", false},
		{"Development", true},
		{"Maintenance", false},
		{"Regular Work", false},
		{"Administration", false},
	} {
		id := uuid.NewString()
		timeTypes[tt.name] = id
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO time_types (id, name, is_cap_dev) VALUES (?, ?, ?)`,
			id, tt.name, tt.capDev); err != nil {
			return fmt.Errorf("seed time type %s: %w", tt.name, err)
		}
	}

	// Standing weekly allocations per role.
	for _, ga := range []struct {
		role, timeType string
		hours          float64
	}{
		{"Engineer", "Regular Work", 8},
		{"Engineer", "Administration", 2},
		{"Senior Engineer", "Regular Work", 8},
		{"Senior Engineer", "Administration", 4},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO general_time_assignments (id, role_id, time_type_id, hours_per_week)
			 VALUES (?, ?, ?, ?)`,
			uuid.NewString(), roles[ga.role], timeTypes[ga.timeType], ga.hours); err != nil {
			return fmt.Errorf("seed general assignment: %w", err)
		}
	}

	progress("Loading employees", 40)

	employees := map[string]string{}
	for _, e := range []struct {
		name, payroll, role string
		hours               float64
	}{
		{"Ana Marshall", "PR-100", "Senior Engineer", 40},
		{"Ben Okafor", "PR-200", "Engineer", 40},
		{"Carla Mendes", "PR-300", "Engineer", 32},
		{"Dev Patel", "PR-400", "Designer", 0}, // capacity not configured yet
	} {
		id := uuid.NewString()
		employees[e.name] = id
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO employees (id, name, payroll_id, hours_per_week, role_id)
			 VALUES (?, ?, ?, ?, ?)`,
			id, e.name, e.payroll, e.hours, roles[e.role]); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.name, err)
		}
	}

	for _, a := range []struct {
		employee, team, start string
		end                   *string
	}{
		{"Ana Marshall", "Platform", "2023-06-01", strPtr("2024-01-15")},
		{"Ana Marshall", "Mobile", "2024-01-16", nil},
		{"Ben Okafor", "Platform", "2023-09-01", nil},
		{"Carla Mendes", "Mobile", "2023-11-01", nil},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_assignments (id, employee_id, team_id, start_date, end_date)
			 VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), employees[a.employee], teams[a.team], a.start, a.end); err != nil {
			return fmt.Errorf("seed assignment: %w", err)
		}
	}

	progress("Loading boards and projects", 60)

	boards := map[string]string{}
	for _, b := range []struct{ team, name string }{
		{"Platform", "Platform Delivery"},
		{"Mobile", "Mobile Delivery"},
	} {
		id := uuid.NewString()
		boards[b.name] = id
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO boards (id, team_id, name) VALUES (?, ?, ?)`,
			id, teams[b.team], b.name); err != nil {
			return fmt.Errorf("seed board %s: %w", b.name, err)
		}
	}

	for _, p := range []struct {
		board, name, jira string
		capDev            bool
	}{
		{"Platform Delivery", "Billing Revamp", "PLAT-101", true},
		{"Platform Delivery", "Ops Toil Reduction", "PLAT-102", false},
		{"Mobile Delivery", "Offline Mode", "MOB-201", true},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, board_id, name, jira_id, is_cap_dev)
			 VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), boards[p.board], p.name, p.jira, p.capDev); err != nil {
			return fmt.Errorf("seed project %s: %w", p.name, err)
		}
	}

	// One activity row per interesting change-history date, spread
	// across January 2024.
	for _, a := range []struct{ jira, date string }{
		{"PLAT-101", "2024-01-03"},
		{"PLAT-101", "2024-01-10"},
		{"PLAT-101", "2024-01-17"},
		{"PLAT-102", "2024-01-11"},
		{"PLAT-102", "2024-01-24"},
		{"MOB-201", "2024-01-09"},
		{"MOB-201", "2024-01-18"},
		{"MOB-201", "2024-01-30"},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_activities (id, jira_issue_id, activity_date)
			 VALUES (?, ?, ?)`,
			uuid.NewString(), a.jira, a.date); err != nil {
			return fmt.Errorf("seed activity: %w", err)
		}
	}

	progress("Loading leave and holidays", 80)

	for _, l := range []struct{ employee, date, typ, status string }{
		{"Ben Okafor", "2024-01-10", "Vacation", "TAKEN"},
		{"Ben Okafor", "2024-01-11", "Vacation", "TAKEN"},
		{"Carla Mendes", "2024-01-22", "Sick", "APPROVED"},
		{"Ana Marshall", "2024-02-05", "Vacation", "REQUESTED"}, // not visible to reports
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO leaves (id, employee_id, date, type, status, duration)
			 VALUES (?, ?, ?, ?, ?, 8)`,
			uuid.NewString(), employees[l.employee], l.date, l.typ, l.status); err != nil {
			return fmt.Errorf("seed leave: %w", err)
		}
	}

	for _, h := range NewZealandHolidays2024() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO holidays (id, date, name, type) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), formatDate(h.Date), h.Name, h.Type); err != nil {
			return fmt.Errorf("seed holiday %s: %w", h.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	progress("Done", 100)
	return nil
}

// NewZealandHolidays2024 is the national public holiday set the demo
// region is seeded with.
func NewZealandHolidays2024() []calendar.Holiday {
	day := func(m time.Month, d int) time.Time { return calendar.Day(2024, m, d) }
	return []calendar.Holiday{
		{Date: day(time.January, 1), Name: "New Year's Day", Type: "public"},
		{Date: day(time.January, 2), Name: "Day after New Year's Day", Type: "public"},
		{Date: day(time.February, 6), Name: "Waitangi Day", Type: "public"},
		{Date: day(time.March, 29), Name: "Good Friday", Type: "public"},
		{Date: day(time.April, 1), Name: "Easter Monday", Type: "public"},
		{Date: day(time.April, 25), Name: "Anzac Day", Type: "public"},
		{Date: day(time.June, 3), Name: "King's Birthday", Type: "public"},
		{Date: day(time.June, 28), Name: "Matariki", Type: "public"},
		{Date: day(time.October, 28), Name: "Labour Day", Type: "public"},
		{Date: day(time.December, 25), Name: "Christmas Day", Type: "public"},
		{Date: day(time.December, 26), Name: "Boxing Day", Type: "public"},
	}
}

func strPtr(s string) *string { return &s }
