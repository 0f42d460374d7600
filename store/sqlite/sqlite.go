/*
Package sqlite provides the SQLite-backed data fetchers for the report
engine.

PURPOSE:
  Implements report.Fetcher over a relational store. The engine
  computes from snapshots, so this package's whole job is shaping rows
  into one Snapshot per query window - batched, one SELECT per entity
  type, never per employee or per week.

KEY TABLES:
  employees, roles, teams:        Reference data and capacity
  team_assignments:               Full membership history (may overlap)
  time_types:                     CapDev classification
  general_time_assignments:       Standing role allocations
  leaves:                         Single-day leave rows from payroll sync
  boards, projects:               Team -> board -> project hierarchy
  project_activities:             Deduplicated Jira change-history dates
  holidays:                       The region's holiday calendar

SNAPSHOT CONTRACT (see report/snapshot.go):
  - assignments ordered start date descending per employee
  - leave limited to TAKEN/APPROVED inside the window
  - activities limited to known projects' Jira ids inside the window

DATES:
  Stored as yyyy-mm-dd TEXT and parsed to UTC midnight, matching the
  engine's day normalization.

WAL MODE:
  Opened with WAL and foreign keys on; schema migrates on New(). For
  production use a versioned migration tool.

USAGE:
  store, err := sqlite.New("./data/timereport.db")
  ...
  snap, err := store.Fetch(ctx, report.Window{From: from, To: to})

SEE ALSO:
  - seed.go: Demo dataset loader
  - report/assembler.go: The consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/loom/timereport/calendar"
	"github.com/loom/timereport/report"
)

const dateFormat = "2006-01-02"

// Store implements report.Fetcher over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the
// schema. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS roles (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS teams (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		payroll_id     TEXT NOT NULL DEFAULT '',
		hours_per_week REAL NOT NULL DEFAULT 0,
		role_id        TEXT NOT NULL DEFAULT '',
		CHECK (hours_per_week >= 0 AND hours_per_week <= 168)
	);

	CREATE TABLE IF NOT EXISTS team_assignments (
		id          TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		team_id     TEXT NOT NULL REFERENCES teams(id),
		start_date  TEXT NOT NULL,
		end_date    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_assignments_employee
		ON team_assignments(employee_id, start_date DESC);

	CREATE TABLE IF NOT EXISTS time_types (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		is_cap_dev INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS general_time_assignments (
		id             TEXT PRIMARY KEY,
		role_id        TEXT NOT NULL REFERENCES roles(id),
		time_type_id   TEXT NOT NULL REFERENCES time_types(id),
		hours_per_week REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leaves (
		id          TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		date        TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT '',
		duration    REAL NOT NULL DEFAULT 8
	);
	CREATE INDEX IF NOT EXISTS idx_leaves_date ON leaves(date, employee_id);

	CREATE TABLE IF NOT EXISTS boards (
		id      TEXT PRIMARY KEY,
		team_id TEXT NOT NULL REFERENCES teams(id),
		name    TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		board_id   TEXT NOT NULL REFERENCES boards(id),
		name       TEXT NOT NULL,
		jira_id    TEXT NOT NULL,
		is_cap_dev INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_projects_board ON projects(board_id);

	CREATE TABLE IF NOT EXISTS project_activities (
		id            TEXT PRIMARY KEY,
		jira_issue_id TEXT NOT NULL,
		activity_date TEXT NOT NULL,
		UNIQUE (jira_issue_id, activity_date)
	);
	CREATE INDEX IF NOT EXISTS idx_activities_date
		ON project_activities(activity_date);

	CREATE TABLE IF NOT EXISTS holidays (
		id   TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'public'
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FETCH - one snapshot per query window
// =============================================================================

// Fetch assembles the engine's snapshot for the window: one query per
// entity type, assignments attached to their employees ordered start
// date descending, leave and activity rows restricted to the window.
func (s *Store) Fetch(ctx context.Context, w report.Window) (*report.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &report.Snapshot{}
	var err error

	if snap.Roles, err = s.roles(ctx); err != nil {
		return nil, fmt.Errorf("fetch roles: %w", err)
	}
	if snap.Teams, err = s.teams(ctx); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	if snap.TimeTypes, err = s.timeTypes(ctx); err != nil {
		return nil, fmt.Errorf("fetch time types: %w", err)
	}
	if snap.GeneralAssignments, err = s.generalAssignments(ctx); err != nil {
		return nil, fmt.Errorf("fetch general time assignments: %w", err)
	}
	if snap.Employees, err = s.employees(ctx); err != nil {
		return nil, fmt.Errorf("fetch employees: %w", err)
	}
	if snap.Leaves, err = s.leaves(ctx, w); err != nil {
		return nil, fmt.Errorf("fetch leaves: %w", err)
	}
	if snap.Boards, err = s.boards(ctx); err != nil {
		return nil, fmt.Errorf("fetch boards: %w", err)
	}
	if snap.Projects, err = s.projects(ctx); err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	if snap.Activities, err = s.activities(ctx, w); err != nil {
		return nil, fmt.Errorf("fetch project activities: %w", err)
	}
	if snap.Holidays, err = s.holidays(ctx); err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}
	return snap, nil
}

func (s *Store) roles(ctx context.Context) ([]report.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Role
	for rows.Next() {
		var r report.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) teams(ctx context.Context) ([]report.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Team
	for rows.Next() {
		var t report.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) timeTypes(ctx context.Context) ([]report.TimeType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, is_cap_dev FROM time_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.TimeType
	for rows.Next() {
		var tt report.TimeType
		if err := rows.Scan(&tt.ID, &tt.Name, &tt.IsCapDev); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

func (s *Store) generalAssignments(ctx context.Context) ([]report.GeneralTimeAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role_id, time_type_id, hours_per_week FROM general_time_assignments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.GeneralTimeAssignment
	for rows.Next() {
		var ga report.GeneralTimeAssignment
		var hours float64
		if err := rows.Scan(&ga.RoleID, &ga.TimeTypeID, &hours); err != nil {
			return nil, err
		}
		ga.HoursPerWeek = decimal.NewFromFloat(hours)
		out = append(out, ga)
	}
	return out, rows.Err()
}

// employees loads every employee with its full assignment history,
// ordered start date descending per the fetcher contract.
func (s *Store) employees(ctx context.Context) ([]report.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, payroll_id, hours_per_week, role_id FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Employee
	byID := make(map[report.EmployeeID]int)
	for rows.Next() {
		var e report.Employee
		var hours float64
		if err := rows.Scan(&e.ID, &e.Name, &e.PayrollID, &hours, &e.RoleID); err != nil {
			return nil, err
		}
		e.HoursPerWeek = decimal.NewFromFloat(hours)
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assignments, err := s.db.QueryContext(ctx,
		`SELECT employee_id, team_id, start_date, end_date
		 FROM team_assignments ORDER BY employee_id, start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer assignments.Close()

	for assignments.Next() {
		var a report.TeamAssignment
		var start string
		var end sql.NullString
		if err := assignments.Scan(&a.EmployeeID, &a.TeamID, &start, &end); err != nil {
			return nil, err
		}
		if a.StartDate, err = parseDate(start); err != nil {
			return nil, err
		}
		if end.Valid {
			d, err := parseDate(end.String)
			if err != nil {
				return nil, err
			}
			a.EndDate = &d
		}
		if i, ok := byID[a.EmployeeID]; ok {
			out[i].Assignments = append(out[i].Assignments, a)
		}
	}
	return out, assignments.Err()
}

func (s *Store) leaves(ctx context.Context, w report.Window) ([]report.Leave, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, date, type, status, duration FROM leaves
		 WHERE status IN (?, ?) AND date BETWEEN ? AND ?
		 ORDER BY date, employee_id`,
		report.LeaveStatusTaken, report.LeaveStatusApproved,
		formatDate(w.From), formatDate(w.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Leave
	for rows.Next() {
		var l report.Leave
		var date string
		var duration float64
		if err := rows.Scan(&l.EmployeeID, &date, &l.Type, &l.Status, &duration); err != nil {
			return nil, err
		}
		if l.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		l.Duration = decimal.NewFromFloat(duration)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) boards(ctx context.Context) ([]report.JiraBoard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, team_id, name FROM boards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.JiraBoard
	for rows.Next() {
		var b report.JiraBoard
		if err := rows.Scan(&b.ID, &b.TeamID, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) projects(ctx context.Context) ([]report.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, name, jira_id, is_cap_dev FROM projects ORDER BY board_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Project
	for rows.Next() {
		var p report.Project
		if err := rows.Scan(&p.ID, &p.BoardID, &p.Name, &p.JiraID, &p.IsCapDev); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// activities returns window-restricted rows for known projects' Jira
// ids only, in stable (date, issue) order.
func (s *Store) activities(ctx context.Context, w report.Window) ([]report.ProjectActivity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.jira_issue_id, a.activity_date
		 FROM project_activities a
		 JOIN projects p ON p.jira_id = a.jira_issue_id
		 WHERE a.activity_date BETWEEN ? AND ?
		 ORDER BY a.activity_date, a.jira_issue_id`,
		formatDate(w.From), formatDate(w.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.ProjectActivity
	for rows.Next() {
		var a report.ProjectActivity
		var date string
		if err := rows.Scan(&a.JiraIssueID, &date); err != nil {
			return nil, err
		}
		if a.ActivityDate, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) holidays(ctx context.Context) ([]calendar.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, name, type FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var date string
		if err := rows.Scan(&date, &h.Name, &h.Type); err != nil {
			return nil, err
		}
		if h.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// REFERENCE READS (UI bootstrap)
// =============================================================================

// ListTimeTypes returns all time types.
func (s *Store) ListTimeTypes(ctx context.Context) ([]report.TimeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeTypes(ctx)
}

// ListTeams returns all teams.
func (s *Store) ListTeams(ctx context.Context) ([]report.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams(ctx)
}

// ListRoles returns all roles.
func (s *Store) ListRoles(ctx context.Context) ([]report.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles(ctx)
}

// =============================================================================
// DATE HELPERS
// =============================================================================

func parseDate(v string) (time.Time, error) {
	d, err := time.ParseInLocation(dateFormat, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", v, err)
	}
	return d, nil
}

func formatDate(d time.Time) string { return d.Format(dateFormat) }
