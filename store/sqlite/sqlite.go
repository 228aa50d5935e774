/*
Package sqlite provides a SQLite-backed implementation of generic.Store.

PURPOSE:
  Persists everything the planner is fed with: yearly goals, holiday and
  vacation calendars, logged hours and the goal-rollover bookkeeping.
  Plans and reports are never stored; they are recomputed on every request.

KEY TABLES:
  goals:         one row per (user, year), weights as a JSON object
  holidays:      firm-wide and personal holidays per user
  vacation_days: one row per (user, date)
  daily_logs:    logged hours, one row per (user, date)
  rollover_runs: one row per (user, to_year)

UPSERT SEMANTICS:
  daily_logs has UNIQUE(user_id, date). A second log for the same date
  replaces the hours (ON CONFLICT ... DO UPDATE); hours never accumulate.

DECIMALS:
  Hours are stored as TEXT (decimal.Decimal.String()) so values round-trip
  exactly; SQLite REAL would reintroduce float drift.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection because every new connection would see an empty database.

USAGE:
  store, err := sqlite.New("./data/planner.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/generic"
)

// Store implements generic.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS goals (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		annual_target TEXT NOT NULL,
		weights_json TEXT NOT NULL,
		policy TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_goals_year ON goals(year);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT 'firm',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_user_date ON holidays(user_id, date);

	CREATE TABLE IF NOT EXISTS vacation_days (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(user_id, date)
	);

	-- One row per (user, date): logging again replaces the hours
	CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, date)
	);

	CREATE TABLE IF NOT EXISTS rollover_runs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		from_year INTEGER NOT NULL,
		to_year INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(user_id, to_year)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GOALS
// =============================================================================

// GetGoal returns generic.ErrGoalNotFound when no row exists.
func (s *Store) GetGoal(ctx context.Context, user generic.UserID, year int) (*generic.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, year, annual_target, weights_json, policy, updated_at
		FROM goals WHERE user_id = ? AND year = ?
	`, string(user), year)

	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SaveGoal inserts or replaces the goal for (user, year).
func (s *Store) SaveGoal(ctx context.Context, goal generic.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weights, err := json.Marshal(goal.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	updatedAt := goal.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO goals (user_id, year, annual_target, weights_json, policy, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, year) DO UPDATE SET
			annual_target = excluded.annual_target,
			weights_json = excluded.weights_json,
			policy = excluded.policy,
			updated_at = excluded.updated_at
	`,
		string(goal.UserID),
		goal.Year,
		goal.AnnualTarget.String(),
		string(weights),
		goal.Policy,
		updatedAt.Format(time.RFC3339),
	)
	return err
}

// ListGoalsForYear returns every user's goal for year, ordered by user.
func (s *Store) ListGoalsForYear(ctx context.Context, year int) ([]generic.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, year, annual_target, weights_json, policy, updated_at
		FROM goals WHERE year = ?
		ORDER BY user_id ASC
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []generic.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(row scanner) (generic.Goal, error) {
	var (
		g                                 generic.Goal
		user, target, weights, updatedAt string
	)
	if err := row.Scan(&user, &g.Year, &target, &weights, &g.Policy, &updatedAt); err != nil {
		return generic.Goal{}, err
	}

	g.UserID = generic.UserID(user)
	amount, err := decimal.NewFromString(target)
	if err != nil {
		return generic.Goal{}, fmt.Errorf("corrupt annual_target %q: %w", target, err)
	}
	g.AnnualTarget = amount
	if err := json.Unmarshal([]byte(weights), &g.Weights); err != nil {
		return generic.Goal{}, fmt.Errorf("corrupt weights_json: %w", err)
	}
	g.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return g, nil
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// ListHolidays returns the user's holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context, user generic.UserID) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, name, scope
		FROM holidays WHERE user_id = ?
		ORDER BY date ASC, name ASC
	`, string(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var (
			h                    generic.Holiday
			userID, date, scope string
		)
		if err := rows.Scan(&h.ID, &userID, &date, &h.Name, &scope); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDay(date); err != nil {
			return nil, err
		}
		h.UserID = generic.UserID(userID)
		h.Scope = generic.HolidayScope(scope)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveHoliday inserts a holiday, or updates it when h.ID already exists.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) (generic.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Scope == "" {
		h.Scope = generic.ScopeFirm
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, user_id, date, name, scope, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name,
			scope = excluded.scope
	`,
		h.ID,
		string(h.UserID),
		h.Date.String(),
		h.Name,
		string(h.Scope),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return generic.Holiday{}, err
	}
	return h, nil
}

// DeleteHoliday deletes one of the user's holidays.
func (s *Store) DeleteHoliday(ctx context.Context, user generic.UserID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteOwned(ctx, "holidays", user, id)
}

// ListVacations returns the user's vacation days ordered by date.
func (s *Store) ListVacations(ctx context.Context, user generic.UserID) ([]generic.VacationDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date FROM vacation_days
		WHERE user_id = ?
		ORDER BY date ASC
	`, string(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []generic.VacationDay
	for rows.Next() {
		var (
			v            generic.VacationDay
			userID, date string
		)
		if err := rows.Scan(&v.ID, &userID, &date); err != nil {
			return nil, err
		}
		if v.Date, err = generic.ParseDay(date); err != nil {
			return nil, err
		}
		v.UserID = generic.UserID(userID)
		days = append(days, v)
	}
	return days, rows.Err()
}

// SaveVacation records a vacation day. Saving a date twice returns the existing row.
func (s *Store) SaveVacation(ctx context.Context, v generic.VacationDay) (generic.VacationDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO vacation_days (id, user_id, date, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET date = excluded.date
		RETURNING id
	`,
		v.ID,
		string(v.UserID),
		v.Date.String(),
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&v.ID)
	if err != nil {
		return generic.VacationDay{}, err
	}
	return v, nil
}

// DeleteVacation deletes one of the user's vacation days.
func (s *Store) DeleteVacation(ctx context.Context, user generic.UserID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteOwned(ctx, "vacation_days", user, id)
}

func (s *Store) deleteOwned(ctx context.Context, table string, user generic.UserID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, string(user))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

// =============================================================================
// LOGGED HOURS
// =============================================================================

// UpsertLog creates the (user, date) row or replaces its hours.
func (s *Store) UpsertLog(ctx context.Context, l generic.LoggedHour) (generic.LoggedHour, error) {
	if err := generic.ValidateHours("hours", l.Hours); err != nil {
		return generic.LoggedHour{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_logs (id, user_id, date, hours, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			hours = excluded.hours,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		l.ID,
		string(l.UserID),
		l.Date.String(),
		l.Hours.String(),
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&l.ID)
	if err != nil {
		return generic.LoggedHour{}, err
	}
	return l, nil
}

// LogsInRange returns the user's logs in [from, to] ordered by date.
func (s *Store) LogsInRange(ctx context.Context, user generic.UserID, from, to generic.TimePoint) ([]generic.LoggedHour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, hours FROM daily_logs
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, string(user), from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []generic.LoggedHour
	for rows.Next() {
		var (
			l                   generic.LoggedHour
			userID, date, hours string
		)
		if err := rows.Scan(&l.ID, &userID, &date, &hours); err != nil {
			return nil, err
		}
		if l.Date, err = generic.ParseDay(date); err != nil {
			return nil, err
		}
		if l.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("corrupt hours %q: %w", hours, err)
		}
		l.UserID = generic.UserID(userID)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// =============================================================================
// ROLLOVER RUNS
// =============================================================================

// SaveRolloverRun records a run; a rerun for the same (user, to_year) replaces it.
func (s *Store) SaveRolloverRun(ctx context.Context, r generic.RolloverRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rollover_runs (id, user_id, from_year, to_year, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, to_year) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			created_at = excluded.created_at
	`,
		r.ID, string(r.UserID), r.FromYear, r.ToYear, r.Status,
		nullString(r.Error), r.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// ListRolloverRuns returns every run, newest first.
func (s *Store) ListRolloverRuns(ctx context.Context) ([]generic.RolloverRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, from_year, to_year, status, error, created_at
		FROM rollover_runs
		ORDER BY created_at DESC, user_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []generic.RolloverRun
	for rows.Next() {
		var (
			r         generic.RolloverRun
			userID    string
			errText   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.ID, &userID, &r.FromYear, &r.ToYear, &r.Status, &errText, &createdAt); err != nil {
			return nil, err
		}
		r.UserID = generic.UserID(userID)
		r.Error = errText.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// IsRolloverComplete checks if the user's goal was already rolled into toYear.
func (s *Store) IsRolloverComplete(ctx context.Context, user generic.UserID, toYear int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM rollover_runs
		WHERE user_id = ? AND to_year = ? AND status = 'completed'
	`, string(user), toYear).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes every record (demo scenarios only).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"daily_logs", "vacation_days", "holidays", "goals", "rollover_runs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
