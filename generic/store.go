/*
store.go - Persistence interfaces for goals, calendars and logged hours

PURPOSE:
  Defines the interface between the HTTP layer and the database. The
  planning core never touches a Store: handlers load records through
  these interfaces, hand plain collections to planner/, and write back
  only what the user changed.

KEY INTERFACES:
  GoalStore:     one Goal per (user, year)
  CalendarStore: holidays and vacation days per user
  LogStore:      logged hours, one record per (user, date)
  RolloverStore: bookkeeping for the yearly goal rollover
  Store:         all of the above plus Reset (demo scenarios)

UPSERT CONTRACT:
  UpsertLog replaces the hours of an existing (user, date) record. Hours
  are never accumulated across writes.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - types.go: the record types
  - api/handlers.go: the only caller
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// GoalStore persists yearly goals.
type GoalStore interface {
	// GetGoal returns ErrGoalNotFound when the user has no goal for year.
	GetGoal(ctx context.Context, user UserID, year int) (*Goal, error)

	// SaveGoal inserts or replaces the goal for (goal.UserID, goal.Year).
	SaveGoal(ctx context.Context, goal Goal) error

	// ListGoalsForYear returns every user's goal for year.
	ListGoalsForYear(ctx context.Context, year int) ([]Goal, error)
}

// CalendarStore persists the per-user exclusion calendar.
type CalendarStore interface {
	ListHolidays(ctx context.Context, user UserID) ([]Holiday, error)
	// SaveHoliday assigns an ID when h.ID is empty and returns the stored record.
	SaveHoliday(ctx context.Context, h Holiday) (Holiday, error)
	// DeleteHoliday returns ErrNotFound when the user owns no such holiday.
	DeleteHoliday(ctx context.Context, user UserID, id string) error

	ListVacations(ctx context.Context, user UserID) ([]VacationDay, error)
	SaveVacation(ctx context.Context, v VacationDay) (VacationDay, error)
	DeleteVacation(ctx context.Context, user UserID, id string) error
}

// LogStore persists logged hours.
type LogStore interface {
	// UpsertLog creates the (user, date) record or replaces its hours.
	UpsertLog(ctx context.Context, l LoggedHour) (LoggedHour, error)

	// LogsInRange returns records in [from, to], ordered by date.
	LogsInRange(ctx context.Context, user UserID, from, to TimePoint) ([]LoggedHour, error)
}

// RolloverRun records one yearly goal rollover for a user.
type RolloverRun struct {
	ID        string
	UserID    UserID
	FromYear  int
	ToYear    int
	Status    string // "completed", "failed"
	Error     string
	CreatedAt time.Time
}

// RolloverStore persists rollover bookkeeping.
type RolloverStore interface {
	SaveRolloverRun(ctx context.Context, run RolloverRun) error
	ListRolloverRuns(ctx context.Context) ([]RolloverRun, error)
	IsRolloverComplete(ctx context.Context, user UserID, toYear int) (bool, error)
}

// Store is everything the API needs.
type Store interface {
	GoalStore
	CalendarStore
	LogStore
	RolloverStore

	// Reset deletes every record (demo scenarios only).
	Reset(ctx context.Context) error
}
