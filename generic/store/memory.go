// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/billable-planner/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	goals     map[goalKey]generic.Goal
	holidays  map[generic.UserID][]generic.Holiday
	vacations map[generic.UserID][]generic.VacationDay
	logs      map[logKey]generic.LoggedHour
	runs      []generic.RolloverRun
}

type goalKey struct {
	UserID generic.UserID
	Year   int
}

type logKey struct {
	UserID generic.UserID
	Date   generic.TimePoint
}

var _ generic.Store = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.goals = make(map[goalKey]generic.Goal)
	m.holidays = make(map[generic.UserID][]generic.Holiday)
	m.vacations = make(map[generic.UserID][]generic.VacationDay)
	m.logs = make(map[logKey]generic.LoggedHour)
	m.runs = nil
}

// Reset clears everything.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// GOALS
// =============================================================================

func (m *Memory) GetGoal(_ context.Context, user generic.UserID, year int) (*generic.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.goals[goalKey{user, year}]
	if !ok {
		return nil, generic.ErrGoalNotFound
	}
	g.Weights = g.Weights.Clone()
	return &g, nil
}

func (m *Memory) SaveGoal(_ context.Context, goal generic.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	goal.Weights = goal.Weights.Clone()
	if goal.UpdatedAt.IsZero() {
		goal.UpdatedAt = time.Now().UTC()
	}
	m.goals[goalKey{goal.UserID, goal.Year}] = goal
	return nil
}

func (m *Memory) ListGoalsForYear(_ context.Context, year int) ([]generic.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []generic.Goal
	for k, g := range m.goals {
		if k.Year == year {
			g.Weights = g.Weights.Clone()
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// =============================================================================
// CALENDAR
// =============================================================================

func (m *Memory) ListHolidays(_ context.Context, user generic.UserID) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]generic.Holiday(nil), m.holidays[user]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) (generic.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	list := m.holidays[h.UserID]
	for i := range list {
		if list[i].ID == h.ID {
			list[i] = h
			return h, nil
		}
	}
	m.holidays[h.UserID] = append(list, h)
	return h, nil
}

func (m *Memory) DeleteHoliday(_ context.Context, user generic.UserID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.holidays[user]
	for i := range list {
		if list[i].ID == id {
			m.holidays[user] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return generic.ErrNotFound
}

func (m *Memory) ListVacations(_ context.Context, user generic.UserID) ([]generic.VacationDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]generic.VacationDay(nil), m.vacations[user]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) SaveVacation(_ context.Context, v generic.VacationDay) (generic.VacationDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	list := m.vacations[v.UserID]
	for i := range list {
		if list[i].Date == v.Date {
			return list[i], nil
		}
		if list[i].ID == v.ID {
			list[i] = v
			return v, nil
		}
	}
	m.vacations[v.UserID] = append(list, v)
	return v, nil
}

func (m *Memory) DeleteVacation(_ context.Context, user generic.UserID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.vacations[user]
	for i := range list {
		if list[i].ID == id {
			m.vacations[user] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return generic.ErrNotFound
}

// =============================================================================
// LOGS
// =============================================================================

// UpsertLog replaces the hours of an existing (user, date) record.
func (m *Memory) UpsertLog(_ context.Context, l generic.LoggedHour) (generic.LoggedHour, error) {
	if err := generic.ValidateHours("hours", l.Hours); err != nil {
		return generic.LoggedHour{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := logKey{l.UserID, l.Date}
	if existing, ok := m.logs[k]; ok {
		existing.Hours = l.Hours
		m.logs[k] = existing
		return existing, nil
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	m.logs[k] = l
	return l, nil
}

func (m *Memory) LogsInRange(_ context.Context, user generic.UserID, from, to generic.TimePoint) ([]generic.LoggedHour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	period := generic.Period{Start: from, End: to}
	var out []generic.LoggedHour
	for k, l := range m.logs {
		if k.UserID == user && period.Contains(k.Date) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// =============================================================================
// ROLLOVER
// =============================================================================

func (m *Memory) SaveRolloverRun(_ context.Context, run generic.RolloverRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	// One run per (user, to_year): a rerun replaces the earlier attempt.
	for i := range m.runs {
		if m.runs[i].UserID == run.UserID && m.runs[i].ToYear == run.ToYear {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListRolloverRuns(_ context.Context) ([]generic.RolloverRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]generic.RolloverRun(nil), m.runs...), nil
}

func (m *Memory) IsRolloverComplete(_ context.Context, user generic.UserID, toYear int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.runs {
		if r.UserID == user && r.ToYear == toYear && r.Status == "completed" {
			return true, nil
		}
	}
	return false, nil
}
