package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/generic/store"
)

func TestMemory_Goals(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.GetGoal(ctx, "u1", 2025)
	assert.ErrorIs(t, err, generic.ErrGoalNotFound)

	goal := generic.NewDefaultGoal("u1", 2025, decimal.NewFromInt(1800))
	require.NoError(t, m.SaveGoal(ctx, goal))

	got, err := m.GetGoal(ctx, "u1", 2025)
	require.NoError(t, err)
	assert.True(t, got.AnnualTarget.Equal(decimal.NewFromInt(1800)))
	assert.False(t, got.UpdatedAt.IsZero())

	// Returned weights are a copy.
	got.Weights["July"] = 5
	again, _ := m.GetGoal(ctx, "u1", 2025)
	assert.Equal(t, 1.0, again.Weights["July"])

	goals, err := m.ListGoalsForYear(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}

func TestMemory_UpsertLogReplaces(t *testing.T) {
	// GIVEN: 4 h logged on a date
	// WHEN: Logging 6 h on the same date
	// THEN: The record holds 6 h, not 10

	ctx := context.Background()
	m := store.NewMemory()
	d := generic.NewTimePoint(2025, time.March, 3)

	first, err := m.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: d, Hours: decimal.NewFromInt(4)})
	require.NoError(t, err)
	second, err := m.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: d, Hours: decimal.NewFromInt(6)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	logs, err := m.LogsInRange(ctx, "u1", generic.StartOfYear(2025), generic.EndOfYear(2025))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Hours.Equal(decimal.NewFromInt(6)))

	_, err = m.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: d, Hours: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestMemory_CalendarAndReset(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	h, err := m.SaveHoliday(ctx, generic.Holiday{UserID: "u1", Date: generic.NewTimePoint(2025, time.July, 4), Name: "Independence Day", Scope: generic.ScopeFirm})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)

	v, err := m.SaveVacation(ctx, generic.VacationDay{UserID: "u1", Date: generic.NewTimePoint(2025, time.August, 4)})
	require.NoError(t, err)

	assert.ErrorIs(t, m.DeleteHoliday(ctx, "u2", h.ID), generic.ErrNotFound, "other users can't delete it")
	require.NoError(t, m.DeleteVacation(ctx, "u1", v.ID))
	vacations, _ := m.ListVacations(ctx, "u1")
	assert.Empty(t, vacations)

	require.NoError(t, m.SaveRolloverRun(ctx, generic.RolloverRun{UserID: "u1", FromYear: 2025, ToYear: 2026, Status: "completed"}))
	done, err := m.IsRolloverComplete(ctx, "u1", 2026)
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, m.Reset(ctx))
	holidays, _ := m.ListHolidays(ctx, "u1")
	assert.Empty(t, holidays)
	runs, _ := m.ListRolloverRuns(ctx)
	assert.Empty(t, runs)
}
