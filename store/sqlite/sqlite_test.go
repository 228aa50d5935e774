package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func march(d int) generic.TimePoint {
	return generic.NewTimePoint(2025, time.March, d)
}

// =============================================================================
// GOALS
// =============================================================================

func TestStore_GoalRoundTrip(t *testing.T) {
	// GIVEN: A goal with fractional target and a custom weight
	// WHEN: Saving and reading it back
	// THEN: Target and weights survive exactly

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetGoal(ctx, "u1", 2025)
	assert.ErrorIs(t, err, generic.ErrGoalNotFound)

	goal := generic.NewDefaultGoal("u1", 2025, decimal.RequireFromString("1850.5"))
	goal.Weights["July"] = 1.3
	require.NoError(t, store.SaveGoal(ctx, goal))

	got, err := store.GetGoal(ctx, "u1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "1850.5", got.AnnualTarget.String())
	assert.Equal(t, 1.3, got.Weights["July"])
	assert.Len(t, got.Weights, 12)

	// Saving again replaces.
	goal.AnnualTarget = decimal.NewFromInt(1700)
	require.NoError(t, store.SaveGoal(ctx, goal))
	got, err = store.GetGoal(ctx, "u1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "1700", got.AnnualTarget.String())

	require.NoError(t, store.SaveGoal(ctx, generic.NewDefaultGoal("u0", 2025, decimal.NewFromInt(1800))))
	require.NoError(t, store.SaveGoal(ctx, generic.NewDefaultGoal("u0", 2024, decimal.NewFromInt(1800))))
	goals, err := store.ListGoalsForYear(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, generic.UserID("u0"), goals[0].UserID)
}

// =============================================================================
// LOGS
// =============================================================================

func TestStore_UpsertLogReplacesHours(t *testing.T) {
	// GIVEN: 4.5 h logged on 2025-03-03
	// WHEN: Logging 6.25 h on the same date
	// THEN: One row holding 6.25 h with the original ID

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: march(3), Hours: decimal.RequireFromString("4.5")})
	require.NoError(t, err)
	second, err := store.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: march(3), Hours: decimal.RequireFromString("6.25")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	logs, err := store.LogsInRange(ctx, "u1", march(1), march(31))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "6.25", logs[0].Hours.String())
	assert.Equal(t, march(3), logs[0].Date)
}

func TestStore_LogsInRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, d := range []int{5, 1, 20, 31} {
		_, err := store.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: march(d), Hours: decimal.NewFromInt(8)})
		require.NoError(t, err)
	}
	_, err := store.UpsertLog(ctx, generic.LoggedHour{UserID: "u2", Date: march(5), Hours: decimal.NewFromInt(3)})
	require.NoError(t, err)

	logs, err := store.LogsInRange(ctx, "u1", march(1), march(20))
	require.NoError(t, err)
	require.Len(t, logs, 3, "bounds are inclusive, other users excluded")
	assert.Equal(t, march(1), logs[0].Date)
	assert.Equal(t, march(20), logs[2].Date)

	_, err = store.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: march(2), Hours: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestStore_Holidays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	firm, err := store.SaveHoliday(ctx, generic.Holiday{UserID: "u1", Date: generic.NewTimePoint(2025, time.July, 4), Name: "Independence Day"})
	require.NoError(t, err)
	assert.NotEmpty(t, firm.ID)
	assert.Equal(t, generic.ScopeFirm, firm.Scope, "scope defaults to firm")

	_, err = store.SaveHoliday(ctx, generic.Holiday{UserID: "u1", Date: generic.NewTimePoint(2025, time.March, 17), Name: "Family day", Scope: generic.ScopePersonal})
	require.NoError(t, err)

	holidays, err := store.ListHolidays(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "Family day", holidays[0].Name, "ordered by date")
	assert.Equal(t, generic.ScopePersonal, holidays[0].Scope)

	assert.ErrorIs(t, store.DeleteHoliday(ctx, "u2", firm.ID), generic.ErrNotFound)
	require.NoError(t, store.DeleteHoliday(ctx, "u1", firm.ID))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, "u1", firm.ID), generic.ErrNotFound)
}

func TestStore_VacationsDeduplicateByDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.SaveVacation(ctx, generic.VacationDay{UserID: "u1", Date: generic.NewTimePoint(2025, time.August, 4)})
	require.NoError(t, err)
	again, err := store.SaveVacation(ctx, generic.VacationDay{UserID: "u1", Date: generic.NewTimePoint(2025, time.August, 4)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	days, err := store.ListVacations(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, days, 1)

	require.NoError(t, store.DeleteVacation(ctx, "u1", first.ID))
	days, err = store.ListVacations(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, days)
}

// =============================================================================
// ROLLOVER & RESET
// =============================================================================

func TestStore_RolloverRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRolloverRun(ctx, generic.RolloverRun{UserID: "u1", FromYear: 2025, ToYear: 2026, Status: "failed", Error: "boom"}))
	done, err := store.IsRolloverComplete(ctx, "u1", 2026)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, store.SaveRolloverRun(ctx, generic.RolloverRun{UserID: "u1", FromYear: 2025, ToYear: 2026, Status: "completed"}))
	done, err = store.IsRolloverComplete(ctx, "u1", 2026)
	require.NoError(t, err)
	assert.True(t, done)

	runs, err := store.ListRolloverRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1, "a rerun replaces the earlier attempt")
	assert.Empty(t, runs[0].Error)
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveGoal(ctx, generic.NewDefaultGoal("u1", 2025, decimal.NewFromInt(1800))))
	_, err := store.UpsertLog(ctx, generic.LoggedHour{UserID: "u1", Date: march(3), Hours: decimal.NewFromInt(8)})
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	_, err = store.GetGoal(ctx, "u1", 2025)
	assert.ErrorIs(t, err, generic.ErrGoalNotFound)
	logs, err := store.LogsInRange(ctx, "u1", march(1), march(31))
	require.NoError(t, err)
	assert.Empty(t, logs)
}
