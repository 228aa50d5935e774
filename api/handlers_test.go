/*
handlers_test.go - HTTP tests for the planner API

Tests for:
- Identity header enforcement
- Setup created on first use, firm holiday seeding, setup updates
- Plan, dashboard and analytics built from stored goal and logs
- Log upsert semantics
- Catch-up schedules
- Holiday and vacation CRUD
- Error category to status mapping
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/billable-planner/config"
	"github.com/warp/billable-planner/logging"
	"github.com/warp/billable-planner/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	h      *Handler
	router http.Handler
}

// newTestServer wires a handler over an in-memory database with "today"
// pinned to Wednesday 2025-03-05.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	h, err := NewHandler(store, cfg, logging.Discard())
	require.NoError(t, err)
	h.Clock = func() time.Time { return time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC) }

	return &testServer{h: h, router: NewRouter(h, cfg.Server.CORSOrigins)}
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// =============================================================================
// IDENTITY & ERROR MAPPING
// =============================================================================

func TestAPIIndex(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	index := decode[APIIndexDTO](t, rec)
	assert.Equal(t, UserHeader, index.UserHeader)
	assert.Contains(t, index.Endpoints, "GET /api/planner/dashboard")

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/index.html", "", nil).Code)
}

func TestPlannerRoutes_RequireUserHeader(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/planner/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/scenarios", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "scenarios are not per user")
}

func TestDashboard_NoGoalIsConflict(t *testing.T) {
	// GIVEN: A user who never opened the setup screen
	// WHEN: Requesting the dashboard and the plan
	// THEN: 409, which the frontend turns into a redirect to setup

	s := newTestServer(t)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodGet, "/api/planner/dashboard", "u1", nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodGet, "/api/planner/plan?year=2025", "u1", nil).Code)
}

func TestBadQueryParameters(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/planner/setup", "u1", nil)

	paths := []string{
		"/api/planner/dashboard?as_of=2025-02-30",
		"/api/planner/dashboard?month=March",
		"/api/planner/plan?year=twenty",
		"/api/planner/analytics?from=2025-03-10&to=2025-03-01",
		"/api/planner/analytics?from=2024-12-01&to=2025-01-31",
		"/api/planner/analytics?compare_from=2025-02-01",
		"/api/planner/logs?from=2025-03-10&to=2025-03-01",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, p, "u1", nil).Code)
		})
	}
}

// =============================================================================
// SETUP
// =============================================================================

func TestGetSetup_CreatesDefaultGoalAndSeedsHolidays(t *testing.T) {
	// GIVEN: A new user
	// WHEN: Opening the setup screen for 2025 twice
	// THEN: 1800 h, even weights, the 10 US holidays seeded once

	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/planner/setup?year=2025", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	setup := decode[SetupDTO](t, rec)

	require.NotNil(t, setup.Setup.AnnualGoal)
	assert.Equal(t, 1800.0, *setup.Setup.AnnualGoal)
	assert.Equal(t, 1.0, setup.Setup.WorkloadWeights["July"])
	assert.Equal(t, "cap-and-drop", setup.Setup.AllocationPolicy)
	require.Len(t, setup.Holidays, 10)
	assert.True(t, setup.Holidays[0].IsFirm)
	assert.Empty(t, setup.Vacations)

	again := decode[SetupDTO](t, s.do(t, http.MethodGet, "/api/planner/setup?year=2025", "u1", nil))
	assert.Len(t, again.Holidays, 10, "seeding happens once")
}

func TestUpdateSetup(t *testing.T) {
	// GIVEN: A default 2025 setup
	// WHEN: Raising July's weight and switching to redistribution
	// THEN: The change is stored, untouched fields keep their values,
	//       and the plan reflects the new policy

	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/planner/setup", "u1", map[string]any{
		"year":              2025,
		"workload_weights":  map[string]float64{"July": 1.5},
		"allocation_policy": "cap-and-redistribute",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	setup := decode[SetupDTO](t, s.do(t, http.MethodGet, "/api/planner/setup?year=2025", "u1", nil))
	assert.Equal(t, 1.5, setup.Setup.WorkloadWeights["July"])
	assert.Equal(t, 1.0, setup.Setup.WorkloadWeights["June"])
	assert.Equal(t, 1800.0, *setup.Setup.AnnualGoal)
	assert.Equal(t, "cap-and-redistribute", setup.Setup.AllocationPolicy)

	plan := decode[PlanDTO](t, s.do(t, http.MethodGet, "/api/planner/plan?year=2025", "u1", nil))
	assert.Equal(t, "cap-and-redistribute", plan.Policy)
	assert.Greater(t, plan.MonthlyTargets["July"], plan.MonthlyTargets["June"])

	rec = s.do(t, http.MethodPut, "/api/planner/setup", "u1", map[string]any{"year": 2025, "allocation_policy": "spread"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/planner/setup", "u1", map[string]any{"year": 2025, "annual_goal": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSetup_DailyCapIsConfiguration(t *testing.T) {
	// GIVEN: The configured 10 h daily cap
	// WHEN: Sending a different cap, then echoing the configured one back
	// THEN: The first is rejected; the round-tripped setup is accepted

	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/planner/setup", "u1", map[string]any{"year": 2025, "daily_cap": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	setup := decode[SetupDTO](t, s.do(t, http.MethodGet, "/api/planner/setup?year=2025", "u1", nil))
	assert.Equal(t, 10.0, setup.Setup.DailyCap)

	rec = s.do(t, http.MethodPut, "/api/planner/setup", "u1", setup.Setup)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 10.0, decode[SetupDTO](t, rec).Setup.DailyCap)
}

// =============================================================================
// PLAN & DASHBOARD
// =============================================================================

func TestGetPlan_DefaultSetup2025(t *testing.T) {
	// GIVEN: The default 2025 setup with US holidays
	// WHEN: Fetching the plan
	// THEN: 251 working days at 7.17 h, nothing unallocated

	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/planner/setup", "u1", nil)

	rec := s.do(t, http.MethodGet, "/api/planner/plan", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[PlanDTO](t, rec)

	assert.Equal(t, 2025, plan.Year)
	assert.Equal(t, 251, plan.WorkingDays)
	require.Len(t, plan.Days, 251)
	assert.Equal(t, "2025-01-02", plan.Days[0].Date)
	assert.Equal(t, 7.17, plan.Days[0].Hours)
	assert.Equal(t, 0.0, plan.Unallocated)
	assert.Len(t, plan.MonthlyTargets, 12)
}

func TestDashboard_FromLoggedHours(t *testing.T) {
	// GIVEN: The default 2025 setup and 8 h logged Mon-Wed, March 3-5
	// WHEN: Opening the dashboard on March 5
	// THEN: Month and year actuals are 24 h, the user is behind pace,
	//       and today leads the recent-days list

	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/planner/setup", "u1", nil)
	for _, d := range []string{"2025-03-03", "2025-03-04", "2025-03-05"} {
		rec := s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: d, Hours: 8})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodGet, "/api/planner/dashboard", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decode[DashboardDTO](t, rec)

	assert.Equal(t, "2025-03-05", dash.AsOf)
	assert.Equal(t, "2025-03", dash.Month)
	assert.Equal(t, 1800.0, dash.AnnualGoal)
	assert.Equal(t, 24.0, dash.MonthActual)
	assert.Equal(t, 24.0, dash.YearActual)
	assert.Equal(t, 150.57, dash.MonthTarget, "21 working days x 7.17")
	assert.Equal(t, 1799.67, dash.YearTarget)
	assert.Equal(t, 1.3, dash.YearProgress)
	assert.Equal(t, "behind", dash.PaceStatus)
	assert.Contains(t, dash.Pace, "hours behind")
	assert.Len(t, dash.Calendar, 31)
	assert.Len(t, dash.MonthPlan, 21)

	require.Len(t, dash.RecentDays, 5)
	assert.Equal(t, "2025-03-05", dash.RecentDays[0].Date)
	assert.Equal(t, "today", dash.RecentDays[0].Status)
	assert.Equal(t, "on-track", dash.RecentDays[1].Status)
	assert.Equal(t, "no-log", dash.RecentDays[3].Status, "Feb 28 had nothing logged")

	// An earlier month keeps the same as-of date.
	feb := decode[DashboardDTO](t, s.do(t, http.MethodGet, "/api/planner/dashboard?month=2025-02", "u1", nil))
	assert.Equal(t, "2025-02", feb.Month)
	assert.Equal(t, 0.0, feb.MonthActual)
	assert.Equal(t, 24.0, feb.YearActual)
}

func TestAnalytics_WithComparison(t *testing.T) {
	// GIVEN: 8 h on March 3-5 and 4 h on February 3
	// WHEN: Comparing March 1-5 with February 1-5
	// THEN: Actuals are 24 vs 4 h and the actual change is +500%

	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/planner/setup", "u1", nil)
	for _, d := range []string{"2025-03-03", "2025-03-04", "2025-03-05"} {
		s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: d, Hours: 8})
	}
	s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: "2025-02-03", Hours: 4})

	rec := s.do(t, http.MethodGet, "/api/planner/analytics?from=2025-03-01&to=2025-03-05&compare_from=2025-02-01&compare_to=2025-02-05", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a := decode[AnalyticsDTO](t, rec)

	assert.Equal(t, 24.0, a.Period.Actual)
	assert.Equal(t, 3, a.Period.PlannedDays)
	assert.Equal(t, 3, a.Period.LoggedDays)
	require.NotNil(t, a.Comparison)
	assert.Equal(t, 4.0, a.Comparison.Window.Actual)
	require.NotNil(t, a.Comparison.ActualChange)
	assert.Equal(t, 500.0, *a.Comparison.ActualChange)

	assert.Equal(t, 3, a.LongestStreak)
	assert.Equal(t, "Monday", a.MostProductiveWeekday)
	assert.Len(t, a.WeekdayTotals, 7)
	assert.Equal(t, 28.0, a.Projection.ActualToDate)
	assert.False(t, a.Projection.OnTrack)
}

func TestAnalytics_ComparisonWindowAcrossYears(t *testing.T) {
	// GIVEN: Setups for 2025 and 2026
	// WHEN: Comparing against a window that straddles New Year
	// THEN: 400; a window wholly inside the other year is planned on its own

	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/planner/setup?year=2025", "u1", nil)
	s.do(t, http.MethodGet, "/api/planner/setup?year=2026", "u1", nil)
	s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: "2026-01-02", Hours: 8})

	rec := s.do(t, http.MethodGet, "/api/planner/analytics?from=2025-03-01&to=2025-03-05&compare_from=2025-12-29&compare_to=2026-01-09", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/planner/analytics?from=2025-03-01&to=2025-03-05&compare_from=2026-01-01&compare_to=2026-01-09", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a := decode[AnalyticsDTO](t, rec)
	require.NotNil(t, a.Comparison)
	assert.Equal(t, 8.0, a.Comparison.Window.Actual)
}

// =============================================================================
// LOGS
// =============================================================================

func TestLogHours_ReplacesInsteadOfAccumulating(t *testing.T) {
	s := newTestServer(t)

	first := decode[LogDTO](t, s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: "2025-03-03", Hours: 4.5}))
	second := decode[LogDTO](t, s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: "2025-03-03", Hours: 6.25}))
	assert.Equal(t, first.ID, second.ID)

	logs := decode[[]LogDTO](t, s.do(t, http.MethodGet, "/api/planner/logs?from=2025-03-01&to=2025-03-31", "u1", nil))
	require.Len(t, logs, 1)
	assert.Equal(t, 6.25, logs[0].Hours)

	other := decode[[]LogDTO](t, s.do(t, http.MethodGet, "/api/planner/logs", "u2", nil))
	assert.Empty(t, other, "logs are per user")

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: "2025-03-03", Hours: -1}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/planner/logs", "u1", LogHoursRequest{Date: "03/03/2025", Hours: 1}).Code)
}

// =============================================================================
// CATCH-UP
// =============================================================================

func TestCatchUp_ExplicitHours(t *testing.T) {
	// GIVEN: 40 hours to make up from Monday March 3, 8 h days, no weekends
	// WHEN: Asking for schedules
	// THEN: Three schedules; the aggressive one is Mon-Fri at 8 h

	s := newTestServer(t)
	hours, maxDay := 40.0, 8.0

	rec := s.do(t, http.MethodPost, "/api/planner/catchup", "u1", CatchUpRequest{
		HoursNeeded:     &hours,
		MaxWorkdayHours: &maxDay,
		Weekend:         &WeekendRequest{Allow: false},
		From:            "2025-03-03",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CatchUpDTO](t, rec)

	require.Len(t, resp.Schedules, 3)
	assert.Equal(t, "gentle", resp.Schedules[0].Strategy)
	aggressive := resp.Schedules[2]
	assert.Equal(t, "aggressive", aggressive.Strategy)
	assert.Len(t, aggressive.Entries, 5)
	assert.Equal(t, "2025-03-07", aggressive.EndDate)
	assert.Equal(t, 40.0, aggressive.TotalHours)
	assert.Equal(t, 0.0, aggressive.Shortfall)
}

func TestCatchUp_FromPace(t *testing.T) {
	// GIVEN: A default setup and nothing logged by March 5
	// WHEN: Asking for catch-up without hours_needed
	// THEN: The shortfall is the pace deficit and schedules are returned

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/planner/catchup", "u1", map[string]any{})
	assert.Equal(t, http.StatusConflict, rec.Code, "needs a goal to know the pace")

	s.do(t, http.MethodGet, "/api/planner/setup", "u1", nil)
	rec = s.do(t, http.MethodPost, "/api/planner/catchup", "u1", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CatchUpDTO](t, rec)

	assert.Greater(t, resp.HoursNeeded, 300.0)
	assert.Equal(t, "2025-03-05", resp.From)
	require.NotEmpty(t, resp.Schedules)

	rec = s.do(t, http.MethodPost, "/api/planner/catchup", "u1", map[string]any{"max_workday_hours": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestHolidayCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/planner/holidays", "u1", CreateHolidayRequest{Date: "2025-03-17", Name: "Family day"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[HolidayDTO](t, rec)
	assert.False(t, created.IsFirm)

	list := decode[[]HolidayDTO](t, s.do(t, http.MethodGet, "/api/planner/holidays", "u1", nil))
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/planner/holidays/"+created.ID, "u2", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/planner/holidays/"+created.ID, "u1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/planner/holidays/"+created.ID, "u1", nil).Code)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/planner/holidays", "u1", CreateHolidayRequest{Date: "2025-03-17"}).Code)
}

func TestVacations_ShrinkThePlan(t *testing.T) {
	// GIVEN: The default 2025 setup
	// WHEN: Adding the same vacation day twice
	// THEN: One record, and the plan loses one working day

	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/planner/setup", "u1", nil)

	first := decode[VacationDTO](t, s.do(t, http.MethodPost, "/api/planner/vacations", "u1", CreateVacationRequest{Date: "2025-08-04"}))
	again := decode[VacationDTO](t, s.do(t, http.MethodPost, "/api/planner/vacations", "u1", CreateVacationRequest{Date: "2025-08-04"}))
	assert.Equal(t, first.ID, again.ID)

	plan := decode[PlanDTO](t, s.do(t, http.MethodGet, "/api/planner/plan", "u1", nil))
	assert.Equal(t, 250, plan.WorkingDays)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/planner/vacations/"+first.ID, "u1", nil).Code)
	plan = decode[PlanDTO](t, s.do(t, http.MethodGet, "/api/planner/plan", "u1", nil))
	assert.Equal(t, 251, plan.WorkingDays)
}
