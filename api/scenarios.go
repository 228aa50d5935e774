/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario sets up one associate: a goal, firm
	holidays, some vacation, and logged hours up to yesterday.

AVAILABLE SCENARIOS:

	on-track:          Logs follow the plan, slightly above on Mondays
	behind-pace:       Logs at ~70% of plan plus a missed week
	heavy-summer:      June-August weighted up, December down, redistributed
	year-end-rollover: Only last year's goal exists; the rollover creates this year's

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Parse the setup JSON via the factory and save the goal
 3. Seed firm holidays from the configured holiday table
 4. Build the plan and log hours against it up to yesterday

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "behind-pace"}

	Then call /api/planner/* with X-User-ID set to the scenario's user_id.

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - factory/setup.go: Setup JSON presets
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/factory"
	"github.com/warp/billable-planner/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "on-track",
		Name:        "On-Track Associate",
		Description: "Even weighting, hours logged at plan with a little extra on Mondays",
		UserID:      "associate-on-track",
	},
	{
		ID:          "behind-pace",
		Name:        "Behind-Pace Associate",
		Description: "Logs at about 70% of plan and missed a week; use the catch-up planner",
		UserID:      "associate-behind",
	},
	{
		ID:          "heavy-summer",
		Name:        "Heavy Summer",
		Description: "June-August weighted up, December down, capped hours redistributed",
		UserID:      "associate-summer",
	},
	{
		ID:          "year-end-rollover",
		Name:        "Year-End Rollover",
		Description: "Only last year's goal exists; trigger the rollover to carry it over",
		UserID:      "associate-rollover",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	loaders := map[string]func(context.Context) error{
		"on-track":          h.loadOnTrackScenario,
		"behind-pace":       h.loadBehindPaceScenario,
		"heavy-summer":      h.loadHeavySummerScenario,
		"year-end-rollover": h.loadYearEndRolloverScenario,
	}
	load, ok := loaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("loaded scenario", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadOnTrackScenario(ctx context.Context) error {
	user := generic.UserID("associate-on-track")
	year := h.today().Year()

	if err := h.createSetupFromJSON(ctx, user, factory.StandardSetupJSON(year, generic.DefaultAnnualGoal)); err != nil {
		return err
	}
	return h.logAgainstPlan(ctx, user, year, func(d generic.TimePoint, planned decimal.Decimal) decimal.Decimal {
		if d.Weekday() == time.Monday {
			return planned.Add(decimal.NewFromFloat(0.5))
		}
		return planned
	})
}

func (h *Handler) loadBehindPaceScenario(ctx context.Context) error {
	user := generic.UserID("associate-behind")
	year := h.today().Year()

	if err := h.createSetupFromJSON(ctx, user, factory.StandardSetupJSON(year, 1900)); err != nil {
		return err
	}
	// A vacation week in early February.
	start := nthWeekday(year, time.February, time.Monday, 1)
	for i := 0; i < 5; i++ {
		if _, err := h.Store.SaveVacation(ctx, generic.VacationDay{UserID: user, Date: start.AddDays(i)}); err != nil {
			return err
		}
	}

	// Missed the first full week of March entirely.
	missed := generic.Period{Start: nthWeekday(year, time.March, time.Monday, 1)}
	missed.End = missed.Start.AddDays(4)
	seventy := decimal.NewFromFloat(0.7)
	return h.logAgainstPlan(ctx, user, year, func(d generic.TimePoint, planned decimal.Decimal) decimal.Decimal {
		if missed.Contains(d) {
			return decimal.Zero
		}
		return planned.Mul(seventy).Round(1)
	})
}

func (h *Handler) loadHeavySummerScenario(ctx context.Context) error {
	user := generic.UserID("associate-summer")
	year := h.today().Year()

	if err := h.createSetupFromJSON(ctx, user, factory.HeavySummerSetupJSON(year, 2000)); err != nil {
		return err
	}
	if _, err := h.Store.SaveHoliday(ctx, generic.Holiday{
		UserID: user,
		Date:   nthWeekday(year, time.April, time.Friday, 2),
		Name:   "Family day",
		Scope:  generic.ScopePersonal,
	}); err != nil {
		return err
	}
	return h.logAgainstPlan(ctx, user, year, func(_ generic.TimePoint, planned decimal.Decimal) decimal.Decimal {
		return planned
	})
}

func (h *Handler) loadYearEndRolloverScenario(ctx context.Context) error {
	user := generic.UserID("associate-rollover")
	lastYear := h.today().Year() - 1

	if err := h.createSetupFromJSON(ctx, user, factory.HeavySummerSetupJSON(lastYear, 1850)); err != nil {
		return err
	}
	return h.logAgainstPlan(ctx, user, lastYear, func(d generic.TimePoint, planned decimal.Decimal) decimal.Decimal {
		if d.Month() == time.December {
			return decimal.Zero
		}
		return planned
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// createSetupFromJSON saves the goal described by jsonStr and seeds the
// firm holidays of its year.
func (h *Handler) createSetupFromJSON(ctx context.Context, user generic.UserID, jsonStr string) error {
	setup, err := h.Setups.ParseSetup(user, jsonStr)
	if err != nil {
		return err
	}
	if err := h.Store.SaveGoal(ctx, setup.Goal); err != nil {
		return err
	}
	return h.seedHolidays(ctx, user, setup.Goal.Year)
}

// logAgainstPlan logs hours(day, planned) on every plan day of year before today.
func (h *Handler) logAgainstPlan(ctx context.Context, user generic.UserID, year int, hours func(generic.TimePoint, decimal.Decimal) decimal.Decimal) error {
	pc, err := h.loadPlan(ctx, user, year)
	if err != nil {
		return err
	}
	today := h.today()
	for _, d := range pc.allocation.Plan.Days() {
		if !d.Before(today) {
			break
		}
		v := hours(d, pc.allocation.Plan[d])
		if !v.IsPositive() {
			continue
		}
		if _, err := h.Store.UpsertLog(ctx, generic.LoggedHour{UserID: user, Date: d, Hours: v}); err != nil {
			return err
		}
	}
	return nil
}

// nthWeekday returns the n-th (1-based) wd of month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) generic.TimePoint {
	d := generic.StartOfMonth(year, month)
	for d.Weekday() != wd {
		d = d.AddDays(1)
	}
	return d.AddDays(7 * (n - 1))
}
