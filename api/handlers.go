/*
handlers.go - HTTP API handlers for the billable-hours planner

PURPOSE:
  Exposes the planner via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to planner/. Plans and reports are never
  stored; every request reloads the goal, calendar and logs and recomputes.

ENDPOINTS:
  Planner (X-User-ID required):
    GET    /api/planner/dashboard   Dashboard for ?as_of and ?month=YYYY-MM
    GET    /api/planner/plan        Daily plan and monthly targets for ?year
    GET    /api/planner/analytics   Window metrics, comparison, habits, projection
    POST   /api/planner/catchup     Catch-up schedules
    GET    /api/planner/logs        Logged hours in [?from, ?to]
    POST   /api/planner/logs        Log hours for a date (replaces)
    GET    /api/planner/setup       Goal, weights, calendars (created on first use)
    PUT    /api/planner/setup       Update goal, weights, allocation policy
    GET/POST/DELETE /api/planner/holidays
    GET/POST/DELETE /api/planner/vacations

  Admin:
    POST   /api/admin/rollover      Carry goals into the next year
    GET    /api/admin/rollover/runs Rollover history

  Scenarios:
    GET    /api/scenarios           List demo scenarios
    POST   /api/scenarios/load      Load a demo scenario
    POST   /api/scenarios/reset     Clear the database

REQUEST FLOW:
  1. Parse HTTP request
  2. Load goal, holidays, vacations, logs from the Store
  3. Call planner/ (BuildPlan, Analyze, SuggestPlans)
  4. Serialize response

ERROR HANDLING:
  writeDomainError maps the generic error categories:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Configuration errors (no goal for the year, nothing to plan on)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - scheduler.go: Goal rollover
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/config"
	"github.com/warp/billable-planner/factory"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/planner"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    generic.Store
	Setups   *factory.SetupFactory
	Holidays planner.HolidayTable
	Defaults config.PlannerConfig
	Logger   *log.Logger

	// Clock supplies "today"; tests pin it.
	Clock func() time.Time

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler from configuration.
func NewHandler(store generic.Store, cfg *config.Config, logger *log.Logger) (*Handler, error) {
	holidays, err := cfg.HolidayTable(cfg.Planner.HolidayRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to load holiday table: %w", err)
	}
	return &Handler{
		Store: store,
		Setups: &factory.SetupFactory{
			DefaultPolicy:   cfg.Planner.AllocationPolicy,
			DefaultDailyCap: cfg.Planner.DailyCap,
		},
		Holidays: holidays,
		Defaults: cfg.Planner,
		Logger:   logger,
		Clock:    time.Now,
	}, nil
}

func (h *Handler) today() generic.TimePoint {
	return generic.DayOf(h.Clock())
}

// =============================================================================
// PLAN LOADING
// =============================================================================

// planContext is everything one user's year is computed from.
type planContext struct {
	goal       *generic.Goal
	allocation *planner.Allocation
	holidays   []generic.Holiday
	vacations  []generic.VacationDay
	logs       generic.LogIndex
}

// loadPlan builds the year's plan and log index. A missing goal surfaces
// as a ConfigurationError from planner.BuildPlan.
func (h *Handler) loadPlan(ctx context.Context, user generic.UserID, year int) (*planContext, error) {
	goal, err := h.Store.GetGoal(ctx, user, year)
	if err != nil && !errors.Is(err, generic.ErrGoalNotFound) {
		return nil, err
	}
	holidays, err := h.Store.ListHolidays(ctx, user)
	if err != nil {
		return nil, err
	}
	vacations, err := h.Store.ListVacations(ctx, user)
	if err != nil {
		return nil, err
	}

	var allocator *planner.Allocator
	if goal != nil {
		if allocator, err = h.Setups.AllocatorFor(*goal); err != nil {
			return nil, err
		}
	}
	alloc, err := planner.BuildPlan(year, goal, holidays, vacations, allocator)
	if err != nil {
		return nil, err
	}

	logs, err := h.loadLogs(ctx, user, generic.YearPeriod(year))
	if err != nil {
		return nil, err
	}
	return &planContext{goal: goal, allocation: alloc, holidays: holidays, vacations: vacations, logs: logs}, nil
}

func (h *Handler) loadLogs(ctx context.Context, user generic.UserID, period generic.Period) (generic.LogIndex, error) {
	records, err := h.Store.LogsInRange(ctx, user, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	return generic.IndexLogs(records)
}

// ensureSetup returns the user's goal for year, creating it with the
// configured defaults on first access. Firm holidays for year are seeded
// from the holiday table when the user has none dated in that year.
func (h *Handler) ensureSetup(ctx context.Context, user generic.UserID, year int) (*generic.Goal, error) {
	goal, err := h.Store.GetGoal(ctx, user, year)
	if err == nil {
		return goal, nil
	}
	if !errors.Is(err, generic.ErrGoalNotFound) {
		return nil, err
	}

	target, err := generic.ParseHours("default_annual_goal", h.Defaults.DefaultAnnualGoal)
	if err != nil {
		return nil, err
	}
	created := generic.NewDefaultGoal(user, year, target)
	if err := h.Store.SaveGoal(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	if err := h.seedHolidays(ctx, user, year); err != nil {
		return nil, err
	}

	h.Logger.Info("created default goal", "user", user, "year", year, "target", target)
	return &created, nil
}

func (h *Handler) seedHolidays(ctx context.Context, user generic.UserID, year int) error {
	existing, err := h.Store.ListHolidays(ctx, user)
	if err != nil {
		return err
	}
	for _, hol := range existing {
		if hol.Date.Year() == year {
			return nil
		}
	}
	for _, hol := range h.Holidays.SeedHolidays(user, year) {
		if _, err := h.Store.SaveHoliday(ctx, hol); err != nil {
			return fmt.Errorf("failed to seed holiday %s: %w", hol.Date, err)
		}
	}
	return nil
}

// =============================================================================
// DASHBOARD / PLAN / ANALYTICS
// =============================================================================

// GetDashboard returns the dashboard for ?as_of (default today) and
// ?month=YYYY-MM (default as_of's month).
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	asOf, err := dayParam(r, "as_of", h.today())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	year, month := asOf.Year(), asOf.Month()
	if s := r.URL.Query().Get("month"); s != "" {
		t, err := time.Parse("2006-01", s)
		if err != nil {
			writeDomainError(w, &generic.ValidationError{Field: "month", Value: s, Reason: "expected YYYY-MM"})
			return
		}
		year, month = t.Year(), t.Month()
	}

	pc, err := h.loadPlan(r.Context(), user, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	report, err := planner.Analyze(planner.AnalyzeInput{
		Plan:       pc.allocation.Plan,
		Logs:       pc.logs,
		AnnualGoal: pc.goal.AnnualTarget,
		Year:       year,
		Month:      month,
		AsOf:       asOf,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDashboardDTO(report, pc.allocation))
}

// GetPlan returns the full allocation for ?year (default current year).
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r, h.today().Year())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	pc, err := h.loadPlan(r.Context(), UserFrom(r.Context()), year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(pc.allocation))
}

// GetAnalytics returns metrics for [?from, ?to] (default Jan 1 to as_of),
// an optional comparison against [?compare_from, ?compare_to], and the
// habit and projection figures as of ?as_of.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	asOf, err := dayParam(r, "as_of", h.today())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	from, err := dayParam(r, "from", generic.StartOfYear(asOf.Year()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	to, err := dayParam(r, "to", asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	window, err := generic.NewPeriod(from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if from.Year() != to.Year() {
		writeDomainError(w, &generic.ValidationError{Field: "to", Value: to.String(), Reason: "window must stay within one year"})
		return
	}

	var comparison *generic.Period
	cmpFrom, cmpTo := r.URL.Query().Get("compare_from"), r.URL.Query().Get("compare_to")
	if cmpFrom != "" || cmpTo != "" {
		p, err := parseWindow(cmpFrom, cmpTo)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if p.Start.Year() != p.End.Year() {
			writeDomainError(w, &generic.ValidationError{Field: "compare_to", Value: p.End.String(), Reason: "window must stay within one year"})
			return
		}
		comparison = &p
	}

	user := UserFrom(r.Context())
	pc, err := h.loadPlan(r.Context(), user, from.Year())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	report, err := planner.Analyze(planner.AnalyzeInput{
		Plan:       pc.allocation.Plan,
		Logs:       pc.logs,
		AnnualGoal: pc.goal.AnnualTarget,
		Year:       from.Year(),
		AsOf:       asOf,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	primary := planner.ComputePeriodMetrics(pc.allocation.Plan, pc.logs, window)
	dto := AnalyticsDTO{
		AsOf:                  asOf.String(),
		Period:                toPeriodMetricsDTO(primary),
		MostProductiveWeekday: report.MostProductiveWeekday,
		LongestStreak:         report.LongestStreak,
		Projection:            toProjectionDTO(report.Projection),
		RollingAverage:        make([]float64, 0, len(report.RollingAverage)),
	}
	for _, t := range report.WeekdayTotals {
		dto.WeekdayTotals = append(dto.WeekdayTotals, WeekdayTotalDTO{Weekday: t.Weekday.String(), Hours: generic.HoursFloat(t.Hours)})
	}
	for _, v := range report.RollingAverage {
		dto.RollingAverage = append(dto.RollingAverage, generic.HoursFloat(v))
	}

	if comparison != nil {
		cmpPlan, cmpLogs := pc.allocation.Plan, pc.logs
		if comparison.Start.Year() != from.Year() {
			// The comparison window lives in another year: plan it separately.
			other, err := h.loadPlan(r.Context(), user, comparison.Start.Year())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			cmpPlan, cmpLogs = other.allocation.Plan, other.logs
		}
		c := planner.Compare(primary, planner.ComputePeriodMetrics(cmpPlan, cmpLogs, *comparison))
		dto.Comparison = toComparisonDTO(c)
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// CATCH-UP
// =============================================================================

// SuggestCatchUp proposes schedules to close a shortfall. Without
// hours_needed, the shortfall is how far the user is behind pace at from.
func (h *Handler) SuggestCatchUp(w http.ResponseWriter, r *http.Request) {
	var req CatchUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	user := UserFrom(r.Context())

	from := h.today()
	if req.From != "" {
		var err error
		if from, err = generic.ParseDay(req.From); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	in := planner.CatchUpInput{
		MaxWorkdayHours: generic.Hours(h.Defaults.CatchUp.MaxWorkdayHours),
		Weekend: planner.WeekendPolicy{
			Allow:    h.Defaults.CatchUp.AllowWeekends,
			MaxHours: generic.Hours(h.Defaults.CatchUp.WeekendMaxHours),
		},
		From: from,
	}
	if req.MaxWorkdayHours != nil {
		in.MaxWorkdayHours = generic.Hours(*req.MaxWorkdayHours)
	}
	if req.Weekend != nil {
		in.Weekend.Allow = req.Weekend.Allow
		if req.Weekend.MaxHours != nil {
			in.Weekend.MaxHours = generic.Hours(*req.Weekend.MaxHours)
		}
	}

	if req.HoursNeeded != nil {
		in.HoursNeeded = generic.Hours(*req.HoursNeeded)
		holidays, err := h.Store.ListHolidays(r.Context(), user)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		vacations, err := h.Store.ListVacations(r.Context(), user)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		in.Exclusions = append(generic.HolidayDates(holidays), generic.VacationDates(vacations)...)
	} else {
		pc, err := h.loadPlan(r.Context(), user, from.Year())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		yearMetrics := planner.ComputePeriodMetrics(pc.allocation.Plan, pc.logs, generic.YearPeriod(from.Year()))
		pace := planner.ComputePace(yearMetrics.Actual, yearMetrics.Target, from.Year(), from)
		in.HoursNeeded = decimal.Max(pace.Delta.Neg(), decimal.Zero).Round(2)
		in.Exclusions = append(generic.HolidayDates(pc.holidays), generic.VacationDates(pc.vacations)...)
	}

	schedules, err := planner.SuggestPlans(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := CatchUpDTO{
		HoursNeeded: generic.HoursFloat(in.HoursNeeded),
		From:        from.String(),
		Schedules:   make([]CatchUpScheduleDTO, 0, len(schedules)),
	}
	for _, s := range schedules {
		resp.Schedules = append(resp.Schedules, toCatchUpScheduleDTO(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// LOG HANDLERS
// =============================================================================

// ListLogs returns logged hours in [?from, ?to] (default: current year).
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	year := generic.YearPeriod(h.today().Year())
	from, err := dayParam(r, "from", year.Start)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	to, err := dayParam(r, "to", year.End)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := generic.NewPeriod(from, to); err != nil {
		writeDomainError(w, err)
		return
	}

	records, err := h.Store.LogsInRange(r.Context(), UserFrom(r.Context()), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list logs", err)
		return
	}
	dtos := make([]LogDTO, 0, len(records))
	for _, l := range records {
		dtos = append(dtos, toLogDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LogHours records the hours billed on a date, replacing any earlier value.
func (h *Handler) LogHours(w http.ResponseWriter, r *http.Request) {
	var req LogHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	hours, err := generic.ParseHours("hours", req.Hours)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	saved, err := h.Store.UpsertLog(r.Context(), generic.LoggedHour{
		UserID: UserFrom(r.Context()),
		Date:   date,
		Hours:  hours,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogDTO(saved))
}

// =============================================================================
// SETUP HANDLERS
// =============================================================================

// GetSetup returns the setup for ?year, creating the default goal on first use.
func (h *Handler) GetSetup(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r, h.today().Year())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	user := UserFrom(r.Context())

	goal, err := h.ensureSetup(r.Context(), user, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeSetup(r.Context(), w, *goal)
}

// UpdateSetup replaces the goal for the body's year (default current year).
func (h *Handler) UpdateSetup(w http.ResponseWriter, r *http.Request) {
	var sj factory.SetupJSON
	if err := json.NewDecoder(r.Body).Decode(&sj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if sj.Year == 0 {
		sj.Year = h.today().Year()
	}
	// The daily cap is configuration (planner.daily_cap); echoing it back is fine.
	if sj.DailyCap != 0 && sj.DailyCap != h.Setups.DefaultDailyCap {
		writeDomainError(w, &generic.ValidationError{
			Field:  "daily_cap",
			Value:  strconv.FormatFloat(sj.DailyCap, 'f', -1, 64),
			Reason: "the daily cap is set in configuration and cannot be changed per user",
		})
		return
	}
	user := UserFrom(r.Context())

	// Fields left out keep their stored values.
	current, err := h.ensureSetup(r.Context(), user, sj.Year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sj.AnnualGoal == nil {
		target := generic.HoursFloat(current.AnnualTarget)
		sj.AnnualGoal = &target
	}
	if sj.WorkloadWeights == nil {
		sj.WorkloadWeights = current.Weights.Clone()
	}
	if sj.AllocationPolicy == "" {
		sj.AllocationPolicy = current.Policy
	}

	setup, err := h.Setups.FromJSON(user, sj)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.SaveGoal(r.Context(), setup.Goal); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save setup", err)
		return
	}

	h.Logger.Info("updated setup", "user", user, "year", sj.Year, "target", setup.Goal.AnnualTarget)
	h.writeSetup(r.Context(), w, setup.Goal)
}

func (h *Handler) writeSetup(ctx context.Context, w http.ResponseWriter, goal generic.Goal) {
	a, err := h.Setups.AllocatorFor(goal)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	holidays, err := h.Store.ListHolidays(ctx, goal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	vacations, err := h.Store.ListVacations(ctx, goal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vacations", err)
		return
	}

	dto := SetupDTO{
		Setup:     h.Setups.ToJSON(goal, a),
		Holidays:  make([]HolidayDTO, 0, len(holidays)),
		Vacations: make([]VacationDTO, 0, len(vacations)),
	}
	for _, hol := range holidays {
		dto.Holidays = append(dto.Holidays, toHolidayDTO(hol))
	}
	for _, v := range vacations {
		dto.Vacations = append(dto.Vacations, toVacationDTO(v))
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the user's holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context(), UserFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a firm-wide or personal holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Name == "" {
		writeDomainError(w, &generic.ValidationError{Field: "name", Value: "", Reason: "required"})
		return
	}

	scope := generic.ScopePersonal
	if req.IsFirm {
		scope = generic.ScopeFirm
	}
	saved, err := h.Store.SaveHoliday(r.Context(), generic.Holiday{
		UserID: UserFrom(r.Context()),
		Date:   date,
		Name:   req.Name,
		Scope:  scope,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// DeleteHoliday removes one of the user's holidays.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// VACATION HANDLERS
// =============================================================================

// ListVacations returns the user's vacation days.
func (h *Handler) ListVacations(w http.ResponseWriter, r *http.Request) {
	vacations, err := h.Store.ListVacations(r.Context(), UserFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vacations", err)
		return
	}
	dtos := make([]VacationDTO, 0, len(vacations))
	for _, v := range vacations {
		dtos = append(dtos, toVacationDTO(v))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateVacation adds a vacation day. Adding an existing date returns it unchanged.
func (h *Handler) CreateVacation(w http.ResponseWriter, r *http.Request) {
	var req CreateVacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	saved, err := h.Store.SaveVacation(r.Context(), generic.VacationDay{UserID: UserFrom(r.Context()), Date: date})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create vacation day", err)
		return
	}
	writeJSON(w, http.StatusCreated, toVacationDTO(saved))
}

// DeleteVacation removes one of the user's vacation days.
func (h *Handler) DeleteVacation(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteVacation(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerRollover carries every goal of to_year-1 into to_year.
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	var req RolloverRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	if req.ToYear == 0 {
		req.ToYear = h.today().Year()
	}

	result, err := RolloverGoals(r.Context(), h.Store, req.ToYear, h.Logger.WithPrefix("rollover"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListRolloverRuns returns the rollover history.
func (h *Handler) ListRolloverRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRolloverRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rollover runs", err)
		return
	}
	dtos := make([]RolloverRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRolloverRunDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears every record.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	h.Logger.Warn("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := map[string]string{"error": message}
	if err != nil {
		resp["details"] = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps an error category to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case generic.IsConfigurationError(err):
		writeError(w, http.StatusConflict, "Setup required", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// dayParam parses a YYYY-MM-DD query parameter, returning def when absent.
func dayParam(r *http.Request, name string, def generic.TimePoint) (generic.TimePoint, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	d, err := generic.ParseDay(s)
	if err != nil {
		return generic.TimePoint{}, &generic.ValidationError{Field: name, Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

func yearParam(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("year")
	if s == "" {
		return def, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return 0, &generic.ValidationError{Field: "year", Value: s, Reason: "expected a four-digit year"}
	}
	return year, nil
}

func parseWindow(from, to string) (generic.Period, error) {
	start, err := generic.ParseDay(from)
	if err != nil {
		return generic.Period{}, &generic.ValidationError{Field: "compare_from", Value: from, Reason: "expected YYYY-MM-DD"}
	}
	end, err := generic.ParseDay(to)
	if err != nil {
		return generic.Period{}, &generic.ValidationError{Field: "compare_to", Value: to, Reason: "expected YYYY-MM-DD"}
	}
	return generic.NewPeriod(start, end)
}
