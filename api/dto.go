/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the planner's decimal-based model from the external API contract. Hours
  leave the API as float64 and come in as float64; all arithmetic happens
  on decimal.Decimal in between.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FIELD NAMES:
  DashboardDTO uses the camelCase names the dashboard frontend binds to
  (yearProgress, monthActual, ...). Everything else uses snake_case.

TYPES:
  Setup:     SetupDTO (wraps factory.SetupJSON), HolidayDTO, VacationDTO
  Logs:      LogDTO, LogHoursRequest
  Plan:      PlanDTO, PlanDayDTO
  Dashboard: DashboardDTO, DayStatusDTO
  Analytics: AnalyticsDTO, PeriodMetricsDTO, ComparisonDTO, ProjectionDTO
  Catch-up:  CatchUpRequest, CatchUpScheduleDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest
  Rollover:  RolloverRunDTO

VALIDATION:
  Validation is done in handlers and in planner/, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/setup.go: SetupJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/factory"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/planner"
)

// =============================================================================
// SETUP
// =============================================================================

// SetupDTO is the setup screen: goal, weights and both calendars.
type SetupDTO struct {
	Setup     factory.SetupJSON `json:"setup"`
	Holidays  []HolidayDTO      `json:"holidays"`
	Vacations []VacationDTO     `json:"vacations"`
}

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Name   string `json:"name"`
	IsFirm bool   `json:"is_firm"`
}

// CreateHolidayRequest adds a holiday. IsFirm defaults to false (personal).
type CreateHolidayRequest struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	IsFirm bool   `json:"is_firm"`
}

// VacationDTO represents a vacation day in API responses.
type VacationDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

// CreateVacationRequest adds a vacation day.
type CreateVacationRequest struct {
	Date string `json:"date"`
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, IsFirm: h.Scope == generic.ScopeFirm}
}

func toVacationDTO(v generic.VacationDay) VacationDTO {
	return VacationDTO{ID: v.ID, Date: v.Date.String()}
}

// =============================================================================
// LOGS
// =============================================================================

// LogDTO is one day of logged hours.
type LogDTO struct {
	ID    string  `json:"id"`
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// LogHoursRequest records the hours billed on a date, replacing any earlier value.
type LogHoursRequest struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

func toLogDTO(l generic.LoggedHour) LogDTO {
	return LogDTO{ID: l.ID, Date: l.Date.String(), Hours: generic.HoursFloat(l.Hours)}
}

// =============================================================================
// PLAN
// =============================================================================

// PlanDayDTO is one planned day.
type PlanDayDTO struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// PlanDTO is the full allocation for a year.
type PlanDTO struct {
	Year           int                `json:"year"`
	AnnualGoal     float64            `json:"annual_goal"`
	Policy         string             `json:"allocation_policy"`
	DailyCap       float64            `json:"daily_cap"`
	WorkingDays    int                `json:"working_days"`
	PlannedTotal   float64            `json:"planned_total"`
	Unallocated    float64            `json:"unallocated"`
	MonthlyTargets map[string]float64 `json:"monthly_targets"`
	Days           []PlanDayDTO       `json:"days"`
}

func monthlyTargetsDTO(m planner.MonthlyTarget) map[string]float64 {
	out := make(map[string]float64, len(m))
	for name, v := range m {
		out[name] = generic.HoursFloat(v)
	}
	return out
}

func planDays(plan planner.DailyPlan) []PlanDayDTO {
	days := plan.Days()
	out := make([]PlanDayDTO, 0, len(days))
	for _, d := range days {
		out = append(out, PlanDayDTO{Date: d.String(), Hours: generic.HoursFloat(plan[d])})
	}
	return out
}

func toPlanDTO(a *planner.Allocation) PlanDTO {
	return PlanDTO{
		Year:           a.Year,
		AnnualGoal:     generic.HoursFloat(a.AnnualGoal),
		Policy:         a.Policy,
		DailyCap:       generic.HoursFloat(a.DailyCap),
		WorkingDays:    len(a.WorkingDays),
		PlannedTotal:   generic.HoursFloat(a.Plan.Total()),
		Unallocated:    generic.HoursFloat(a.Unallocated),
		MonthlyTargets: monthlyTargetsDTO(a.MonthlyTargets),
		Days:           planDays(a.Plan),
	}
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DayStatusDTO is one calendar cell or recent-day row.
type DayStatusDTO struct {
	Date   string   `json:"date"`
	Target *float64 `json:"target"`
	Logged float64  `json:"logged"`
	Status string   `json:"status"`
}

// DashboardDTO is the main dashboard payload.
type DashboardDTO struct {
	AsOf  string `json:"asOf"`
	Month string `json:"month"`

	AnnualGoal    float64 `json:"annualGoal"`
	YearActual    float64 `json:"yearActual"`
	YearTarget    float64 `json:"yearTarget"`
	YearProgress  float64 `json:"yearProgress"`
	MonthActual   float64 `json:"monthActual"`
	MonthTarget   float64 `json:"monthTarget"`
	MonthProgress float64 `json:"monthProgress"`

	Pace           string  `json:"pace"`
	PaceStatus     string  `json:"paceStatus"`
	PaceDelta      float64 `json:"paceDelta"`
	ExpectedToDate float64 `json:"expectedToDate"`

	CatchUpPerDay     float64 `json:"catchUpPerDay"`
	RemainingWorkdays int     `json:"remainingWorkdays"`

	RecentDays     []DayStatusDTO     `json:"recentDays"`
	Calendar       []DayStatusDTO     `json:"calendar"`
	MonthPlan      []PlanDayDTO       `json:"monthPlan"`
	MonthlyTargets map[string]float64 `json:"monthlyTargets"`
	Unallocated    float64            `json:"unallocated"`
}

func toDayStatusDTOs(days []planner.DayStatus) []DayStatusDTO {
	out := make([]DayStatusDTO, 0, len(days))
	for _, d := range days {
		dto := DayStatusDTO{
			Date:   d.Date.String(),
			Logged: generic.HoursFloat(d.Logged),
			Status: string(d.Status),
		}
		if d.HasTarget {
			target := generic.HoursFloat(d.Target)
			dto.Target = &target
		}
		out = append(out, dto)
	}
	return out
}

func toDashboardDTO(r *planner.ProgressReport, a *planner.Allocation) DashboardDTO {
	month := generic.MonthPeriod(r.Year, r.Month)
	return DashboardDTO{
		AsOf:              r.AsOf.String(),
		Month:             month.Start.Time.Format("2006-01"),
		AnnualGoal:        generic.HoursFloat(r.AnnualGoal),
		YearActual:        generic.HoursFloat(r.YearMetrics.Actual),
		YearTarget:        generic.HoursFloat(r.YearMetrics.Target),
		YearProgress:      generic.HoursFloat(r.YearPercent),
		MonthActual:       generic.HoursFloat(r.MonthMetrics.Actual),
		MonthTarget:       generic.HoursFloat(r.MonthMetrics.Target),
		MonthProgress:     generic.HoursFloat(r.MonthPercent),
		Pace:              r.Pace.Summary(),
		PaceStatus:        string(r.Pace.Status),
		PaceDelta:         generic.HoursFloat(r.Pace.Delta.Round(1)),
		ExpectedToDate:    generic.HoursFloat(r.Pace.Expected.Round(1)),
		CatchUpPerDay:     generic.HoursFloat(r.CatchUpPerDay),
		RemainingWorkdays: r.RemainingWorkdays,
		RecentDays:        toDayStatusDTOs(r.RecentDays),
		Calendar:          toDayStatusDTOs(r.Calendar),
		MonthPlan:         planDays(a.Plan.Within(month)),
		MonthlyTargets:    monthlyTargetsDTO(a.MonthlyTargets),
		Unallocated:       generic.HoursFloat(a.Unallocated),
	}
}

// =============================================================================
// ANALYTICS
// =============================================================================

// DayPointDTO is one point of the cumulative trend chart.
type DayPointDTO struct {
	Date             string  `json:"date"`
	Target           float64 `json:"target"`
	Actual           float64 `json:"actual"`
	CumulativeTarget float64 `json:"cumulative_target"`
	CumulativeActual float64 `json:"cumulative_actual"`
}

// PeriodMetricsDTO summarises one date window.
type PeriodMetricsDTO struct {
	From          string        `json:"from"`
	To            string        `json:"to"`
	Target        float64       `json:"target"`
	Actual        float64       `json:"actual"`
	PlannedDays   int           `json:"planned_days"`
	LoggedDays    int           `json:"logged_days"`
	AverageActual float64       `json:"average_actual"`
	Points        []DayPointDTO `json:"points"`
}

// ComparisonDTO compares the primary window with another one. Changes are
// null when both sides are zero.
type ComparisonDTO struct {
	Window        PeriodMetricsDTO `json:"window"`
	ActualChange  *float64         `json:"actual_change_pct"`
	TargetChange  *float64         `json:"target_change_pct"`
	AverageChange *float64         `json:"average_change_pct"`
}

// WeekdayTotalDTO is the hours logged on one weekday.
type WeekdayTotalDTO struct {
	Weekday string  `json:"weekday"`
	Hours   float64 `json:"hours"`
}

// ProjectionDTO is the year-end outlook.
type ProjectionDTO struct {
	ActualToDate            float64 `json:"actual_to_date"`
	ExpectedToDate          float64 `json:"expected_to_date"`
	ElapsedDays             int     `json:"elapsed_days"`
	RemainingDays           int     `json:"remaining_days"`
	PercentComplete         float64 `json:"percent_complete"`
	RequiredPerRemainingDay float64 `json:"required_per_remaining_day"`
	ProjectedYearEnd        float64 `json:"projected_year_end"`
	DaysAheadBehind         float64 `json:"days_ahead_behind"`
	OnTrack                 bool    `json:"on_track"`
}

// AnalyticsDTO is the analytics screen payload.
type AnalyticsDTO struct {
	AsOf                  string            `json:"as_of"`
	Period                PeriodMetricsDTO  `json:"period"`
	Comparison            *ComparisonDTO    `json:"comparison,omitempty"`
	WeekdayTotals         []WeekdayTotalDTO `json:"weekday_totals"`
	MostProductiveWeekday string            `json:"most_productive_weekday,omitempty"`
	LongestStreak         int               `json:"longest_streak"`
	RollingAverage        []float64         `json:"rolling_average"`
	Projection            ProjectionDTO     `json:"projection"`
}

func toPeriodMetricsDTO(m planner.PeriodMetrics) PeriodMetricsDTO {
	dto := PeriodMetricsDTO{
		From:          m.Period.Start.String(),
		To:            m.Period.End.String(),
		Target:        generic.HoursFloat(m.Target),
		Actual:        generic.HoursFloat(m.Actual),
		PlannedDays:   m.PlannedDays,
		LoggedDays:    m.LoggedDays,
		AverageActual: generic.HoursFloat(m.AverageActual().Round(2)),
		Points:        make([]DayPointDTO, 0, len(m.Points)),
	}
	for _, p := range m.Points {
		dto.Points = append(dto.Points, DayPointDTO{
			Date:             p.Date.String(),
			Target:           generic.HoursFloat(p.Target),
			Actual:           generic.HoursFloat(p.Actual),
			CumulativeTarget: generic.HoursFloat(p.CumulativeTarget),
			CumulativeActual: generic.HoursFloat(p.CumulativeActual),
		})
	}
	return dto
}

func pctPtr(v decimal.Decimal, ok bool) *float64 {
	if !ok {
		return nil
	}
	f := generic.HoursFloat(v)
	return &f
}

func toComparisonDTO(c planner.PeriodComparison) *ComparisonDTO {
	return &ComparisonDTO{
		Window:        toPeriodMetricsDTO(c.Comparison),
		ActualChange:  pctPtr(c.ActualChange, c.ActualChangeOK),
		TargetChange:  pctPtr(c.TargetChange, c.TargetChangeOK),
		AverageChange: pctPtr(c.AverageChange, c.AverageChangeOK),
	}
}

func toProjectionDTO(p planner.GoalProjection) ProjectionDTO {
	return ProjectionDTO{
		ActualToDate:            generic.HoursFloat(p.ActualToDate),
		ExpectedToDate:          generic.HoursFloat(p.ExpectedToDate),
		ElapsedDays:             p.ElapsedDays,
		RemainingDays:           p.RemainingDays,
		PercentComplete:         generic.HoursFloat(p.PercentComplete),
		RequiredPerRemainingDay: generic.HoursFloat(p.RequiredPerRemainingDay),
		ProjectedYearEnd:        generic.HoursFloat(p.ProjectedYearEnd),
		DaysAheadBehind:         generic.HoursFloat(p.DaysAheadBehind),
		OnTrack:                 p.OnTrack,
	}
}

// =============================================================================
// CATCH-UP
// =============================================================================

// WeekendRequest is the weekend part of a catch-up request.
type WeekendRequest struct {
	Allow    bool     `json:"allow"`
	MaxHours *float64 `json:"max_hours"`
}

// CatchUpRequest asks for catch-up schedules. Missing fields fall back to
// the configured defaults; a missing hours_needed means "whatever the
// user is behind pace as of from".
type CatchUpRequest struct {
	HoursNeeded     *float64        `json:"hours_needed"`
	MaxWorkdayHours *float64        `json:"max_workday_hours"`
	Weekend         *WeekendRequest `json:"weekend"`
	From            string          `json:"from"`
}

// CatchUpEntryDTO is one day of a schedule.
type CatchUpEntryDTO struct {
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	Weekend bool    `json:"weekend"`
}

// CatchUpScheduleDTO is one proposed schedule.
type CatchUpScheduleDTO struct {
	Strategy     string            `json:"strategy"`
	Label        string            `json:"label"`
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date"`
	DurationDays int               `json:"duration_days"`
	WorkdayCount int               `json:"workday_count"`
	WeekendCount int               `json:"weekend_count"`
	TotalHours   float64           `json:"total_hours"`
	Shortfall    float64           `json:"shortfall"`
	Entries      []CatchUpEntryDTO `json:"entries"`
}

// CatchUpDTO is the catch-up response.
type CatchUpDTO struct {
	HoursNeeded float64              `json:"hours_needed"`
	From        string               `json:"from"`
	Schedules   []CatchUpScheduleDTO `json:"schedules"`
}

func toCatchUpScheduleDTO(s planner.CatchUpSchedule) CatchUpScheduleDTO {
	dto := CatchUpScheduleDTO{
		Strategy:     string(s.Strategy),
		Label:        s.Label,
		StartDate:    s.StartDate.String(),
		EndDate:      s.EndDate.String(),
		DurationDays: s.DurationDays,
		WorkdayCount: s.WorkdayCount,
		WeekendCount: s.WeekendCount,
		TotalHours:   generic.HoursFloat(s.TotalHours),
		Shortfall:    generic.HoursFloat(s.Shortfall),
		Entries:      make([]CatchUpEntryDTO, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		dto.Entries = append(dto.Entries, CatchUpEntryDTO{Date: e.Date.String(), Hours: generic.HoursFloat(e.Hours), Weekend: e.Weekend})
	}
	return dto
}

// =============================================================================
// SCENARIOS & ROLLOVER
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// RolloverRequest triggers a rollover into ToYear (default: current year).
type RolloverRequest struct {
	ToYear int `json:"to_year"`
}

// RolloverRunDTO is one recorded rollover.
type RolloverRunDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	FromYear  int    `json:"from_year"`
	ToYear    int    `json:"to_year"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toRolloverRunDTO(r generic.RolloverRun) RolloverRunDTO {
	dto := RolloverRunDTO{
		ID:       r.ID,
		UserID:   string(r.UserID),
		FromYear: r.FromYear,
		ToYear:   r.ToYear,
		Status:   r.Status,
		Error:    r.Error,
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return dto
}
