/*
progress.go - Logged hours measured against the daily plan

PURPOSE:
  Combines a DailyPlan with the user's logged hours and produces every
  number the dashboard shows: month and year totals, pace against a linear
  expectation, catch-up hours per remaining day, per-day calendar status,
  cumulative trend series, weekday distribution, streaks and a rolling
  average.

KEY INSIGHT:
  Month, year and comparison figures are all the same computation over a
  different date window. ComputePeriodMetrics is that computation; Analyze
  calls it once per window.

TARGET VS. ACTUAL:
  Targets only exist on plan days, so actual-vs-target sums only look at
  hours logged on plan days. Hours logged on a weekend or holiday still
  count for the weekday distribution and for streaks.

PACE:
  expected = yearTarget × dayOfYear(asOf) / daysInYear
  delta    = yearActual − expected
  status   = ahead (delta > 0) | behind (delta < 0) | on track (delta == 0)

SEE ALSO:
  - allocation.go: produces the DailyPlan
  - projection.go: year-end projection
  - stats.go: streak / rolling average / percent change helpers
*/
package planner

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/generic"
)

// RecentDaysCount is how many past plan days the dashboard lists.
const RecentDaysCount = 5

// =============================================================================
// PERIOD METRICS
// =============================================================================

// DayPoint is one plan day of a trend series.
type DayPoint struct {
	Date             generic.TimePoint
	Target           decimal.Decimal
	Actual           decimal.Decimal
	CumulativeTarget decimal.Decimal
	CumulativeActual decimal.Decimal
}

// PeriodMetrics is the target/actual picture of one date window.
type PeriodMetrics struct {
	Period      generic.Period
	Target      decimal.Decimal
	Actual      decimal.Decimal
	PlannedDays int
	LoggedDays  int // plan days with hours > 0
	Points      []DayPoint
}

// AverageActual is the mean logged hours per planned day of the window.
func (m PeriodMetrics) AverageActual() decimal.Decimal {
	if m.PlannedDays == 0 {
		return decimal.Zero
	}
	return m.Actual.Div(decimal.NewFromInt(int64(m.PlannedDays)))
}

// ComputePeriodMetrics sums targets and actuals over the plan days inside
// period and builds the running totals in date order.
func ComputePeriodMetrics(plan DailyPlan, logs generic.LogIndex, period generic.Period) PeriodMetrics {
	m := PeriodMetrics{Period: period, Target: decimal.Zero, Actual: decimal.Zero}
	for _, d := range plan.Within(period).Days() {
		target := plan[d]
		actual := logs.Get(d)
		m.Target = m.Target.Add(target)
		m.Actual = m.Actual.Add(actual)
		m.PlannedDays++
		if actual.IsPositive() {
			m.LoggedDays++
		}
		m.Points = append(m.Points, DayPoint{
			Date:             d,
			Target:           target,
			Actual:           actual,
			CumulativeTarget: m.Target,
			CumulativeActual: m.Actual,
		})
	}
	return m
}

// PeriodComparison relates a primary window to a comparison window.
type PeriodComparison struct {
	Primary    PeriodMetrics
	Comparison PeriodMetrics

	// Percent changes; the *OK flag is false when both sides are zero.
	ActualChange    decimal.Decimal
	ActualChangeOK  bool
	TargetChange    decimal.Decimal
	TargetChangeOK  bool
	AverageChange   decimal.Decimal
	AverageChangeOK bool
}

// Compare computes period-over-period percent changes.
func Compare(primary, comparison PeriodMetrics) PeriodComparison {
	c := PeriodComparison{Primary: primary, Comparison: comparison}
	c.ActualChange, c.ActualChangeOK = PercentChange(primary.Actual, comparison.Actual)
	c.TargetChange, c.TargetChangeOK = PercentChange(primary.Target, comparison.Target)
	c.AverageChange, c.AverageChangeOK = PercentChange(primary.AverageActual(), comparison.AverageActual())
	return c
}

// =============================================================================
// PACE
// =============================================================================

// PaceStatus is the sign of the pace delta.
type PaceStatus string

const (
	PaceAhead   PaceStatus = "ahead"
	PaceBehind  PaceStatus = "behind"
	PaceOnTrack PaceStatus = "on track"
)

// Pace compares year-to-date actual hours with a linear expectation.
type Pace struct {
	Expected decimal.Decimal
	Delta    decimal.Decimal // actual − expected
	Status   PaceStatus
}

// Summary renders the pace the way the dashboard prints it, e.g. "12.5 hours ahead".
func (p Pace) Summary() string {
	if p.Status == PaceOnTrack {
		return string(PaceOnTrack)
	}
	return fmt.Sprintf("%s hours %s", p.Delta.Abs().Round(1).String(), p.Status)
}

// YearFraction is the elapsed fraction of year at asOf, clamped to [0, 1].
func YearFraction(year int, asOf generic.TimePoint) decimal.Decimal {
	switch {
	case asOf.Year() < year:
		return decimal.Zero
	case asOf.Year() > year:
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(asOf.YearDay())).Div(decimal.NewFromInt(int64(generic.DaysInYear(year))))
}

// ComputePace applies the linear expectation to the year totals.
func ComputePace(yearActual, yearTarget decimal.Decimal, year int, asOf generic.TimePoint) Pace {
	expected := yearTarget.Mul(YearFraction(year, asOf))
	delta := yearActual.Sub(expected)
	p := Pace{Expected: expected, Delta: delta, Status: PaceOnTrack}
	switch {
	case delta.IsPositive():
		p.Status = PaceAhead
	case delta.IsNegative():
		p.Status = PaceBehind
	}
	return p
}

// =============================================================================
// DAY STATUS
// =============================================================================

// DayStatusKind classifies a calendar cell.
type DayStatusKind string

const (
	StatusNonWork DayStatusKind = "nonwork"
	StatusToday   DayStatusKind = "today"
	StatusNoLog   DayStatusKind = "no-log"
	StatusOnTrack DayStatusKind = "on-track"
	StatusPartial DayStatusKind = "partial"
)

// DayStatus is one calendar cell.
type DayStatus struct {
	Date      generic.TimePoint
	HasTarget bool
	Target    decimal.Decimal
	Logged    decimal.Decimal
	Status    DayStatusKind
}

// ClassifyDay applies, in order: nonwork, today, no-log, on-track, partial.
func ClassifyDay(day, asOf generic.TimePoint, plan DailyPlan, logs generic.LogIndex) DayStatus {
	target, ok := plan[day]
	ds := DayStatus{Date: day, HasTarget: ok, Target: target, Logged: logs.Get(day)}
	switch {
	case !ok:
		ds.Target = decimal.Zero
		ds.Status = StatusNonWork
	case day == asOf:
		ds.Status = StatusToday
	case !ds.Logged.IsPositive():
		ds.Status = StatusNoLog
	case ds.Logged.GreaterThanOrEqual(target):
		ds.Status = StatusOnTrack
	default:
		ds.Status = StatusPartial
	}
	return ds
}

// =============================================================================
// ANALYZE
// =============================================================================

// AnalyzeInput is everything the analyzer needs. Month and Year default to AsOf's.
type AnalyzeInput struct {
	Plan       DailyPlan
	Logs       generic.LogIndex
	AnnualGoal decimal.Decimal
	Year       int
	Month      time.Month
	AsOf       generic.TimePoint
	Comparison *generic.Period
}

// ProgressReport is the analyzer output.
type ProgressReport struct {
	AsOf       generic.TimePoint
	Year       int
	Month      time.Month
	AnnualGoal decimal.Decimal

	MonthMetrics PeriodMetrics
	YearMetrics  PeriodMetrics
	Comparison   *PeriodComparison // MonthMetrics vs. the requested window

	Pace              Pace
	CatchUpPerDay     decimal.Decimal
	RemainingWorkdays int
	YearPercent       decimal.Decimal
	MonthPercent      decimal.Decimal

	Calendar   []DayStatus
	RecentDays []DayStatus

	WeekdayTotals         []WeekdayTotal
	MostProductiveWeekday string // empty when nothing was logged
	LongestStreak         int
	RollingAverage        []decimal.Decimal

	Projection GoalProjection
}

func (in *AnalyzeInput) normalize() error {
	if in.AsOf.IsZero() {
		return &generic.ValidationError{Field: "as_of", Value: "", Reason: "reference date is required"}
	}
	if in.Year == 0 {
		in.Year = in.AsOf.Year()
	}
	if in.Month == 0 {
		in.Month = in.AsOf.Month()
	}
	if in.Month < time.January || in.Month > time.December {
		return &generic.ValidationError{Field: "month", Value: int(in.Month), Reason: "must be 1-12"}
	}
	if err := generic.ValidateHours("annual_goal", in.AnnualGoal); err != nil {
		return err
	}
	for d, h := range in.Logs {
		if err := generic.ValidateHours("hours on "+d.String(), h); err != nil {
			return err
		}
	}
	if in.Comparison != nil {
		if err := in.Comparison.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Analyze produces the ProgressReport. It is idempotent and never mutates its input.
func Analyze(input AnalyzeInput) (*ProgressReport, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	plan, logs, asOf := input.Plan, input.Logs, input.AsOf
	yearPeriod := generic.YearPeriod(input.Year)
	monthPeriod := generic.MonthPeriod(input.Year, input.Month)

	r := &ProgressReport{
		AsOf:         asOf,
		Year:         input.Year,
		Month:        input.Month,
		AnnualGoal:   input.AnnualGoal,
		MonthMetrics: ComputePeriodMetrics(plan, logs, monthPeriod),
		YearMetrics:  ComputePeriodMetrics(plan, logs, yearPeriod),
	}
	if input.Comparison != nil {
		cmp := Compare(r.MonthMetrics, ComputePeriodMetrics(plan, logs, *input.Comparison))
		r.Comparison = &cmp
	}

	// Pace and catch-up.
	r.Pace = ComputePace(r.YearMetrics.Actual, r.YearMetrics.Target, input.Year, asOf)
	for _, p := range r.YearMetrics.Points {
		if p.Date.AfterOrEqual(asOf) {
			r.RemainingWorkdays++
		}
	}
	r.CatchUpPerDay = decimal.Zero
	if r.RemainingWorkdays > 0 {
		left := decimal.Max(input.AnnualGoal.Sub(r.YearMetrics.Actual), decimal.Zero)
		r.CatchUpPerDay = left.Div(decimal.NewFromInt(int64(r.RemainingWorkdays))).Round(2)
	}
	r.YearPercent = percentOf(r.YearMetrics.Actual, input.AnnualGoal)
	r.MonthPercent = percentOf(r.MonthMetrics.Actual, r.MonthMetrics.Target)

	// Calendar cells for the displayed month.
	for _, d := range monthPeriod.Days() {
		r.Calendar = append(r.Calendar, ClassifyDay(d, asOf, plan, logs))
	}

	// Most recent plan days up to asOf, newest first.
	pts := r.YearMetrics.Points
	for i := len(pts) - 1; i >= 0 && len(r.RecentDays) < RecentDaysCount; i-- {
		if pts[i].Date.After(asOf) {
			continue
		}
		r.RecentDays = append(r.RecentDays, ClassifyDay(pts[i].Date, asOf, plan, logs))
	}

	// Habits.
	r.WeekdayTotals = WeekdayDistribution(logs)
	if wd, ok := MostProductiveWeekday(r.WeekdayTotals); ok {
		r.MostProductiveWeekday = wd.String()
	}
	r.LongestStreak = LongestStreak(StreakDays(plan, logs, yearPeriod), logs)

	var daily []decimal.Decimal
	for _, p := range pts {
		if p.Date.After(asOf) {
			break
		}
		daily = append(daily, p.Actual)
	}
	r.RollingAverage = RollingAverage(daily, RollingWindow)

	r.Projection = Project(plan, logs, input.AnnualGoal, asOf)
	return r, nil
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(1)
}
