/*
projection.go - Where the year ends up at the current pace

PURPOSE:
  Answers "if I keep billing like this, do I make my goal?" from the plan
  and the hours logged so far. Only plan days are counted, the same way
  the progress figures are.

DEFINITIONS:
  elapsed   = plan days <= asOf
  remaining = plan days >  asOf

  ExpectedToDate          = Σ target over elapsed days
  PercentComplete         = actual / annualGoal × 100
  RequiredPerRemainingDay = max(annualGoal − actual, 0) / remaining
  ProjectedYearEnd        = actual / elapsed × (elapsed + remaining)
  DaysAheadBehind         = (actual − ExpectedToDate) / (annualGoal / planDays)

  DaysAheadBehind is measured in "average workdays": one unit is the annual
  goal spread evenly over every plan day. It is an approximation; a heavy
  month has a larger real day target than the unit.

SEE ALSO:
  - progress.go: Analyze embeds a GoalProjection in the report
*/
package planner

import (
	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/generic"
)

// GoalProjection is the year-end outlook at AsOf.
type GoalProjection struct {
	AsOf       generic.TimePoint
	AnnualGoal decimal.Decimal

	ActualToDate   decimal.Decimal
	ExpectedToDate decimal.Decimal

	ElapsedDays   int
	RemainingDays int

	PercentComplete         decimal.Decimal
	RequiredPerRemainingDay decimal.Decimal
	ProjectedYearEnd        decimal.Decimal
	DaysAheadBehind         decimal.Decimal

	// OnTrack is true when the projected year end reaches the goal.
	OnTrack bool
}

// Project computes the GoalProjection. Every division guards its denominator;
// an empty plan yields an all-zero projection.
func Project(plan DailyPlan, logs generic.LogIndex, annualGoal decimal.Decimal, asOf generic.TimePoint) GoalProjection {
	p := GoalProjection{
		AsOf:                    asOf,
		AnnualGoal:              annualGoal,
		ActualToDate:            decimal.Zero,
		ExpectedToDate:          decimal.Zero,
		PercentComplete:         decimal.Zero,
		RequiredPerRemainingDay: decimal.Zero,
		ProjectedYearEnd:        decimal.Zero,
		DaysAheadBehind:         decimal.Zero,
	}

	for _, d := range plan.Days() {
		if d.After(asOf) {
			p.RemainingDays++
			continue
		}
		p.ElapsedDays++
		p.ExpectedToDate = p.ExpectedToDate.Add(plan[d])
		p.ActualToDate = p.ActualToDate.Add(logs.Get(d))
	}
	total := p.ElapsedDays + p.RemainingDays

	if annualGoal.IsPositive() {
		p.PercentComplete = p.ActualToDate.Div(annualGoal).Mul(hundred).Round(1)
	}
	if p.RemainingDays > 0 {
		left := decimal.Max(annualGoal.Sub(p.ActualToDate), decimal.Zero)
		p.RequiredPerRemainingDay = left.Div(decimal.NewFromInt(int64(p.RemainingDays))).Round(2)
	}
	if p.ElapsedDays > 0 {
		perDay := p.ActualToDate.Div(decimal.NewFromInt(int64(p.ElapsedDays)))
		p.ProjectedYearEnd = perDay.Mul(decimal.NewFromInt(int64(total))).Round(1)
	}
	if total > 0 && annualGoal.IsPositive() {
		unit := annualGoal.Div(decimal.NewFromInt(int64(total)))
		p.DaysAheadBehind = p.ActualToDate.Sub(p.ExpectedToDate).Div(unit).Round(1)
	}
	p.OnTrack = p.ProjectedYearEnd.GreaterThanOrEqual(annualGoal)
	return p
}
