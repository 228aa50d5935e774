/*
allocation.go - Annual goal → per-day targets

PURPOSE:
  Distributes the annual billable-hours goal across the working days of the
  year. Each month receives a share proportional to its weighted working
  days (working-day count × workload weight); the share is then spread
  evenly over that month's working days and capped per day.

ALGORITHM:
  1. Bucket working days by calendar month
  2. weighted[m] = count(m) × weight(m); total = Σ weighted[m]
  3. monthGoal[m] = weighted[m] / total × annualGoal
  4. The AllocationPolicy decides what happens to hours above the daily cap
  5. Every working day of m gets round(allocated[m] / count(m), 2)

ALLOCATION POLICIES:
  cap-and-drop (default):
    daily = min(monthGoal / count, cap). Hours above the cap are dropped, so
    the plan under-allocates the annual goal when the cap binds.
    MonthlyTarget shows round(monthGoal, 1), the uncapped month share.

  cap-and-redistribute:
    Hours above the cap move to the months that still have room, in
    proportion to their weighted days, until nothing more fits.
    MonthlyTarget shows the hours actually allocated to the month.

  Either way Allocation.Unallocated reports what could not be placed.

FAILURE:
  total == 0 (all weights zero, or no working days) → ConfigurationError.

SEE ALSO:
  - calendar.go: WorkingDays
  - progress.go: consumes the DailyPlan
*/
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/generic"
)

// DefaultDailyCap is the most hours a single day is ever planned for.
var DefaultDailyCap = decimal.NewFromInt(10)

// =============================================================================
// PLAN TYPES
// =============================================================================

// DailyPlan maps each planned working day to its target hours.
// A day is present iff it is a working day of a month with weighted days > 0.
type DailyPlan map[generic.TimePoint]decimal.Decimal

// Days returns the planned days in chronological order.
func (p DailyPlan) Days() []generic.TimePoint {
	days := make([]generic.TimePoint, 0, len(p))
	for d := range p {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Total sums every target in the plan.
func (p DailyPlan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range p {
		total = total.Add(v)
	}
	return total
}

// Within returns the part of the plan inside period.
func (p DailyPlan) Within(period generic.Period) DailyPlan {
	out := make(DailyPlan)
	for d, v := range p {
		if period.Contains(d) {
			out[d] = v
		}
	}
	return out
}

// MonthlyTarget maps month name to the month's target hours (informational).
type MonthlyTarget map[string]decimal.Decimal

// Total sums the twelve monthly targets.
func (m MonthlyTarget) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

// Allocation is the output of the allocator.
type Allocation struct {
	Year           int
	AnnualGoal     decimal.Decimal
	Policy         string
	DailyCap       decimal.Decimal
	Plan           DailyPlan
	MonthlyTargets MonthlyTarget
	WorkingDays    []generic.TimePoint

	// Unallocated is the part of the annual goal no day received.
	Unallocated decimal.Decimal
}

// =============================================================================
// ALLOCATION POLICY
// =============================================================================

// MonthShare is one month's slice of the annual goal, handed to a policy.
type MonthShare struct {
	Month        time.Month
	Days         []generic.TimePoint
	WeightedDays decimal.Decimal

	// Goal is the uncapped proportional share of the annual goal.
	Goal decimal.Decimal

	// Allocated is set by the policy: hours spread over Days.
	Allocated decimal.Decimal

	// Target is set by the policy: what MonthlyTarget reports.
	Target decimal.Decimal
}

func (s *MonthShare) capacity(dailyCap decimal.Decimal) decimal.Decimal {
	return dailyCap.Mul(decimal.NewFromInt(int64(len(s.Days))))
}

// AllocationPolicy decides what happens to hours above the daily cap.
type AllocationPolicy interface {
	Name() string
	// Distribute sets Allocated and Target on every share.
	Distribute(shares []*MonthShare, dailyCap decimal.Decimal)
}

const (
	PolicyCapAndDrop         = "cap-and-drop"
	PolicyCapAndRedistribute = "cap-and-redistribute"
)

// PolicyByName resolves a configured policy name. Empty means cap-and-drop.
func PolicyByName(name string) (AllocationPolicy, error) {
	switch name {
	case "", PolicyCapAndDrop:
		return CapAndDrop{}, nil
	case PolicyCapAndRedistribute:
		return CapAndRedistribute{}, nil
	default:
		return nil, &generic.ValidationError{Field: "allocation_policy", Value: name, Reason: "unknown policy"}
	}
}

// CapAndDrop caps each day and drops the excess.
type CapAndDrop struct{}

func (CapAndDrop) Name() string { return PolicyCapAndDrop }

func (CapAndDrop) Distribute(shares []*MonthShare, dailyCap decimal.Decimal) {
	for _, s := range shares {
		s.Allocated = decimal.Min(s.Goal, s.capacity(dailyCap))
		s.Target = s.Goal
	}
}

// CapAndRedistribute moves capped hours to months with spare capacity.
type CapAndRedistribute struct{}

func (CapAndRedistribute) Name() string { return PolicyCapAndRedistribute }

func (CapAndRedistribute) Distribute(shares []*MonthShare, dailyCap decimal.Decimal) {
	capped := make(map[*MonthShare]bool, len(shares))
	for _, s := range shares {
		s.Allocated = s.Goal
	}

	// Each pass caps at least one more month or stops.
	for pass := 0; pass <= len(shares); pass++ {
		excess := decimal.Zero
		for _, s := range shares {
			if capped[s] {
				continue
			}
			if limit := s.capacity(dailyCap); s.Allocated.GreaterThan(limit) {
				excess = excess.Add(s.Allocated.Sub(limit))
				s.Allocated = limit
				capped[s] = true
			}
		}
		if !excess.IsPositive() {
			break
		}

		openWeight := decimal.Zero
		for _, s := range shares {
			if !capped[s] {
				openWeight = openWeight.Add(s.WeightedDays)
			}
		}
		if !openWeight.IsPositive() {
			break
		}
		for _, s := range shares {
			if !capped[s] {
				s.Allocated = s.Allocated.Add(excess.Mul(s.WeightedDays).Div(openWeight))
			}
		}
	}

	for _, s := range shares {
		s.Target = s.Allocated
	}
}

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator distributes an annual goal over working days.
type Allocator struct {
	Policy   AllocationPolicy
	DailyCap decimal.Decimal
}

// NewAllocator fills in cap-and-drop and the 10-hour cap for zero values.
func NewAllocator(policy AllocationPolicy, dailyCap decimal.Decimal) *Allocator {
	if policy == nil {
		policy = CapAndDrop{}
	}
	if !dailyCap.IsPositive() {
		dailyCap = DefaultDailyCap
	}
	return &Allocator{Policy: policy, DailyCap: dailyCap}
}

// Allocate builds the DailyPlan and MonthlyTarget for goal.
func (a *Allocator) Allocate(goal generic.Goal, workingDays []generic.TimePoint) (*Allocation, error) {
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	if !a.DailyCap.IsPositive() {
		return nil, &generic.ValidationError{Field: "daily_cap", Value: a.DailyCap.String(), Reason: "must be positive"}
	}
	policy := a.Policy
	if policy == nil {
		policy = CapAndDrop{}
	}
	for _, d := range workingDays {
		if d.Year() != goal.Year {
			return nil, &generic.ValidationError{Field: "working_day", Value: d.String(), Reason: fmt.Sprintf("outside goal year %d", goal.Year)}
		}
	}

	// 1-2. Bucket by month, weigh, total.
	buckets := monthOf(workingDays)
	total := decimal.Zero
	var active []*MonthShare
	for m := time.January; m <= time.December; m++ {
		days := buckets[m]
		weighted := decimal.NewFromInt(int64(len(days))).Mul(decimal.NewFromFloat(goal.Weights.Weight(m)))
		total = total.Add(weighted)
		if weighted.IsPositive() {
			active = append(active, &MonthShare{Month: m, Days: days, WeightedDays: weighted})
		}
	}
	if !total.IsPositive() {
		return nil, &generic.ConfigurationError{Year: goal.Year, Cause: generic.ErrZeroWeightedDays}
	}

	// 3. Proportional month goals.
	for _, s := range active {
		s.Goal = s.WeightedDays.Mul(goal.AnnualTarget).Div(total)
	}

	// 4. Cap handling.
	policy.Distribute(active, a.DailyCap)

	// 5. Spread over days.
	alloc := &Allocation{
		Year:           goal.Year,
		AnnualGoal:     goal.AnnualTarget,
		Policy:         policy.Name(),
		DailyCap:       a.DailyCap,
		Plan:           make(DailyPlan, len(workingDays)),
		MonthlyTargets: make(MonthlyTarget, 12),
		WorkingDays:    append([]generic.TimePoint(nil), workingDays...),
	}
	for _, name := range generic.Months {
		alloc.MonthlyTargets[name] = decimal.Zero
	}

	placed := decimal.Zero
	for _, s := range active {
		daily := s.Allocated.Div(decimal.NewFromInt(int64(len(s.Days))))
		daily = decimal.Min(daily, a.DailyCap).Round(2)
		for _, d := range s.Days {
			alloc.Plan[d] = daily
		}
		placed = placed.Add(s.Allocated)
		alloc.MonthlyTargets[generic.MonthName(s.Month)] = s.Target.Round(1)
	}

	alloc.Unallocated = decimal.Max(goal.AnnualTarget.Sub(placed), decimal.Zero).Round(2)
	return alloc, nil
}

// BuildPlan resolves the working days of year and allocates goal over them.
// A nil goal means the user never completed setup for year.
func BuildPlan(year int, goal *generic.Goal, holidays []generic.Holiday, vacations []generic.VacationDay, a *Allocator) (*Allocation, error) {
	if goal == nil {
		return nil, &generic.ConfigurationError{Year: year, Cause: generic.ErrGoalNotFound}
	}
	if a == nil {
		a = NewAllocator(nil, decimal.Zero)
	}
	days := WorkingDays(goal.Year, generic.HolidayDates(holidays), generic.VacationDates(vacations))
	return a.Allocate(*goal, days)
}
