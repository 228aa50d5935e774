/*
catchup.go - Rebalancing schedules for an hours shortfall

PURPOSE:
  Given how many hours are missing and how long a day may be, proposes
  three schedules that close the gap before the end of the year. It does
  not look at the DailyPlan: the caller hands in the shortfall and the
  dates that are off limits.

STRATEGIES:
  Gentle:     same hours every eligible day until Dec 31
  Moderate:   the same spread over roughly the first half of the eligible days
  Aggressive: every eligible day filled to its cap until the gap is closed

  Every strategy walks the eligible days in order and assigns
  min(remaining, rate, dayCap). Rates are rounded up to the next 0.01 so
  rounding never leaves a few minutes for an extra day. Hours left over
  because some days cap below the rate are then added, in date order, to
  days that still have room.

ELIGIBLE DAYS:
  From (inclusive) through Dec 31 of From's year, minus Exclusions.
  Weekends are skipped when the weekend policy disallows them or caps them at 0.

RESULT:
  A schedule with no entries (nothing needed, or no eligible day) is left
  out. Shortfall is only reported when the day caps through Dec 31 cannot
  hold the hours needed.
*/
package planner

import (
	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/generic"
)

// Strategy names a catch-up strategy.
type Strategy string

const (
	StrategyGentle     Strategy = "gentle"
	StrategyModerate   Strategy = "moderate"
	StrategyAggressive Strategy = "aggressive"
)

// Strategies is the order schedules are returned in.
var Strategies = []Strategy{StrategyGentle, StrategyModerate, StrategyAggressive}

// Label is the display name of the strategy.
func (s Strategy) Label() string {
	switch s {
	case StrategyGentle:
		return "Gentle"
	case StrategyModerate:
		return "Moderate"
	case StrategyAggressive:
		return "Aggressive"
	}
	return string(s)
}

// WeekendPolicy says whether weekend days may be used and how long they may be.
type WeekendPolicy struct {
	Allow    bool
	MaxHours decimal.Decimal
}

// CatchUpInput is what SuggestPlans works from.
type CatchUpInput struct {
	HoursNeeded     decimal.Decimal
	MaxWorkdayHours decimal.Decimal
	Weekend         WeekendPolicy
	From            generic.TimePoint
	Exclusions      []generic.TimePoint // holidays and vacation days
}

// Validate checks the numeric bounds and that From is set.
func (in CatchUpInput) Validate() error {
	if err := generic.ValidateHours("hours_needed", in.HoursNeeded); err != nil {
		return err
	}
	if !in.MaxWorkdayHours.IsPositive() {
		return &generic.ValidationError{Field: "max_workday_hours", Value: in.MaxWorkdayHours.String(), Reason: "must be positive"}
	}
	if err := generic.ValidateHours("weekend.max_hours", in.Weekend.MaxHours); err != nil {
		return err
	}
	if in.From.IsZero() {
		return &generic.ValidationError{Field: "from", Value: "", Reason: "start date is required"}
	}
	return nil
}

// CatchUpEntry is one day of a schedule.
type CatchUpEntry struct {
	Date    generic.TimePoint
	Hours   decimal.Decimal
	Weekend bool
}

// CatchUpSchedule is one labeled proposal.
type CatchUpSchedule struct {
	Strategy     Strategy
	Label        string
	Entries      []CatchUpEntry
	DurationDays int // inclusive span from first to last entry
	StartDate    generic.TimePoint
	EndDate      generic.TimePoint
	WorkdayCount int
	WeekendCount int
	TotalHours   decimal.Decimal
	Shortfall    decimal.Decimal // hours that did not fit before year end
}

// SuggestPlans returns the non-empty schedules in Strategies order.
func SuggestPlans(in CatchUpInput) ([]CatchUpSchedule, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	days := eligibleDays(in)
	out := make([]CatchUpSchedule, 0, len(Strategies))
	if len(days) == 0 || !in.HoursNeeded.IsPositive() {
		return out, nil
	}
	for _, s := range Strategies {
		sched := walk(s, in, days, dailyRate(s, in.HoursNeeded, len(days)))
		if len(sched.Entries) > 0 {
			out = append(out, sched)
		}
	}
	return out, nil
}

func eligibleDays(in CatchUpInput) []generic.TimePoint {
	excluded := make(map[generic.TimePoint]bool, len(in.Exclusions))
	for _, d := range in.Exclusions {
		excluded[d] = true
	}
	weekends := in.Weekend.Allow && in.Weekend.MaxHours.IsPositive()

	var days []generic.TimePoint
	period := generic.Period{Start: in.From, End: generic.EndOfYear(in.From.Year())}
	for _, d := range period.Days() {
		if excluded[d] || (d.IsWeekend() && !weekends) {
			continue
		}
		days = append(days, d)
	}
	return days
}

// dailyRate is the per-day target of a strategy; nil means "up to the cap".
func dailyRate(s Strategy, needed decimal.Decimal, eligible int) *decimal.Decimal {
	var spread int
	switch s {
	case StrategyGentle:
		spread = eligible
	case StrategyModerate:
		spread = (eligible + 1) / 2
	default:
		return nil
	}
	rate := needed.Div(decimal.NewFromInt(int64(spread))).RoundCeil(2)
	return &rate
}

func walk(s Strategy, in CatchUpInput, days []generic.TimePoint, rate *decimal.Decimal) CatchUpSchedule {
	sched := CatchUpSchedule{
		Strategy:   s,
		Label:      s.Label(),
		TotalHours: decimal.Zero,
	}

	caps := make([]decimal.Decimal, len(days))
	assigned := make([]decimal.Decimal, len(days))
	for i, d := range days {
		caps[i] = in.MaxWorkdayHours
		if d.IsWeekend() {
			caps[i] = in.Weekend.MaxHours
		}
		assigned[i] = decimal.Zero
	}

	remaining := in.HoursNeeded
	for i := range days {
		if !remaining.IsPositive() {
			break
		}
		hours := decimal.Min(remaining, caps[i])
		if rate != nil {
			hours = decimal.Min(hours, *rate)
		}
		assigned[i] = hours
		remaining = remaining.Sub(hours)
	}

	// Days capped below the rate leave hours over; place them on the
	// earliest days that still have room.
	for i := range days {
		if !remaining.IsPositive() {
			break
		}
		extra := decimal.Min(remaining, caps[i].Sub(assigned[i]))
		if !extra.IsPositive() {
			continue
		}
		assigned[i] = assigned[i].Add(extra)
		remaining = remaining.Sub(extra)
	}

	for i, d := range days {
		hours := assigned[i]
		if !hours.IsPositive() {
			continue
		}
		sched.Entries = append(sched.Entries, CatchUpEntry{Date: d, Hours: hours, Weekend: d.IsWeekend()})
		if d.IsWeekend() {
			sched.WeekendCount++
		} else {
			sched.WorkdayCount++
		}
		sched.TotalHours = sched.TotalHours.Add(hours)
	}
	sched.Shortfall = decimal.Max(remaining, decimal.Zero)

	if n := len(sched.Entries); n > 0 {
		sched.StartDate = sched.Entries[0].Date
		sched.EndDate = sched.Entries[n-1].Date
		sched.DurationDays = generic.DaysBetween(sched.StartDate, sched.EndDate) + 1
	}
	return sched
}
