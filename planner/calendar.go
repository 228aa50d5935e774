/*
Package planner turns a yearly billable-hours goal into a day-by-day plan
and measures logged hours against it.

PURPOSE:
  This is the planning and analytics engine. Every function here is a pure,
  deterministic transformation of caller-supplied collections: nothing is
  read from or written to a store, and inputs are never mutated.

COMPONENTS (leaf-first):
  calendar.go:   WorkingDays - the calendar resolver
  allocation.go: Allocator   - annual goal → per-day targets (AllocationPolicy)
  progress.go:   Analyze     - progress, pace, streaks, cumulative series
  projection.go: Project     - year-end projection of the goal
  stats.go:      RollingAverage, PercentChange, LongestStreak, WeekdayDistribution
  catchup.go:    SuggestPlans - gentle / moderate / aggressive catch-up schedules

DATA FLOW:
  WorkingDays → Allocator.Allocate → Analyze
  SuggestPlans runs on its own: it only needs a shortfall and a weekend policy.

CONCURRENCY:
  No state is kept between calls. Callers may run any number of plans in
  parallel for different users.

SEE ALSO:
  - generic/types.go: Goal, LoggedHour, MonthlyWeights
  - api/handlers.go: loads records and calls into this package
*/
package planner

import (
	"time"

	"github.com/warp/billable-planner/generic"
)

// =============================================================================
// CALENDAR RESOLVER
// =============================================================================

// WorkingDays returns every Monday-Friday of year, in ascending order,
// minus the supplied holiday and vacation dates. Dates outside year are ignored.
func WorkingDays(year int, holidays, vacations []generic.TimePoint) []generic.TimePoint {
	excluded := make(map[generic.TimePoint]struct{}, len(holidays)+len(vacations))
	for _, d := range holidays {
		excluded[d] = struct{}{}
	}
	for _, d := range vacations {
		excluded[d] = struct{}{}
	}

	days := make([]generic.TimePoint, 0, 262)
	for _, d := range generic.YearPeriod(year).Days() {
		if d.IsWeekend() {
			continue
		}
		if _, ok := excluded[d]; ok {
			continue
		}
		days = append(days, d)
	}
	return days
}

// =============================================================================
// HOLIDAY TABLE - injected, read-only holiday configuration
// =============================================================================

// HolidayEntry is one (date, label) pair of a regional holiday table.
type HolidayEntry struct {
	Date  generic.TimePoint
	Label string
}

// HolidayTable is the list of firm-wide holidays of a region. It comes from
// configuration so regions and years can change without a release.
type HolidayTable struct {
	Region  string
	Entries []HolidayEntry
}

// ForYear returns the entries dated in year, in table order.
func (t HolidayTable) ForYear(year int) []HolidayEntry {
	var out []HolidayEntry
	for _, e := range t.Entries {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}

// Years lists the distinct years the table covers.
func (t HolidayTable) Years() []int {
	seen := make(map[int]bool)
	var out []int
	for _, e := range t.Entries {
		if !seen[e.Date.Year()] {
			seen[e.Date.Year()] = true
			out = append(out, e.Date.Year())
		}
	}
	return out
}

// SeedHolidays converts the table entries for year into firm-wide holidays of user.
func (t HolidayTable) SeedHolidays(user generic.UserID, year int) []generic.Holiday {
	entries := t.ForYear(year)
	out := make([]generic.Holiday, 0, len(entries))
	for _, e := range entries {
		out = append(out, generic.Holiday{
			UserID: user,
			Date:   e.Date,
			Name:   e.Label,
			Scope:  generic.ScopeFirm,
		})
	}
	return out
}

// monthOf buckets a working-day list by calendar month.
func monthOf(days []generic.TimePoint) map[time.Month][]generic.TimePoint {
	buckets := make(map[time.Month][]generic.TimePoint, 12)
	for _, d := range days {
		buckets[d.Month()] = append(buckets[d.Month()], d)
	}
	return buckets
}
