package planner

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/generic"
)

// RollingWindow is the moving-average window used by the dashboard trend.
const RollingWindow = 7

var hundred = decimal.NewFromInt(100)

// RollingAverage returns the simple moving average of values.
// With fewer values than window the result is a single element holding the
// plain mean; otherwise it has len(values)-window+1 elements (valid windows only).
// An empty input yields nil.
func RollingAverage(values []decimal.Decimal, window int) []decimal.Decimal {
	n := len(values)
	if n == 0 || window <= 0 {
		return nil
	}
	if n < window {
		return []decimal.Decimal{mean(values)}
	}

	w := decimal.NewFromInt(int64(window))
	out := make([]decimal.Decimal, 0, n-window+1)
	sum := decimal.Sum(decimal.Zero, values[:window]...)
	out = append(out, sum.Div(w))
	for i := window; i < n; i++ {
		sum = sum.Add(values[i]).Sub(values[i-window])
		out = append(out, sum.Div(w))
	}
	return out
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}

// PercentChange returns (current - previous) / previous * 100.
// ok is false when both values are zero (the change is undefined);
// growth from zero is reported as 100.
func PercentChange(current, previous decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero, false
		}
		return hundred, true
	}
	return current.Sub(previous).Div(previous).Mul(hundred), true
}

// LongestStreak is the longest run of consecutive entries with hours > 0,
// walking the given days in chronological order. Any day with zero or
// missing hours resets the run.
func LongestStreak(days []generic.TimePoint, logs generic.LogIndex) int {
	best, run := 0, 0
	for _, d := range days {
		if logs.Get(d).IsPositive() {
			run++
			if run > best {
				best = run
			}
			continue
		}
		run = 0
	}
	return best
}

// StreakDays merges the plan days with every logged date (ascending, no
// duplicates). Logged weekends and holidays extend a streak; days that are
// neither planned nor logged are not part of the sequence.
func StreakDays(plan DailyPlan, logs generic.LogIndex, within generic.Period) []generic.TimePoint {
	seen := make(map[generic.TimePoint]bool, len(plan)+len(logs))
	var days []generic.TimePoint
	add := func(d generic.TimePoint) {
		if !seen[d] && within.Contains(d) {
			seen[d] = true
			days = append(days, d)
		}
	}
	for d := range plan {
		add(d)
	}
	for d := range logs {
		add(d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// WeekdayOrder is the Monday-first order used for distributions and tie breaks.
var WeekdayOrder = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// WeekdayTotal is the hours logged on one weekday.
type WeekdayTotal struct {
	Weekday time.Weekday
	Hours   decimal.Decimal
}

// WeekdayDistribution totals logged hours per weekday, Monday first.
func WeekdayDistribution(logs generic.LogIndex) []WeekdayTotal {
	totals := make(map[time.Weekday]decimal.Decimal, 7)
	for d, h := range logs {
		totals[d.Weekday()] = totals[d.Weekday()].Add(h)
	}
	out := make([]WeekdayTotal, 0, 7)
	for _, wd := range WeekdayOrder {
		out = append(out, WeekdayTotal{Weekday: wd, Hours: totals[wd]})
	}
	return out
}

// MostProductiveWeekday returns the weekday with the highest total; ties go
// to the earliest weekday in Monday-first order. ok is false when nothing
// positive was logged.
func MostProductiveWeekday(dist []WeekdayTotal) (time.Weekday, bool) {
	var (
		best  time.Weekday
		top   = decimal.Zero
		found bool
	)
	for _, t := range dist {
		if t.Hours.GreaterThan(top) {
			best, top, found = t.Weekday, t.Hours, true
		}
	}
	return best, found
}
