package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - A calendar day (the planner works at day granularity only)
// =============================================================================

// TimePoint is a calendar day normalised to UTC midnight.
// Always build one through a constructor: normalised values are comparable
// with == and safe to use as map keys.
type TimePoint struct {
	Time time.Time
}

// DayLayout is the ISO-8601 date layout used on every boundary.
const DayLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates any instant to its calendar day, read in the instant's own location.
func DayOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return DayOf(time.Now())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (TimePoint, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return TimePoint{}, &ValidationError{Field: "date", Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return DayOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return DayOf(tp.Time.AddDate(0, 0, n)) }
func (tp TimePoint) AddMonths(n int) TimePoint { return DayOf(tp.Time.AddDate(0, n, 0)) }
func (tp TimePoint) AddYears(n int) TimePoint  { return DayOf(tp.Time.AddDate(n, 0, 0)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) YearDay() int          { return tp.Time.YearDay() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool       { wd := tp.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (tp TimePoint) IsWorkday() bool       { return !tp.IsWeekend() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format(DayLayout)
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// HolidayScope distinguishes firm-wide holidays from ones a user added.
type HolidayScope string

const (
	ScopeFirm     HolidayScope = "firm"
	ScopePersonal HolidayScope = "personal"
)

// Holiday is a non-working day. Both scopes exclude the day from planning.
type Holiday struct {
	ID     string
	UserID UserID
	Date   TimePoint
	Name   string
	Scope  HolidayScope
}

// VacationDay is a single day off taken by a user.
type VacationDay struct {
	ID     string
	UserID UserID
	Date   TimePoint
}

// HolidayDates extracts the dates of a holiday list.
func HolidayDates(holidays []Holiday) []TimePoint {
	out := make([]TimePoint, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, h.Date)
	}
	return out
}

// VacationDates extracts the dates of a vacation list.
func VacationDates(vacations []VacationDay) []TimePoint {
	out := make([]TimePoint, 0, len(vacations))
	for _, v := range vacations {
		out = append(out, v.Date)
	}
	return out
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
func StartOfYear(year int) TimePoint     { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint       { return NewTimePoint(year, time.December, 31) }
func DaysInYear(year int) int            { return EndOfYear(year).YearDay() }
func StartOfMonth(year int, month time.Month) TimePoint {
	return NewTimePoint(year, month, 1)
}
func EndOfMonth(year int, month time.Month) TimePoint {
	return NewTimePoint(year, month+1, 1).AddDays(-1)
}
