package generic

import "time"

// =============================================================================
// PERIOD - An inclusive range of calendar days
// =============================================================================

// Period is the date window every metric is computed over.
//
// Examples:
//   - Calendar year 2025: Jan 1 - Dec 31
//   - Displayed month:    Apr 1 - Apr 30
//   - Comparison range:   any user-supplied [from, to]
type Period struct {
	Start TimePoint
	End   TimePoint
}

// YearPeriod returns Jan 1 - Dec 31 of year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// MonthPeriod returns the first to the last day of month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// NewPeriod builds a period and rejects an end before its start.
func NewPeriod(start, end TimePoint) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate returns ErrInvalidPeriod when End precedes Start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return &ValidationError{Field: "period", Value: p.String(), Reason: ErrInvalidPeriod.Error()}
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Len is the number of calendar days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// NextPeriod returns the period of equal length following this one
func (p Period) NextPeriod() Period {
	newStart := p.End.AddDays(1)
	duration := DaysBetween(p.Start, p.End)
	return Period{Start: newStart, End: newStart.AddDays(duration)}
}

// PreviousPeriod returns the period of equal length before this one.
// Used as the default comparison window.
func (p Period) PreviousPeriod() Period {
	duration := DaysBetween(p.Start, p.End)
	newEnd := p.Start.AddDays(-1)
	return Period{Start: newEnd.AddDays(-duration), End: newEnd}
}
