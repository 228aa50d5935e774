/*
Package generic provides the records and primitives shared by the planner,
the store and the API.

PURPOSE:
  This package holds the plain data the planning core is fed with: goals,
  holidays, vacation days and logged hours, together with the calendar-day
  and period primitives they are keyed by. It has no knowledge of how plans
  are computed (planner/) or how records are persisted (store/).

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: decimal.Decimal quantities, never float64 (sums of 0.1 stay exact)
  - Goal: annual target + 12 monthly workload weights for one (user, year)
  - LoggedHour: the hours a user billed on one date (one record per date)
  - UserID: opaque identity handed to us by the caller

DESIGN PRINCIPLES:
  1. Precision: hours use decimal.Decimal to avoid floating-point drift
  2. Type Safety: UserID is its own type
  3. Validation at the edge: Validate() methods return *ValidationError

SEE ALSO:
  - time.go: TimePoint, Holiday, VacationDay
  - period.go: Period
  - store.go: persistence interfaces
*/
package generic

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - decimal quantities
// =============================================================================

// Hours converts a float into a decimal hour quantity.
func Hours(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// HoursFloat converts back for JSON responses and charts.
func HoursFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// ValidateHours rejects negative hour values.
func ValidateHours(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: field, Value: d.String(), Reason: "hours must be non-negative"}
	}
	return nil
}

// ParseHours validates a float coming from JSON or a form.
func ParseHours(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, &ValidationError{Field: field, Value: v, Reason: "hours must be a finite number"}
	}
	d := Hours(v)
	if err := ValidateHours(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// UserID is the opaque identity resolved by the caller. The planner trusts it.
type UserID string

// =============================================================================
// MONTHS & WEIGHTS
// =============================================================================

// Months is the fixed, ordered list of month names used as weight keys.
var Months = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the weight key for a calendar month.
func MonthName(m time.Month) string {
	return Months[m-1]
}

// MonthByName resolves a weight key back to a calendar month.
func MonthByName(name string) (time.Month, bool) {
	for i, n := range Months {
		if n == name {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// MonthlyWeights maps month name to workload weight. 1.0 is a normal month.
type MonthlyWeights map[string]float64

// DefaultWeights returns weight 1.0 for every month.
func DefaultWeights() MonthlyWeights {
	w := make(MonthlyWeights, len(Months))
	for _, m := range Months {
		w[m] = 1.0
	}
	return w
}

// Weight returns the weight of a month; a missing key counts as 1.0.
func (w MonthlyWeights) Weight(m time.Month) float64 {
	if v, ok := w[MonthName(m)]; ok {
		return v
	}
	return 1.0
}

// Validate rejects unknown month keys and negative or non-finite weights.
func (w MonthlyWeights) Validate() error {
	for name, v := range w {
		if _, ok := MonthByName(name); !ok {
			return &ValidationError{Field: "month", Value: name, Reason: "unknown month name"}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &ValidationError{Field: "weight", Value: v, Reason: "weight for " + name + " must be a non-negative number"}
		}
	}
	return nil
}

// Clone copies the weights so callers can't mutate a stored goal.
func (w MonthlyWeights) Clone() MonthlyWeights {
	out := make(MonthlyWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// =============================================================================
// GOAL
// =============================================================================

// DefaultAnnualGoal is used when a goal is created lazily.
const DefaultAnnualGoal = 1800

// Goal is the yearly billable-hours target of one user.
type Goal struct {
	UserID       UserID
	Year         int
	AnnualTarget decimal.Decimal
	Weights      MonthlyWeights
	Policy       string // allocation policy name; empty means the configured default
	UpdatedAt    time.Time
}

// NewDefaultGoal builds the goal created on first access.
func NewDefaultGoal(user UserID, year int, annualTarget decimal.Decimal) Goal {
	return Goal{
		UserID:       user,
		Year:         year,
		AnnualTarget: annualTarget,
		Weights:      DefaultWeights(),
	}
}

// Validate checks the target and weights.
func (g Goal) Validate() error {
	if g.Year < 1 || g.Year > 9999 {
		return &ValidationError{Field: "year", Value: g.Year, Reason: "out of range"}
	}
	if err := ValidateHours("annual_target", g.AnnualTarget); err != nil {
		return err
	}
	return g.Weights.Validate()
}

// =============================================================================
// LOGGED HOURS
// =============================================================================

// LoggedHour is the number of hours billed on a date.
// At most one record exists per (user, date); a new value replaces the old.
type LoggedHour struct {
	ID     string
	UserID UserID
	Date   TimePoint
	Hours  decimal.Decimal
}

// LogIndex is the date → hours view the analyzer works on.
type LogIndex map[TimePoint]decimal.Decimal

// IndexLogs builds a LogIndex. Later records for the same date replace
// earlier ones; negative hours are rejected.
func IndexLogs(logs []LoggedHour) (LogIndex, error) {
	idx := make(LogIndex, len(logs))
	for _, l := range logs {
		if err := ValidateHours("hours", l.Hours); err != nil {
			return nil, err
		}
		idx[l.Date] = l.Hours
	}
	return idx, nil
}

// Get returns the hours logged on a date, zero when none.
func (idx LogIndex) Get(day TimePoint) decimal.Decimal {
	if v, ok := idx[day]; ok {
		return v
	}
	return decimal.Zero
}
