/*
errors.go - Centralized error types for the planner

PURPOSE:
  All error types in one place for consistency and discoverability.
  The planning core never swallows an error and never returns a degenerate
  (NaN, negative, divide-by-zero) result: it returns one of these instead.

ERROR CATEGORIES:
  1. Configuration errors - no goal for the year, zero weighted-days denominator
  2. Validation errors    - malformed dates, negative hours, bad month/weight values
  3. Store errors         - missing records

USAGE:
  Callers branch with errors.Is / errors.As:

    if generic.IsConfigurationError(err) {
        // send the user to the setup workflow
    }

SEE ALSO:
  - planner/allocation.go: raises ConfigurationError
  - api/handlers.go: maps categories to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is the category of every ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation is the category of every ValidationError.
	ErrValidation = errors.New("validation error")

	// ErrGoalNotFound is returned when no goal exists for the requested year.
	ErrGoalNotFound = errors.New("no goal configured for year")

	// ErrZeroWeightedDays is returned when every month has zero weighted working days.
	ErrZeroWeightedDays = errors.New("weighted working days total is zero")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports that a plan cannot be produced from the
// stored configuration. Not retryable: the user has to change the setup.
type ConfigurationError struct {
	Year  int
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %d: %v", e.Year, e.Cause)
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Cause}
}

// ValidationError reports a malformed input value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidPeriod)
}

// IsConfigurationError returns true if the plan cannot be built from the current setup.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrGoalNotFound)
}
