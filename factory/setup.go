/*
Package factory provides JSON to Go goal-setup conversion.

PURPOSE:
  Converts the JSON body of the setup workflow into a generic.Goal and the
  planner.Allocator that goes with it. The same schema is used by the
  PUT /api/planner/setup handler, the demo scenarios and the presets below,
  so every entry point validates a setup the same way.

JSON SCHEMA:
  {
    "year": 2025,
    "annual_goal": 1800,
    "workload_weights": {
      "January": 1.0, "February": 1.0, ..., "July": 1.3, ...
    },
    "allocation_policy": "cap-and-drop",
    "daily_cap": 10
  }

DEFAULTS:
  - annual_goal missing → generic.DefaultAnnualGoal (1800)
  - a month missing from workload_weights → 1.0
  - allocation_policy missing → cap-and-drop
  - daily_cap missing or 0 → planner.DefaultDailyCap (10)

USAGE:
  f := factory.NewSetupFactory()
  setup, err := f.ParseSetup("user-1", jsonString)
  alloc, err := planner.BuildPlan(setup.Goal.Year, &setup.Goal, holidays, vacations, setup.Allocator)

SEE ALSO:
  - planner/allocation.go: Allocator, AllocationPolicy
  - api/handlers.go: setup endpoints
  - api/scenarios.go: presets used by the demo scenarios
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/planner"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SetupJSON is the JSON representation of a user's yearly setup.
type SetupJSON struct {
	Year             int                `json:"year"`
	AnnualGoal       *float64           `json:"annual_goal,omitempty"`
	WorkloadWeights  map[string]float64 `json:"workload_weights,omitempty"`
	AllocationPolicy string             `json:"allocation_policy,omitempty"`
	DailyCap         float64            `json:"daily_cap,omitempty"`
}

// Setup is a validated SetupJSON.
type Setup struct {
	Goal      generic.Goal
	Allocator *planner.Allocator
}

// =============================================================================
// SETUP FACTORY
// =============================================================================

// SetupFactory converts JSON setups to Go structs.
type SetupFactory struct {
	// DefaultPolicy applies when the JSON names none (from configuration).
	DefaultPolicy string
	// DefaultDailyCap applies when the JSON sets none (from configuration).
	DefaultDailyCap float64
}

// NewSetupFactory creates a factory with cap-and-drop and a 10-hour cap.
func NewSetupFactory() *SetupFactory {
	return &SetupFactory{DefaultPolicy: planner.PolicyCapAndDrop}
}

// ParseSetup parses a JSON string into a Setup for user.
func (f *SetupFactory) ParseSetup(user generic.UserID, jsonStr string) (*Setup, error) {
	var sj SetupJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse setup JSON: %w", err)
	}
	return f.FromJSON(user, sj)
}

// FromJSON converts SetupJSON to a Goal and an Allocator.
func (f *SetupFactory) FromJSON(user generic.UserID, sj SetupJSON) (*Setup, error) {
	target := decimal.NewFromInt(generic.DefaultAnnualGoal)
	if sj.AnnualGoal != nil {
		var err error
		if target, err = generic.ParseHours("annual_goal", *sj.AnnualGoal); err != nil {
			return nil, err
		}
	}

	// Weights: start from 1.0 everywhere, overlay what was sent.
	weights := generic.DefaultWeights()
	for name, w := range sj.WorkloadWeights {
		weights[name] = w
	}

	goal := generic.Goal{
		UserID:       user,
		Year:         sj.Year,
		AnnualTarget: target,
		Weights:      weights,
		Policy:       sj.AllocationPolicy,
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}

	dailyCap := sj.DailyCap
	if dailyCap == 0 {
		dailyCap = f.DefaultDailyCap
	}
	a, err := f.allocator(goal.Policy, dailyCap)
	if err != nil {
		return nil, err
	}
	return &Setup{Goal: goal, Allocator: a}, nil
}

// AllocatorFor builds the allocator a stored goal is planned with.
func (f *SetupFactory) AllocatorFor(goal generic.Goal) (*planner.Allocator, error) {
	return f.allocator(goal.Policy, f.DefaultDailyCap)
}

func (f *SetupFactory) allocator(policyName string, dailyCap float64) (*planner.Allocator, error) {
	if policyName == "" {
		policyName = f.DefaultPolicy
	}
	policy, err := planner.PolicyByName(policyName)
	if err != nil {
		return nil, err
	}
	capHours, err := generic.ParseHours("daily_cap", dailyCap)
	if err != nil {
		return nil, err
	}
	return planner.NewAllocator(policy, capHours), nil
}

// ToJSON converts a Goal and Allocator back to SetupJSON.
func (f *SetupFactory) ToJSON(goal generic.Goal, a *planner.Allocator) SetupJSON {
	target := generic.HoursFloat(goal.AnnualTarget)
	sj := SetupJSON{
		Year:            goal.Year,
		AnnualGoal:      &target,
		WorkloadWeights: make(map[string]float64, len(generic.Months)),
	}
	for i, name := range generic.Months {
		sj.WorkloadWeights[name] = goal.Weights.Weight(time.Month(i + 1))
	}
	if a != nil {
		sj.AllocationPolicy = a.Policy.Name()
		sj.DailyCap = generic.HoursFloat(a.DailyCap)
	}
	return sj
}

// =============================================================================
// PRESETS
// =============================================================================

// StandardSetupJSON is an even year: every month weighted 1.0.
func StandardSetupJSON(year int, annualGoal float64) string {
	return fmt.Sprintf(`{
		"year": %d,
		"annual_goal": %g,
		"allocation_policy": %q
	}`, year, annualGoal, planner.PolicyCapAndDrop)
}

// HeavySummerSetupJSON front-loads June to August and lightens December,
// redistributing whatever the daily cap clips.
func HeavySummerSetupJSON(year int, annualGoal float64) string {
	return fmt.Sprintf(`{
		"year": %d,
		"annual_goal": %g,
		"workload_weights": {
			"June": 1.4,
			"July": 1.5,
			"August": 1.4,
			"December": 0.5
		},
		"allocation_policy": %q
	}`, year, annualGoal, planner.PolicyCapAndRedistribute)
}
