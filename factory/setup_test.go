package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/billable-planner/factory"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/planner"
)

func TestParseSetup_Defaults(t *testing.T) {
	// GIVEN: A setup naming only the year
	// WHEN: Parsing
	// THEN: 1800 h, weight 1.0 everywhere, cap-and-drop with a 10 h cap

	setup, err := factory.NewSetupFactory().ParseSetup("user-1", `{"year": 2025}`)
	require.NoError(t, err)

	assert.Equal(t, generic.UserID("user-1"), setup.Goal.UserID)
	assert.Equal(t, 2025, setup.Goal.Year)
	assert.Equal(t, "1800", setup.Goal.AnnualTarget.String())
	assert.Len(t, setup.Goal.Weights, 12)
	assert.Equal(t, planner.PolicyCapAndDrop, setup.Allocator.Policy.Name())
	assert.True(t, setup.Allocator.DailyCap.Equal(planner.DefaultDailyCap))
}

func TestParseSetup_HeavySummerPreset(t *testing.T) {
	setup, err := factory.NewSetupFactory().ParseSetup("user-1", factory.HeavySummerSetupJSON(2025, 1900))
	require.NoError(t, err)

	assert.Equal(t, "1900", setup.Goal.AnnualTarget.String())
	assert.Equal(t, 1.5, setup.Goal.Weights["July"])
	assert.Equal(t, 1.0, setup.Goal.Weights["March"])
	assert.Equal(t, planner.PolicyCapAndRedistribute, setup.Allocator.Policy.Name())
}

func TestParseSetup_ConfiguredDefaults(t *testing.T) {
	f := &factory.SetupFactory{DefaultPolicy: planner.PolicyCapAndRedistribute, DefaultDailyCap: 9}

	setup, err := f.ParseSetup("user-1", factory.StandardSetupJSON(2025, 1700))
	require.NoError(t, err)

	assert.Equal(t, planner.PolicyCapAndDrop, setup.Allocator.Policy.Name(), "JSON wins over the default")
	assert.Equal(t, "9", setup.Allocator.DailyCap.String())
}

func TestParseSetup_Invalid(t *testing.T) {
	f := factory.NewSetupFactory()
	cases := map[string]string{
		"negative goal":   `{"year": 2025, "annual_goal": -10}`,
		"unknown month":   `{"year": 2025, "workload_weights": {"Juli": 1}}`,
		"negative weight": `{"year": 2025, "workload_weights": {"July": -1}}`,
		"unknown policy":  `{"year": 2025, "allocation_policy": "spread-evenly"}`,
		"missing year":    `{"annual_goal": 1800}`,
		"negative cap":    `{"year": 2025, "daily_cap": -2}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ParseSetup("user-1", body)
			assert.ErrorIs(t, err, generic.ErrValidation)
		})
	}

	_, err := f.ParseSetup("user-1", `{not json`)
	assert.Error(t, err)
}

func TestToJSON_RoundTripsWeights(t *testing.T) {
	f := factory.NewSetupFactory()
	setup, err := f.ParseSetup("user-1", factory.HeavySummerSetupJSON(2025, 1800))
	require.NoError(t, err)

	sj := f.ToJSON(setup.Goal, setup.Allocator)

	require.NotNil(t, sj.AnnualGoal)
	assert.Equal(t, 1800.0, *sj.AnnualGoal)
	assert.Len(t, sj.WorkloadWeights, 12)
	assert.Equal(t, 0.5, sj.WorkloadWeights["December"])
	assert.Equal(t, planner.PolicyCapAndRedistribute, sj.AllocationPolicy)
	assert.Equal(t, 10.0, sj.DailyCap)
}

func TestAllocatorFor_StoredGoal(t *testing.T) {
	// GIVEN: A factory configured with redistribution and an 8-hour cap
	// WHEN: Building allocators for a goal with and without a stored policy
	// THEN: The stored policy wins; the cap always comes from configuration

	f := &factory.SetupFactory{DefaultPolicy: planner.PolicyCapAndRedistribute, DefaultDailyCap: 8}

	goal := generic.NewDefaultGoal("user-1", 2025, generic.Hours(1800))
	a, err := f.AllocatorFor(goal)
	require.NoError(t, err)
	assert.Equal(t, planner.PolicyCapAndRedistribute, a.Policy.Name())
	assert.Equal(t, "8", a.DailyCap.String())

	goal.Policy = planner.PolicyCapAndDrop
	a, err = f.AllocatorFor(goal)
	require.NoError(t, err)
	assert.Equal(t, planner.PolicyCapAndDrop, a.Policy.Name())

	goal.Policy = "bogus"
	_, err = f.AllocatorFor(goal)
	assert.ErrorIs(t, err, generic.ErrValidation)
}
