/*
scheduler.go - Automated yearly goal rollover

PURPOSE:
  Once a new year starts, every user who had a goal for the previous year
  gets a goal for the new one carrying over the annual target, the monthly
  weights and the allocation policy. Without it the dashboard would answer
  409 (setup required) on January 1st.

DESIGN:
  - Runs a background loop with configurable check interval
  - Rolls over into the current calendar year on every tick
  - Skips users whose rollover already completed
  - Leaves an existing goal for the new year untouched
  - Records rollover runs for audit and UI display

CONFIGURATION:
  - Interval: How often to check (scheduler.interval, default: 1 hour)
  - Enabled: Whether scheduler is active (scheduler.enabled, default: true)

USAGE:
  scheduler := NewGoalRolloverScheduler(store, logger)
  go scheduler.Run(ctx)

SEE ALSO:
  - handlers.go: TriggerRollover endpoint (manual rollover)
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/warp/billable-planner/generic"
)

// Rollover run statuses.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RolloverResult summarises one rollover pass.
type RolloverResult struct {
	FromYear  int `json:"from_year"`
	ToYear    int `json:"to_year"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// RolloverGoals creates a toYear goal for every user with a toYear-1 goal.
// Users already rolled over are skipped; a goal the user already set up for
// toYear is kept as is. Per-user failures are recorded and do not stop the pass.
func RolloverGoals(ctx context.Context, store generic.Store, toYear int, logger *log.Logger) (*RolloverResult, error) {
	result := &RolloverResult{FromYear: toYear - 1, ToYear: toYear}

	goals, err := store.ListGoalsForYear(ctx, result.FromYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list %d goals: %w", result.FromYear, err)
	}

	for _, prev := range goals {
		done, err := store.IsRolloverComplete(ctx, prev.UserID, toYear)
		if err != nil {
			logger.Error("checking rollover status", "user", prev.UserID, "err", err)
			result.Failed++
			continue
		}
		if done {
			result.Skipped++
			continue
		}

		run := generic.RolloverRun{
			UserID:    prev.UserID,
			FromYear:  result.FromYear,
			ToYear:    toYear,
			Status:    RunCompleted,
			CreatedAt: time.Now().UTC(),
		}
		if err := rolloverOne(ctx, store, prev, toYear); err != nil {
			run.Status = RunFailed
			run.Error = err.Error()
			result.Failed++
			logger.Error("rollover failed", "user", prev.UserID, "to", toYear, "err", err)
		} else {
			result.Processed++
			logger.Info("rolled over goal", "user", prev.UserID, "to", toYear, "target", prev.AnnualTarget)
		}
		if err := store.SaveRolloverRun(ctx, run); err != nil {
			return result, fmt.Errorf("failed to save run record: %w", err)
		}
	}

	if result.Processed > 0 || result.Skipped > 0 || result.Failed > 0 {
		logger.Info("rollover completed", "to", toYear, "processed", result.Processed, "skipped", result.Skipped, "failed", result.Failed)
	}
	return result, nil
}

func rolloverOne(ctx context.Context, store generic.Store, prev generic.Goal, toYear int) error {
	_, err := store.GetGoal(ctx, prev.UserID, toYear)
	if err == nil {
		return nil
	}
	if !generic.IsNotFound(err) {
		return err
	}

	next := generic.Goal{
		UserID:       prev.UserID,
		Year:         toYear,
		AnnualTarget: prev.AnnualTarget,
		Weights:      prev.Weights.Clone(),
		Policy:       prev.Policy,
	}
	if err := next.Validate(); err != nil {
		return err
	}
	return store.SaveGoal(ctx, next)
}

// =============================================================================
// SCHEDULER
// =============================================================================

// GoalRolloverScheduler runs RolloverGoals into the current year periodically.
type GoalRolloverScheduler struct {
	Store    generic.Store
	Interval time.Duration
	Enabled  bool
	Logger   *log.Logger

	// Clock supplies "now"; tests pin it.
	Clock func() time.Time
}

// NewGoalRolloverScheduler creates a new scheduler.
func NewGoalRolloverScheduler(store generic.Store, logger *log.Logger) *GoalRolloverScheduler {
	return &GoalRolloverScheduler{
		Store:    store,
		Interval: time.Hour,
		Enabled:  true,
		Logger:   logger.WithPrefix("scheduler"),
		Clock:    time.Now,
	}
}

// Run checks once immediately, then every Interval, until ctx is done.
func (s *GoalRolloverScheduler) Run(ctx context.Context) error {
	if !s.Enabled {
		s.Logger.Info("disabled, not starting")
		return nil
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	s.Logger.Info("started", "interval", s.Interval)

	s.RunNow(ctx)
	for {
		select {
		case <-ticker.C:
			s.RunNow(ctx)
		case <-ctx.Done():
			s.Logger.Info("stopped")
			return nil
		}
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (s *GoalRolloverScheduler) RunNow(ctx context.Context) *RolloverResult {
	year := s.Clock().Year()
	s.Logger.Debug("checking for rollovers", "to", year)

	result, err := RolloverGoals(ctx, s.Store, year, s.Logger)
	if err != nil {
		s.Logger.Error("rollover pass failed", "err", err)
		return nil
	}
	return result
}

// NextRunTime returns when the next scheduled check will occur.
func (s *GoalRolloverScheduler) NextRunTime() time.Time {
	return s.Clock().Add(s.Interval)
}
