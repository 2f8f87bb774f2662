// Package progress computes per-day workout and nutrition completion
// percentages against a profile's active plan.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hyperengineering/vita/internal/store"
	"github.com/hyperengineering/vita/internal/types"
)

// ErrInvalidRange indicates an end date earlier than the start date.
var ErrInvalidRange = errors.New("end date must not be before start date")

// Source is the subset of the store the calculator reads from.
type Source interface {
	ActivePlan(ctx context.Context, profileID string) (*types.FitnessPlan, error)
	WorkoutDayForWeekday(ctx context.Context, planID string, weekday int) (*types.WorkoutDay, error)
	NutritionDayForWeekday(ctx context.Context, planID string, weekday int) (*types.NutritionDay, error)
	CountExercises(ctx context.Context, workoutDayID string) (int, error)
	CountCompletedExercises(ctx context.Context, userID, workoutDayID string, date types.Date) (int, error)
	CountMeals(ctx context.Context, nutritionDayID string) (int, error)
	CountCompletedMeals(ctx context.Context, userID, nutritionDayID string, date types.Date) (int, error)
}

// Calculator derives daily progress rows from tracking records.
type Calculator struct {
	src Source
}

// NewCalculator creates a progress calculator over the given source.
func NewCalculator(src Source) *Calculator {
	return &Calculator{src: src}
}

// ForDate computes a single day's progress against the active plan.
func (c *Calculator) ForDate(ctx context.Context, userID, profileID string, date types.Date) (*types.DailyProgress, error) {
	resp, err := c.ForRange(ctx, userID, profileID, date, date)
	if err != nil {
		return nil, err
	}
	return &resp.Progress[0], nil
}

// ForRange computes one progress row per calendar day from start to end
// inclusive, ordered by date. Rest days report 100% workout progress.
// A weekday missing from the plan, or a day with nothing scheduled,
// reports 0%. Returns store.ErrNoActivePlan when the profile has no
// active plan.
func (c *Calculator) ForRange(ctx context.Context, userID, profileID string, start, end types.Date) (*types.ProgressResponse, error) {
	if end.DaysUntil(start) > 0 {
		return nil, ErrInvalidRange
	}

	plan, err := c.src.ActivePlan(ctx, profileID)
	if err != nil {
		return nil, err
	}

	days := start.DaysUntil(end) + 1
	rows := make([]types.DailyProgress, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDays(i)
		row, err := c.dayProgress(ctx, userID, plan.ID, date)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return &types.ProgressResponse{Progress: rows}, nil
}

func (c *Calculator) dayProgress(ctx context.Context, userID, planID string, date types.Date) (*types.DailyProgress, error) {
	weekday := date.ISOWeekday()
	row := types.DailyProgress{Date: date, DayOfWeek: weekday}

	wd, err := c.src.WorkoutDayForWeekday(ctx, planID, weekday)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// no workout scheduled for this weekday, progress stays 0
	case err != nil:
		return nil, fmt.Errorf("load workout day: %w", err)
	case wd.IsRestDay:
		row.IsRestDay = true
		row.WorkoutProgress = 100
	default:
		total, err := c.src.CountExercises(ctx, wd.ID)
		if err != nil {
			return nil, fmt.Errorf("count exercises: %w", err)
		}
		if total > 0 {
			done, err := c.src.CountCompletedExercises(ctx, userID, wd.ID, date)
			if err != nil {
				return nil, fmt.Errorf("count completed exercises: %w", err)
			}
			row.WorkoutProgress = percentage(done, total)
		}
	}

	nd, err := c.src.NutritionDayForWeekday(ctx, planID, weekday)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load nutrition day: %w", err)
	default:
		total, err := c.src.CountMeals(ctx, nd.ID)
		if err != nil {
			return nil, fmt.Errorf("count meals: %w", err)
		}
		if total > 0 {
			done, err := c.src.CountCompletedMeals(ctx, userID, nd.ID, date)
			if err != nil {
				return nil, fmt.Errorf("count completed meals: %w", err)
			}
			row.NutritionProgress = percentage(done, total)
		}
	}

	return &row, nil
}

// percentage returns completed/total as a percentage rounded to one decimal.
func percentage(completed, total int) float64 {
	pct := float64(completed) / float64(total) * 100
	return math.Round(pct*10) / 10
}
