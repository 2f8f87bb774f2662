package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperengineering/vita/internal/types"
)

// WorkoutDayForWeekday returns the plan's workout day for an ISO weekday
// (without exercises loaded). Returns ErrNotFound when the plan has no
// entry for that weekday.
func (s *SQLiteStore) WorkoutDayForWeekday(ctx context.Context, planID string, weekday int) (*types.WorkoutDay, error) {
	var d types.WorkoutDay
	err := s.db.QueryRowContext(ctx, `
		SELECT id, plan_id, day_of_week, title, description, is_rest_day
		FROM workout_days WHERE plan_id = ? AND day_of_week = ?
	`, planID, weekday).Scan(&d.ID, &d.PlanID, &d.DayOfWeek, &d.Title, &d.Description, &d.IsRestDay)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan workout day: %w", err)
	}
	return &d, nil
}

// NutritionDayForWeekday returns the plan's nutrition day for an ISO
// weekday (without meals loaded).
func (s *SQLiteStore) NutritionDayForWeekday(ctx context.Context, planID string, weekday int) (*types.NutritionDay, error) {
	var d types.NutritionDay
	var calories, protein, carbs, fats sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, plan_id, day_of_week, notes, target_calories, target_protein_grams,
			target_carbs_grams, target_fats_grams
		FROM nutrition_days WHERE plan_id = ? AND day_of_week = ?
	`, planID, weekday).Scan(&d.ID, &d.PlanID, &d.DayOfWeek, &d.Notes,
		&calories, &protein, &carbs, &fats)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan nutrition day: %w", err)
	}
	if calories.Valid {
		v := int(calories.Int64)
		d.TargetCalories = &v
	}
	if protein.Valid {
		v := int(protein.Int64)
		d.TargetProteinGrams = &v
	}
	if carbs.Valid {
		v := int(carbs.Int64)
		d.TargetCarbsGrams = &v
	}
	if fats.Valid {
		v := int(fats.Int64)
		d.TargetFatsGrams = &v
	}
	return &d, nil
}

// CountExercises returns the number of exercises planned for a workout day.
func (s *SQLiteStore) CountExercises(ctx context.Context, workoutDayID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM exercises WHERE workout_day_id = ?", workoutDayID).Scan(&count)
	return count, err
}

// CountCompletedExercises returns how many distinct exercises of a workout
// day the user tracked as completed on the given date.
func (s *SQLiteStore) CountCompletedExercises(ctx context.Context, userID, workoutDayID string, date types.Date) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT wt.exercise_id)
		FROM workout_tracking wt
		JOIN exercises e ON e.id = wt.exercise_id
		WHERE wt.user_id = ? AND wt.date_completed = ? AND e.workout_day_id = ?
	`, userID, date.String(), workoutDayID).Scan(&count)
	return count, err
}

// CountMeals returns the number of meals planned for a nutrition day.
func (s *SQLiteStore) CountMeals(ctx context.Context, nutritionDayID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM meals WHERE nutrition_day_id = ?", nutritionDayID).Scan(&count)
	return count, err
}

// CountCompletedMeals returns how many distinct meals of a nutrition day
// the user tracked as consumed on the given date.
func (s *SQLiteStore) CountCompletedMeals(ctx context.Context, userID, nutritionDayID string, date types.Date) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT mt.meal_id)
		FROM meal_tracking mt
		JOIN meals m ON m.id = mt.meal_id
		WHERE mt.user_id = ? AND mt.date_completed = ? AND m.nutrition_day_id = ?
	`, userID, date.String(), nutritionDayID).Scan(&count)
	return count, err
}
