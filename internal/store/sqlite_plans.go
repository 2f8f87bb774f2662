package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hyperengineering/vita/internal/types"
)

// CreatePlan atomically persists a generation payload as a FitnessPlan row
// plus its full WorkoutDay/Exercise/NutritionDay/Meal subtree. The overlap
// check runs inside the same transaction, so two plans for one profile can
// never cover overlapping inclusive date ranges. Any failure rolls back the
// entire subtree.
func (s *SQLiteStore) CreatePlan(ctx context.Context, profileID string, start, end types.Date, goal, prompt, rawResponse string, payload *types.GeneratedPlan) (*types.FitnessPlan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Inclusive-inclusive interval overlap: existing.start <= new.end AND existing.end >= new.start
	var overlapping int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM fitness_plans
		WHERE profile_id = ? AND start_date <= ? AND end_date >= ?
	`, profileID, end.String(), start.String()).Scan(&overlapping)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if overlapping > 0 {
		return nil, ErrPlanOverlap
	}

	now := time.Now().UTC()
	plan := types.FitnessPlan{
		ID:             newID(),
		ProfileID:      profileID,
		StartDate:      start,
		EndDate:        end,
		GoalAtCreation: goal,
		IsActive:       true,
		AIPromptText:   prompt,
		AIResponseRaw:  rawResponse,
		CreatedAt:      now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fitness_plans (id, profile_id, start_date, end_date, goal_at_creation,
			is_active, ai_prompt_text, ai_response_raw, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, plan.ID, plan.ProfileID, plan.StartDate.String(), plan.EndDate.String(),
		plan.GoalAtCreation, plan.IsActive, plan.AIPromptText, plan.AIResponseRaw,
		formatTime(plan.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	for _, wd := range payload.WorkoutDays {
		day := types.WorkoutDay{
			ID:          newID(),
			PlanID:      plan.ID,
			DayOfWeek:   wd.DayOfWeek,
			Title:       wd.Title,
			Description: wd.Description,
			IsRestDay:   wd.IsRestDay,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO workout_days (id, plan_id, day_of_week, title, description, is_rest_day)
			VALUES (?, ?, ?, ?, ?, ?)
		`, day.ID, day.PlanID, day.DayOfWeek, day.Title, day.Description, day.IsRestDay)
		if err != nil {
			return nil, fmt.Errorf("insert workout day %d: %w", wd.DayOfWeek, err)
		}

		for _, ex := range wd.Exercises {
			exercise := types.Exercise{
				ID:                newID(),
				WorkoutDayID:      day.ID,
				Name:              ex.Name,
				Sets:              ex.Sets,
				Reps:              ex.Reps,
				RestPeriodSeconds: ex.RestPeriodSeconds,
				Notes:             ex.Notes,
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO exercises (id, workout_day_id, name, sets, reps, rest_period_seconds, notes)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, exercise.ID, exercise.WorkoutDayID, exercise.Name, exercise.Sets,
				exercise.Reps, exercise.RestPeriodSeconds, exercise.Notes)
			if err != nil {
				return nil, fmt.Errorf("insert exercise %q: %w", ex.Name, err)
			}
			day.Exercises = append(day.Exercises, exercise)
		}
		plan.WorkoutDays = append(plan.WorkoutDays, day)
	}

	for _, nd := range payload.NutritionDays {
		day := types.NutritionDay{
			ID:        newID(),
			PlanID:    plan.ID,
			DayOfWeek: nd.DayOfWeek,
			Notes:     nd.Notes,
		}
		calories, protein, carbs, fats := nd.TargetCalories, nd.TargetProteinGrams, nd.TargetCarbsGrams, nd.TargetFatsGrams
		day.TargetCalories = &calories
		day.TargetProteinGrams = &protein
		day.TargetCarbsGrams = &carbs
		day.TargetFatsGrams = &fats

		_, err = tx.ExecContext(ctx, `
			INSERT INTO nutrition_days (id, plan_id, day_of_week, notes,
				target_calories, target_protein_grams, target_carbs_grams, target_fats_grams)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, day.ID, day.PlanID, day.DayOfWeek, day.Notes, calories, protein, carbs, fats)
		if err != nil {
			return nil, fmt.Errorf("insert nutrition day %d: %w", nd.DayOfWeek, err)
		}

		for _, m := range nd.Meals {
			meal := types.Meal{
				ID:             newID(),
				NutritionDayID: day.ID,
				MealType:       m.MealType,
				Description:    m.Description,
				Calories:       m.Calories,
				ProteinGrams:   m.ProteinGrams,
				CarbsGrams:     m.CarbsGrams,
				FatsGrams:      m.FatsGrams,
			}
			if m.PortionSize != "" {
				portion := m.PortionSize
				meal.PortionSize = &portion
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO meals (id, nutrition_day_id, meal_type, description,
					calories, protein_grams, carbs_grams, fats_grams, portion_size)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, meal.ID, meal.NutritionDayID, meal.MealType, meal.Description,
				meal.Calories, meal.ProteinGrams, meal.CarbsGrams, meal.FatsGrams,
				nullString(meal.PortionSize))
			if err != nil {
				return nil, fmt.Errorf("insert meal %q: %w", m.Description, err)
			}
			day.Meals = append(day.Meals, meal)
		}
		plan.NutritionDays = append(plan.NutritionDays, day)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &plan, nil
}

const planColumns = "id, profile_id, start_date, end_date, goal_at_creation, is_active, ai_prompt_text, ai_response_raw, created_at"

func scanPlan(scanner interface{ Scan(...any) error }) (*types.FitnessPlan, error) {
	var p types.FitnessPlan
	var startDate, endDate, createdAt string
	err := scanner.Scan(&p.ID, &p.ProfileID, &startDate, &endDate, &p.GoalAtCreation,
		&p.IsActive, &p.AIPromptText, &p.AIResponseRaw, &createdAt)
	if err != nil {
		return nil, err
	}
	if p.StartDate, err = types.ParseDate(startDate); err != nil {
		return nil, fmt.Errorf("parse start_date: %w", err)
	}
	if p.EndDate, err = types.ParseDate(endDate); err != nil {
		return nil, fmt.Errorf("parse end_date: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// GetPlan retrieves a plan with its full subtree, days ordered by weekday.
func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*types.FitnessPlan, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM fitness_plans WHERE id = ?", id)
	plan, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}

	if err := s.loadPlanSubtree(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *SQLiteStore) loadPlanSubtree(ctx context.Context, plan *types.FitnessPlan) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, day_of_week, title, description, is_rest_day
		FROM workout_days WHERE plan_id = ? ORDER BY day_of_week
	`, plan.ID)
	if err != nil {
		return fmt.Errorf("query workout days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d types.WorkoutDay
		if err := rows.Scan(&d.ID, &d.PlanID, &d.DayOfWeek, &d.Title, &d.Description, &d.IsRestDay); err != nil {
			return fmt.Errorf("scan workout day: %w", err)
		}
		plan.WorkoutDays = append(plan.WorkoutDays, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate workout days: %w", err)
	}

	for i := range plan.WorkoutDays {
		exercises, err := s.exercisesForDay(ctx, plan.WorkoutDays[i].ID)
		if err != nil {
			return err
		}
		plan.WorkoutDays[i].Exercises = exercises
	}

	nrows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, day_of_week, notes, target_calories, target_protein_grams,
			target_carbs_grams, target_fats_grams
		FROM nutrition_days WHERE plan_id = ? ORDER BY day_of_week
	`, plan.ID)
	if err != nil {
		return fmt.Errorf("query nutrition days: %w", err)
	}
	defer nrows.Close()

	for nrows.Next() {
		var d types.NutritionDay
		var calories, protein, carbs, fats sql.NullInt64
		if err := nrows.Scan(&d.ID, &d.PlanID, &d.DayOfWeek, &d.Notes,
			&calories, &protein, &carbs, &fats); err != nil {
			return fmt.Errorf("scan nutrition day: %w", err)
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
		plan.NutritionDays = append(plan.NutritionDays, d)
	}
	if err := nrows.Err(); err != nil {
		return fmt.Errorf("iterate nutrition days: %w", err)
	}

	for i := range plan.NutritionDays {
		meals, err := s.mealsForDay(ctx, plan.NutritionDays[i].ID)
		if err != nil {
			return err
		}
		plan.NutritionDays[i].Meals = meals
	}

	return nil
}

func (s *SQLiteStore) exercisesForDay(ctx context.Context, workoutDayID string) ([]types.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workout_day_id, name, sets, reps, rest_period_seconds, notes
		FROM exercises WHERE workout_day_id = ? ORDER BY id
	`, workoutDayID)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []types.Exercise
	for rows.Next() {
		var e types.Exercise
		if err := rows.Scan(&e.ID, &e.WorkoutDayID, &e.Name, &e.Sets, &e.Reps,
			&e.RestPeriodSeconds, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

func (s *SQLiteStore) mealsForDay(ctx context.Context, nutritionDayID string) ([]types.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nutrition_day_id, meal_type, description, calories,
			protein_grams, carbs_grams, fats_grams, portion_size
		FROM meals WHERE nutrition_day_id = ? ORDER BY id
	`, nutritionDayID)
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	var meals []types.Meal
	for rows.Next() {
		var m types.Meal
		var portion sql.NullString
		if err := rows.Scan(&m.ID, &m.NutritionDayID, &m.MealType, &m.Description,
			&m.Calories, &m.ProteinGrams, &m.CarbsGrams, &m.FatsGrams, &portion); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		if portion.Valid {
			m.PortionSize = &portion.String
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// ListPlans returns all plans for a profile with their subtrees,
// newest first.
func (s *SQLiteStore) ListPlans(ctx context.Context, profileID string) ([]types.FitnessPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+planColumns+" FROM fitness_plans WHERE profile_id = ? ORDER BY start_date DESC", profileID)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []types.FitnessPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	for i := range plans {
		if err := s.loadPlanSubtree(ctx, &plans[i]); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// DeletePlan removes a plan owned by the given user; the subtree cascades.
// Returns ErrNotFound when the plan does not exist or belongs to another user.
func (s *SQLiteStore) DeletePlan(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM fitness_plans
		WHERE id = ? AND profile_id IN (SELECT id FROM profiles WHERE user_id = ?)
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivePlan returns the profile's most recently created active plan,
// without its subtree. Returns ErrNoActivePlan when none exists.
func (s *SQLiteStore) ActivePlan(ctx context.Context, profileID string) (*types.FitnessPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+planColumns+` FROM fitness_plans
		WHERE profile_id = ? AND is_active = 1
		ORDER BY created_at DESC LIMIT 1
	`, profileID)
	plan, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoActivePlan
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	return plan, nil
}

// CountPlans returns the total number of stored plans.
func (s *SQLiteStore) CountPlans(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fitness_plans").Scan(&count)
	return count, err
}
