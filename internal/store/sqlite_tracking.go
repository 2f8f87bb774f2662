package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hyperengineering/vita/internal/types"
)

// rowExists reports whether a row with the given id exists in table.
// table is always a compile-time constant here.
func (s *SQLiteStore) rowExists(ctx context.Context, table, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return count > 0, nil
}

// --- Workout tracking ---

// CreateWorkoutTracking records completion of a planned exercise for the user.
// Returns ErrNotFound when the referenced exercise does not exist.
func (s *SQLiteStore) CreateWorkoutTracking(ctx context.Context, userID string, req types.CreateWorkoutTrackingRequest) (*types.WorkoutTracking, error) {
	exists, err := s.rowExists(ctx, "exercises", req.ExerciseID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	date, err := types.ParseDate(req.DateCompleted)
	if err != nil {
		return nil, err
	}

	t := types.WorkoutTracking{
		ID:            newID(),
		UserID:        userID,
		ExerciseID:    req.ExerciseID,
		DateCompleted: date,
		SetsCompleted: req.SetsCompleted,
		Notes:         req.Notes,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workout_tracking (id, user_id, exercise_id, date_completed, sets_completed, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.ExerciseID, t.DateCompleted.String(), t.SetsCompleted, t.Notes,
		formatTime(t.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert workout tracking: %w", err)
	}

	return &t, nil
}

// ListWorkoutTracking returns the user's workout tracking records, newest
// date first, optionally filtered to a single date.
func (s *SQLiteStore) ListWorkoutTracking(ctx context.Context, userID string, date *types.Date) ([]types.WorkoutTracking, error) {
	query := `
		SELECT id, user_id, exercise_id, date_completed, sets_completed, notes, created_at
		FROM workout_tracking WHERE user_id = ?`
	args := []any{userID}
	if date != nil {
		query += " AND date_completed = ?"
		args = append(args, date.String())
	}
	query += " ORDER BY date_completed DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query workout tracking: %w", err)
	}
	defer rows.Close()

	var records []types.WorkoutTracking
	for rows.Next() {
		var t types.WorkoutTracking
		var completed, createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.ExerciseID, &completed,
			&t.SetsCompleted, &t.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan workout tracking: %w", err)
		}
		if t.DateCompleted, err = types.ParseDate(completed); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		records = append(records, t)
	}
	return records, rows.Err()
}

// DeleteWorkoutTracking removes a record matching both id and owner.
// Another user's record yields ErrNotFound, never a silent no-op.
func (s *SQLiteStore) DeleteWorkoutTracking(ctx context.Context, id, userID string) error {
	return s.deleteOwned(ctx, "workout_tracking", id, userID)
}

// --- Meal tracking ---

// CreateMealTracking records consumption of a planned meal for the user.
// Returns ErrNotFound when the referenced meal does not exist.
func (s *SQLiteStore) CreateMealTracking(ctx context.Context, userID string, req types.CreateMealTrackingRequest) (*types.MealTracking, error) {
	exists, err := s.rowExists(ctx, "meals", req.MealID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	date, err := types.ParseDate(req.DateCompleted)
	if err != nil {
		return nil, err
	}

	t := types.MealTracking{
		ID:              newID(),
		UserID:          userID,
		MealID:          req.MealID,
		DateCompleted:   date,
		PortionConsumed: req.PortionConsumed,
		Notes:           req.Notes,
		CreatedAt:       time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meal_tracking (id, user_id, meal_id, date_completed, portion_consumed, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.MealID, t.DateCompleted.String(), t.PortionConsumed, t.Notes,
		formatTime(t.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert meal tracking: %w", err)
	}

	return &t, nil
}

// ListMealTracking returns the user's meal tracking records, newest date
// first, optionally filtered to a single date.
func (s *SQLiteStore) ListMealTracking(ctx context.Context, userID string, date *types.Date) ([]types.MealTracking, error) {
	query := `
		SELECT id, user_id, meal_id, date_completed, portion_consumed, notes, created_at
		FROM meal_tracking WHERE user_id = ?`
	args := []any{userID}
	if date != nil {
		query += " AND date_completed = ?"
		args = append(args, date.String())
	}
	query += " ORDER BY date_completed DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query meal tracking: %w", err)
	}
	defer rows.Close()

	var records []types.MealTracking
	for rows.Next() {
		var t types.MealTracking
		var completed, createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.MealID, &completed,
			&t.PortionConsumed, &t.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan meal tracking: %w", err)
		}
		if t.DateCompleted, err = types.ParseDate(completed); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		records = append(records, t)
	}
	return records, rows.Err()
}

// DeleteMealTracking removes a record matching both id and owner.
func (s *SQLiteStore) DeleteMealTracking(ctx context.Context, id, userID string) error {
	return s.deleteOwned(ctx, "meal_tracking", id, userID)
}

// --- Water tracking ---

// CreateWaterTracking records water intake for a date. The nutrition day
// reference is optional; when present it must exist.
func (s *SQLiteStore) CreateWaterTracking(ctx context.Context, userID string, req types.CreateWaterTrackingRequest) (*types.WaterTracking, error) {
	if req.NutritionDayID != nil {
		exists, err := s.rowExists(ctx, "nutrition_days", *req.NutritionDayID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
	}

	date, err := types.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	t := types.WaterTracking{
		ID:             newID(),
		UserID:         userID,
		NutritionDayID: req.NutritionDayID,
		Date:           date,
		LitresConsumed: req.LitresConsumed,
		Notes:          req.Notes,
		CreatedAt:      time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO water_tracking (id, user_id, nutrition_day_id, date, litres_consumed, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, nullString(t.NutritionDayID), t.Date.String(), t.LitresConsumed,
		t.Notes, formatTime(t.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert water tracking: %w", err)
	}

	return &t, nil
}

// ListWaterTracking returns the user's water tracking records, newest date
// first, optionally filtered to a single date.
func (s *SQLiteStore) ListWaterTracking(ctx context.Context, userID string, date *types.Date) ([]types.WaterTracking, error) {
	query := `
		SELECT id, user_id, nutrition_day_id, date, litres_consumed, notes, created_at
		FROM water_tracking WHERE user_id = ?`
	args := []any{userID}
	if date != nil {
		query += " AND date = ?"
		args = append(args, date.String())
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query water tracking: %w", err)
	}
	defer rows.Close()

	var records []types.WaterTracking
	for rows.Next() {
		var t types.WaterTracking
		var nutritionDay sql.NullString
		var day, createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &nutritionDay, &day,
			&t.LitresConsumed, &t.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan water tracking: %w", err)
		}
		if nutritionDay.Valid {
			t.NutritionDayID = &nutritionDay.String
		}
		if t.Date, err = types.ParseDate(day); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		records = append(records, t)
	}
	return records, rows.Err()
}

// DeleteWaterTracking removes a record matching both id and owner.
func (s *SQLiteStore) DeleteWaterTracking(ctx context.Context, id, userID string) error {
	return s.deleteOwned(ctx, "water_tracking", id, userID)
}

// deleteOwned deletes a row matching both id and user_id from one of the
// tracking tables. table is always a compile-time constant.
func (s *SQLiteStore) deleteOwned(ctx context.Context, table, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
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
