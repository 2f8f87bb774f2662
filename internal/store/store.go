package store

import (
	"context"

	"github.com/hyperengineering/vita/internal/types"
)

// Store defines the interface contract for all persistence operations.
type Store interface {
	// Users
	CreateUser(ctx context.Context, email, username, passwordHash, firstName, lastName string) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	UpdateUser(ctx context.Context, id string, req types.UpdateUserRequest) (*types.User, error)

	// Profiles
	CreateProfile(ctx context.Context, userID string, req types.ProfileRequest) (*types.Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*types.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req types.ProfileRequest, replace bool) (*types.Profile, error)

	// Plans
	CreatePlan(ctx context.Context, profileID string, start, end types.Date, goal, prompt, rawResponse string, payload *types.GeneratedPlan) (*types.FitnessPlan, error)
	GetPlan(ctx context.Context, id string) (*types.FitnessPlan, error)
	ListPlans(ctx context.Context, profileID string) ([]types.FitnessPlan, error)
	DeletePlan(ctx context.Context, id, userID string) error
	ActivePlan(ctx context.Context, profileID string) (*types.FitnessPlan, error)
	CountPlans(ctx context.Context) (int64, error)

	// Tracking
	CreateWorkoutTracking(ctx context.Context, userID string, req types.CreateWorkoutTrackingRequest) (*types.WorkoutTracking, error)
	ListWorkoutTracking(ctx context.Context, userID string, date *types.Date) ([]types.WorkoutTracking, error)
	DeleteWorkoutTracking(ctx context.Context, id, userID string) error
	CreateMealTracking(ctx context.Context, userID string, req types.CreateMealTrackingRequest) (*types.MealTracking, error)
	ListMealTracking(ctx context.Context, userID string, date *types.Date) ([]types.MealTracking, error)
	DeleteMealTracking(ctx context.Context, id, userID string) error
	CreateWaterTracking(ctx context.Context, userID string, req types.CreateWaterTrackingRequest) (*types.WaterTracking, error)
	ListWaterTracking(ctx context.Context, userID string, date *types.Date) ([]types.WaterTracking, error)
	DeleteWaterTracking(ctx context.Context, id, userID string) error

	// Progress source
	WorkoutDayForWeekday(ctx context.Context, planID string, weekday int) (*types.WorkoutDay, error)
	NutritionDayForWeekday(ctx context.Context, planID string, weekday int) (*types.NutritionDay, error)
	CountExercises(ctx context.Context, workoutDayID string) (int, error)
	CountCompletedExercises(ctx context.Context, userID, workoutDayID string, date types.Date) (int, error)
	CountMeals(ctx context.Context, nutritionDayID string) (int, error)
	CountCompletedMeals(ctx context.Context, userID, nutritionDayID string, date types.Date) (int, error)

	Close() error
}
