package types

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Date is a calendar date (no time component) serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// ISOWeekday returns the ISO 8601 weekday number (Monday=1 .. Sunday=7).
func (d Date) ISOWeekday() int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// --- Enumerations ---

// ActivityLevels are the accepted profile activity_level values.
var ActivityLevels = []string{"sedentary", "lightly_active", "moderately_active", "very_active"}

// Goals are the accepted profile goal values.
var Goals = []string{"weight_loss", "maintenance", "muscle_gain"}

// Genders are the accepted profile gender values.
var Genders = []string{"male", "female"}

// MealTypes are the accepted meal_type values.
var MealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

// --- Domain entities ---

// User is an account holder. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds the fitness and nutrition attributes of one user.
// Nullable measurements are pointers; BMI is derived at serialization time.
type Profile struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	CurrentWeight      *float64  `json:"current_weight"`
	Height             *int      `json:"height"`
	Age                *int      `json:"age"`
	Gender             *string   `json:"gender"`
	Image              string    `json:"image,omitempty"`
	ActivityLevel      *string   `json:"activity_level"`
	Goal               *string   `json:"goal"`
	DietaryPreferences string    `json:"dietary_preferences"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BMI returns weight_kg / (height_m)^2 rounded to two decimals,
// or nil when either input is missing.
func (p Profile) BMI() *float64 {
	if p.CurrentWeight == nil || p.Height == nil || *p.Height == 0 {
		return nil
	}
	heightM := float64(*p.Height) / 100
	bmi := *p.CurrentWeight / (heightM * heightM)
	rounded := math.Round(bmi*100) / 100
	return &rounded
}

// MarshalJSON includes the derived bmi field.
func (p Profile) MarshalJSON() ([]byte, error) {
	type Alias Profile
	return json.Marshal(struct {
		Alias
		BMI *float64 `json:"bmi"`
	}{Alias(p), p.BMI()})
}

// FitnessPlan is a dated container for one profile's workout and
// nutrition schedule, including the raw generator exchange for audit.
type FitnessPlan struct {
	ID             string         `json:"id"`
	ProfileID      string         `json:"profile_id"`
	StartDate      Date           `json:"start_date"`
	EndDate        Date           `json:"end_date"`
	GoalAtCreation string         `json:"goal_at_creation"`
	IsActive       bool           `json:"is_active"`
	AIPromptText   string         `json:"ai_prompt_text,omitempty"`
	AIResponseRaw  string         `json:"ai_response_raw,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	WorkoutDays    []WorkoutDay   `json:"workout_days"`
	NutritionDays  []NutritionDay `json:"nutrition_days"`
}

// MarshalJSON ensures nil slices in FitnessPlan marshal as [] not null.
func (p FitnessPlan) MarshalJSON() ([]byte, error) {
	if p.WorkoutDays == nil {
		p.WorkoutDays = []WorkoutDay{}
	}
	if p.NutritionDays == nil {
		p.NutritionDays = []NutritionDay{}
	}
	type Alias FitnessPlan
	return json.Marshal(Alias(p))
}

// WorkoutDay is a single day in a plan's workout week.
type WorkoutDay struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	DayOfWeek   int        `json:"day_of_week"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsRestDay   bool       `json:"is_rest_day"`
	Exercises   []Exercise `json:"exercises"`
}

// MarshalJSON ensures a nil exercise slice marshals as [] not null.
func (d WorkoutDay) MarshalJSON() ([]byte, error) {
	if d.Exercises == nil {
		d.Exercises = []Exercise{}
	}
	type Alias WorkoutDay
	return json.Marshal(Alias(d))
}

// Exercise is a specific exercise within a WorkoutDay.
type Exercise struct {
	ID                string `json:"id"`
	WorkoutDayID      string `json:"workout_day_id"`
	Name              string `json:"name"`
	Sets              int    `json:"sets"`
	Reps              string `json:"reps"`
	RestPeriodSeconds int    `json:"rest_period_seconds"`
	Notes             string `json:"notes"`
}

// NutritionDay is a single day's nutrition targets and meals.
type NutritionDay struct {
	ID                 string `json:"id"`
	PlanID             string `json:"plan_id"`
	DayOfWeek          int    `json:"day_of_week"`
	Notes              string `json:"notes"`
	TargetCalories     *int   `json:"target_calories"`
	TargetProteinGrams *int   `json:"target_protein_grams"`
	TargetCarbsGrams   *int   `json:"target_carbs_grams"`
	TargetFatsGrams    *int   `json:"target_fats_grams"`
	Meals              []Meal `json:"meals"`
}

// MarshalJSON ensures a nil meal slice marshals as [] not null.
func (d NutritionDay) MarshalJSON() ([]byte, error) {
	if d.Meals == nil {
		d.Meals = []Meal{}
	}
	type Alias NutritionDay
	return json.Marshal(Alias(d))
}

// Meal is a specific meal within a NutritionDay.
type Meal struct {
	ID             string  `json:"id"`
	NutritionDayID string  `json:"nutrition_day_id"`
	MealType       string  `json:"meal_type"`
	Description    string  `json:"description"`
	Calories       int     `json:"calories"`
	ProteinGrams   float64 `json:"protein_grams"`
	CarbsGrams     float64 `json:"carbs_grams"`
	FatsGrams      float64 `json:"fats_grams"`
	PortionSize    *string `json:"portion_size"`
}

// WorkoutTracking records a claim of partial or total completion of a
// planned exercise on a specific date.
type WorkoutTracking struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ExerciseID    string    `json:"exercise_id"`
	DateCompleted Date      `json:"date_completed"`
	SetsCompleted int       `json:"sets_completed"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// MealTracking records consumption of a planned meal on a specific date.
type MealTracking struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	MealID          string    `json:"meal_id"`
	DateCompleted   Date      `json:"date_completed"`
	PortionConsumed float64   `json:"portion_consumed"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

// WaterTracking records water intake for a date, optionally tied to a
// plan's nutrition day.
type WaterTracking struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	NutritionDayID *string   `json:"nutrition_day_id"`
	Date           Date      `json:"date"`
	LitresConsumed float64   `json:"litres_consumed"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// --- Generation payload (wire format from the plan generator) ---

// GeneratedPlan is the structured payload the plan generator must produce:
// exactly one workout day and one nutrition day per weekday 1..7.
type GeneratedPlan struct {
	WorkoutDays   []GeneratedWorkoutDay   `json:"workout_days"`
	NutritionDays []GeneratedNutritionDay `json:"nutrition_days"`
}

// GeneratedWorkoutDay mirrors WorkoutDay in the generation payload.
type GeneratedWorkoutDay struct {
	DayOfWeek   int                 `json:"day_of_week"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	IsRestDay   bool                `json:"is_rest_day"`
	Exercises   []GeneratedExercise `json:"exercises"`
}

// GeneratedExercise mirrors Exercise in the generation payload.
type GeneratedExercise struct {
	Name              string `json:"name"`
	Sets              int    `json:"sets"`
	Reps              string `json:"reps"`
	RestPeriodSeconds int    `json:"rest_period_seconds"`
	Notes             string `json:"notes"`
}

// GeneratedNutritionDay mirrors NutritionDay in the generation payload.
type GeneratedNutritionDay struct {
	DayOfWeek          int             `json:"day_of_week"`
	Notes              string          `json:"notes"`
	TargetCalories     int             `json:"target_calories"`
	TargetProteinGrams int             `json:"target_protein_grams"`
	TargetCarbsGrams   int             `json:"target_carbs_grams"`
	TargetFatsGrams    int             `json:"target_fats_grams"`
	Meals              []GeneratedMeal `json:"meals"`
}

// GeneratedMeal mirrors Meal in the generation payload.
type GeneratedMeal struct {
	MealType     string  `json:"meal_type"`
	Description  string  `json:"description"`
	Calories     int     `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
	FatsGrams    float64 `json:"fats_grams"`
	PortionSize  string  `json:"portion_size"`
}

// --- Request / response DTOs ---

// SignupRequest registers a new account.
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries a bearer token and the user representation.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateUserRequest updates account details. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Username  *string `json:"username" validate:"omitempty,min=3,max=64"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// ProfileRequest creates or updates a profile. All fields are optional;
// on partial updates absent fields are left unchanged.
type ProfileRequest struct {
	CurrentWeight      *float64 `json:"current_weight" validate:"omitempty,gt=0,lt=500"`
	Height             *int     `json:"height" validate:"omitempty,gt=0,lt=300"`
	Age                *int     `json:"age" validate:"omitempty,gt=0,lt=130"`
	Gender             *string  `json:"gender" validate:"omitempty,oneof=male female"`
	ActivityLevel      *string  `json:"activity_level" validate:"omitempty,oneof=sedentary lightly_active moderately_active very_active"`
	Goal               *string  `json:"goal" validate:"omitempty,oneof=weight_loss maintenance muscle_gain"`
	DietaryPreferences *string  `json:"dietary_preferences"`
	Image              *string  `json:"image"`
}

// CreatePlanRequest requests plan generation for an explicit date range.
type CreatePlanRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// CreateWorkoutTrackingRequest records completion of a planned exercise.
type CreateWorkoutTrackingRequest struct {
	ExerciseID    string `json:"exercise_id" validate:"required"`
	DateCompleted string `json:"date_completed" validate:"required"`
	SetsCompleted int    `json:"sets_completed" validate:"min=0"`
	Notes         string `json:"notes"`
}

// CreateMealTrackingRequest records consumption of a planned meal.
type CreateMealTrackingRequest struct {
	MealID          string  `json:"meal_id" validate:"required"`
	DateCompleted   string  `json:"date_completed" validate:"required"`
	PortionConsumed float64 `json:"portion_consumed" validate:"min=0"`
	Notes           string  `json:"notes"`
}

// CreateWaterTrackingRequest records water intake for a date.
type CreateWaterTrackingRequest struct {
	NutritionDayID *string `json:"nutrition_day_id"`
	Date           string  `json:"date" validate:"required"`
	LitresConsumed float64 `json:"litres_consumed" validate:"min=0"`
	Notes          string  `json:"notes"`
}

// DailyProgress is one row of the progress report.
type DailyProgress struct {
	Date              Date    `json:"date"`
	DayOfWeek         int     `json:"day_of_week"`
	WorkoutProgress   float64 `json:"workout_progress"`
	NutritionProgress float64 `json:"nutrition_progress"`
	IsRestDay         bool    `json:"is_rest_day"`
}

// ProgressResponse wraps the ordered per-day progress rows.
type ProgressResponse struct {
	Progress []DailyProgress `json:"progress"`
}

// MarshalJSON ensures a nil progress slice marshals as [] not null.
func (r ProgressResponse) MarshalJSON() ([]byte, error) {
	if r.Progress == nil {
		r.Progress = []DailyProgress{}
	}
	type Alias ProgressResponse
	return json.Marshal(Alias(r))
}

// CreatePlanResponse wraps a freshly generated plan.
type CreatePlanResponse struct {
	Message string      `json:"message"`
	Plan    FitnessPlan `json:"plan"`
}

// StatusResponse is the public status endpoint payload.
type StatusResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	GeneratorModel string `json:"generator_model"`
	PlanCount      int64  `json:"plan_count"`
}
