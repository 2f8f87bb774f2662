package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/vita/internal/types"
	"github.com/hyperengineering/vita/internal/validation"
)

// ErrInvalidPayload indicates a generation payload violating the plan shape.
var ErrInvalidPayload = errors.New("invalid plan payload")

// ValidatePlan checks the structural invariants of a generation payload:
// exactly 7 workout days and 7 nutrition days with day_of_week values
// forming the set {1..7} exactly once each, at least one meal per
// nutrition day, valid meal types, positive sets and non-negative numbers.
func ValidatePlan(p *types.GeneratedPlan) error {
	var c validation.Collector

	if len(p.WorkoutDays) != 7 {
		c.Add(&validation.ValidationError{
			Field:   "workout_days",
			Message: fmt.Sprintf("must contain exactly 7 entries, got %d", len(p.WorkoutDays)),
		})
	}
	if len(p.NutritionDays) != 7 {
		c.Add(&validation.ValidationError{
			Field:   "nutrition_days",
			Message: fmt.Sprintf("must contain exactly 7 entries, got %d", len(p.NutritionDays)),
		})
	}

	seenWorkout := map[int]bool{}
	for i, wd := range p.WorkoutDays {
		field := fmt.Sprintf("workout_days[%d]", i)
		c.Add(validation.ValidateWeekday(field+".day_of_week", wd.DayOfWeek))
		if seenWorkout[wd.DayOfWeek] {
			c.Add(&validation.ValidationError{
				Field:   field + ".day_of_week",
				Message: fmt.Sprintf("duplicate weekday %d", wd.DayOfWeek),
			})
		}
		seenWorkout[wd.DayOfWeek] = true
		c.Add(validation.ValidateRequired(field+".title", wd.Title))

		for j, ex := range wd.Exercises {
			exField := fmt.Sprintf("%s.exercises[%d]", field, j)
			c.Add(validation.ValidateRequired(exField+".name", ex.Name))
			if ex.Sets < 1 {
				c.Add(&validation.ValidationError{
					Field:   exField + ".sets",
					Message: "must be a positive integer",
				})
			}
			if ex.RestPeriodSeconds < 0 {
				c.Add(&validation.ValidationError{
					Field:   exField + ".rest_period_seconds",
					Message: "must be non-negative",
				})
			}
		}
	}

	seenNutrition := map[int]bool{}
	for i, nd := range p.NutritionDays {
		field := fmt.Sprintf("nutrition_days[%d]", i)
		c.Add(validation.ValidateWeekday(field+".day_of_week", nd.DayOfWeek))
		if seenNutrition[nd.DayOfWeek] {
			c.Add(&validation.ValidationError{
				Field:   field + ".day_of_week",
				Message: fmt.Sprintf("duplicate weekday %d", nd.DayOfWeek),
			})
		}
		seenNutrition[nd.DayOfWeek] = true

		for _, target := range []struct {
			name  string
			value int
		}{
			{"target_calories", nd.TargetCalories},
			{"target_protein_grams", nd.TargetProteinGrams},
			{"target_carbs_grams", nd.TargetCarbsGrams},
			{"target_fats_grams", nd.TargetFatsGrams},
		} {
			if target.value < 0 {
				c.Add(&validation.ValidationError{
					Field:   field + "." + target.name,
					Message: "must be non-negative",
				})
			}
		}

		if len(nd.Meals) == 0 {
			c.Add(&validation.ValidationError{
				Field:   field + ".meals",
				Message: "must contain at least one meal",
			})
		}
		for j, m := range nd.Meals {
			mealField := fmt.Sprintf("%s.meals[%d]", field, j)
			c.Add(validation.ValidateEnum(mealField+".meal_type", m.MealType, types.MealTypes))
			c.Add(validation.ValidateRequired(mealField+".description", m.Description))
			if m.Calories < 0 {
				c.Add(&validation.ValidationError{
					Field:   mealField + ".calories",
					Message: "must be non-negative",
				})
			}
			if m.ProteinGrams < 0 || m.CarbsGrams < 0 || m.FatsGrams < 0 {
				c.Add(&validation.ValidationError{
					Field:   mealField,
					Message: "macro grams must be non-negative",
				})
			}
		}
	}

	if c.HasErrors() {
		details := make([]string, 0, len(c.Errors()))
		for _, e := range c.Errors() {
			details = append(details, e.Field+" "+e.Message)
		}
		return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(details, "; "))
	}
	return nil
}
