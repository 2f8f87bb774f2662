package planner

import "github.com/hyperengineering/vita/internal/types"

// FallbackPlan returns the deterministic, non-personalized 7x7 payload
// substituted when generation fails. It satisfies the same shape
// invariants as generated plans, so persistence needs no special-casing.
func FallbackPlan() *types.GeneratedPlan {
	return &types.GeneratedPlan{
		WorkoutDays: []types.GeneratedWorkoutDay{
			{
				DayOfWeek:   1,
				Title:       "Full Body Strength",
				Description: "Bodyweight strength circuit. Warm up for 5 minutes before starting.",
				Exercises: []types.GeneratedExercise{
					{Name: "Push-ups", Sets: 3, Reps: "10-12", RestPeriodSeconds: 60},
					{Name: "Bodyweight Squats", Sets: 3, Reps: "12-15", RestPeriodSeconds: 60},
					{Name: "Plank", Sets: 3, Reps: "30-45 seconds", RestPeriodSeconds: 45},
				},
			},
			{
				DayOfWeek:   2,
				Title:       "Cardio & Core",
				Description: "Moderate-intensity cardio with core finisher.",
				Exercises: []types.GeneratedExercise{
					{Name: "Brisk Walk or Jog", Sets: 1, Reps: "25 minutes", RestPeriodSeconds: 0},
					{Name: "Crunches", Sets: 3, Reps: "15-20", RestPeriodSeconds: 45},
					{Name: "Mountain Climbers", Sets: 3, Reps: "20", RestPeriodSeconds: 45},
				},
			},
			{
				DayOfWeek:   3,
				Title:       "Rest Day",
				Description: "Recovery. Light stretching only.",
				IsRestDay:   true,
			},
			{
				DayOfWeek:   4,
				Title:       "Upper Body",
				Description: "Push and pull movements for the upper body.",
				Exercises: []types.GeneratedExercise{
					{Name: "Incline Push-ups", Sets: 3, Reps: "10-12", RestPeriodSeconds: 60},
					{Name: "Chair Dips", Sets: 3, Reps: "8-12", RestPeriodSeconds: 60},
					{Name: "Superman Hold", Sets: 3, Reps: "20-30 seconds", RestPeriodSeconds: 45},
				},
			},
			{
				DayOfWeek:   5,
				Title:       "Lower Body",
				Description: "Legs and glutes.",
				Exercises: []types.GeneratedExercise{
					{Name: "Lunges", Sets: 3, Reps: "10 per leg", RestPeriodSeconds: 60},
					{Name: "Glute Bridges", Sets: 3, Reps: "12-15", RestPeriodSeconds: 45},
					{Name: "Calf Raises", Sets: 3, Reps: "15-20", RestPeriodSeconds: 30},
				},
			},
			{
				DayOfWeek:   6,
				Title:       "Active Recovery",
				Description: "Low-intensity movement to aid recovery.",
				Exercises: []types.GeneratedExercise{
					{Name: "Walk", Sets: 1, Reps: "30 minutes", RestPeriodSeconds: 0},
					{Name: "Full Body Stretch", Sets: 1, Reps: "10 minutes", RestPeriodSeconds: 0},
				},
			},
			{
				DayOfWeek:   7,
				Title:       "Rest Day",
				Description: "Full rest.",
				IsRestDay:   true,
			},
		},
		NutritionDays: fallbackNutritionWeek(),
	}
}

func fallbackNutritionWeek() []types.GeneratedNutritionDay {
	days := make([]types.GeneratedNutritionDay, 7)
	for i := range days {
		days[i] = types.GeneratedNutritionDay{
			DayOfWeek:          i + 1,
			Notes:              "Drink at least 2 litres of water.",
			TargetCalories:     2000,
			TargetProteinGrams: 120,
			TargetCarbsGrams:   220,
			TargetFatsGrams:    60,
			Meals: []types.GeneratedMeal{
				{
					MealType:     "breakfast",
					Description:  "Oatmeal with banana and peanut butter",
					Calories:     400,
					ProteinGrams: 15,
					CarbsGrams:   60,
					FatsGrams:    12,
					PortionSize:  "1 bowl",
				},
				{
					MealType:     "lunch",
					Description:  "Grilled chicken with rice and vegetables",
					Calories:     650,
					ProteinGrams: 45,
					CarbsGrams:   70,
					FatsGrams:    18,
					PortionSize:  "1 plate",
				},
				{
					MealType:     "dinner",
					Description:  "Baked fish with potatoes and salad",
					Calories:     600,
					ProteinGrams: 40,
					CarbsGrams:   55,
					FatsGrams:    20,
					PortionSize:  "1 plate",
				},
				{
					MealType:     "snack",
					Description:  "Greek yogurt with mixed nuts",
					Calories:     350,
					ProteinGrams: 20,
					CarbsGrams:   25,
					FatsGrams:    15,
					PortionSize:  "1 cup",
				},
			},
		}
	}
	return days
}
