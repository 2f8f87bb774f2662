// Package planner produces structured fitness plans from an external AI
// generator, falling back to a deterministic payload when generation fails.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperengineering/vita/internal/types"
)

// Result is one generation outcome: the validated plan payload plus the
// raw prompt/response exchange kept for audit.
type Result struct {
	Plan   *types.GeneratedPlan
	Prompt string
	Raw    string
}

// Generator produces a structured plan for a profile and date range.
// Implementations either return a fully shape-valid payload or an error;
// they never persist anything.
type Generator interface {
	Generate(ctx context.Context, profile types.Profile, start, end types.Date) (*Result, error)
	ModelName() string
}

// buildPrompt renders the generation prompt from a profile snapshot and
// the requested date range.
func buildPrompt(profile types.Profile, start, end types.Date) string {
	var b strings.Builder
	b.WriteString("Create a 7-day fitness and nutrition plan as a single JSON object with ")
	b.WriteString(`"workout_days" and "nutrition_days" arrays, exactly one entry per weekday `)
	b.WriteString("(day_of_week 1=Monday .. 7=Sunday). Each workout day has title, description, ")
	b.WriteString("is_rest_day and an exercises array (name, sets, reps, rest_period_seconds, notes). ")
	b.WriteString("Each nutrition day has notes, target_calories, target_protein_grams, ")
	b.WriteString("target_carbs_grams, target_fats_grams and a meals array (meal_type one of ")
	b.WriteString("breakfast/lunch/dinner/snack, description, calories, protein_grams, carbs_grams, ")
	b.WriteString("fats_grams, portion_size).\n\nClient profile:\n")

	writeField := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", name, value)
		}
	}
	if profile.CurrentWeight != nil {
		writeField("weight", fmt.Sprintf("%.1f kg", *profile.CurrentWeight))
	}
	if profile.Height != nil {
		writeField("height", fmt.Sprintf("%d cm", *profile.Height))
	}
	if profile.Age != nil {
		writeField("age", fmt.Sprintf("%d", *profile.Age))
	}
	if profile.Gender != nil {
		writeField("gender", *profile.Gender)
	}
	if profile.ActivityLevel != nil {
		writeField("activity level", *profile.ActivityLevel)
	}
	if profile.Goal != nil {
		writeField("goal", *profile.Goal)
	}
	writeField("dietary preferences", profile.DietaryPreferences)

	fmt.Fprintf(&b, "\nPlan period: %s to %s (inclusive).\n", start, end)
	b.WriteString("Respond with the JSON object only, no surrounding text.")
	return b.String()
}
