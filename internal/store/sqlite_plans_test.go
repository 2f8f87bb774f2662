package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperengineering/vita/internal/planner"
	"github.com/hyperengineering/vita/internal/types"
)

func date(s string) types.Date {
	d, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedPlan(t *testing.T, s *SQLiteStore, profileID string, start, end types.Date) *types.FitnessPlan {
	t.Helper()
	plan, err := s.CreatePlan(context.Background(), profileID, start, end,
		"muscle_gain", "prompt", "raw", planner.FallbackPlan())
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}

// TestCreatePlan_PersistsFullAggregate verifies the subtree round trip
func TestCreatePlan_PersistsFullAggregate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)

	created := seedPlan(t, s, profile.ID, date("2024-01-01"), date("2024-01-07"))

	if len(created.WorkoutDays) != 7 || len(created.NutritionDays) != 7 {
		t.Fatalf("expected 7+7 days, got %d+%d", len(created.WorkoutDays), len(created.NutritionDays))
	}
	if !created.IsActive {
		t.Error("new plan should be active")
	}

	loaded, err := s.GetPlan(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.WorkoutDays) != 7 || len(loaded.NutritionDays) != 7 {
		t.Fatalf("expected 7+7 days after reload, got %d+%d", len(loaded.WorkoutDays), len(loaded.NutritionDays))
	}

	// Days come back ordered by weekday
	for i, wd := range loaded.WorkoutDays {
		if wd.DayOfWeek != i+1 {
			t.Errorf("workout day %d: expected weekday %d, got %d", i, i+1, wd.DayOfWeek)
		}
	}

	// Non-rest days carry their exercises, rest days none
	if len(loaded.WorkoutDays[0].Exercises) == 0 {
		t.Error("expected exercises on day 1")
	}
	if len(loaded.WorkoutDays[2].Exercises) != 0 {
		t.Error("expected no exercises on rest day 3")
	}
	if len(loaded.NutritionDays[0].Meals) != 4 {
		t.Errorf("expected 4 meals on day 1, got %d", len(loaded.NutritionDays[0].Meals))
	}
	if loaded.AIPromptText != "prompt" || loaded.AIResponseRaw != "raw" {
		t.Error("prompt/response audit fields should persist")
	}
}

// TestCreatePlan_RejectsOverlap verifies inclusive range overlap windows
func TestCreatePlan_RejectsOverlap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)

	seedPlan(t, s, profile.ID, date("2024-01-01"), date("2024-01-07"))

	overlapping := [][2]string{
		{"2024-01-05", "2024-01-10"}, // straddles the end
		{"2023-12-28", "2024-01-01"}, // touches the start
		{"2024-01-03", "2024-01-04"}, // fully inside
		{"2023-12-01", "2024-02-01"}, // fully covers
	}
	for _, window := range overlapping {
		_, err := s.CreatePlan(ctx, profile.ID, date(window[0]), date(window[1]),
			"", "", "", planner.FallbackPlan())
		if !errors.Is(err, ErrPlanOverlap) {
			t.Errorf("window %v: expected ErrPlanOverlap, got %v", window, err)
		}
	}

	// Adjacent but non-overlapping is allowed
	if _, err := s.CreatePlan(ctx, profile.ID, date("2024-01-08"), date("2024-01-14"),
		"", "", "", planner.FallbackPlan()); err != nil {
		t.Errorf("adjacent window should be accepted, got %v", err)
	}
}

// TestCreatePlan_OverlapScopedToProfile verifies other profiles are unaffected
func TestCreatePlan_OverlapScopedToProfile(t *testing.T) {
	s := newTestStore(t)

	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")
	aliceProfile := seedProfile(t, s, alice.ID)
	bobProfile := seedProfile(t, s, bob.ID)

	seedPlan(t, s, aliceProfile.ID, date("2024-01-01"), date("2024-01-07"))

	// Same window for a different profile is fine
	seedPlan(t, s, bobProfile.ID, date("2024-01-01"), date("2024-01-07"))
}

// TestCreatePlan_RollsBackOnInvalidSubtree verifies atomicity: a failure
// mid-subtree leaves no partial rows behind
func TestCreatePlan_RollsBackOnInvalidSubtree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)

	// Duplicate weekday violates UNIQUE(plan_id, day_of_week) after several
	// rows have already been inserted.
	payload := planner.FallbackPlan()
	payload.WorkoutDays[6].DayOfWeek = 1

	_, err := s.CreatePlan(ctx, profile.ID, date("2024-01-01"), date("2024-01-07"),
		"", "", "", payload)
	if err == nil {
		t.Fatal("expected constraint violation")
	}

	count, err := s.CountPlans(ctx)
	if err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if count != 0 {
		t.Errorf("expected zero plans after rollback, got %d", count)
	}

	plans, err := s.ListPlans(ctx, profile.ID)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("expected no plans after rollback, got %d", len(plans))
	}
}

// TestListPlans_NewestFirst verifies ordering and subtree loading
func TestListPlans_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)

	seedPlan(t, s, profile.ID, date("2024-01-01"), date("2024-01-07"))
	seedPlan(t, s, profile.ID, date("2024-02-01"), date("2024-02-07"))

	plans, err := s.ListPlans(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if plans[0].StartDate.String() != "2024-02-01" {
		t.Errorf("expected newest first, got %s", plans[0].StartDate)
	}
	if len(plans[0].WorkoutDays) != 7 {
		t.Error("listed plans should include subtrees")
	}
}

// TestDeletePlan_CascadesSubtree verifies ON DELETE CASCADE
func TestDeletePlan_CascadesSubtree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)
	plan := seedPlan(t, s, profile.ID, date("2024-01-01"), date("2024-01-07"))

	workoutDayID := plan.WorkoutDays[0].ID

	if err := s.DeletePlan(ctx, plan.ID, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.GetPlan(ctx, plan.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	count, err := s.CountExercises(ctx, workoutDayID)
	if err != nil {
		t.Fatalf("count exercises: %v", err)
	}
	if count != 0 {
		t.Errorf("expected exercises cascade-deleted, got %d", count)
	}
}

// TestDeletePlan_OtherUsersPlan verifies ownership enforcement
func TestDeletePlan_OtherUsersPlan(t *testing.T) {
	s := newTestStore(t)

	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")
	aliceProfile := seedProfile(t, s, alice.ID)
	plan := seedPlan(t, s, aliceProfile.ID, date("2024-01-01"), date("2024-01-07"))

	err := s.DeletePlan(context.Background(), plan.ID, bob.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's plan, got %v", err)
	}

	// Alice's plan is untouched
	if _, err := s.GetPlan(context.Background(), plan.ID); err != nil {
		t.Errorf("plan should still exist: %v", err)
	}
}

// TestActivePlan_NewestActiveWins verifies selection order
func TestActivePlan_NewestActiveWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)

	seedPlan(t, s, profile.ID, date("2024-01-01"), date("2024-01-07"))
	time.Sleep(1100 * time.Millisecond) // created_at has second resolution
	second := seedPlan(t, s, profile.ID, date("2024-02-01"), date("2024-02-07"))

	active, err := s.ActivePlan(ctx, profile.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("expected newest active plan, got %s", active.ID)
	}
}

// TestActivePlan_NoneExists verifies the dedicated sentinel
func TestActivePlan_NoneExists(t *testing.T) {
	s := newTestStore(t)

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)

	if _, err := s.ActivePlan(context.Background(), profile.ID); !errors.Is(err, ErrNoActivePlan) {
		t.Fatalf("expected ErrNoActivePlan, got %v", err)
	}
}

// TestCountPlans verifies the status counter
func TestCountPlans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.CountPlans(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 plans, got %d", count)
	}

	user := seedUser(t, s, "alice@example.com")
	profile := seedProfile(t, s, user.ID)
	seedPlan(t, s, profile.ID, date("2024-01-01"), date("2024-01-07"))

	count, err = s.CountPlans(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 plan, got %d", count)
	}
}
