package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperengineering/vita/internal/auth"
	"github.com/hyperengineering/vita/internal/planner"
	"github.com/hyperengineering/vita/internal/store"
	"github.com/hyperengineering/vita/internal/types"
)

// stubPlanService implements PlanService with the deterministic payload.
type stubPlanService struct {
	callCount int
}

func (s *stubPlanService) GenerateWithFallback(ctx context.Context, profile types.Profile, start, end types.Date) *planner.Result {
	s.callCount++
	raw, _ := json.Marshal(planner.FallbackPlan())
	return &planner.Result{Plan: planner.FallbackPlan(), Prompt: "test prompt", Raw: string(raw)}
}

func (s *stubPlanService) ModelName() string { return "test-model" }

// newTestServer wires a real store and auth service behind the router.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	authSvc := auth.NewService("test-secret", time.Hour)
	handler := NewHandler(db, &stubPlanService{}, authSvc, "test")
	return NewRouter(handler, authSvc)
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// signupUser registers a fresh account and returns its bearer token.
func signupUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/signup", "", types.SignupRequest{
		Email:    email,
		Username: "tester",
		Password: "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp types.AuthResponse
	decodeBody(t, rec, &resp)
	return resp.Token
}

// createProfile creates a profile for the token's user.
func createProfile(t *testing.T, router http.Handler, token string) {
	t.Helper()
	weight := 70.0
	height := 175
	goal := "muscle_gain"
	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/me/profile", token, types.ProfileRequest{
		CurrentWeight: &weight,
		Height:        &height,
		Goal:          &goal,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create profile failed: %d %s", rec.Code, rec.Body.String())
	}
}

// createPlan creates a plan for the token's user and returns the aggregate.
func createPlan(t *testing.T, router http.Handler, token, start, end string) types.CreatePlanResponse {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/me/plans", token, types.CreatePlanRequest{
		StartDate: start,
		EndDate:   end,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plan failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp types.CreatePlanResponse
	decodeBody(t, rec, &resp)
	return resp
}

// TestStatus_PublicEndpoint verifies /status needs no auth
func TestStatus_PublicEndpoint(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp types.StatusResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || resp.GeneratorModel != "test-model" {
		t.Errorf("unexpected status payload: %+v", resp)
	}
}

// TestSignup_CreatesAccount verifies 201 with token, no hash leakage
func TestSignup_CreatesAccount(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/signup", "", types.SignupRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.AuthResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Error("expected a bearer token")
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not contain password material")
	}
}

// TestSignup_ValidationErrors verifies 422 problem+json with field errors
func TestSignup_ValidationErrors(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/signup", "", types.SignupRequest{
		Email:    "not-an-email",
		Username: "ab",
		Password: "short",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json, got %s", ct)
	}

	var problem ProblemWithErrors
	decodeBody(t, rec, &problem)
	if len(problem.Errors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %+v", len(problem.Errors), problem.Errors)
	}
}

// TestSignup_DuplicateEmail verifies the conflict mapping
func TestSignup_DuplicateEmail(t *testing.T) {
	router := newTestServer(t)
	signupUser(t, router, "alice@example.com")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/signup", "", types.SignupRequest{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "password123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

// TestLogin_Credentials verifies 200 on match and 401 otherwise
func TestLogin_Credentials(t *testing.T) {
	router := newTestServer(t)
	signupUser(t, router, "alice@example.com")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "", types.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "", types.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "", types.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d", rec.Code)
	}
}

// TestAuthMiddleware_RejectsBadTokens verifies 401 on missing/invalid tokens
func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/me", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

// TestUsersMe_GetAndPatch verifies the account endpoints
func TestUsersMe_GetAndPatch(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user types.User
	decodeBody(t, rec, &user)
	if user.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}

	first := "Alicia"
	rec = doRequest(t, router, http.MethodPatch, "/api/v1/users/me", token, types.UpdateUserRequest{FirstName: &first})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &user)
	if user.FirstName != "Alicia" {
		t.Errorf("expected updated first name, got %q", user.FirstName)
	}
}

// TestProfile_Lifecycle verifies GET/POST/PATCH/PUT semantics
func TestProfile_Lifecycle(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/me/profile", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before create, got %d", rec.Code)
	}

	createProfile(t, router, token)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/me/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"bmi":22.86`) {
		t.Errorf("expected derived bmi in response, got %s", rec.Body.String())
	}

	// Second create conflicts
	rec = doRequest(t, router, http.MethodPost, "/api/v1/users/me/profile", token, types.ProfileRequest{})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second profile, got %d", rec.Code)
	}

	// PATCH keeps absent fields
	age := 30
	rec = doRequest(t, router, http.MethodPatch, "/api/v1/users/me/profile", token, types.ProfileRequest{Age: &age})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var profile types.Profile
	decodeBody(t, rec, &profile)
	if profile.Age == nil || *profile.Age != 30 {
		t.Error("expected updated age")
	}
	if profile.Height == nil {
		t.Error("PATCH should keep absent height")
	}

	// PUT clears absent fields
	weight := 72.0
	rec = doRequest(t, router, http.MethodPut, "/api/v1/users/me/profile", token, types.ProfileRequest{CurrentWeight: &weight})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &profile)
	if profile.Height != nil {
		t.Error("PUT should clear absent height")
	}
}

// TestProfile_InvalidEnum verifies validator enum enforcement
func TestProfile_InvalidEnum(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")

	goal := "get_swole"
	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/me/profile", token, types.ProfileRequest{Goal: &goal})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestCreatePlan_ReturnsFullAggregate verifies plan creation end to end
func TestCreatePlan_ReturnsFullAggregate(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")
	createProfile(t, router, token)

	resp := createPlan(t, router, token, "2024-01-01", "2024-01-07")

	if len(resp.Plan.WorkoutDays) != 7 || len(resp.Plan.NutritionDays) != 7 {
		t.Fatalf("expected 7+7 days, got %d+%d", len(resp.Plan.WorkoutDays), len(resp.Plan.NutritionDays))
	}
	if resp.Plan.GoalAtCreation != "muscle_gain" {
		t.Errorf("expected goal snapshot, got %q", resp.Plan.GoalAtCreation)
	}
	if !resp.Plan.IsActive {
		t.Error("new plan should be active")
	}
}

// TestCreatePlan_Conflicts verifies overlap and date validation mapping
func TestCreatePlan_Conflicts(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")
	createProfile(t, router, token)
	createPlan(t, router, token, "2024-01-01", "2024-01-07")

	// Overlapping window
	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/me/plans", token, types.CreatePlanRequest{
		StartDate: "2024-01-05", EndDate: "2024-01-10",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overlap, got %d", rec.Code)
	}

	// Malformed date
	rec = doRequest(t, router, http.MethodPost, "/api/v1/users/me/plans", token, types.CreatePlanRequest{
		StartDate: "01/05/2024", EndDate: "2024-01-10",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad date, got %d", rec.Code)
	}

	// Inverted range
	rec = doRequest(t, router, http.MethodPost, "/api/v1/users/me/plans", token, types.CreatePlanRequest{
		StartDate: "2024-02-10", EndDate: "2024-02-01",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for inverted range, got %d", rec.Code)
	}
}

// TestCreatePlan_RequiresProfile verifies 404 without a profile
func TestCreatePlan_RequiresProfile(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/me/plans", token, types.CreatePlanRequest{
		StartDate: "2024-01-01", EndDate: "2024-01-07",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without profile, got %d", rec.Code)
	}
}

// TestDeletePlan verifies 204 for the owner and 404 for unknown IDs
func TestDeletePlan(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")
	createProfile(t, router, token)
	resp := createPlan(t, router, token, "2024-01-01", "2024-01-07")

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/users/me/plans/"+resp.Plan.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/users/me/plans/"+resp.Plan.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for repeated delete, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/users/me/plans/not-a-ulid", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
}

// TestWorkoutTracking_Endpoints verifies create/list/delete plus 404 mapping
func TestWorkoutTracking_Endpoints(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")
	createProfile(t, router, token)
	plan := createPlan(t, router, token, "2024-01-01", "2024-01-07")

	exerciseID := plan.Plan.WorkoutDays[0].Exercises[0].ID

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/me/workout-tracking", token, types.CreateWorkoutTrackingRequest{
		ExerciseID:    exerciseID,
		DateCompleted: "2024-01-01",
		SetsCompleted: 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var record types.WorkoutTracking
	decodeBody(t, rec, &record)

	// Unknown exercise maps to 404
	rec = doRequest(t, router, http.MethodPost, "/api/v1/users/me/workout-tracking", token, types.CreateWorkoutTrackingRequest{
		ExerciseID:    "missing",
		DateCompleted: "2024-01-01",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown exercise, got %d", rec.Code)
	}

	// Date filter
	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/me/workout-tracking?date=2024-01-01", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var records []types.WorkoutTracking
	decodeBody(t, rec, &records)
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/me/workout-tracking?date=bogus", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad date filter, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/users/me/workout-tracking/"+record.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

// TestWaterTracking_Endpoints verifies the water tracking surface
func TestWaterTracking_Endpoints(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users/me/water-tracking", token, types.CreateWaterTrackingRequest{
		Date:           "2024-01-01",
		LitresConsumed: 2.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/me/water-tracking", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var records []types.WaterTracking
	decodeBody(t, rec, &records)
	if len(records) != 1 || records[0].LitresConsumed != 2.0 {
		t.Errorf("unexpected records: %+v", records)
	}
}

// TestDailyProgress verifies single-day and range queries
func TestDailyProgress(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")
	createProfile(t, router, token)
	createPlan(t, router, token, "2024-01-01", "2024-01-07")

	// 2024-01-03 is a Wednesday, rest day in the deterministic payload
	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/me/daily-progress?date=2024-01-03", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp types.ProgressResponse
	decodeBody(t, rec, &resp)
	if len(resp.Progress) != 1 {
		t.Fatalf("expected 1 row, got %d", len(resp.Progress))
	}
	if !resp.Progress[0].IsRestDay || resp.Progress[0].WorkoutProgress != 100 {
		t.Errorf("expected rest day at 100%%, got %+v", resp.Progress[0])
	}

	// Full week range
	rec = doRequest(t, router, http.MethodGet,
		"/api/v1/users/me/daily-progress?start_date=2024-01-01&end_date=2024-01-07", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &resp)
	if len(resp.Progress) != 7 {
		t.Errorf("expected 7 rows, got %d", len(resp.Progress))
	}

	// Inverted range is a client error, not an empty result
	rec = doRequest(t, router, http.MethodGet,
		"/api/v1/users/me/daily-progress?start_date=2024-01-07&end_date=2024-01-01", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
	}
}

// TestDailyProgress_NoActivePlan verifies the 404 mapping
func TestDailyProgress_NoActivePlan(t *testing.T) {
	router := newTestServer(t)
	token := signupUser(t, router, "alice@example.com")
	createProfile(t, router, token)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users/me/daily-progress?date=2024-01-03", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without active plan, got %d", rec.Code)
	}
}
