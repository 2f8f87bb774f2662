package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/vita/internal/progress"
	"github.com/hyperengineering/vita/internal/store"
	"github.com/hyperengineering/vita/internal/types"
	"github.com/hyperengineering/vita/internal/validation"
)

// profileForRequest loads the caller's profile, writing a 404 problem
// when none exists. Returns nil after writing the response.
func (h *Handler) profileForRequest(w http.ResponseWriter, r *http.Request) *types.Profile {
	profile, err := h.store.GetProfileByUserID(r.Context(), MustUserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteProblem(w, r, http.StatusNotFound, "Profile not found; create one first")
			return nil
		}
		MapStoreError(w, r, err)
		return nil
	}
	return profile
}

// ListPlans handles GET /api/v1/users/me/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	profile := h.profileForRequest(w, r)
	if profile == nil {
		return
	}

	plans, err := h.store.ListPlans(r.Context(), profile.ID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// CreatePlan handles POST /api/v1/users/me/plans.
// Generates the plan content (with fallback) and persists the full
// aggregate atomically; an overlapping active plan is a conflict.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	var errs []validation.ValidationError
	start, err := types.ParseDate(req.StartDate)
	if err != nil {
		errs = append(errs, validation.ValidationError{Field: "start_date", Message: "must be a valid YYYY-MM-DD date"})
	}
	end, err := types.ParseDate(req.EndDate)
	if err != nil {
		errs = append(errs, validation.ValidationError{Field: "end_date", Message: "must be a valid YYYY-MM-DD date"})
	}
	if len(errs) == 0 && end.Before(start.Time) {
		errs = append(errs, validation.ValidationError{Field: "end_date", Message: "must not be before start_date"})
	}
	if len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	profile := h.profileForRequest(w, r)
	if profile == nil {
		return
	}

	result := h.plans.GenerateWithFallback(r.Context(), *profile, start, end)

	goal := ""
	if profile.Goal != nil {
		goal = *profile.Goal
	}

	plan, err := h.store.CreatePlan(r.Context(), profile.ID, start, end, goal, result.Prompt, result.Raw, result.Plan)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, types.CreatePlanResponse{
		Message: "Fitness plan created",
		Plan:    *plan,
	})
}

// DeletePlan handles DELETE /api/v1/users/me/plans/{id}
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if verr := validation.ValidateULID("id", id); verr != nil {
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
		return
	}

	if err := h.store.DeletePlan(r.Context(), id, MustUserIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dateFilter parses an optional ?date= query parameter.
func dateFilter(r *http.Request) (*types.Date, *validation.ValidationError) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return nil, nil
	}
	d, err := types.ParseDate(raw)
	if err != nil {
		return nil, &validation.ValidationError{Field: "date", Message: "must be a valid YYYY-MM-DD date"}
	}
	return &d, nil
}

// ListWorkoutTracking handles GET /api/v1/users/me/workout-tracking
func (h *Handler) ListWorkoutTracking(w http.ResponseWriter, r *http.Request) {
	date, verr := dateFilter(r)
	if verr != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
		return
	}

	records, err := h.store.ListWorkoutTracking(r.Context(), MustUserIDFromContext(r.Context()), date)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// CreateWorkoutTracking handles POST /api/v1/users/me/workout-tracking
func (h *Handler) CreateWorkoutTracking(w http.ResponseWriter, r *http.Request) {
	var req types.CreateWorkoutTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	if _, err := types.ParseDate(req.DateCompleted); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "date_completed", Message: "must be a valid YYYY-MM-DD date"},
		})
		return
	}

	record, err := h.store.CreateWorkoutTracking(r.Context(), MustUserIDFromContext(r.Context()), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// DeleteWorkoutTracking handles DELETE /api/v1/users/me/workout-tracking/{id}
func (h *Handler) DeleteWorkoutTracking(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteWorkoutTracking(r.Context(), chi.URLParam(r, "id"), MustUserIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMealTracking handles GET /api/v1/users/me/meal-tracking
func (h *Handler) ListMealTracking(w http.ResponseWriter, r *http.Request) {
	date, verr := dateFilter(r)
	if verr != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
		return
	}

	records, err := h.store.ListMealTracking(r.Context(), MustUserIDFromContext(r.Context()), date)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// CreateMealTracking handles POST /api/v1/users/me/meal-tracking
func (h *Handler) CreateMealTracking(w http.ResponseWriter, r *http.Request) {
	var req types.CreateMealTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	if _, err := types.ParseDate(req.DateCompleted); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "date_completed", Message: "must be a valid YYYY-MM-DD date"},
		})
		return
	}

	record, err := h.store.CreateMealTracking(r.Context(), MustUserIDFromContext(r.Context()), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// DeleteMealTracking handles DELETE /api/v1/users/me/meal-tracking/{id}
func (h *Handler) DeleteMealTracking(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteMealTracking(r.Context(), chi.URLParam(r, "id"), MustUserIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWaterTracking handles GET /api/v1/users/me/water-tracking
func (h *Handler) ListWaterTracking(w http.ResponseWriter, r *http.Request) {
	date, verr := dateFilter(r)
	if verr != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
		return
	}

	records, err := h.store.ListWaterTracking(r.Context(), MustUserIDFromContext(r.Context()), date)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// CreateWaterTracking handles POST /api/v1/users/me/water-tracking
func (h *Handler) CreateWaterTracking(w http.ResponseWriter, r *http.Request) {
	var req types.CreateWaterTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	if _, err := types.ParseDate(req.Date); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "date", Message: "must be a valid YYYY-MM-DD date"},
		})
		return
	}

	record, err := h.store.CreateWaterTracking(r.Context(), MustUserIDFromContext(r.Context()), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// DeleteWaterTracking handles DELETE /api/v1/users/me/water-tracking/{id}
func (h *Handler) DeleteWaterTracking(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteWaterTracking(r.Context(), chi.URLParam(r, "id"), MustUserIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DailyProgress handles GET /api/v1/users/me/daily-progress.
// Accepts ?date= for a single day or ?start_date=&end_date= for a range;
// defaults to today.
func (h *Handler) DailyProgress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var start, end types.Date
	switch {
	case q.Get("date") != "":
		d, err := types.ParseDate(q.Get("date"))
		if err != nil {
			WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
				{Field: "date", Message: "must be a valid YYYY-MM-DD date"},
			})
			return
		}
		start, end = d, d
	case q.Get("start_date") != "" || q.Get("end_date") != "":
		var errs []validation.ValidationError
		var err error
		start, err = types.ParseDate(q.Get("start_date"))
		if err != nil {
			errs = append(errs, validation.ValidationError{Field: "start_date", Message: "must be a valid YYYY-MM-DD date"})
		}
		end, err = types.ParseDate(q.Get("end_date"))
		if err != nil {
			errs = append(errs, validation.ValidationError{Field: "end_date", Message: "must be a valid YYYY-MM-DD date"})
		}
		if len(errs) > 0 {
			WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
			return
		}
	default:
		start, end = types.Today(), types.Today()
	}

	profile := h.profileForRequest(w, r)
	if profile == nil {
		return
	}

	resp, err := h.progress.ForRange(r.Context(), MustUserIDFromContext(r.Context()), profile.ID, start, end)
	if err != nil {
		if errors.Is(err, progress.ErrInvalidRange) {
			WriteProblem(w, r, http.StatusBadRequest, "end_date must not be before start_date")
			return
		}
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
