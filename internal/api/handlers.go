package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hyperengineering/vita/internal/auth"
	"github.com/hyperengineering/vita/internal/planner"
	"github.com/hyperengineering/vita/internal/progress"
	"github.com/hyperengineering/vita/internal/store"
	"github.com/hyperengineering/vita/internal/types"
	"github.com/hyperengineering/vita/internal/validation"
)

// PlanService produces plan payloads for a profile and date range.
// Implemented by planner.Service; narrowed here for handler tests.
type PlanService interface {
	GenerateWithFallback(ctx context.Context, profile types.Profile, start, end types.Date) *planner.Result
	ModelName() string
}

// Handler implements the API handlers
type Handler struct {
	store    store.Store
	plans    PlanService
	auth     *auth.Service
	progress *progress.Calculator
	validate *validator.Validate
	version  string
}

// NewHandler creates a new Handler with store.Store interface
func NewHandler(s store.Store, plans PlanService, a *auth.Service, version string) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in validation errors, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		store:    s,
		plans:    plans,
		auth:     a,
		progress: progress.NewCalculator(s),
		validate: v,
		version:  version,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// validateRequest runs struct tag validation and converts failures into
// field errors suitable for a 422 problem response.
func (h *Handler) validateRequest(req any) []validation.ValidationError {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []validation.ValidationError{{Field: "request", Message: "is invalid"}}
	}

	out := make([]validation.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, validation.ValidationError{Field: fe.Field(), Message: messageForTag(fe)})
	}
	return out
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// Status returns the public service status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountPlans(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.StatusResponse{
		Status:         "ok",
		Version:        h.version,
		GeneratorModel: h.plans.ModelName(),
		PlanCount:      count,
	})
}

// Signup handles POST /api/v1/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Email, req.Username, hash, req.FirstName, req.LastName)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		slog.Error("token issuing failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusCreated, types.AuthResponse{Token: token, User: *user})
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteProblem(w, r, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		MapStoreError(w, r, err)
		return
	}

	if err := h.auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		WriteProblem(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		slog.Error("token issuing failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, types.AuthResponse{Token: token, User: *user})
}

// GetMe handles GET /api/v1/users/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(r.Context(), MustUserIDFromContext(r.Context()))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PUT and PATCH /api/v1/users/me.
// Absent fields are left unchanged.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	user, err := h.store.UpdateUser(r.Context(), MustUserIDFromContext(r.Context()), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetProfile handles GET /api/v1/users/me/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetProfileByUserID(r.Context(), MustUserIDFromContext(r.Context()))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// CreateProfile handles POST /api/v1/users/me/profile
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	profile, err := h.store.CreateProfile(r.Context(), MustUserIDFromContext(r.Context()), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// ReplaceProfile handles PUT /api/v1/users/me/profile (full replace).
func (h *Handler) ReplaceProfile(w http.ResponseWriter, r *http.Request) {
	h.updateProfile(w, r, true)
}

// PatchProfile handles PATCH /api/v1/users/me/profile (partial update).
func (h *Handler) PatchProfile(w http.ResponseWriter, r *http.Request) {
	h.updateProfile(w, r, false)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request, replace bool) {
	var req types.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := h.validateRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	profile, err := h.store.UpdateProfile(r.Context(), MustUserIDFromContext(r.Context()), req, replace)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
