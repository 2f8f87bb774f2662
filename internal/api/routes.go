package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/vita/internal/auth"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, a *auth.Service) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/status", h.Status)
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)

		// Protected routes (bearer token required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(a))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", h.GetMe)
				r.Put("/", h.UpdateMe)
				r.Patch("/", h.UpdateMe)

				r.Route("/profile", func(r chi.Router) {
					r.Get("/", h.GetProfile)
					r.Post("/", h.CreateProfile)
					r.Put("/", h.ReplaceProfile)
					r.Patch("/", h.PatchProfile)
				})

				r.Route("/plans", func(r chi.Router) {
					r.Get("/", h.ListPlans)
					r.Post("/", h.CreatePlan)
					r.Delete("/{id}", h.DeletePlan)
				})

				r.Route("/workout-tracking", func(r chi.Router) {
					r.Get("/", h.ListWorkoutTracking)
					r.Post("/", h.CreateWorkoutTracking)
					r.Delete("/{id}", h.DeleteWorkoutTracking)
				})

				r.Route("/meal-tracking", func(r chi.Router) {
					r.Get("/", h.ListMealTracking)
					r.Post("/", h.CreateMealTracking)
					r.Delete("/{id}", h.DeleteMealTracking)
				})

				r.Route("/water-tracking", func(r chi.Router) {
					r.Get("/", h.ListWaterTracking)
					r.Post("/", h.CreateWaterTracking)
					r.Delete("/{id}", h.DeleteWaterTracking)
				})

				r.Get("/daily-progress", h.DailyProgress)
			})
		})
	})

	return r
}
