package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hyperengineering/vita/internal/types"
)

// Service wraps a Generator with a call timeout and the deterministic
// fallback, so callers always receive a well-formed payload.
type Service struct {
	generator Generator
	timeout   time.Duration
}

// NewService creates a plan generation service.
func NewService(g Generator, timeout time.Duration) *Service {
	return &Service{generator: g, timeout: timeout}
}

// ModelName returns the underlying generator's model name.
func (s *Service) ModelName() string {
	return s.generator.ModelName()
}

// GenerateWithFallback produces a plan for the profile and date range.
// The generator call is bounded by the configured timeout; on any failure
// (unreachable service, malformed response, shape violation, timeout) the
// deterministic fallback payload is substituted. The result is always
// shape-valid.
func (s *Service) GenerateWithFallback(ctx context.Context, profile types.Profile, start, end types.Date) *Result {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.generator.Generate(genCtx, profile, start, end)
	if err == nil {
		return result
	}

	slog.Warn("plan generation failed, using fallback",
		"error", err,
		"profile_id", profile.ID,
	)

	plan := FallbackPlan()
	raw, _ := json.Marshal(plan)
	return &Result{
		Plan:   plan,
		Prompt: buildPrompt(profile, start, end),
		Raw:    string(raw),
	}
}
