package store

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrProfileExists = errors.New("profile already exists")
	ErrPlanOverlap   = errors.New("plan overlaps an existing plan")
	ErrNoActivePlan  = errors.New("no active fitness plan")
)
