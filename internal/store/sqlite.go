package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/vita/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the SQLite-backed implementation of Store.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
// foreign_keys=ON is required for the cascade rules on plan subtrees.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func newID() string {
	return ulid.Make().String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// --- Users ---

// CreateUser inserts a new account. Returns ErrEmailTaken when the email
// is already registered (case-insensitive).
func (s *SQLiteStore) CreateUser(ctx context.Context, email, username, passwordHash, firstName, lastName string) (*types.User, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ? COLLATE NOCASE", email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	now := time.Now().UTC()
	user := types.User{
		ID:           newID(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName,
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

func scanUser(scanner interface{ Scan(...any) error }) (*types.User, error) {
	var u types.User
	var createdAt, updatedAt string
	err := scanner.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash,
		&u.FirstName, &u.LastName, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

const userColumns = "id, email, username, password_hash, first_name, last_name, created_at, updated_at"

// GetUserByID retrieves a user by primary key.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? COLLATE NOCASE", email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// UpdateUser applies the non-nil fields of req to the user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id string, req types.UpdateUserRequest) (*types.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		var exists int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE email = ? COLLATE NOCASE AND id != ?",
			*req.Email, id).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists > 0 {
			return nil, ErrEmailTaken
		}
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, username = ?, first_name = ?, last_name = ?, updated_at = ?
		WHERE id = ?
	`, user.Email, user.Username, user.FirstName, user.LastName, formatTime(user.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// --- Profiles ---

const profileColumns = "id, user_id, current_weight, height, age, gender, image, activity_level, goal, dietary_preferences, created_at, updated_at"

func scanProfile(scanner interface{ Scan(...any) error }) (*types.Profile, error) {
	var p types.Profile
	var weight sql.NullFloat64
	var height, age sql.NullInt64
	var gender, activityLevel, goal sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(&p.ID, &p.UserID, &weight, &height, &age, &gender,
		&p.Image, &activityLevel, &goal, &p.DietaryPreferences, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if weight.Valid {
		p.CurrentWeight = &weight.Float64
	}
	if height.Valid {
		h := int(height.Int64)
		p.Height = &h
	}
	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	if gender.Valid {
		p.Gender = &gender.String
	}
	if activityLevel.Valid {
		p.ActivityLevel = &activityLevel.String
	}
	if goal.Valid {
		p.Goal = &goal.String
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// CreateProfile inserts the profile for a user. Returns ErrProfileExists
// when the user already has one.
func (s *SQLiteStore) CreateProfile(ctx context.Context, userID string, req types.ProfileRequest) (*types.Profile, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE user_id = ?", userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check profile: %w", err)
	}
	if exists > 0 {
		return nil, ErrProfileExists
	}

	now := time.Now().UTC()
	p := types.Profile{
		ID:            newID(),
		UserID:        userID,
		CurrentWeight: req.CurrentWeight,
		Height:        req.Height,
		Age:           req.Age,
		Gender:        req.Gender,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.DietaryPreferences != nil {
		p.DietaryPreferences = *req.DietaryPreferences
	}
	if req.Image != nil {
		p.Image = *req.Image
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, current_weight, height, age, gender, image,
			activity_level, goal, dietary_preferences, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, nullFloat(p.CurrentWeight), nullInt(p.Height), nullInt(p.Age),
		nullString(p.Gender), p.Image, nullString(p.ActivityLevel), nullString(p.Goal),
		p.DietaryPreferences, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	return &p, nil
}

// GetProfileByUserID retrieves the profile owned by a user.
func (s *SQLiteStore) GetProfileByUserID(ctx context.Context, userID string) (*types.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID)
	profile, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile applies req to the user's profile. With replace true (PUT)
// absent fields are cleared; otherwise (PATCH) they are left unchanged.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID string, req types.ProfileRequest, replace bool) (*types.Profile, error) {
	p, err := s.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if replace {
		p.CurrentWeight = req.CurrentWeight
		p.Height = req.Height
		p.Age = req.Age
		p.Gender = req.Gender
		p.ActivityLevel = req.ActivityLevel
		p.Goal = req.Goal
		p.DietaryPreferences = ""
		if req.DietaryPreferences != nil {
			p.DietaryPreferences = *req.DietaryPreferences
		}
		p.Image = ""
		if req.Image != nil {
			p.Image = *req.Image
		}
	} else {
		if req.CurrentWeight != nil {
			p.CurrentWeight = req.CurrentWeight
		}
		if req.Height != nil {
			p.Height = req.Height
		}
		if req.Age != nil {
			p.Age = req.Age
		}
		if req.Gender != nil {
			p.Gender = req.Gender
		}
		if req.ActivityLevel != nil {
			p.ActivityLevel = req.ActivityLevel
		}
		if req.Goal != nil {
			p.Goal = req.Goal
		}
		if req.DietaryPreferences != nil {
			p.DietaryPreferences = *req.DietaryPreferences
		}
		if req.Image != nil {
			p.Image = *req.Image
		}
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE profiles SET current_weight = ?, height = ?, age = ?, gender = ?, image = ?,
			activity_level = ?, goal = ?, dietary_preferences = ?, updated_at = ?
		WHERE user_id = ?
	`, nullFloat(p.CurrentWeight), nullInt(p.Height), nullInt(p.Age), nullString(p.Gender),
		p.Image, nullString(p.ActivityLevel), nullString(p.Goal), p.DietaryPreferences,
		formatTime(p.UpdatedAt), userID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return p, nil
}

// --- null helpers for optional columns ---

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
