// Package storage persists users, wellness check-ins and per-user settings
// in SQLite. It is a thin collaborator of the rate-limiting core: just
// enough real persistence to drive the guarded endpoints.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	apperrors "wellness-tracker/internal/common/errors"
)

type Storage struct {
	db *sql.DB
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Checkin struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      int       `json:"mood"`
	Energy    int       `json:"energy"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Settings struct {
	UserID           string `json:"user_id"`
	RemindersEnabled bool   `json:"reminders_enabled"`
	Timezone         string `json:"timezone"`
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS checkins (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	mood INTEGER NOT NULL,
	energy INTEGER NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkins_user ON checkins(user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS settings (
	user_id TEXT PRIMARY KEY REFERENCES users(id),
	reminders_enabled INTEGER NOT NULL DEFAULT 1,
	timezone TEXT NOT NULL DEFAULT 'UTC'
);
`

// Open opens (creating if necessary) the SQLite database at path and applies
// the schema.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.ConnectionError("failed to open database", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.InternalError("failed to apply schema", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Health() error {
	return s.db.Ping()
}

// CreateUser hashes the password with bcrypt and inserts a new user.
func (s *Storage) CreateUser(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, apperrors.ValidationError("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to create user", err)
	}
	return user, nil
}

// GetUserByEmail fetches a user by email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundError("user")
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch user", err)
	}
	return user, nil
}

// ValidateUser checks email/password credentials. The same error is
// returned for an unknown email and a wrong password so the endpoint does
// not leak which accounts exist.
func (s *Storage) ValidateUser(ctx context.Context, email, password string) (*User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.AuthError("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.AuthError("invalid credentials")
	}
	return user, nil
}

// CreateCheckin records one wellness check-in for a user.
func (s *Storage) CreateCheckin(ctx context.Context, userID string, mood, energy int, note string) (*Checkin, error) {
	if mood < 1 || mood > 10 || energy < 1 || energy > 10 {
		return nil, apperrors.ValidationError("mood and energy must be between 1 and 10")
	}

	checkin := &Checkin{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mood:      mood,
		Energy:    energy,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkins (id, user_id, mood, energy, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		checkin.ID, checkin.UserID, checkin.Mood, checkin.Energy, checkin.Note, checkin.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to create check-in", err)
	}
	return checkin, nil
}

// ListCheckins returns a user's most recent check-ins, newest first.
func (s *Storage) ListCheckins(ctx context.Context, userID string, limit int) ([]Checkin, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, mood, energy, note, created_at FROM checkins
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, apperrors.InternalError("failed to list check-ins", err)
	}
	defer rows.Close()

	checkins := make([]Checkin, 0, limit)
	for rows.Next() {
		var c Checkin
		if err := rows.Scan(&c.ID, &c.UserID, &c.Mood, &c.Energy, &c.Note, &c.CreatedAt); err != nil {
			return nil, apperrors.InternalError("failed to scan check-in", err)
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// GetSettings returns a user's settings, falling back to defaults when the
// user has never saved any.
func (s *Storage) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	settings := &Settings{UserID: userID, RemindersEnabled: true, Timezone: "UTC"}
	var reminders int
	err := s.db.QueryRowContext(ctx,
		`SELECT reminders_enabled, timezone FROM settings WHERE user_id = ?`, userID,
	).Scan(&reminders, &settings.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch settings", err)
	}
	settings.RemindersEnabled = reminders != 0
	return settings, nil
}

// UpdateSettings upserts a user's settings.
func (s *Storage) UpdateSettings(ctx context.Context, settings *Settings) error {
	if settings.Timezone == "" {
		settings.Timezone = "UTC"
	}

	reminders := 0
	if settings.RemindersEnabled {
		reminders = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (user_id, reminders_enabled, timezone) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET reminders_enabled = excluded.reminders_enabled,
		 timezone = excluded.timezone`,
		settings.UserID, reminders, settings.Timezone,
	)
	if err != nil {
		return apperrors.InternalError(fmt.Sprintf("failed to update settings for user %s", settings.UserID), err)
	}
	return nil
}
