package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// User is an account row. PasswordHash never leaves the store/auth boundary.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	AgeRange     string
	Gender       string
	Occupation   string
	Interests    []string
	CreatedAt    time.Time
}

func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, age_range, gender, occupation, interests, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.AgeRange, u.Gender, u.Occupation, u.Interests, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `
		SELECT id, email, password_hash, name, age_range, gender, occupation, interests, created_at
		FROM users WHERE email = $1`, email)
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getUser(ctx, `
		SELECT id, email, password_hash, name, age_range, gender, occupation, interests, created_at
		FROM users WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*User, error) {
	row := s.pool.QueryRow(ctx, query, arg)

	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.AgeRange, &u.Gender, &u.Occupation, &u.Interests, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
