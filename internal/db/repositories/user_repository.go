// Package repositories implements the data access layer (repository pattern).
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly — all database access goes through this layer,
// which makes query logic testable in isolation and prevents accidental
// cross-domain data access.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/docshost/docshost/internal/db/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user. When password is non-empty it is bcrypt-hashed
// before storage; OIDC-provisioned accounts pass an empty password.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	var passwordHash string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	query := `
		INSERT INTO users (id, username, email, display_name, password_hash, oidc_sub, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.DisplayName,
		passwordHash,
		user.OIDCSub,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, username, email, display_name, oidc_sub, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return r.queryOne(ctx, query, userID)
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, display_name, oidc_sub, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	return r.queryOne(ctx, query, username)
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, username, email, display_name, oidc_sub, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return r.queryOne(ctx, query, email)
}

// GetUserByOIDCSub retrieves a user by OIDC subject identifier
func (r *UserRepository) GetUserByOIDCSub(ctx context.Context, sub string) (*models.User, error) {
	query := `
		SELECT id, username, email, display_name, oidc_sub, created_at, updated_at
		FROM users
		WHERE oidc_sub = $1
	`

	return r.queryOne(ctx, query, sub)
}

// VerifyPassword checks a username/password pair and returns the user on success.
// Returns (nil, nil) for unknown usernames and wrong passwords alike so callers
// cannot distinguish the two.
func (r *UserRepository) VerifyPassword(ctx context.Context, username, password string) (*models.User, error) {
	query := `
		SELECT id, username, email, display_name, password_hash, oidc_sub, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	user := &models.User{}
	var passwordHash string
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.DisplayName,
		&passwordHash,
		&user.OIDCSub,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if passwordHash == "" {
		return nil, nil // OIDC-only account, no password login
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return nil, nil
	}

	return user, nil
}

// UpdateUser updates a user's profile fields
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, display_name = $3, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.DisplayName); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// DeleteUser deletes a user
func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// queryOne runs a single-row user SELECT with nil-on-no-rows semantics
func (r *UserRepository) queryOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.DisplayName,
		&user.OIDCSub,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
