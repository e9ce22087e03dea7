package repository

import (
	"context"
	"fmt"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, disabled, email_notifications, dark_mode, push_token, created_at, updated_at`

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Disabled,
		user.EmailNotifications, user.DarkMode, user.PushToken, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, apperr.ErrDuplicate)
		}
		return apperr.DataAccess("failed to create user", err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	var user models.User
	err := r.db.QueryRow(ctx, query, value).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Disabled,
		&user.EmailNotifications, &user.DarkMode, &user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, notFound("user", value, err, "failed to get user")
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// UpdateProfile merges the non-nil name and email into the user
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name, email *string) error {
	query := `
		UPDATE users
		SET name = COALESCE($2, name), email = COALESCE($3, email), updated_at = $4
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, name, email, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", *email, apperr.ErrDuplicate)
		}
		return apperr.DataAccess("failed to update profile", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// UpdatePasswordHash replaces the password hash of a user
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, hash, time.Now())
	if err != nil {
		return apperr.DataAccess("failed to update password", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// UpdatePreferences merges the non-nil preference fields into the user
func (r *UserRepository) UpdatePreferences(ctx context.Context, id string, patch models.PreferencePatch) error {
	query := `
		UPDATE users
		SET dark_mode = COALESCE($2, dark_mode),
		    email_notifications = COALESCE($3, email_notifications),
		    updated_at = $4
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, patch.DarkMode, patch.EmailNotifications, time.Now())
	if err != nil {
		return apperr.DataAccess("failed to update preferences", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return apperr.DataAccess("failed to update push token", err)
	}
	return nil
}

// ListPushTokens returns the push tokens of every other enabled user whose
// notification flag is on or unset
func (r *UserRepository) ListPushTokens(ctx context.Context, excludeUserID string) ([]string, error) {
	query := `
		SELECT push_token
		FROM users
		WHERE id <> $1
		  AND push_token IS NOT NULL
		  AND NOT disabled
		  AND COALESCE(email_notifications, TRUE)
	`
	rows, err := r.db.Query(ctx, query, excludeUserID)
	if err != nil {
		return nil, apperr.DataAccess("failed to list push tokens", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, apperr.DataAccess("failed to scan push token", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.DataAccess("error iterating push tokens", err)
	}
	return tokens, nil
}
