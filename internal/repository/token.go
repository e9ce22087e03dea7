package repository

import (
	"context"
	"time"

	"memories-backend/internal/apperr"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository records revoked token IDs
type TokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db}
}

// Revoke marks jti as revoked until expiresAt and drops entries that already expired
func (r *TokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, jti, expiresAt); err != nil {
		return apperr.DataAccess("failed to revoke token", err)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < NOW()`); err != nil {
		return apperr.DataAccess("failed to prune revoked tokens", err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked
func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked)
	if err != nil {
		return false, apperr.DataAccess("failed to check token revocation", err)
	}
	return revoked, nil
}
