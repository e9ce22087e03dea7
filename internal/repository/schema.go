package repository

import (
	"context"
	"errors"
	"fmt"

	"memories-backend/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL DEFAULT '',
	email               TEXT NOT NULL UNIQUE,
	password_hash       TEXT NOT NULL,
	disabled            BOOLEAN NOT NULL DEFAULT FALSE,
	email_notifications BOOLEAN,
	dark_mode           BOOLEAN,
	push_token          TEXT,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
	jti        TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS photos (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	storage_key TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL,
	category    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	author_id   TEXT NOT NULL DEFAULT '',
	date        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS photos_date_idx ON photos (date DESC);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL,
	category    TEXT NOT NULL,
	image_url   TEXT NOT NULL DEFAULT '',
	storage_key TEXT NOT NULL DEFAULT '',
	author_id   TEXT NOT NULL DEFAULT '',
	date        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_date_idx ON messages (date DESC);

CREATE TABLE IF NOT EXISTS memories (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	date        DATE NOT NULL,
	category    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	date        DATE NOT NULL,
	category    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image_url   TEXT NOT NULL DEFAULT '',
	storage_key TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the tables if they do not exist yet
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// notFound translates pgx.ErrNoRows into apperr.ErrNotFound
func notFound(kind, id string, err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	return apperr.DataAccess(op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// limitClause appends LIMIT when limit is positive; zero fetches the whole collection
func limitClause(query string, limit int, args []any) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	args = append(args, limit)
	return fmt.Sprintf("%s LIMIT $%d", query, len(args)), args
}
