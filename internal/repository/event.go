package repository

import (
	"context"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles database operations for timeline events
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (id, title, date, category, description, image_url, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.Title, e.Date.Time, e.Category, e.Description,
		e.ImageURL, e.StorageKey, e.CreatedAt,
	)
	if err != nil {
		return apperr.DataAccess("failed to create event", err)
	}
	return nil
}

// List retrieves events newest first; a positive limit caps the result
func (r *EventRepository) List(ctx context.Context, limit int) ([]*models.Event, error) {
	query, args := limitClause(`
		SELECT id, title, date, category, description, image_url, storage_key, created_at
		FROM events
		ORDER BY date DESC, created_at DESC`, limit, nil)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.DataAccess("failed to get events", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		var date time.Time
		err := rows.Scan(
			&e.ID, &e.Title, &date, &e.Category, &e.Description,
			&e.ImageURL, &e.StorageKey, &e.CreatedAt,
		)
		if err != nil {
			return nil, apperr.DataAccess("failed to scan event", err)
		}
		e.Date = models.Date{Time: date}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.DataAccess("error iterating events", err)
	}

	return events, nil
}
