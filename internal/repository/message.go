package repository

import (
	"context"
	"fmt"

	"memories-backend/internal/apperr"
	"memories-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, title, content, category, image_url, storage_key, author_id, date`

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.Title, msg.Content, msg.Category, msg.ImageURL,
		msg.StorageKey, msg.AuthorID, msg.Date,
	)
	if err != nil {
		return apperr.DataAccess("failed to create message", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	var msg models.Message
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.Title, &msg.Content, &msg.Category, &msg.ImageURL,
		&msg.StorageKey, &msg.AuthorID, &msg.Date,
	)
	if err != nil {
		return nil, notFound("message", id, err, "failed to get message")
	}
	return &msg, nil
}

// List retrieves messages newest first; a positive limit caps the result
func (r *MessageRepository) List(ctx context.Context, limit int) ([]*models.Message, error) {
	query, args := limitClause(`SELECT `+messageColumns+` FROM messages ORDER BY date DESC`, limit, nil)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.DataAccess("failed to get messages", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID, &msg.Title, &msg.Content, &msg.Category, &msg.ImageURL,
			&msg.StorageKey, &msg.AuthorID, &msg.Date,
		)
		if err != nil {
			return nil, apperr.DataAccess("failed to scan message", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.DataAccess("error iterating messages", err)
	}

	return messages, nil
}

// Delete removes a message document
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return apperr.DataAccess("failed to delete message", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
