package repository

import (
	"context"
	"fmt"

	"memories-backend/internal/apperr"
	"memories-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

const photoColumns = `id, url, storage_key, title, category, description, author_id, date`

// Create creates a new photo
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (` + photoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		photo.ID, photo.URL, photo.StorageKey, photo.Title, photo.Category,
		photo.Description, photo.AuthorID, photo.Date,
	)
	if err != nil {
		return apperr.DataAccess("failed to create photo", err)
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`
	var photo models.Photo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&photo.ID, &photo.URL, &photo.StorageKey, &photo.Title, &photo.Category,
		&photo.Description, &photo.AuthorID, &photo.Date,
	)
	if err != nil {
		return nil, notFound("photo", id, err, "failed to get photo")
	}
	return &photo, nil
}

// List retrieves photos newest first; a positive limit caps the result
func (r *PhotoRepository) List(ctx context.Context, limit int) ([]*models.Photo, error) {
	query, args := limitClause(`SELECT `+photoColumns+` FROM photos ORDER BY date DESC`, limit, nil)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.DataAccess("failed to get photos", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.URL, &photo.StorageKey, &photo.Title, &photo.Category,
			&photo.Description, &photo.AuthorID, &photo.Date,
		)
		if err != nil {
			return nil, apperr.DataAccess("failed to scan photo", err)
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.DataAccess("error iterating photos", err)
	}

	return photos, nil
}

// UpdateDescription updates the description of a photo
func (r *PhotoRepository) UpdateDescription(ctx context.Context, id, description string) error {
	query := `UPDATE photos SET description = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, description, id)
	if err != nil {
		return apperr.DataAccess("failed to update photo description", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Delete removes a photo document
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return apperr.DataAccess("failed to delete photo", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
