package repository

import (
	"context"
	"fmt"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryRepository handles database operations for map memories
type MemoryRepository struct {
	db *pgxpool.Pool
}

// NewMemoryRepository creates a new memory repository
func NewMemoryRepository(db *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{db: db}
}

const memoryColumns = `id, title, date, category, description, latitude, longitude, created_at`

func scanMemory(row pgx.Row) (*models.Memory, error) {
	var m models.Memory
	var date time.Time
	err := row.Scan(
		&m.ID, &m.Title, &date, &m.Category, &m.Description,
		&m.Location.Lat, &m.Location.Lng, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Date = models.Date{Time: date}
	return &m, nil
}

// Create creates a new memory
func (r *MemoryRepository) Create(ctx context.Context, m *models.Memory) error {
	query := `
		INSERT INTO memories (` + memoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		m.ID, m.Title, m.Date.Time, m.Category, m.Description,
		m.Location.Lat, m.Location.Lng, m.CreatedAt,
	)
	if err != nil {
		return apperr.DataAccess("failed to create memory", err)
	}
	return nil
}

// GetByID retrieves a memory by ID
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE id = $1`
	m, err := scanMemory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound("memory", id, err, "failed to get memory")
	}
	return m, nil
}

// List retrieves memories newest first; a positive limit caps the result
func (r *MemoryRepository) List(ctx context.Context, limit int) ([]*models.Memory, error) {
	query, args := limitClause(`SELECT `+memoryColumns+` FROM memories ORDER BY date DESC, created_at DESC`, limit, nil)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.DataAccess("failed to get memories", err)
	}
	defer rows.Close()

	var memories []*models.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, apperr.DataAccess("failed to scan memory", err)
		}
		memories = append(memories, m)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.DataAccess("error iterating memories", err)
	}

	return memories, nil
}

// Update merges the non-nil fields of patch into the memory
func (r *MemoryRepository) Update(ctx context.Context, id string, patch models.MemoryPatch) error {
	var date *time.Time
	if patch.Date != nil {
		date = &patch.Date.Time
	}
	var lat, lng *float64
	if patch.Location != nil {
		lat, lng = &patch.Location.Lat, &patch.Location.Lng
	}

	query := `
		UPDATE memories
		SET title = COALESCE($2, title),
		    date = COALESCE($3, date),
		    category = COALESCE($4, category),
		    description = COALESCE($5, description),
		    latitude = COALESCE($6, latitude),
		    longitude = COALESCE($7, longitude)
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, patch.Title, date, patch.Category, patch.Description, lat, lng)
	if err != nil {
		return apperr.DataAccess("failed to update memory", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("memory %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
