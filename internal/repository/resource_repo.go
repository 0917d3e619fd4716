package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"bookinghub/internal/db"
	apperrors "bookinghub/internal/errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ResourceRepository struct {
	DB *sql.DB
}

func NewResourceRepository(database *sql.DB) *ResourceRepository {
	return &ResourceRepository{DB: database}
}

// List returns resources ordered by name, optionally filtered by a search
// term (name, description, location or tag) and by type.
func (r *ResourceRepository) List(ctx context.Context, search, resourceType string) ([]db.Resource, error) {
	query := `
	SELECT id, name, type, description, location, capacity, tags, created_at
	FROM resources
	WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if search != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d OR $%d ILIKE ANY(tags))`,
			idx, idx, idx, idx+1)
		args = append(args, "%"+search+"%", search)
		idx += 2
	}
	if resourceType != "" {
		query += " AND type = $" + strconv.Itoa(idx)
		args = append(args, resourceType)
		idx++
	}
	query += " ORDER BY name"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying resources: %w", err)
	}
	defer rows.Close()

	var resources []db.Resource
	for rows.Next() {
		var res db.Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Type, &res.Description, &res.Location,
			&res.Capacity, pq.Array(&res.Tags), &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating resource rows: %w", err)
	}
	return resources, nil
}

func (r *ResourceRepository) ByID(ctx context.Context, id uuid.UUID) (*db.Resource, error) {
	var res db.Resource
	query := `
		SELECT id, name, type, description, location, capacity, tags, created_at
		FROM resources WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.Name, &res.Type, &res.Description, &res.Location,
		&res.Capacity, pq.Array(&res.Tags), &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error querying resource %s: %w", id, err)
	}
	return &res, nil
}
