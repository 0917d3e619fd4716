package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookinghub/internal/db"
	apperrors "bookinghub/internal/errors"

	"github.com/google/uuid"
)

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(database *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: database}
}

func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, phone, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query,
		p.ID, p.Email, p.FullName, p.Phone, p.PasswordHash, p.CreatedAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) ByEmail(ctx context.Context, email string) (*db.Profile, error) {
	var p db.Profile
	query := `SELECT id, email, full_name, phone, password_hash, created_at FROM profiles WHERE email = $1`
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Phone, &p.PasswordHash, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error querying profile by email: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) ByID(ctx context.Context, id uuid.UUID) (*db.Profile, error) {
	var p db.Profile
	query := `SELECT id, email, full_name, phone, password_hash, created_at FROM profiles WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Phone, &p.PasswordHash, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error querying profile %s: %w", id, err)
	}
	return &p, nil
}
