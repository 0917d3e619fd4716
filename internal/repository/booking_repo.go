package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookinghub/internal/db"
	"bookinghub/internal/entities"
	apperrors "bookinghub/internal/errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres error codes the booking table can raise when the overlap
// invariant is violated: exclusion_violation from the tstzrange constraint,
// unique_violation kept for older schemas.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

// conflictErr maps a constraint violation onto ErrConflict so the service
// layer can tell "someone else got the slot" apart from plain failures. The
// insert is the authoritative conflict check; any pre-check is only a hint.
func conflictErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pgExclusionViolation || pqErr.Code == pgUniqueViolation {
			return apperrors.ErrConflict
		}
	}
	return err
}

// ConfirmedInWindow returns the confirmed bookings for a resource that
// overlap the half-open window [from, to).
func (r *BookingRepository) ConfirmedInWindow(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]db.Booking, error) {
	query := `
		SELECT id, resource_id, user_id, start_time, end_time, status, notes, rating, feedback, created_at, updated_at
		FROM bookings
		WHERE resource_id = $1
		  AND status = $2
		  AND start_time < $3
		  AND end_time > $4
		ORDER BY start_time`

	rows, err := r.DB.QueryContext(ctx, query, resourceID, db.StatusConfirmed, to, from)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings in window: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.UserID, &b.StartTime, &b.EndTime, &b.Status,
			&b.Notes, &b.Rating, &b.Feedback, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booking rows: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO bookings (id, resource_id, user_id, start_time, end_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		b.ID, b.ResourceID, b.UserID, b.StartTime, b.EndTime, b.Status, b.Notes, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return conflictErr(err)
	}
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id uuid.UUID) (*db.Booking, error) {
	var b db.Booking
	query := `
		SELECT id, resource_id, user_id, start_time, end_time, status, notes, rating, feedback, created_at, updated_at
		FROM bookings WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.ResourceID, &b.UserID, &b.StartTime, &b.EndTime, &b.Status,
		&b.Notes, &b.Rating, &b.Feedback, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error querying booking %s: %w", id, err)
	}
	return &b, nil
}

// UpdateInterval moves a confirmed booking to a new interval. The exclusion
// constraint ignores the row being updated, so the booking's own prior
// interval never conflicts with itself.
func (r *BookingRepository) UpdateInterval(ctx context.Context, id uuid.UUID, start, end time.Time, notes sql.NullString) error {
	query := `
		UPDATE bookings
		SET start_time = $1, end_time = $2, notes = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`
	result, err := r.DB.ExecContext(ctx, query, start, end, notes, id, db.StatusConfirmed)
	if err != nil {
		return conflictErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("error updating booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) SetFeedback(ctx context.Context, id uuid.UUID, rating int, feedback string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET rating = $1, feedback = $2, updated_at = NOW() WHERE id = $3`,
		rating, feedback, id)
	if err != nil {
		return fmt.Errorf("error saving booking feedback: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListByUser returns the caller's bookings newest first, joined with the
// resource so the client can render name and location without extra round
// trips.
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) (*entities.BookingsList, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("error counting bookings: %w", err)
	}

	query := `
		SELECT b.id, b.resource_id, res.name, res.location,
		       b.start_time, b.end_time, b.status, b.notes, b.rating, b.feedback,
		       b.created_at, b.updated_at
		FROM bookings b
		JOIN resources res ON res.id = b.resource_id
		WHERE b.user_id = $1
		ORDER BY b.start_time DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying user bookings: %w", err)
	}
	defer rows.Close()

	list := &entities.BookingsList{Total: total, Limit: limit, Offset: offset}
	for rows.Next() {
		var (
			resp     entities.BookingResponse
			notes    sql.NullString
			rating   sql.NullInt32
			feedback sql.NullString
		)
		if err := rows.Scan(&resp.ID, &resp.ResourceID, &resp.ResourceName, &resp.ResourceLocation,
			&resp.StartTime, &resp.EndTime, &resp.Status, &notes, &rating, &feedback,
			&resp.CreatedAt, &resp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning user booking: %w", err)
		}
		resp.Notes = notes.String
		resp.Rating = int(rating.Int32)
		resp.Feedback = feedback.String
		list.Bookings = append(list.Bookings, resp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating user booking rows: %w", err)
	}
	return list, nil
}
