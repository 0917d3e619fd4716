package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookinghub/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// ConfirmedIDsPastEndTime returns confirmed bookings whose end time has
// passed; the sweep job moves them to completed so ratings unlock.
func (r *JobRepository) ConfirmedIDsPastEndTime(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT id FROM bookings WHERE status = $1 AND end_time < NOW()`
	rows, err := r.DB.QueryContext(ctx, query, db.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("error querying confirmed bookings past end time: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

func (r *JobRepository) UpdateBookingStatuses(ctx context.Context, ids []uuid.UUID, newStatus string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2::uuid[])`
	result, err := r.DB.ExecContext(ctx, query, newStatus, pq.Array(raw))
	if err != nil {
		return 0, fmt.Errorf("error updating booking statuses: %w", err)
	}
	return result.RowsAffected()
}

// ReminderRow is one upcoming booking joined with everything the reminder
// notification needs.
type ReminderRow struct {
	BookingID    uuid.UUID
	UserPhone    sql.NullString
	ResourceName string
	Location     string
	StartTime    time.Time
	EndTime      time.Time
}

// UpcomingWithoutReminder returns confirmed bookings starting within the
// lead window that have not been reminded yet, and marks them reminded in
// the same statement so a crashed sweep never double-sends.
func (r *JobRepository) UpcomingWithoutReminder(ctx context.Context, lead time.Duration) ([]ReminderRow, error) {
	query := `
		UPDATE bookings b
		SET reminder_sent = TRUE
		FROM resources res, profiles p
		WHERE res.id = b.resource_id
		  AND p.id = b.user_id
		  AND b.status = $1
		  AND b.reminder_sent = FALSE
		  AND b.start_time > NOW()
		  AND b.start_time <= NOW() + $2::interval
		RETURNING b.id, p.phone, res.name, res.location, b.start_time, b.end_time`

	interval := fmt.Sprintf("%d seconds", int(lead.Seconds()))
	rows, err := r.DB.QueryContext(ctx, query, db.StatusConfirmed, interval)
	if err != nil {
		return nil, fmt.Errorf("error claiming bookings for reminder: %w", err)
	}
	defer rows.Close()

	var reminders []ReminderRow
	for rows.Next() {
		var row ReminderRow
		if err := rows.Scan(&row.BookingID, &row.UserPhone,
			&row.ResourceName, &row.Location, &row.StartTime, &row.EndTime); err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		reminders = append(reminders, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating reminder rows: %w", err)
	}
	return reminders, nil
}
