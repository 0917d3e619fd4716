package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Booking statuses. The Postgres exclusion constraint only applies to
// confirmed bookings; cancelled and completed rows are kept for history and
// feedback.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Resource struct {
	ID          uuid.UUID
	Name        string
	Type        string
	Description string
	Location    string
	Capacity    int
	Tags        []string
	CreatedAt   time.Time
}

type Booking struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	UserID     uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	Status     string
	Notes      sql.NullString
	Rating     sql.NullInt32
	Feedback   sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Profile struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Phone        sql.NullString
	PasswordHash string
	CreatedAt    time.Time
}
