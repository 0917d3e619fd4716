package service

import (
	"context"
	"database/sql"
	"time"

	"bookinghub/internal/db"
	"bookinghub/internal/entities"
	apperrors "bookinghub/internal/errors"
	"bookinghub/internal/schedule"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingStore is the slice of the booking repository the services depend
// on. Stores are injected so the coordinator logic is testable without
// Postgres.
type BookingStore interface {
	Create(ctx context.Context, b *db.Booking) error
	ByID(ctx context.Context, id uuid.UUID) (*db.Booking, error)
	ConfirmedInWindow(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]db.Booking, error)
	UpdateInterval(ctx context.Context, id uuid.UUID, start, end time.Time, notes sql.NullString) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetFeedback(ctx context.Context, id uuid.UUID, rating int, feedback string) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) (*entities.BookingsList, error)
}

// ChangeFeed delivers booking-change ticks scoped to one resource.
type ChangeFeed interface {
	Subscribe(resourceID uuid.UUID) (<-chan struct{}, func())
}

// AvailabilityService is the availability index: it classifies every slot of
// a visible window as available, booked or past, and hands out change
// subscriptions so open calendar views refresh when bookings change.
type AvailabilityService struct {
	bookings BookingStore
	changes  ChangeFeed
	window   schedule.Window
	log      *zap.Logger
	now      func() time.Time
}

func NewAvailabilityService(bookings BookingStore, changes ChangeFeed, window schedule.Window, log *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		bookings: bookings,
		changes:  changes,
		window:   window,
		log:      log,
		now:      time.Now,
	}
}

// Window classifies every slot between the days of from and to inclusive.
// A fetch failure is returned as a transient error and no slots are
// produced: a slot that could not be verified must never render as
// available.
func (s *AvailabilityService) Window(ctx context.Context, resourceID uuid.UUID, from, to time.Time) (*entities.AvailabilityResponse, error) {
	bookings, err := s.bookings.ConfirmedInWindow(ctx, resourceID, startOfDay(from), startOfDay(to).AddDate(0, 0, 1))
	if err != nil {
		s.log.Error("availability fetch failed",
			zap.String("resource_id", resourceID.String()), zap.Error(err))
		return nil, apperrors.Transient("availability lookup", err)
	}

	booked := make([]schedule.Interval, len(bookings))
	for i, b := range bookings {
		booked[i] = schedule.Interval{Start: b.StartTime, End: b.EndTime}
	}

	slots, err := s.window.RangeSlots(startOfDay(from), startOfDay(to), booked, s.now())
	if err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	resp := &entities.AvailabilityResponse{
		ResourceID:  resourceID,
		WindowStart: startOfDay(from),
		WindowEnd:   startOfDay(to).AddDate(0, 0, 1),
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, entities.TimeSlotStatus{
			StartTime: slot.Start,
			EndTime:   slot.End,
			Status:    string(slot.Status),
		})
	}
	return resp, nil
}

// Watch subscribes to booking changes for one resource. The release
// function must be called when the view goes away.
func (s *AvailabilityService) Watch(resourceID uuid.UUID) (<-chan struct{}, func()) {
	return s.changes.Subscribe(resourceID)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
