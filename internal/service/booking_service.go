package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"bookinghub/internal/auth"
	"bookinghub/internal/config"
	"bookinghub/internal/db"
	"bookinghub/internal/entities"
	apperrors "bookinghub/internal/errors"
	"bookinghub/internal/schedule"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResourceStore is the slice of the resource repository the coordinator
// needs.
type ResourceStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*db.Resource, error)
	List(ctx context.Context, search, resourceType string) ([]db.Resource, error)
}

// Notifier sends booking notifications. Sends are synchronous; callers
// decide whether a failure is fatal or fire-and-forget.
type Notifier interface {
	SendBookingEmail(data entities.BookingEmailData) error
	SendBookingSMS(phone, message string) error
}

// BookingService is the submission coordinator: it turns a finalized slot
// selection into a persisted booking, and runs the edit, cancel and
// feedback variants of the same flow.
//
// The store's insert is the only authoritative conflict check. The
// coordinator's own availability pre-check is a faster-feedback hint; a
// conflicting insert between check and submit is expected and handled
// through the rejection path, never papered over.
type BookingService struct {
	bookings  BookingStore
	resources ResourceStore
	sender    Notifier
	policy    config.Policy
	log       *zap.Logger
	now       func() time.Time
}

func NewBookingService(bookings BookingStore, resources ResourceStore, sender Notifier, policy config.Policy, log *zap.Logger) *BookingService {
	return &BookingService{
		bookings:  bookings,
		resources: resources,
		sender:    sender,
		policy:    policy,
		log:       log,
		now:       time.Now,
	}
}

// Submit books the interval covered by the given slots for the
// authenticated user.
//
// The slots are replayed through the selection state machine, so any
// non-contiguous or duplicated slot surfaces as a validation error before a
// network call is made. On success the merged interval is inserted with
// status confirmed and a confirmation email goes out asynchronously; an
// email failure never rolls back the booking.
func (s *BookingService) Submit(ctx context.Context, resourceID uuid.UUID, slots []entities.SlotRequest, notes string) (*entities.BookingResponse, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrAuthRequired
	}

	interval, err := replaySelection(slots)
	if err != nil {
		return nil, err
	}
	if interval.Start.Before(s.now()) {
		return nil, apperrors.Validationf("cannot book a time slot in the past")
	}

	resource, err := s.resources.ByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Transient("resource lookup", err)
	}

	// Optimistic pre-check for faster feedback only; the insert below is
	// what actually decides.
	existing, err := s.bookings.ConfirmedInWindow(ctx, resourceID, interval.Start, interval.End)
	if err != nil {
		return nil, apperrors.Transient("availability lookup", err)
	}
	if len(existing) > 0 {
		return nil, apperrors.ErrConflict
	}

	now := s.now()
	booking := &db.Booking{
		ID:         uuid.New(),
		ResourceID: resourceID,
		UserID:     user.ID,
		StartTime:  interval.Start,
		EndTime:    interval.End,
		Status:     db.StatusConfirmed,
		Notes:      nullString(notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			s.log.Info("booking lost the race for its slot",
				zap.String("resource_id", resourceID.String()),
				zap.Time("start", interval.Start))
			return nil, apperrors.ErrConflict
		}
		return nil, apperrors.Transient("booking submission", err)
	}

	s.sendEmailAsync(s.emailData(user, resource, booking, entities.EmailActionCreated))

	return bookingResponse(booking, resource), nil
}

// Update moves a booking to a new interval and/or replaces its notes. The
// booking's own prior interval is excluded from the conflict check by the
// store's constraint, so shrinking or shifting within it always succeeds.
// When policy requires it, an update-confirmation email must be delivered
// before the change is committed.
func (s *BookingService) Update(ctx context.Context, bookingID uuid.UUID, req entities.UpdateBookingRequest) (*entities.BookingResponse, error) {
	user, booking, resource, err := s.ownedBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != db.StatusConfirmed {
		return nil, apperrors.Validationf("only confirmed bookings can be changed")
	}
	if err := s.checkNotice(booking.StartTime); err != nil {
		return nil, err
	}

	interval := schedule.Interval{Start: booking.StartTime, End: booking.EndTime}
	if len(req.Slots) > 0 {
		interval, err = replaySelection(req.Slots)
		if err != nil {
			return nil, err
		}
		if interval.Start.Before(s.now()) {
			return nil, apperrors.Validationf("cannot move a booking into the past")
		}
	}
	notes := booking.Notes
	if req.Notes != nil {
		notes = nullString(*req.Notes)
	}

	if s.policy.RequireUpdateEmail {
		data := s.emailData(user, resource, booking, entities.EmailActionUpdated)
		data.StartTimeFormatted = formatSlotTime(interval.Start)
		data.EndTimeFormatted = formatSlotTime(interval.End)
		if err := s.sender.SendBookingEmail(data); err != nil {
			return nil, apperrors.Transient("update confirmation email", err)
		}
	}

	if err := s.bookings.UpdateInterval(ctx, bookingID, interval.Start, interval.End, notes); err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Transient("booking update", err)
	}

	booking.StartTime = interval.Start
	booking.EndTime = interval.End
	booking.Notes = notes
	return bookingResponse(booking, resource), nil
}

// Cancel flips a confirmed booking to cancelled. The row is kept so history
// and feedback survive. Cancellation is refused inside the minimum-notice
// window.
func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	user, booking, resource, err := s.ownedBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != db.StatusConfirmed {
		return apperrors.Validationf("only confirmed bookings can be cancelled")
	}
	if err := s.checkNotice(booking.StartTime); err != nil {
		return err
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, db.StatusCancelled); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.Transient("booking cancellation", err)
	}

	s.sendEmailAsync(s.emailData(user, resource, booking, entities.EmailActionCancelled))
	return nil
}

// Feedback records a rating and optional comment on a completed booking.
func (s *BookingService) Feedback(ctx context.Context, bookingID uuid.UUID, req entities.FeedbackRequest) error {
	_, booking, _, err := s.ownedBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != db.StatusCompleted {
		return apperrors.Validationf("feedback can only be left on completed bookings")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return apperrors.Validationf("rating must be between 1 and 5")
	}

	if err := s.bookings.SetFeedback(ctx, bookingID, req.Rating, req.Feedback); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.Transient("saving feedback", err)
	}
	return nil
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, limit, offset int) (*entities.BookingsList, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrAuthRequired
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.bookings.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, apperrors.Transient("booking list", err)
	}
	return list, nil
}

// ownedBooking loads a booking and verifies the caller owns it. Bookings
// belonging to other users are reported as not found.
func (s *BookingService) ownedBooking(ctx context.Context, bookingID uuid.UUID) (*auth.User, *db.Booking, *db.Resource, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, nil, nil, apperrors.ErrAuthRequired
	}
	booking, err := s.bookings.ByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, nil, err
		}
		return nil, nil, nil, apperrors.Transient("booking lookup", err)
	}
	if booking.UserID != user.ID {
		return nil, nil, nil, apperrors.ErrNotFound
	}
	resource, err := s.resources.ByID(ctx, booking.ResourceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, nil, err
		}
		return nil, nil, nil, apperrors.Transient("resource lookup", err)
	}
	return user, booking, resource, nil
}

func (s *BookingService) checkNotice(start time.Time) error {
	if start.Sub(s.now()) < s.policy.MinNotice {
		return apperrors.Validationf("bookings can only be changed or cancelled at least %s before they start",
			formatNotice(s.policy.MinNotice))
	}
	return nil
}

func (s *BookingService) emailData(user *auth.User, resource *db.Resource, booking *db.Booking, action string) entities.BookingEmailData {
	name := user.Name
	if name == "" {
		name = strings.SplitN(user.Email, "@", 2)[0]
	}
	actionText := action
	if action == entities.EmailActionCreated {
		actionText = "confirmed"
	}
	return entities.BookingEmailData{
		Recipient:          user.Email,
		UserName:           name,
		ResourceName:       resource.Name,
		Location:           resource.Location,
		BookingID:          booking.ID.String(),
		StartTimeFormatted: formatSlotTime(booking.StartTime),
		EndTimeFormatted:   formatSlotTime(booking.EndTime),
		Action:             action,
		ActionText:         actionText,
		CurrentYear:        s.now().Year(),
	}
}

func (s *BookingService) sendEmailAsync(data entities.BookingEmailData) {
	go func() {
		if err := s.sender.SendBookingEmail(data); err != nil {
			s.log.Warn("booking email failed",
				zap.String("booking_id", data.BookingID),
				zap.String("action", data.Action),
				zap.Error(err))
		}
	}()
}

// replaySelection feeds the requested slots through the selection state
// machine. A gap or duplicate makes the machine drop slots, so a final
// count mismatch means the request was not one contiguous run.
func replaySelection(slots []entities.SlotRequest) (schedule.Interval, error) {
	if len(slots) == 0 {
		return schedule.Interval{}, apperrors.Validationf("no time slots selected")
	}
	ordered := make([]entities.SlotRequest, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartTime.Before(ordered[j].StartTime) })

	sel := schedule.NewSelection()
	for _, slot := range ordered {
		if !slot.EndTime.After(slot.StartTime) {
			return schedule.Interval{}, apperrors.Validationf("end time must be after start time")
		}
		sel.Click(schedule.Slot{
			Interval: schedule.Interval{Start: slot.StartTime, End: slot.EndTime},
			Status:   schedule.SlotAvailable,
		})
	}
	if sel.Len() != len(ordered) {
		return schedule.Interval{}, apperrors.Validationf("selected time slots are not contiguous")
	}
	interval, err := sel.Interval()
	if err != nil {
		return schedule.Interval{}, apperrors.Validationf("%v", err)
	}
	return interval, nil
}

func bookingResponse(b *db.Booking, res *db.Resource) *entities.BookingResponse {
	return &entities.BookingResponse{
		ID:               b.ID,
		ResourceID:       b.ResourceID,
		ResourceName:     res.Name,
		ResourceLocation: res.Location,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		Status:           b.Status,
		Notes:            b.Notes.String,
		Rating:           int(b.Rating.Int32),
		Feedback:         b.Feedback.String,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatSlotTime(t time.Time) string {
	return t.Format("Monday, January 2, 2006 at 3:04 PM")
}

func formatNotice(d time.Duration) string {
	if d == time.Hour {
		return "1 hour"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", d/time.Hour)
	}
	return d.String()
}
