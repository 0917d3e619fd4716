package service

import (
	"context"
	"fmt"
	"time"

	"bookinghub/internal/db"
	"bookinghub/internal/repository"

	"go.uber.org/zap"
)

// JobService runs the periodic booking sweeps: marking finished bookings
// completed (which unlocks feedback) and sending start-time reminders.
type JobService struct {
	repo   *repository.JobRepository
	sender Notifier
	lead   time.Duration
	log    *zap.Logger
}

func NewJobService(repo *repository.JobRepository, sender Notifier, lead time.Duration, log *zap.Logger) *JobService {
	return &JobService{repo: repo, sender: sender, lead: lead, log: log}
}

// CompleteFinishedBookings moves confirmed bookings past their end time to
// completed.
func (s *JobService) CompleteFinishedBookings() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := s.repo.ConfirmedIDsPastEndTime(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to get confirmed bookings past end time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	updated, err := s.repo.UpdateBookingStatuses(ctx, ids, db.StatusCompleted)
	if err != nil {
		return fmt.Errorf("cron job: failed to update booking statuses: %w", err)
	}
	s.log.Info("marked finished bookings completed", zap.Int64("count", updated))
	return nil
}

// SendUpcomingReminders notifies users whose bookings start within the lead
// window. Delivery failures are logged and swallowed; a reminder is best
// effort.
func (s *JobService) SendUpcomingReminders() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reminders, err := s.repo.UpcomingWithoutReminder(ctx, s.lead)
	if err != nil {
		return fmt.Errorf("cron job: failed to find bookings to remind: %w", err)
	}

	for _, r := range reminders {
		if !r.UserPhone.Valid {
			continue
		}
		msg := fmt.Sprintf("BookingHub: your booking of %s starts at %s. Location: %s.",
			r.ResourceName, r.StartTime.Format("3:04 PM"), r.Location)
		if err := s.sender.SendBookingSMS(r.UserPhone.String, msg); err != nil {
			s.log.Warn("reminder SMS failed",
				zap.String("booking_id", r.BookingID.String()), zap.Error(err))
		}
	}
	return nil
}
