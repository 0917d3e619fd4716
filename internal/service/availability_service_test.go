package service

import (
	"context"
	"testing"
	"time"

	"bookinghub/internal/db"
	apperrors "bookinghub/internal/errors"
	"bookinghub/internal/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChangeFeed struct {
	ch       chan struct{}
	released bool
}

func (f *fakeChangeFeed) Subscribe(uuid.UUID) (<-chan struct{}, func()) {
	return f.ch, func() { f.released = true }
}

func newAvailabilityFixture(store *fakeBookingStore) (*AvailabilityService, *fakeChangeFeed) {
	feed := &fakeChangeFeed{ch: make(chan struct{}, 1)}
	window := schedule.Window{OpenHour: 9, CloseHour: 12, Granularity: time.Hour}
	svc := NewAvailabilityService(store, feed, window, zap.NewNop())
	svc.now = func() time.Time { return testDay }
	return svc, feed
}

func bookingRow(resourceID uuid.UUID, from, to int) *db.Booking {
	return &db.Booking{
		ID:         uuid.New(),
		ResourceID: resourceID,
		UserID:     uuid.New(),
		StartTime:  hour(from),
		EndTime:    hour(to),
		Status:     db.StatusConfirmed,
	}
}

func TestWindowClassifiesSlots(t *testing.T) {
	// Resource with a confirmed booking 10:00-11:00; a 09:00-12:00 window
	// comes back as available, booked, available.
	store := newFakeBookingStore()
	resourceID := uuid.New()
	require.NoError(t, store.Create(context.Background(), bookingRow(resourceID, 10, 11)))

	svc, _ := newAvailabilityFixture(store)
	resp, err := svc.Window(context.Background(), resourceID, testDay, testDay)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 3)

	assert.Equal(t, "available", resp.Slots[0].Status)
	assert.Equal(t, "booked", resp.Slots[1].Status)
	assert.Equal(t, "available", resp.Slots[2].Status)
}

func TestWindowNeverReportsUnverifiedSlotsAsAvailable(t *testing.T) {
	store := newFakeBookingStore()
	store.windowErr = assert.AnError

	svc, _ := newAvailabilityFixture(store)
	resp, err := svc.Window(context.Background(), uuid.New(), testDay, testDay)
	assert.Nil(t, resp)
	assert.True(t, apperrors.IsTransient(err))
}

func TestWindowIsStableAcrossRecomputations(t *testing.T) {
	store := newFakeBookingStore()
	resourceID := uuid.New()
	require.NoError(t, store.Create(context.Background(), bookingRow(resourceID, 9, 10)))

	svc, _ := newAvailabilityFixture(store)
	first, err := svc.Window(context.Background(), resourceID, testDay, testDay)
	require.NoError(t, err)
	second, err := svc.Window(context.Background(), resourceID, testDay, testDay)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWatchReleasesSubscription(t *testing.T) {
	svc, feed := newAvailabilityFixture(newFakeBookingStore())

	ch, release := svc.Watch(uuid.New())
	feed.ch <- struct{}{}
	<-ch
	release()
	assert.True(t, feed.released)
}
