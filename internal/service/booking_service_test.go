package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"bookinghub/internal/auth"
	"bookinghub/internal/config"
	"bookinghub/internal/db"
	"bookinghub/internal/entities"
	apperrors "bookinghub/internal/errors"
	"bookinghub/internal/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
)

func hour(h int) time.Time {
	return time.Date(2025, 3, 10, h, 0, 0, 0, time.UTC)
}

func slotReq(from, to int) entities.SlotRequest {
	return entities.SlotRequest{StartTime: hour(from), EndTime: hour(to)}
}

// fakeBookingStore enforces the overlap invariant the way Postgres does:
// atomically, at write time. With stale set, the read side reports nothing,
// reproducing the time-of-check/time-of-use gap.
type fakeBookingStore struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*db.Booking
	stale     bool
	windowErr error
	createErr error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[uuid.UUID]*db.Booking)}
}

func (f *fakeBookingStore) overlapsLocked(resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) bool {
	for id, b := range f.bookings {
		if id == exclude || b.ResourceID != resourceID || b.Status != db.StatusConfirmed {
			continue
		}
		if b.StartTime.Before(end) && start.Before(b.EndTime) {
			return true
		}
	}
	return false
}

func (f *fakeBookingStore) ConfirmedInWindow(_ context.Context, resourceID uuid.UUID, from, to time.Time) ([]db.Booking, error) {
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	if f.stale {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if b.ResourceID == resourceID && b.Status == db.StatusConfirmed &&
			b.StartTime.Before(to) && from.Before(b.EndTime) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) Create(_ context.Context, b *db.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overlapsLocked(b.ResourceID, b.StartTime, b.EndTime, uuid.Nil) {
		return apperrors.ErrConflict
	}
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeBookingStore) ByID(_ context.Context, id uuid.UUID) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingStore) UpdateInterval(_ context.Context, id uuid.UUID, start, end time.Time, notes sql.NullString) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != db.StatusConfirmed {
		return apperrors.ErrNotFound
	}
	if f.overlapsLocked(b.ResourceID, start, end, id) {
		return apperrors.ErrConflict
	}
	b.StartTime, b.EndTime, b.Notes = start, end, notes
	return nil
}

func (f *fakeBookingStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookingStore) SetFeedback(_ context.Context, id uuid.UUID, rating int, feedback string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	b.Rating = sql.NullInt32{Int32: int32(rating), Valid: true}
	b.Feedback = sql.NullString{String: feedback, Valid: true}
	return nil
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) (*entities.BookingsList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := &entities.BookingsList{Limit: limit, Offset: offset}
	for _, b := range f.bookings {
		if b.UserID == userID {
			list.Total++
			list.Bookings = append(list.Bookings, entities.BookingResponse{ID: b.ID, Status: b.Status})
		}
	}
	return list, nil
}

type fakeResourceStore struct {
	resources map[uuid.UUID]*db.Resource
}

func (f *fakeResourceStore) ByID(_ context.Context, id uuid.UUID) (*db.Resource, error) {
	res, ok := f.resources[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return res, nil
}

func (f *fakeResourceStore) List(context.Context, string, string) ([]db.Resource, error) {
	var out []db.Resource
	for _, res := range f.resources {
		out = append(out, *res)
	}
	return out, nil
}

type fakeNotifier struct {
	emails   chan entities.BookingEmailData
	emailErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{emails: make(chan entities.BookingEmailData, 16)}
}

func (f *fakeNotifier) SendBookingEmail(data entities.BookingEmailData) error {
	if f.emailErr != nil {
		return f.emailErr
	}
	f.emails <- data
	return nil
}

func (f *fakeNotifier) SendBookingSMS(string, string) error { return nil }

func (f *fakeNotifier) waitForEmail(t *testing.T) entities.BookingEmailData {
	t.Helper()
	select {
	case data := <-f.emails:
		return data
	case <-time.After(time.Second):
		t.Fatal("no email sent")
		return entities.BookingEmailData{}
	}
}

type fixture struct {
	svc        *BookingService
	store      *fakeBookingStore
	sender     *fakeNotifier
	resourceID uuid.UUID
	user       *auth.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	resourceID := uuid.New()
	store := newFakeBookingStore()
	sender := newFakeNotifier()
	resources := &fakeResourceStore{resources: map[uuid.UUID]*db.Resource{
		resourceID: {ID: resourceID, Name: "Study Pod 3", Location: "Library, Floor 2"},
	}}
	policy := config.Policy{
		Window:    schedule.DefaultWindow,
		MinNotice: time.Hour,
	}
	svc := NewBookingService(store, resources, sender, policy, zap.NewNop())
	svc.now = func() time.Time { return testNow }

	return &fixture{
		svc:        svc,
		store:      store,
		sender:     sender,
		resourceID: resourceID,
		user:       &auth.User{ID: uuid.New(), Email: "sam@campus.edu", Name: "Sam"},
	}
}

func (f *fixture) ctx() context.Context {
	return auth.WithUser(context.Background(), f.user)
}

func (f *fixture) confirmedBooking(t *testing.T, from, to int) *db.Booking {
	t.Helper()
	b := &db.Booking{
		ID:         uuid.New(),
		ResourceID: f.resourceID,
		UserID:     f.user.ID,
		StartTime:  hour(from),
		EndTime:    hour(to),
		Status:     db.StatusConfirmed,
	}
	require.NoError(t, f.store.Create(context.Background(), b))
	return b
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), f.resourceID, []entities.SlotRequest{slotReq(9, 10)}, "")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestSubmitRejectsEmptySelection(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(f.ctx(), f.resourceID, nil, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSubmitRejectsNonContiguousSlots(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(f.ctx(), f.resourceID,
		[]entities.SlotRequest{slotReq(9, 10), slotReq(14, 15)}, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSubmitRejectsPastStart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(f.ctx(), f.resourceID, []entities.SlotRequest{slotReq(7, 8)}, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSubmitMergesContiguousSlots(t *testing.T) {
	f := newFixture(t)

	// Slots arrive in click order, not sorted.
	booking, err := f.svc.Submit(f.ctx(), f.resourceID,
		[]entities.SlotRequest{slotReq(10, 11), slotReq(9, 10), slotReq(11, 12)}, "team sync")
	require.NoError(t, err)

	assert.Equal(t, hour(9), booking.StartTime)
	assert.Equal(t, hour(12), booking.EndTime)
	assert.Equal(t, db.StatusConfirmed, booking.Status)
	assert.Equal(t, "Study Pod 3", booking.ResourceName)

	email := f.sender.waitForEmail(t)
	assert.Equal(t, entities.EmailActionCreated, email.Action)
	assert.Equal(t, "sam@campus.edu", email.Recipient)
	assert.Equal(t, "Study Pod 3", email.ResourceName)
	assert.Equal(t, booking.ID.String(), email.BookingID)
}

func TestSubmitPreCheckReportsConflictEarly(t *testing.T) {
	f := newFixture(t)
	f.confirmedBooking(t, 9, 10)

	before := len(f.store.bookings)
	_, err := f.svc.Submit(f.ctx(), f.resourceID, []entities.SlotRequest{slotReq(9, 10)}, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Len(t, f.store.bookings, before)
}

func TestSubmitStoreIsTheConflictAuthority(t *testing.T) {
	// The availability read is stale: it reports every slot free even
	// though another user already holds 09:00-10:00. The insert still
	// rejects.
	f := newFixture(t)
	f.confirmedBooking(t, 9, 10)
	f.store.stale = true

	_, err := f.svc.Submit(f.ctx(), f.resourceID, []entities.SlotRequest{slotReq(9, 10)}, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestConcurrentSubmitsExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	f.store.stale = true

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := f.svc.Submit(f.ctx(), f.resourceID, []entities.SlotRequest{slotReq(9, 10)}, "")
			results <- err
		}()
	}

	var conflicts, successes int
	for i := 0; i < 2; i++ {
		if err := <-results; err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, apperrors.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, f.store.bookings, 1)
}

func TestSubmitTransientFailurePreservesNothingPersisted(t *testing.T) {
	f := newFixture(t)
	f.store.windowErr = assert.AnError

	_, err := f.svc.Submit(f.ctx(), f.resourceID, []entities.SlotRequest{slotReq(9, 10)}, "")
	assert.True(t, apperrors.IsTransient(err))
	assert.Empty(t, f.store.bookings)
}

func TestCancelInsideMinimumNoticeIsRejected(t *testing.T) {
	// Booking starts in 30 minutes against a 1-hour notice policy.
	f := newFixture(t)
	b := f.confirmedBooking(t, 8, 9)
	b.StartTime = testNow.Add(30 * time.Minute)
	f.store.bookings[b.ID].StartTime = b.StartTime

	err := f.svc.Cancel(f.ctx(), b.ID)
	assert.True(t, apperrors.IsValidation(err))

	stored, _ := f.store.ByID(context.Background(), b.ID)
	assert.Equal(t, db.StatusConfirmed, stored.Status)
}

func TestCancelFlipsStatusAndEmails(t *testing.T) {
	f := newFixture(t)
	b := f.confirmedBooking(t, 14, 15)

	require.NoError(t, f.svc.Cancel(f.ctx(), b.ID))

	stored, _ := f.store.ByID(context.Background(), b.ID)
	assert.Equal(t, db.StatusCancelled, stored.Status)

	email := f.sender.waitForEmail(t)
	assert.Equal(t, entities.EmailActionCancelled, email.Action)
}

func TestCancelSomeoneElsesBookingIsNotFound(t *testing.T) {
	f := newFixture(t)
	b := f.confirmedBooking(t, 14, 15)

	stranger := auth.WithUser(context.Background(), &auth.User{ID: uuid.New(), Email: "x@campus.edu"})
	err := f.svc.Cancel(stranger, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateExcludesOwnIntervalFromConflictCheck(t *testing.T) {
	f := newFixture(t)
	f.svc.policy.RequireUpdateEmail = true
	b := f.confirmedBooking(t, 14, 15)

	// Growing 14:00-15:00 into 14:00-16:00 overlaps the booking's own
	// prior interval, which must not count as a conflict.
	updated, err := f.svc.Update(f.ctx(), b.ID, entities.UpdateBookingRequest{
		Slots: []entities.SlotRequest{slotReq(14, 15), slotReq(15, 16)},
	})
	require.NoError(t, err)
	assert.Equal(t, hour(14), updated.StartTime)
	assert.Equal(t, hour(16), updated.EndTime)

	email := f.sender.waitForEmail(t)
	assert.Equal(t, entities.EmailActionUpdated, email.Action)
}

func TestUpdateConflictsWithOtherBooking(t *testing.T) {
	f := newFixture(t)
	f.confirmedBooking(t, 16, 17)
	b := f.confirmedBooking(t, 14, 15)

	_, err := f.svc.Update(f.ctx(), b.ID, entities.UpdateBookingRequest{
		Slots: []entities.SlotRequest{slotReq(16, 17)},
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateRequiresConfirmationEmailDelivery(t *testing.T) {
	f := newFixture(t)
	f.svc.policy.RequireUpdateEmail = true
	f.sender.emailErr = assert.AnError
	b := f.confirmedBooking(t, 14, 15)

	_, err := f.svc.Update(f.ctx(), b.ID, entities.UpdateBookingRequest{
		Slots: []entities.SlotRequest{slotReq(15, 16)},
	})
	assert.True(t, apperrors.IsTransient(err))

	stored, _ := f.store.ByID(context.Background(), b.ID)
	assert.Equal(t, hour(14), stored.StartTime)
}

func TestUpdateNotesOnlyKeepsInterval(t *testing.T) {
	f := newFixture(t)
	f.svc.policy.RequireUpdateEmail = false
	b := f.confirmedBooking(t, 14, 15)

	notes := "projector needed"
	updated, err := f.svc.Update(f.ctx(), b.ID, entities.UpdateBookingRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, hour(14), updated.StartTime)
	assert.Equal(t, hour(15), updated.EndTime)
	assert.Equal(t, "projector needed", updated.Notes)
}

func TestUpdateInsideMinimumNoticeIsRejected(t *testing.T) {
	f := newFixture(t)
	b := f.confirmedBooking(t, 8, 9)
	f.store.bookings[b.ID].StartTime = testNow.Add(30 * time.Minute)

	_, err := f.svc.Update(f.ctx(), b.ID, entities.UpdateBookingRequest{
		Slots: []entities.SlotRequest{slotReq(15, 16)},
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestFeedbackOnlyOnCompletedBookings(t *testing.T) {
	f := newFixture(t)
	b := f.confirmedBooking(t, 14, 15)

	err := f.svc.Feedback(f.ctx(), b.ID, entities.FeedbackRequest{Rating: 5})
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.store.UpdateStatus(context.Background(), b.ID, db.StatusCompleted))

	err = f.svc.Feedback(f.ctx(), b.ID, entities.FeedbackRequest{Rating: 0})
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.svc.Feedback(f.ctx(), b.ID, entities.FeedbackRequest{Rating: 4, Feedback: "great room"}))

	stored, _ := f.store.ByID(context.Background(), b.ID)
	assert.EqualValues(t, 4, stored.Rating.Int32)
}

func TestListMineRequiresAuth(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListMine(context.Background(), 10, 0)
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}
