package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookinghub/internal/entities"
	apperrors "bookinghub/internal/errors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	resp *entities.AvailabilityResponse
	err  error
}

func (f *fakeIndex) Window(context.Context, uuid.UUID, time.Time, time.Time) (*entities.AvailabilityResponse, error) {
	return f.resp, f.err
}

func (f *fakeIndex) Watch(uuid.UUID) (<-chan struct{}, func()) {
	ch := make(chan struct{})
	return ch, func() {}
}

type fakeCoordinator struct {
	booking *entities.BookingResponse
	err     error
}

func (f *fakeCoordinator) Submit(context.Context, uuid.UUID, []entities.SlotRequest, string) (*entities.BookingResponse, error) {
	return f.booking, f.err
}

func (f *fakeCoordinator) Update(context.Context, uuid.UUID, entities.UpdateBookingRequest) (*entities.BookingResponse, error) {
	return f.booking, f.err
}

func (f *fakeCoordinator) Cancel(context.Context, uuid.UUID) error { return f.err }

func (f *fakeCoordinator) Feedback(context.Context, uuid.UUID, entities.FeedbackRequest) error {
	return f.err
}

func (f *fakeCoordinator) ListMine(context.Context, int, int) (*entities.BookingsList, error) {
	return &entities.BookingsList{}, f.err
}

func newRouter(index AvailabilityIndex, coord BookingCoordinator) *mux.Router {
	h := NewBookingHandler(index, coord)
	r := mux.NewRouter()
	r.HandleFunc("/api/availability", h.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/bookings", h.CreateBooking).Methods("POST")
	r.HandleFunc("/api/bookings/{id}", h.CancelBooking).Methods("DELETE")
	return r
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCheckAvailabilityReturnsSlots(t *testing.T) {
	resourceID := uuid.New()
	index := &fakeIndex{resp: &entities.AvailabilityResponse{
		ResourceID: resourceID,
		Slots: []entities.TimeSlotStatus{
			{Status: "available"},
			{Status: "booked"},
		},
	}}
	router := newRouter(index, &fakeCoordinator{})

	rec := postJSON(t, router, "/api/availability", AvailabilityRequest{ResourceID: resourceID})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp entities.AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Slots, 2)
}

func TestCheckAvailabilityRequiresResourceID(t *testing.T) {
	router := newRouter(&fakeIndex{}, &fakeCoordinator{})
	rec := postJSON(t, router, "/api/availability", AvailabilityRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingStatusByErrorCategory(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"conflict", apperrors.ErrConflict, http.StatusConflict},
		{"auth required", apperrors.ErrAuthRequired, http.StatusUnauthorized},
		{"validation", apperrors.Validationf("no time slots selected"), http.StatusBadRequest},
		{"transient", apperrors.Transient("booking submission", assert.AnError), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(&fakeIndex{}, &fakeCoordinator{err: tc.err})
			rec := postJSON(t, router, "/api/bookings", entities.BookingRequest{ResourceID: uuid.New()})
			assert.Equal(t, tc.want, rec.Code)

			// Every failure names its category in the body.
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	booking := &entities.BookingResponse{ID: uuid.New(), Status: "confirmed"}
	router := newRouter(&fakeIndex{}, &fakeCoordinator{booking: booking})

	rec := postJSON(t, router, "/api/bookings", entities.BookingRequest{ResourceID: uuid.New()})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp entities.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, booking.ID, resp.ID)
}

func TestCancelBookingRejectsBadID(t *testing.T) {
	router := newRouter(&fakeIndex{}, &fakeCoordinator{})
	req := httptest.NewRequest(http.MethodDelete, "/api/bookings/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingNotFound(t *testing.T) {
	router := newRouter(&fakeIndex{}, &fakeCoordinator{err: apperrors.ErrNotFound})
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/bookings/%s", uuid.New()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
