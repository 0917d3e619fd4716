package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"bookinghub/internal/entities"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AvailabilityIndex produces slot classifications and change subscriptions
// for one resource.
type AvailabilityIndex interface {
	Window(ctx context.Context, resourceID uuid.UUID, from, to time.Time) (*entities.AvailabilityResponse, error)
	Watch(resourceID uuid.UUID) (<-chan struct{}, func())
}

// BookingCoordinator is the submission side of the booking flow.
type BookingCoordinator interface {
	Submit(ctx context.Context, resourceID uuid.UUID, slots []entities.SlotRequest, notes string) (*entities.BookingResponse, error)
	Update(ctx context.Context, bookingID uuid.UUID, req entities.UpdateBookingRequest) (*entities.BookingResponse, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) error
	Feedback(ctx context.Context, bookingID uuid.UUID, req entities.FeedbackRequest) error
	ListMine(ctx context.Context, limit, offset int) (*entities.BookingsList, error)
}

type BookingHandler struct {
	Availability AvailabilityIndex
	Bookings     BookingCoordinator
}

func NewBookingHandler(availability AvailabilityIndex, bookings BookingCoordinator) *BookingHandler {
	return &BookingHandler{Availability: availability, Bookings: bookings}
}

func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if req.ResourceID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "resource_id is required"})
		return
	}

	resp, err := h.Availability.Window(r.Context(), req.ResourceID, req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	booking, err := h.Bookings.Submit(r.Context(), req.ResourceID, req.Slots, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.Bookings.ListMine(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id"})
		return
	}
	var req entities.UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	booking, err := h.Bookings.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id"})
		return
	}

	if err := h.Bookings.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking cancelled"})
}

func (h *BookingHandler) LeaveFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id"})
		return
	}
	var req entities.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.Bookings.Feedback(r.Context(), id, req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Feedback saved"})
}
