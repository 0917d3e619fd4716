package entities

import (
	"time"

	"github.com/google/uuid"
)

// SlotRequest is one selected slot as sent by the client. Slots must form a
// contiguous run; they are merged into a single booking interval on
// submission.
type SlotRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type BookingRequest struct {
	ResourceID uuid.UUID     `json:"resource_id"`
	Slots      []SlotRequest `json:"slots"`
	Notes      string        `json:"notes,omitempty"`
}

type UpdateBookingRequest struct {
	Slots []SlotRequest `json:"slots,omitempty"`
	Notes *string       `json:"notes,omitempty"`
}

type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

type BookingResponse struct {
	ID               uuid.UUID `json:"id"`
	ResourceID       uuid.UUID `json:"resource_id"`
	ResourceName     string    `json:"resource_name"`
	ResourceLocation string    `json:"resource_location"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes,omitempty"`
	Rating           int       `json:"rating,omitempty"`
	Feedback         string    `json:"feedback,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
