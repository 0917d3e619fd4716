package entities

import (
	"time"

	"github.com/google/uuid"
)

type TimeSlotStatus struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type AvailabilityResponse struct {
	ResourceID  uuid.UUID        `json:"resource_id"`
	WindowStart time.Time        `json:"window_start"`
	WindowEnd   time.Time        `json:"window_end"`
	Slots       []TimeSlotStatus `json:"slots"`
}
