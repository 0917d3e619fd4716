package schedule

import (
	"fmt"
	"time"
)

// SlotStatus is the availability classification of a single time slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotPast      SlotStatus = "past"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Slot is a discrete interval of the operating window together with its
// availability classification. Slots are derived for rendering only and are
// never persisted.
type Slot struct {
	Interval
	Status SlotStatus
}

// Window describes how a day is cut into bookable slots: operating hours
// (whole hours, CloseHour exclusive) and the slot granularity.
type Window struct {
	OpenHour    int
	CloseHour   int
	Granularity time.Duration
}

// DefaultWindow matches the campus operating hours: hourly slots from 08:00
// to 21:00 local time.
var DefaultWindow = Window{OpenHour: 8, CloseHour: 21, Granularity: time.Hour}

func (w Window) valid() error {
	if w.Granularity <= 0 {
		return fmt.Errorf("slot granularity must be positive, got %s", w.Granularity)
	}
	if w.OpenHour < 0 || w.CloseHour > 24 || w.OpenHour >= w.CloseHour {
		return fmt.Errorf("operating window %02d:00-%02d:00 is not valid", w.OpenHour, w.CloseHour)
	}
	return nil
}

// DaySlots classifies every slot of a single day. Each slot receives exactly
// one status:
//
//   - past if the slot has started (a slot overlapping the current moment is
//     past; there is no join-late policy),
//   - booked if the slot overlaps any of the given confirmed intervals,
//   - available otherwise.
//
// The classification is a pure function of its inputs, so recomputing with
// unchanged bookings yields an identical result.
func (w Window) DaySlots(day time.Time, booked []Interval, now time.Time) ([]Slot, error) {
	if err := w.valid(); err != nil {
		return nil, err
	}

	open := time.Date(day.Year(), day.Month(), day.Day(), w.OpenHour, 0, 0, 0, day.Location())
	closing := time.Date(day.Year(), day.Month(), day.Day(), w.CloseHour, 0, 0, 0, day.Location())

	var slots []Slot
	for start := open; start.Before(closing); start = start.Add(w.Granularity) {
		end := start.Add(w.Granularity)
		if end.After(closing) {
			end = closing
		}
		slots = append(slots, Slot{
			Interval: Interval{Start: start, End: end},
			Status:   classify(Interval{Start: start, End: end}, booked, now),
		})
	}
	return slots, nil
}

// RangeSlots classifies every slot for each day in [from, to] inclusive.
func (w Window) RangeSlots(from, to time.Time, booked []Interval, now time.Time) ([]Slot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("window end %s precedes start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	var slots []Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		daySlots, err := w.DaySlots(day, booked, now)
		if err != nil {
			return nil, err
		}
		slots = append(slots, daySlots...)
	}
	return slots, nil
}

func classify(slot Interval, booked []Interval, now time.Time) SlotStatus {
	if slot.Start.Before(now) {
		return SlotPast
	}
	for _, b := range booked {
		if slot.Overlaps(b) {
			return SlotBooked
		}
	}
	return SlotAvailable
}

// MergeContiguous collapses an ordered run of adjacent intervals into the
// single interval a booking is made of. It fails when the run is empty or has
// a gap, since a booking is always one interval.
func MergeContiguous(slots []Interval) (Interval, error) {
	if len(slots) == 0 {
		return Interval{}, fmt.Errorf("no time slots selected")
	}
	for i := 0; i < len(slots)-1; i++ {
		if !slots[i].End.Equal(slots[i+1].Start) {
			return Interval{}, fmt.Errorf("selected time slots are not contiguous")
		}
	}
	merged := Interval{Start: slots[0].Start, End: slots[len(slots)-1].End}
	if !merged.End.After(merged.Start) {
		return Interval{}, fmt.Errorf("end time must be after start time")
	}
	return merged, nil
}
