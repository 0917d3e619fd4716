package schedule

import "fmt"

// Selection tracks a user's in-progress choice of contiguous slots before
// submission. It lives only for the duration of a booking dialog: created
// empty, mutated by slot clicks, cleared on submit or close, never persisted.
//
// Only contiguous runs can be built, because a booking is a single interval.
// Clicking a slot adjacent to either end grows the run; clicking any slot
// already selected clears everything (a partial removal would leave a gap);
// clicking a detached slot restarts the run at that slot.
type Selection struct {
	slots []Interval
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Click applies one slot click to the selection and reports whether the
// selection changed. Clicks on booked or past slots are ignored.
func (s *Selection) Click(slot Slot) bool {
	if slot.Status != SlotAvailable {
		return false
	}

	for _, sel := range s.slots {
		if sel.Start.Equal(slot.Start) {
			s.slots = nil
			return true
		}
	}

	if len(s.slots) == 0 {
		s.slots = []Interval{slot.Interval}
		return true
	}

	first := s.slots[0]
	last := s.slots[len(s.slots)-1]
	switch {
	case slot.End.Equal(first.Start):
		s.slots = append([]Interval{slot.Interval}, s.slots...)
	case slot.Start.Equal(last.End):
		s.slots = append(s.slots, slot.Interval)
	default:
		// Detached slot: restart the selection there.
		s.slots = []Interval{slot.Interval}
	}
	return true
}

// Clear empties the selection. Clearing an already-empty selection is a no-op.
func (s *Selection) Clear() {
	s.slots = nil
}

// IsEmpty reports whether no slots are selected.
func (s *Selection) IsEmpty() bool {
	return len(s.slots) == 0
}

// Len returns the number of selected slots.
func (s *Selection) Len() int {
	return len(s.slots)
}

// Slots returns a copy of the selected slots in order.
func (s *Selection) Slots() []Interval {
	out := make([]Interval, len(s.slots))
	copy(out, s.slots)
	return out
}

// Interval merges the selection into the single booking interval.
func (s *Selection) Interval() (Interval, error) {
	return MergeContiguous(s.slots)
}

// Label renders the selection as one human-readable line. A contiguous run
// (always the case by construction) is shown as a single range; the slot
// count is the fallback.
func (s *Selection) Label() string {
	if len(s.slots) == 0 {
		return ""
	}
	if merged, err := MergeContiguous(s.slots); err == nil {
		return fmt.Sprintf("Time selected: %s - %s on %s",
			merged.Start.Format("3:04 PM"),
			merged.End.Format("3:04 PM"),
			merged.Start.Format("Jan 2"))
	}
	return fmt.Sprintf("%d time slots selected", len(s.slots))
}
