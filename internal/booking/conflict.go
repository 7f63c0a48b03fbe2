package booking

import "time"

// Booking represents the fields of a request relevant to conflict detection.
type Booking struct {
	ID     string
	RoomID string
	Start  time.Time
	End    time.Time
	Status Status
}

// Conflict details an overlapping booking that callers can present to users.
type Conflict struct {
	WithBookingID string
	RoomID        string
	Start         time.Time
	End           time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DetectConflicts identifies every active booking for the candidate's room
// whose interval overlaps the candidate. The candidate itself is skipped so
// that re-validation of an existing request does not report a self-conflict.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	if candidate.RoomID == "" || !candidate.Start.Before(candidate.End) {
		return nil
	}

	var conflicts []Conflict
	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		if other.RoomID != candidate.RoomID {
			continue
		}
		if !other.Status.Active() {
			continue
		}
		if !Overlaps(candidate.Start, candidate.End, other.Start, other.End) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithBookingID: other.ID,
			RoomID:        other.RoomID,
			Start:         other.Start,
			End:           other.End,
		})
	}
	return conflicts
}
