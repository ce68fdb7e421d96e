package booking

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart.Minutes() < bEnd.Minutes() && bStart.Minutes() < aEnd.Minutes()
}

// HasConflict reports whether [start, end) on date overlaps any booking in existing on the same date.
// Bookings on other dates are ignored. Callers updating a booking must remove its previous
// version first (see ExcludeID).
func HasConflict(date time.Time, start, end TimeOfDay, existing []*Booking) bool {
	return FirstConflict(date, start, end, existing) != nil
}

// FirstConflict is HasConflict returning the offending booking.
func FirstConflict(date time.Time, start, end TimeOfDay, existing []*Booking) *Booking {
	for _, b := range existing {
		if b == nil || !SameDate(b.Date, date) {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return b
		}
	}
	return nil
}

// ExcludeID returns bookings without the one whose ID is id. The input slice is not modified.
func ExcludeID(bookings []*Booking, id string) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil && b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
