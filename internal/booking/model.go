package booking

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/nekogravitycat/auditorium-booking/internal/pkg/apperror"
)

var (
	// ErrValidation is the ValidationError class; every input failure unwraps to it.
	ErrValidation       = apperror.New(http.StatusBadRequest, "invalid booking")
	ErrInvalidTimeRange = invalid("start time must be before end time")
	ErrWeekend          = invalid("bookings are only available on weekdays")

	ErrTimeConflict        = apperror.New(http.StatusConflict, "time slot already booked")
	ErrNotFoundOrForbidden = apperror.New(http.StatusNotFound, "booking not found")
	ErrUnauthenticated     = apperror.New(http.StatusUnauthorized, "unauthorized")

	// ErrRepository marks failures of the backing store. Match with errors.Is.
	ErrRepository = errors.New("booking repository error")
)

func invalid(msg string) *apperror.AppError {
	return apperror.Wrap(ErrValidation, http.StatusBadRequest, msg)
}

// Booking is a reservation of the auditorium for [StartTime, EndTime) on Date.
type Booking struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	StartTime  TimeOfDay `json:"start_time"`
	EndTime    TimeOfDay `json:"end_time"`
	Title      string    `json:"title"`
	BookedBy   string    `json:"booked_by"`
	Email      string    `json:"email,omitempty"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	OwnerID    string    `json:"user_id"`
}

// Form is the user-editable part of a Booking.
type Form struct {
	Date       time.Time
	StartTime  TimeOfDay
	EndTime    TimeOfDay
	Title      string
	BookedBy   string
	Email      string
	Department string
}

// Validate trims text fields in place and checks the invariants the input layer owns.
func (f *Form) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	f.BookedBy = strings.TrimSpace(f.BookedBy)
	f.Email = strings.TrimSpace(f.Email)
	f.Department = strings.TrimSpace(f.Department)

	switch {
	case f.Date.IsZero():
		return invalid("date is required")
	case f.Title == "":
		return invalid("title is required")
	case f.BookedBy == "":
		return invalid("booked_by is required")
	case !f.StartTime.Valid() || !f.EndTime.Valid():
		return invalid("time of day out of range")
	case f.StartTime >= f.EndTime:
		return ErrInvalidTimeRange
	case !IsWeekday(f.Date):
		return ErrWeekend
	}
	f.Date = NormalizeDate(f.Date)
	return nil
}

// Filter narrows List. Zero values mean "no constraint"; From and To are inclusive dates.
type Filter struct {
	From    *time.Time
	To      *time.Time
	OwnerID string
}

// Day is one column of the weekly calendar.
type Day struct {
	Date     time.Time
	Bookings []*Booking
}

// ChangeOp names the mutation reported to change subscribers.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// sortBookings orders by date, then start time, then id.
func sortBookings(bookings []*Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
