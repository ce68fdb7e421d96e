package http

import (
	"errors"
	"time"

	"github.com/nekogravitycat/auditorium-booking/internal/booking"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Mine bool   `form:"mine"`
}

// ToFilter converts the query into a repository filter. ownerID is applied only when Mine is set.
func (r *ListBookingsRequest) ToFilter(ownerID string) (booking.Filter, error) {
	var f booking.Filter
	if r.From != "" {
		d, err := booking.ParseDate(r.From)
		if err != nil {
			return f, err
		}
		f.From = &d
	}
	if r.To != "" {
		d, err := booking.ParseDate(r.To)
		if err != nil {
			return f, err
		}
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, errors.New("from must not be after to")
	}
	if r.Mine {
		f.OwnerID = ownerID
	}
	return f, nil
}

// WeekRequest selects the calendar week containing Date. Empty means the current week.
type WeekRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// BookingRequest is the body of both create and replace.
type BookingRequest struct {
	Date       string `json:"date" binding:"required,weekday"`
	StartTime  string `json:"start_time" binding:"required,hhmm"`
	EndTime    string `json:"end_time" binding:"required,hhmm"`
	Title      string `json:"title" binding:"required,max=200"`
	BookedBy   string `json:"booked_by" binding:"required,max=100"`
	Email      string `json:"email" binding:"omitempty,email"`
	Department string `json:"department" binding:"omitempty,max=100"`
}

// ToForm parses the string fields. Domain invariants are checked later by the service.
func (r *BookingRequest) ToForm() (booking.Form, error) {
	date, err := booking.ParseDate(r.Date)
	if err != nil {
		return booking.Form{}, err
	}
	start, err := booking.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return booking.Form{}, err
	}
	end, err := booking.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return booking.Form{}, err
	}
	return booking.Form{
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Title:      r.Title,
		BookedBy:   r.BookedBy,
		Email:      r.Email,
		Department: r.Department,
	}, nil
}

type BookingResponse struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Title      string    `json:"title"`
	BookedBy   string    `json:"booked_by"`
	Email      string    `json:"email,omitempty"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     string    `json:"user_id"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		Date:       b.Date.Format(booking.DateLayout),
		StartTime:  b.StartTime.String(),
		EndTime:    b.EndTime.String(),
		Title:      b.Title,
		BookedBy:   b.BookedBy,
		Email:      b.Email,
		Department: b.Department,
		CreatedAt:  b.CreatedAt,
		UserID:     b.OwnerID,
	}
}

func newBookingResponses(bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	return items
}

type ListBookingsResponse struct {
	Items []BookingResponse `json:"items"`
	Total int               `json:"total"`
}

type DayResponse struct {
	Date     string            `json:"date"`
	Weekday  string            `json:"weekday"`
	Bookings []BookingResponse `json:"bookings"`
}

type WeekResponse struct {
	WeekStart string        `json:"week_start"`
	Days      []DayResponse `json:"days"`
}

func NewWeekResponse(days []booking.Day) WeekResponse {
	resp := WeekResponse{Days: make([]DayResponse, len(days))}
	if len(days) > 0 {
		resp.WeekStart = days[0].Date.Format(booking.DateLayout)
	}
	for i, d := range days {
		resp.Days[i] = DayResponse{
			Date:     d.Date.Format(booking.DateLayout),
			Weekday:  d.Date.Weekday().String(),
			Bookings: newBookingResponses(d.Bookings),
		}
	}
	return resp
}
