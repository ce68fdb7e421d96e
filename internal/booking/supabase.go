package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/nekogravitycat/auditorium-booking/internal/pkg/apperror"
)

const supabaseTable = "bookings"

// bookingRow is the PostgREST wire shape of a booking.
type bookingRow struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Title      string    `json:"title"`
	BookedBy   string    `json:"booked_by"`
	Email      *string   `json:"email"`
	Department *string   `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     string    `json:"user_id"`
}

// bookingWrite is the body sent on insert and update; id and created_at belong to the store.
type bookingWrite struct {
	Date       string  `json:"date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Title      string  `json:"title"`
	BookedBy   string  `json:"booked_by"`
	Email      *string `json:"email"`
	Department *string `json:"department"`
	UserID     string  `json:"user_id,omitempty"`
}

func newBookingWrite(f Form, ownerID string) bookingWrite {
	return bookingWrite{
		Date:       f.Date.Format(DateLayout),
		StartTime:  f.StartTime.String(),
		EndTime:    f.EndTime.String(),
		Title:      f.Title,
		BookedBy:   f.BookedBy,
		Email:      nullIfEmpty(f.Email),
		Department: nullIfEmpty(f.Department),
		UserID:     ownerID,
	}
}

func (r bookingRow) toBooking() (*Booking, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	start, err := ParseTimeOfDay(r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(r.EndTime)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		ID:        r.ID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Title:     r.Title,
		BookedBy:  r.BookedBy,
		CreatedAt: r.CreatedAt,
		OwnerID:   r.UserID,
	}
	if r.Email != nil {
		b.Email = *r.Email
	}
	if r.Department != nil {
		b.Department = *r.Department
	}
	return b, nil
}

// supabaseRepository ignores ctx: the supabase-go query builder has no context parameter.
type supabaseRepository struct {
	client *supabase.Client
}

// NewSupabaseRepository stores bookings in the "bookings" table of a Supabase project.
// The key should be a service key: ownership is applied here as eq filters on user_id
// rather than through the project's row-level policies.
func NewSupabaseRepository(url, key string) (Repository, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &supabaseRepository{client: client}, nil
}

func decodeRows(data []byte) ([]*Booking, error) {
	var rows []bookingRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	out := make([]*Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toBooking()
		if err != nil {
			return nil, fmt.Errorf("decode booking %s: %w", row.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// mapSupabaseError classifies PostgREST failures. The error text carries the Postgres SQLSTATE.
func mapSupabaseError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, pgerrcode.ExclusionViolation):
		return apperror.Wrap(err, ErrTimeConflict.Code, ErrTimeConflict.Message)
	case strings.Contains(msg, pgerrcode.InvalidTextRepresentation):
		return ErrNotFoundOrForbidden
	}
	return repositoryError(op, err)
}

// single returns the only row of a write response, or NotFoundOrForbidden when the
// filter matched nothing.
func single(op string, data []byte) (*Booking, error) {
	bookings, err := decodeRows(data)
	if err != nil {
		return nil, repositoryError(op, err)
	}
	if len(bookings) == 0 {
		return nil, ErrNotFoundOrForbidden
	}
	return bookings[0], nil
}

func (r *supabaseRepository) List(_ context.Context, filter Filter) ([]*Booking, error) {
	query := r.client.From(supabaseTable).Select("*", "", false)
	if filter.From != nil {
		query = query.Gte("date", filter.From.Format(DateLayout))
	}
	if filter.To != nil {
		query = query.Lte("date", filter.To.Format(DateLayout))
	}
	if filter.OwnerID != "" {
		query = query.Eq("user_id", filter.OwnerID)
	}

	data, _, err := query.Order("date", &postgrest.OrderOpts{Ascending: true}).Execute()
	if err != nil {
		return nil, mapSupabaseError("list", err)
	}

	bookings, err := decodeRows(data)
	if err != nil {
		return nil, repositoryError("list", err)
	}
	// PostgREST only guarantees the date order; pin the secondary order.
	sortBookings(bookings)
	return bookings, nil
}

func (r *supabaseRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	data, _, err := r.client.From(supabaseTable).Select("*", "", false).Eq("id", id).Execute()
	if err != nil {
		return nil, mapSupabaseError("get", err)
	}
	return single("get", data)
}

func (r *supabaseRepository) Create(_ context.Context, form Form, ownerID string) (*Booking, error) {
	data, _, err := r.client.From(supabaseTable).
		Insert(newBookingWrite(form, ownerID), false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, mapSupabaseError("create", err)
	}
	return single("create", data)
}

func (r *supabaseRepository) Update(_ context.Context, id string, form Form, ownerID string) (*Booking, error) {
	body := newBookingWrite(form, "")
	data, _, err := r.client.From(supabaseTable).
		Update(body, "representation", "").
		Eq("id", id).
		Eq("user_id", ownerID).
		Execute()
	if err != nil {
		return nil, mapSupabaseError("update", err)
	}
	return single("update", data)
}

func (r *supabaseRepository) Delete(_ context.Context, id string, ownerID string) error {
	data, _, err := r.client.From(supabaseTable).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", ownerID).
		Execute()
	if err != nil {
		return mapSupabaseError("delete", err)
	}
	_, err = single("delete", data)
	return err
}
