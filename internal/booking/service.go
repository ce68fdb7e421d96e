package booking

import (
	"context"
	"errors"
	"time"

	"github.com/nekogravitycat/auditorium-booking/internal/auth"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/logger"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/metrics"
	"github.com/nekogravitycat/auditorium-booking/internal/realtime"
)

const changeTable = "bookings"

// Service is the calling layer around Repository: it validates input and runs the advisory
// conflict check before any write reaches the store.
type Service interface {
	List(ctx context.Context, filter Filter) ([]*Booking, error)
	Week(ctx context.Context, date time.Time) ([]Day, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	Create(ctx context.Context, p auth.Principal, form Form) (*Booking, error)
	Update(ctx context.Context, p auth.Principal, id string, form Form) (*Booking, error)
	Delete(ctx context.Context, p auth.Principal, id string) error
}

type Option func(*service)

// WithWeekCache serves Week from cache and invalidates affected weeks after writes.
func WithWeekCache(c WeekCache) Option {
	return func(s *service) { s.cache = c }
}

// WithPublisher reports every successful mutation to p.
func WithPublisher(p realtime.Publisher) Option {
	return func(s *service) { s.publisher = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *service) { s.log = l }
}

type service struct {
	repo      Repository
	cache     WeekCache
	publisher realtime.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{
		repo:      repo,
		publisher: realtime.Nop{},
		log:       logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// Week returns Monday..Friday of the week containing date, each with its bookings in start order.
func (s *service) Week(ctx context.Context, date time.Time) ([]Day, error) {
	days := Workweek(date)
	monday, friday := days[0], days[len(days)-1]

	bookings, version, hit, cacheable := s.cachedWeek(ctx, monday)
	if !hit {
		var err error
		bookings, err = s.repo.List(ctx, Filter{From: &monday, To: &friday})
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := s.cache.Set(ctx, monday, version, bookings); err != nil {
				s.log.Warn("week cache write failed", "week", monday.Format(DateLayout), "error", err)
			}
		}
	}

	out := make([]Day, len(days))
	for i, d := range days {
		out[i] = Day{Date: d, Bookings: make([]*Booking, 0)}
		for _, b := range bookings {
			if SameDate(b.Date, d) {
				out[i].Bookings = append(out[i].Bookings, b)
			}
		}
	}
	return out, nil
}

// cachedWeek reports the cached week if present. cacheable is false when there is no cache
// or it could not be read, in which case the result of the fallback read is not stored.
func (s *service) cachedWeek(ctx context.Context, monday time.Time) (bookings []*Booking, version int64, hit, cacheable bool) {
	if s.cache == nil {
		return nil, 0, false, false
	}
	bookings, version, ok, err := s.cache.Get(ctx, monday)
	if err != nil {
		s.log.Warn("week cache read failed", "week", monday.Format(DateLayout), "error", err)
		return nil, 0, false, false
	}
	return bookings, version, ok, true
}

// sameDay loads the bookings on date; the conflict check only needs that one day.
func (s *service) sameDay(ctx context.Context, date time.Time) ([]*Booking, error) {
	return s.repo.List(ctx, Filter{From: &date, To: &date})
}

func (s *service) Create(ctx context.Context, p auth.Principal, form Form) (*Booking, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.sameDay(ctx, form.Date)
	if err != nil {
		return nil, err
	}
	if HasConflict(form.Date, form.StartTime, form.EndTime, existing) {
		metrics.BookingConflicts.Inc()
		metrics.BookingMutations.WithLabelValues(string(OpCreated), "conflict").Inc()
		return nil, ErrTimeConflict
	}

	b, err := s.repo.Create(ctx, form, p.UserID)
	if err != nil {
		s.recordFailure(OpCreated, err)
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	metrics.BookingMutations.WithLabelValues(string(OpCreated), "ok").Inc()
	s.changed(ctx, OpCreated, b.ID, b.Date)
	return b, nil
}

func (s *service) Update(ctx context.Context, p auth.Principal, id string, form Form) (*Booking, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	// The previous date is needed to invalidate the week the booking moves away from.
	// A foreign booking is reported as missing before its slot is compared with anything.
	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev.OwnerID != p.UserID {
		s.recordFailure(OpUpdated, ErrNotFoundOrForbidden)
		return nil, ErrNotFoundOrForbidden
	}

	existing, err := s.sameDay(ctx, form.Date)
	if err != nil {
		return nil, err
	}
	if HasConflict(form.Date, form.StartTime, form.EndTime, ExcludeID(existing, id)) {
		metrics.BookingConflicts.Inc()
		metrics.BookingMutations.WithLabelValues(string(OpUpdated), "conflict").Inc()
		return nil, ErrTimeConflict
	}

	b, err := s.repo.Update(ctx, id, form, p.UserID)
	if err != nil {
		s.recordFailure(OpUpdated, err)
		return nil, err
	}

	metrics.BookingMutations.WithLabelValues(string(OpUpdated), "ok").Inc()
	s.changed(ctx, OpUpdated, b.ID, b.Date, prev.Date)
	return b, nil
}

func (s *service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}

	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if prev.OwnerID != p.UserID {
		s.recordFailure(OpDeleted, ErrNotFoundOrForbidden)
		return ErrNotFoundOrForbidden
	}

	if err := s.repo.Delete(ctx, id, p.UserID); err != nil {
		s.recordFailure(OpDeleted, err)
		return err
	}

	metrics.BookingMutations.WithLabelValues(string(OpDeleted), "ok").Inc()
	s.changed(ctx, OpDeleted, id, prev.Date)
	return nil
}

func (s *service) recordFailure(op ChangeOp, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, ErrTimeConflict):
		metrics.BookingConflicts.Inc()
		outcome = "conflict"
	case errors.Is(err, ErrNotFoundOrForbidden):
		outcome = "not_found"
	}
	metrics.BookingMutations.WithLabelValues(string(op), outcome).Inc()
}

// changed drops cached weeks touched by a mutation and notifies subscribers.
// Failures here are logged only: the write itself already succeeded.
func (s *service) changed(ctx context.Context, op ChangeOp, id string, dates ...time.Time) {
	if s.cache != nil {
		weeks := make([]time.Time, 0, len(dates))
		for _, d := range dates {
			weeks = append(weeks, WeekStart(d))
		}
		if err := s.cache.Invalidate(ctx, weeks...); err != nil {
			s.log.Warn("week cache invalidation failed", "booking_id", id, "error", err)
		}
	}

	e := realtime.Event{
		Table: changeTable,
		Op:    string(op),
		ID:    id,
		Date:  dates[0].Format(DateLayout),
		At:    s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("change notification failed", "booking_id", id, "op", op, "error", err)
	}
}
