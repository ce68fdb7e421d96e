package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/auditorium-booking/internal/pkg/apperror"
)

const bookingsTable = "public.bookings"

// Repository persists bookings. Ownership of Update and Delete is part of the write condition,
// so a row that exists but belongs to someone else is indistinguishable from a missing one.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	Create(ctx context.Context, form Form, ownerID string) (*Booking, error)
	Update(ctx context.Context, id string, form Form, ownerID string) (*Booking, error)
	Delete(ctx context.Context, id string, ownerID string) error
}

// repositoryError wraps a store failure as a RepositoryError.
func repositoryError(op string, err error) error {
	return apperror.Wrap(fmt.Errorf("%w: %s: %w", ErrRepository, op, err), http.StatusBadGateway, "booking store request failed")
}

var bookingColumns = []string{
	"id", "date", "start_time", "end_time", "title", "booked_by",
	"COALESCE(email, '')", "COALESCE(department, '')", "created_at", "user_id",
}

type pgxRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.Date, &b.StartTime, &b.EndTime, &b.Title, &b.BookedBy,
		&b.Email, &b.Department, &b.CreatedAt, &b.OwnerID,
	); err != nil {
		return nil, err
	}
	b.Date = NormalizeDate(b.Date)
	return &b, nil
}

// mapWriteError turns constraint violations into domain errors; everything else is a RepositoryError.
func mapWriteError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFoundOrForbidden
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return apperror.Wrap(err, ErrTimeConflict.Code, ErrTimeConflict.Message)
		case pgerrcode.CheckViolation:
			return invalid(pgErr.Message)
		case pgerrcode.InvalidTextRepresentation:
			return ErrNotFoundOrForbidden
		}
	}
	return repositoryError(op, err)
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	query := r.psql.Select(bookingColumns...).From(bookingsTable)

	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"date": NormalizeDate(*filter.From)})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"date": NormalizeDate(*filter.To)})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.OwnerID})
	}

	sql, args, err := query.OrderBy("date ASC", "start_time ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, repositoryError("list", err)
	}
	defer rows.Close()

	bookings := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, repositoryError("scan", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, repositoryError("list", err)
	}
	return bookings, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	sql, args, err := r.psql.Select(bookingColumns...).
		From(bookingsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapWriteError("get", err)
	}
	return b, nil
}

func (r *pgxRepository) Create(ctx context.Context, form Form, ownerID string) (*Booking, error) {
	sql, args, err := r.psql.Insert(bookingsTable).
		Columns("date", "start_time", "end_time", "title", "booked_by", "email", "department", "user_id").
		Values(form.Date, form.StartTime, form.EndTime, form.Title, form.BookedBy,
			nullIfEmpty(form.Email), nullIfEmpty(form.Department), ownerID).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build create booking query failed: %w", err)
	}

	return r.writeOnDate(ctx, "create", form.Date, sql, args)
}

func (r *pgxRepository) Update(ctx context.Context, id string, form Form, ownerID string) (*Booking, error) {
	sql, args, err := r.psql.Update(bookingsTable).
		Set("date", form.Date).
		Set("start_time", form.StartTime).
		Set("end_time", form.EndTime).
		Set("title", form.Title).
		Set("booked_by", form.BookedBy).
		Set("email", nullIfEmpty(form.Email)).
		Set("department", nullIfEmpty(form.Department)).
		Where(squirrel.Eq{"id": id, "user_id": ownerID}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update booking query failed: %w", err)
	}

	return r.writeOnDate(ctx, "update", form.Date, sql, args)
}

// writeOnDate runs a RETURNING write while holding the lock for date. Concurrent writers to one
// date queue on the lock instead of waiting on each other inside the overlap constraint, where
// Postgres may resolve the standoff as a deadlock rather than an exclusion violation.
func (r *pgxRepository) writeOnDate(ctx context.Context, op string, date time.Time, sql string, args []any) (*Booking, error) {
	var b *Booking
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1, $2)", dateLockSpace, dateLockKey(date)); err != nil {
			return err
		}
		var err error
		b, err = scanBooking(tx.QueryRow(ctx, sql, args...))
		return err
	})
	if err != nil {
		return nil, mapWriteError(op, err)
	}
	return b, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string, ownerID string) error {
	sql, args, err := r.psql.Delete(bookingsTable).
		Where(squirrel.Eq{"id": id, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return mapWriteError("delete", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

const dateLockSpace int32 = 0x626b

func dateLockKey(date time.Time) int32 {
	return int32(NormalizeDate(date).Unix() / 86400)
}

func joinColumns() string {
	return strings.Join(bookingColumns, ", ")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
