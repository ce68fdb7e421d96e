package announcement

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, filter Filter) ([]*Post, int, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id, authorID string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// selectPosts joins the author's display name, falling back to the email.
func selectPosts(extra ...string) squirrel.SelectBuilder {
	cols := append([]string{
		"p.id", "p.author_id", "COALESCE(u.display_name, u.email, '')",
		"p.content", "p.created_at", "p.updated_at",
	}, extra...)
	return psql.Select(cols...).
		From("public.posts p").
		LeftJoin("public.users u ON u.id = p.author_id")
}

func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

func (r *pgxRepository) Create(ctx context.Context, p *Post) error {
	query, args, err := psql.Insert("public.posts").
		Columns("author_id", "content").
		Values(p.AuthorID, p.Content).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create post query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create post failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Post, error) {
	query, args, err := selectPosts().
		Where(squirrel.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get post query failed: %w", err)
	}

	var p Post
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.AuthorID, &p.AuthorName, &p.Content, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post failed: %w", err)
	}
	return &p, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Post, int, error) {
	query := selectPosts("count(*) OVER() AS total_count")

	if filter.Keyword != "" {
		query = query.Where(squirrel.ILike{"p.content": "%" + filter.Keyword + "%"})
	}
	if filter.AuthorID != "" {
		query = query.Where(squirrel.Eq{"p.author_id": filter.AuthorID})
	}

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list posts query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts failed: %w", err)
	}
	defer rows.Close()

	var result []*Post
	var total int

	for rows.Next() {
		var p Post
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.AuthorName, &p.Content, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan post failed: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts failed: %w", err)
	}

	return result, total, nil
}

// Update rewrites the content of a post owned by p.AuthorID.
func (r *pgxRepository) Update(ctx context.Context, p *Post) error {
	query, args, err := psql.Update("public.posts").
		Set("content", p.Content).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.ID, "author_id": p.AuthorID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update post query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update post failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id, authorID string) error {
	query, args, err := psql.Delete("public.posts").
		Where(squirrel.Eq{"id": id, "author_id": authorID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete post query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
