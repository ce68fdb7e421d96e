package announcement

import (
	"context"
	"time"

	"github.com/nekogravitycat/auditorium-booking/internal/auth"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/logger"
	"github.com/nekogravitycat/auditorium-booking/internal/realtime"
)

const changeTable = "posts"

type CreateRequest struct {
	Content string
}

type UpdateRequest struct {
	Content string
}

type Service interface {
	Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Post, error)
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, filter Filter) ([]*Post, int, error)
	Update(ctx context.Context, p auth.Principal, id string, req UpdateRequest) (*Post, error)
	Delete(ctx context.Context, p auth.Principal, id string) error
}

type service struct {
	repo      Repository
	publisher realtime.Publisher
	log       *logger.Logger
	now       func() time.Time
}

// NewService builds the feed service. publisher may be nil when realtime is disabled.
func NewService(repo Repository, publisher realtime.Publisher, log *logger.Logger) Service {
	if publisher == nil {
		publisher = realtime.Nop{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &service{repo: repo, publisher: publisher, log: log, now: time.Now}
}

func (s *service) Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Post, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}

	post := &Post{AuthorID: p.UserID, Content: content}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Re-read to pick up the author's display name.
	created, err := s.repo.GetByID(ctx, post.ID)
	if err != nil {
		s.log.Warn("reload created post failed", "post_id", post.ID, "error", err)
		created = post
	}

	s.changed(ctx, "created", created.ID)
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Post, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Post, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, p auth.Principal, id string, req UpdateRequest) (*Post, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != p.UserID {
		return nil, ErrPermissionDenied
	}

	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}
	post.Content = content

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.changed(ctx, "updated", post.ID)
	return post, nil
}

func (s *service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != p.UserID {
		return ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, id, p.UserID); err != nil {
		return err
	}

	s.changed(ctx, "deleted", id)
	return nil
}

func (s *service) changed(ctx context.Context, op, id string) {
	e := realtime.Event{Table: changeTable, Op: op, ID: id, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("change notification failed", "post_id", id, "op", op, "error", err)
	}
}
