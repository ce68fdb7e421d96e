package http

import (
	"time"

	"github.com/nekogravitycat/auditorium-booking/internal/announcement"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/request"
)

type PostResponse struct {
	ID        string    `json:"id"`
	Author    AuthorTag `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorTag is the minimal author info embedded in a post.
type AuthorTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewResponse(p *announcement.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Author:    AuthorTag{ID: p.AuthorID, Name: p.AuthorName},
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type ListPostsRequest struct {
	request.ListParams
	Keyword string `form:"q" binding:"omitempty,max=100"`
	Mine    bool   `form:"mine"`
}

type CreateRequest struct {
	Content string `json:"content" binding:"required"`
}

type UpdateRequest struct {
	Content string `json:"content" binding:"required"`
}
