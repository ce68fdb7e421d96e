package announcement

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nekogravitycat/auditorium-booking/internal/pkg/apperror"
)

// MaxContentLength is the longest post body, in characters.
const MaxContentLength = 500

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "post not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "only the author can modify this post")
	ErrContentRequired  = apperror.New(http.StatusBadRequest, "content is required")
	ErrContentTooLong   = apperror.New(http.StatusBadRequest, "content must be at most 500 characters")
	ErrUnauthenticated  = apperror.New(http.StatusUnauthorized, "unauthorized")
)

// Post is a short text update on the internal feed.
type Post struct {
	ID         string
	AuthorID   string
	AuthorName string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Filter defines parameters for listing posts. Results are always newest first.
type Filter struct {
	Keyword  string
	AuthorID string
	Page     int
	PageSize int
}

// normalizeContent trims the body and enforces the 1..MaxContentLength rule.
func normalizeContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrContentRequired
	}
	if utf8.RuneCountInString(s) > MaxContentLength {
		return "", ErrContentTooLong
	}
	return s, nil
}
