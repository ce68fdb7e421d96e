package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
)

// Principal identifies the signed-in caller. Services receive it explicitly on every call.
type Principal struct {
	UserID string
	Email  string
}

// IsZero reports whether no principal is present.
func (p Principal) IsZero() bool {
	return p.UserID == ""
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetPrincipal returns the principal stored by AuthRequired, or the zero Principal.
func GetPrincipal(c *gin.Context) Principal {
	return Principal{
		UserID: c.GetString(ctxUserID),
		Email:  c.GetString(ctxUserEmail),
	}
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(ctxUserID, p.UserID)
	c.Set(ctxUserEmail, p.Email)
}
