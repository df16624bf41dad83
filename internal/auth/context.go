package auth

import "github.com/gin-gonic/gin"

const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxEmail    = "email"
)

// UserID extracts the authenticated user's id from the gin context.
// It is set by Middleware; zero means unauthenticated.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}
