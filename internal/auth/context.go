package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
	CtxUserRole  = "user_role"
)

// UserID extracts the authenticated user's subject from the Gin context.
// This is set by Middleware (or OptionalUser in development).
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// UserRole extracts the caller's role. Unknown roles degrade to account
// executive, the least-privileged dashboard role.
func UserRole(c *gin.Context) stage.Role {
	switch stage.Role(strings.TrimSpace(c.GetString(CtxUserRole))) {
	case stage.RoleAdmin:
		return stage.RoleAdmin
	case stage.RoleSolutionArchitect:
		return stage.RoleSolutionArchitect
	default:
		return stage.RoleAccountExecutive
	}
}
