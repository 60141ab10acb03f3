package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
)

const CtxUserDBID = "user_db_id"

// WithUser mirrors the authenticated subject into the users table so the
// dashboard can list assignees and roles. Runs after the auth middleware.
func WithUser(repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := auth.UserID(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			c.Abort()
			return
		}

		id, err := repo.EnsureUser(c.Request.Context(), UpsertUser{
			Subject: sub,
			Email:   c.GetString(auth.CtxUserEmail),
			Role:    auth.UserRole(c),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxUserDBID, id)
		c.Next()
	}
}
