package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackit/backend/internal/session"
)

const (
	userIDKey  = "user_id"
	sessionKey = "session"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthMiddleware rejects requests without a live session.
func AuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		s, err := sessions.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		c.Set(userIDKey, s.UserID)
		c.Set(sessionKey, s)
		c.Next()
	}
}

// OptionalAuth identifies the viewer when a valid token is sent and lets
// anonymous requests through otherwise. Public reads use it to fill in the
// viewer's own votes.
func OptionalAuth(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if s, err := sessions.Verify(c.Request.Context(), token); err == nil {
				c.Set(userIDKey, s.UserID)
				c.Set(sessionKey, s)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, or false for anonymous requests.
func UserID(c *gin.Context) (int, bool) {
	id, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	v, ok := id.(int)
	return v, ok
}

// Session returns the current session set by AuthMiddleware or OptionalAuth.
func Session(c *gin.Context) (session.Session, bool) {
	s, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	v, ok := s.(session.Session)
	return v, ok
}
