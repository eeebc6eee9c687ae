package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/session"
)

func newRouter(sessions *session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	whoami := func(c *gin.Context) {
		id, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "authenticated": ok})
	}
	r.GET("/private", AuthMiddleware(sessions), whoami)
	r.GET("/public", OptionalAuth(sessions), whoami)
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore(), "secret", time.Hour)
	r := newRouter(sessions)

	token, s, err := sessions.Start(context.Background(), session.Identity{UserID: 12})
	require.NoError(t, err)

	w := do(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/private", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/private", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":12,"authenticated":true}`, w.Body.String())

	require.NoError(t, sessions.End(context.Background(), s.ID))
	w = do(r, "/private", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore(), "secret", time.Hour)
	r := newRouter(sessions)

	token, _, err := sessions.Start(context.Background(), session.Identity{UserID: 3})
	require.NoError(t, err)

	w := do(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"authenticated":false}`, w.Body.String())

	w = do(r, "/public", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"authenticated":false}`, w.Body.String())

	w = do(r, "/public", token)
	assert.JSONEq(t, `{"user_id":3,"authenticated":true}`, w.Body.String())
}
