package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/database/dbtest"
	"github.com/emilythestrangee/stackit/backend/internal/events"
	"github.com/emilythestrangee/stackit/backend/internal/session"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(dbtest.Run(m))
}

func testSessions() *session.Manager {
	return session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour)
}

func TestHealth(t *testing.T) {
	s := NewWithDeps(dbtest.Open(t), testSessions(), events.LogPublisher{})

	w := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":{"status":"up"}}`, w.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := NewWithDeps(nil, testSessions(), events.LogPublisher{}).RegisterRoutes()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/logout"},
		{http.MethodPost, "/api/questions"},
		{http.MethodPut, "/api/questions/1"},
		{http.MethodDelete, "/api/questions/1"},
		{http.MethodPost, "/api/questions/1/vote"},
		{http.MethodPost, "/api/questions/1/answers"},
		{http.MethodPut, "/api/answers/1"},
		{http.MethodDelete, "/api/answers/1"},
		{http.MethodPost, "/api/answers/1/accept"},
		{http.MethodPost, "/api/answers/1/vote"},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := NewWithDeps(nil, testSessions(), events.LogPublisher{}).RegisterRoutes()

	req := httptest.NewRequest(http.MethodOptions, "/api/questions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestString(t *testing.T) {
	s := NewWithDeps(nil, testSessions(), events.LogPublisher{})
	assert.Equal(t, "sessions=memory events=events.LogPublisher", s.String())
}
