package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/events"
	"github.com/emilythestrangee/stackit/backend/internal/repository"
	"github.com/emilythestrangee/stackit/backend/internal/session"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, sessions *session.Manager, publisher events.Publisher) *Handler {
	votes := &voteCaster{
		votes:     repository.NewVoteRepository(db),
		publisher: publisher,
	}

	return &Handler{
		Auth:     NewAuthHandler(db, sessions),
		Question: NewQuestionHandler(db, votes),
		Answer:   NewAnswerHandler(db, votes),
		User:     NewUserHandler(db),
	}
}

// paramID reads a positive integer path parameter, answering 400 itself when
// it is malformed.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
