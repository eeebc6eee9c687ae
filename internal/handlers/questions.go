package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/repository"
)

type QuestionHandler struct {
	db    *gorm.DB
	votes *voteCaster
}

func NewQuestionHandler(db *gorm.DB, votes *voteCaster) *QuestionHandler {
	return &QuestionHandler{db: db, votes: votes}
}

// listFilters maps the home screen filters onto queries.
var listFilters = map[string]func(*gorm.DB) *gorm.DB{
	"newest": func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at desc")
	},
	"unanswered": func(q *gorm.DB) *gorm.DB {
		return q.Where("answer_count = 0").Order("created_at desc")
	},
	"active": func(q *gorm.DB) *gorm.DB {
		return q.Order("updated_at desc")
	},
}

// fillQuestionVotes sets ViewerVote on each question for the current viewer.
func (h *QuestionHandler) fillQuestionVotes(c *gin.Context, questions []models.Question) error {
	viewerID, ok := middleware.UserID(c)
	if !ok || len(questions) == 0 {
		return nil
	}

	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	votes, err := h.votes.votes.ViewerVotes(c.Request.Context(), viewerID, models.TargetQuestion, ids)
	if err != nil {
		return err
	}
	for i := range questions {
		questions[i].ViewerVote = votes[questions[i].ID]
	}
	return nil
}

// GetQuestions lists questions for the home screen
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	filter := c.DefaultQuery("filter", "newest")
	apply, ok := listFilters[filter]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown filter " + filter})
		return
	}

	query := apply(h.db.Preload("Author"))
	if tag := models.NormalizeTags([]string{c.Query("tag")}); len(tag) == 1 {
		// tags are stored as a JSON array of strings
		contains, err := json.Marshal(tag)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag"})
			return
		}
		query = query.Where("tags::jsonb @> ?::jsonb", string(contains))
	}

	questions := []models.Question{}
	if err := query.Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	if err := h.fillQuestionVotes(c, questions); err != nil {
		log.Printf("load viewer votes: %v", err)
	}

	c.JSON(http.StatusOK, questions)
}

// GetQuestion returns a question with its answers and counts the view
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res := h.db.Model(&models.Question{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch question"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var question models.Question
	if err := h.db.Preload("Author").First(&question, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	answers, err := loadAnswers(h.db, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	questions := []models.Question{question}
	if err := h.fillQuestionVotes(c, questions); err != nil {
		log.Printf("load viewer votes: %v", err)
	}
	if err := fillAnswerVotes(c, h.votes.votes, answers); err != nil {
		log.Printf("load viewer votes: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"question": questions[0],
		"answers":  answers,
	})
}

// CreateQuestion posts a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	authorID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.AskRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	tags := input.Tags
	if tags == nil {
		tags = models.TagList{}
	}

	question := models.Question{
		Title:       title,
		Description: input.Description,
		Tags:        tags,
		AuthorID:    authorID,
	}

	if err := h.db.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.db.Preload("Author").First(&question, question.ID)

	c.JSON(http.StatusCreated, question)
}

// loadOwnedQuestion fetches the question and checks the caller wrote it,
// answering the request itself on failure.
func (h *QuestionHandler) loadOwnedQuestion(c *gin.Context, action string) (models.Question, bool) {
	var question models.Question

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return question, false
	}

	id, ok := paramID(c, "id")
	if !ok {
		return question, false
	}

	if err := h.db.First(&question, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return question, false
	}

	if question.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only " + action + " your own questions"})
		return question, false
	}

	return question, true
}

// UpdateQuestion edits a question (PROTECTED - requires ownership)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	question, ok := h.loadOwnedQuestion(c, "edit")
	if !ok {
		return
	}

	var input models.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		question.Title = title
	}
	if input.Description != "" {
		question.Description = input.Description
	}
	if input.Tags != nil {
		question.Tags = *input.Tags
	}

	// score and the counters only move through atomic increments
	err := h.db.Model(&question).
		Select("title", "description", "tags", "updated_at").
		Updates(&question).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update question"})
		return
	}
	h.db.Preload("Author").First(&question, question.ID)

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question with its answers and their votes
// (PROTECTED - requires ownership)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	question, ok := h.loadOwnedQuestion(c, "delete")
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var answerIDs []int
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", question.ID).Pluck("id", &answerIDs).Error; err != nil {
			return err
		}
		if err := repository.DeleteForTargets(tx, models.TargetAnswer, answerIDs...); err != nil {
			return err
		}
		if err := repository.DeleteForTargets(tx, models.TargetQuestion, question.ID); err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		log.Printf("delete question %d: %v", question.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// VoteQuestion handles upvoting/downvoting a question (PROTECTED - requires authentication)
func (h *QuestionHandler) VoteQuestion(c *gin.Context) {
	h.votes.cast(c, models.TargetQuestion, "id")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
