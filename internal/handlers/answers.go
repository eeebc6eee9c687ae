package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/repository"
)

var errQuestionClosed = errors.New("question is closed")

type AnswerHandler struct {
	db    *gorm.DB
	votes *voteCaster
}

func NewAnswerHandler(db *gorm.DB, votes *voteCaster) *AnswerHandler {
	return &AnswerHandler{db: db, votes: votes}
}

// loadAnswers returns a question's answers, accepted first, then by score.
func loadAnswers(db *gorm.DB, questionID int) ([]models.Answer, error) {
	answers := []models.Answer{}
	err := db.Where("question_id = ?", questionID).
		Preload("Author").
		Order("is_accepted desc, score desc, created_at asc").
		Find(&answers).Error
	return answers, err
}

func fillAnswerVotes(c *gin.Context, votes *repository.VoteRepository, answers []models.Answer) error {
	viewerID, ok := middleware.UserID(c)
	if !ok || len(answers) == 0 {
		return nil
	}

	ids := make([]int, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
	}
	byID, err := votes.ViewerVotes(c.Request.Context(), viewerID, models.TargetAnswer, ids)
	if err != nil {
		return err
	}
	for i := range answers {
		answers[i].ViewerVote = byID[answers[i].ID]
	}
	return nil
}

// GetAnswers returns all answers for a question
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var count int64
	if err := h.db.Model(&models.Question{}).Where("id = ?", questionID).Count(&count).Error; err != nil || count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	answers, err := loadAnswers(h.db, questionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	if err := fillAnswerVotes(c, h.votes.votes, answers); err != nil {
		log.Printf("load viewer votes: %v", err)
	}

	c.JSON(http.StatusOK, answers)
}

// CreateAnswer posts an answer to a question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	authorID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	questionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.AnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}
	if strings.TrimSpace(input.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer cannot be empty"})
		return
	}

	answer := models.Answer{
		QuestionID: questionID,
		Content:    input.Content,
		AuthorID:   authorID,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.Select("id", "is_closed").First(&question, questionID).Error; err != nil {
			return err
		}
		if question.IsClosed {
			return errQuestionClosed
		}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).Where("id = ?", questionID).UpdateColumns(map[string]interface{}{
			"answer_count": gorm.Expr("answer_count + 1"),
			"updated_at":   time.Now().UTC(),
		}).Error
	})
	switch {
	case isNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	case errors.Is(err, errQuestionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Question is closed"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	h.db.Preload("Author").First(&answer, answer.ID)
	c.JSON(http.StatusCreated, answer)
}

// loadOwnedAnswer fetches the answer and checks the caller wrote it.
func (h *AnswerHandler) loadOwnedAnswer(c *gin.Context, action string) (models.Answer, bool) {
	var answer models.Answer

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return answer, false
	}

	id, ok := paramID(c, "answerId")
	if !ok {
		return answer, false
	}

	if err := h.db.First(&answer, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return answer, false
	}

	if answer.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only " + action + " your own answers"})
		return answer, false
	}

	return answer, true
}

// UpdateAnswer edits an answer (owner only)
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	answer, ok := h.loadOwnedAnswer(c, "edit")
	if !ok {
		return
	}

	var input models.AnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}
	if strings.TrimSpace(input.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer cannot be empty"})
		return
	}

	if err := h.db.Model(&answer).Update("content", input.Content).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update answer"})
		return
	}
	h.db.Preload("Author").First(&answer, answer.ID)

	c.JSON(http.StatusOK, answer)
}

// DeleteAnswer deletes an answer and its votes (owner only)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	answer, ok := h.loadOwnedAnswer(c, "delete")
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.DeleteForTargets(tx, models.TargetAnswer, answer.ID); err != nil {
			return err
		}
		if err := tx.Delete(&answer).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Question{}).Where("id = ?", answer.QuestionID).
			UpdateColumn("answer_count", gorm.Expr("answer_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("id = ? AND accepted_answer_id = ?", answer.QuestionID, answer.ID).
			UpdateColumn("accepted_answer_id", nil).Error
	})
	if err != nil {
		log.Printf("delete answer %d: %v", answer.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

// AcceptAnswer marks an answer as the accepted one, or unmarks it if it
// already is. Only the question's author may accept.
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	answerID, ok := paramID(c, "answerId")
	if !ok {
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	var question models.Question
	if err := h.db.First(&question, answer.QuestionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if question.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the question author can accept an answer"})
		return
	}

	accept := !answer.IsAccepted
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", question.ID).
			UpdateColumn("is_accepted", false).Error; err != nil {
			return err
		}

		var accepted *int
		if accept {
			accepted = &answer.ID
			if err := tx.Model(&answer).UpdateColumn("is_accepted", true).Error; err != nil {
				return err
			}
		}
		return tx.Model(&question).UpdateColumn("accepted_answer_id", accepted).Error
	})
	if err != nil {
		log.Printf("accept answer %d: %v", answer.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question_id": question.ID,
		"answer_id":   answer.ID,
		"is_accepted": accept,
	})
}

// VoteAnswer handles upvoting/downvoting an answer
func (h *AnswerHandler) VoteAnswer(c *gin.Context) {
	h.votes.cast(c, models.TargetAnswer, "answerId")
}
