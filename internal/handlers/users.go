package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUserProfile returns a user's profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	questions := []models.Question{}
	h.db.Where("author_id = ?", userID).Order("created_at desc").Find(&questions)

	var answerCount, acceptedCount int64
	h.db.Model(&models.Answer{}).Where("author_id = ?", userID).Count(&answerCount)
	h.db.Model(&models.Answer{}).Where("author_id = ? AND is_accepted = ?", userID, true).Count(&acceptedCount)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"full_name":  user.FullName,
			"reputation": user.Reputation,
			"created_at": user.CreatedAt,
		},
		"questions":      questions,
		"answer_count":   answerCount,
		"accepted_count": acceptedCount,
	})
}
