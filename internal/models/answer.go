package models

import (
	"time"

	"github.com/emilythestrangee/stackit/backend/internal/vote"
)

type Answer struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	QuestionID int        `gorm:"not null;index" json:"question_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	AuthorID   int        `gorm:"not null;index" json:"author_id"`
	Author     User       `gorm:"foreignKey:AuthorID" json:"author"`
	Score      int        `gorm:"not null;default:0" json:"score"`
	IsAccepted bool       `gorm:"not null;default:false" json:"is_accepted"`
	ViewerVote vote.State `gorm:"-" json:"viewer_vote"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type AnswerRequest struct {
	Content string `json:"content" binding:"required"`
}
