package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emilythestrangee/stackit/backend/internal/vote"
)

const MaxTags = 5

type Question struct {
	ID               int        `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:300;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	Tags             []string   `gorm:"type:text;serializer:json" json:"tags"`
	AuthorID         int        `gorm:"not null;index" json:"author_id"`
	Author           User       `gorm:"foreignKey:AuthorID" json:"author"`
	Score            int        `gorm:"not null;default:0" json:"score"`
	Views            int        `gorm:"not null;default:0" json:"views"`
	AnswerCount      int        `gorm:"not null;default:0" json:"answer_count"`
	AcceptedAnswerID *int       `json:"accepted_answer_id,omitempty"`
	IsClosed         bool       `gorm:"not null;default:false" json:"is_closed"`
	ViewerVote       vote.State `gorm:"-" json:"viewer_vote"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsAnswered reports whether the question has an accepted answer.
func (q *Question) IsAnswered() bool {
	return q.AcceptedAnswerID != nil
}

// AskRequest is the body of POST /api/questions.
type AskRequest struct {
	Title       string  `json:"title" binding:"required,max=300"`
	Description string  `json:"description"`
	Tags        TagList `json:"tags" binding:"max=5,dive,min=1,max=35"`
}

// UpdateQuestionRequest is the body of PUT /api/questions/:id. Empty fields
// are left unchanged.
type UpdateQuestionRequest struct {
	Title       string   `json:"title" binding:"max=300"`
	Description string   `json:"description"`
	Tags        *TagList `json:"tags" binding:"omitempty,max=5,dive,min=1,max=35"`
}

// TagList accepts either a JSON list or the comma-separated string the ask
// form submits. Tags are lowercased, stripped of a leading '#' and
// deduplicated in order.
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	var raw []string
	var s string
	switch {
	case json.Unmarshal(b, &s) == nil:
		raw = strings.Split(s, ",")
	case json.Unmarshal(b, &raw) == nil:
	default:
		return fmt.Errorf("tags must be a string or a list of strings")
	}
	*t = NormalizeTags(raw)
	return nil
}

func NormalizeTags(raw []string) TagList {
	seen := make(map[string]bool, len(raw))
	out := TagList{}
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
