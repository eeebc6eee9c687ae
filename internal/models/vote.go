package models

import "time"

// TargetType names the kind of item a vote is cast on.
type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

// Vote model - one row per (user, item) holding an up (+1) or down (-1) vote.
// Withdrawing a vote deletes the row.
type Vote struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	UserID     int        `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"user_id"`
	TargetType TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"target_type"`
	TargetID   int        `gorm:"not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"target_id"`
	Value      int        `gorm:"not null;check:value IN (-1, 1)" json:"value"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// VoteRequest is the body of the vote endpoints. Direction is "up" or "down".
type VoteRequest struct {
	Direction string `json:"direction" binding:"required"`
}
