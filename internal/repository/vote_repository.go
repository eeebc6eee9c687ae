package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/vote"
)

var (
	ErrTargetNotFound = errors.New("vote target not found")
	ErrSelfVote       = errors.New("you cannot vote on your own post")
	ErrUnknownTarget  = errors.New("unknown vote target type")
)

const pgUniqueViolation = "23505"

// Target identifies a votable item.
type Target struct {
	Type models.TargetType
	ID   int
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Type, t.ID)
}

// CastResult is the outcome of one vote click.
type CastResult struct {
	vote.Tally
	Previous vote.State
	Delta    int
	AuthorID int
}

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Cast applies direction d from userID to target. The target row is locked
// for the duration of the transaction, so the stored vote and the item's score
// move together. The item author's reputation follows the same delta.
func (r *VoteRepository) Cast(ctx context.Context, userID int, target Target, d vote.Direction) (CastResult, error) {
	if !d.Valid() {
		return CastResult{}, vote.ErrInvalidDirection
	}

	res, err := r.cast(ctx, userID, target, d)
	if IsUniqueViolation(err) {
		// A concurrent first vote by the same user won the insert; its row is
		// visible now, so reconcile against it.
		res, err = r.cast(ctx, userID, target, d)
	}
	return res, err
}

func (r *VoteRepository) cast(ctx context.Context, userID int, target Target, d vote.Direction) (CastResult, error) {
	var res CastResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		score, authorID, err := lockTarget(tx, target)
		if err != nil {
			return err
		}
		if authorID == userID {
			return ErrSelfVote
		}

		var existing models.Vote
		cur := vote.None
		err = tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
			Take(&existing).Error
		switch {
		case err == nil:
			cur = vote.StateFromValue(existing.Value)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("load vote: %w", err)
		}

		next, delta := vote.Transition(cur, d)

		switch {
		case next == vote.None:
			err = tx.Delete(&existing).Error
		case cur == vote.None:
			err = tx.Create(&models.Vote{
				UserID:     userID,
				TargetType: target.Type,
				TargetID:   target.ID,
				Value:      next.Value(),
			}).Error
		default:
			err = tx.Model(&existing).Update("value", next.Value()).Error
		}
		if err != nil {
			return fmt.Errorf("write vote: %w", err)
		}

		if err := tx.Table(tableFor(target.Type)).Where("id = ?", target.ID).
			UpdateColumn("score", gorm.Expr("score + ?", delta)).Error; err != nil {
			return fmt.Errorf("update score: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", authorID).
			UpdateColumn("reputation", gorm.Expr("reputation + ?", delta)).Error; err != nil {
			return fmt.Errorf("update reputation: %w", err)
		}

		res = CastResult{
			Tally:    vote.Tally{Score: score + delta, Viewer: next},
			Previous: cur,
			Delta:    delta,
			AuthorID: authorID,
		}
		return nil
	})

	return res, err
}

// lockTarget reads the item's score and author with FOR UPDATE.
func lockTarget(tx *gorm.DB, target Target) (score, authorID int, err error) {
	var row struct {
		Score    int
		AuthorID int
	}

	table := tableFor(target.Type)
	if table == "" {
		return 0, 0, ErrUnknownTarget
	}

	result := tx.Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("score", "author_id").
		Where("id = ?", target.ID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return 0, 0, fmt.Errorf("lock %s: %w", target, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, 0, ErrTargetNotFound
	}
	return row.Score, row.AuthorID, nil
}

func tableFor(t models.TargetType) string {
	switch t {
	case models.TargetQuestion:
		return "questions"
	case models.TargetAnswer:
		return "answers"
	}
	return ""
}

// ViewerVotes returns userID's current vote on each of ids. Items without a
// vote are absent from the map, which reads as vote.None.
func (r *VoteRepository) ViewerVotes(ctx context.Context, userID int, t models.TargetType, ids []int) (map[int]vote.State, error) {
	out := make(map[int]vote.State, len(ids))
	if userID == 0 || len(ids) == 0 {
		return out, nil
	}

	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, t, ids).
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("load viewer votes: %w", err)
	}

	for _, v := range votes {
		out[v.TargetID] = vote.StateFromValue(v.Value)
	}
	return out, nil
}

// DeleteForTargets removes every vote on the given items. Pass a transaction
// as db to make it part of a larger delete.
func DeleteForTargets(db *gorm.DB, t models.TargetType, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Where("target_type = ? AND target_id IN ?", t, ids).Delete(&models.Vote{}).Error
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
