package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/database/dbtest"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/vote"
)

func TestMain(m *testing.M) {
	os.Exit(dbtest.Run(m))
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedQuestion(t *testing.T, db *gorm.DB, author models.User, score int) models.Question {
	t.Helper()
	q := models.Question{Title: "How does prototypal inheritance work?", AuthorID: author.ID, Score: score}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func TestCastScenario(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "diptesh_dev")
	voter := seedUser(t, db, "code_master")
	q := seedQuestion(t, db, author, 5)
	target := Target{Type: models.TargetQuestion, ID: q.ID}

	steps := []struct {
		dir  vote.Direction
		want vote.Tally
	}{
		{vote.DirUp, vote.Tally{Score: 6, Viewer: vote.Up}},
		{vote.DirUp, vote.Tally{Score: 5, Viewer: vote.None}},
		{vote.DirDown, vote.Tally{Score: 4, Viewer: vote.Down}},
		{vote.DirUp, vote.Tally{Score: 6, Viewer: vote.Up}},
	}
	for i, step := range steps {
		res, err := repo.Cast(ctx, voter.ID, target, step.dir)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.want, res.Tally, "step %d", i)
	}

	var stored models.Question
	require.NoError(t, db.First(&stored, q.ID).Error)
	assert.Equal(t, 6, stored.Score)

	var rows []models.Vote
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Value)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, author.ID).Error)
	assert.Equal(t, 1, reloaded.Reputation)

	votes, err := repo.ViewerVotes(ctx, voter.ID, models.TargetQuestion, []int{q.ID})
	require.NoError(t, err)
	assert.Equal(t, vote.Up, votes[q.ID])
}

func TestCastErrors(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	q := seedQuestion(t, db, author, 0)

	_, err := repo.Cast(ctx, author.ID, Target{Type: models.TargetQuestion, ID: q.ID}, vote.DirUp)
	assert.ErrorIs(t, err, ErrSelfVote)

	_, err = repo.Cast(ctx, author.ID, Target{Type: models.TargetAnswer, ID: 999}, vote.DirUp)
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = repo.Cast(ctx, author.ID, Target{Type: "comment", ID: q.ID}, vote.DirUp)
	assert.ErrorIs(t, err, ErrUnknownTarget)

	_, err = repo.Cast(ctx, author.ID, Target{Type: models.TargetQuestion, ID: q.ID}, vote.Direction(0))
	assert.ErrorIs(t, err, vote.ErrInvalidDirection)
}

func TestConcurrentCastsKeepScoreConsistent(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	q := seedQuestion(t, db, author, 0)
	target := Target{Type: models.TargetQuestion, ID: q.ID}

	var voters []models.User
	for i := 0; i < 8; i++ {
		voters = append(voters, seedUser(t, db, fmt.Sprintf("voter%d", i)))
	}

	var wg sync.WaitGroup
	for i, v := range voters {
		for n := 0; n < 5; n++ {
			wg.Add(1)
			go func(userID int, dir vote.Direction) {
				defer wg.Done()
				_, err := repo.Cast(ctx, userID, target, dir)
				assert.NoError(t, err)
			}(v.ID, []vote.Direction{vote.DirUp, vote.DirDown}[(i+n)%2])
		}
	}
	wg.Wait()

	var stored models.Question
	require.NoError(t, db.First(&stored, q.ID).Error)

	var sum int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ?", models.TargetQuestion, q.ID).
		Select("COALESCE(SUM(value), 0)").Scan(&sum).Error)
	assert.Equal(t, int(sum), stored.Score)

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Where("target_id = ?", q.ID).Count(&count).Error)
	assert.LessOrEqual(t, count, int64(len(voters)))
}

func TestDeleteForTargets(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	q := seedQuestion(t, db, author, 0)

	_, err := repo.Cast(ctx, voter.ID, Target{Type: models.TargetQuestion, ID: q.ID}, vote.DirDown)
	require.NoError(t, err)

	require.NoError(t, DeleteForTargets(db, models.TargetQuestion, q.ID))

	votes, err := repo.ViewerVotes(ctx, voter.ID, models.TargetQuestion, []int{q.ID})
	require.NoError(t, err)
	assert.Empty(t, votes)
}
