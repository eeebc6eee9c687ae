package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackit/backend/internal/events"
	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/repository"
	"github.com/emilythestrangee/stackit/backend/internal/vote"
)

type voteCaster struct {
	votes     *repository.VoteRepository
	publisher events.Publisher
}

// cast handles an upvote/downvote click on the item named by the idParam path
// parameter and answers with the item's new score and the caller's vote.
func (v *voteCaster) cast(c *gin.Context, targetType models.TargetType, idParam string) {
	voterID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, ok := paramID(c, idParam)
	if !ok {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote direction must be up or down"})
		return
	}

	dir, err := vote.ParseDirection(input.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote direction must be up or down"})
		return
	}

	ctx := c.Request.Context()
	res, err := v.votes.Cast(ctx, voterID, repository.Target{Type: targetType, ID: id}, dir)
	switch {
	case errors.Is(err, repository.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(targetType)})
		return
	case errors.Is(err, repository.ErrSelfVote):
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot vote on your own " + string(targetType)})
		return
	case err != nil:
		log.Printf("vote on %s %d failed: %v", targetType, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		return
	}

	if v.publisher != nil {
		err := v.publisher.PublishVote(ctx, events.VoteCast{
			TargetType: targetType,
			TargetID:   id,
			UserID:     voterID,
			Direction:  dir.String(),
			ViewerVote: res.Viewer,
			Score:      res.Score,
			Delta:      res.Delta,
			At:         time.Now().UTC(),
		})
		if err != nil {
			log.Printf("publish vote event for %s %d: %v", targetType, id, err)
		}
	}

	c.JSON(http.StatusOK, res.Tally)
}

func notFoundMessage(t models.TargetType) string {
	if t == models.TargetAnswer {
		return "Answer not found"
	}
	return "Question not found"
}
