package webserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nuscas/omikuji-bot/src/shared/data"
	"github.com/nuscas/omikuji-bot/src/shared/metrics"
	"github.com/nuscas/omikuji-bot/src/shared/slips"
)

type Votes struct {
	voting *slips.Voting
	rdb    *redis.Client
}

func NewVotes(repo *slips.Repository, rdb *redis.Client) Votes {
	return Votes{voting: slips.NewVoting(repo), rdb: rdb}
}

func (v Votes) Cast(c *gin.Context) {
	var req struct {
		Choice string `json:"choice" binding:"required,oneof=up down"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	id, err := parseSlipID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid slip id"})
		return
	}

	upvote := req.Choice == "up"
	if err := v.voting.Cast(id, upvote); err != nil {
		if errors.Is(err, slips.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "slip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	direction := metrics.VoteUp
	if !upvote {
		direction = metrics.VoteDown
	}
	metrics.Votes.WithLabelValues(direction).Inc()

	if v.rdb != nil {
		_ = data.PublishSlipEvent(context.Background(), v.rdb, "slip_voted", map[string]interface{}{
			"slip_id":   id,
			"direction": direction,
		})
	}

	c.Status(http.StatusCreated)
}
