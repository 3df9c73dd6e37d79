package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nuscas/omikuji-bot/src/shared/fortune"
	"github.com/nuscas/omikuji-bot/src/shared/metrics"
	"github.com/nuscas/omikuji-bot/src/shared/slips"
)

type Slips struct {
	repo      *slips.Repository
	sanitizer *bluemonday.Policy
}

func NewSlips(repo *slips.Repository) Slips {
	// Slip text is chat input from strangers. Strip all markup before
	// it can reach a browser.
	return Slips{repo: repo, sanitizer: bluemonday.StrictPolicy()}
}

func (h Slips) Get(c *gin.Context) {
	id, err := parseSlipID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid slip id"})
		return
	}

	slip, err := h.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, slips.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "slip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	h.renderSlip(c, slip)
}

func (h Slips) Draw(c *gin.Context) {
	slip, err := h.repo.DrawRandom()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if slip == nil {
		metrics.Draws.WithLabelValues(metrics.DrawResultEmpty).Inc()
		c.JSON(http.StatusNotFound, gin.H{"err": "no slips to draw"})
		return
	}
	metrics.Draws.WithLabelValues(metrics.DrawResultDrawn).Inc()

	h.renderSlip(c, slip)
}

func (h Slips) Stats(c *gin.Context) {
	stats, err := h.repo.CountStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": stats.Total, "eligible": stats.Eligible})
}

func (h Slips) renderSlip(c *gin.Context, slip *slips.Slip) {
	msg, err := fortune.DecodeMessage(slip.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "stored slip is not readable"})
		return
	}

	sections := make([]gin.H, 0, len(msg.Sections))
	for _, s := range msg.Sections {
		sections = append(sections, gin.H{
			"kind": s.Kind.String(),
			"text": h.sanitizer.Sanitize(s.Text),
		})
	}

	resp := gin.H{
		"id":          slip.ID,
		"class":       msg.Class.String(),
		"description": h.sanitizer.Sanitize(msg.Description),
		"sections":    sections,
		"votes":       slip.VoteCount,
		"author":      h.sanitizer.Sanitize(slip.AuthorName),
		"created_at":  slip.CreatedAt,
	}
	if slip.Photo != nil {
		resp["photo"] = *slip.Photo
	}
	c.JSON(http.StatusOK, resp)
}

func parseSlipID(raw string) (uint32, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
