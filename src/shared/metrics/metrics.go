// Package metrics exposes the omikuji domain counters. Both the bot and
// the API register against the default prometheus registry; the API
// serves the scrape endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SlipsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "omikuji_slips_saved_total",
		Help: "Slips committed to the database.",
	})

	Draws = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omikuji_draws_total",
		Help: "Draw requests by result.",
	}, []string{"result"})

	Votes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omikuji_votes_total",
		Help: "Votes cast on slips by direction.",
	}, []string{"direction"})
)

// Label values used with Draws and Votes.
const (
	DrawResultDrawn = "drawn"
	DrawResultEmpty = "empty"
	VoteUp          = "up"
	VoteDown        = "down"
)
