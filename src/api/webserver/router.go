package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nuscas/omikuji-bot/src/shared/slips"
)

func attachRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client) {
	// Add CORS middleware. The API is read-mostly and unauthenticated,
	// so any origin may call it.
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	repo := slips.NewRepository(db)
	slipH := NewSlips(repo)
	voteH := NewVotes(repo, rdb)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/slips/:id", slipH.Get)
		v1.GET("/draw", slipH.Draw)
		// Not under /slips: gin's route tree cannot mix the static
		// segment with the :id wildcard.
		v1.GET("/stats", slipH.Stats)
		v1.POST("/slips/:id/votes", voteH.Cast)
	}
}
