package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New builds the omikuji API router. rdb may be nil, which disables
// slip event publishing.
func New(db *gorm.DB, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), Monitor())
	attachRoutes(g, db, rdb)
	return g
}
