// Package server is a small todo API that the remote backend can talk to.
package server

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/Makepad-fr/tada/internal/repository"
)

// Options configure the router.
type Options struct {
	// JWTSecret enables HS256 bearer auth on every /todos route when set.
	JWTSecret string
	Logger    *log.Logger
}

// Router serves /todos on top of any repository.
func Router(repo repository.Repository, opt Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	h := &handler{repo: repo, logger: opt.Logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opt.Logger))
	router.GET("/health", health)

	api := router.Group("/todos")
	if opt.JWTSecret != "" {
		api.Use(authMiddleware(opt.JWTSecret, opt.Logger))
	}
	{
		api.GET("", h.list)
		api.POST("", h.create)
		api.GET("/:id", h.get)
		api.PUT("/:id", h.update)
		api.PATCH("/:id", h.update)
		api.DELETE("/:id", h.delete)
	}
	return router
}
