package handlers

import (
	"github.com/ammiranda/tree_diagram/internal/diagram"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine serving the API
func NewRouter(svc *diagram.Service, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	NewTreeHandler(svc).Register(r)
	return r
}
