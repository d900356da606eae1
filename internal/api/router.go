package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine with middleware and all API routes.
func NewRouter(users *UserHandler, tickets *TicketHandler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/users", users.Create)
		apiGroup.GET("/users", users.List)
		apiGroup.GET("/users/:id", users.Get)
		apiGroup.PUT("/users/:id", users.Update)
		apiGroup.DELETE("/users/:id", users.Delete)

		apiGroup.POST("/tickets", tickets.Create)
		apiGroup.GET("/tickets", tickets.List)
		apiGroup.GET("/tickets/:id", tickets.Get)
	}

	return r
}
