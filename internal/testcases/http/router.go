package http

import "github.com/gin-gonic/gin"

// RegisterProjectRoutes attaches the project-scoped test case routes to
// the projects group.
func (h *Handler) RegisterProjectRoutes(rg *gin.RouterGroup) {
	tc := rg.Group("/:project_id/test-cases")
	tc.POST("", h.create)
	tc.GET("", h.list)
	tc.GET("/stats", h.stats)
	tc.GET("/by-status/:status", h.listByStatus)
	tc.GET("/by-priority/:priority", h.listByPriority)
	tc.GET("/by-type/:type", h.listByType)
	tc.POST("/bulk-status", h.bulkStatus)
}

// RegisterRoutes attaches the id-scoped test case routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.GET("/:id/similar", h.similar)
}
